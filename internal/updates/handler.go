package updates

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	projects := rg.Group("/projects/:projectID")
	{
		projects.GET("/tasks", h.ListTasks)
		projects.GET("/updates", h.ListUpdates)
		projects.POST("/updates/wizard", h.StartWizard)
	}

	wizard := rg.Group("/wizards/:id")
	{
		wizard.GET("", h.GetWizard)
		wizard.POST("/next", h.Next)
		wizard.POST("/back", h.Back)
		wizard.POST("/tasks/:taskID/toggle", h.ToggleTask)
		wizard.POST("/media", h.AttachMedia)
		wizard.POST("/media/:mediaID/link", h.LinkMedia)
		wizard.DELETE("/media/:mediaID/link", h.UnlinkMedia)
		wizard.PUT("/report", h.SetReport)
		wizard.POST("/confirm", h.Confirm)
		wizard.POST("/submit", h.Submit)
		wizard.DELETE("", h.Close)
	}
}

func wizardState(w *Wizard) gin.H {
	return gin.H{
		"id":             w.ID,
		"project_id":     w.ProjectID,
		"step":           int(w.Step()),
		"step_name":      w.Step().String(),
		"tasks":          w.Tasks(),
		"media":          w.Media(),
		"report_text":    w.ReportText(),
		"confirmed":      w.Confirmed(),
		"media_reminder": w.MediaReminder(),
	}
}

func (h *Handler) ListTasks(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	tasks, err := h.service.ListTasks(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, tasks)
}

func (h *Handler) ListUpdates(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	updates, err := h.service.ListUpdates(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, updates)
}

func (h *Handler) StartWizard(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	wizard, err := h.service.StartWizard(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, wizardState(wizard))
}

func (h *Handler) wizard(c *gin.Context) *Wizard {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wizard id"})
		return nil
	}
	wizard, err := h.service.Wizard(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil
	}
	return wizard
}

func (h *Handler) GetWizard(c *gin.Context) {
	wizard := h.wizard(c)
	if wizard == nil {
		return
	}
	c.JSON(http.StatusOK, wizardState(wizard))
}

func (h *Handler) Next(c *gin.Context) {
	wizard := h.wizard(c)
	if wizard == nil {
		return
	}

	if err := wizard.Next(); err != nil {
		var gate *StepGateError
		if errors.As(err, &gate) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": gate.Reason, "step": int(gate.Step)})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, wizardState(wizard))
}

func (h *Handler) Back(c *gin.Context) {
	wizard := h.wizard(c)
	if wizard == nil {
		return
	}
	wizard.Back()
	c.JSON(http.StatusOK, wizardState(wizard))
}

func (h *Handler) ToggleTask(c *gin.Context) {
	wizard := h.wizard(c)
	if wizard == nil {
		return
	}

	taskID, err := uuid.Parse(c.Param("taskID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	completed, err := wizard.ToggleTask(taskID)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"task_id": taskID, "completed": completed})
}

// AttachMedia records a completed upload. The upload transport itself is
// external; the wizard only consumes the resulting metadata.
func (h *Handler) AttachMedia(c *gin.Context) {
	wizard := h.wizard(c)
	if wizard == nil {
		return
	}

	var body struct {
		URL      string     `json:"url" binding:"required"`
		FileName string     `json:"file_name"`
		TaskID   *uuid.UUID `json:"task_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := wizard.AttachMedia(body.URL, body.FileName, body.TaskID)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *Handler) LinkMedia(c *gin.Context) {
	wizard := h.wizard(c)
	if wizard == nil {
		return
	}

	mediaID, err := uuid.Parse(c.Param("mediaID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid media id"})
		return
	}

	var body struct {
		TaskID uuid.UUID `json:"task_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := wizard.LinkMedia(mediaID, body.TaskID); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, wizardState(wizard))
}

func (h *Handler) UnlinkMedia(c *gin.Context) {
	wizard := h.wizard(c)
	if wizard == nil {
		return
	}

	mediaID, err := uuid.Parse(c.Param("mediaID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid media id"})
		return
	}

	if err := wizard.UnlinkMedia(mediaID); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, wizardState(wizard))
}

func (h *Handler) SetReport(c *gin.Context) {
	wizard := h.wizard(c)
	if wizard == nil {
		return
	}

	var body struct {
		ReportText         string `json:"report_text"`
		BeneficiariesCount *int   `json:"beneficiaries_count"`
		Challenges         string `json:"challenges"`
		ImmediateOutcomes  string `json:"immediate_outcomes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.service.SetReport(wizard, body.ReportText, body.BeneficiariesCount, body.Challenges, body.ImmediateOutcomes)
	c.JSON(http.StatusOK, wizardState(wizard))
}

func (h *Handler) Confirm(c *gin.Context) {
	wizard := h.wizard(c)
	if wizard == nil {
		return
	}

	var body struct {
		Confirmed bool `json:"confirmed"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wizard.SetConfirmed(body.Confirmed)
	c.JSON(http.StatusOK, wizardState(wizard))
}

func (h *Handler) Submit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wizard id"})
		return
	}

	update, err := h.service.Submit(c.Request.Context(), id)
	if err != nil {
		var gate *StepGateError
		if errors.As(err, &gate) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": gate.Reason, "step": int(gate.Step)})
			return
		}
		if errors.Is(err, ErrAlreadySubmitted) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		// Persistence failed; the session survives for a retry.
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, update)
}

func (h *Handler) Close(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wizard id"})
		return
	}

	force := c.Query("force") == "true"
	if err := h.service.Close(id, force); err != nil {
		if errors.Is(err, ErrDiscardRequiresConfirm) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "confirm_required": true})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
