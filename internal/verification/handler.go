package verification

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"impactbridge/partner-portal/partner-portal-backend/internal/auth"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	ver := rg.Group("/verification")
	{
		ver.GET("/checklist", h.Checklist)
		ver.GET("/eligibility", h.Eligibility)
		ver.GET("/status", h.Status)
		ver.GET("/readiness-report", h.ReadinessReport)
		ver.POST("/submit", h.Submit)
		ver.POST("/:id/action", auth.RequireRole(auth.RoleOps), h.OpsAction)
		ver.GET("/:id/timeline", h.Timeline)
		ver.GET("/:id/progress", h.Progress)
		ver.GET("/:id/certificate", h.Certificate)
	}
}

func (h *Handler) Checklist(c *gin.Context) {
	orgID, err := auth.OrgID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing organization"})
		return
	}

	items, err := h.service.Checklist(c.Request.Context(), orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *Handler) Eligibility(c *gin.Context) {
	orgID, err := auth.OrgID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing organization"})
		return
	}

	gate, err := h.service.Eligibility(c.Request.Context(), orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gate)
}

func (h *Handler) Status(c *gin.Context) {
	orgID, err := auth.OrgID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing organization"})
		return
	}

	status, req, err := h.service.Status(c.Request.Context(), orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status, "request": req})
}

func (h *Handler) Submit(c *gin.Context) {
	orgID, err := auth.OrgID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing organization"})
		return
	}

	var body struct {
		Notes string `json:"notes"`
	}
	_ = c.ShouldBindJSON(&body)

	req, err := h.service.Submit(c.Request.Context(), orgID, body.Notes)
	if err != nil {
		var blocked *GateBlockedError
		if errors.As(err, &blocked) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "submission blocked",
				"missing": blocked.Missing,
				"expired": blocked.Expired,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, req)
}

func (h *Handler) OpsAction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var body struct {
		Action Action `json:"action" binding:"required"`
		Note   string `json:"note"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.service.OpsAction(c.Request.Context(), id, body.Action, body.Note)
	if err != nil {
		var invalid *ErrInvalidTransition
		if errors.As(err, &invalid) {
			c.JSON(http.StatusConflict, gin.H{"error": invalid.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, req)
}

func (h *Handler) Timeline(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	order := EventOrder(c.DefaultQuery("order", string(OrderDesc)))
	events, err := h.service.Events(c.Request.Context(), id, order)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, events)
}

func (h *Handler) Progress(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	step, err := h.service.Progress(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"step_index": step,
		"step_label": StepLabels[step],
		"steps":      StepLabels,
	})
}

func (h *Handler) Certificate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	req, err := h.service.repo.GetRequestByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if req == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "verification request not found"})
		return
	}

	orgName := c.DefaultQuery("org_name", req.OrgID.String())
	pdf, err := GenerateCertificate(req, orgName)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=verification-certificate.pdf")
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *Handler) ReadinessReport(c *gin.Context) {
	orgID, err := auth.OrgID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing organization"})
		return
	}

	items, err := h.service.Checklist(c.Request.Context(), orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := WriteReadinessReport(items, &buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=readiness-report.xlsx")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
