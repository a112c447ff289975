package documents

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"impactbridge/partner-portal/partner-portal-backend/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	docs := rg.Group("/documents")
	{
		docs.POST("/upload", h.Upload)
		docs.GET("", h.List)
		docs.GET("/:id", h.Download)
		docs.GET("/:id/metadata", h.GetMetadata)
		docs.POST("/:id/reupload", h.Reupload)
		docs.PATCH("/:id", h.UpdateMetadata)
		docs.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	orgID, err := auth.OrgID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing organization"})
		return
	}
	docType := DocumentType(c.PostForm("document_type"))
	if docType == "" {
		docType = TypeOther
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	req := UploadRequest{
		OrgID:       orgID,
		Name:        file.Filename,
		Type:        docType,
		FileSize:    file.Size,
		FileContent: f,
	}
	if issued := c.PostForm("issued_at"); issued != "" {
		if t, err := time.Parse("2006-01-02", issued); err == nil {
			req.IssuedAt = &t
		}
	}
	if expiry := c.PostForm("expiry_date"); expiry != "" {
		if t, err := time.Parse("2006-01-02", expiry); err == nil {
			req.ExpiryDate = &t
		}
	}

	doc, err := h.service.UploadDocument(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) List(c *gin.Context) {
	orgID, err := auth.OrgID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing organization"})
		return
	}

	docTypeStr := c.Query("document_type")
	var docType *DocumentType
	if docTypeStr != "" {
		dt := DocumentType(docTypeStr)
		docType = &dt
	}

	docs, err := h.service.ListDocuments(c.Request.Context(), orgID, docType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, docs)
}

func (h *Handler) Download(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	reader, err := h.service.DownloadDocument(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, -1, "application/octet-stream", reader, nil)
}

func (h *Handler) GetMetadata(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	doc, err := h.service.GetDocument(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *Handler) Reupload(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	doc, err := h.service.ReuploadDocument(c.Request.Context(), id, ReuploadRequest{
		Name:        file.Filename,
		FileSize:    file.Size,
		FileContent: f,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *Handler) UpdateMetadata(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req struct {
		Name       *string    `json:"name"`
		IssuedAt   *time.Time `json:"issued_at"`
		ExpiryDate *time.Time `json:"expiry_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.service.UpdateMetadata(c.Request.Context(), id, MetadataUpdate{
		Name:       req.Name,
		IssuedAt:   req.IssuedAt,
		ExpiryDate: req.ExpiryDate,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Delete removes a document record. Callers must pass confirm=true; the UI
// never hard-deletes without an explicit user confirmation.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deletion requires confirm=true"})
		return
	}

	if err := h.service.DeleteDocument(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
