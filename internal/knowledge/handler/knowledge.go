// Package handler provides HTTP handlers for the knowledge service.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lexfisc/lexfisc/internal/knowledge/biz"
	"github.com/lexfisc/lexfisc/pkg/utils/errors"
)

// TenantHeader carries the tenant identity set by the API gateway.
const TenantHeader = "X-Tenant-ID"

// askTimeout bounds one question end to end.
const askTimeout = 60 * time.Second

// KnowledgeHandler handles knowledge HTTP requests.
type KnowledgeHandler struct {
	service biz.Service
}

// NewKnowledgeHandler creates a new KnowledgeHandler.
func NewKnowledgeHandler(service biz.Service) *KnowledgeHandler {
	return &KnowledgeHandler{service: service}
}

// SuccessResponse is a standard success response.
type SuccessResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeError(c *gin.Context, err error) {
	e := errors.FromError(err)
	c.JSON(e.HTTPStatus(), ErrorResponse{Code: e.Code, Message: e.Message})
}

func tenantID(c *gin.Context) *string {
	if v := c.GetHeader(TenantHeader); v != "" {
		return &v
	}
	return nil
}

func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return offset, limit
}

// Upload receives a PDF, registers the document and starts ingestion.
func (h *KnowledgeHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		writeError(c, errors.ErrKnowledgeInvalidUpload.WithMessage("multipart field 'file' is required"))
		return
	}

	src, err := file.Open()
	if err != nil {
		writeError(c, errors.ErrKnowledgeInvalidUpload.WithCause(err))
		return
	}
	defer src.Close()

	doc, job, err := h.service.UploadDocument(c.Request.Context(), &biz.UploadRequest{
		TenantID: tenantID(c),
		Title:    c.PostForm("title"),
		FileName: file.Filename,
		Data:     src,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, SuccessResponse{
		Code:    0,
		Message: "Document accepted for ingestion",
		Data: gin.H{
			"document": doc,
			"job":      job,
		},
	})
}

// Ingest starts an ingestion run for an existing document.
func (h *KnowledgeHandler) Ingest(c *gin.Context) {
	job, err := h.service.StartIngest(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, SuccessResponse{
		Code:    0,
		Message: "Ingestion started",
		Data:    job,
	})
}

// JobStatus returns an ingest job.
func (h *KnowledgeHandler) JobStatus(c *gin.Context) {
	job, err := h.service.JobStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "OK", Data: job})
}

// AskRequest represents a question.
type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

// Ask answers a question grounded in the tenant-visible corpus.
func (h *KnowledgeHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.ErrKnowledgeInvalidRequest.WithMessage(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), askTimeout)
	defer cancel()

	answer, err := h.service.Ask(ctx, tenantID(c), req.Question)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "OK", Data: answer})
}

// ListDocuments lists tenant-visible documents.
func (h *KnowledgeHandler) ListDocuments(c *gin.Context) {
	offset, limit := pagination(c)
	count, docs, err := h.service.ListDocuments(c.Request.Context(), tenantID(c), offset, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Code:    0,
		Message: "OK",
		Data:    gin.H{"total": count, "items": docs},
	})
}

// DeleteDocument removes a document with its chunks, jobs and vectors.
func (h *KnowledgeHandler) DeleteDocument(c *gin.Context) {
	if err := h.service.DeleteDocument(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "Document deleted"})
}

// ListSessions lists a tenant's QA sessions.
func (h *KnowledgeHandler) ListSessions(c *gin.Context) {
	offset, limit := pagination(c)
	count, sessions, err := h.service.ListSessions(c.Request.Context(), tenantID(c), offset, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Code:    0,
		Message: "OK",
		Data:    gin.H{"total": count, "items": sessions},
	})
}

// Stats returns knowledge base statistics.
func (h *KnowledgeHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "OK", Data: stats})
}

// Health reports dependency health.
func (h *KnowledgeHandler) Health(c *gin.Context) {
	health := h.service.Health(c.Request.Context())
	status := http.StatusOK
	if health["status"] != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}
