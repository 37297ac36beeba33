package jobs

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"jsonlify-backend/internal/shared/server/middleware"
	"jsonlify-backend/internal/shared/server/respond"
)

// Handler exposes the jobs HTTP surface.
type Handler struct {
	Service *Service
}

// Create handles POST /jobs.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid request body", err.Error())
		return
	}

	ctx := WithRequestID(c.Request.Context(), c.GetString("requestId"))
	job, err := h.Service.Create(ctx, CreateInput{
		UserID:    middleware.UserIDFromContext(c),
		JobType:   req.JobType,
		FileName:  req.FileName,
		FileKey:   req.FileKey,
		FileURL:   req.FileURL,
		MimeType:  req.MimeType,
		FileSize:  req.FileSize,
		UserQuery: req.UserQuery,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, job)
}

// Get handles GET /jobs/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	job, err := h.Service.Get(c.Request.Context(), identityFrom(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, job)
}

// List handles GET /jobs.
func (h *Handler) List(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	list, err := h.Service.List(c.Request.Context(), identityFrom(c), limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if list == nil {
		list = []Job{}
	}
	respond.OK(c, ListResponse{Jobs: list, Limit: limit, Offset: offset})
}

// UpdateQuery handles POST /jobs/:id/query.
func (h *Handler) UpdateQuery(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid request body", err.Error())
		return
	}

	ctx := WithRequestID(c.Request.Context(), c.GetString("requestId"))
	job, err := h.Service.UpdateQuery(ctx, identityFrom(c), id, req.UserQuery)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, QueryResponse{Success: true, CustomInstructions: job.CustomInstructions})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
	case errors.Is(err, ErrUnauthorized):
		respond.Error(c, http.StatusForbidden, "forbidden", "not authorized for this job", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}

func identityFrom(c *gin.Context) Identity {
	return Identity{
		UserID: middleware.UserIDFromContext(c),
		Role:   middleware.UserRoleFromContext(c),
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid job id", nil)
		return 0, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return val
}
