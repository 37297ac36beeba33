// Package files serves original upload and result artifacts over HTTP.
package files

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"jsonlify-backend/internal/shared/auth"
	"jsonlify-backend/internal/shared/server/middleware"
	"jsonlify-backend/internal/shared/server/respond"
	"jsonlify-backend/internal/shared/storage/artifact"
	"jsonlify-backend/internal/shared/util"
)

const maxUploadBytes = 100 << 20

// Handler exposes file upload and download endpoints backed by the artifact
// store.
type Handler struct {
	Store artifact.Store
}

func NewHandler(store artifact.Store) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/files", h.upload)
	rg.GET("/files/*key", h.download)
}

type uploadResponse struct {
	FileKey   string `json:"fileKey"`
	FileURL   string `json:"fileUrl"`
	FileName  string `json:"fileName"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	name, err := util.SanitizeFileName(fileHeader.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file name", nil)
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "failed to read file", nil)
		return
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	userID := middleware.UserIDFromContext(c)
	key := "uploads/" + util.HashUserKey(userID) + "/" + uuid.NewString() + "_" + name

	ref, err := h.Store.Put(c.Request.Context(), key, contentType, src)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store file", nil)
		return
	}

	respond.JSON(c, http.StatusCreated, uploadResponse{
		FileKey:   ref.Key,
		FileURL:   ref.URL,
		FileName:  name,
		MimeType:  contentType,
		SizeBytes: fileHeader.Size,
	})
}

func (h *Handler) download(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" || strings.Contains(key, "..") {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file key", nil)
		return
	}
	if !h.canRead(c, key) {
		respond.Error(c, http.StatusForbidden, "forbidden", "not authorized for this file", nil)
		return
	}

	reader, err := h.Store.Open(c.Request.Context(), key)
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
		return
	}
	defer reader.Close()

	contentType := "application/octet-stream"
	if strings.HasSuffix(key, ".jsonl") {
		contentType = "application/x-ndjson"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}

// canRead keeps upload keys private to their owner. Result keys under jobs/
// carry a random component and are shared through job records.
func (h *Handler) canRead(c *gin.Context, key string) bool {
	if !strings.HasPrefix(key, "uploads/") {
		return true
	}
	if middleware.UserRoleFromContext(c) == auth.RoleAdmin {
		return true
	}
	parts := strings.SplitN(key, "/", 3)
	if len(parts) < 3 {
		return false
	}
	return parts[1] == util.HashUserKey(middleware.UserIDFromContext(c))
}
