package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"designhub_backend/internal/logger"
	"designhub_backend/internal/storage"
	"designhub_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// publicFilePrefixes - модули хранилища, которые отдаются без сессии.
// Работы дизайнеров (deliverables/) скачиваются только через /deliverables/:id/download.
var publicFilePrefixes = []string{"portfolios/", "attachments/"}

// IsPublicFileKey - можно ли отдавать объект по /files без проверки роли
func IsPublicFileKey(key string) bool {
	for _, prefix := range publicFilePrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// FileHandler раздаёт публичные объекты локального хранилища; при S3 ссылки ведут напрямую в бакет
type FileHandler struct {
	*BaseHandler
	storage storage.Storage
}

func NewFileHandler(base *BaseHandler, storage storage.Storage) *FileHandler {
	return &FileHandler{
		BaseHandler: base,
		storage:     storage,
	}
}

func (h *FileHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/files/*path", h.ServeFile)
	r.HEAD("/files/*path", h.ServeFile)
}

func (h *FileHandler) ServeFile(c *gin.Context) {
	key, err := storage.CleanKey(c.Param("path"))
	// закрытые объекты неотличимы от отсутствующих
	if err != nil || !IsPublicFileKey(key) {
		apperrors.HandleError(c, apperrors.NewNotFoundError("File not found"))
		return
	}

	obj, err := h.storage.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			apperrors.HandleError(c, apperrors.NewNotFoundError("File not found"))
			return
		}
		h.HandleServiceError(c, err)
		return
	}
	defer obj.Body.Close()

	c.Header("Content-Type", obj.ContentType)
	if obj.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Header("Content-Disposition", "inline")
	c.Status(http.StatusOK)

	if c.Request.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(c.Writer, obj.Body); err != nil {
		logger.CtxWarn(c.Request.Context(), "File streaming interrupted", "key", key, "error", err.Error())
	}
}
