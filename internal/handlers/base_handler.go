package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"designhub_backend/internal/auth"
	"designhub_backend/internal/logger"
	"designhub_backend/internal/validator"
	"designhub_backend/pkg/apperrors"
	"designhub_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ============================================================================
// 1. Базовая структура обработчика
// ============================================================================

type BaseHandler struct {
	validator *validator.Validator
}

func NewBaseHandler(v *validator.Validator) *BaseHandler {
	return &BaseHandler{
		validator: v,
	}
}

// RouteGuards - middleware, которые обработчики вешают на свои маршруты
type RouteGuards struct {
	Auth         gin.HandlerFunc
	OptionalAuth gin.HandlerFunc
	// BodyLimit возвращает ограничитель тела запроса на limit байт
	BodyLimit func(limit int64) gin.HandlerFunc
}

// ============================================================================
// 2. Извлечение DB и пользователя
// ============================================================================

// GetDB извлекает *gorm.DB из gin.Context.
// Вызывается в каждом хендлере, который обращается к сервисам.
func (h *BaseHandler) GetDB(c *gin.Context) *gorm.DB {
	dbKey := string(contextkeys.DBContextKey)

	val, ok := c.Get(dbKey)
	if !ok {
		logger.CtxError(c.Request.Context(), "critical error: db key not found in context", "key", dbKey)
		panic("critical error: DBMiddleware did not set the db key")
	}

	db, ok := val.(*gorm.DB)
	if !ok {
		logger.CtxError(c.Request.Context(), "critical error: db in context is not *gorm.DB", "key", dbKey, "type", fmt.Sprintf("%T", val))
		panic("critical error: db in context has incorrect type")
	}

	return db
}

// GetPrincipal - пользователь запроса; для анонимного запроса пустой Principal
func (h *BaseHandler) GetPrincipal(c *gin.Context) auth.Principal {
	p, _ := auth.PrincipalFromContext(c.Request.Context())
	return p
}

// ============================================================================
// 3. Методы привязки и валидации
// ============================================================================

func (h *BaseHandler) BindAndValidate_JSON(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := c.ShouldBindJSON(obj); err != nil {
		logger.CtxWithError(ctx, "Failed to bind JSON body", err, "path", c.Request.URL.Path)
		h.handleBindError(c, err, "Invalid request body: ")
		return false
	}
	return h.validate(c, obj, "body")
}

func (h *BaseHandler) BindAndValidate_Query(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := c.ShouldBindQuery(obj); err != nil {
		logger.CtxWithError(ctx, "Failed to bind query params", err, "path", c.Request.URL.Path)
		h.handleBindError(c, err, "Invalid query parameters: ")
		return false
	}
	return h.validate(c, obj, "query")
}

// BindAndValidate_Form - multipart/form-data; файл читается отдельно через c.FormFile
func (h *BaseHandler) BindAndValidate_Form(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := c.ShouldBind(obj); err != nil {
		logger.CtxWithError(ctx, "Failed to bind form", err, "path", c.Request.URL.Path)
		h.handleBindError(c, err, "Invalid form data: ")
		return false
	}
	return h.validate(c, obj, "form")
}

func (h *BaseHandler) validate(c *gin.Context, obj interface{}, source string) bool {
	ctx := c.Request.Context()

	if err := h.validator.Validate(obj); err != nil {
		if vErr, ok := err.(*validator.ValidationError); ok {
			logger.CtxWarn(ctx, "Validation failed", "source", source, "errors", vErr.Errors, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.ValidationError(vErr.Errors))
		} else {
			logger.CtxWithError(ctx, "Internal validator error", err, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.InternalError(err))
		}
		return false
	}
	return true
}

// FormFile - файл из multipart; отсутствующий файл не ошибка (nil), решает сервис
func (h *BaseHandler) FormFile(c *gin.Context, field string) (*multipart.FileHeader, bool) {
	file, err := c.FormFile(field)
	if err == nil {
		return file, true
	}
	if errors.Is(err, http.ErrMissingFile) {
		return nil, true
	}
	logger.CtxWithError(c.Request.Context(), "Failed to read uploaded file", err, "field", field)
	h.handleBindError(c, err, "Invalid file upload: ")
	return nil, false
}

// handleBindError: превышение лимита тела - 413, остальное - 400
func (h *BaseHandler) handleBindError(c *gin.Context, err error, prefix string) {
	if appErr := apperrors.Normalize(err); appErr.Code == apperrors.CodePayloadTooLarge {
		apperrors.HandleError(c, appErr)
		return
	}
	apperrors.HandleError(c, apperrors.NewBadRequestError(prefix+err.Error()))
}

// ============================================================================
// 4. Обработчики ошибок
// ============================================================================

func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		logger.CtxWarn(ctx, "Service error",
			"error", appErr.Message,
			"code", appErr.Code,
			"details", appErr.Details,
			"path", c.Request.URL.Path,
		)
		apperrors.HandleError(c, appErr)
	} else {
		logger.CtxWithError(ctx, "Unhandled service error", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.Normalize(err))
	}
}
