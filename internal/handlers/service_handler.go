package handlers

import (
	"net/http"

	"designhub_backend/internal/services"
	"designhub_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

// multipartOverhead - запас на поля формы сверх лимита самого файла
const multipartOverhead = 1 << 20

type ServiceHandler struct {
	*BaseHandler
	lifecycle     services.ServiceLifecycleService
	uploadService services.UploadService
	uploadConfig  *services.UploadConfig
}

func NewServiceHandler(base *BaseHandler, lifecycle services.ServiceLifecycleService, uploadService services.UploadService, uploadConfig *services.UploadConfig) *ServiceHandler {
	return &ServiceHandler{
		BaseHandler:   base,
		lifecycle:     lifecycle,
		uploadService: uploadService,
		uploadConfig:  uploadConfig,
	}
}

func (h *ServiceHandler) RegisterRoutes(rg *gin.RouterGroup, guards RouteGuards) {
	svc := rg.Group("/services")
	{
		svc.GET("", guards.OptionalAuth, h.ListServices)
		svc.GET("/:serviceId", h.GetService)

		svc.POST("", guards.Auth, h.CreateService)
		svc.POST("/attachments", guards.Auth,
			guards.BodyLimit(h.uploadConfig.MaxFileSize(services.ModuleAttachments)+multipartOverhead),
			h.UploadAttachment)
		svc.PUT("/:serviceId", guards.Auth, h.UpdateService)
		svc.PUT("/:serviceId/apply", guards.Auth, h.ApplyForService)
		svc.PUT("/:serviceId/cancel", guards.Auth, h.CancelService)
		svc.DELETE("/:serviceId", guards.Auth, h.DeleteService)
	}
}

// ListServices godoc
// @Summary Список заявок
// @Tags services
// @Produce json
// @Param status query string false "Статус"
// @Param categoryId query string false "Категория"
// @Param mine query bool false "Только мои"
// @Param available query bool false "Открытые с непросроченным дедлайном"
// @Param page query int false "Страница"
// @Param page_size query int false "Размер страницы"
// @Success 200 {object} dto.ServiceListResponse
// @Router /api/v1/services [get]
func (h *ServiceHandler) ListServices(c *gin.Context) {
	var query dto.ServiceListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	resp, err := h.lifecycle.ListServices(c.Request.Context(), h.GetDB(c), h.GetPrincipal(c), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ServiceHandler) GetService(c *gin.Context) {
	resp, err := h.lifecycle.GetService(c.Request.Context(), h.GetDB(c), c.Param("serviceId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateService godoc
// @Summary Создать заявку на дизайн
// @Tags services
// @Accept json
// @Produce json
// @Param request body dto.CreateServiceRequest true "Заявка"
// @Success 201 {object} dto.ServiceResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /api/v1/services [post]
func (h *ServiceHandler) CreateService(c *gin.Context) {
	var req dto.CreateServiceRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.lifecycle.CreateService(c.Request.Context(), h.GetDB(c), h.GetPrincipal(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ServiceHandler) UploadAttachment(c *gin.Context) {
	file, ok := h.FormFile(c, "file")
	if !ok {
		return
	}

	resp, err := h.uploadService.UploadAttachment(c.Request.Context(), h.GetPrincipal(c), file)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ServiceHandler) UpdateService(c *gin.Context) {
	var req dto.UpdateServiceRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.lifecycle.UpdateService(c.Request.Context(), h.GetDB(c), h.GetPrincipal(c), c.Param("serviceId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ApplyForService godoc
// @Summary Откликнуться на заявку (дизайнер)
// @Tags services
// @Produce json
// @Param serviceId path string true "ID заявки"
// @Success 200 {object} dto.ApplyResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse "Заявка уже занята или закрыта"
// @Router /api/v1/services/{serviceId}/apply [put]
func (h *ServiceHandler) ApplyForService(c *gin.Context) {
	resp, err := h.lifecycle.ApplyForService(c.Request.Context(), h.GetDB(c), h.GetPrincipal(c), c.Param("serviceId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ServiceHandler) CancelService(c *gin.Context) {
	resp, err := h.lifecycle.CancelService(c.Request.Context(), h.GetDB(c), h.GetPrincipal(c), c.Param("serviceId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ServiceHandler) DeleteService(c *gin.Context) {
	if err := h.lifecycle.DeleteService(c.Request.Context(), h.GetDB(c), h.GetPrincipal(c), c.Param("serviceId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
