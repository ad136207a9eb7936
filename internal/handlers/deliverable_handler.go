package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"designhub_backend/internal/logger"
	"designhub_backend/internal/services"
	"designhub_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type DeliverableHandler struct {
	*BaseHandler
	deliverableService services.DeliverableService
	maxFileSize        int64
}

func NewDeliverableHandler(base *BaseHandler, deliverableService services.DeliverableService, uploadConfig *services.UploadConfig) *DeliverableHandler {
	return &DeliverableHandler{
		BaseHandler:        base,
		deliverableService: deliverableService,
		maxFileSize:        uploadConfig.MaxFileSize(services.ModuleDeliverables),
	}
}

func (h *DeliverableHandler) RegisterRoutes(rg *gin.RouterGroup, guards RouteGuards) {
	bodyLimit := guards.BodyLimit(h.maxFileSize + multipartOverhead)

	orders := rg.Group("/orders/:orderId/deliverables", guards.Auth)
	{
		orders.POST("", bodyLimit, h.SubmitDeliverable)
		orders.GET("", h.ListDeliverables)
	}

	deliverables := rg.Group("/deliverables", guards.Auth)
	{
		deliverables.GET("/:deliverableId", h.GetDeliverable)
		deliverables.PUT("/:deliverableId", bodyLimit, h.UpdateDeliverable)
		deliverables.PATCH("/:deliverableId/review", h.ReviewDeliverable)
		deliverables.POST("/:deliverableId/track", h.TrackDownload)
		deliverables.GET("/:deliverableId/download", h.DownloadDeliverable)
	}
}

// SubmitDeliverable godoc
// @Summary Сдать работу по заказу (дизайнер)
// @Tags deliverables
// @Accept multipart/form-data
// @Produce json
// @Param orderId path string true "ID заказа"
// @Param title formData string true "Название"
// @Param description formData string false "Описание"
// @Param file formData file true "Файл работы"
// @Success 201 {object} models.Deliverable
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Failure 413 {object} apperrors.ErrorResponse
// @Router /api/v1/orders/{orderId}/deliverables [post]
func (h *DeliverableHandler) SubmitDeliverable(c *gin.Context) {
	var req dto.SubmitDeliverableRequest
	if !h.BindAndValidate_Form(c, &req) {
		return
	}
	file, ok := h.FormFile(c, "file")
	if !ok {
		return
	}

	deliverable, err := h.deliverableService.SubmitDeliverable(c.Request.Context(), h.GetDB(c), h.GetPrincipal(c), c.Param("orderId"), &req, file)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, deliverable)
}

func (h *DeliverableHandler) ListDeliverables(c *gin.Context) {
	deliverables, err := h.deliverableService.ListDeliverables(c.Request.Context(), h.GetDB(c), h.GetPrincipal(c), c.Param("orderId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, deliverables)
}

func (h *DeliverableHandler) GetDeliverable(c *gin.Context) {
	deliverable, err := h.deliverableService.GetDeliverable(c.Request.Context(), h.GetDB(c), h.GetPrincipal(c), c.Param("deliverableId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, deliverable)
}

func (h *DeliverableHandler) UpdateDeliverable(c *gin.Context) {
	var req dto.UpdateDeliverableRequest
	if !h.BindAndValidate_Form(c, &req) {
		return
	}
	file, ok := h.FormFile(c, "file")
	if !ok {
		return
	}

	deliverable, err := h.deliverableService.UpdateDeliverable(c.Request.Context(), h.GetDB(c), h.GetPrincipal(c), c.Param("deliverableId"), &req, file)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, deliverable)
}

func (h *DeliverableHandler) ReviewDeliverable(c *gin.Context) {
	var req dto.ReviewDeliverableRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	deliverable, err := h.deliverableService.ReviewDeliverable(c.Request.Context(), h.GetDB(c), h.GetPrincipal(c), c.Param("deliverableId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, deliverable)
}

// TrackDownload - 202 при любом исходе подсчёта
func (h *DeliverableHandler) TrackDownload(c *gin.Context) {
	if err := h.deliverableService.TrackDownload(c.Request.Context(), h.GetDB(c), h.GetPrincipal(c), c.Param("deliverableId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// DownloadDeliverable стримит файл без буферизации целиком
func (h *DeliverableHandler) DownloadDeliverable(c *gin.Context) {
	result, err := h.deliverableService.OpenDownload(c.Request.Context(), h.GetDB(c), h.GetPrincipal(c), c.Param("deliverableId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	defer result.Body.Close()

	c.Header("Content-Type", result.ContentType)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.FileName}))
	if result.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(result.Size, 10))
	}
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, result.Body); err != nil {
		// заголовки уже отправлены, остаётся только залогировать
		logger.CtxWarn(c.Request.Context(), "Download interrupted", "deliverable_id", c.Param("deliverableId"), "error", fmt.Sprint(err))
	}
}
