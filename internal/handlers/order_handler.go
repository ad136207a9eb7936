package handlers

import (
	"net/http"

	"designhub_backend/internal/services"
	"designhub_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	*BaseHandler
	orderService services.OrderService
}

func NewOrderHandler(base *BaseHandler, orderService services.OrderService) *OrderHandler {
	return &OrderHandler{
		BaseHandler:  base,
		orderService: orderService,
	}
}

func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup, guards RouteGuards) {
	orders := rg.Group("/orders", guards.Auth)
	{
		orders.GET("", h.ListOrders)
		orders.GET("/:orderId", h.GetOrder)
		orders.PUT("/:orderId/status", h.UpdateOrderStatus)
	}
}

// RegisterAdminRoutes - группа уже защищена ролью admin
func (h *OrderHandler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.PUT("/orders/:orderId/cancel", h.CancelOrder)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	var query dto.OrderListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	resp, err := h.orderService.ListOrders(c.Request.Context(), h.GetDB(c), h.GetPrincipal(c), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	resp, err := h.orderService.GetOrder(c.Request.Context(), h.GetDB(c), h.GetPrincipal(c), c.Param("orderId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateOrderStatus godoc
// @Summary Сменить статус заказа
// @Description Переход применяется, только если текущий статус в БД совпадает с ожидаемым
// @Tags orders
// @Accept json
// @Produce json
// @Param orderId path string true "ID заказа"
// @Param request body dto.UpdateOrderStatusRequest true "Новый статус"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse "Недопустимый переход или лимит правок"
// @Router /api/v1/orders/{orderId}/status [put]
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	var req dto.UpdateOrderStatusRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.orderService.UpdateOrderStatus(c.Request.Context(), h.GetDB(c), h.GetPrincipal(c), c.Param("orderId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	resp, err := h.orderService.CancelOrder(c.Request.Context(), h.GetDB(c), h.GetPrincipal(c), c.Param("orderId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
