package handlers

import (
	"net/http"

	"designhub_backend/internal/services"
	"designhub_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	*BaseHandler
	paymentService services.PaymentService
}

func NewPaymentHandler(base *BaseHandler, paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    base,
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup, guards RouteGuards) {
	payment := rg.Group("/orders/:orderId/payment", guards.Auth)
	{
		payment.POST("/token", h.CreatePaymentToken)
		payment.POST("/record", h.RecordPayment)
	}
}

// CreatePaymentToken godoc
// @Summary Получить токен оплаты заказа
// @Tags payments
// @Produce json
// @Param orderId path string true "ID заказа"
// @Success 200 {object} dto.PaymentTokenResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Failure 502 {object} apperrors.ErrorResponse "Ошибка платёжного шлюза"
// @Router /api/v1/orders/{orderId}/payment/token [post]
func (h *PaymentHandler) CreatePaymentToken(c *gin.Context) {
	resp, err := h.paymentService.CreatePaymentToken(c.Request.Context(), h.GetDB(c), h.GetPrincipal(c), c.Param("orderId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	var req dto.RecordPaymentRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.paymentService.RecordPayment(c.Request.Context(), h.GetDB(c), h.GetPrincipal(c), c.Param("orderId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
