package dto

import "designhub_backend/internal/models"

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required,is-order-status"`
}

type OrderListQuery struct {
	// Role - "client" или "designer"; пусто - все заказы пользователя
	Role     string             `form:"role" validate:"omitempty,oneof=client designer"`
	Status   models.OrderStatus `form:"status" validate:"omitempty,is-order-status"`
	Page     int                `form:"page" validate:"omitempty,min=1"`
	PageSize int                `form:"page_size" validate:"omitempty,min=1,max=100"`
}

type OrderResponse struct {
	*models.Order
	RevisionLimitReached bool `json:"revisionLimitReached"`
	RemainingRevisions   int  `json:"remainingRevisions"`
}

type OrderListResponse struct {
	Orders     []*OrderResponse `json:"orders"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
}
