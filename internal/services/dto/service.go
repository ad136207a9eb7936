package dto

import (
	"time"

	"designhub_backend/internal/models"

	"github.com/shopspring/decimal"
)

type CreateServiceRequest struct {
	Title       string          `json:"title" validate:"required,notblank,max=200"`
	Description string          `json:"description" validate:"required,notblank,max=5000"`
	CategoryID  string          `json:"categoryId" validate:"required"`
	Budget      decimal.Decimal `json:"budget"`
	Deadline    time.Time       `json:"deadline" validate:"required"`
	Attachments []string        `json:"attachments" validate:"omitempty,max=10,dive,required,max=1024"`
}

// UpdateServiceRequest - частичное обновление, nil означает "не менять"
type UpdateServiceRequest struct {
	Title       *string          `json:"title" validate:"omitempty,notblank,max=200"`
	Description *string          `json:"description" validate:"omitempty,notblank,max=5000"`
	CategoryID  *string          `json:"categoryId" validate:"omitempty,notblank"`
	Budget      *decimal.Decimal `json:"budget"`
	Deadline    *time.Time       `json:"deadline"`
	Attachments *[]string        `json:"attachments" validate:"omitempty,max=10,dive,required,max=1024"`
}

type ServiceListQuery struct {
	Status     models.ServiceStatus `form:"status"`
	CategoryID string               `form:"categoryId"`
	Search     string               `form:"search" validate:"max=100"`
	// Mine - заявки текущего пользователя (как клиента или назначенного дизайнера)
	Mine bool `form:"mine"`
	// Available - только открытые заявки с непросроченным дедлайном
	Available bool `form:"available"`
	Page      int  `form:"page" validate:"omitempty,min=1"`
	PageSize  int  `form:"page_size" validate:"omitempty,min=1,max=100"`
}

// ServiceResponse - isDeadlineAvailable считается при каждом чтении
type ServiceResponse struct {
	*models.Service
	IsDeadlineAvailable bool `json:"isDeadlineAvailable"`
}

type ServiceListResponse struct {
	Services   []*ServiceResponse `json:"services"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalPages int                `json:"totalPages"`
}

type ApplyResponse struct {
	Service *ServiceResponse `json:"service"`
	Order   *OrderResponse   `json:"order"`
}

type AttachmentResponse struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
}
