package handlers

import (
	"designhub_backend/internal/services"
	"designhub_backend/internal/validator"

	"gorm.io/gorm"
)

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler        *AuthHandler
	CategoryHandler    *CategoryHandler
	ServiceHandler     *ServiceHandler
	OrderHandler       *OrderHandler
	DeliverableHandler *DeliverableHandler
	PortfolioHandler   *PortfolioHandler
	PaymentHandler     *PaymentHandler
	FileHandler        *FileHandler
	HealthHandler      *HealthHandler
}

// NewAppHandlers собирает хэндлеры поверх контейнера сервисов
func NewAppHandlers(db *gorm.DB, sc *services.ServiceContainer, v *validator.Validator, cookie SessionCookie) *AppHandlers {
	base := NewBaseHandler(v)

	return &AppHandlers{
		AuthHandler:        NewAuthHandler(base, sc.AuthService, cookie),
		CategoryHandler:    NewCategoryHandler(base, sc.CategoryService),
		ServiceHandler:     NewServiceHandler(base, sc.ServiceLifecycleService, sc.UploadService, sc.UploadConfig),
		OrderHandler:       NewOrderHandler(base, sc.OrderService),
		DeliverableHandler: NewDeliverableHandler(base, sc.DeliverableService, sc.UploadConfig),
		PortfolioHandler:   NewPortfolioHandler(base, sc.PortfolioService),
		PaymentHandler:     NewPaymentHandler(base, sc.PaymentService),
		FileHandler:        NewFileHandler(base, sc.Storage),
		HealthHandler:      NewHealthHandler(db),
	}
}
