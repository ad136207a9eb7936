package services

import (
	"designhub_backend/internal/auth"
	"designhub_backend/internal/imageprocessor"
	"designhub_backend/internal/infrastructure/payments"
	"designhub_backend/internal/repositories"
	"designhub_backend/internal/storage"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService             AuthService
	CategoryService         CategoryService
	ServiceLifecycleService ServiceLifecycleService
	OrderService            OrderService
	DeliverableService      DeliverableService
	PortfolioService        PortfolioService
	PaymentService          PaymentService
	UploadService           UploadService

	UploadConfig *UploadConfig
	Storage      storage.Storage
}

// Dependencies - внешние зависимости, из которых собирается контейнер
type Dependencies struct {
	Tokens          *auth.TokenManager
	Storage         storage.Storage
	Gateway         payments.Gateway
	DownloadTracker DownloadTracker
	ImageProcessor  *imageprocessor.Processor
	UploadConfig    *UploadConfig
	Currency        string
}

// NewServiceContainer создаёт репозитории и связывает с ними сервисы
func NewServiceContainer(deps Dependencies) *ServiceContainer {
	userRepo := repositories.NewUserRepository()
	categoryRepo := repositories.NewCategoryRepository()
	serviceRepo := repositories.NewServiceRepository()
	orderRepo := repositories.NewOrderRepository()
	deliverableRepo := repositories.NewDeliverableRepository()
	portfolioRepo := repositories.NewPortfolioRepository()
	paymentRepo := repositories.NewPaymentRepository()

	uploadConfig := deps.UploadConfig
	if uploadConfig == nil {
		uploadConfig = GetDefaultUploadConfig(0, 0)
	}
	tracker := deps.DownloadTracker
	if tracker == nil {
		tracker = NewDBDownloadTracker(deliverableRepo)
	}

	uploadService := NewUploadService(deps.Storage, uploadConfig)

	return &ServiceContainer{
		AuthService:             NewAuthService(userRepo, deps.Tokens),
		CategoryService:         NewCategoryService(categoryRepo),
		ServiceLifecycleService: NewServiceLifecycleService(serviceRepo, categoryRepo, orderRepo),
		OrderService:            NewOrderService(orderRepo, serviceRepo),
		DeliverableService:      NewDeliverableService(deliverableRepo, orderRepo, uploadService, deps.Storage, tracker),
		PortfolioService:        NewPortfolioService(portfolioRepo, deliverableRepo, orderRepo, categoryRepo, deps.Storage, deps.ImageProcessor),
		PaymentService:          NewPaymentService(deps.Gateway, paymentRepo, orderRepo, serviceRepo, deps.Currency),
		UploadService:           uploadService,
		UploadConfig:            uploadConfig,
		Storage:                 deps.Storage,
	}
}
