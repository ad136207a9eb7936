package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"designhub_backend/database"
	"designhub_backend/internal/auth"
	"designhub_backend/internal/config"
	"designhub_backend/internal/handlers"
	"designhub_backend/internal/imageprocessor"
	infradb "designhub_backend/internal/infrastructure/database"
	"designhub_backend/internal/infrastructure/payments"
	"designhub_backend/internal/logger"
	"designhub_backend/internal/middleware"
	"designhub_backend/internal/repositories"
	"designhub_backend/internal/routes"
	"designhub_backend/internal/services"
	"designhub_backend/internal/storage"
	"designhub_backend/internal/validator"
	"designhub_backend/internal/workers"
	"designhub_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const adminDisplayName = "Administrator"

func Run() {
	cfg, err := config.LoadConfig()
	if err != nil {
		// логгер ещё не настроен
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	isDev := cfg.Server.Env == "development"
	apperrors.SetDebug(isDev)
	if !isDev {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Connecting to database...")
	gormDB, err := database.ConnectGorm(cfg.Database.DSN, isDev)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}
	logger.Info("Database connected")

	deps, err := BuildDependencies(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies", "error", err)
	}
	serviceContainer := services.NewServiceContainer(deps)

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if err := serviceContainer.AuthService.EnsureAdmin(ctx, gormDB, adminDisplayName, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			// без администратора не запускаемся
			logger.Fatal("Failed to seed first admin user", "error", err)
		}
	} else {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
	}

	ginRouter := SetupRouter(cfg, gormDB, serviceContainer, deps.Tokens)

	workers.NewPortfolioWorker(gormDB, serviceContainer.PortfolioService, cfg.PortfolioInterval()).Start(ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              address,
		Handler:           ginRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "address", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
}

// BuildDependencies создаёт внешние адаптеры: хранилище, платёжный шлюз, трекер скачиваний
func BuildDependencies(ctx context.Context, cfg *config.Config) (services.Dependencies, error) {
	tokens, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWTTTL())
	if err != nil {
		return services.Dependencies{}, fmt.Errorf("token manager: %w", err)
	}

	storageInstance, err := storage.NewStorage(ctx, storage.Config{
		Type:      cfg.Storage.Type,
		BasePath:  cfg.Storage.BasePath,
		BaseURL:   cfg.Storage.BaseURL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
	})
	if err != nil {
		return services.Dependencies{}, fmt.Errorf("storage: %w", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	gateway, err := payments.NewMercadoPagoGateway(cfg.Payment.AccessToken, cfg.Payment.PublicKey, cfg.Payment.Mock)
	if err != nil {
		return services.Dependencies{}, fmt.Errorf("payment gateway: %w", err)
	}
	if cfg.Payment.Mock {
		logger.Warn("Payment gateway is running in mock mode")
	}

	tracker, err := buildDownloadTracker(ctx, cfg)
	if err != nil {
		return services.Dependencies{}, err
	}

	return services.Dependencies{
		Tokens:          tokens,
		Storage:         storageInstance,
		Gateway:         gateway,
		DownloadTracker: tracker,
		ImageProcessor:  imageprocessor.NewProcessor(cfg.Upload.ImageQuality),
		UploadConfig:    services.GetDefaultUploadConfig(cfg.Upload.DeliverableMaxSize, cfg.Upload.AttachmentMaxSize),
		Currency:        cfg.Payment.Currency,
	}, nil
}

// buildDownloadTracker: nil - счётчик в основной БД (значение по умолчанию контейнера)
func buildDownloadTracker(ctx context.Context, cfg *config.Config) (services.DownloadTracker, error) {
	if cfg.Tracking.Backend != "dynamodb" {
		return nil, nil
	}

	ddb, err := infradb.ConnectDynamoDB(ctx, infradb.DynamoDBConfig{
		Region:   cfg.Tracking.Region,
		Endpoint: cfg.Tracking.Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb: %w", err)
	}
	logger.Info("Download tracking uses DynamoDB", "table", cfg.Tracking.Table)

	counter := repositories.NewDownloadCounterDynamoRepository(ddb, cfg.Tracking.Table)
	return services.NewDynamoDownloadTracker(counter, repositories.NewDeliverableRepository()), nil
}

// SetupRouter собирает gin.Engine; используется и в Run, и в тестах
func SetupRouter(cfg *config.Config, gormDB *gorm.DB, sc *services.ServiceContainer, tokens *auth.TokenManager) *gin.Engine {
	appHandlers := handlers.NewAppHandlers(gormDB, sc, validator.New(), handlers.SessionCookie{
		Name:   cfg.JWT.CookieName,
		Secure: cfg.JWT.CookieSecure,
		TTL:    cfg.JWTTTL(),
	})

	guards := handlers.RouteGuards{
		Auth:         middleware.AuthMiddleware(tokens, cfg.JWT.CookieName),
		OptionalAuth: middleware.OptionalAuthMiddleware(tokens, cfg.JWT.CookieName),
		BodyLimit:    middleware.BodyLimitMiddleware,
	}

	ginRouter := initializeGinRouter(cfg, gormDB)
	routes.RegisterRoutes(ginRouter, appHandlers, guards)
	return ginRouter
}

func initializeGinRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	router := gin.New()
	// файлы сверх этого объёма multipart пишет во временные файлы
	router.MaxMultipartMemory = 8 << 20
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(middleware.TimeoutMiddleware(cfg.RequestTimeout()))
	router.Use(middleware.DBMiddleware(db))
	return router
}
