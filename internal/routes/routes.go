package routes

import (
	"designhub_backend/internal/handlers"
	"designhub_backend/internal/logger"
	"designhub_backend/internal/middleware"
	"designhub_backend/internal/models"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// DefaultJSONBodyLimit - лимит тела для JSON-маршрутов; загрузки файлов задают свой
const DefaultJSONBodyLimit int64 = 1 << 20

// RegisterRoutes регистрирует все HTTP маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	guards handlers.RouteGuards,
) {
	appHandlers.HealthHandler.RegisterRoutes(ginRouter)
	ginRouter.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Регистрация HTTP API v1
	api := ginRouter.Group("/api/v1")
	api.Use(jsonBodyLimit(guards))
	{
		appHandlers.AuthHandler.RegisterRoutes(api, guards)
		appHandlers.CategoryHandler.RegisterRoutes(api, guards)
		appHandlers.ServiceHandler.RegisterRoutes(api, guards)
		appHandlers.OrderHandler.RegisterRoutes(api, guards)
		appHandlers.DeliverableHandler.RegisterRoutes(api, guards)
		appHandlers.PortfolioHandler.RegisterRoutes(api, guards)
		appHandlers.PaymentHandler.RegisterRoutes(api, guards)
		appHandlers.FileHandler.RegisterRoutes(api)
	}

	admin := api.Group("/admin", guards.Auth, middleware.RequireRoles(models.UserRoleAdmin))
	{
		appHandlers.OrderHandler.RegisterAdminRoutes(admin)
		appHandlers.PortfolioHandler.RegisterAdminRoutes(admin)
	}

	logger.Info("HTTP routes registered", "routes", len(ginRouter.Routes()))
}

// jsonBodyLimit ограничивает всё, кроме multipart: там лимит ставит сам маршрут
func jsonBodyLimit(guards handlers.RouteGuards) gin.HandlerFunc {
	limit := guards.BodyLimit(DefaultJSONBodyLimit)
	return func(c *gin.Context) {
		if c.ContentType() == "multipart/form-data" {
			c.Next()
			return
		}
		limit(c)
	}
}
