package middleware

import (
	"strings"

	"designhub_backend/internal/auth"
	"designhub_backend/internal/logger"
	"designhub_backend/internal/models"
	"designhub_backend/pkg/apperrors"
	"designhub_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware - проверка сессии: сначала HttpOnly cookie, затем заголовок Bearer.
// Без валидной сессии запрос завершается 401 до вызова обработчика.
func AuthMiddleware(tokens *auth.TokenManager, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c, cookieName)
		if tokenStr == "" {
			apperrors.HandleError(c, apperrors.ErrSessionRequired)
			return
		}

		claims, err := tokens.ParseToken(tokenStr)
		if err != nil {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Session is invalid or expired"))
			return
		}

		setPrincipal(c, auth.Principal{UserID: claims.UserID, Role: claims.Role})
		c.Next()
	}
}

// OptionalAuthMiddleware - для публичных маршрутов: сессия учитывается, если она есть
func OptionalAuthMiddleware(tokens *auth.TokenManager, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr := extractToken(c, cookieName); tokenStr != "" {
			if claims, err := tokens.ParseToken(tokenStr); err == nil {
				setPrincipal(c, auth.Principal{UserID: claims.UserID, Role: claims.Role})
			}
		}
		c.Next()
	}
}

// RequireRoles - middleware для проверки нескольких возможных ролей
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		p, ok := auth.PrincipalFromContext(c.Request.Context())
		if !ok {
			apperrors.HandleError(c, apperrors.ErrSessionRequired)
			return
		}
		if !roleSet[p.Role] {
			apperrors.HandleError(c, apperrors.ErrInsufficientPermissions)
			return
		}
		c.Next()
	}
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(c *gin.Context) string {
	return c.GetString(contextkeys.GinUserIDKey)
}

func extractToken(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if v, err := c.Cookie(cookieName); err == nil && v != "" {
			return v
		}
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

func setPrincipal(c *gin.Context, p auth.Principal) {
	c.Set(contextkeys.GinUserIDKey, p.UserID)
	c.Set(contextkeys.GinRoleKey, p.Role)

	ctx := auth.WithPrincipal(c.Request.Context(), p)
	ctx = logger.WithUserID(ctx, p.UserID)
	c.Request = c.Request.WithContext(ctx)
}
