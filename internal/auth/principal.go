package auth

import (
	"context"

	"designhub_backend/internal/models"
	"designhub_backend/pkg/contextkeys"
)

// Principal - аутентифицированный пользователь текущего запроса
type Principal struct {
	UserID string
	Role   models.UserRole
}

func (p Principal) IsAuthenticated() bool {
	return p.UserID != ""
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.UserRoleAdmin
}

// WithPrincipal кладёт пользователя в context запроса
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextkeys.PrincipalContextKey, p)
}

// PrincipalFromContext достаёт пользователя; ok=false, если сессии нет
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextkeys.PrincipalContextKey).(Principal)
	if !ok || !p.IsAuthenticated() {
		return Principal{}, false
	}
	return p, true
}
