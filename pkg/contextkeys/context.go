package contextkeys

// Используем кастомный тип, чтобы избежать коллизий
type contextKey string

// DBContextKey - это ключ, по которому мы будем хранить *gorm.DB в context
const DBContextKey = contextKey("db")

// PrincipalContextKey - аутентифицированный пользователь текущего запроса
const PrincipalContextKey = contextKey("principal")

// Ключи gin.Context, которые выставляет AuthMiddleware
const (
	GinUserIDKey = "userID"
	GinRoleKey   = "role"
)
