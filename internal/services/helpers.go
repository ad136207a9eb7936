package services

import (
	"context"
	"errors"
	"math"

	"designhub_backend/internal/auth"
	"designhub_backend/internal/validator"
	"designhub_backend/pkg/apperrors"

	"gorm.io/gorm"
)

var requestValidator = validator.New()

// validate прогоняет DTO через validator и возвращает 400 с картой полей
func validate(req interface{}) error {
	if err := requestValidator.Validate(req); err != nil {
		return handleDomainError(err)
	}
	return nil
}

// authorize - 401 без сессии, 403 если политика запрещает действие
func authorize(action auth.Action, actor auth.Principal, res auth.Resource) error {
	if !actor.IsAuthenticated() {
		return apperrors.ErrSessionRequired
	}
	if !auth.CanPerform(action, actor, res) {
		return apperrors.ErrInsufficientPermissions
	}
	return nil
}

// commit фиксирует транзакцию; отменённый контекст отдаём как временную ошибку
func commit(ctx context.Context, tx *gorm.DB) error {
	if err := tx.Commit().Error; err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return apperrors.ErrNetwork(errors.Join(ctxErr, err), "system")
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func calculateTotalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}
