package workflow

import (
	"errors"
	"time"

	"designhub_backend/internal/models"
)

var (
	ErrServiceClosed       = errors.New("service is not open for applications")
	ErrDeadlineExpired     = errors.New("service deadline has passed")
	ErrServiceNotEditable  = errors.New("service can no longer be edited")
	ErrServiceNotCancelled = errors.New("service cannot be cancelled in its current state")
	ErrServiceInUse        = errors.New("service already has an order")
)

// IsDeadlineAvailable - deadline > now; считается на каждое чтение
func IsDeadlineAvailable(deadline, now time.Time) bool {
	return deadline.After(now)
}

// CanEditService - completed и cancelled редактировать нельзя
func CanEditService(s *models.Service) error {
	if s.Status.IsTerminal() {
		return ErrServiceNotEditable
	}
	return nil
}

// CanApply - откликнуться можно только на open заявку с живым дедлайном
func CanApply(s *models.Service, now time.Time) error {
	if s.Status != models.ServiceStatusOpen {
		return ErrServiceClosed
	}
	if !IsDeadlineAvailable(s.Deadline, now) {
		return ErrDeadlineExpired
	}
	return nil
}

// CanCancelService: назначенный дизайнер - только assigned с истёкшим дедлайном,
// владелец - пока работа не началась (open/assigned).
func CanCancelService(s *models.Service, byOwner bool, now time.Time) error {
	if byOwner {
		if s.Status == models.ServiceStatusOpen || s.Status == models.ServiceStatusAssigned {
			return nil
		}
		return ErrServiceNotCancelled
	}
	if s.Status != models.ServiceStatusAssigned || IsDeadlineAvailable(s.Deadline, now) {
		return ErrServiceNotCancelled
	}
	return nil
}

// CanDeleteService - удалять можно заявки без активного заказа
func CanDeleteService(s *models.Service) error {
	if s.Status == models.ServiceStatusOpen || s.Status == models.ServiceStatusCancelled {
		return nil
	}
	return ErrServiceInUse
}
