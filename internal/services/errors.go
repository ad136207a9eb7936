package services

import (
	"errors"
	"net/http"

	"designhub_backend/internal/infrastructure/payments"
	"designhub_backend/internal/repositories"
	"designhub_backend/internal/storage"
	"designhub_backend/internal/validator"
	"designhub_backend/internal/workflow"
	"designhub_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// handleDomainError приводит ошибки репозиториев, правил workflow и внешних систем к AppError.
// Уже готовые AppError проходят без изменений.
func handleDomainError(err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	var vErr *validator.ValidationError
	if errors.As(err, &vErr) {
		return apperrors.ValidationError(vErr.Errors)
	}

	switch {
	// --- не найдено ---
	case errors.Is(err, repositories.ErrUserNotFound):
		return apperrors.ErrNotFound(err, "user", "User not found")
	case errors.Is(err, repositories.ErrCategoryNotFound):
		return apperrors.ErrNotFound(err, "category", "Category not found")
	case errors.Is(err, repositories.ErrServiceNotFound):
		return apperrors.ErrNotFound(err, "service", "Service not found")
	case errors.Is(err, repositories.ErrOrderNotFound):
		return apperrors.ErrNotFound(err, "order", "Order not found")
	case errors.Is(err, repositories.ErrDeliverableNotFound):
		return apperrors.ErrNotFound(err, "deliverable", "Deliverable not found")
	case errors.Is(err, repositories.ErrPortfolioNotFound):
		return apperrors.ErrNotFound(err, "portfolio", "Portfolio not found")
	case errors.Is(err, storage.ErrObjectNotFound):
		return apperrors.ErrNotFound(err, "file", "File not found")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.ErrNotFound(err, "system", "Resource not found")

	// --- уникальность ---
	case errors.Is(err, repositories.ErrUserAlreadyExists):
		return apperrors.ErrEmailAlreadyExists.WithError(err)
	case errors.Is(err, repositories.ErrCategoryAlreadyExists):
		return apperrors.ErrAlreadyExists(err, "category", "Category with this name already exists")
	case errors.Is(err, repositories.ErrPortfolioAlreadyExists):
		return apperrors.ErrAlreadyExists(err, "portfolio", "Portfolio already exists for this deliverable")
	case errors.Is(err, repositories.ErrPaymentReferenceInUse):
		return apperrors.ErrAlreadyExists(err, "payment", "Payment has already been recorded")

	// --- условный UPDATE проиграл гонку ---
	case errors.Is(err, repositories.ErrServiceStateChanged),
		errors.Is(err, repositories.ErrOrderStateChanged),
		errors.Is(err, repositories.ErrDeliverableStateChanged),
		errors.Is(err, repositories.ErrPaymentStateChanged):
		return apperrors.ErrConcurrentModification.WithError(err)

	// --- правила workflow ---
	case errors.Is(err, workflow.ErrRevisionLimitReached):
		return apperrors.ErrRevisionLimitExceeded.WithError(err)
	case errors.Is(err, workflow.ErrTransitionNotAllowed):
		return apperrors.ErrInvalidStatus("order", "Status transition is not allowed")
	case errors.Is(err, workflow.ErrOrderClosed):
		return apperrors.ErrInvalidStatus("order", "Order is already closed")
	case errors.Is(err, workflow.ErrOrderNotAcceptingWork):
		return apperrors.ErrInvalidStatus("order", "Order is not accepting deliverables")
	case errors.Is(err, workflow.ErrServiceClosed):
		return apperrors.ErrInvalidStatus("service", "Service is no longer open for applications")
	case errors.Is(err, workflow.ErrDeadlineExpired):
		return apperrors.ErrInvalidStatus("service", "Service deadline has passed")
	case errors.Is(err, workflow.ErrServiceNotEditable):
		return apperrors.ErrInvalidStatus("service", "Service can no longer be edited")
	case errors.Is(err, workflow.ErrServiceNotCancelled):
		return apperrors.ErrInvalidStatus("service", "Service cannot be cancelled in its current state")
	case errors.Is(err, workflow.ErrServiceInUse):
		return apperrors.ErrConflict(err, "service", "Service already has an order")
	case errors.Is(err, workflow.ErrDeliverableLocked):
		return apperrors.ErrInvalidStatus("deliverable", "Only PENDING or REJECTED deliverables can be updated")
	case errors.Is(err, workflow.ErrAlreadyReviewed):
		return apperrors.ErrInvalidStatus("deliverable", "Deliverable has already been reviewed")
	case errors.Is(err, workflow.ErrFeedbackRequired):
		return apperrors.FieldError("feedback", "Feedback is required when rejecting")
	case errors.Is(err, workflow.ErrInvalidReviewStatus):
		return apperrors.FieldError("status", "Must be one of: APPROVED, REJECTED")

	// --- платёжный шлюз ---
	case errors.Is(err, payments.ErrInvalidPaymentID):
		return apperrors.FieldError("paymentId", "Invalid payment id")
	case errors.Is(err, payments.ErrGatewayNotConfigured), errors.Is(err, payments.ErrMissingAccessToken):
		return apperrors.New(apperrors.CodeUpstreamGateway, "payment", "Payment gateway is not configured", http.StatusServiceUnavailable).WithError(err)
	}

	var providerErr *payments.ProviderError
	if errors.As(err, &providerErr) {
		return apperrors.ErrUpstreamGateway(err, "Payment provider request failed")
	}

	return apperrors.Normalize(err)
}
