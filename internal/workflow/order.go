// Package workflow содержит правила переходов Service/Order/Deliverable.
// Пакет не ходит в БД: сервисы проверяют здесь допустимость перехода,
// а затем применяют его условным UPDATE.
package workflow

import (
	"errors"

	"designhub_backend/internal/auth"
	"designhub_backend/internal/models"
)

var (
	ErrTransitionNotAllowed = errors.New("status transition is not allowed")
	ErrRevisionLimitReached = errors.New("revision limit reached")
	ErrOrderClosed          = errors.New("order is closed")
)

// OrderTransition - один допустимый переход заказа, инициируемый стороной заказа
type OrderTransition struct {
	Action         auth.Action
	From           models.OrderStatus
	To             models.OrderStatus
	CountsRevision bool
}

var orderTransitions = []OrderTransition{
	{Action: auth.ActionOrderStartWork, From: models.OrderStatusPending, To: models.OrderStatusInProgress},
	{Action: auth.ActionOrderSubmitRevision, From: models.OrderStatusRevision, To: models.OrderStatusInProgress},
	{Action: auth.ActionOrderRequestRevision, From: models.OrderStatusInProgress, To: models.OrderStatusRevision, CountsRevision: true},
	{Action: auth.ActionOrderApprove, From: models.OrderStatusInProgress, To: models.OrderStatusCompleted},
}

// ResolveOrderTransition находит переход current -> target
func ResolveOrderTransition(current, target models.OrderStatus) (OrderTransition, error) {
	for _, t := range orderTransitions {
		if t.From == current && t.To == target {
			return t, nil
		}
	}
	return OrderTransition{}, ErrTransitionNotAllowed
}

// EffectiveMaxRevisions - лимит правок заказа (по умолчанию 4)
func EffectiveMaxRevisions(o *models.Order) int {
	if o.MaxRevisions <= 0 {
		return models.DefaultMaxRevisions
	}
	return o.MaxRevisions
}

// RevisionLimitReached - true, когда очередной запрос правки запрещён.
// При лимите 4 это revisionCount > 3.
func RevisionLimitReached(o *models.Order) bool {
	return o.RevisionCount >= EffectiveMaxRevisions(o)
}

// CanCancelOrder - административная отмена из любого незавершённого статуса
func CanCancelOrder(o *models.Order) error {
	if o.Status == models.OrderStatusCancelled || o.Status == models.OrderStatusCompleted {
		return ErrOrderClosed
	}
	return nil
}

// CanStartCheckout - оплата возможна после одобрения работы
func CanStartCheckout(o *models.Order) error {
	if o.IsPaid {
		return ErrOrderClosed
	}
	if o.Status != models.OrderStatusCompleted && o.Status != models.OrderStatusAwaitingPayment {
		return ErrTransitionNotAllowed
	}
	return nil
}

// ServiceStatusFor - статус Service, отражающий статус его заказа
func ServiceStatusFor(s models.OrderStatus) models.ServiceStatus {
	switch s {
	case models.OrderStatusPending:
		return models.ServiceStatusAssigned
	case models.OrderStatusInProgress:
		return models.ServiceStatusInProgress
	case models.OrderStatusRevision:
		return models.ServiceStatusRevision
	case models.OrderStatusAwaitingPayment:
		return models.ServiceStatusAwaitingPayment
	case models.OrderStatusCompleted:
		return models.ServiceStatusCompleted
	case models.OrderStatusCancelled:
		return models.ServiceStatusCancelled
	}
	return models.ServiceStatusPending
}
