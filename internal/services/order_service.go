package services

import (
	"context"

	"designhub_backend/internal/auth"
	"designhub_backend/internal/logger"
	"designhub_backend/internal/models"
	"designhub_backend/internal/repositories"
	"designhub_backend/internal/services/dto"
	"designhub_backend/internal/workflow"
	"designhub_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type OrderService interface {
	ListOrders(ctx context.Context, db *gorm.DB, actor auth.Principal, query *dto.OrderListQuery) (*dto.OrderListResponse, error)
	GetOrder(ctx context.Context, db *gorm.DB, actor auth.Principal, id string) (*dto.OrderResponse, error)
	// UpdateOrderStatus применяет переход, только если статус в БД всё ещё исходный
	UpdateOrderStatus(ctx context.Context, db *gorm.DB, actor auth.Principal, id string, req *dto.UpdateOrderStatusRequest) (*dto.OrderResponse, error)
	CancelOrder(ctx context.Context, db *gorm.DB, actor auth.Principal, id string) (*dto.OrderResponse, error)
}

type orderService struct {
	orderRepo   repositories.OrderRepository
	serviceRepo repositories.ServiceRepository
}

func NewOrderService(orderRepo repositories.OrderRepository, serviceRepo repositories.ServiceRepository) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		serviceRepo: serviceRepo,
	}
}

func (s *orderService) ListOrders(ctx context.Context, db *gorm.DB, actor auth.Principal, query *dto.OrderListQuery) (*dto.OrderListResponse, error) {
	if !actor.IsAuthenticated() {
		return nil, apperrors.ErrSessionRequired
	}
	if err := validate(query); err != nil {
		return nil, err
	}

	filter := repositories.OrderFilter{
		Status: query.Status,
		Page:   repositories.Page{Page: query.Page, PageSize: query.PageSize}.Normalize(),
	}
	switch query.Role {
	case "client":
		filter.ClientID = actor.UserID
	case "designer":
		filter.DesignerID = actor.UserID
	default:
		if !actor.IsAdmin() {
			filter.ParticipantID = actor.UserID
		}
	}

	orders, total, err := s.orderRepo.List(db, filter)
	if err != nil {
		return nil, handleDomainError(err)
	}

	items := make([]*dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, newOrderResponse(&orders[i]))
	}
	return &dto.OrderListResponse{
		Orders:     items,
		Total:      total,
		Page:       filter.Page.Page,
		PageSize:   filter.Page.PageSize,
		TotalPages: calculateTotalPages(total, filter.Page.PageSize),
	}, nil
}

func (s *orderService) GetOrder(ctx context.Context, db *gorm.DB, actor auth.Principal, id string) (*dto.OrderResponse, error) {
	if !actor.IsAuthenticated() {
		return nil, apperrors.ErrSessionRequired
	}
	order, err := s.orderRepo.FindByID(db, id)
	if err != nil {
		return nil, handleDomainError(err)
	}
	if err := authorize(auth.ActionOrderView, actor, auth.OrderResource(order)); err != nil {
		return nil, err
	}
	return newOrderResponse(order), nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, db *gorm.DB, actor auth.Principal, id string, req *dto.UpdateOrderStatusRequest) (*dto.OrderResponse, error) {
	if !actor.IsAuthenticated() {
		return nil, apperrors.ErrSessionRequired
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	order, err := s.orderRepo.FindByID(tx, id)
	if err != nil {
		return nil, handleDomainError(err)
	}
	if err := authorize(auth.ActionOrderView, actor, auth.OrderResource(order)); err != nil {
		return nil, err
	}

	transition, err := workflow.ResolveOrderTransition(order.Status, req.Status)
	if err != nil {
		return nil, apperrors.ErrInvalidStatus("order",
			"Cannot change order status from "+string(order.Status)+" to "+string(req.Status))
	}
	if err := authorize(transition.Action, actor, auth.OrderResource(order)); err != nil {
		return nil, err
	}
	if transition.CountsRevision && workflow.RevisionLimitReached(order) {
		return nil, apperrors.ErrRevisionLimitExceeded
	}

	if err := s.orderRepo.Transition(tx, id, transition.From, transition.To, transition.CountsRevision); err != nil {
		if apperrors.Is(err, repositories.ErrOrderStateChanged) {
			return nil, s.explainLostTransition(tx, id, transition, err)
		}
		return nil, handleDomainError(err)
	}
	if err := s.mirrorServiceStatus(tx, order.ServiceID, transition.From, transition.To); err != nil {
		return nil, err
	}

	if err := commit(ctx, tx); err != nil {
		return nil, err
	}
	logger.CtxInfo(ctx, "Order status changed",
		"order_id", id, "from", transition.From, "to", transition.To, "actor", actor.UserID)

	return s.reload(db, id)
}

// CancelOrder - административная отмена; заявка отменяется вместе с заказом
func (s *orderService) CancelOrder(ctx context.Context, db *gorm.DB, actor auth.Principal, id string) (*dto.OrderResponse, error) {
	if err := authorize(auth.ActionOrderCancel, actor, auth.Resource{}); err != nil {
		return nil, err
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	order, err := s.orderRepo.FindByID(tx, id)
	if err != nil {
		return nil, handleDomainError(err)
	}
	if err := workflow.CanCancelOrder(order); err != nil {
		return nil, handleDomainError(err)
	}
	if err := s.orderRepo.Cancel(tx, id); err != nil {
		return nil, handleDomainError(err)
	}
	if err := s.mirrorServiceStatus(tx, order.ServiceID, order.Status, models.OrderStatusCancelled); err != nil {
		return nil, err
	}

	if err := commit(ctx, tx); err != nil {
		return nil, err
	}
	logger.CtxInfo(ctx, "Order cancelled by admin", "order_id", id, "admin_id", actor.UserID)

	return s.reload(db, id)
}

// mirrorServiceStatus держит статус заявки в соответствии со статусом её заказа
func (s *orderService) mirrorServiceStatus(tx *gorm.DB, serviceID string, from, to models.OrderStatus) error {
	err := s.serviceRepo.UpdateStatus(tx, serviceID,
		[]models.ServiceStatus{workflow.ServiceStatusFor(from)}, workflow.ServiceStatusFor(to))
	if err != nil {
		return handleDomainError(err)
	}
	return nil
}

// explainLostTransition - условный UPDATE не прошёл: либо лимит правок, либо статус уже сменили
func (s *orderService) explainLostTransition(tx *gorm.DB, id string, transition workflow.OrderTransition, cause error) error {
	current, err := s.orderRepo.FindByID(tx, id)
	if err != nil {
		return handleDomainError(err)
	}
	if current.Status == transition.From && transition.CountsRevision && workflow.RevisionLimitReached(current) {
		return apperrors.ErrRevisionLimitExceeded
	}
	return apperrors.ErrConcurrentModification.WithError(cause).
		WithDetails(map[string]string{"currentStatus": string(current.Status)})
}

func (s *orderService) reload(db *gorm.DB, id string) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.FindByID(db, id)
	if err != nil {
		return nil, handleDomainError(err)
	}
	return newOrderResponse(order), nil
}

func newOrderResponse(order *models.Order) *dto.OrderResponse {
	remaining := workflow.EffectiveMaxRevisions(order) - order.RevisionCount
	if remaining < 0 {
		remaining = 0
	}
	return &dto.OrderResponse{
		Order:                order,
		RevisionLimitReached: workflow.RevisionLimitReached(order),
		RemainingRevisions:   remaining,
	}
}

