package services

import (
	"context"
	"strings"
	"time"

	"designhub_backend/internal/auth"
	"designhub_backend/internal/infrastructure/payments"
	"designhub_backend/internal/logger"
	"designhub_backend/internal/models"
	"designhub_backend/internal/repositories"
	"designhub_backend/internal/services/dto"
	"designhub_backend/internal/workflow"
	"designhub_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const paymentProvider = "mercadopago"

type PaymentService interface {
	// CreatePaymentToken открывает чекаут у провайдера и переводит заказ в awaiting_payment
	CreatePaymentToken(ctx context.Context, db *gorm.DB, actor auth.Principal, orderID string) (*dto.PaymentTokenResponse, error)
	// RecordPayment сверяет платёж с провайдером и отмечает заказ оплаченным
	RecordPayment(ctx context.Context, db *gorm.DB, actor auth.Principal, orderID string, req *dto.RecordPaymentRequest) (*dto.PaymentRecordResponse, error)
}

type paymentService struct {
	gateway     payments.Gateway
	paymentRepo repositories.PaymentRepository
	orderRepo   repositories.OrderRepository
	serviceRepo repositories.ServiceRepository
	currency    string
}

func NewPaymentService(
	gateway payments.Gateway,
	paymentRepo repositories.PaymentRepository,
	orderRepo repositories.OrderRepository,
	serviceRepo repositories.ServiceRepository,
	currency string,
) PaymentService {
	if currency == "" {
		currency = "BRL"
	}
	return &paymentService{
		gateway:     gateway,
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		serviceRepo: serviceRepo,
		currency:    strings.ToUpper(currency),
	}
}

func (s *paymentService) CreatePaymentToken(ctx context.Context, db *gorm.DB, actor auth.Principal, orderID string) (*dto.PaymentTokenResponse, error) {
	order, err := s.loadPayableOrder(db, actor, orderID)
	if err != nil {
		return nil, err
	}
	if s.gateway == nil {
		return nil, handleDomainError(payments.ErrGatewayNotConfigured)
	}

	title := "Order " + order.ID
	if order.Service != nil && order.Service.Title != "" {
		title = order.Service.Title
	}
	payerEmail := ""
	if order.Client != nil {
		payerEmail = order.Client.Email
	}

	// id транзакции уходит провайдеру как external_reference
	transactionID := uuid.NewString()
	checkout, err := s.gateway.CreateCheckout(ctx, payments.CheckoutRequest{
		TransactionID: transactionID,
		OrderID:       order.ID,
		Title:         title,
		Amount:        order.Price,
		Currency:      s.currency,
		PayerEmail:    payerEmail,
	})
	if err != nil {
		logger.CtxWithError(ctx, "Payment checkout failed", err, "order_id", orderID)
		return nil, handleDomainError(err)
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	record := &models.PaymentTransaction{
		BaseModel:         models.BaseModel{ID: transactionID},
		OrderID:           order.ID,
		UserID:            actor.UserID,
		Provider:          paymentProvider,
		ProviderReference: checkout.Token,
		Amount:            order.Price,
		Currency:          s.currency,
		Status:            models.PaymentStatusPending,
		ProviderResponse:  datatypes.JSON(checkout.Raw),
	}
	if err := s.paymentRepo.Create(tx, record); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if order.Status == models.OrderStatusCompleted {
		if err := s.orderRepo.Transition(tx, order.ID, models.OrderStatusCompleted, models.OrderStatusAwaitingPayment, false); err != nil {
			return nil, handleDomainError(err)
		}
		if err := s.serviceRepo.UpdateStatus(tx, order.ServiceID,
			[]models.ServiceStatus{models.ServiceStatusCompleted}, models.ServiceStatusAwaitingPayment); err != nil {
			return nil, handleDomainError(err)
		}
	}

	if err := commit(ctx, tx); err != nil {
		return nil, err
	}
	logger.CtxInfo(ctx, "Payment checkout created", "order_id", order.ID, "transaction_id", transactionID)

	return &dto.PaymentTokenResponse{
		Token:         checkout.Token,
		ClientKey:     s.gateway.ClientKey(),
		RedirectURL:   checkout.RedirectURL,
		TransactionID: transactionID,
	}, nil
}

func (s *paymentService) RecordPayment(ctx context.Context, db *gorm.DB, actor auth.Principal, orderID string, req *dto.RecordPaymentRequest) (*dto.PaymentRecordResponse, error) {
	if !actor.IsAuthenticated() {
		return nil, apperrors.ErrSessionRequired
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	order, err := s.loadPayableOrder(db, actor, orderID)
	if err != nil {
		return nil, err
	}
	if s.gateway == nil {
		return nil, handleDomainError(payments.ErrGatewayNotConfigured)
	}

	paymentID := strings.TrimSpace(req.PaymentID)
	pending, err := s.paymentRepo.FindLatestPending(db, order.ID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrPaymentNotFound) {
			return nil, apperrors.ErrInvalidStatus("payment", "No checkout in progress for this order")
		}
		return nil, apperrors.InternalError(err)
	}
	if _, err := s.paymentRepo.FindByProviderPaymentID(db, paymentID); err == nil {
		return nil, handleDomainError(repositories.ErrPaymentReferenceInUse)
	} else if !apperrors.Is(err, repositories.ErrPaymentNotFound) {
		return nil, apperrors.InternalError(err)
	}

	result, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		logger.CtxWithError(ctx, "Payment lookup failed", err, "order_id", orderID, "payment_id", paymentID)
		return nil, handleDomainError(err)
	}
	if result.ExternalReference != "" && result.ExternalReference != pending.ID {
		return nil, apperrors.ErrConflict(nil, "payment", "Payment belongs to another checkout")
	}
	if !result.Amount.IsZero() && !result.Amount.Round(2).Equal(pending.Amount.Round(2)) {
		return nil, apperrors.ErrConflict(nil, "payment", "Payment amount does not match the order price")
	}
	if result.ProviderPaymentID == "" {
		result.ProviderPaymentID = paymentID
	}

	status := models.PaymentStatusFailed
	if result.Approved() {
		status = models.PaymentStatusPaid
	}
	now := time.Now().UTC()

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.paymentRepo.Complete(tx, pending.ID, status, result.ProviderPaymentID, datatypes.JSON(result.Raw), now); err != nil {
		return nil, handleDomainError(err)
	}
	if status == models.PaymentStatusPaid {
		if err := s.orderRepo.MarkPaid(tx, order.ID, now); err != nil {
			return nil, handleDomainError(err)
		}
		if err := s.serviceRepo.UpdateStatus(tx, order.ServiceID,
			[]models.ServiceStatus{models.ServiceStatusAwaitingPayment, models.ServiceStatusCompleted},
			models.ServiceStatusCompleted); err != nil {
			return nil, handleDomainError(err)
		}
	}

	if err := commit(ctx, tx); err != nil {
		return nil, err
	}

	if status != models.PaymentStatusPaid {
		logger.CtxWarn(ctx, "Payment not approved", "order_id", orderID, "payment_id", paymentID, "status", result.Status)
		return nil, apperrors.ErrConflict(nil, "payment", "Payment was not approved").
			WithDetails(map[string]string{"status": result.Status, "statusDetail": result.StatusDetail})
	}
	logger.CtxInfo(ctx, "Payment recorded", "order_id", orderID, "transaction_id", pending.ID)

	pending.Status = status
	pending.ProviderPaymentID = &result.ProviderPaymentID
	pending.PaidAt = &now

	paidOrder, err := s.orderRepo.FindByID(db, order.ID)
	if err != nil {
		return nil, handleDomainError(err)
	}
	return &dto.PaymentRecordResponse{Order: newOrderResponse(paidOrder), Transaction: pending}, nil
}

// loadPayableOrder: оплачивает клиент заказа, только одобренный и ещё не оплаченный
func (s *paymentService) loadPayableOrder(db *gorm.DB, actor auth.Principal, orderID string) (*models.Order, error) {
	if !actor.IsAuthenticated() {
		return nil, apperrors.ErrSessionRequired
	}
	order, err := s.orderRepo.FindByID(db, orderID)
	if err != nil {
		return nil, handleDomainError(err)
	}
	if err := authorize(auth.ActionPaymentCreate, actor, auth.OrderResource(order)); err != nil {
		return nil, err
	}
	if err := workflow.CanStartCheckout(order); err != nil {
		if apperrors.Is(err, workflow.ErrOrderClosed) {
			return nil, apperrors.ErrInvalidStatus("payment", "Order is already paid")
		}
		return nil, apperrors.ErrInvalidStatus("payment", "Order must be completed before payment")
	}
	return order, nil
}
