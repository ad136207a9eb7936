package services

import (
	"context"
	"strings"
	"time"

	"designhub_backend/internal/auth"
	"designhub_backend/internal/logger"
	"designhub_backend/internal/models"
	"designhub_backend/internal/repositories"
	"designhub_backend/internal/services/dto"
	"designhub_backend/internal/workflow"
	"designhub_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ServiceLifecycleService - заявки клиентов на дизайн и отклики дизайнеров
type ServiceLifecycleService interface {
	CreateService(ctx context.Context, db *gorm.DB, actor auth.Principal, req *dto.CreateServiceRequest) (*dto.ServiceResponse, error)
	ListServices(ctx context.Context, db *gorm.DB, actor auth.Principal, query *dto.ServiceListQuery) (*dto.ServiceListResponse, error)
	GetService(ctx context.Context, db *gorm.DB, id string) (*dto.ServiceResponse, error)
	UpdateService(ctx context.Context, db *gorm.DB, actor auth.Principal, id string, req *dto.UpdateServiceRequest) (*dto.ServiceResponse, error)
	ApplyForService(ctx context.Context, db *gorm.DB, actor auth.Principal, id string) (*dto.ApplyResponse, error)
	CancelService(ctx context.Context, db *gorm.DB, actor auth.Principal, id string) (*dto.ServiceResponse, error)
	DeleteService(ctx context.Context, db *gorm.DB, actor auth.Principal, id string) error
}

type serviceLifecycleService struct {
	serviceRepo  repositories.ServiceRepository
	categoryRepo repositories.CategoryRepository
	orderRepo    repositories.OrderRepository
}

func NewServiceLifecycleService(
	serviceRepo repositories.ServiceRepository,
	categoryRepo repositories.CategoryRepository,
	orderRepo repositories.OrderRepository,
) ServiceLifecycleService {
	return &serviceLifecycleService{
		serviceRepo:  serviceRepo,
		categoryRepo: categoryRepo,
		orderRepo:    orderRepo,
	}
}

func (s *serviceLifecycleService) CreateService(ctx context.Context, db *gorm.DB, actor auth.Principal, req *dto.CreateServiceRequest) (*dto.ServiceResponse, error) {
	if err := authorize(auth.ActionServiceCreate, actor, auth.Resource{}); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	now := time.Now()
	fieldErrors := map[string]string{}
	if !req.Budget.IsPositive() {
		fieldErrors["budget"] = "Budget must be greater than 0"
	}
	if !workflow.IsDeadlineAvailable(req.Deadline, now) {
		fieldErrors["deadline"] = "Deadline must be in the future"
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.ValidationError(fieldErrors)
	}
	if err := s.ensureCategory(db, req.CategoryID); err != nil {
		return nil, err
	}

	attachments := req.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	service := &models.Service{
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		CategoryID:   req.CategoryID,
		Budget:       req.Budget.Round(2),
		Deadline:     req.Deadline.UTC(),
		Attachments:  attachments,
		Status:       models.ServiceStatusOpen,
		ClientID:     actor.UserID,
		MaxRevisions: models.DefaultMaxRevisions,
	}
	if err := s.serviceRepo.Create(db, service); err != nil {
		return nil, handleDomainError(err)
	}

	logger.CtxInfo(ctx, "Service created", "service_id", service.ID, "client_id", actor.UserID)
	return s.GetService(ctx, db, service.ID)
}

func (s *serviceLifecycleService) ListServices(ctx context.Context, db *gorm.DB, actor auth.Principal, query *dto.ServiceListQuery) (*dto.ServiceListResponse, error) {
	if query.Mine && !actor.IsAuthenticated() {
		return nil, apperrors.ErrSessionRequired
	}
	if err := validate(query); err != nil {
		return nil, err
	}
	if query.Status != "" && !query.Status.IsValid() {
		return nil, apperrors.FieldError("status", "Must be a valid service status")
	}

	now := time.Now()
	filter := repositories.ServiceFilter{
		Status:     query.Status,
		CategoryID: query.CategoryID,
		Search:     strings.TrimSpace(query.Search),
		Page:       repositories.Page{Page: query.Page, PageSize: query.PageSize}.Normalize(),
	}
	if query.Mine {
		filter.ParticipantID = actor.UserID
	}
	if query.Available {
		filter.AvailableAt = &now
	}

	services, total, err := s.serviceRepo.List(db, filter)
	if err != nil {
		return nil, handleDomainError(err)
	}

	items := make([]*dto.ServiceResponse, 0, len(services))
	for i := range services {
		items = append(items, newServiceResponse(&services[i], now))
	}

	return &dto.ServiceListResponse{
		Services:   items,
		Total:      total,
		Page:       filter.Page.Page,
		PageSize:   filter.Page.PageSize,
		TotalPages: calculateTotalPages(total, filter.Page.PageSize),
	}, nil
}

func (s *serviceLifecycleService) GetService(ctx context.Context, db *gorm.DB, id string) (*dto.ServiceResponse, error) {
	service, err := s.serviceRepo.FindByID(db, id)
	if err != nil {
		return nil, handleDomainError(err)
	}
	return newServiceResponse(service, time.Now()), nil
}

// UpdateService - частичное обновление владельцем; completed/cancelled не редактируются
func (s *serviceLifecycleService) UpdateService(ctx context.Context, db *gorm.DB, actor auth.Principal, id string, req *dto.UpdateServiceRequest) (*dto.ServiceResponse, error) {
	if !actor.IsAuthenticated() {
		return nil, apperrors.ErrSessionRequired
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	service, err := s.serviceRepo.FindByID(db, id)
	if err != nil {
		return nil, handleDomainError(err)
	}
	if err := authorize(auth.ActionServiceUpdate, actor, auth.ServiceResource(service)); err != nil {
		return nil, err
	}
	if err := workflow.CanEditService(service); err != nil {
		return nil, handleDomainError(err)
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Budget != nil {
		if !req.Budget.IsPositive() {
			return nil, apperrors.FieldError("budget", "Budget must be greater than 0")
		}
		fields["budget"] = req.Budget.Round(2)
	}
	if req.Deadline != nil {
		if !workflow.IsDeadlineAvailable(*req.Deadline, time.Now()) {
			return nil, apperrors.FieldError("deadline", "Deadline must be in the future")
		}
		fields["deadline"] = req.Deadline.UTC()
	}
	if req.CategoryID != nil {
		if err := s.ensureCategory(db, *req.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *req.CategoryID
	}
	if req.Attachments != nil {
		attachments := *req.Attachments
		if attachments == nil {
			attachments = []string{}
		}
		fields["attachments"] = datatypes.JSONSlice[string](attachments)
	}

	if len(fields) > 0 {
		if err := s.serviceRepo.UpdateFields(db, id, fields); err != nil {
			return nil, handleDomainError(err)
		}
		logger.CtxInfo(ctx, "Service updated", "service_id", id, "fields", len(fields))
	}

	return s.GetService(ctx, db, id)
}

// ApplyForService - первый откликнувшийся дизайнер получает заказ.
// Назначение заявки и создание заказа идут в одной транзакции.
func (s *serviceLifecycleService) ApplyForService(ctx context.Context, db *gorm.DB, actor auth.Principal, id string) (*dto.ApplyResponse, error) {
	if !actor.IsAuthenticated() {
		return nil, apperrors.ErrSessionRequired
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	service, err := s.serviceRepo.FindByID(tx, id)
	if err != nil {
		return nil, handleDomainError(err)
	}
	if err := authorize(auth.ActionServiceApply, actor, auth.ServiceResource(service)); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := workflow.CanApply(service, now); err != nil {
		return nil, handleDomainError(err)
	}

	if err := s.serviceRepo.Assign(tx, id, actor.UserID, now); err != nil {
		if apperrors.Is(err, repositories.ErrServiceStateChanged) {
			return nil, apperrors.ErrConflict(err, "service", "Service has already been taken")
		}
		return nil, handleDomainError(err)
	}

	maxRevisions := service.MaxRevisions
	if maxRevisions <= 0 {
		maxRevisions = models.DefaultMaxRevisions
	}
	order := &models.Order{
		ServiceID:    service.ID,
		ClientID:     service.ClientID,
		DesignerID:   actor.UserID,
		Price:        service.Budget,
		Status:       models.OrderStatusPending,
		MaxRevisions: maxRevisions,
	}
	if err := s.orderRepo.Create(tx, order); err != nil {
		if apperrors.Is(err, repositories.ErrOrderAlreadyExists) {
			return nil, apperrors.ErrConflict(err, "service", "Service has already been taken")
		}
		return nil, handleDomainError(err)
	}

	if err := commit(ctx, tx); err != nil {
		return nil, err
	}
	logger.CtxInfo(ctx, "Designer applied for service", "service_id", id, "order_id", order.ID, "designer_id", actor.UserID)

	serviceResp, err := s.GetService(ctx, db, id)
	if err != nil {
		return nil, err
	}
	savedOrder, err := s.orderRepo.FindByID(db, order.ID)
	if err != nil {
		return nil, handleDomainError(err)
	}
	return &dto.ApplyResponse{Service: serviceResp, Order: newOrderResponse(savedOrder)}, nil
}

// CancelService: владелец отменяет до начала работы, назначенный дизайнер - после истечения дедлайна.
// Незавершённый заказ заявки отменяется вместе с ней.
func (s *serviceLifecycleService) CancelService(ctx context.Context, db *gorm.DB, actor auth.Principal, id string) (*dto.ServiceResponse, error) {
	if !actor.IsAuthenticated() {
		return nil, apperrors.ErrSessionRequired
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	service, err := s.serviceRepo.FindByID(tx, id)
	if err != nil {
		return nil, handleDomainError(err)
	}

	byOwner := actor.UserID == service.ClientID || actor.IsAdmin()
	if !byOwner {
		if err := authorize(auth.ActionServiceCancel, actor, auth.ServiceResource(service)); err != nil {
			return nil, err
		}
	}
	if err := workflow.CanCancelService(service, byOwner, time.Now()); err != nil {
		return nil, handleDomainError(err)
	}

	if err := s.serviceRepo.UpdateStatus(tx, id, []models.ServiceStatus{service.Status}, models.ServiceStatusCancelled); err != nil {
		return nil, handleDomainError(err)
	}
	cancelled, err := s.orderRepo.CancelByService(tx, id)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := commit(ctx, tx); err != nil {
		return nil, err
	}
	logger.CtxInfo(ctx, "Service cancelled", "service_id", id, "by", actor.UserID, "orders_cancelled", cancelled)

	return s.GetService(ctx, db, id)
}

// DeleteService - только владелец и только пока у заявки нет заказа
func (s *serviceLifecycleService) DeleteService(ctx context.Context, db *gorm.DB, actor auth.Principal, id string) error {
	if !actor.IsAuthenticated() {
		return apperrors.ErrSessionRequired
	}

	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	service, err := s.serviceRepo.FindByID(tx, id)
	if err != nil {
		return handleDomainError(err)
	}
	if err := authorize(auth.ActionServiceDelete, actor, auth.ServiceResource(service)); err != nil {
		return err
	}
	if err := workflow.CanDeleteService(service); err != nil {
		return handleDomainError(err)
	}

	if _, err := s.orderRepo.FindByServiceID(tx, id); err == nil {
		return handleDomainError(workflow.ErrServiceInUse)
	} else if !apperrors.Is(err, repositories.ErrOrderNotFound) {
		return apperrors.InternalError(err)
	}

	if err := s.serviceRepo.Delete(tx, id, []models.ServiceStatus{models.ServiceStatusOpen, models.ServiceStatusCancelled}); err != nil {
		return handleDomainError(err)
	}

	if err := commit(ctx, tx); err != nil {
		return err
	}
	logger.CtxInfo(ctx, "Service deleted", "service_id", id)
	return nil
}

func (s *serviceLifecycleService) ensureCategory(db *gorm.DB, categoryID string) error {
	if _, err := s.categoryRepo.FindByID(db, categoryID); err != nil {
		if apperrors.Is(err, repositories.ErrCategoryNotFound) {
			return apperrors.FieldError("categoryId", "Category does not exist")
		}
		return handleDomainError(err)
	}
	return nil
}

func newServiceResponse(service *models.Service, now time.Time) *dto.ServiceResponse {
	return &dto.ServiceResponse{
		Service:             service,
		IsDeadlineAvailable: workflow.IsDeadlineAvailable(service.Deadline, now),
	}
}
