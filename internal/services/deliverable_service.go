package services

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"designhub_backend/internal/auth"
	"designhub_backend/internal/logger"
	"designhub_backend/internal/models"
	"designhub_backend/internal/repositories"
	"designhub_backend/internal/services/dto"
	"designhub_backend/internal/storage"
	"designhub_backend/internal/workflow"
	"designhub_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeliverableDownloadURL - fileUrl работы ведёт на скачивание с проверкой сессии и роли,
// а не на объект хранилища
func DeliverableDownloadURL(id string) string {
	return "/api/v1/deliverables/" + id + "/download"
}

type DeliverableService interface {
	SubmitDeliverable(ctx context.Context, db *gorm.DB, actor auth.Principal, orderID string, req *dto.SubmitDeliverableRequest, file *multipart.FileHeader) (*models.Deliverable, error)
	// UpdateDeliverable - только PENDING/REJECTED; file может быть nil
	UpdateDeliverable(ctx context.Context, db *gorm.DB, actor auth.Principal, id string, req *dto.UpdateDeliverableRequest, file *multipart.FileHeader) (*models.Deliverable, error)
	ReviewDeliverable(ctx context.Context, db *gorm.DB, actor auth.Principal, id string, req *dto.ReviewDeliverableRequest) (*models.Deliverable, error)
	ListDeliverables(ctx context.Context, db *gorm.DB, actor auth.Principal, orderID string) ([]models.Deliverable, error)
	GetDeliverable(ctx context.Context, db *gorm.DB, actor auth.Principal, id string) (*models.Deliverable, error)
	OpenDownload(ctx context.Context, db *gorm.DB, actor auth.Principal, id string) (*dto.DownloadResult, error)
	TrackDownload(ctx context.Context, db *gorm.DB, actor auth.Principal, id string) error
}

type deliverableService struct {
	deliverableRepo repositories.DeliverableRepository
	orderRepo       repositories.OrderRepository
	uploads         UploadService
	storage         storage.Storage
	tracker         DownloadTracker
}

func NewDeliverableService(
	deliverableRepo repositories.DeliverableRepository,
	orderRepo repositories.OrderRepository,
	uploads UploadService,
	store storage.Storage,
	tracker DownloadTracker,
) DeliverableService {
	return &deliverableService{
		deliverableRepo: deliverableRepo,
		orderRepo:       orderRepo,
		uploads:         uploads,
		storage:         store,
		tracker:         tracker,
	}
}

func (s *deliverableService) SubmitDeliverable(ctx context.Context, db *gorm.DB, actor auth.Principal, orderID string, req *dto.SubmitDeliverableRequest, file *multipart.FileHeader) (*models.Deliverable, error) {
	if !actor.IsAuthenticated() {
		return nil, apperrors.ErrSessionRequired
	}

	order, err := s.orderRepo.FindByID(db, orderID)
	if err != nil {
		return nil, handleDomainError(err)
	}
	if err := authorize(auth.ActionDeliverableSubmit, actor, auth.OrderResource(order)); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := workflow.CanSubmitDeliverable(order); err != nil {
		return nil, handleDomainError(err)
	}

	// файл кладём до транзакции, при откате удаляем
	stored, err := s.uploads.Store(ctx, ModuleDeliverables, order.ID, file)
	if err != nil {
		return nil, err
	}

	deliverable, err := s.createDeliverable(ctx, db, actor, orderID, req, stored)
	if err != nil {
		s.uploads.Remove(ctx, stored.Key)
		return nil, err
	}

	logger.CtxInfo(ctx, "Deliverable submitted",
		"deliverable_id", deliverable.ID, "order_id", orderID, "size", stored.Size)
	return s.reload(db, deliverable.ID)
}

func (s *deliverableService) createDeliverable(ctx context.Context, db *gorm.DB, actor auth.Principal, orderID string, req *dto.SubmitDeliverableRequest, stored *StoredFile) (*models.Deliverable, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	// заказ мог смениться, пока грузился файл
	order, err := s.orderRepo.FindByID(tx, orderID)
	if err != nil {
		return nil, handleDomainError(err)
	}
	if err := workflow.CanSubmitDeliverable(order); err != nil {
		return nil, handleDomainError(err)
	}

	id := uuid.NewString()
	deliverable := &models.Deliverable{
		BaseModel:   models.BaseModel{ID: id},
		OrderID:     orderID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		FileURL:     DeliverableDownloadURL(id),
		FileName:    stored.FileName,
		ContentType: stored.ContentType,
		FileSize:    stored.Size,
		StorageKey:  stored.Key,
		DesignerID:  actor.UserID,
		Status:      models.DeliverableStatusPending,
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.deliverableRepo.Create(tx, deliverable); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := commit(ctx, tx); err != nil {
		return nil, err
	}
	return deliverable, nil
}

func (s *deliverableService) UpdateDeliverable(ctx context.Context, db *gorm.DB, actor auth.Principal, id string, req *dto.UpdateDeliverableRequest, file *multipart.FileHeader) (*models.Deliverable, error) {
	if !actor.IsAuthenticated() {
		return nil, apperrors.ErrSessionRequired
	}

	deliverable, order, err := s.loadWithOrder(db, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(auth.ActionDeliverableUpdate, actor, auth.OrderResource(order)); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := workflow.CanEditDeliverable(deliverable, order); err != nil {
		return nil, handleDomainError(err)
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}

	var stored *StoredFile
	if file != nil {
		if stored, err = s.uploads.Store(ctx, ModuleDeliverables, order.ID, file); err != nil {
			return nil, err
		}
		fields["file_url"] = DeliverableDownloadURL(id)
		fields["file_name"] = stored.FileName
		fields["content_type"] = stored.ContentType
		fields["file_size"] = stored.Size
		fields["storage_key"] = stored.Key
	}
	if len(fields) == 0 {
		return deliverable, nil
	}

	// исправленная после отказа работа снова уходит на проверку
	if deliverable.Status == models.DeliverableStatusRejected {
		fields["status"] = models.DeliverableStatusPending
		fields["feedback"] = nil
		fields["reviewed_at"] = nil
		fields["submitted_at"] = time.Now().UTC()
	}

	allowed := []models.DeliverableStatus{models.DeliverableStatusPending, models.DeliverableStatusRejected}
	if err := s.deliverableRepo.UpdateFields(db, id, allowed, fields); err != nil {
		if stored != nil {
			s.uploads.Remove(ctx, stored.Key)
		}
		if apperrors.Is(err, repositories.ErrDeliverableStateChanged) {
			return nil, handleDomainError(workflow.ErrDeliverableLocked)
		}
		return nil, handleDomainError(err)
	}
	if stored != nil && deliverable.StorageKey != stored.Key {
		s.uploads.Remove(ctx, deliverable.StorageKey)
	}

	logger.CtxInfo(ctx, "Deliverable updated", "deliverable_id", id, "file_replaced", stored != nil)
	return s.reload(db, id)
}

func (s *deliverableService) ReviewDeliverable(ctx context.Context, db *gorm.DB, actor auth.Principal, id string, req *dto.ReviewDeliverableRequest) (*models.Deliverable, error) {
	if !actor.IsAuthenticated() {
		return nil, apperrors.ErrSessionRequired
	}

	deliverable, order, err := s.loadWithOrder(db, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(auth.ActionDeliverableReview, actor, auth.OrderResource(order)); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := workflow.ValidateReview(deliverable, req.Status, req.Feedback); err != nil {
		return nil, handleDomainError(err)
	}

	var feedback *string
	if trimmed := strings.TrimSpace(req.Feedback); trimmed != "" {
		feedback = &trimmed
	}

	if err := s.deliverableRepo.Review(db, id, req.Status, feedback, time.Now().UTC()); err != nil {
		if apperrors.Is(err, repositories.ErrDeliverableStateChanged) {
			return nil, handleDomainError(workflow.ErrAlreadyReviewed)
		}
		return nil, handleDomainError(err)
	}

	logger.CtxInfo(ctx, "Deliverable reviewed", "deliverable_id", id, "status", req.Status, "client_id", actor.UserID)
	return s.reload(db, id)
}

func (s *deliverableService) ListDeliverables(ctx context.Context, db *gorm.DB, actor auth.Principal, orderID string) ([]models.Deliverable, error) {
	if !actor.IsAuthenticated() {
		return nil, apperrors.ErrSessionRequired
	}
	order, err := s.orderRepo.FindByID(db, orderID)
	if err != nil {
		return nil, handleDomainError(err)
	}
	if err := authorize(auth.ActionDeliverableView, actor, auth.OrderResource(order)); err != nil {
		return nil, err
	}

	deliverables, err := s.deliverableRepo.ListByOrder(db, orderID)
	if err != nil {
		return nil, handleDomainError(err)
	}
	return deliverables, nil
}

func (s *deliverableService) GetDeliverable(ctx context.Context, db *gorm.DB, actor auth.Principal, id string) (*models.Deliverable, error) {
	if !actor.IsAuthenticated() {
		return nil, apperrors.ErrSessionRequired
	}
	deliverable, order, err := s.loadWithOrder(db, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(auth.ActionDeliverableView, actor, auth.OrderResource(order)); err != nil {
		return nil, err
	}
	return deliverable, nil
}

// OpenDownload отдаёт поток файла с вычисленным именем и учитывает скачивание
func (s *deliverableService) OpenDownload(ctx context.Context, db *gorm.DB, actor auth.Principal, id string) (*dto.DownloadResult, error) {
	deliverable, err := s.GetDeliverable(ctx, db, actor, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(auth.ActionDeliverableDownload, actor, auth.OrderResource(deliverable.Order)); err != nil {
		return nil, err
	}

	object, err := s.storage.Open(ctx, deliverable.StorageKey)
	if err != nil {
		logger.CtxWithError(ctx, "Failed to open deliverable file", err, "deliverable_id", id)
		return nil, handleDomainError(err)
	}

	contentType := object.ContentType
	if contentType == "" {
		contentType = deliverable.ContentType
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	size := object.Size
	if size <= 0 {
		size = deliverable.FileSize
	}

	trackQuietly(ctx, s.tracker, db, id)

	return &dto.DownloadResult{
		Body:        object.Body,
		FileName:    workflow.ResolveDownloadFilename(object.ContentDisposition, deliverable.FileName, deliverable.StorageKey, deliverable.Title, deliverable.ID),
		ContentType: contentType,
		Size:        size,
	}, nil
}

// TrackDownload - отдельный учёт скачивания, когда файл отдан в обход OpenDownload
func (s *deliverableService) TrackDownload(ctx context.Context, db *gorm.DB, actor auth.Principal, id string) error {
	deliverable, err := s.GetDeliverable(ctx, db, actor, id)
	if err != nil {
		return err
	}
	if err := authorize(auth.ActionDeliverableDownload, actor, auth.OrderResource(deliverable.Order)); err != nil {
		return err
	}
	trackQuietly(ctx, s.tracker, db, id)
	return nil
}

func (s *deliverableService) loadWithOrder(db *gorm.DB, id string) (*models.Deliverable, *models.Order, error) {
	deliverable, err := s.deliverableRepo.FindByID(db, id)
	if err != nil {
		return nil, nil, handleDomainError(err)
	}
	if deliverable.Order == nil {
		order, err := s.orderRepo.FindByID(db, deliverable.OrderID)
		if err != nil {
			return nil, nil, handleDomainError(err)
		}
		deliverable.Order = order
	}
	return deliverable, deliverable.Order, nil
}

func (s *deliverableService) reload(db *gorm.DB, id string) (*models.Deliverable, error) {
	deliverable, err := s.deliverableRepo.FindByID(db, id)
	if err != nil {
		return nil, handleDomainError(err)
	}
	return deliverable, nil
}
