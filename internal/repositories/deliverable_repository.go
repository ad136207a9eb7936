package repositories

import (
	"errors"
	"time"

	"designhub_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrDeliverableNotFound     = errors.New("deliverable not found")
	ErrDeliverableStateChanged = errors.New("deliverable state changed")
)

type DeliverableRepository interface {
	Create(db *gorm.DB, deliverable *models.Deliverable) error
	FindByID(db *gorm.DB, id string) (*models.Deliverable, error)
	ListByOrder(db *gorm.DB, orderID string) ([]models.Deliverable, error)
	UpdateFields(db *gorm.DB, id string, allowedFrom []models.DeliverableStatus, fields map[string]interface{}) error
	Review(db *gorm.DB, id string, status models.DeliverableStatus, feedback *string, reviewedAt time.Time) error
	IncrementDownloads(db *gorm.DB, id string) error
	SyncDownloadCount(db *gorm.DB, id string, count int64) error
	FindApprovedWithoutPortfolio(db *gorm.DB, limit int) ([]models.Deliverable, error)
}

type DeliverableRepositoryImpl struct{}

func NewDeliverableRepository() DeliverableRepository {
	return &DeliverableRepositoryImpl{}
}

func (r *DeliverableRepositoryImpl) Create(db *gorm.DB, deliverable *models.Deliverable) error {
	return db.Create(deliverable).Error
}

func (r *DeliverableRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Deliverable, error) {
	var deliverable models.Deliverable
	err := db.Preload("Order").Preload("Designer").First(&deliverable, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeliverableNotFound
		}
		return nil, err
	}
	return &deliverable, nil
}

func (r *DeliverableRepositoryImpl) ListByOrder(db *gorm.DB, orderID string) ([]models.Deliverable, error) {
	var deliverables []models.Deliverable
	err := db.Preload("Designer").
		Where("order_id = ?", orderID).
		Order("submitted_at DESC").
		Find(&deliverables).Error
	return deliverables, err
}

// UpdateFields применяет изменения, только если статус всё ещё один из allowedFrom
func (r *DeliverableRepositoryImpl) UpdateFields(db *gorm.DB, id string, allowedFrom []models.DeliverableStatus, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	result := db.Model(&models.Deliverable{}).
		Where("id = ? AND status IN ?", id, allowedFrom).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDeliverableStateChanged
	}
	return nil
}

// Review - PENDING -> APPROVED|REJECTED, повторное рецензирование не проходит
func (r *DeliverableRepositoryImpl) Review(db *gorm.DB, id string, status models.DeliverableStatus, feedback *string, reviewedAt time.Time) error {
	result := db.Model(&models.Deliverable{}).
		Where("id = ? AND status = ?", id, models.DeliverableStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"feedback":    feedback,
			"reviewed_at": reviewedAt,
			"updated_at":  reviewedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDeliverableStateChanged
	}
	return nil
}

func (r *DeliverableRepositoryImpl) IncrementDownloads(db *gorm.DB, id string) error {
	result := db.Model(&models.Deliverable{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDeliverableNotFound
	}
	return nil
}

// SyncDownloadCount переносит счётчик из внешнего хранилища; значение только растёт
func (r *DeliverableRepositoryImpl) SyncDownloadCount(db *gorm.DB, id string, count int64) error {
	return db.Model(&models.Deliverable{}).
		Where("id = ? AND download_count < ?", id, count).
		UpdateColumn("download_count", count).Error
}

// FindApprovedWithoutPortfolio - одобренные работы завершённых заказов, ещё не попавшие в портфолио
func (r *DeliverableRepositoryImpl) FindApprovedWithoutPortfolio(db *gorm.DB, limit int) ([]models.Deliverable, error) {
	var deliverables []models.Deliverable
	err := db.Model(&models.Deliverable{}).
		Joins("JOIN orders ON orders.id = deliverables.order_id").
		Joins("LEFT JOIN portfolios ON portfolios.deliverable_id = deliverables.id").
		Where("deliverables.status = ? AND orders.status = ? AND portfolios.id IS NULL",
			models.DeliverableStatusApproved, models.OrderStatusCompleted).
		Order("deliverables.reviewed_at ASC").
		Limit(limit).
		Find(&deliverables).Error
	return deliverables, err
}
