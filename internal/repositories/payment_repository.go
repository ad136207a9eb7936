package repositories

import (
	"errors"
	"time"

	"designhub_backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound       = errors.New("payment transaction not found")
	ErrPaymentStateChanged   = errors.New("payment transaction state changed")
	ErrPaymentReferenceInUse = errors.New("provider payment id already recorded")
)

type PaymentRepository interface {
	Create(db *gorm.DB, tx *models.PaymentTransaction) error
	FindLatestPending(db *gorm.DB, orderID string) (*models.PaymentTransaction, error)
	FindByProviderPaymentID(db *gorm.DB, providerPaymentID string) (*models.PaymentTransaction, error)
	ListByOrder(db *gorm.DB, orderID string) ([]models.PaymentTransaction, error)
	Complete(db *gorm.DB, id string, status models.PaymentStatus, providerPaymentID string, raw datatypes.JSON, at time.Time) error
}

type PaymentRepositoryImpl struct{}

func NewPaymentRepository() PaymentRepository {
	return &PaymentRepositoryImpl{}
}

func (r *PaymentRepositoryImpl) Create(db *gorm.DB, tx *models.PaymentTransaction) error {
	return db.Create(tx).Error
}

func (r *PaymentRepositoryImpl) FindLatestPending(db *gorm.DB, orderID string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	err := db.Where("order_id = ? AND status = ?", orderID, models.PaymentStatusPending).
		Order("created_at DESC").
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func (r *PaymentRepositoryImpl) FindByProviderPaymentID(db *gorm.DB, providerPaymentID string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	if err := db.First(&tx, "provider_payment_id = ?", providerPaymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func (r *PaymentRepositoryImpl) ListByOrder(db *gorm.DB, orderID string) ([]models.PaymentTransaction, error) {
	var txs []models.PaymentTransaction
	err := db.Where("order_id = ?", orderID).Order("created_at DESC").Find(&txs).Error
	return txs, err
}

// Complete фиксирует результат провайдера для pending-транзакции
func (r *PaymentRepositoryImpl) Complete(db *gorm.DB, id string, status models.PaymentStatus, providerPaymentID string, raw datatypes.JSON, at time.Time) error {
	updates := map[string]interface{}{
		"status":              status,
		"provider_payment_id": providerPaymentID,
		"provider_response":   raw,
		"updated_at":          at,
	}
	if status == models.PaymentStatusPaid {
		updates["paid_at"] = at
	}

	result := db.Model(&models.PaymentTransaction{}).
		Where("id = ? AND status = ?", id, models.PaymentStatusPending).
		Updates(updates)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrPaymentReferenceInUse
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentStateChanged
	}
	return nil
}
