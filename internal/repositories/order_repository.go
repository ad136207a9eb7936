package repositories

import (
	"errors"
	"time"

	"designhub_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderStateChanged  = errors.New("order state changed")
	ErrOrderAlreadyExists = errors.New("order already exists for this service")
)

type OrderRepository interface {
	Create(db *gorm.DB, order *models.Order) error
	FindByID(db *gorm.DB, id string) (*models.Order, error)
	FindByServiceID(db *gorm.DB, serviceID string) (*models.Order, error)
	List(db *gorm.DB, filter OrderFilter) ([]models.Order, int64, error)
	Transition(db *gorm.DB, id string, from, to models.OrderStatus, countRevision bool) error
	MarkPaid(db *gorm.DB, id string, paidAt time.Time) error
	Cancel(db *gorm.DB, id string) error
	CancelByService(db *gorm.DB, serviceID string) (int64, error)
}

type OrderFilter struct {
	ClientID   string
	DesignerID string
	// ParticipantID - заказы, где пользователь клиент или дизайнер
	ParticipantID string
	Status        models.OrderStatus
	Page
}

type OrderRepositoryImpl struct{}

func NewOrderRepository() OrderRepository {
	return &OrderRepositoryImpl{}
}

// Create - на одну заявку один заказ (уникальный service_id)
func (r *OrderRepositoryImpl) Create(db *gorm.DB, order *models.Order) error {
	if err := db.Create(order).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrOrderAlreadyExists
		}
		return err
	}
	return nil
}

func (r *OrderRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Order, error) {
	var order models.Order
	err := db.Preload("Service").Preload("Client").Preload("Designer").
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepositoryImpl) FindByServiceID(db *gorm.DB, serviceID string) (*models.Order, error) {
	var order models.Order
	if err := db.First(&order, "service_id = ?", serviceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepositoryImpl) List(db *gorm.DB, filter OrderFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := db.Model(&models.Order{})
	if filter.ClientID != "" {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.DesignerID != "" {
		query = query.Where("designer_id = ?", filter.DesignerID)
	}
	if filter.ParticipantID != "" {
		query = query.Where("(client_id = ? OR designer_id = ?)", filter.ParticipantID, filter.ParticipantID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	err := query.Preload("Service").Preload("Client").Preload("Designer").
		Order("created_at DESC").
		Limit(page.PageSize).Offset(page.Offset()).
		Find(&orders).Error

	return orders, total, err
}

// Transition - условный переход from -> to.
// Для запроса правки счётчик растёт в том же UPDATE и только пока лимит не исчерпан.
func (r *OrderRepositoryImpl) Transition(db *gorm.DB, id string, from, to models.OrderStatus, countRevision bool) error {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	query := db.Model(&models.Order{}).Where("id = ? AND status = ?", id, from)
	if countRevision {
		updates["revision_count"] = gorm.Expr("revision_count + ?", 1)
		query = query.Where("revision_count < max_revisions")
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderStateChanged
	}
	return nil
}

// MarkPaid - оплата подтверждена: заказ снова completed и помечен оплаченным
func (r *OrderRepositoryImpl) MarkPaid(db *gorm.DB, id string, paidAt time.Time) error {
	result := db.Model(&models.Order{}).
		Where("id = ? AND is_paid = ? AND status IN ?", id, false,
			[]models.OrderStatus{models.OrderStatusCompleted, models.OrderStatusAwaitingPayment}).
		Updates(map[string]interface{}{
			"is_paid":    true,
			"paid_at":    paidAt,
			"status":     models.OrderStatusCompleted,
			"updated_at": paidAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderStateChanged
	}
	return nil
}

func (r *OrderRepositoryImpl) Cancel(db *gorm.DB, id string) error {
	result := db.Model(&models.Order{}).
		Where("id = ? AND status NOT IN ?", id, []models.OrderStatus{models.OrderStatusCompleted, models.OrderStatusCancelled}).
		Updates(map[string]interface{}{
			"status":     models.OrderStatusCancelled,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderStateChanged
	}
	return nil
}

// CancelByService отменяет заказ отменённой заявки, если он ещё не завершён
func (r *OrderRepositoryImpl) CancelByService(db *gorm.DB, serviceID string) (int64, error) {
	result := db.Model(&models.Order{}).
		Where("service_id = ? AND status NOT IN ?", serviceID, []models.OrderStatus{models.OrderStatusCompleted, models.OrderStatusCancelled}).
		Updates(map[string]interface{}{
			"status":     models.OrderStatusCancelled,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}
