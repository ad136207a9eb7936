package repositories

import (
	"errors"
	"time"

	"designhub_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	// ErrServiceStateChanged - условный UPDATE не затронул строк: статус уже другой
	ErrServiceStateChanged = errors.New("service state changed")
)

type ServiceRepository interface {
	Create(db *gorm.DB, service *models.Service) error
	FindByID(db *gorm.DB, id string) (*models.Service, error)
	List(db *gorm.DB, filter ServiceFilter) ([]models.Service, int64, error)
	UpdateFields(db *gorm.DB, id string, fields map[string]interface{}) error
	Assign(db *gorm.DB, id, designerID string, now time.Time) error
	UpdateStatus(db *gorm.DB, id string, from []models.ServiceStatus, to models.ServiceStatus) error
	Delete(db *gorm.DB, id string, allowed []models.ServiceStatus) error
}

type ServiceFilter struct {
	Status     models.ServiceStatus
	CategoryID string
	ClientID   string
	DesignerID string
	// ParticipantID - заявки, где пользователь клиент или назначенный дизайнер
	ParticipantID string
	// AvailableAt - только открытые заявки с дедлайном позже этого момента
	AvailableAt *time.Time
	Search      string
	Page
}

type ServiceRepositoryImpl struct{}

func NewServiceRepository() ServiceRepository {
	return &ServiceRepositoryImpl{}
}

func (r *ServiceRepositoryImpl) Create(db *gorm.DB, service *models.Service) error {
	return db.Create(service).Error
}

func (r *ServiceRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Service, error) {
	var service models.Service
	err := db.Preload("Category").Preload("Client").First(&service, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &service, nil
}

func (r *ServiceRepositoryImpl) List(db *gorm.DB, filter ServiceFilter) ([]models.Service, int64, error) {
	var services []models.Service
	var total int64

	query := db.Model(&models.Service{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CategoryID != "" {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.ClientID != "" {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.DesignerID != "" {
		query = query.Where("designer_id = ?", filter.DesignerID)
	}
	if filter.ParticipantID != "" {
		query = query.Where("(client_id = ? OR designer_id = ?)", filter.ParticipantID, filter.ParticipantID)
	}
	if filter.AvailableAt != nil {
		query = query.Where("status = ? AND deadline > ?", models.ServiceStatusOpen, filter.AvailableAt.UTC())
	}
	if filter.Search != "" {
		query = query.Where("LOWER(title) LIKE LOWER(?) ESCAPE '\\'", "%"+escapeLike(filter.Search)+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	err := query.Preload("Category").Preload("Client").
		Order("created_at DESC").
		Limit(page.PageSize).Offset(page.Offset()).
		Find(&services).Error

	return services, total, err
}

// UpdateFields обновляет заявку, пока она не завершена и не отменена
func (r *ServiceRepositoryImpl) UpdateFields(db *gorm.DB, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	result := db.Model(&models.Service{}).
		Where("id = ? AND status NOT IN ?", id, []models.ServiceStatus{models.ServiceStatusCompleted, models.ServiceStatusCancelled}).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrServiceStateChanged
	}
	return nil
}

// Assign - open -> assigned; выигрывает первый дизайнер
func (r *ServiceRepositoryImpl) Assign(db *gorm.DB, id, designerID string, now time.Time) error {
	result := db.Model(&models.Service{}).
		Where("id = ? AND status = ? AND deadline > ?", id, models.ServiceStatusOpen, now.UTC()).
		Updates(map[string]interface{}{
			"status":      models.ServiceStatusAssigned,
			"designer_id": designerID,
			"updated_at":  now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrServiceStateChanged
	}
	return nil
}

func (r *ServiceRepositoryImpl) UpdateStatus(db *gorm.DB, id string, from []models.ServiceStatus, to models.ServiceStatus) error {
	result := db.Model(&models.Service{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrServiceStateChanged
	}
	return nil
}

func (r *ServiceRepositoryImpl) Delete(db *gorm.DB, id string, allowed []models.ServiceStatus) error {
	result := db.Where("id = ? AND status IN ?", id, allowed).Delete(&models.Service{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrServiceStateChanged
	}
	return nil
}
