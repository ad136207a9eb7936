package repositories

import (
	"errors"

	"designhub_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category already exists")
)

type CategoryRepository interface {
	List(db *gorm.DB) ([]models.Category, error)
	FindByID(db *gorm.DB, id string) (*models.Category, error)
	Create(db *gorm.DB, category *models.Category) error
	Update(db *gorm.DB, category *models.Category) error
	Delete(db *gorm.DB, id string) error
	CountServices(db *gorm.DB, id string) (int64, error)
}

type CategoryRepositoryImpl struct{}

func NewCategoryRepository() CategoryRepository {
	return &CategoryRepositoryImpl{}
}

func (r *CategoryRepositoryImpl) List(db *gorm.DB) ([]models.Category, error) {
	var categories []models.Category
	err := db.Order("name_key ASC").Find(&categories).Error
	return categories, err
}

func (r *CategoryRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Category, error) {
	var category models.Category
	if err := db.First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepositoryImpl) Create(db *gorm.DB, category *models.Category) error {
	if err := r.ensureUniqueName(db, category); err != nil {
		return err
	}
	if err := db.Create(category).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrCategoryAlreadyExists
		}
		return err
	}
	return nil
}

// Update сохраняет через Save, чтобы сработал хук BeforeSave и пересчитался name_key
func (r *CategoryRepositoryImpl) Update(db *gorm.DB, category *models.Category) error {
	if err := r.ensureUniqueName(db, category); err != nil {
		return err
	}
	if err := db.Save(category).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrCategoryAlreadyExists
		}
		return err
	}
	return nil
}

func (r *CategoryRepositoryImpl) Delete(db *gorm.DB, id string) error {
	result := db.Where("id = ?", id).Delete(&models.Category{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepositoryImpl) CountServices(db *gorm.DB, id string) (int64, error) {
	var count int64
	err := db.Model(&models.Service{}).Where("category_id = ?", id).Count(&count).Error
	return count, err
}

func (r *CategoryRepositoryImpl) ensureUniqueName(db *gorm.DB, category *models.Category) error {
	var count int64
	q := db.Model(&models.Category{}).Where("name_key = ?", models.CategoryKey(category.Name))
	if category.ID != "" {
		q = q.Where("id <> ?", category.ID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryAlreadyExists
	}
	return nil
}
