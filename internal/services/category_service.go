package services

import (
	"context"

	"designhub_backend/internal/auth"
	"designhub_backend/internal/logger"
	"designhub_backend/internal/models"
	"designhub_backend/internal/repositories"
	"designhub_backend/internal/services/dto"
	"designhub_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type CategoryService interface {
	ListCategories(ctx context.Context, db *gorm.DB) ([]models.Category, error)
	CreateCategory(ctx context.Context, db *gorm.DB, actor auth.Principal, req *dto.CategoryRequest) (*models.Category, error)
	UpdateCategory(ctx context.Context, db *gorm.DB, actor auth.Principal, id string, req *dto.CategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, db *gorm.DB, actor auth.Principal, id string) error
}

type categoryService struct {
	categoryRepo repositories.CategoryRepository
}

func NewCategoryService(categoryRepo repositories.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

func (s *categoryService) ListCategories(ctx context.Context, db *gorm.DB) ([]models.Category, error) {
	categories, err := s.categoryRepo.List(db)
	if err != nil {
		return nil, handleDomainError(err)
	}
	return categories, nil
}

func (s *categoryService) CreateCategory(ctx context.Context, db *gorm.DB, actor auth.Principal, req *dto.CategoryRequest) (*models.Category, error) {
	if err := authorize(auth.ActionCategoryManage, actor, auth.Resource{}); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	category := &models.Category{Name: req.Name}
	if err := s.categoryRepo.Create(db, category); err != nil {
		return nil, handleDomainError(err)
	}

	logger.CtxInfo(ctx, "Category created", "category_id", category.ID, "name", category.Name)
	return category, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, db *gorm.DB, actor auth.Principal, id string, req *dto.CategoryRequest) (*models.Category, error) {
	if err := authorize(auth.ActionCategoryManage, actor, auth.Resource{}); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	category, err := s.categoryRepo.FindByID(db, id)
	if err != nil {
		return nil, handleDomainError(err)
	}
	category.Name = req.Name
	if err := s.categoryRepo.Update(db, category); err != nil {
		return nil, handleDomainError(err)
	}
	return category, nil
}

// DeleteCategory - категорию с заявками удалить нельзя (409)
func (s *categoryService) DeleteCategory(ctx context.Context, db *gorm.DB, actor auth.Principal, id string) error {
	if err := authorize(auth.ActionCategoryManage, actor, auth.Resource{}); err != nil {
		return err
	}

	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if _, err := s.categoryRepo.FindByID(tx, id); err != nil {
		return handleDomainError(err)
	}
	inUse, err := s.categoryRepo.CountServices(tx, id)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if inUse > 0 {
		return apperrors.ErrConflict(nil, "category", "Category is used by existing services").
			WithDetails(map[string]int64{"services": inUse})
	}
	if err := s.categoryRepo.Delete(tx, id); err != nil {
		return handleDomainError(err)
	}

	if err := commit(ctx, tx); err != nil {
		return err
	}
	logger.CtxInfo(ctx, "Category deleted", "category_id", id)
	return nil
}
