package services

import (
	"bytes"
	"context"
	"strings"

	"designhub_backend/internal/auth"
	"designhub_backend/internal/imageprocessor"
	"designhub_backend/internal/logger"
	"designhub_backend/internal/models"
	"designhub_backend/internal/repositories"
	"designhub_backend/internal/services/dto"
	"designhub_backend/internal/storage"
	"designhub_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultSyncBatch = 50

type PortfolioService interface {
	ListPortfolios(ctx context.Context, db *gorm.DB, query *dto.PortfolioListQuery) (*dto.PortfolioListResponse, error)
	GetPortfolio(ctx context.Context, db *gorm.DB, id string) (*models.Portfolio, error)
	// RatePortfolio - одна оценка на пользователя, повторная отправка обновляет её
	RatePortfolio(ctx context.Context, db *gorm.DB, actor auth.Principal, id string, req *dto.RatePortfolioRequest) (*dto.RatingResponse, error)
	SetFeatured(ctx context.Context, db *gorm.DB, actor auth.Principal, id string, req *dto.FeaturePortfolioRequest) (*models.Portfolio, error)

	// GenerateFromDeliverable создаёт проекцию одобренной работы; created=false, если она уже есть
	GenerateFromDeliverable(ctx context.Context, db *gorm.DB, deliverableID string) (*models.Portfolio, bool, error)
	SyncPortfolios(ctx context.Context, db *gorm.DB) (int, error)
	TriggerSync(ctx context.Context, db *gorm.DB, actor auth.Principal) (*dto.SyncPortfoliosResponse, error)
}

type portfolioService struct {
	portfolioRepo   repositories.PortfolioRepository
	deliverableRepo repositories.DeliverableRepository
	orderRepo       repositories.OrderRepository
	categoryRepo    repositories.CategoryRepository
	storage         storage.Storage
	imageProc       *imageprocessor.Processor
}

func NewPortfolioService(
	portfolioRepo repositories.PortfolioRepository,
	deliverableRepo repositories.DeliverableRepository,
	orderRepo repositories.OrderRepository,
	categoryRepo repositories.CategoryRepository,
	store storage.Storage,
	imageProc *imageprocessor.Processor,
) PortfolioService {
	if imageProc == nil {
		imageProc = imageprocessor.NewProcessor(0)
	}
	return &portfolioService{
		portfolioRepo:   portfolioRepo,
		deliverableRepo: deliverableRepo,
		orderRepo:       orderRepo,
		categoryRepo:    categoryRepo,
		storage:         store,
		imageProc:       imageProc,
	}
}

// Portfolio operations

func (s *portfolioService) ListPortfolios(ctx context.Context, db *gorm.DB, query *dto.PortfolioListQuery) (*dto.PortfolioListResponse, error) {
	if err := validate(query); err != nil {
		return nil, err
	}

	page := repositories.Page{Page: query.Page, PageSize: query.Limit}.Normalize()
	portfolios, total, err := s.portfolioRepo.List(db, repositories.PortfolioFilter{
		Sort:       query.Sort,
		CategoryID: query.CategoryID,
		DesignerID: query.DesignerID,
		Search:     strings.TrimSpace(query.Search),
		Page:       page,
	})
	if err != nil {
		return nil, handlePortfolioError(err)
	}
	if portfolios == nil {
		portfolios = []models.Portfolio{}
	}

	return &dto.PortfolioListResponse{
		Portfolios:      portfolios,
		CurrentPage:     page.Page,
		TotalPages:      calculateTotalPages(total, page.PageSize),
		Count:           len(portfolios),
		TotalPortfolios: total,
	}, nil
}

func (s *portfolioService) GetPortfolio(ctx context.Context, db *gorm.DB, id string) (*models.Portfolio, error) {
	portfolio, err := s.portfolioRepo.FindByID(db, id)
	if err != nil {
		return nil, handlePortfolioError(err)
	}
	return portfolio, nil
}

func (s *portfolioService) RatePortfolio(ctx context.Context, db *gorm.DB, actor auth.Principal, id string, req *dto.RatePortfolioRequest) (*dto.RatingResponse, error) {
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

	if err := s.portfolioRepo.LockForUpdate(tx, id); err != nil {
		return nil, handlePortfolioError(err)
	}
	portfolio, err := s.portfolioRepo.FindByID(tx, id)
	if err != nil {
		return nil, handlePortfolioError(err)
	}
	if err := authorize(auth.ActionPortfolioRate, actor, auth.Resource{OwnerID: portfolio.UserID}); err != nil {
		return nil, apperrors.NewForbiddenError("You cannot rate your own portfolio")
	}

	rating := &models.PortfolioRating{
		PortfolioID: id,
		UserID:      actor.UserID,
		Rating:      req.Rating,
		Comment:     strings.TrimSpace(req.Comment),
	}
	created, err := s.portfolioRepo.UpsertRating(tx, rating)
	if err != nil {
		return nil, handlePortfolioError(err)
	}
	stats, err := s.portfolioRepo.RecalculateRating(tx, id)
	if err != nil {
		return nil, handlePortfolioError(err)
	}

	if err := commit(ctx, tx); err != nil {
		return nil, err
	}
	logger.CtxInfo(ctx, "Portfolio rated",
		"portfolio_id", id, "user_id", actor.UserID, "rating", req.Rating, "created", created)

	return &dto.RatingResponse{
		Rating:             rating,
		Created:            created,
		AverageRating:      stats.AverageRating,
		TotalRatings:       stats.TotalRatings,
		RatingDistribution: stats.RatingDistribution,
	}, nil
}

func (s *portfolioService) SetFeatured(ctx context.Context, db *gorm.DB, actor auth.Principal, id string, req *dto.FeaturePortfolioRequest) (*models.Portfolio, error) {
	if err := authorize(auth.ActionPortfolioFeature, actor, auth.Resource{}); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	if err := s.portfolioRepo.SetFeatured(db, id, *req.Featured); err != nil {
		return nil, handlePortfolioError(err)
	}
	logger.CtxInfo(ctx, "Portfolio featured flag changed", "portfolio_id", id, "featured", *req.Featured)
	return s.GetPortfolio(ctx, db, id)
}

// Generation

func (s *portfolioService) GenerateFromDeliverable(ctx context.Context, db *gorm.DB, deliverableID string) (*models.Portfolio, bool, error) {
	if existing, err := s.portfolioRepo.FindByDeliverableID(db, deliverableID); err == nil {
		return existing, false, nil
	} else if !apperrors.Is(err, repositories.ErrPortfolioNotFound) {
		return nil, false, handlePortfolioError(err)
	}

	deliverable, err := s.deliverableRepo.FindByID(db, deliverableID)
	if err != nil {
		return nil, false, handlePortfolioError(err)
	}
	if deliverable.Status != models.DeliverableStatusApproved {
		return nil, false, apperrors.ErrInvalidStatus("portfolio", "Only approved deliverables can be published")
	}
	order, err := s.orderRepo.FindByID(db, deliverable.OrderID)
	if err != nil {
		return nil, false, handlePortfolioError(err)
	}
	if order.Status != models.OrderStatusCompleted {
		return nil, false, apperrors.ErrInvalidStatus("portfolio", "Order is not completed yet")
	}

	portfolio := &models.Portfolio{
		Title:              deliverable.Title,
		Description:        deliverable.Description,
		UserID:             deliverable.DesignerID,
		DeliverableID:      deliverable.ID,
		Tags:               datatypes.JSONSlice[string]{},
		RatingDistribution: datatypes.NewJSONType(models.NewRatingDistribution()),
	}
	if order.Service != nil {
		categoryID := order.Service.CategoryID
		portfolio.CategoryID = &categoryID
		if category, err := s.categoryRepo.FindByID(db, categoryID); err == nil {
			portfolio.Tags = datatypes.JSONSlice[string]{category.Name}
		}
	}
	portfolio.ThumbnailURL = s.buildThumbnail(ctx, deliverable)

	if err := s.portfolioRepo.Create(db, portfolio); err != nil {
		if apperrors.Is(err, repositories.ErrPortfolioAlreadyExists) {
			// параллельная генерация успела раньше
			existing, findErr := s.portfolioRepo.FindByDeliverableID(db, deliverableID)
			if findErr != nil {
				return nil, false, handlePortfolioError(findErr)
			}
			return existing, false, nil
		}
		return nil, false, handlePortfolioError(err)
	}

	logger.CtxInfo(ctx, "Portfolio generated", "portfolio_id", portfolio.ID, "deliverable_id", deliverableID)
	return portfolio, true, nil
}

// SyncPortfolios догоняет все одобренные работы без проекции, батчами
func (s *portfolioService) SyncPortfolios(ctx context.Context, db *gorm.DB) (int, error) {
	created := 0
	for {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		pending, err := s.deliverableRepo.FindApprovedWithoutPortfolio(db, defaultSyncBatch)
		if err != nil {
			return created, handlePortfolioError(err)
		}
		if len(pending) == 0 {
			return created, nil
		}

		progressed := 0
		for _, d := range pending {
			_, ok, err := s.GenerateFromDeliverable(ctx, db, d.ID)
			if err != nil {
				logger.CtxWarn(ctx, "Failed to generate portfolio", "deliverable_id", d.ID, "error", err)
				continue
			}
			progressed++
			if ok {
				created++
			}
		}
		if progressed == 0 || len(pending) < defaultSyncBatch {
			return created, nil
		}
	}
}

func (s *portfolioService) TriggerSync(ctx context.Context, db *gorm.DB, actor auth.Principal) (*dto.SyncPortfoliosResponse, error) {
	if err := authorize(auth.ActionPortfolioGenerate, actor, auth.Resource{}); err != nil {
		return nil, err
	}
	created, err := s.SyncPortfolios(ctx, db)
	if err != nil {
		return nil, handlePortfolioError(err)
	}
	return &dto.SyncPortfoliosResponse{Created: created}, nil
}

// buildThumbnail - превью 150x150 для изображений, иначе ссылка на сам файл
func (s *portfolioService) buildThumbnail(ctx context.Context, d *models.Deliverable) string {
	if s.storage == nil || !imageprocessor.IsImageContentType(d.ContentType) {
		return d.FileURL
	}

	object, err := s.storage.Open(ctx, d.StorageKey)
	if err != nil {
		logger.CtxWarn(ctx, "Thumbnail source not available", "deliverable_id", d.ID, "error", err)
		return d.FileURL
	}
	defer object.Body.Close()

	thumb, err := s.imageProc.Thumbnail(object.Body, imageprocessor.SizeThumbnail)
	if err != nil {
		logger.CtxWarn(ctx, "Failed to render thumbnail", "deliverable_id", d.ID, "error", err)
		return d.FileURL
	}

	key := "portfolios/" + d.ID + "/thumbnail.jpg"
	if err := s.storage.Save(ctx, key, bytes.NewReader(thumb), "image/jpeg"); err != nil {
		logger.CtxWarn(ctx, "Failed to save thumbnail", "deliverable_id", d.ID, "error", err)
		return d.FileURL
	}
	url, err := s.storage.GetURL(ctx, key)
	if err != nil {
		return d.FileURL
	}
	return url
}

func handlePortfolioError(err error) error {
	return handleDomainError(err)
}
