package repositories

import (
	"errors"
	"math"
	"strconv"
	"time"

	"designhub_backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPortfolioNotFound      = errors.New("portfolio not found")
	ErrPortfolioAlreadyExists = errors.New("portfolio already exists for this deliverable")
)

type PortfolioRepository interface {
	Create(db *gorm.DB, portfolio *models.Portfolio) error
	FindByID(db *gorm.DB, id string) (*models.Portfolio, error)
	// LockForUpdate держит строку портфолио до конца транзакции
	LockForUpdate(db *gorm.DB, id string) error
	FindByDeliverableID(db *gorm.DB, deliverableID string) (*models.Portfolio, error)
	List(db *gorm.DB, filter PortfolioFilter) ([]models.Portfolio, int64, error)
	SetFeatured(db *gorm.DB, id string, featured bool) error

	// Rating operations
	UpsertRating(db *gorm.DB, rating *models.PortfolioRating) (created bool, err error)
	RecalculateRating(db *gorm.DB, portfolioID string) (*RatingStats, error)
}

type PortfolioFilter struct {
	Sort       string
	CategoryID string
	DesignerID string
	Search     string
	Page
}

// RatingStats - агрегаты оценок портфолио
type RatingStats struct {
	AverageRating      float64
	TotalRatings       int64
	RatingDistribution models.RatingDistribution
}

type PortfolioRepositoryImpl struct{}

func NewPortfolioRepository() PortfolioRepository {
	return &PortfolioRepositoryImpl{}
}

func (r *PortfolioRepositoryImpl) Create(db *gorm.DB, portfolio *models.Portfolio) error {
	if err := db.Create(portfolio).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrPortfolioAlreadyExists
		}
		return err
	}
	return nil
}

func (r *PortfolioRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	err := db.Preload("User").
		Preload("Ratings", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("portfolio_ratings.updated_at DESC")
		}).
		Preload("Ratings.User").
		First(&portfolio, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPortfolioNotFound
		}
		return nil, err
	}
	return &portfolio, nil
}

// LockForUpdate сериализует запись оценок одного портфолио: пересчёт агрегатов
// во второй транзакции видит строку, добавленную первой
func (r *PortfolioRepositoryImpl) LockForUpdate(db *gorm.DB, id string) error {
	var portfolio models.Portfolio
	err := forUpdate(db).Select("id").First(&portfolio, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPortfolioNotFound
		}
		return err
	}
	return nil
}

func (r *PortfolioRepositoryImpl) FindByDeliverableID(db *gorm.DB, deliverableID string) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	if err := db.First(&portfolio, "deliverable_id = ?", deliverableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPortfolioNotFound
		}
		return nil, err
	}
	return &portfolio, nil
}

func (r *PortfolioRepositoryImpl) List(db *gorm.DB, filter PortfolioFilter) ([]models.Portfolio, int64, error) {
	var portfolios []models.Portfolio
	var total int64

	query := db.Model(&models.Portfolio{})
	if filter.CategoryID != "" {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.DesignerID != "" {
		query = query.Where("user_id = ?", filter.DesignerID)
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		query = query.Where("(LOWER(title) LIKE LOWER(?) ESCAPE '\\' OR LOWER(description) LIKE LOWER(?) ESCAPE '\\')", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	err := query.Preload("User").
		Order(portfolioOrder(filter.Sort)).
		Limit(page.PageSize).Offset(page.Offset()).
		Find(&portfolios).Error

	return portfolios, total, err
}

// portfolioOrder - id в конце делает порядок стабильным между страницами
func portfolioOrder(sort string) string {
	switch sort {
	case "oldest":
		return "created_at ASC, id ASC"
	case "rating":
		return "average_rating DESC, total_ratings DESC, created_at DESC, id ASC"
	case "popular":
		return "total_ratings DESC, average_rating DESC, created_at DESC, id ASC"
	case "featured":
		return "featured DESC, average_rating DESC, created_at DESC, id ASC"
	default:
		return "created_at DESC, id ASC"
	}
}

func (r *PortfolioRepositoryImpl) SetFeatured(db *gorm.DB, id string, featured bool) error {
	result := db.Model(&models.Portfolio{}).Where("id = ?", id).
		Updates(map[string]interface{}{"featured": featured, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPortfolioNotFound
	}
	return nil
}

// UpsertRating - одна оценка на пару (portfolio, user): повторная отправка обновляет её.
// После вызова rating содержит сохранённую строку.
func (r *PortfolioRepositoryImpl) UpsertRating(db *gorm.DB, rating *models.PortfolioRating) (bool, error) {
	var existing int64
	if err := db.Model(&models.PortfolioRating{}).
		Where("portfolio_id = ? AND user_id = ?", rating.PortfolioID, rating.UserID).
		Count(&existing).Error; err != nil {
		return false, err
	}

	now := time.Now()
	rating.UpdatedAt = now
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "portfolio_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
	}).Create(rating).Error
	if err != nil {
		return false, err
	}

	// при конфликте id в структуре не совпадает с id строки
	var saved models.PortfolioRating
	if err := db.Where("portfolio_id = ? AND user_id = ?", rating.PortfolioID, rating.UserID).
		First(&saved).Error; err != nil {
		return false, err
	}
	*rating = saved
	return existing == 0, nil
}

// RecalculateRating пересчитывает агрегаты по всем оценкам и пишет их в portfolio.
// Вызывается в той же транзакции, что и запись оценки.
func (r *PortfolioRepositoryImpl) RecalculateRating(db *gorm.DB, portfolioID string) (*RatingStats, error) {
	var rows []struct {
		Rating int
		Count  int64
	}
	err := db.Model(&models.PortfolioRating{}).
		Select("rating, COUNT(*) AS count").
		Where("portfolio_id = ?", portfolioID).
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &RatingStats{RatingDistribution: models.NewRatingDistribution()}
	var sum int64
	for _, row := range rows {
		stats.RatingDistribution[strconv.Itoa(row.Rating)] = row.Count
		stats.TotalRatings += row.Count
		sum += int64(row.Rating) * row.Count
	}
	if stats.TotalRatings > 0 {
		stats.AverageRating = math.Round(float64(sum)/float64(stats.TotalRatings)*100) / 100
	}

	result := db.Model(&models.Portfolio{}).Where("id = ?", portfolioID).
		Updates(map[string]interface{}{
			"average_rating":      stats.AverageRating,
			"total_ratings":       stats.TotalRatings,
			"rating_distribution": datatypes.NewJSONType(stats.RatingDistribution),
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrPortfolioNotFound
	}
	return stats, nil
}
