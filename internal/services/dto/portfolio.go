package dto

import "designhub_backend/internal/models"

type PortfolioListQuery struct {
	Sort       string `form:"sort" validate:"omitempty,is-portfolio-sort"`
	CategoryID string `form:"categoryId"`
	DesignerID string `form:"designerId"`
	Search     string `form:"search" validate:"max=100"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	Limit      int    `form:"limit" validate:"omitempty,min=1,max=100"`
}

type PortfolioListResponse struct {
	Portfolios      []models.Portfolio `json:"portfolios"`
	CurrentPage     int                `json:"currentPage"`
	TotalPages      int                `json:"totalPages"`
	Count           int                `json:"count"`
	TotalPortfolios int64              `json:"totalPortfolios"`
}

type RatePortfolioRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,trimmed-len=10-500"`
}

type RatingResponse struct {
	Rating             *models.PortfolioRating   `json:"rating"`
	Created            bool                      `json:"created"`
	AverageRating      float64                   `json:"averageRating"`
	TotalRatings       int64                     `json:"totalRatings"`
	RatingDistribution models.RatingDistribution `json:"ratingDistribution"`
}

type FeaturePortfolioRequest struct {
	Featured *bool `json:"featured" validate:"required"`
}

type SyncPortfoliosResponse struct {
	Created int `json:"created"`
}
