package models

import (
	"strconv"

	"gorm.io/datatypes"
)

// RatingDistribution - количество оценок по звёздам: "1".."5"
type RatingDistribution map[string]int64

// NewRatingDistribution возвращает распределение со всеми ключами 1..5
func NewRatingDistribution() RatingDistribution {
	d := make(RatingDistribution, 5)
	for i := 1; i <= 5; i++ {
		d[strconv.Itoa(i)] = 0
	}
	return d
}

// Portfolio - публичная проекция одобренного Deliverable.
// AverageRating, TotalRatings и RatingDistribution пишет только агрегация оценок.
type Portfolio struct {
	BaseModel
	Title              string                                 `gorm:"size:200;not null" json:"title"`
	Description        string                                 `gorm:"type:text" json:"description"`
	ThumbnailURL       string                                 `gorm:"size:1024" json:"thumbnailUrl"`
	UserID             string                                 `gorm:"type:uuid;not null;index" json:"userId"`
	User               *User                                  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	DeliverableID      string                                 `gorm:"type:uuid;not null;uniqueIndex" json:"deliverableId"`
	CategoryID         *string                                `gorm:"type:uuid;index" json:"categoryId,omitempty"`
	Tags               datatypes.JSONSlice[string]            `json:"tags"`
	Featured           bool                                   `gorm:"not null;default:false;index" json:"featured"`
	AverageRating      float64                                `gorm:"not null;default:0;index" json:"averageRating"`
	TotalRatings       int64                                  `gorm:"not null;default:0" json:"totalRatings"`
	RatingDistribution datatypes.JSONType[RatingDistribution] `json:"ratingDistribution"`
	Ratings            []PortfolioRating                      `gorm:"foreignKey:PortfolioID" json:"ratings,omitempty"`
}

// PortfolioRating - одна оценка пользователя; пара (portfolio, user) уникальна
type PortfolioRating struct {
	BaseModel
	PortfolioID string `gorm:"type:uuid;not null;uniqueIndex:idx_portfolio_rating_user" json:"portfolioId"`
	UserID      string `gorm:"type:uuid;not null;uniqueIndex:idx_portfolio_rating_user" json:"userId"`
	User        *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Rating      int    `gorm:"not null;check:chk_portfolio_rating_range,rating >= 1 AND rating <= 5" json:"rating"`
	Comment     string `gorm:"type:text;not null" json:"comment"`
}
