package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Суммы в JSON отдаются числами, а не строками
	decimal.MarshalJSONWithoutQuotes = true
}

// BaseModel - общие поля всех сущностей.
// ID генерируется на стороне приложения, чтобы не зависеть от расширений БД.
type BaseModel struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// All возвращает все модели для AutoMigrate
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Service{},
		&Order{},
		&Deliverable{},
		&Portfolio{},
		&PortfolioRating{},
		&PaymentTransaction{},
	}
}
