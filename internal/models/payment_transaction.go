package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentTransaction struct {
	BaseModel
	OrderID           string          `gorm:"type:uuid;not null;index" json:"orderId"`
	UserID            string          `gorm:"type:uuid;not null;index" json:"userId"`
	Provider          string          `gorm:"size:32;not null" json:"provider"`
	ProviderReference string          `gorm:"size:255;index" json:"providerReference"` // токен чекаута
	ProviderPaymentID *string         `gorm:"size:64;uniqueIndex" json:"providerPaymentId,omitempty"`
	Amount            decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Currency          string          `gorm:"size:8;not null" json:"currency"`
	Status            PaymentStatus   `gorm:"type:varchar(16);not null;index" json:"status"`
	ProviderResponse  datatypes.JSON  `json:"-"`
	PaidAt            *time.Time      `json:"paidAt,omitempty"`
}
