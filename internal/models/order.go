package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order связывает Service с дизайнером
type Order struct {
	BaseModel
	ServiceID     string          `gorm:"type:uuid;not null;uniqueIndex" json:"serviceId"`
	Service       *Service        `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	ClientID      string          `gorm:"type:uuid;not null;index" json:"clientId"`
	Client        *User           `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	DesignerID    string          `gorm:"type:uuid;not null;index" json:"designerId"`
	Designer      *User           `gorm:"foreignKey:DesignerID" json:"designer,omitempty"`
	Price         decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	Status        OrderStatus     `gorm:"type:varchar(32);not null;index" json:"status"`
	IsPaid        bool            `gorm:"not null;default:false" json:"isPaid"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
	RevisionCount int             `gorm:"not null;default:0" json:"revisionCount"`
	MaxRevisions  int             `gorm:"not null;default:4" json:"maxRevisions"`
}
