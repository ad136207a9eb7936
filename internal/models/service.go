package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const DefaultMaxRevisions = 4

// Service - заявка клиента на дизайн
type Service struct {
	BaseModel
	Title        string                      `gorm:"size:200;not null" json:"title"`
	Description  string                      `gorm:"type:text;not null" json:"description"`
	CategoryID   string                      `gorm:"type:uuid;not null;index" json:"categoryId"`
	Category     *Category                   `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Budget       decimal.Decimal             `gorm:"type:numeric(14,2);not null" json:"budget"`
	Deadline     time.Time                   `gorm:"not null;index" json:"deadline"`
	Attachments  datatypes.JSONSlice[string] `json:"attachments"`
	Status       ServiceStatus               `gorm:"type:varchar(32);not null;index" json:"status"`
	ClientID     string                      `gorm:"type:uuid;not null;index" json:"clientId"`
	Client       *User                       `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	DesignerID   *string                     `gorm:"type:uuid;index" json:"designerId,omitempty"`
	MaxRevisions int                         `gorm:"not null;default:4" json:"maxRevisions"`
}

// IsDeadlineAvailable вычисляется на каждое чтение и никогда не хранится
func (s *Service) IsDeadlineAvailable(now time.Time) bool {
	return s.Deadline.After(now)
}
