package models

import "time"

// Deliverable - результат работы дизайнера по заказу
type Deliverable struct {
	BaseModel
	OrderID       string            `gorm:"type:uuid;not null;index" json:"orderId"`
	Order         *Order            `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Title         string            `gorm:"size:200;not null" json:"title"`
	Description   string            `gorm:"type:text" json:"description"`
	FileURL       string            `gorm:"size:1024;not null" json:"fileUrl"`
	FileName      string            `gorm:"size:255" json:"fileName"`
	ContentType   string            `gorm:"size:128" json:"contentType"`
	FileSize      int64             `json:"fileSize"`
	StorageKey    string            `gorm:"size:512;not null" json:"-"`
	DesignerID    string            `gorm:"type:uuid;not null;index" json:"designerId"`
	Designer      *User             `gorm:"foreignKey:DesignerID" json:"designer,omitempty"`
	Status        DeliverableStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	Feedback      *string           `gorm:"type:text" json:"feedback"`
	SubmittedAt   time.Time         `gorm:"not null" json:"submittedAt"`
	ReviewedAt    *time.Time        `json:"reviewedAt"`
	DownloadCount int64             `gorm:"not null;default:0" json:"downloadCount"`
}
