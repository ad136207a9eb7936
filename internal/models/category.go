package models

import (
	"strings"

	"gorm.io/gorm"
)

type Category struct {
	BaseModel
	Name string `gorm:"size:100;not null" json:"name"`
	// NameKey - нормализованное имя для уникальности без учёта регистра
	NameKey string `gorm:"size:100;uniqueIndex;not null" json:"-"`
}

// CategoryKey нормализует имя категории
func CategoryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (c *Category) BeforeSave(tx *gorm.DB) error {
	c.Name = strings.TrimSpace(c.Name)
	c.NameKey = CategoryKey(c.Name)
	return nil
}
