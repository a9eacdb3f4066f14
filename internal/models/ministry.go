package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Справочник министерств. Проекты ссылаются на министерство по имени.
type Ministry struct {
	ID          uint           `gorm:"primaryKey"`
	Name        string         `gorm:"size:255;uniqueIndex;not null"`
	Description string         `gorm:"type:text"`
	ContactInfo datatypes.JSON `gorm:"not null"` // {email, phone, address}

	CreatedAt time.Time
}

func (m *Ministry) BeforeSave(tx *gorm.DB) error {
	m.ContactInfo = orNull(m.ContactInfo)
	return nil
}
