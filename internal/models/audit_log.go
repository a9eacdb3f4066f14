package models

import "time"

type AuditLog struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index"`

	UserID *uint // nil — действие из CLI / импорта

	Entity   string `gorm:"size:50;not null"` // "project", "review"
	EntityID string `gorm:"size:64;not null;index"`
	Action   string `gorm:"size:50;not null"` // "verify", "progress_update", "import"
	Details  string `gorm:"type:text"`
}
