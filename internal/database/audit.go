package database

import (
	"context"
	"log/slog"

	"procurement-transparency/internal/models"

	"gorm.io/gorm"
)

// CreateAuditLog writes a journal entry. Failures are logged and swallowed:
// the audited action has already happened.
func CreateAuditLog(ctx context.Context, db *gorm.DB, userID *uint, entity, entityID, action, details string) {
	if db == nil {
		return
	}
	record := models.AuditLog{
		UserID:   userID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Details:  details,
	}
	if err := db.WithContext(ctx).Create(&record).Error; err != nil {
		slog.WarnContext(ctx, "audit log write failed",
			"entity", entity, "entity_id", entityID, "action", action, "error", err)
	}
}
