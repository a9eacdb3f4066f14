package store

import (
	"context"
	"time"
)

// AuditEntry is an audit log row with the acting user's name, if any.
type AuditEntry struct {
	ID        uint
	CreatedAt time.Time
	UserID    *uint
	Username  *string
	Entity    string
	EntityID  string
	Action    string
	Details   string
}

// ListAuditLogs returns the most recent entries first.
func (s *Store) ListAuditLogs(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	var out []AuditEntry
	err := s.db.WithContext(ctx).
		Table("audit_logs AS a").
		Select("a.id, a.created_at, a.user_id, u.username, a.entity, a.entity_id, a.action, a.details").
		Joins("LEFT JOIN users AS u ON u.id = a.user_id").
		Order("a.created_at DESC, a.id DESC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}
