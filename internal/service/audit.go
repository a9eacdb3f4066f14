package service

import (
	"context"
	"fmt"
)

type AuditEntryView struct {
	ID        uint    `json:"id"`
	Timestamp string  `json:"timestamp"`
	UserID    *uint   `json:"user_id"`
	Username  *string `json:"username"`
	Entity    string  `json:"entity"`
	EntityID  string  `json:"entity_id"`
	Action    string  `json:"action"`
	Details   string  `json:"details"`
}

type AuditService struct {
	Deps
}

func NewAuditService(d Deps) *AuditService {
	return &AuditService{Deps: d.withDefaults()}
}

// Recent returns the latest journal entries, newest first.
func (s *AuditService) Recent(ctx context.Context, limit int) ([]AuditEntryView, error) {
	rows, err := s.Store.ListAuditLogs(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	out := make([]AuditEntryView, 0, len(rows))
	for _, r := range rows {
		out = append(out, AuditEntryView{
			ID:        r.ID,
			Timestamp: formatTime(r.CreatedAt),
			UserID:    r.UserID,
			Username:  r.Username,
			Entity:    r.Entity,
			EntityID:  r.EntityID,
			Action:    r.Action,
			Details:   r.Details,
		})
	}
	return out, nil
}
