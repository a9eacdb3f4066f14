package store

import (
	"context"

	"procurement-transparency/internal/models"

	"gorm.io/gorm/clause"
)

func (s *Store) ListMinistryNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&models.Ministry{}).Order("name").Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// EnsureMinistry creates the ministry by name if it does not exist yet.
func (s *Store) EnsureMinistry(ctx context.Context, m *models.Ministry) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(m).Error
}

func (s *Store) CountMinistries(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Ministry{}).Count(&n).Error
	return n, err
}
