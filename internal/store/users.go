package store

import (
	"context"

	"procurement-transparency/internal/models"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetUserByUsername matches usernames case-insensitively.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("LOWER(username) = LOWER(?)", username).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("LOWER(username) = LOWER(?)", username).
		Count(&n).Error
	return n > 0, err
}

func (s *Store) CountUsersByRole(ctx context.Context, role models.UserRole) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", role).Count(&n).Error
	return n, err
}
