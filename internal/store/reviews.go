package store

import (
	"context"

	"procurement-transparency/internal/models"

	"gorm.io/gorm/clause"
)

func (s *Store) CreateReview(ctx context.Context, r *models.CitizenReview) error {
	return s.db.WithContext(ctx).Create(r).Error
}

// ListReviews returns a project's reviews, most recent first.
func (s *Store) ListReviews(ctx context.Context, projectID string) ([]models.CitizenReview, error) {
	var reviews []models.CitizenReview
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (s *Store) GetReview(ctx context.Context, projectID, reviewID string) (*models.CitizenReview, error) {
	var r models.CitizenReview
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND review_id = ?", projectID, reviewID).
		First(&r).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (s *Store) SetReviewVerified(ctx context.Context, projectID, reviewID string, verified bool) error {
	res := s.db.WithContext(ctx).
		Model(&models.CitizenReview{}).
		Where("project_id = ? AND review_id = ?", projectID, reviewID).
		Update("verified", verified)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReviewOwner returns the project a review id belongs to.
func (s *Store) ReviewOwner(ctx context.Context, reviewID string) (string, error) {
	var r models.CitizenReview
	err := s.db.WithContext(ctx).Select("project_id").Where("review_id = ?", reviewID).First(&r).Error
	if err != nil {
		return "", notFound(err)
	}
	return r.ProjectID, nil
}

var reviewImportColumns = []string{
	"reporter_name",
	"reporter_contact",
	"review_type",
	"review_text",
	"work_completed",
	"quality_rating",
	"geolocation",
	"photo_urls",
	"verified",
	"updated_at",
}

// UpsertReview inserts a review or overwrites the content of the one with
// the same external review id. Owner project and CreatedAt are kept.
func (s *Store) UpsertReview(ctx context.Context, r *models.CitizenReview) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "review_id"}},
			DoUpdates: clause.AssignmentColumns(reviewImportColumns),
		}).
		Create(r).Error
}

func (s *Store) CountReviews(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.CitizenReview{}).Count(&n).Error
	return n, err
}

func (s *Store) CountProjectReviews(ctx context.Context, projectID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.CitizenReview{}).Where("project_id = ?", projectID).Count(&n).Error
	return n, err
}
