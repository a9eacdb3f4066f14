package store

import (
	"context"
	"errors"
	"time"

	"procurement-transparency/internal/models"
	"procurement-transparency/internal/stats"

	"gorm.io/gorm/clause"
)

var statisticsColumns = []string{
	"total_reviews",
	"work_completed_percentage",
	"average_quality_rating",
	"reviews_with_images",
	"verified_reviews",
	"progress_updates",
	"quality_issues",
	"completion_verifications",
	"delay_reports",
	"fraud_alerts",
	"last_calculated",
}

func (s *Store) GetStatistics(ctx context.Context, projectID string) (*models.ProjectStatistics, error) {
	var st models.ProjectStatistics
	if err := s.db.WithContext(ctx).Where("project_id = ?", projectID).First(&st).Error; err != nil {
		return nil, notFound(err)
	}
	return &st, nil
}

// RecalculateStatistics rebuilds the statistics row of a project from its
// full review set. When the stored row already matches, nothing is written.
// Callers that need to be serialized against concurrent review writers run
// it inside a transaction holding LockProject.
func (s *Store) RecalculateStatistics(ctx context.Context, projectID string) (*models.ProjectStatistics, error) {
	var reviews []models.CitizenReview
	if err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Find(&reviews).Error; err != nil {
		return nil, err
	}
	fresh := stats.Compute(projectID, reviews)

	current, err := s.GetStatistics(ctx, projectID)
	switch {
	case err == nil:
		if stats.Equal(*current, fresh) {
			return current, nil
		}
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	fresh.LastCalculated = time.Now().UTC()
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}},
			DoUpdates: clause.AssignmentColumns(statisticsColumns),
		}).
		Create(&fresh).Error
	if err != nil {
		return nil, err
	}
	return &fresh, nil
}
