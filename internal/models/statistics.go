package models

import "time"

// ProjectStatistics is derived from the project's review set and rewritten
// in full on every recompute.
type ProjectStatistics struct {
	ID        uint   `gorm:"primaryKey"`
	ProjectID string `gorm:"size:64;uniqueIndex;not null"`

	TotalReviews            int      `gorm:"not null"`
	WorkCompletedPercentage float64  `gorm:"not null"`
	AverageQualityRating    *float64 // nil when no review carries a rating
	ReviewsWithImages       int      `gorm:"not null"`
	VerifiedReviews         int      `gorm:"not null"`

	ProgressUpdates         int `gorm:"not null"`
	QualityIssues           int `gorm:"not null"`
	CompletionVerifications int `gorm:"not null"`
	DelayReports            int `gorm:"not null"`
	FraudAlerts             int `gorm:"not null"`

	LastCalculated time.Time
}

func (ProjectStatistics) TableName() string { return "project_statistics" }

// TypeCount returns the bucket for a canonical review type.
func (s *ProjectStatistics) TypeCount(t ReviewType) int {
	switch t {
	case ReviewProgressUpdate:
		return s.ProgressUpdates
	case ReviewQualityIssue:
		return s.QualityIssues
	case ReviewCompletionVerification:
		return s.CompletionVerifications
	case ReviewDelayReport:
		return s.DelayReports
	case ReviewFraudAlert:
		return s.FraudAlerts
	}
	return 0
}

// Count increments the bucket for t; non-canonical types are ignored.
func (s *ProjectStatistics) Count(t ReviewType) {
	switch t {
	case ReviewProgressUpdate:
		s.ProgressUpdates++
	case ReviewQualityIssue:
		s.QualityIssues++
	case ReviewCompletionVerification:
		s.CompletionVerifications++
	case ReviewDelayReport:
		s.DelayReports++
	case ReviewFraudAlert:
		s.FraudAlerts++
	}
}
