package store

import (
	"context"

	"procurement-transparency/internal/models"
)

// Overview holds platform-wide aggregates over projects and reviews.
type Overview struct {
	TotalProjects      int64
	TotalContractValue float64
	AverageProgress    float64
	StatusBreakdown    map[string]int64
	TotalReviews       int64
	MinistriesCount    int64
	FiscalYears        []string
}

func (s *Store) Overview(ctx context.Context) (*Overview, error) {
	db := s.db.WithContext(ctx)
	out := &Overview{StatusBreakdown: map[string]int64{}}

	if err := db.Model(&models.Project{}).Count(&out.TotalProjects).Error; err != nil {
		return nil, err
	}

	var byStatus []struct {
		Status string
		Count  int64
	}
	if err := db.Model(&models.Project{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		out.StatusBreakdown[row.Status] = row.Count
	}

	// non-numeric amounts extract as NULL and are skipped by SUM
	var total struct{ Total *float64 }
	amount := jsonNumber(s.dialect(), "procurement_plan", models.PlanContractAmount)
	if err := db.Model(&models.Project{}).
		Select("SUM(" + amount + ") AS total").
		Scan(&total).Error; err != nil {
		return nil, err
	}
	if total.Total != nil {
		out.TotalContractValue = *total.Total
	}

	var avg struct{ Avg *float64 }
	if err := db.Model(&models.Project{}).
		Select("AVG(progress_percentage) AS avg").
		Scan(&avg).Error; err != nil {
		return nil, err
	}
	if avg.Avg != nil {
		out.AverageProgress = *avg.Avg
	}

	var err error
	if out.TotalReviews, err = s.CountReviews(ctx); err != nil {
		return nil, err
	}
	if out.MinistriesCount, err = s.CountMinistries(ctx); err != nil {
		return nil, err
	}
	if out.FiscalYears, err = s.FiscalYears(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// FiscalYears lists distinct fiscal years, newest first.
func (s *Store) FiscalYears(ctx context.Context) ([]string, error) {
	var years []string
	err := s.db.WithContext(ctx).
		Model(&models.Project{}).
		Distinct("fiscal_year").
		Order("fiscal_year DESC").
		Pluck("fiscal_year", &years).Error
	if err != nil {
		return nil, err
	}
	return years, nil
}
