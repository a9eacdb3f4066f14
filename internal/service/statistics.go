package service

import (
	"context"
	"errors"
	"fmt"

	"procurement-transparency/internal/cache"
	"procurement-transparency/internal/models"
	"procurement-transparency/internal/store"
)

type StatisticsService struct {
	Deps
}

func NewStatisticsService(d Deps) *StatisticsService {
	return &StatisticsService{Deps: d.withDefaults()}
}

// ProjectStatistics returns the cached statistics of a project, computing
// them first if the project has none yet.
func (s *StatisticsService) ProjectStatistics(ctx context.Context, projectID string) (*StatisticsView, error) {
	st, err := s.snapshot(ctx, projectID)
	if err != nil {
		return nil, err
	}
	v := newStatisticsView(st)
	return &v, nil
}

// ReviewSummary is ProjectStatistics labelled with the project.
func (s *StatisticsService) ReviewSummary(ctx context.Context, projectID string) (*ReviewSummaryView, error) {
	p, err := s.Store.GetProject(ctx, projectID)
	if err != nil {
		return nil, projectErr(err)
	}
	st, err := s.snapshot(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &ReviewSummaryView{
		ProjectID:      p.ID,
		ProjectName:    projectName(p),
		StatisticsView: newStatisticsView(st),
	}, nil
}

func (s *StatisticsService) snapshot(ctx context.Context, projectID string) (*models.ProjectStatistics, error) {
	st, err := s.Store.GetStatistics(ctx, projectID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get statistics: %w", err)
	}
	return s.Recalculate(ctx, projectID)
}

// Recalculate rebuilds the statistics of one project under its row lock.
func (s *StatisticsService) Recalculate(ctx context.Context, projectID string) (*models.ProjectStatistics, error) {
	var st *models.ProjectStatistics
	err := s.Store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.LockProject(ctx, projectID); err != nil {
			return projectErr(err)
		}
		var err error
		st, err = tx.RecalculateStatistics(ctx, projectID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("recalculate statistics: %w", err)
	}
	return st, nil
}

// RecalculateAll rebuilds statistics for every project and returns how
// many were processed.
func (s *StatisticsService) RecalculateAll(ctx context.Context) (int, error) {
	ids, err := s.Store.ListProjectIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list projects: %w", err)
	}
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if _, err := s.Recalculate(ctx, id); err != nil {
			return i, err
		}
	}
	return len(ids), nil
}

// Overview returns platform-wide totals. Results are cached.
func (s *StatisticsService) Overview(ctx context.Context) (*OverviewView, error) {
	v, err := cached(ctx, s.Deps, cache.KeyOverview, func() (OverviewView, error) {
		o, err := s.Store.Overview(ctx)
		if err != nil {
			return OverviewView{}, fmt.Errorf("overview: %w", err)
		}
		return newOverviewView(o), nil
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}
