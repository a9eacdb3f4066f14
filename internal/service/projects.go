package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"procurement-transparency/internal/cache"
	"procurement-transparency/internal/models"
	"procurement-transparency/internal/store"
)

type ProjectService struct {
	Deps
}

func NewProjectService(d Deps) *ProjectService {
	return &ProjectService{Deps: d.withDefaults()}
}

// ProjectFilter is the optional filter set of ListProjects.
type ProjectFilter struct {
	Ministry   string
	Status     string
	FiscalYear string
	MinAmount  *float64
	MaxAmount  *float64
	Search     string
	Limit      int
	Offset     int
}

func (f ProjectFilter) validate() error {
	if f.Status != "" && !models.ProjectStatus(f.Status).Valid() {
		return invalid("status", "oneof", "")
	}
	if f.MinAmount != nil && !finite(*f.MinAmount) {
		return invalid("min_amount", "number", "")
	}
	if f.MaxAmount != nil && !finite(*f.MaxAmount) {
		return invalid("max_amount", "number", "")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (s *ProjectService) ListProjects(ctx context.Context, f ProjectFilter) ([]ProjectListItem, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	rows, err := s.Store.SearchProjects(ctx, store.ProjectQuery{
		Ministry:   f.Ministry,
		Status:     f.Status,
		FiscalYear: f.FiscalYear,
		MinAmount:  f.MinAmount,
		MaxAmount:  f.MaxAmount,
		Search:     f.Search,
		Limit:      f.Limit,
		Offset:     f.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("search projects: %w", err)
	}

	out := make([]ProjectListItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, newProjectListItem(r))
	}
	return out, nil
}

// GetProject returns the project with its reviews, most recent first.
func (s *ProjectService) GetProject(ctx context.Context, id string) (*ProjectDetail, error) {
	p, err := s.Store.GetProject(ctx, id)
	if err != nil {
		return nil, projectErr(err)
	}
	reviews, err := s.Store.ListReviews(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	detail := newProjectDetail(p, reviews)
	return &detail, nil
}

func (s *ProjectService) Progress(ctx context.Context, id string) (*ProgressView, error) {
	p, err := s.Store.GetProject(ctx, id)
	if err != nil {
		return nil, projectErr(err)
	}
	n, err := s.Store.CountProjectReviews(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}
	v := newProgressView(p, int(n))
	return &v, nil
}

// ListMinistries returns ministry names in alphabetical order.
func (s *ProjectService) ListMinistries(ctx context.Context) ([]string, error) {
	return cached(ctx, s.Deps, cache.KeyMinistries, func() ([]string, error) {
		names, err := s.Store.ListMinistryNames(ctx)
		if err != nil {
			return nil, fmt.Errorf("list ministries: %w", err)
		}
		if names == nil {
			names = []string{}
		}
		return names, nil
	})
}

func (s *ProjectService) FilterOptions(ctx context.Context) (*FilterOptionsView, error) {
	ministries, err := s.ListMinistries(ctx)
	if err != nil {
		return nil, err
	}
	years, err := s.Store.FiscalYears(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fiscal years: %w", err)
	}
	if years == nil {
		years = []string{}
	}

	v := &FilterOptionsView{Ministries: ministries, FiscalYears: years}
	for _, st := range models.ProjectStatuses {
		v.Statuses = append(v.Statuses, string(st))
	}
	for _, m := range models.ProcurementMethods {
		v.ProcurementMethods = append(v.ProcurementMethods, string(m))
	}
	for _, t := range models.ReviewTypes {
		v.ReviewTypes = append(v.ReviewTypes, string(t))
	}
	return v, nil
}

type UpdateProgressInput struct {
	Status             *string `json:"status" validate:"omitempty,project_status"`
	ProgressPercentage *int    `json:"progress_percentage" validate:"omitempty,min=0,max=100"`
}

// UpdateProgress changes status and/or progress of a project on behalf of
// an official.
func (s *ProjectService) UpdateProgress(ctx context.Context, id string, in UpdateProgressInput, actorID *uint) (*ProjectView, error) {
	if in.Status == nil && in.ProgressPercentage == nil {
		return nil, invalid("status", "required_without", "progress_percentage")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	var status *models.ProjectStatus
	if in.Status != nil {
		st := models.ProjectStatus(*in.Status)
		status = &st
	}

	var updated *models.Project
	err := s.Store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.LockProject(ctx, id); err != nil {
			return projectErr(err)
		}
		if err := tx.UpdateProgress(ctx, id, status, in.ProgressPercentage); err != nil {
			return projectErr(err)
		}
		p, err := tx.GetProject(ctx, id)
		if err != nil {
			return projectErr(err)
		}
		updated = p
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update progress: %w", err)
	}

	s.invalidate(ctx)
	s.audit(ctx, actorID, "project", id, "progress_update",
		fmt.Sprintf("status=%s progress=%d", updated.Status, updated.ProgressPercentage))

	v := newProjectView(updated)
	return &v, nil
}
