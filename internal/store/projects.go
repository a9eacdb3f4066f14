package store

import (
	"context"
	"time"

	"procurement-transparency/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 100
)

// ProjectQuery is a set of optional project filters combined with AND.
// Zero values mean "no filter".
type ProjectQuery struct {
	Ministry   string // case-insensitive substring
	Status     string
	FiscalYear string
	MinAmount  *float64 // contract_amount >= MinAmount
	MaxAmount  *float64 // contract_amount <= MaxAmount
	Search     string   // ministry, details of work or contractor name

	Limit  int
	Offset int
}

// Page returns the effective limit and offset.
func (q ProjectQuery) Page() (limit, offset int) {
	limit, offset = q.Limit, q.Offset
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ProjectRow is a project annotated with its cached review count.
type ProjectRow struct {
	ID                 string
	FiscalYear         string
	Ministry           string
	BudgetSubtitle     string
	ProcurementPlan    datatypes.JSON
	Signatures         datatypes.JSON
	Status             models.ProjectStatus
	ProgressPercentage int
	Location           datatypes.JSON
	CreatedAt          time.Time
	UpdatedAt          time.Time

	ReviewCount int
}

func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// LockProject takes a row lock on the project for the rest of the
// transaction. Writers that touch a project's reviews go through it, so
// they are serialized per project.
func (s *Store) LockProject(ctx context.Context, id string) error {
	var p models.Project
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", id).
		First(&p).Error
	return notFound(err)
}

func (s *Store) SearchProjects(ctx context.Context, q ProjectQuery) ([]ProjectRow, error) {
	d := s.dialect()
	plan := "p.procurement_plan"

	query := s.db.WithContext(ctx).
		Table("projects AS p").
		Select("p.*, COALESCE(ps.total_reviews, 0) AS review_count").
		Joins("LEFT JOIN project_statistics ps ON ps.project_id = p.id")

	if q.Ministry != "" {
		query = query.Where("LOWER(p.ministry) LIKE ? ESCAPE '!'", containsPattern(q.Ministry))
	}
	if q.Status != "" {
		query = query.Where("p.status = ?", q.Status)
	}
	if q.FiscalYear != "" {
		query = query.Where("p.fiscal_year = ?", q.FiscalYear)
	}
	if q.MinAmount != nil {
		query = query.Where(jsonNumber(d, plan, models.PlanContractAmount)+" >= ?", *q.MinAmount)
	}
	if q.MaxAmount != nil {
		query = query.Where(jsonNumber(d, plan, models.PlanContractAmount)+" <= ?", *q.MaxAmount)
	}
	if q.Search != "" {
		pattern := containsPattern(q.Search)
		query = query.Where(
			"(LOWER(p.ministry) LIKE ? ESCAPE '!' OR LOWER("+jsonText(d, plan, models.PlanDetailsOfWork)+") LIKE ? ESCAPE '!' OR LOWER("+jsonText(d, plan, models.PlanContractorName)+") LIKE ? ESCAPE '!')",
			pattern, pattern, pattern,
		)
	}

	limit, offset := q.Page()

	var rows []ProjectRow
	err := query.
		Order("p.created_at DESC").
		Order("p.id ASC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

var projectImportColumns = []string{
	"fiscal_year",
	"ministry",
	"budget_subtitle",
	"procurement_plan",
	"signatures",
	"status",
	"progress_percentage",
	"location",
	"updated_at",
}

// UpsertProject inserts the project or overwrites every imported field of
// an existing one. CreatedAt of an existing row is preserved.
func (s *Store) UpsertProject(ctx context.Context, p *models.Project) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(projectImportColumns),
		}).
		Create(p).Error
}

// UpdateProgress writes status and/or progress of a project.
func (s *Store) UpdateProgress(ctx context.Context, id string, status *models.ProjectStatus, progress *int) error {
	updates := map[string]interface{}{}
	if status != nil {
		updates["status"] = *status
	}
	if progress != nil {
		updates["progress_percentage"] = *progress
	}
	if len(updates) == 0 {
		return nil
	}

	res := s.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListProjectIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Project{}).Order("id").Pluck("id", &ids).Error
	return ids, err
}
