package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"procurement-transparency/internal/models"
	"procurement-transparency/internal/store"

	"gorm.io/datatypes"
)

// ImportFile is the bulk-load format: either a bare JSON array of projects
// or an object with ministries and projects.
type ImportFile struct {
	Ministries []MinistryImport `json:"ministries" validate:"dive"`
	Projects   []ProjectImport  `json:"projects" validate:"dive"`
}

type MinistryImport struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description"`
	ContactInfo json.RawMessage `json:"contact_info"`
}

type ProjectImport struct {
	ID                 string          `json:"id" validate:"required,max=64"`
	FiscalYear         string          `json:"fiscal_year" validate:"required,max=16"`
	Ministry           string          `json:"ministry" validate:"required,max=255"`
	BudgetSubtitle     string          `json:"budget_subtitle" validate:"max=64"`
	ProcurementPlan    json.RawMessage `json:"procurement_plan"`
	Signatures         json.RawMessage `json:"signatures"`
	Status             string          `json:"status" validate:"required,project_status"`
	ProgressPercentage int             `json:"progress_percentage" validate:"min=0,max=100"`
	Location           json.RawMessage `json:"location"`
	CitizenReports     []ReviewImport  `json:"citizen_reports" validate:"dive"`
}

type ReviewImport struct {
	ReviewID        string          `json:"review_id" validate:"max=64"`
	ReporterName    *string         `json:"reporter_name"`
	ReporterContact *string         `json:"reporter_contact"`
	ReviewType      string          `json:"review_type"`
	ReviewText      string          `json:"review_text"`
	ReportText      string          `json:"report_text"`
	WorkCompleted   bool            `json:"work_completed"`
	QualityRating   *int            `json:"quality_rating" validate:"omitempty,min=1,max=5"`
	Geolocation     json.RawMessage `json:"geolocation"`
	PhotoURLs       []string        `json:"photo_urls"`
	PhotoURL        string          `json:"photo_url"`
	Verified        bool            `json:"verified"`
	Timestamp       string          `json:"timestamp"`
}

type ImportResult struct {
	Ministries int `json:"ministries"`
	Projects   int `json:"projects"`
	Reviews    int `json:"reviews"`
}

// ParseImportFile accepts both import layouts.
func ParseImportFile(data []byte) (*ImportFile, error) {
	trimmed := bytes.TrimSpace(data)
	var f ImportFile
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &f.Projects); err != nil {
			return nil, fmt.Errorf("decode projects: %w", err)
		}
		return &f, nil
	}
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return nil, fmt.Errorf("decode import file: %w", err)
	}
	return &f, nil
}

// Import loads ministries, projects and their reviews in one transaction.
// Existing projects and reviews are overwritten by id; statistics of every
// imported project are rebuilt.
func (s *ProjectService) Import(ctx context.Context, f *ImportFile, actorID *uint) (*ImportResult, error) {
	if err := validateStruct(f); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	res := &ImportResult{}

	err := s.Store.WithTx(ctx, func(tx *store.Store) error {
		ministries := map[string]bool{}
		for _, m := range f.Ministries {
			contact, err := document(m.ContactInfo)
			if err != nil {
				return fmt.Errorf("ministry %s: contact_info: %w", m.Name, err)
			}
			if err := tx.EnsureMinistry(ctx, &models.Ministry{
				Name:        m.Name,
				Description: m.Description,
				ContactInfo: contact,
			}); err != nil {
				return fmt.Errorf("ministry %s: %w", m.Name, err)
			}
			ministries[m.Name] = true
		}

		for pi, rec := range f.Projects {
			if !ministries[rec.Ministry] {
				if err := tx.EnsureMinistry(ctx, &models.Ministry{Name: rec.Ministry}); err != nil {
					return fmt.Errorf("ministry %s: %w", rec.Ministry, err)
				}
				ministries[rec.Ministry] = true
			}

			p, err := rec.toModel()
			if err != nil {
				return err
			}
			if err := tx.UpsertProject(ctx, p); err != nil {
				return fmt.Errorf("project %s: %w", rec.ID, err)
			}
			if err := tx.LockProject(ctx, rec.ID); err != nil {
				return fmt.Errorf("project %s: %w", rec.ID, err)
			}

			for i, r := range rec.CitizenReports {
				review, err := r.toModel(rec.ID, i, now)
				if err != nil {
					return err
				}
				// чужой отзыв перезаписал бы статистику другого проекта
				owner, err := tx.ReviewOwner(ctx, review.ReviewID)
				switch {
				case err == nil && owner != rec.ID:
					return invalid(fmt.Sprintf("projects[%d].citizen_reports[%d].review_id", pi, i), "unique", owner)
				case err != nil && !errors.Is(err, store.ErrNotFound):
					return fmt.Errorf("review %s: %w", review.ReviewID, err)
				}
				if err := tx.UpsertReview(ctx, review); err != nil {
					return fmt.Errorf("review %s: %w", review.ReviewID, err)
				}
				res.Reviews++
			}

			if _, err := tx.RecalculateStatistics(ctx, rec.ID); err != nil {
				return fmt.Errorf("statistics %s: %w", rec.ID, err)
			}
			res.Projects++
		}
		res.Ministries = len(ministries)
		return nil
	})
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return nil, ve
		}
		return nil, fmt.Errorf("import: %w", err)
	}

	s.invalidate(ctx)
	s.audit(ctx, actorID, "project", "*", "import",
		fmt.Sprintf("projects=%d reviews=%d ministries=%d", res.Projects, res.Reviews, res.Ministries))
	return res, nil
}

func (rec ProjectImport) toModel() (*models.Project, error) {
	plan, err := document(rec.ProcurementPlan)
	if err != nil {
		return nil, fmt.Errorf("project %s: procurement_plan: %w", rec.ID, err)
	}
	signatures, err := document(rec.Signatures)
	if err != nil {
		return nil, fmt.Errorf("project %s: signatures: %w", rec.ID, err)
	}
	location, err := document(rec.Location)
	if err != nil {
		return nil, fmt.Errorf("project %s: location: %w", rec.ID, err)
	}
	return &models.Project{
		ID:                 rec.ID,
		FiscalYear:         rec.FiscalYear,
		Ministry:           rec.Ministry,
		BudgetSubtitle:     rec.BudgetSubtitle,
		ProcurementPlan:    plan,
		Signatures:         signatures,
		Status:             models.ProjectStatus(rec.Status),
		ProgressPercentage: rec.ProgressPercentage,
		Location:           location,
	}, nil
}

// toModel fills the defaults of imported reviews: a positional review id,
// the Progress Update type and the import time.
func (r ReviewImport) toModel(projectID string, index int, now time.Time) (*models.CitizenReview, error) {
	reviewID := r.ReviewID
	if reviewID == "" {
		reviewID = fmt.Sprintf("REV-%s-%03d", projectID, index+1)
	}
	reviewType := strings.TrimSpace(r.ReviewType)
	if reviewType == "" {
		reviewType = string(models.ReviewProgressUpdate)
	} else if t, ok := models.ParseReviewType(reviewType); ok {
		reviewType = string(t)
	}
	text := r.ReviewText
	if text == "" {
		text = r.ReportText
	}

	geo, err := document(r.Geolocation)
	if err != nil {
		return nil, fmt.Errorf("review %s: geolocation: %w", reviewID, err)
	}
	photos := r.PhotoURLs
	if len(photos) == 0 && r.PhotoURL != "" {
		photos = []string{r.PhotoURL}
	}
	if photos == nil {
		photos = []string{}
	}
	photoDoc, err := models.NewDocument(photos)
	if err != nil {
		return nil, err
	}

	return &models.CitizenReview{
		ReviewID:        reviewID,
		ProjectID:       projectID,
		ReporterName:    r.ReporterName,
		ReporterContact: r.ReporterContact,
		ReviewType:      reviewType,
		ReviewText:      text,
		WorkCompleted:   r.WorkCompleted,
		QualityRating:   r.QualityRating,
		Geolocation:     geo,
		PhotoURLs:       photoDoc,
		Verified:        r.Verified,
		CreatedAt:       parseTimestamp(r.Timestamp, now),
	}, nil
}

var errNotJSON = errors.New("not valid JSON")

// document keeps a raw JSON value as stored; absent becomes null.
func document(raw json.RawMessage) (datatypes.JSON, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return datatypes.JSON("null"), nil
	}
	if !json.Valid(trimmed) {
		return nil, errNotJSON
	}
	return datatypes.JSON(trimmed), nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp reads ISO-8601 timestamps; zone-less values are UTC and
// unparseable ones fall back to now.
func parseTimestamp(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return now
}
