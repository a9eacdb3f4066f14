// Package testutil provides database fixtures for package tests.
package testutil

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"procurement-transparency/internal/config"
	"procurement-transparency/internal/database"
	"procurement-transparency/internal/logging"
	"procurement-transparency/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NewDB opens a migrated SQLite database in a per-test temp directory.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := &config.Config{
		DBDriver: "sqlite",
		DBDSN:    filepath.Join(t.TempDir(), "test.db"),
		LogLevel: "error",
	}
	db, err := database.Open(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func MustJSON(t testing.TB, v interface{}) datatypes.JSON {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return datatypes.JSON(b)
}

// ProjectFixture describes a project row to seed. Plan is stored verbatim
// so tests can plant malformed documents.
type ProjectFixture struct {
	ID         string
	Ministry   string
	FiscalYear string
	Status     models.ProjectStatus
	Progress   int
	Plan       string
	Location   string
	CreatedAt  time.Time
}

func SeedProject(t testing.TB, db *gorm.DB, f ProjectFixture) *models.Project {
	t.Helper()

	if f.FiscalYear == "" {
		f.FiscalYear = "2081/82"
	}
	if f.Status == "" {
		f.Status = models.StatusInProgress
	}
	if f.Plan == "" {
		f.Plan = `{"details_of_work": "Road upgrade", "contract_amount": 1000000}`
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}

	p := &models.Project{
		ID:                 f.ID,
		FiscalYear:         f.FiscalYear,
		Ministry:           f.Ministry,
		BudgetSubtitle:     "365-0-001",
		ProcurementPlan:    datatypes.JSON(f.Plan),
		Status:             f.Status,
		ProgressPercentage: f.Progress,
		CreatedAt:          f.CreatedAt,
	}
	if f.Location != "" {
		p.Location = datatypes.JSON(f.Location)
	}
	if err := db.WithContext(context.Background()).Create(p).Error; err != nil {
		t.Fatalf("seed project %s: %v", f.ID, err)
	}
	return p
}

func SeedMinistry(t testing.TB, db *gorm.DB, name string) {
	t.Helper()
	if err := db.Create(&models.Ministry{Name: name}).Error; err != nil {
		t.Fatalf("seed ministry %s: %v", name, err)
	}
}
