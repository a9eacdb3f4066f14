package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"procurement-transparency/internal/models"
)

const sampleImport = `{
  "ministries": [
    {"name": "Ministry of Physical Infrastructure", "description": "Roads and bridges", "contact_info": {"phone": "01-4211"}}
  ],
  "projects": [
    {
      "id": "MOPIT-001",
      "fiscal_year": "2081/82",
      "ministry": "Ministry of Physical Infrastructure",
      "budget_subtitle": "336-0-101",
      "procurement_plan": {"details_of_work": "Bridge over Bagmati", "contract_amount": 25000000, "procurement_method": "Works-NCB"},
      "signatures": {"prepared_by": "Engineer"},
      "status": "In Progress",
      "progress_percentage": 45,
      "location": {"lat": 27.7, "lng": 85.3, "address": "Kathmandu"},
      "citizen_reports": [
        {"review_id": "REV-A", "review_type": "Quality Issue", "review_text": "Cracks in the deck", "quality_rating": 2, "work_completed": false, "timestamp": "2025-10-01T08:30:00"},
        {"report_text": "Piers are finished", "work_completed": true, "photo_url": "uploads/pier.jpg"}
      ]
    },
    {
      "id": "MOH-004",
      "fiscal_year": "2080/81",
      "ministry": "Ministry of Health",
      "status": "Completed",
      "progress_percentage": 100
    }
  ]
}`

func TestParseImportFileLayouts(t *testing.T) {
	f, err := ParseImportFile([]byte(sampleImport))
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Ministries) != 1 || len(f.Projects) != 2 {
		t.Fatalf("object layout: %d ministries, %d projects", len(f.Ministries), len(f.Projects))
	}

	f, err = ParseImportFile([]byte(` [{"id": "X", "fiscal_year": "2081/82", "ministry": "M", "status": "Planning"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Projects) != 1 || f.Projects[0].ID != "X" {
		t.Fatalf("array layout: %+v", f.Projects)
	}

	if _, err := ParseImportFile([]byte(`{"projects": 5}`)); err == nil {
		t.Error("expected decode error")
	}
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	file, err := ParseImportFile([]byte(sampleImport))
	if err != nil {
		t.Fatal(err)
	}

	res, err := f.projects.Import(ctx, file, nil)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Ministries != 2 || res.Projects != 2 || res.Reviews != 2 {
		t.Errorf("result %+v", res)
	}

	names, _ := f.projects.ListMinistries(ctx)
	if len(names) != 2 || names[0] != "Ministry of Health" {
		t.Errorf("ministries %v", names)
	}

	list, err := f.reviews.ListProjectReviews(ctx, "MOPIT-001")
	if err != nil {
		t.Fatal(err)
	}
	if list.ProjectName != "Bridge over Bagmati" || list.TotalReviews != 2 {
		t.Fatalf("reviews %+v", list)
	}
	byID := map[string]ReviewView{}
	for _, r := range list.Reviews {
		byID[r.ReviewID] = r
	}

	a, ok := byID["REV-A"]
	if !ok {
		t.Fatalf("explicit review id not kept: %v", byID)
	}
	if a.Timestamp != "2025-10-01T08:30:00Z" {
		t.Errorf("zone-less timestamp must be read as UTC, got %s", a.Timestamp)
	}

	def, ok := byID["REV-MOPIT-001-002"]
	if !ok {
		t.Fatalf("positional review id missing: %v", byID)
	}
	if def.ReviewType != string(models.ReviewProgressUpdate) || def.ReviewText != "Piers are finished" {
		t.Errorf("review defaults %+v", def)
	}
	if len(def.PhotoURLs) != 1 || def.PhotoURLs[0] != "uploads/pier.jpg" {
		t.Errorf("single photo_url not folded into photo_urls: %v", def.PhotoURLs)
	}

	st, err := f.deps.Store.GetStatistics(ctx, "MOPIT-001")
	if err != nil {
		t.Fatalf("statistics not rebuilt: %v", err)
	}
	if st.TotalReviews != 2 || st.QualityIssues != 1 || st.ProgressUpdates != 1 || st.ReviewsWithImages != 1 {
		t.Errorf("statistics %+v", st)
	}

	other, err := f.projects.GetProject(ctx, "MOH-004")
	if err != nil {
		t.Fatal(err)
	}
	if other.Signatures != nil || other.Location != nil || len(other.CitizenReports) != 0 {
		t.Errorf("project without documents %+v", other)
	}
}

func TestImportOverwrites(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	file, _ := ParseImportFile([]byte(sampleImport))
	if _, err := f.projects.Import(ctx, file, nil); err != nil {
		t.Fatal(err)
	}
	before, _ := f.deps.Store.GetProject(ctx, "MOPIT-001")

	file.Projects[0].ProgressPercentage = 60
	file.Projects[0].CitizenReports[0].Verified = true
	if _, err := f.projects.Import(ctx, file, nil); err != nil {
		t.Fatal(err)
	}

	after, _ := f.deps.Store.GetProject(ctx, "MOPIT-001")
	if after.ProgressPercentage != 60 {
		t.Errorf("progress = %d, want 60", after.ProgressPercentage)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Errorf("created_at changed on re-import: %v -> %v", before.CreatedAt, after.CreatedAt)
	}

	n, _ := f.deps.Store.CountProjectReviews(ctx, "MOPIT-001")
	if n != 2 {
		t.Errorf("re-import duplicated reviews: %d", n)
	}
	st, _ := f.deps.Store.GetStatistics(ctx, "MOPIT-001")
	if st.VerifiedReviews != 1 {
		t.Errorf("verified_reviews = %d, want 1", st.VerifiedReviews)
	}
}

func TestImportRejectsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name  string
		data  string
		field string
	}{
		{"progress above 100", `[{"id": "X", "fiscal_year": "2081/82", "ministry": "M", "status": "Planning", "progress_percentage": 120}]`, "projects[0].progress_percentage"},
		{"unknown status", `[{"id": "X", "fiscal_year": "2081/82", "ministry": "M", "status": "Paused"}]`, "projects[0].status"},
		{"missing id", `[{"fiscal_year": "2081/82", "ministry": "M", "status": "Planning"}]`, "projects[0].id"},
		{"rating out of range", `[{"id": "X", "fiscal_year": "2081/82", "ministry": "M", "status": "Planning", "citizen_reports": [{"quality_rating": 9}]}]`, "projects[0].citizen_reports[0].quality_rating"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := ParseImportFile([]byte(tt.data))
			if err != nil {
				t.Fatal(err)
			}
			_, err = f.projects.Import(ctx, file, nil)
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Fatalf("expected validation error on %s, got %v", tt.field, err)
			}
		})
	}

	if _, err := f.deps.Store.GetProject(ctx, "X"); err == nil {
		t.Error("rejected import must not write projects")
	}
}

func TestImportRollsBackOnBadDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	file := &ImportFile{Projects: []ProjectImport{
		{ID: "OK-1", FiscalYear: "2081/82", Ministry: "M", Status: "Planning"},
		{ID: "BAD-1", FiscalYear: "2081/82", Ministry: "M", Status: "Planning", Location: []byte(`{"lat": `)},
	}}
	if _, err := f.projects.Import(ctx, file, nil); err == nil {
		t.Fatal("expected error for malformed document")
	}
	if _, err := f.deps.Store.GetProject(ctx, "OK-1"); err == nil {
		t.Error("import must be all-or-nothing")
	}
}

func TestImportRejectsReviewOfAnotherProject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	file, _ := ParseImportFile([]byte(sampleImport))
	if _, err := f.projects.Import(ctx, file, nil); err != nil {
		t.Fatal(err)
	}
	before, err := f.deps.Store.GetStatistics(ctx, "MOPIT-001")
	if err != nil {
		t.Fatal(err)
	}

	// REV-A уже принадлежит MOPIT-001
	other, err := ParseImportFile([]byte(`[{"id": "MOPIT-002", "fiscal_year": "2081/82", "ministry": "Ministry of Physical Infrastructure", "status": "Planning",
	  "citizen_reports": [{"review_id": "REV-A", "review_type": "Fraud Alert", "quality_rating": 5, "work_completed": true}]}]`))
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.projects.Import(ctx, other, nil)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "projects[0].citizen_reports[0].review_id" || ve.Param != "MOPIT-001" {
		t.Fatalf("expected review_id conflict, got %v", err)
	}

	r, err := f.deps.Store.GetReview(ctx, "MOPIT-001", "REV-A")
	if err != nil {
		t.Fatalf("original review lost: %v", err)
	}
	if r.ReviewType != string(models.ReviewQualityIssue) || r.WorkCompleted {
		t.Errorf("original review rewritten: %+v", r)
	}

	after, _ := f.deps.Store.GetStatistics(ctx, "MOPIT-001")
	if after.QualityIssues != before.QualityIssues || after.FraudAlerts != 0 || after.TotalReviews != 2 {
		t.Errorf("statistics of owner changed: %+v -> %+v", before, after)
	}
	if _, err := f.deps.Store.GetProject(ctx, "MOPIT-002"); err == nil {
		t.Error("rejected import must not write projects")
	}
}

func TestParseTimestamp(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-10-01T08:30:00Z", time.Date(2025, 10, 1, 8, 30, 0, 0, time.UTC)},
		{"2025-10-01T08:30:00+05:45", time.Date(2025, 10, 1, 2, 45, 0, 0, time.UTC)},
		{"2025-10-01T08:30:00.123456", time.Date(2025, 10, 1, 8, 30, 0, 123456000, time.UTC)},
		{"2025-10-01 08:30:00", time.Date(2025, 10, 1, 8, 30, 0, 0, time.UTC)},
		{"2025-10-01", time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)},
		{"", now},
		{"yesterday", now},
	}
	for _, tt := range tests {
		if got := parseTimestamp(tt.in, now); !got.Equal(tt.want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
