package service

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	"procurement-transparency/internal/models"
	"procurement-transparency/internal/stats"
	"procurement-transparency/internal/store"

	"gorm.io/datatypes"
)

type ProjectView struct {
	ID                 string      `json:"id"`
	FiscalYear         string      `json:"fiscal_year"`
	Ministry           string      `json:"ministry"`
	BudgetSubtitle     string      `json:"budget_subtitle"`
	ProcurementPlan    interface{} `json:"procurement_plan"`
	Signatures         interface{} `json:"signatures"`
	Status             string      `json:"status"`
	ProgressPercentage int         `json:"progress_percentage"`
	Location           interface{} `json:"location"`
}

type ProjectListItem struct {
	ProjectView
	CitizenReportsCount int `json:"citizen_reports_count"`
}

type ProjectDetail struct {
	ProjectView
	CitizenReports []ReviewView `json:"citizen_reports"`
}

type ReviewView struct {
	ReviewID        string        `json:"review_id"`
	ProjectID       string        `json:"project_id"`
	ReporterName    *string       `json:"reporter_name"`
	ReporterContact *string       `json:"reporter_contact"`
	ReviewType      string        `json:"review_type"`
	ReviewText      string        `json:"review_text"`
	WorkCompleted   bool          `json:"work_completed"`
	QualityRating   *int          `json:"quality_rating"`
	Geolocation     interface{}   `json:"geolocation"`
	PhotoURLs       []interface{} `json:"photo_urls"`
	Verified        bool          `json:"verified"`
	Timestamp       string        `json:"timestamp"`
}

type ReviewListView struct {
	ProjectID    string       `json:"project_id"`
	ProjectName  string       `json:"project_name"`
	TotalReviews int          `json:"total_reviews"`
	Reviews      []ReviewView `json:"reviews"`
}

type StatisticsView struct {
	TotalReviews            int            `json:"total_reviews"`
	WorkCompletedPercentage float64        `json:"work_completed_percentage"`
	AverageQualityRating    *float64       `json:"average_quality_rating"`
	ReviewsWithImages       int            `json:"reviews_with_images"`
	VerifiedReviews         int            `json:"verified_reviews"`
	ReviewTypeBreakdown     map[string]int `json:"review_type_breakdown"`
	LastCalculated          string         `json:"last_calculated,omitempty"`
}

type ReviewSummaryView struct {
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name"`
	StatisticsView
}

type ProgressView struct {
	ProjectID           string       `json:"project_id"`
	ProjectName         string       `json:"project_name"`
	Status              string       `json:"status"`
	ProgressPercentage  int          `json:"progress_percentage"`
	Timeline            TimelineView `json:"timeline"`
	Contractor          interface{}  `json:"contractor"`
	ContractAmount      interface{}  `json:"contract_amount"`
	CitizenReportsCount int          `json:"citizen_reports_count"`
}

type TimelineView struct {
	ContractSigned     interface{} `json:"contract_signed"`
	WorkInitiated      interface{} `json:"work_initiated"`
	ExpectedCompletion interface{} `json:"expected_completion"`
}

type OverviewView struct {
	TotalProjects       int64            `json:"total_projects"`
	TotalContractValue  float64          `json:"total_contract_value"`
	AverageProgress     float64          `json:"average_progress"`
	StatusBreakdown     map[string]int64 `json:"status_breakdown"`
	TotalCitizenReports int64            `json:"total_citizen_reports"`
	MinistriesCount     int64            `json:"ministries_count"`
	FiscalYears         []string         `json:"fiscal_years"`
}

type FilterOptionsView struct {
	Ministries         []string `json:"ministries"`
	FiscalYears        []string `json:"fiscal_years"`
	Statuses           []string `json:"statuses"`
	ProcurementMethods []string `json:"procurement_methods"`
	ReviewTypes        []string `json:"review_types"`
}

// decodeDocument decodes a stored document, keeping numbers exact.
// Absent or malformed documents yield ok=false.
func decodeDocument(doc datatypes.JSON) (v interface{}, ok bool) {
	if models.IsAbsent(doc) {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

func decodeOrNil(doc datatypes.JSON) interface{} {
	v, _ := decodeDocument(doc)
	return v
}

func decodePlan(doc datatypes.JSON) map[string]interface{} {
	if v, ok := decodeDocument(doc); ok {
		if m, ok := v.(map[string]interface{}); ok {
			return m
		}
	}
	return map[string]interface{}{}
}

func decodeList(doc datatypes.JSON) []interface{} {
	if v, ok := decodeDocument(doc); ok {
		if list, ok := v.([]interface{}); ok {
			return list
		}
	}
	return []interface{}{}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func newProjectView(p *models.Project) ProjectView {
	return ProjectView{
		ID:                 p.ID,
		FiscalYear:         p.FiscalYear,
		Ministry:           p.Ministry,
		BudgetSubtitle:     p.BudgetSubtitle,
		ProcurementPlan:    decodePlan(p.ProcurementPlan),
		Signatures:         decodeOrNil(p.Signatures),
		Status:             string(p.Status),
		ProgressPercentage: p.ProgressPercentage,
		Location:           decodeOrNil(p.Location),
	}
}

func newProjectListItem(r store.ProjectRow) ProjectListItem {
	p := models.Project{
		ID:                 r.ID,
		FiscalYear:         r.FiscalYear,
		Ministry:           r.Ministry,
		BudgetSubtitle:     r.BudgetSubtitle,
		ProcurementPlan:    r.ProcurementPlan,
		Signatures:         r.Signatures,
		Status:             r.Status,
		ProgressPercentage: r.ProgressPercentage,
		Location:           r.Location,
	}
	return ProjectListItem{ProjectView: newProjectView(&p), CitizenReportsCount: r.ReviewCount}
}

// newProjectDetail expects reviews ordered most recent first.
func newProjectDetail(p *models.Project, reviews []models.CitizenReview) ProjectDetail {
	return ProjectDetail{ProjectView: newProjectView(p), CitizenReports: newReviewViews(reviews)}
}

func newReviewView(r *models.CitizenReview) ReviewView {
	return ReviewView{
		ReviewID:        r.ReviewID,
		ProjectID:       r.ProjectID,
		ReporterName:    r.ReporterName,
		ReporterContact: r.ReporterContact,
		ReviewType:      r.ReviewType,
		ReviewText:      r.ReviewText,
		WorkCompleted:   r.WorkCompleted,
		QualityRating:   r.QualityRating,
		Geolocation:     decodeOrNil(r.Geolocation),
		PhotoURLs:       decodeList(r.PhotoURLs),
		Verified:        r.Verified,
		Timestamp:       formatTime(r.CreatedAt),
	}
}

func newReviewViews(reviews []models.CitizenReview) []ReviewView {
	out := make([]ReviewView, 0, len(reviews))
	for i := range reviews {
		out = append(out, newReviewView(&reviews[i]))
	}
	return out
}

func newStatisticsView(s *models.ProjectStatistics) StatisticsView {
	v := StatisticsView{
		TotalReviews:            s.TotalReviews,
		WorkCompletedPercentage: s.WorkCompletedPercentage,
		AverageQualityRating:    s.AverageQualityRating,
		ReviewsWithImages:       s.ReviewsWithImages,
		VerifiedReviews:         s.VerifiedReviews,
		ReviewTypeBreakdown:     stats.Breakdown(*s),
	}
	if !s.LastCalculated.IsZero() {
		v.LastCalculated = formatTime(s.LastCalculated)
	}
	return v
}

func newOverviewView(o *store.Overview) OverviewView {
	years := o.FiscalYears
	if years == nil {
		years = []string{}
	}
	return OverviewView{
		TotalProjects:       o.TotalProjects,
		TotalContractValue:  o.TotalContractValue,
		AverageProgress:     math.Round(o.AverageProgress*100) / 100,
		StatusBreakdown:     o.StatusBreakdown,
		TotalCitizenReports: o.TotalReviews,
		MinistriesCount:     o.MinistriesCount,
		FiscalYears:         years,
	}
}

// projectName is the details-of-work line of the plan, if any.
func projectName(p *models.Project) string {
	if s, ok := decodePlan(p.ProcurementPlan)[models.PlanDetailsOfWork].(string); ok {
		return s
	}
	return ""
}

func newProgressView(p *models.Project, reviewCount int) ProgressView {
	plan := decodePlan(p.ProcurementPlan)
	name, _ := plan[models.PlanDetailsOfWork].(string)
	return ProgressView{
		ProjectID:          p.ID,
		ProjectName:        name,
		Status:             string(p.Status),
		ProgressPercentage: p.ProgressPercentage,
		Timeline: TimelineView{
			ContractSigned:     plan[models.PlanSigningContract],
			WorkInitiated:      plan[models.PlanInitiation],
			ExpectedCompletion: plan[models.PlanCompletion],
		},
		Contractor:          plan[models.PlanContractorName],
		ContractAmount:      plan[models.PlanContractAmount],
		CitizenReportsCount: reviewCount,
	}
}
