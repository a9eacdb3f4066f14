package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ReviewType string

const (
	ReviewProgressUpdate         ReviewType = "Progress Update"
	ReviewQualityIssue           ReviewType = "Quality Issue"
	ReviewCompletionVerification ReviewType = "Completion Verification"
	ReviewDelayReport            ReviewType = "Delay Report"
	ReviewFraudAlert             ReviewType = "Fraud Alert"
)

var ReviewTypes = []ReviewType{
	ReviewProgressUpdate,
	ReviewQualityIssue,
	ReviewCompletionVerification,
	ReviewDelayReport,
	ReviewFraudAlert,
}

// ParseReviewType matches a label against the canonical review types,
// ignoring case, surrounding whitespace and space/underscore differences.
func ParseReviewType(label string) (ReviewType, bool) {
	key := reviewTypeKey(label)
	for _, t := range ReviewTypes {
		if reviewTypeKey(string(t)) == key {
			return t, true
		}
	}
	return "", false
}

func reviewTypeKey(label string) string {
	fields := strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		return r == ' ' || r == '_' || r == '\t' || r == '\n'
	})
	return strings.Join(fields, "_")
}

// CitizenReview — отзыв гражданина о проекте. После создания меняется
// только флаг Verified.
type CitizenReview struct {
	ID        uint   `gorm:"primaryKey"`
	ReviewID  string `gorm:"size:64;uniqueIndex;not null"`
	ProjectID string `gorm:"size:64;not null;index"`

	ReporterName    *string `gorm:"size:255"` // nil — анонимный отзыв
	ReporterContact *string `gorm:"size:255"`

	// хранится как строка: импортированные данные могут содержать
	// неканонические типы
	ReviewType    string `gorm:"size:64;not null"`
	ReviewText    string `gorm:"type:text;not null"`
	WorkCompleted bool   `gorm:"not null"`
	QualityRating *int   // 1..5

	Geolocation datatypes.JSON `gorm:"not null"` // {lat, lng}
	PhotoURLs   datatypes.JSON `gorm:"not null"` // ["..."]

	Verified bool `gorm:"not null"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (r *CitizenReview) BeforeSave(tx *gorm.DB) error {
	r.Geolocation = orNull(r.Geolocation)
	r.PhotoURLs = orEmptyList(r.PhotoURLs)
	return nil
}
