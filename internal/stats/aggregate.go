// Package stats computes the per-project review statistics snapshot.
package stats

import (
	"encoding/json"
	"math"

	"procurement-transparency/internal/models"
)

// Compute builds a full statistics snapshot for projectID from its complete
// review set. LastCalculated is left to the caller.
func Compute(projectID string, reviews []models.CitizenReview) models.ProjectStatistics {
	out := models.ProjectStatistics{ProjectID: projectID}

	var completed, rated, ratingSum int
	for _, r := range reviews {
		out.TotalReviews++
		if r.WorkCompleted {
			completed++
		}
		if r.QualityRating != nil {
			rated++
			ratingSum += *r.QualityRating
		}
		if hasPhotos(r) {
			out.ReviewsWithImages++
		}
		if r.Verified {
			out.VerifiedReviews++
		}
		if t, ok := models.ParseReviewType(r.ReviewType); ok {
			out.Count(t)
		}
	}

	if out.TotalReviews > 0 {
		out.WorkCompletedPercentage = round2(100 * float64(completed) / float64(out.TotalReviews))
	}
	if rated > 0 {
		avg := float64(ratingSum) / float64(rated)
		out.AverageQualityRating = &avg
	}
	return out
}

// Equal reports whether two snapshots carry the same derived values.
// Identity and LastCalculated are not compared.
func Equal(a, b models.ProjectStatistics) bool {
	if (a.AverageQualityRating == nil) != (b.AverageQualityRating == nil) {
		return false
	}
	if a.AverageQualityRating != nil && *a.AverageQualityRating != *b.AverageQualityRating {
		return false
	}
	return a.ProjectID == b.ProjectID &&
		a.TotalReviews == b.TotalReviews &&
		a.WorkCompletedPercentage == b.WorkCompletedPercentage &&
		a.ReviewsWithImages == b.ReviewsWithImages &&
		a.VerifiedReviews == b.VerifiedReviews &&
		a.ProgressUpdates == b.ProgressUpdates &&
		a.QualityIssues == b.QualityIssues &&
		a.CompletionVerifications == b.CompletionVerifications &&
		a.DelayReports == b.DelayReports &&
		a.FraudAlerts == b.FraudAlerts
}

// Breakdown maps canonical type labels to their non-zero counts.
func Breakdown(s models.ProjectStatistics) map[string]int {
	out := map[string]int{}
	for _, t := range models.ReviewTypes {
		if n := s.TypeCount(t); n > 0 {
			out[string(t)] = n
		}
	}
	return out
}

// TypedSum is the number of reviews that landed in a canonical bucket.
// It never exceeds TotalReviews.
func TypedSum(s models.ProjectStatistics) int {
	n := 0
	for _, t := range models.ReviewTypes {
		n += s.TypeCount(t)
	}
	return n
}

// malformed photo lists count as empty
func hasPhotos(r models.CitizenReview) bool {
	if models.IsAbsent(r.PhotoURLs) {
		return false
	}
	var refs []json.RawMessage
	if err := json.Unmarshal(r.PhotoURLs, &refs); err != nil {
		return false
	}
	return len(refs) > 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
