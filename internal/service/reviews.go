package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"procurement-transparency/internal/models"
	"procurement-transparency/internal/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaxPhotosPerReview = 5
	MinReviewTextLen   = 10
	anonymousReporter  = "Anonymous"
	reviewIDAttempts   = 3
)

type GeoPoint struct {
	Lat *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lng *float64 `json:"lng" validate:"required,min=-180,max=180"`
}

type CreateReviewInput struct {
	ReporterName    *string   `json:"reporter_name" validate:"omitempty,max=255"`
	ReporterContact *string   `json:"reporter_contact" validate:"omitempty,max=255"`
	ReviewType      string    `json:"review_type" validate:"required,review_type"`
	ReviewText      string    `json:"review_text" validate:"required,min=10,max=5000"`
	WorkCompleted   *bool     `json:"work_completed" validate:"required"`
	QualityRating   *int      `json:"quality_rating" validate:"omitempty,min=1,max=5"`
	Geolocation     *GeoPoint `json:"geolocation" validate:"omitempty"`
	PhotoURLs       []string  `json:"photo_urls" validate:"max=5,dive,required,max=1024"`
}

func (in *CreateReviewInput) normalize() {
	in.ReviewText = strings.TrimSpace(in.ReviewText)
	if in.ReporterName != nil {
		name := strings.TrimSpace(*in.ReporterName)
		in.ReporterName = &name
	}
	if in.ReporterName == nil || *in.ReporterName == "" {
		name := anonymousReporter
		in.ReporterName = &name
	}
	if in.ReporterContact != nil && strings.TrimSpace(*in.ReporterContact) == "" {
		in.ReporterContact = nil
	}
}

type ReviewService struct {
	Deps
	newID func() string
}

func NewReviewService(d Deps) *ReviewService {
	return &ReviewService{Deps: d.withDefaults(), newID: newReviewID}
}

// REV- followed by 8 upper-case hex digits
func newReviewID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "REV-" + strings.ToUpper(hex[:8])
}

// CreateReview stores a citizen review and refreshes the project's
// statistics. The insert and the refresh run under the project's row lock;
// a failed refresh leaves the review in place and the statistics stale.
func (s *ReviewService) CreateReview(ctx context.Context, projectID string, in CreateReviewInput) (*ReviewView, error) {
	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	reviewType, _ := models.ParseReviewType(in.ReviewType)

	review := &models.CitizenReview{
		ProjectID:       projectID,
		ReporterName:    in.ReporterName,
		ReporterContact: in.ReporterContact,
		ReviewType:      string(reviewType),
		ReviewText:      in.ReviewText,
		WorkCompleted:   *in.WorkCompleted,
		QualityRating:   in.QualityRating,
	}

	var err error
	if in.Geolocation != nil {
		if review.Geolocation, err = models.NewDocument(map[string]float64{
			"lat": *in.Geolocation.Lat,
			"lng": *in.Geolocation.Lng,
		}); err != nil {
			return nil, err
		}
	}
	photos := in.PhotoURLs
	if photos == nil {
		photos = []string{}
	}
	if review.PhotoURLs, err = models.NewDocument(photos); err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.LockProject(ctx, projectID); err != nil {
			return projectErr(err)
		}
		if err := s.insert(ctx, tx, review); err != nil {
			return err
		}
		s.recalculate(ctx, tx, projectID)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.invalidate(ctx)
	v := newReviewView(review)
	return &v, nil
}

// insert assigns a fresh review id, retrying on the rare collision. Each
// attempt runs in a savepoint so a failed insert does not poison tx.
func (s *ReviewService) insert(ctx context.Context, tx *store.Store, review *models.CitizenReview) error {
	var err error
	for i := 0; i < reviewIDAttempts; i++ {
		review.ReviewID = s.newID()
		err = tx.WithTx(ctx, func(sp *store.Store) error {
			return sp.CreateReview(ctx, review)
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		review.ID = 0
	}
	return err
}

// recalculate refreshes statistics inside a savepoint of tx. A failure is
// logged and rolled back to the savepoint only.
func (s *ReviewService) recalculate(ctx context.Context, tx *store.Store, projectID string) {
	err := tx.WithTx(ctx, func(sp *store.Store) error {
		_, err := sp.RecalculateStatistics(ctx, projectID)
		return err
	})
	if err != nil {
		s.Logger.WarnContext(ctx, "statistics recalculation failed",
			"project_id", projectID, "error", err)
	}
}

// ListProjectReviews returns every review of a project, most recent first.
func (s *ReviewService) ListProjectReviews(ctx context.Context, projectID string) (*ReviewListView, error) {
	p, err := s.Store.GetProject(ctx, projectID)
	if err != nil {
		return nil, projectErr(err)
	}
	reviews, err := s.Store.ListReviews(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return &ReviewListView{
		ProjectID:    p.ID,
		ProjectName:  projectName(p),
		TotalReviews: len(reviews),
		Reviews:      newReviewViews(reviews),
	}, nil
}

func (s *ReviewService) GetReview(ctx context.Context, projectID, reviewID string) (*ReviewView, error) {
	if _, err := s.Store.GetProject(ctx, projectID); err != nil {
		return nil, projectErr(err)
	}
	r, err := s.Store.GetReview(ctx, projectID, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	v := newReviewView(r)
	return &v, nil
}

// VerifyReview marks a review as verified by an official and refreshes the
// project's statistics.
func (s *ReviewService) VerifyReview(ctx context.Context, projectID, reviewID string, actorID *uint) (*ReviewView, error) {
	var verified *models.CitizenReview
	err := s.Store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.LockProject(ctx, projectID); err != nil {
			return projectErr(err)
		}
		r, err := tx.GetReview(ctx, projectID, reviewID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrReviewNotFound
			}
			return err
		}
		if !r.Verified {
			if err := tx.SetReviewVerified(ctx, projectID, reviewID, true); err != nil {
				return err
			}
			r.Verified = true
		}
		s.recalculate(ctx, tx, projectID)
		verified = r
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) || errors.Is(err, ErrReviewNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("verify review: %w", err)
	}

	s.invalidate(ctx)
	s.audit(ctx, actorID, "review", reviewID, "verify", "project="+projectID)

	v := newReviewView(verified)
	return &v, nil
}
