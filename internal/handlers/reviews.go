package handlers

import (
	"net/http"

	"procurement-transparency/internal/middleware"
	"procurement-transparency/internal/service"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	reviews *service.ReviewService
	stats   *service.StatisticsService
}

func NewReviewHandler(reviews *service.ReviewService, stats *service.StatisticsService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, stats: stats}
}

// POST /api/reviews/:project_id/submit
func (h *ReviewHandler) Submit(c *gin.Context) {
	var in service.CreateReviewInput
	if !bindJSON(c, &in) {
		return
	}
	v, err := h.reviews.CreateReview(c.Request.Context(), c.Param("project_id"), in)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusCreated, v)
}

// GET /api/reviews/:project_id/all
func (h *ReviewHandler) List(c *gin.Context) {
	v, err := h.reviews.ListProjectReviews(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	success(c, v)
}

// GET /api/reviews/:project_id/summary
func (h *ReviewHandler) Summary(c *gin.Context) {
	v, err := h.stats.ReviewSummary(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	success(c, v)
}

// GET /api/reviews/:project_id/:review_id
func (h *ReviewHandler) Get(c *gin.Context) {
	v, err := h.reviews.GetReview(c.Request.Context(), c.Param("project_id"), c.Param("review_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	success(c, v)
}

// POST /api/reviews/:project_id/:review_id/verify
func (h *ReviewHandler) Verify(c *gin.Context) {
	v, err := h.reviews.VerifyReview(c.Request.Context(),
		c.Param("project_id"), c.Param("review_id"), middleware.CurrentUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	success(c, v)
}
