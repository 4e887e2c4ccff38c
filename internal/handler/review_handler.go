package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/middleware"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/response"
	"github.com/stemsi/learnhub-backend/internal/service"
)

// ReviewHandler handles course reviews.
type ReviewHandler struct {
	reviewService *service.ReviewService
	log           zerolog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService *service.ReviewService, log zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		log:           log.With().Str("component", "review_handler").Logger(),
	}
}

// List godoc
// GET /api/v1/courses/:id/reviews?page=&per_page=
func (h *ReviewHandler) List(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var p model.PageQuery
	if !bindQuery(c, &p) {
		return
	}

	reviews, total, err := h.reviewService.List(c.Request.Context(), middleware.GetActor(c), courseID, p)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	paginated(c, reviews, p, total)
}

// Create godoc
// POST /api/v1/courses/:id/reviews
func (h *ReviewHandler) Create(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.ReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.Create(c.Request.Context(), middleware.GetActor(c), courseID, req, middleware.Meta(c))
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, review)
}

// Update godoc
// PUT /api/v1/reviews/:id
func (h *ReviewHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.ReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.Update(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, review)
}

// Delete godoc
// DELETE /api/v1/reviews/:id
func (h *ReviewHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.reviewService.Delete(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Review deleted successfully"})
}
