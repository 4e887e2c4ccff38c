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

// EnrollmentHandler handles enrollment and lesson progress endpoints.
type EnrollmentHandler struct {
	enrollmentService *service.EnrollmentService
	progressService   *service.ProgressService
	log               zerolog.Logger
}

// NewEnrollmentHandler creates a new EnrollmentHandler.
func NewEnrollmentHandler(enrollmentService *service.EnrollmentService, progressService *service.ProgressService, log zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollmentService: enrollmentService,
		progressService:   progressService,
		log:               log.With().Str("component", "enrollment_handler").Logger(),
	}
}

// Enroll godoc
// POST /api/v1/courses/:id/enroll
// Free courses only; paid courses go through checkout. Returns 201 for a new
// or reactivated enrollment and 200 when already enrolled.
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}

	e, created, err := h.enrollmentService.Enroll(c.Request.Context(), middleware.GetActor(c), courseID, middleware.Meta(c))
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.Success(c, status, e)
}

// Cancel godoc
// DELETE /api/v1/courses/:id/enroll
func (h *EnrollmentHandler) Cancel(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.enrollmentService.Cancel(c.Request.Context(), middleware.GetActor(c), courseID, middleware.Meta(c)); err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": model.EnrollmentStatusCancelled})
}

// ListMine godoc
// GET /api/v1/me/enrollments?status=
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var p model.EnrollmentListParams
	if !bindQuery(c, &p) {
		return
	}

	list, total, err := h.enrollmentService.ListMine(c.Request.Context(), actor.UserID, p)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	paginated(c, list, p.PageQuery, total)
}

// ListByCourse godoc
// GET /api/v1/courses/:id/enrollments?status=
func (h *EnrollmentHandler) ListByCourse(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var p model.EnrollmentListParams
	if !bindQuery(c, &p) {
		return
	}

	list, total, err := h.enrollmentService.ListByCourse(c.Request.Context(), middleware.GetActor(c), courseID, p)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	paginated(c, list, p.PageQuery, total)
}

// CompleteLesson godoc
// POST /api/v1/lessons/:id/complete
// Idempotent. Returns the refreshed course progress.
func (h *EnrollmentHandler) CompleteLesson(c *gin.Context) {
	lessonID, ok := paramID(c, "id")
	if !ok {
		return
	}

	progress, err := h.progressService.CompleteLesson(c.Request.Context(), middleware.GetActor(c), lessonID, middleware.Meta(c))
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, progress)
}

// GetProgress godoc
// GET /api/v1/courses/:id/progress
func (h *EnrollmentHandler) GetProgress(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}

	progress, err := h.progressService.GetProgress(c.Request.Context(), middleware.GetActor(c), courseID)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, progress)
}
