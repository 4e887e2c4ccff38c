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

// AssessmentHandler handles assessment authoring and answer submission.
type AssessmentHandler struct {
	assessmentService *service.AssessmentService
	log               zerolog.Logger
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(assessmentService *service.AssessmentService, log zerolog.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		assessmentService: assessmentService,
		log:               log.With().Str("component", "assessment_handler").Logger(),
	}
}

// Create godoc
// POST /api/v1/courses/:id/assessments
func (h *AssessmentHandler) Create(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.AssessmentRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.assessmentService.Create(c.Request.Context(), middleware.GetActor(c), courseID, req)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, a)
}

// ListByCourse godoc
// GET /api/v1/courses/:id/assessments
func (h *AssessmentHandler) ListByCourse(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}

	list, err := h.assessmentService.ListByCourse(c.Request.Context(), middleware.GetActor(c), courseID)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, list)
}

// Get godoc
// GET /api/v1/assessments/:id
// Students receive the questions without their correct answers.
func (h *AssessmentHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	a, err := h.assessmentService.Get(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, a)
}

// Update godoc
// PUT /api/v1/assessments/:id
func (h *AssessmentHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.AssessmentRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.assessmentService.Update(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, a)
}

// Delete godoc
// DELETE /api/v1/assessments/:id
func (h *AssessmentHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.assessmentService.Delete(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Assessment deleted successfully"})
}

// CreateQuestion godoc
// POST /api/v1/assessments/:id/questions
// The correct answer must parse for the question type.
func (h *AssessmentHandler) CreateQuestion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.QuestionRequest
	if !bindJSON(c, &req) {
		return
	}

	q, err := h.assessmentService.CreateQuestion(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, q)
}

// UpdateQuestion godoc
// PUT /api/v1/questions/:id
func (h *AssessmentHandler) UpdateQuestion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.QuestionRequest
	if !bindJSON(c, &req) {
		return
	}

	q, err := h.assessmentService.UpdateQuestion(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, q)
}

// DeleteQuestion godoc
// DELETE /api/v1/questions/:id
func (h *AssessmentHandler) DeleteQuestion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.assessmentService.DeleteQuestion(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Question deleted successfully"})
}

// Submit godoc
// POST /api/v1/assessments/:id/submit
// Grades one attempt. Unanswered questions count as incorrect.
func (h *AssessmentHandler) Submit(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.SubmitAnswersRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.assessmentService.Submit(c.Request.Context(), middleware.GetActor(c), id, req, middleware.Meta(c))
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Attempts godoc
// GET /api/v1/assessments/:id/attempts
func (h *AssessmentHandler) Attempts(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	attempts, err := h.assessmentService.Attempts(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, attempts)
}
