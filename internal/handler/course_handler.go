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

// CourseHandler handles the catalogue and course authoring endpoints,
// including modules and lessons.
type CourseHandler struct {
	courseService *service.CourseService
	log           zerolog.Logger
}

// NewCourseHandler creates a new CourseHandler.
func NewCourseHandler(courseService *service.CourseService, log zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		courseService: courseService,
		log:           log.With().Str("component", "course_handler").Logger(),
	}
}

// ----------------------------------------------------------------
// Courses
// ----------------------------------------------------------------

// List godoc
// GET /api/v1/courses?q=&category=&level=&organization_id=&page=&per_page=
// Public catalogue: published courses only.
func (h *CourseHandler) List(c *gin.Context) {
	var p model.CourseListParams
	if !bindQuery(c, &p) {
		return
	}

	courses, total, err := h.courseService.ListPublished(c.Request.Context(), p)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	paginated(c, courses, p.PageQuery, total)
}

// ListMine godoc
// GET /api/v1/instructor/courses?status=
func (h *CourseHandler) ListMine(c *gin.Context) {
	var p model.CourseListParams
	if !bindQuery(c, &p) {
		return
	}

	courses, total, err := h.courseService.ListForInstructor(c.Request.Context(), middleware.GetActor(c), p)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	paginated(c, courses, p.PageQuery, total)
}

// Get godoc
// GET /api/v1/courses/:id
// Returns the course with its outline. Drafts are visible to their managers only.
func (h *CourseHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	outline, err := h.courseService.Get(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, outline)
}

// Create godoc
// POST /api/v1/courses
func (h *CourseHandler) Create(c *gin.Context) {
	var req model.CourseRequest
	if !bindJSON(c, &req) {
		return
	}

	course, err := h.courseService.Create(c.Request.Context(), middleware.GetActor(c), req, middleware.Meta(c))
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, course)
}

// Update godoc
// PUT /api/v1/courses/:id
func (h *CourseHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.CourseRequest
	if !bindJSON(c, &req) {
		return
	}

	course, err := h.courseService.Update(c.Request.Context(), middleware.GetActor(c), id, req, middleware.Meta(c))
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, course)
}

// Delete godoc
// DELETE /api/v1/courses/:id
func (h *CourseHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.courseService.Delete(c.Request.Context(), middleware.GetActor(c), id, middleware.Meta(c)); err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Course deleted successfully"})
}

// Publish godoc
// POST /api/v1/courses/:id/publish
func (h *CourseHandler) Publish(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	course, err := h.courseService.Publish(c.Request.Context(), middleware.GetActor(c), id, middleware.Meta(c))
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, course)
}

// Archive godoc
// POST /api/v1/courses/:id/archive
func (h *CourseHandler) Archive(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	course, err := h.courseService.Archive(c.Request.Context(), middleware.GetActor(c), id, middleware.Meta(c))
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, course)
}

// UploadThumbnail godoc
// POST /api/v1/courses/:id/thumbnail
func (h *CourseHandler) UploadThumbnail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	file, header, ok := formFile(c)
	if !ok {
		return
	}
	defer file.Close()

	course, err := h.courseService.UploadThumbnail(c.Request.Context(), middleware.GetActor(c), id, file, header.Size)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, course)
}

// ----------------------------------------------------------------
// Modules
// ----------------------------------------------------------------

// ListModules godoc
// GET /api/v1/courses/:id/modules
func (h *CourseHandler) ListModules(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	modules, err := h.courseService.ListModules(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, modules)
}

// CreateModule godoc
// POST /api/v1/courses/:id/modules
func (h *CourseHandler) CreateModule(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.ModuleRequest
	if !bindJSON(c, &req) {
		return
	}

	module, err := h.courseService.CreateModule(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, module)
}

// UpdateModule godoc
// PUT /api/v1/modules/:id
func (h *CourseHandler) UpdateModule(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.ModuleRequest
	if !bindJSON(c, &req) {
		return
	}

	module, err := h.courseService.UpdateModule(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, module)
}

// DeleteModule godoc
// DELETE /api/v1/modules/:id
func (h *CourseHandler) DeleteModule(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.courseService.DeleteModule(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Module deleted successfully"})
}

// ----------------------------------------------------------------
// Lessons
// ----------------------------------------------------------------

// CreateLesson godoc
// POST /api/v1/modules/:id/lessons
func (h *CourseHandler) CreateLesson(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.LessonRequest
	if !bindJSON(c, &req) {
		return
	}

	lesson, err := h.courseService.CreateLesson(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, lesson)
}

// GetLesson godoc
// GET /api/v1/lessons/:id
// Full content for managers, enrolled students and preview lessons.
func (h *CourseHandler) GetLesson(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	lesson, err := h.courseService.GetLesson(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, lesson)
}

// UpdateLesson godoc
// PUT /api/v1/lessons/:id
func (h *CourseHandler) UpdateLesson(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.LessonRequest
	if !bindJSON(c, &req) {
		return
	}

	lesson, err := h.courseService.UpdateLesson(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, lesson)
}

// DeleteLesson godoc
// DELETE /api/v1/lessons/:id
func (h *CourseHandler) DeleteLesson(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.courseService.DeleteLesson(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Lesson deleted successfully"})
}
