package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/middleware"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/response"
	"github.com/stemsi/learnhub-backend/internal/service"
	"github.com/stemsi/learnhub-backend/internal/validator"
)

// DocumentHandler handles course document uploads.
type DocumentHandler struct {
	documentService *service.DocumentService
	log             zerolog.Logger
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documentService *service.DocumentService, log zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		log:             log.With().Str("component", "document_handler").Logger(),
	}
}

// Upload godoc
// POST /api/v1/documents
// Multipart fields: file, title, optional course_id and lesson_id.
func (h *DocumentHandler) Upload(c *gin.Context) {
	// The file is read first so an oversized body reports FILE_TOO_LARGE
	// rather than a form validation error.
	file, header, ok := formFile(c)
	if !ok {
		return
	}
	defer file.Close()

	var form model.DocumentUploadForm
	if fields := validator.BindForm(c, &form); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	doc, err := h.documentService.Upload(c.Request.Context(), middleware.GetActor(c), form, service.DocumentUpload{
		Body:        file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}, middleware.Meta(c))
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, doc)
}

// List godoc
// GET /api/v1/documents?course_id=&lesson_id=&page=&per_page=
func (h *DocumentHandler) List(c *gin.Context) {
	var p model.DocumentListParams
	if !bindQuery(c, &p) {
		return
	}

	docs, total, err := h.documentService.List(c.Request.Context(), middleware.GetActor(c), p)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	paginated(c, docs, p.PageQuery, total)
}

// Get godoc
// GET /api/v1/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	doc, err := h.documentService.Get(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, doc)
}

// Delete godoc
// DELETE /api/v1/documents/:id
// Removes the row and the stored object.
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.documentService.Delete(c.Request.Context(), middleware.GetActor(c), id, middleware.Meta(c)); err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Document deleted successfully"})
}
