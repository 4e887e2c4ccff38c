package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/middleware"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/response"
	"github.com/stemsi/learnhub-backend/internal/service"
)

// UserHandler serves the caller's profile and the admin user console.
type UserHandler struct {
	userService *service.UserService
	log         zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService, log zerolog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		log:         log.With().Str("component", "user_handler").Logger(),
	}
}

// Me godoc
// GET /api/v1/auth/me
func (h *UserHandler) Me(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	user, err := h.userService.Me(c.Request.Context(), actor.UserID)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, user)
}

// UpdateMe godoc
// PUT /api/v1/auth/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req model.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), actor.UserID, req)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, user)
}

// UploadAvatar godoc
// POST /api/v1/auth/me/avatar
// Multipart field "file"; the image is resized before it is stored.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	file, header, ok := formFile(c)
	if !ok {
		return
	}
	defer file.Close()

	user, err := h.userService.UploadAvatar(c.Request.Context(), actor.UserID, file, header.Size)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, user)
}

// ListUsers godoc
// GET /api/v1/admin/users?role=&q=&page=&per_page=
func (h *UserHandler) ListUsers(c *gin.Context) {
	var p model.UserListParams
	if !bindQuery(c, &p) {
		return
	}

	users, total, err := h.userService.List(c.Request.Context(), p)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	paginated(c, users, p.PageQuery, total)
}

// UpdateRole godoc
// PUT /api/v1/admin/users/:id/role
func (h *UserHandler) UpdateRole(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateUserRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateRole(c.Request.Context(), middleware.GetActor(c), id, req.Role, middleware.Meta(c))
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, user)
}

// UpdateStatus godoc
// PUT /api/v1/admin/users/:id/status
func (h *UserHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateUserStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateStatus(c.Request.Context(), middleware.GetActor(c), id, *req.IsActive, middleware.Meta(c))
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, user)
}

// formFile opens the multipart "file" field, writing FILE_REQUIRED or
// FILE_TOO_LARGE when it cannot.
func formFile(c *gin.Context) (multipart.File, *multipart.FileHeader, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
			return nil, nil, false
		}
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return nil, nil, false
	}
	file, err := header.Open()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return nil, nil, false
	}
	return file, header, true
}
