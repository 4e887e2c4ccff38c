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

// OrganizationHandler handles organization and membership endpoints.
type OrganizationHandler struct {
	orgService *service.OrganizationService
	log        zerolog.Logger
}

// NewOrganizationHandler creates a new OrganizationHandler.
func NewOrganizationHandler(orgService *service.OrganizationService, log zerolog.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		orgService: orgService,
		log:        log.With().Str("component", "organization_handler").Logger(),
	}
}

// Create godoc
// POST /api/v1/organizations
// The creator becomes the ORG_ADMIN owner.
func (h *OrganizationHandler) Create(c *gin.Context) {
	var req model.OrganizationRequest
	if !bindJSON(c, &req) {
		return
	}

	org, err := h.orgService.Create(c.Request.Context(), middleware.GetActor(c), req, middleware.Meta(c))
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, org)
}

// List godoc
// GET /api/v1/organizations?q=&page=&per_page=
func (h *OrganizationHandler) List(c *gin.Context) {
	var p model.OrganizationListParams
	if !bindQuery(c, &p) {
		return
	}

	orgs, total, err := h.orgService.List(c.Request.Context(), p)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	paginated(c, orgs, p.PageQuery, total)
}

// Get godoc
// GET /api/v1/organizations/:id
func (h *OrganizationHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	org, err := h.orgService.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, org)
}

// Update godoc
// PUT /api/v1/organizations/:id
func (h *OrganizationHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.OrganizationRequest
	if !bindJSON(c, &req) {
		return
	}

	org, err := h.orgService.Update(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, org)
}

// Delete godoc
// DELETE /api/v1/organizations/:id
func (h *OrganizationHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.orgService.Delete(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Organization deleted successfully"})
}

// Members godoc
// GET /api/v1/organizations/:id/members
func (h *OrganizationHandler) Members(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	users, err := h.orgService.Members(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, users)
}

// AddMember godoc
// POST /api/v1/organizations/:id/members
func (h *OrganizationHandler) AddMember(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.AddMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.orgService.AddMember(c.Request.Context(), middleware.GetActor(c), id, req.Email, middleware.Meta(c))
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, user)
}

// RemoveMember godoc
// DELETE /api/v1/organizations/:id/members/:user_id
func (h *OrganizationHandler) RemoveMember(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := paramID(c, "user_id")
	if !ok {
		return
	}

	if err := h.orgService.RemoveMember(c.Request.Context(), middleware.GetActor(c), id, userID, middleware.Meta(c)); err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Member removed"})
}
