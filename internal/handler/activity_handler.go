package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/service"
)

// ActivityHandler exposes the audit log.
type ActivityHandler struct {
	activityService *service.ActivityService
	log             zerolog.Logger
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(activityService *service.ActivityService, log zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		log:             log.With().Str("component", "activity_handler").Logger(),
	}
}

// List godoc
// GET /api/v1/admin/activity-logs?user_id=&action=&entity_type=&page=&per_page=
func (h *ActivityHandler) List(c *gin.Context) {
	var f model.ActivityLogFilter
	if !bindQuery(c, &f) {
		return
	}

	logs, total, err := h.activityService.List(c.Request.Context(), f)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	paginated(c, logs, f.PageQuery, total)
}

// ListMine godoc
// GET /api/v1/me/activity
func (h *ActivityHandler) ListMine(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var p model.PageQuery
	if !bindQuery(c, &p) {
		return
	}

	logs, total, err := h.activityService.ListMine(c.Request.Context(), actor.UserID, p)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	paginated(c, logs, p, total)
}
