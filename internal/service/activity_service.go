package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/config"
	"github.com/stemsi/learnhub-backend/internal/model"
)

// ActivityService writes audit entries through the activity queue and reads
// them back from Postgres.
type ActivityService struct {
	rdb  *redis.Client
	repo ActivityLogStore
	log  zerolog.Logger
}

// NewActivityService creates a new ActivityService.
func NewActivityService(rdb *redis.Client, repo ActivityLogStore, log zerolog.Logger) *ActivityService {
	return &ActivityService{
		rdb:  rdb,
		repo: repo,
		log:  log.With().Str("component", "activity").Logger(),
	}
}

// Record queues one entry. Queue errors are logged, not returned.
func (s *ActivityService) Record(ctx context.Context, userID *uuid.UUID, action, entityType, entityID string, meta RequestMeta, data map[string]interface{}) {
	entry := model.ActivityLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   data,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
		CreatedAt:  time.Now().UTC(),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		s.log.Error().Err(err).Str("action", action).Msg("marshal activity")
		return
	}
	if err := s.rdb.RPush(ctx, config.Queues.ActivityLog, raw).Err(); err != nil {
		s.log.Error().Err(err).Str("action", action).Msg("queue activity")
	}
}

// List returns the platform activity log.
func (s *ActivityService) List(ctx context.Context, f model.ActivityLogFilter) ([]model.ActivityLog, int, error) {
	f.Normalize()
	return s.repo.List(ctx, f)
}

// ListMine returns the caller's own activity.
func (s *ActivityService) ListMine(ctx context.Context, userID uuid.UUID, p model.PageQuery) ([]model.ActivityLog, int, error) {
	f := model.ActivityLogFilter{PageQuery: p, UserID: userID.String()}
	f.Normalize()
	return s.repo.List(ctx, f)
}
