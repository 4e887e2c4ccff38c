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

// NotificationRetention is how long read notifications are kept.
const NotificationRetention = 90 * 24 * time.Hour

// NotificationService stores in-app notifications and fans them out over
// Redis pub/sub to connected WebSocket clients.
type NotificationService struct {
	repo NotificationStore
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(repo NotificationStore, rdb *redis.Client, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		repo: repo,
		rdb:  rdb,
		log:  log.With().Str("component", "notifications").Logger(),
	}
}

// Notify persists a notification and publishes it on the user's channel.
// Errors are logged only.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, typ, title, body string, data map[string]interface{}) {
	n := &model.Notification{
		UserID: userID,
		Type:   typ,
		Title:  title,
		Body:   body,
		Data:   data,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.log.Error().Err(err).Str("user_id", userID.String()).Str("type", typ).Msg("store notification")
		return
	}

	raw, err := json.Marshal(n)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal notification")
		return
	}
	channel := config.CacheKey.UserNotificationChannel(userID.String())
	if err := s.rdb.Publish(ctx, channel, raw).Err(); err != nil {
		s.log.Warn().Err(err).Str("channel", channel).Msg("publish notification")
	}
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, p model.NotificationListParams) ([]model.Notification, int, error) {
	p.Normalize()
	return s.repo.ListByUser(ctx, userID, p)
}

// MarkRead marks one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

// MarkAllRead marks every unread notification of the caller as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

// Prune deletes read notifications older than the retention window.
func (s *NotificationService) Prune(ctx context.Context) (int64, error) {
	return s.repo.PruneRead(ctx, time.Now().Add(-NotificationRetention))
}

// UnreadCount returns how many notifications the user has not read yet.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	_, total, err := s.repo.ListByUser(ctx, userID, model.NotificationListParams{
		PageQuery: model.PageQuery{Page: 1, PerPage: 1},
		Unread:    true,
	})
	return total, err
}

// Subscribe opens the user's live channel. The caller must Close it.
func (s *NotificationService) Subscribe(ctx context.Context, userID uuid.UUID) *redis.PubSub {
	return s.rdb.Subscribe(ctx, config.CacheKey.UserNotificationChannel(userID.String()))
}
