package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/learnhub-backend/internal/config"
	"github.com/stemsi/learnhub-backend/internal/model"
)

// MailService queues templated emails for the email worker.
type MailService struct {
	rdb *redis.Client
}

// NewMailService creates a new MailService.
func NewMailService(rdb *redis.Client) *MailService {
	return &MailService{rdb: rdb}
}

// Enqueue pushes an email job. Rendering and delivery happen in the worker.
func (s *MailService) Enqueue(ctx context.Context, template, to, toName string, data map[string]interface{}) error {
	raw, err := json.Marshal(model.EmailJob{
		Template: template,
		To:       to,
		ToName:   toName,
		Data:     data,
	})
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.Queues.Email, raw).Err(); err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}
	return nil
}
