package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/config"
	"github.com/stemsi/learnhub-backend/internal/mailer"
	"github.com/stemsi/learnhub-backend/internal/model"
)

const (
	EmailPollTimeout = 1 * time.Second
	EmailMaxAttempts = 3
	emailSendTimeout = 30 * time.Second
)

// emailRetryBase is the wait before the first retry; it doubles per attempt.
var emailRetryBase = 5 * time.Second

// retryDelay is how long a job that failed attempts times waits before it
// goes back on the queue.
func retryDelay(attempts int) time.Duration {
	if attempts < 1 {
		return 0
	}
	return emailRetryBase << (attempts - 1)
}

// Renderer turns a queued job into a message body.
type Renderer interface {
	Render(name string, data map[string]interface{}) (mailer.Message, error)
}

// EmailWorker consumes email_delivery_queue, renders each job and hands it to
// the configured Mailer.
type EmailWorker struct {
	rdb      *redis.Client
	renderer Renderer
	mailer   mailer.Mailer
	log      zerolog.Logger
}

// NewEmailWorker creates a new EmailWorker.
func NewEmailWorker(rdb *redis.Client, renderer Renderer, m mailer.Mailer, log zerolog.Logger) *EmailWorker {
	return &EmailWorker{
		rdb:      rdb,
		renderer: renderer,
		mailer:   m,
		log:      log.With().Str("component", "email_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *EmailWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

// processNext handles at most one job and reports whether one was popped.
func (w *EmailWorker) processNext(ctx context.Context) bool {
	result, err := w.rdb.BLPop(ctx, EmailPollTimeout, config.Queues.Email).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
			// Back off so a Redis outage does not spin the loop.
			time.Sleep(EmailPollTimeout)
		}
		return false
	}
	if len(result) < 2 {
		return false
	}

	var job model.EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return true
	}

	w.deliver(ctx, &job)
	return true
}

func (w *EmailWorker) deliver(ctx context.Context, job *model.EmailJob) {
	log := w.log.With().Str("template", job.Template).Str("to", job.To).Logger()

	msg, err := w.renderer.Render(job.Template, job.Data)
	if err != nil {
		// A broken template will not fix itself on retry.
		log.Error().Err(err).Msg("Render failed, dropping email")
		return
	}
	msg.To = job.To
	msg.ToName = job.ToName

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emailSendTimeout)
	defer cancel()

	if err := w.mailer.Send(sendCtx, msg); err != nil {
		job.Attempts++
		if job.Attempts >= EmailMaxAttempts || errors.Is(err, mailer.ErrNoRecipient) {
			log.Error().Err(err).Int("attempts", job.Attempts).Msg("Send failed, giving up")
			return
		}
		delay := retryDelay(job.Attempts)
		log.Warn().Err(err).Int("attempts", job.Attempts).Dur("retry_in", delay).Msg("Send failed, requeueing")
		// A shutdown cuts the wait short; the job is still pushed back.
		select {
		case <-ctx.Done():
		case <-time.After(delay):
		}
		raw, _ := json.Marshal(job)
		if err := w.rdb.RPush(context.WithoutCancel(ctx), config.Queues.Email, raw).Err(); err != nil {
			log.Error().Err(err).Msg("Requeue failed")
		}
		return
	}

	log.Debug().Msg("Email sent")
}
