package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/config"
	"github.com/stemsi/learnhub-backend/internal/model"
)

const (
	ActivityBatchSize       = 50
	ActivityBatchTimeout    = 2 * time.Second
	ActivityPollTimeout     = 1 * time.Second
	ActivityShutdownTimeout = 5 * time.Second
)

// activityRequeuePause slows the loop down after rows were pushed back
// because Postgres was unavailable.
var activityRequeuePause = 2 * time.Second

// ActivityLogWriter persists audit entries.
type ActivityLogWriter interface {
	InsertBatch(ctx context.Context, logs []model.ActivityLog) (int64, error)
	Insert(ctx context.Context, l *model.ActivityLog) error
}

// ActivityWorker drains persist_activity_logs_queue into Postgres in batches.
type ActivityWorker struct {
	rdb   *redis.Client
	store ActivityLogWriter
	log   zerolog.Logger
}

func NewActivityWorker(rdb *redis.Client, store ActivityLogWriter, log zerolog.Logger) *ActivityWorker {
	return &ActivityWorker{
		rdb:   rdb,
		store: store,
		log:   log.With().Str("component", "activity_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ActivityWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ActivityWorker started")

	batch := make([]model.ActivityLog, 0, ActivityBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= ActivityBatchSize || time.Since(lastFlush) >= ActivityBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.shutdown(batch)
			return

		default:
			entry, ok := w.pop(ctx)
			if ok {
				batch = append(batch, entry)
			}
		}
	}
}

func (w *ActivityWorker) pop(ctx context.Context) (model.ActivityLog, bool) {
	item, err := w.rdb.BLPop(ctx, ActivityPollTimeout, config.Queues.ActivityLog).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
			time.Sleep(ActivityPollTimeout)
		}
		return model.ActivityLog{}, false
	}
	if len(item) < 2 {
		return model.ActivityLog{}, false
	}

	var entry model.ActivityLog
	if err := json.Unmarshal([]byte(item[1]), &entry); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return model.ActivityLog{}, false
	}
	return entry, true
}

// ----------------------------------------------------------------
// COPY with per-row fallback, then requeue
// ----------------------------------------------------------------

func (w *ActivityWorker) flushSafe(ctx context.Context, batch []model.ActivityLog) {
	if len(batch) == 0 {
		return
	}

	n, err := w.store.InsertBatch(ctx, batch)
	if err == nil {
		w.log.Debug().Int64("rows", n).Msg("Activity batch persisted")
		return
	}

	// COPY is all-or-nothing, so one bad row would drop the batch.
	w.log.Warn().Err(err).Int("size", len(batch)).Msg("bulk insert failed, using fallback")
	requeueList := make([]model.ActivityLog, 0)
	for i := range batch {
		err := w.store.Insert(ctx, &batch[i])
		if err == nil {
			continue
		}
		if isDataError(err) {
			w.log.Error().Err(err).
				Str("action", batch[i].Action).
				Str("entity_type", batch[i].EntityType).
				Msg("Dropping activity entry")
			continue
		}
		requeueList = append(requeueList, batch[i])
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

// isDataError reports whether Postgres rejected the row itself: SQLSTATE
// class 22 (data exception) or 23 (integrity violation).
func isDataError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23")
}

// requeue pushes entries back onto the queue in one pipeline.
func (w *ActivityWorker) requeue(ctx context.Context, items []model.ActivityLog) {
	pipe := w.rdb.Pipeline()
	for i := range items {
		data, err := json.Marshal(items[i])
		if err != nil {
			continue
		}
		pipe.RPush(ctx, config.Queues.ActivityLog, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Int("count", len(items)).Msg("CRITICAL: Failed to requeue activity entries. Data loss occurred.")
		return
	}
	w.log.Warn().Int("count", len(items)).Msg("Requeued activity entries")

	select {
	case <-ctx.Done():
	case <-time.After(activityRequeuePause):
	}
}

func (w *ActivityWorker) shutdown(batch []model.ActivityLog) {
	w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ActivityShutdownTimeout)
	defer cancel()
	w.flushSafe(shutdownCtx, batch)
}
