package repository

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/learnhub-backend/internal/model"
)

var activityLogCopyColumns = []string{"user_id", "action", "entity_type", "entity_id", "metadata", "ip_address", "user_agent", "created_at"}

// ActivityLogRepository stores the audit trail.
type ActivityLogRepository struct {
	pool *pgxpool.Pool
}

// NewActivityLogRepository creates a new ActivityLogRepository.
func NewActivityLogRepository(pool *pgxpool.Pool) *ActivityLogRepository {
	return &ActivityLogRepository{pool: pool}
}

// InsertBatch writes logs with a single COPY.
func (r *ActivityLogRepository) InsertBatch(ctx context.Context, logs []model.ActivityLog) (int64, error) {
	return r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"activity_logs"},
		activityLogCopyColumns,
		pgx.CopyFromSlice(len(logs), func(i int) ([]interface{}, error) {
			l := logs[i]
			return []interface{}{l.UserID, l.Action, l.EntityType, l.EntityID, l.Metadata, l.IPAddress, l.UserAgent, l.CreatedAt}, nil
		}),
	)
}

// Insert writes one log row.
func (r *ActivityLogRepository) Insert(ctx context.Context, l *model.ActivityLog) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO activity_logs (user_id, action, entity_type, entity_id, metadata, ip_address, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.UserID, l.Action, l.EntityType, l.EntityID, l.Metadata, l.IPAddress, l.UserAgent, l.CreatedAt)
	return mapError(err)
}

// List returns activity logs matching the filter, newest first.
func (r *ActivityLogRepository) List(ctx context.Context, f model.ActivityLogFilter) ([]model.ActivityLog, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	if f.UserID != "" {
		args = append(args, f.UserID)
		where += ` AND user_id::text = $` + strconv.Itoa(len(args))
	}
	if f.Action != "" {
		args = append(args, f.Action)
		where += ` AND action = $` + strconv.Itoa(len(args))
	}
	if f.EntityType != "" {
		args = append(args, f.EntityType)
		where += ` AND entity_type = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activity_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.PerPage, f.Offset())
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, action, entity_type, entity_id, metadata, ip_address, user_agent, created_at
		 FROM activity_logs`+where+
			` ORDER BY created_at DESC, id DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	logs := make([]model.ActivityLog, 0)
	for rows.Next() {
		var l model.ActivityLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Action, &l.EntityType, &l.EntityID, &l.Metadata,
			&l.IPAddress, &l.UserAgent, &l.CreatedAt); err != nil {
			return nil, 0, err
		}
		logs = append(logs, l)
	}
	return logs, total, rows.Err()
}
