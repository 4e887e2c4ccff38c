package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/learnhub-backend/internal/model"
)

// OTPRepository stores hashed one-time codes.
type OTPRepository struct {
	pool *pgxpool.Pool
}

// NewOTPRepository creates a new OTPRepository.
func NewOTPRepository(pool *pgxpool.Pool) *OTPRepository {
	return &OTPRepository{pool: pool}
}

// Create stores a new code and invalidates older unconsumed codes of the same purpose.
func (r *OTPRepository) Create(ctx context.Context, o *model.OTP) error {
	if _, err := r.pool.Exec(ctx,
		`UPDATE otps SET consumed_at = NOW()
		 WHERE user_id = $1 AND purpose = $2 AND consumed_at IS NULL`,
		o.UserID, o.Purpose); err != nil {
		return err
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO otps (user_id, purpose, code_hash, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, attempts, created_at`,
		o.UserID, o.Purpose, o.CodeHash, o.ExpiresAt,
	).Scan(&o.ID, &o.Attempts, &o.CreatedAt)
	return mapError(err)
}

// Latest returns the most recent unconsumed code for a purpose.
func (r *OTPRepository) Latest(ctx context.Context, userID uuid.UUID, purpose model.OTPPurpose) (*model.OTP, error) {
	o := &model.OTP{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, purpose, code_hash, attempts, expires_at, consumed_at, created_at
		 FROM otps
		 WHERE user_id = $1 AND purpose = $2 AND consumed_at IS NULL
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID, purpose,
	).Scan(&o.ID, &o.UserID, &o.Purpose, &o.CodeHash, &o.Attempts, &o.ExpiresAt, &o.ConsumedAt, &o.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return o, nil
}

// ReserveAttempt counts one try against a live code before it is checked and
// returns the new count. It fails with ErrNotFound when the code is consumed,
// expired at now or already at maxAttempts, so parallel guesses cannot
// exceed the cap.
func (r *OTPRepository) ReserveAttempt(ctx context.Context, id uuid.UUID, now time.Time, maxAttempts int) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`UPDATE otps SET attempts = attempts + 1
		 WHERE id = $1 AND consumed_at IS NULL AND expires_at > $2 AND attempts < $3
		 RETURNING attempts`,
		id, now, maxAttempts,
	).Scan(&n)
	return n, mapError(err)
}

// Consume marks a code as used. It fails with ErrNotFound when the code was
// already consumed or went over maxAttempts, so a code can be redeemed once.
func (r *OTPRepository) Consume(ctx context.Context, id uuid.UUID, maxAttempts int) error {
	return expectAffected(r.pool.Exec(ctx,
		`UPDATE otps SET consumed_at = NOW()
		 WHERE id = $1 AND consumed_at IS NULL AND attempts <= $2`, id, maxAttempts))
}

// Purge deletes expired or consumed codes older than cutoff.
func (r *OTPRepository) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM otps WHERE (expires_at < $1) OR (consumed_at IS NOT NULL AND consumed_at < $1)`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
