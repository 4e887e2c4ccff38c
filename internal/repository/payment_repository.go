package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/learnhub-backend/internal/model"
)

const paymentColumns = `p.id, p.user_id, p.course_id, c.title, p.provider, p.provider_ref, p.amount_cents, p.currency,
	p.status, p.checkout_url, p.failure_reason, p.created_at, p.updated_at`

const paymentFrom = ` FROM payments p JOIN courses c ON c.id = p.course_id`

// PaymentRepository handles payment records.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	err := row.Scan(&p.ID, &p.UserID, &p.CourseID, &p.CourseTitle, &p.Provider, &p.ProviderRef, &p.AmountCents,
		&p.Currency, &p.Status, &p.CheckoutURL, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

// Create inserts a PENDING payment.
func (r *PaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	p.Status = model.PaymentStatusPending
	err := r.pool.QueryRow(ctx,
		`INSERT INTO payments (user_id, course_id, provider, amount_cents, currency, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		p.UserID, p.CourseID, p.Provider, p.AmountCents, p.Currency, p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapError(err)
}

// SetCheckout stores the gateway reference and redirect URL of a payment.
func (r *PaymentRepository) SetCheckout(ctx context.Context, id uuid.UUID, providerRef, checkoutURL string) error {
	return expectAffected(r.pool.Exec(ctx,
		`UPDATE payments SET provider_ref = $1, checkout_url = $2, updated_at = NOW() WHERE id = $3`,
		providerRef, checkoutURL, id))
}

// GetByID retrieves a payment.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentColumns+paymentFrom+` WHERE p.id = $1`, id))
}

// GetByProviderRef retrieves a payment by the gateway's reference.
func (r *PaymentRepository) GetByProviderRef(ctx context.Context, provider model.PaymentProvider, ref string) (*model.Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+paymentFrom+` WHERE p.provider = $1 AND p.provider_ref = $2`, provider, ref))
}

// Transition moves a PENDING payment to status. It reports false when the
// payment was already settled, which makes webhook redelivery harmless.
func (r *PaymentRepository) Transition(ctx context.Context, id uuid.UUID, status model.PaymentStatus, reason *string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE payments SET status = $1, failure_reason = $2, updated_at = NOW()
		 WHERE id = $3 AND status = 'PENDING'`,
		status, reason, id)
	if err != nil {
		return false, mapError(err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByUser returns a user's payments, newest first.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID uuid.UUID, p model.PageQuery) ([]model.Payment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+paymentFrom+` WHERE p.user_id = $1 ORDER BY p.created_at DESC LIMIT $2 OFFSET $3`,
		userID, p.PerPage, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]model.Payment, 0)
	for rows.Next() {
		pm, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *pm)
	}
	return list, total, rows.Err()
}

// ExpireStale marks PENDING payments created before cutoff as EXPIRED.
func (r *PaymentRepository) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE payments SET status = 'EXPIRED', failure_reason = 'checkout not completed in time', updated_at = NOW()
		 WHERE status = 'PENDING' AND created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// RevenueByCurrency sums settled payments per currency.
func (r *PaymentRepository) RevenueByCurrency(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT currency, COALESCE(SUM(amount_cents), 0) FROM payments WHERE status = 'SUCCEEDED' GROUP BY currency`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	revenue := make(map[string]int64)
	for rows.Next() {
		var currency string
		var sum int64
		if err := rows.Scan(&currency, &sum); err != nil {
			return nil, err
		}
		revenue[currency] = sum
	}
	return revenue, rows.Err()
}
