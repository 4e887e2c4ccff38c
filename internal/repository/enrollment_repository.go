package repository

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/learnhub-backend/internal/model"
)

const enrollmentColumns = `e.id, e.user_id, u.name, u.email, e.course_id, c.title, e.status, e.progress_percent,
	e.payment_id, e.enrolled_at, e.completed_at`

const enrollmentFrom = ` FROM enrollments e JOIN users u ON u.id = e.user_id JOIN courses c ON c.id = e.course_id`

// EnrollmentRepository handles enrollment data access.
type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

func scanEnrollment(row pgx.Row) (*model.Enrollment, error) {
	e := &model.Enrollment{}
	err := row.Scan(&e.ID, &e.UserID, &e.UserName, &e.UserEmail, &e.CourseID, &e.CourseTitle, &e.Status,
		&e.ProgressPercent, &e.PaymentID, &e.EnrolledAt, &e.CompletedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return e, nil
}

// Upsert enrolls a user, re-activating a cancelled enrollment. Active and
// completed enrollments are returned unchanged.
func (r *EnrollmentRepository) Upsert(ctx context.Context, userID, courseID uuid.UUID, paymentID *uuid.UUID) (*model.Enrollment, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx,
		`INSERT INTO enrollments (user_id, course_id, payment_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, course_id) DO UPDATE
		 SET status = CASE WHEN enrollments.status = 'CANCELLED' THEN 'ACTIVE' ELSE enrollments.status END,
		     payment_id = COALESCE(EXCLUDED.payment_id, enrollments.payment_id),
		     enrolled_at = CASE WHEN enrollments.status = 'CANCELLED' THEN NOW() ELSE enrollments.enrolled_at END
		 RETURNING id`,
		userID, courseID, paymentID,
	).Scan(&id)
	if err != nil {
		return nil, mapError(err)
	}
	return r.GetByID(ctx, id)
}

// GetByID retrieves an enrollment.
func (r *EnrollmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Enrollment, error) {
	return scanEnrollment(r.pool.QueryRow(ctx, `SELECT `+enrollmentColumns+enrollmentFrom+` WHERE e.id = $1`, id))
}

// GetByUserAndCourse retrieves the enrollment of a user in a course.
func (r *EnrollmentRepository) GetByUserAndCourse(ctx context.Context, userID, courseID uuid.UUID) (*model.Enrollment, error) {
	return scanEnrollment(r.pool.QueryRow(ctx,
		`SELECT `+enrollmentColumns+enrollmentFrom+` WHERE e.user_id = $1 AND e.course_id = $2`, userID, courseID))
}

// ListByUser returns a user's enrollments, newest first.
func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID uuid.UUID, p model.EnrollmentListParams) ([]model.Enrollment, int, error) {
	return r.list(ctx, `e.user_id = $1`, userID, p)
}

// ListByCourse returns the enrollments of a course, newest first.
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID uuid.UUID, p model.EnrollmentListParams) ([]model.Enrollment, int, error) {
	return r.list(ctx, `e.course_id = $1`, courseID, p)
}

func (r *EnrollmentRepository) list(ctx context.Context, cond string, id uuid.UUID, p model.EnrollmentListParams) ([]model.Enrollment, int, error) {
	where := ` WHERE ` + cond
	args := []interface{}{id}
	if p.Status != "" {
		args = append(args, p.Status)
		where += ` AND e.status = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM enrollments e`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, p.PerPage, p.Offset())
	rows, err := r.pool.Query(ctx,
		`SELECT `+enrollmentColumns+enrollmentFrom+where+
			` ORDER BY e.enrolled_at DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]model.Enrollment, 0)
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *e)
	}
	return list, total, rows.Err()
}

// UpdateProgress stores the recomputed progress percentage.
func (r *EnrollmentRepository) UpdateProgress(ctx context.Context, id uuid.UUID, percent float64) error {
	return expectAffected(r.pool.Exec(ctx, `UPDATE enrollments SET progress_percent = $1 WHERE id = $2`, percent, id))
}

// MarkCompleted flips an ACTIVE enrollment to COMPLETED. It reports whether
// this call made the transition.
func (r *EnrollmentRepository) MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE enrollments SET status = 'COMPLETED', completed_at = NOW() WHERE id = $1 AND status = 'ACTIVE'`, id)
	if err != nil {
		return false, mapError(err)
	}
	return tag.RowsAffected() == 1, nil
}

// Cancel marks an ACTIVE enrollment as CANCELLED.
func (r *EnrollmentRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	return expectAffected(r.pool.Exec(ctx,
		`UPDATE enrollments SET status = 'CANCELLED' WHERE id = $1 AND status = 'ACTIVE'`, id))
}

// CountByStatus returns enrollment totals keyed by status.
func (r *EnrollmentRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM enrollments GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
