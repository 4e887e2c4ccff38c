package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/learnhub-backend/internal/model"
)

const reviewColumns = `r.id, r.user_id, u.name, r.course_id, r.rating, r.comment, r.created_at, r.updated_at`

// ReviewRepository handles course reviews.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository creates a new ReviewRepository.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

func scanReview(row pgx.Row) (*model.Review, error) {
	rv := &model.Review{}
	err := row.Scan(&rv.ID, &rv.UserID, &rv.UserName, &rv.CourseID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return rv, nil
}

// Create inserts a review. A second review by the same user returns ErrDuplicate.
func (r *ReviewRepository) Create(ctx context.Context, rv *model.Review) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO reviews (user_id, course_id, rating, comment)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		rv.UserID, rv.CourseID, rv.Rating, rv.Comment,
	).Scan(&rv.ID, &rv.CreatedAt, &rv.UpdatedAt)
	return mapError(err)
}

// GetByID retrieves a review.
func (r *ReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	return scanReview(r.pool.QueryRow(ctx,
		`SELECT `+reviewColumns+` FROM reviews r JOIN users u ON u.id = r.user_id WHERE r.id = $1`, id))
}

// ListByCourse returns reviews of a course, newest first.
func (r *ReviewRepository) ListByCourse(ctx context.Context, courseID uuid.UUID, p model.PageQuery) ([]model.Review, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE course_id = $1`, courseID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+reviewColumns+`
		 FROM reviews r JOIN users u ON u.id = r.user_id
		 WHERE r.course_id = $1
		 ORDER BY r.created_at DESC
		 LIMIT $2 OFFSET $3`,
		courseID, p.PerPage, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]model.Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *rv)
	}
	return list, total, rows.Err()
}

// Update changes rating and comment.
func (r *ReviewRepository) Update(ctx context.Context, rv *model.Review) error {
	return expectAffected(r.pool.Exec(ctx,
		`UPDATE reviews SET rating = $1, comment = $2, updated_at = NOW() WHERE id = $3`,
		rv.Rating, rv.Comment, rv.ID))
}

// Delete removes a review.
func (r *ReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return expectAffected(r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id))
}
