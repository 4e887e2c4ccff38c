package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProgressRepository tracks completed lessons.
type ProgressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

// MarkComplete records a lesson as completed. Repeated calls are no-ops.
func (r *ProgressRepository) MarkComplete(ctx context.Context, userID, courseID, lessonID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO progress (user_id, course_id, lesson_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, lesson_id) DO NOTHING`,
		userID, courseID, lessonID)
	return mapError(err)
}

// CompletedLessonIDs returns the lessons of a course the user has completed.
// Only lessons that still belong to the course are counted.
func (r *ProgressRepository) CompletedLessonIDs(ctx context.Context, userID, courseID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.lesson_id
		 FROM progress p JOIN lessons l ON l.id = p.lesson_id
		 WHERE p.user_id = $1 AND l.course_id = $2
		 ORDER BY p.completed_at`,
		userID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
