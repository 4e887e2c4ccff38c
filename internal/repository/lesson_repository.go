package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/learnhub-backend/internal/model"
)

const lessonColumns = `l.id, l.module_id, l.course_id, l.title, l.content, l.video_url, l.duration_minutes,
	l.position, l.is_preview, l.created_at, l.updated_at`

// LessonRepository handles lesson data access.
type LessonRepository struct {
	pool *pgxpool.Pool
}

// NewLessonRepository creates a new LessonRepository.
func NewLessonRepository(pool *pgxpool.Pool) *LessonRepository {
	return &LessonRepository{pool: pool}
}

func scanLesson(row pgx.Row) (*model.Lesson, error) {
	l := &model.Lesson{}
	err := row.Scan(&l.ID, &l.ModuleID, &l.CourseID, &l.Title, &l.Content, &l.VideoURL, &l.DurationMinutes,
		&l.Position, &l.IsPreview, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return l, nil
}

// Create inserts a lesson. A negative position appends it to the module.
func (r *LessonRepository) Create(ctx context.Context, l *model.Lesson) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO lessons (module_id, course_id, title, content, video_url, duration_minutes, position, is_preview)
		 VALUES ($1, $2, $3, $4, $5, $6,
		         CASE WHEN $7::int >= 0 THEN $7::int
		              ELSE (SELECT COALESCE(MAX(position) + 1, 0) FROM lessons WHERE module_id = $1) END,
		         $8)
		 RETURNING id, position, created_at, updated_at`,
		l.ModuleID, l.CourseID, l.Title, l.Content, l.VideoURL, l.DurationMinutes, l.Position, l.IsPreview,
	).Scan(&l.ID, &l.Position, &l.CreatedAt, &l.UpdatedAt)
	return mapError(err)
}

// GetByID retrieves a lesson.
func (r *LessonRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Lesson, error) {
	return scanLesson(r.pool.QueryRow(ctx, `SELECT `+lessonColumns+` FROM lessons l WHERE l.id = $1`, id))
}

// ListByCourse returns all lessons of a course ordered by module then lesson position.
func (r *LessonRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Lesson, error) {
	return r.list(ctx,
		`SELECT `+lessonColumns+`
		 FROM lessons l JOIN modules m ON m.id = l.module_id
		 WHERE l.course_id = $1
		 ORDER BY m.position, m.created_at, l.position, l.created_at`, courseID)
}

// ListByModule returns the lessons of one module in order.
func (r *LessonRepository) ListByModule(ctx context.Context, moduleID uuid.UUID) ([]model.Lesson, error) {
	return r.list(ctx,
		`SELECT `+lessonColumns+` FROM lessons l WHERE l.module_id = $1 ORDER BY l.position, l.created_at`, moduleID)
}

func (r *LessonRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.Lesson, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lessons := make([]model.Lesson, 0)
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, *l)
	}
	return lessons, rows.Err()
}

// CountByCourse returns the number of lessons in a course.
func (r *LessonRepository) CountByCourse(ctx context.Context, courseID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lessons WHERE course_id = $1`, courseID).Scan(&n)
	return n, err
}

// Update modifies a lesson.
func (r *LessonRepository) Update(ctx context.Context, l *model.Lesson) error {
	return expectAffected(r.pool.Exec(ctx,
		`UPDATE lessons
		 SET title = $1, content = $2, video_url = $3, duration_minutes = $4, position = $5,
		     is_preview = $6, updated_at = NOW()
		 WHERE id = $7`,
		l.Title, l.Content, l.VideoURL, l.DurationMinutes, l.Position, l.IsPreview, l.ID,
	))
}

// Delete removes a lesson.
func (r *LessonRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return expectAffected(r.pool.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id))
}
