package repository

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/learnhub-backend/internal/model"
)

const courseColumns = `c.id, c.organization_id, c.instructor_id, COALESCE(u.name, ''), c.title, c.slug, c.description,
	c.category, c.level, c.price_cents, c.currency, c.thumbnail_url, c.status, c.rating_avg, c.rating_count,
	c.published_at, c.created_at, c.updated_at`

const courseFrom = ` FROM courses c LEFT JOIN users u ON u.id = c.instructor_id`

// CourseRepository handles course data access.
type CourseRepository struct {
	pool *pgxpool.Pool
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{pool: pool}
}

func scanCourse(row pgx.Row) (*model.Course, error) {
	c := &model.Course{}
	err := row.Scan(&c.ID, &c.OrganizationID, &c.InstructorID, &c.InstructorName, &c.Title, &c.Slug, &c.Description,
		&c.Category, &c.Level, &c.PriceCents, &c.Currency, &c.ThumbnailURL, &c.Status, &c.RatingAvg, &c.RatingCount,
		&c.PublishedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

// Create inserts a new course. A taken slug returns ErrDuplicate.
func (r *CourseRepository) Create(ctx context.Context, c *model.Course) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO courses (organization_id, instructor_id, title, slug, description, category, level, price_cents, currency, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at`,
		c.OrganizationID, c.InstructorID, c.Title, c.Slug, c.Description, c.Category, c.Level, c.PriceCents, c.Currency, c.Status,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return mapError(err)
}

// GetByID retrieves a course with its instructor name.
func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	return scanCourse(r.pool.QueryRow(ctx, `SELECT `+courseColumns+courseFrom+` WHERE c.id = $1`, id))
}

// CourseScope narrows a course listing.
type CourseScope struct {
	InstructorID  *uuid.UUID
	PublishedOnly bool
}

// List retrieves courses matching the filters with pagination.
func (r *CourseRepository) List(ctx context.Context, p model.CourseListParams, scope CourseScope) ([]model.Course, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	add := func(clause string, v interface{}) {
		args = append(args, v)
		where += ` AND ` + clause + strconv.Itoa(len(args))
	}

	if scope.PublishedOnly {
		add(`c.status = $`, model.CourseStatusPublished)
	} else if p.Status != "" {
		add(`c.status = $`, p.Status)
	}
	if scope.InstructorID != nil {
		add(`c.instructor_id = $`, *scope.InstructorID)
	}
	if p.Category != "" {
		add(`c.category = $`, p.Category)
	}
	if p.Level != "" {
		add(`c.level = $`, p.Level)
	}
	if p.OrganizationID != "" {
		add(`c.organization_id::text = $`, p.OrganizationID)
	}
	if p.Query != "" {
		args = append(args, "%"+p.Query+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (c.title ILIKE $` + n + ` OR c.description ILIKE $` + n + `)`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM courses c`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, p.PerPage, p.Offset())
	rows, err := r.pool.Query(ctx,
		`SELECT `+courseColumns+courseFrom+where+
			` ORDER BY c.published_at DESC NULLS LAST, c.created_at DESC LIMIT $`+strconv.Itoa(len(args)-1)+
			` OFFSET $`+strconv.Itoa(len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	courses := make([]model.Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, 0, err
		}
		courses = append(courses, *c)
	}
	return courses, total, rows.Err()
}

// Update modifies the editable fields of a course.
func (r *CourseRepository) Update(ctx context.Context, c *model.Course) error {
	return expectAffected(r.pool.Exec(ctx,
		`UPDATE courses
		 SET title = $1, description = $2, category = $3, level = $4, price_cents = $5, currency = $6,
		     organization_id = $7, updated_at = NOW()
		 WHERE id = $8`,
		c.Title, c.Description, c.Category, c.Level, c.PriceCents, c.Currency, c.OrganizationID, c.ID,
	))
}

// UpdateStatus moves a course through its lifecycle. published_at is set on first publish.
func (r *CourseRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.CourseStatus) error {
	return expectAffected(r.pool.Exec(ctx,
		`UPDATE courses
		 SET status = $1,
		     published_at = CASE WHEN $1 = 'PUBLISHED' THEN COALESCE(published_at, NOW()) ELSE published_at END,
		     updated_at = NOW()
		 WHERE id = $2`,
		status, id,
	))
}

// UpdateThumbnail sets the thumbnail URL.
func (r *CourseRepository) UpdateThumbnail(ctx context.Context, id uuid.UUID, url string) error {
	return expectAffected(r.pool.Exec(ctx,
		`UPDATE courses SET thumbnail_url = $1, updated_at = NOW() WHERE id = $2`, url, id))
}

// Delete removes a course and, through cascades, all of its content.
func (r *CourseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return expectAffected(r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id))
}

// RefreshRating recomputes rating_avg and rating_count from reviews.
func (r *CourseRepository) RefreshRating(ctx context.Context, id uuid.UUID) (model.RatingSummary, error) {
	var s model.RatingSummary
	err := r.pool.QueryRow(ctx,
		`UPDATE courses c
		 SET rating_avg = agg.avg, rating_count = agg.cnt, updated_at = NOW()
		 FROM (
			SELECT COALESCE(ROUND(AVG(rating)::numeric, 2), 0) AS avg, COUNT(*) AS cnt
			FROM reviews WHERE course_id = $1
		 ) AS agg
		 WHERE c.id = $1
		 RETURNING c.rating_avg, c.rating_count`, id,
	).Scan(&s.Average, &s.Count)
	return s, mapError(err)
}

// CountByStatus returns course totals keyed by status.
func (r *CourseRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM courses GROUP BY status`)
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
