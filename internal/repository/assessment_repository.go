package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/learnhub-backend/internal/model"
)

const assessmentColumns = `a.id, a.course_id, a.module_id, a.title, a.description, a.passing_score, a.max_attempts,
	a.time_limit_minutes, a.created_at, a.updated_at,
	(SELECT COUNT(*) FROM assessment_questions q WHERE q.assessment_id = a.id)`

const questionColumns = `id, assessment_id, question_text, question_type, options, correct_answer, points, position`

// AssessmentRepository handles assessments and their questions.
type AssessmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssessmentRepository creates a new AssessmentRepository.
func NewAssessmentRepository(pool *pgxpool.Pool) *AssessmentRepository {
	return &AssessmentRepository{pool: pool}
}

func scanAssessment(row pgx.Row) (*model.Assessment, error) {
	a := &model.Assessment{}
	err := row.Scan(&a.ID, &a.CourseID, &a.ModuleID, &a.Title, &a.Description, &a.PassingScore, &a.MaxAttempts,
		&a.TimeLimitMinutes, &a.CreatedAt, &a.UpdatedAt, &a.QuestionCount)
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

func scanQuestion(row pgx.Row) (*model.AssessmentQuestion, error) {
	q := &model.AssessmentQuestion{}
	err := row.Scan(&q.ID, &q.AssessmentID, &q.QuestionText, &q.QuestionType, &q.Options, &q.CorrectAnswer, &q.Points, &q.Position)
	if err != nil {
		return nil, mapError(err)
	}
	return q, nil
}

// Create inserts a new assessment.
func (r *AssessmentRepository) Create(ctx context.Context, a *model.Assessment) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO assessments (course_id, module_id, title, description, passing_score, max_attempts, time_limit_minutes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		a.CourseID, a.ModuleID, a.Title, a.Description, a.PassingScore, a.MaxAttempts, a.TimeLimitMinutes,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return mapError(err)
}

// GetByID retrieves an assessment with its question count.
func (r *AssessmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error) {
	return scanAssessment(r.pool.QueryRow(ctx, `SELECT `+assessmentColumns+` FROM assessments a WHERE a.id = $1`, id))
}

// ListByCourse returns all assessments of a course.
func (r *AssessmentRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Assessment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+assessmentColumns+` FROM assessments a WHERE a.course_id = $1 ORDER BY a.created_at`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]model.Assessment, 0)
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// CountByCourse returns the number of assessments in a course.
func (r *AssessmentRepository) CountByCourse(ctx context.Context, courseID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM assessments WHERE course_id = $1`, courseID).Scan(&n)
	return n, err
}

// Update modifies an assessment.
func (r *AssessmentRepository) Update(ctx context.Context, a *model.Assessment) error {
	return expectAffected(r.pool.Exec(ctx,
		`UPDATE assessments
		 SET module_id = $1, title = $2, description = $3, passing_score = $4, max_attempts = $5,
		     time_limit_minutes = $6, updated_at = NOW()
		 WHERE id = $7`,
		a.ModuleID, a.Title, a.Description, a.PassingScore, a.MaxAttempts, a.TimeLimitMinutes, a.ID,
	))
}

// Delete removes an assessment with its questions and answers.
func (r *AssessmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return expectAffected(r.pool.Exec(ctx, `DELETE FROM assessments WHERE id = $1`, id))
}

// ─── Questions ─────────────────────────────────────────────────────

// CreateQuestion inserts a question. A negative position appends it.
func (r *AssessmentRepository) CreateQuestion(ctx context.Context, q *model.AssessmentQuestion) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO assessment_questions (assessment_id, question_text, question_type, options, correct_answer, points, position)
		 VALUES ($1, $2, $3, $4, $5, $6,
		         CASE WHEN $7::int >= 0 THEN $7::int
		              ELSE (SELECT COALESCE(MAX(position) + 1, 0) FROM assessment_questions WHERE assessment_id = $1) END)
		 RETURNING id, position`,
		q.AssessmentID, q.QuestionText, q.QuestionType, q.Options, q.CorrectAnswer, q.Points, q.Position,
	).Scan(&q.ID, &q.Position)
	return mapError(err)
}

// GetQuestion retrieves one question.
func (r *AssessmentRepository) GetQuestion(ctx context.Context, id uuid.UUID) (*model.AssessmentQuestion, error) {
	return scanQuestion(r.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM assessment_questions WHERE id = $1`, id))
}

// ListQuestions returns the questions of an assessment in order.
func (r *AssessmentRepository) ListQuestions(ctx context.Context, assessmentID uuid.UUID) ([]model.AssessmentQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM assessment_questions WHERE assessment_id = $1 ORDER BY position, id`,
		assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]model.AssessmentQuestion, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// UpdateQuestion modifies a question.
func (r *AssessmentRepository) UpdateQuestion(ctx context.Context, q *model.AssessmentQuestion) error {
	return expectAffected(r.pool.Exec(ctx,
		`UPDATE assessment_questions
		 SET question_text = $1, question_type = $2, options = $3, correct_answer = $4, points = $5, position = $6
		 WHERE id = $7`,
		q.QuestionText, q.QuestionType, q.Options, q.CorrectAnswer, q.Points, q.Position, q.ID,
	))
}

// DeleteQuestion removes a question.
func (r *AssessmentRepository) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	return expectAffected(r.pool.Exec(ctx, `DELETE FROM assessment_questions WHERE id = $1`, id))
}
