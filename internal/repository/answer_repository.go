package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/learnhub-backend/internal/model"
)

// AnswerRepository stores graded answers.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// CountAttempts returns how many attempts a user made on an assessment.
func (r *AnswerRepository) CountAttempts(ctx context.Context, assessmentID, userID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(attempt), 0) FROM answers WHERE assessment_id = $1 AND user_id = $2`,
		assessmentID, userID,
	).Scan(&n)
	return n, err
}

// InsertAttempt writes all answers of one attempt in a single COPY.
// A concurrent submission of the same attempt number fails with ErrDuplicate.
func (r *AnswerRepository) InsertAttempt(ctx context.Context, answers []model.Answer) error {
	if len(answers) == 0 {
		return nil
	}

	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"answers"},
		[]string{"id", "assessment_id", "question_id", "user_id", "attempt", "response", "is_correct", "points_awarded", "created_at"},
		pgx.CopyFromSlice(len(answers), func(i int) ([]interface{}, error) {
			a := answers[i]
			return []interface{}{a.ID, a.AssessmentID, a.QuestionID, a.UserID, a.Attempt, a.Response, a.IsCorrect, a.PointsAwarded, a.CreatedAt}, nil
		}),
	)
	return mapError(err)
}

// ListAttempts returns per-attempt totals for a user, oldest first.
func (r *AnswerRepository) ListAttempts(ctx context.Context, assessmentID, userID uuid.UUID) ([]model.AttemptSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.attempt, SUM(a.points_awarded), SUM(q.points), MIN(a.created_at)
		 FROM answers a JOIN assessment_questions q ON q.id = a.question_id
		 WHERE a.assessment_id = $1 AND a.user_id = $2
		 GROUP BY a.attempt
		 ORDER BY a.attempt`,
		assessmentID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]model.AttemptSummary, 0)
	for rows.Next() {
		var s model.AttemptSummary
		if err := rows.Scan(&s.Attempt, &s.Score, &s.MaxScore, &s.SubmittedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// CountPassedAssessments returns how many assessments of a course the user has
// passed in at least one attempt.
func (r *AnswerRepository) CountPassedAssessments(ctx context.Context, courseID, userID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM assessments s
		 WHERE s.course_id = $1
		   AND EXISTS (
			SELECT 1 FROM (
				SELECT SUM(a.points_awarded) AS score, SUM(q.points) AS max_score
				FROM answers a JOIN assessment_questions q ON q.id = a.question_id
				WHERE a.assessment_id = s.id AND a.user_id = $2
				GROUP BY a.attempt
			) t
			WHERE t.max_score > 0 AND t.score * 100 >= s.passing_score * t.max_score
		   )`,
		courseID, userID,
	).Scan(&n)
	return n, err
}
