package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/grading"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/repository"
)

const defaultQuestionPoints = 1

// AssessmentService handles assessment authoring, grading and attempts.
type AssessmentService struct {
	courses       CourseStore
	modules       ModuleStore
	assessments   AssessmentStore
	answers       AnswerStore
	enrollments   EnrollmentStore
	progress      *ProgressService
	notifications *NotificationService
	activity      *ActivityService
	log           zerolog.Logger
	now           func() time.Time
}

// NewAssessmentService creates a new AssessmentService.
func NewAssessmentService(
	courses CourseStore,
	modules ModuleStore,
	assessments AssessmentStore,
	answers AnswerStore,
	enrollments EnrollmentStore,
	progress *ProgressService,
	notifications *NotificationService,
	activity *ActivityService,
	log zerolog.Logger,
) *AssessmentService {
	return &AssessmentService{
		courses:       courses,
		modules:       modules,
		assessments:   assessments,
		answers:       answers,
		enrollments:   enrollments,
		progress:      progress,
		notifications: notifications,
		activity:      activity,
		log:           log.With().Str("component", "assessments").Logger(),
		now:           time.Now,
	}
}

// ----------------------------------------------------------------
// Authoring
// ----------------------------------------------------------------

// Create adds an assessment to a course.
func (s *AssessmentService) Create(ctx context.Context, actor *Actor, courseID uuid.UUID, req model.AssessmentRequest) (*model.Assessment, error) {
	if _, err := managedCourse(ctx, s.courses, actor, courseID); err != nil {
		return nil, err
	}
	a := &model.Assessment{CourseID: courseID}
	if err := s.apply(ctx, a, req); err != nil {
		return nil, err
	}
	if err := s.assessments.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AssessmentService) apply(ctx context.Context, a *model.Assessment, req model.AssessmentRequest) error {
	if req.ModuleID != nil {
		m, err := s.modules.GetByID(ctx, *req.ModuleID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: module not found", ErrActionForbidden)
			}
			return err
		}
		if m.CourseID != a.CourseID {
			return fmt.Errorf("%w: module belongs to another course", ErrActionForbidden)
		}
	}
	a.Title = strings.TrimSpace(req.Title)
	a.Description = req.Description
	a.ModuleID = req.ModuleID
	a.PassingScore = req.PassingScore
	a.MaxAttempts = req.MaxAttempts
	a.TimeLimitMinutes = req.TimeLimitMinutes
	return nil
}

// ListByCourse returns the assessments of a course to managers and enrolled students.
func (s *AssessmentService) ListByCourse(ctx context.Context, actor *Actor, courseID uuid.UUID) ([]model.Assessment, error) {
	c, err := studyCourse(ctx, s.courses, s.enrollments, actor, courseID)
	if err != nil {
		return nil, err
	}
	if err := requireContentAccess(ctx, s.enrollments, actor, c); err != nil {
		return nil, err
	}
	return s.assessments.ListByCourse(ctx, courseID)
}

// Get returns an assessment with its questions. Answer keys are only
// included for course managers.
func (s *AssessmentService) Get(ctx context.Context, actor *Actor, id uuid.UUID) (*model.Assessment, error) {
	a, c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireContentAccess(ctx, s.enrollments, actor, c); err != nil {
		return nil, err
	}
	questions, err := s.assessments.ListQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageCourse(c) {
		for i := range questions {
			questions[i] = questions[i].WithoutAnswer()
		}
	}
	a.Questions = questions
	return a, nil
}

func (s *AssessmentService) load(ctx context.Context, id uuid.UUID) (*model.Assessment, *model.Course, error) {
	a, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	c, err := s.courses.GetByID(ctx, a.CourseID)
	if err != nil {
		return nil, nil, err
	}
	return a, c, nil
}

func (s *AssessmentService) loadManaged(ctx context.Context, actor *Actor, id uuid.UUID) (*model.Assessment, error) {
	a, c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageCourse(c) {
		return nil, ErrForbidden
	}
	return a, nil
}

// Update edits an assessment's settings.
func (s *AssessmentService) Update(ctx context.Context, actor *Actor, id uuid.UUID, req model.AssessmentRequest) (*model.Assessment, error) {
	a, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, a, req); err != nil {
		return nil, err
	}
	if err := s.assessments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes an assessment with its questions and answers.
func (s *AssessmentService) Delete(ctx context.Context, actor *Actor, id uuid.UUID) error {
	if _, err := s.loadManaged(ctx, actor, id); err != nil {
		return err
	}
	return s.assessments.Delete(ctx, id)
}

// CreateQuestion adds a question after checking that its answer key parses.
func (s *AssessmentService) CreateQuestion(ctx context.Context, actor *Actor, assessmentID uuid.UUID, req model.QuestionRequest) (*model.AssessmentQuestion, error) {
	if _, err := s.loadManaged(ctx, actor, assessmentID); err != nil {
		return nil, err
	}
	q := &model.AssessmentQuestion{AssessmentID: assessmentID}
	if err := applyQuestionRequest(q, req); err != nil {
		return nil, err
	}
	q.Position = positionOrAppend(req.Position)
	if err := s.assessments.CreateQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// UpdateQuestion edits a question. Past answers keep their recorded grades.
func (s *AssessmentService) UpdateQuestion(ctx context.Context, actor *Actor, id uuid.UUID, req model.QuestionRequest) (*model.AssessmentQuestion, error) {
	q, err := s.assessments.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadManaged(ctx, actor, q.AssessmentID); err != nil {
		return nil, err
	}
	if err := applyQuestionRequest(q, req); err != nil {
		return nil, err
	}
	if req.Position != nil {
		q.Position = *req.Position
	}
	if err := s.assessments.UpdateQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// DeleteQuestion removes a question.
func (s *AssessmentService) DeleteQuestion(ctx context.Context, actor *Actor, id uuid.UUID) error {
	q, err := s.assessments.GetQuestion(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.loadManaged(ctx, actor, q.AssessmentID); err != nil {
		return err
	}
	return s.assessments.DeleteQuestion(ctx, id)
}

func applyQuestionRequest(q *model.AssessmentQuestion, req model.QuestionRequest) error {
	if err := grading.ValidateKey(req.QuestionType, req.CorrectAnswer); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAnswerKey, err)
	}
	q.QuestionText = strings.TrimSpace(req.QuestionText)
	q.QuestionType = req.QuestionType
	q.Options = req.Options
	q.CorrectAnswer = req.CorrectAnswer
	q.Points = req.Points
	if q.Points <= 0 {
		q.Points = defaultQuestionPoints
	}
	return nil
}

// ----------------------------------------------------------------
// Attempts
// ----------------------------------------------------------------

// Submit grades one attempt. Enrolled students get the attempt stored and
// counted; course managers get a graded preview that is not saved.
func (s *AssessmentService) Submit(ctx context.Context, actor *Actor, id uuid.UUID, req model.SubmitAnswersRequest, meta RequestMeta) (*model.AttemptResult, error) {
	a, c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	preview := actor.CanManageCourse(c)
	if !preview {
		if _, err := activeEnrollment(ctx, s.enrollments, actor.UserID, c.ID); err != nil {
			return nil, err
		}
	}

	questions, err := s.assessments.ListQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrAssessmentEmpty
	}

	attempt := 1
	if !preview {
		prev, err := s.answers.CountAttempts(ctx, id, actor.UserID)
		if err != nil {
			return nil, err
		}
		if a.MaxAttempts > 0 && prev >= a.MaxAttempts {
			return nil, ErrAttemptsExhausted
		}
		attempt = prev + 1
	}

	responses := make(map[uuid.UUID]string, len(req.Answers))
	known := make(map[uuid.UUID]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
	}
	for _, ans := range req.Answers {
		if _, ok := known[ans.QuestionID]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, ans.QuestionID)
		}
		responses[ans.QuestionID] = ans.Response
	}

	submittedAt := s.now().UTC()
	result := &model.AttemptResult{
		AssessmentID: id,
		Attempt:      attempt,
		Results:      make([]model.QuestionResult, 0, len(questions)),
		SubmittedAt:  submittedAt,
	}
	rows := make([]model.Answer, 0, len(questions))
	for _, q := range questions {
		response := responses[q.ID]
		qr := s.grade(q, response)
		result.Score += qr.PointsAwarded
		result.MaxScore += q.Points
		result.Results = append(result.Results, qr)
		rows = append(rows, model.Answer{
			ID:            uuid.New(),
			AssessmentID:  id,
			QuestionID:    q.ID,
			UserID:        actor.UserID,
			Attempt:       attempt,
			Response:      response,
			IsCorrect:     qr.IsCorrect,
			PointsAwarded: qr.PointsAwarded,
			CreatedAt:     submittedAt,
		})
	}
	result.Percent = grading.Percent(result.Score, result.MaxScore)
	result.Passed = grading.Passed(result.Score, result.MaxScore, a.PassingScore)

	if preview {
		return result, nil
	}

	if err := s.answers.InsertAttempt(ctx, rows); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: attempt %d was already submitted", ErrConflict, attempt)
		}
		return nil, fmt.Errorf("save attempt: %w", err)
	}

	s.activity.Record(ctx, &actor.UserID, model.ActivityAssessmentTaken, "assessment", id.String(), meta,
		map[string]interface{}{"attempt": attempt, "score": result.Score, "max_score": result.MaxScore, "passed": result.Passed})
	s.notifications.Notify(ctx, actor.UserID, model.NotificationAssessmentGraded,
		"Assessment graded", fmt.Sprintf("%s: %.2f%%", a.Title, result.Percent),
		map[string]interface{}{"assessment_id": id, "attempt": attempt, "passed": result.Passed})

	if result.Passed {
		if _, err := s.progress.EvaluateCompletion(ctx, actor.UserID, c.ID); err != nil {
			s.log.Error().Err(err).Str("assessment_id", id.String()).Msg("evaluate completion")
		}
	}
	return result, nil
}

// grade scores one question. A broken answer key counts as incorrect and is
// logged so the author can fix it.
func (s *AssessmentService) grade(q model.AssessmentQuestion, response string) model.QuestionResult {
	qr := model.QuestionResult{QuestionID: q.ID, Points: q.Points}
	res, err := grading.Evaluate(q.QuestionType, q.CorrectAnswer, response)
	if err != nil {
		s.log.Warn().Err(err).Str("question_id", q.ID.String()).Msg("cannot grade question")
		return qr
	}
	qr.IsCorrect = res.Correct
	qr.PointsAwarded = res.Award(q.Points)
	return qr
}

// Attempts returns the caller's attempt history with pass/fail computed.
func (s *AssessmentService) Attempts(ctx context.Context, actor *Actor, id uuid.UUID) ([]model.AttemptSummary, error) {
	a, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	list, err := s.answers.ListAttempts(ctx, id, actor.UserID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Percent = grading.Percent(list[i].Score, list[i].MaxScore)
		list[i].Passed = grading.Passed(list[i].Score, list[i].MaxScore, a.PassingScore)
	}
	return list, nil
}
