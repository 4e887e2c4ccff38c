package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quizFixture struct {
	course     *model.Course
	lessons    []model.Lesson
	assessment *model.Assessment
	q1, q2     model.AssessmentQuestion
}

// seedQuiz adds a free course with one lesson and a two-question assessment
// worth 1 and 3 points with a 60% passing mark.
func seedQuiz(env *testEnv, instructorID uuid.UUID) quizFixture {
	c, lessons := env.seedCourse(instructorID, 0, 1)
	a := &model.Assessment{ID: uuid.New(), CourseID: c.ID, Title: "Quiz", PassingScore: 60, MaxAttempts: 2}
	env.assessmentsDB.byID[a.ID] = a
	q1 := model.AssessmentQuestion{ID: uuid.New(), AssessmentID: a.ID, QuestionType: model.QuestionTypeMultipleChoice, CorrectAnswer: "A", Points: 1}
	q2 := model.AssessmentQuestion{ID: uuid.New(), AssessmentID: a.ID, QuestionType: model.QuestionTypeSingleAnswer, CorrectAnswer: "goroutine|go routine", Points: 3, Position: 1}
	env.assessmentsDB.questions = append(env.assessmentsDB.questions, q1, q2)
	return quizFixture{course: c, lessons: lessons, assessment: a, q1: q1, q2: q2}
}

func TestAssessment_SubmitGradesAndCompletesCourse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u, actor := student(env)
	fx := seedQuiz(env, uuid.New())

	_, err := env.assessments.Submit(ctx, actor, fx.assessment.ID, model.SubmitAnswersRequest{
		Answers: []model.SubmittedAnswer{{QuestionID: fx.q1.ID, Response: "A"}},
	}, RequestMeta{})
	assert.ErrorIs(t, err, ErrNotEnrolled)

	_, _, err = env.enrollments.Enroll(ctx, actor, fx.course.ID, RequestMeta{})
	require.NoError(t, err)
	p, err := env.progress.CompleteLesson(ctx, actor, fx.lessons[0].ID, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentStatusActive, p.Status, "assessment still pending")

	// Only the one-point question right: 25%.
	res, err := env.assessments.Submit(ctx, actor, fx.assessment.ID, model.SubmitAnswersRequest{
		Answers: []model.SubmittedAnswer{{QuestionID: fx.q1.ID, Response: "a"}},
	}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempt)
	assert.Equal(t, 1, res.Score)
	assert.Equal(t, 4, res.MaxScore)
	assert.Equal(t, 25.0, res.Percent)
	assert.False(t, res.Passed)
	require.Len(t, res.Results, 2)
	assert.False(t, res.Results[1].IsCorrect)

	res, err = env.assessments.Submit(ctx, actor, fx.assessment.ID, model.SubmitAnswersRequest{
		Answers: []model.SubmittedAnswer{
			{QuestionID: fx.q1.ID, Response: "B"},
			{QuestionID: fx.q2.ID, Response: "  Go Routine "},
		},
	}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempt)
	assert.Equal(t, 75.0, res.Percent)
	assert.True(t, res.Passed)

	e := env.enrollmentsDB.items[[2]uuid.UUID{u.ID, fx.course.ID}]
	assert.Equal(t, model.EnrollmentStatusCompleted, e.Status)
	assert.Len(t, env.certsDB.items, 1)

	_, err = env.assessments.Submit(ctx, actor, fx.assessment.ID, model.SubmitAnswersRequest{
		Answers: []model.SubmittedAnswer{{QuestionID: fx.q1.ID, Response: "A"}},
	}, RequestMeta{})
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
}

func TestAssessment_SubmitRejectsUnknownQuestion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, actor := student(env)
	fx := seedQuiz(env, uuid.New())
	env.enrollmentsDB.add(actor.UserID, fx.course.ID, model.EnrollmentStatusActive)

	_, err := env.assessments.Submit(ctx, actor, fx.assessment.ID, model.SubmitAnswersRequest{
		Answers: []model.SubmittedAnswer{{QuestionID: uuid.New(), Response: "A"}},
	}, RequestMeta{})
	assert.ErrorIs(t, err, ErrUnknownQuestion)
	assert.Empty(t, env.answers.rows)
}

func TestAssessment_InstructorPreviewIsNotStored(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.users.add(&model.User{Role: model.RoleInstructor, IsActive: true})
	fx := seedQuiz(env, instructor.ID)
	actor := &Actor{UserID: instructor.ID, Role: model.RoleInstructor}

	for i := 0; i < 3; i++ {
		res, err := env.assessments.Submit(ctx, actor, fx.assessment.ID, model.SubmitAnswersRequest{
			Answers: []model.SubmittedAnswer{{QuestionID: fx.q1.ID, Response: "A"}, {QuestionID: fx.q2.ID, Response: "goroutine"}},
		}, RequestMeta{})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Attempt)
		assert.True(t, res.Passed)
	}
	assert.Empty(t, env.answers.rows)
}

func TestAssessment_GetHidesAnswerKeyFromStudents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.users.add(&model.User{Role: model.RoleInstructor, IsActive: true})
	_, actor := student(env)
	fx := seedQuiz(env, instructor.ID)
	env.enrollmentsDB.add(actor.UserID, fx.course.ID, model.EnrollmentStatusActive)

	a, err := env.assessments.Get(ctx, actor, fx.assessment.ID)
	require.NoError(t, err)
	require.Len(t, a.Questions, 2)
	for _, q := range a.Questions {
		assert.Empty(t, q.CorrectAnswer)
	}

	a, err = env.assessments.Get(ctx, &Actor{UserID: instructor.ID, Role: model.RoleInstructor}, fx.assessment.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", a.Questions[0].CorrectAnswer)
}

func TestApplyQuestionRequest(t *testing.T) {
	var q model.AssessmentQuestion
	err := applyQuestionRequest(&q, model.QuestionRequest{
		QuestionText:  "Pair them",
		QuestionType:  model.QuestionTypeMatching,
		CorrectAnswer: "not pairs at all",
	})
	assert.ErrorIs(t, err, ErrInvalidAnswerKey)

	err = applyQuestionRequest(&q, model.QuestionRequest{
		QuestionText:  "Pick",
		QuestionType:  model.QuestionTypeMultipleChoice,
		CorrectAnswer: "A,C",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Points)
}
