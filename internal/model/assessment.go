package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QuestionType selects how a response is graded.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeMatching       QuestionType = "MATCHING"
	QuestionTypeSingleAnswer   QuestionType = "SINGLE_ANSWER"
)

// Assessment is a graded quiz attached to a course and optionally a module.
type Assessment struct {
	ID               uuid.UUID            `json:"id"`
	CourseID         uuid.UUID            `json:"course_id"`
	ModuleID         *uuid.UUID           `json:"module_id,omitempty"`
	Title            string               `json:"title"`
	Description      string               `json:"description"`
	PassingScore     int                  `json:"passing_score"`
	MaxAttempts      int                  `json:"max_attempts"`
	TimeLimitMinutes int                  `json:"time_limit_minutes"`
	QuestionCount    int                  `json:"question_count"`
	Questions        []AssessmentQuestion `json:"questions,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// AssessmentQuestion is one question. CorrectAnswer is free-form text whose
// format depends on QuestionType.
type AssessmentQuestion struct {
	ID            uuid.UUID       `json:"id"`
	AssessmentID  uuid.UUID       `json:"assessment_id"`
	QuestionText  string          `json:"question_text"`
	QuestionType  QuestionType    `json:"question_type"`
	Options       json.RawMessage `json:"options,omitempty"`
	CorrectAnswer string          `json:"correct_answer,omitempty"`
	Points        int             `json:"points"`
	Position      int             `json:"position"`
}

// WithoutAnswer strips the answer key for student-facing payloads.
func (q AssessmentQuestion) WithoutAnswer() AssessmentQuestion {
	q.CorrectAnswer = ""
	return q
}

// Answer is one graded response of one attempt.
type Answer struct {
	ID            uuid.UUID `json:"id"`
	AssessmentID  uuid.UUID `json:"assessment_id"`
	QuestionID    uuid.UUID `json:"question_id"`
	UserID        uuid.UUID `json:"user_id"`
	Attempt       int       `json:"attempt"`
	Response      string    `json:"response"`
	IsCorrect     bool      `json:"is_correct"`
	PointsAwarded int       `json:"points_awarded"`
	CreatedAt     time.Time `json:"created_at"`
}

// AssessmentRequest is the payload for creating or updating an assessment.
type AssessmentRequest struct {
	Title            string     `json:"title" binding:"required,min=2,max=200"`
	Description      string     `json:"description" binding:"max=5000"`
	ModuleID         *uuid.UUID `json:"module_id"`
	PassingScore     int        `json:"passing_score" binding:"min=0,max=100"`
	MaxAttempts      int        `json:"max_attempts" binding:"min=0,max=100"`
	TimeLimitMinutes int        `json:"time_limit_minutes" binding:"min=0,max=1440"`
}

// QuestionRequest is the payload for creating or updating a question.
type QuestionRequest struct {
	QuestionText  string          `json:"question_text" binding:"required,min=1,max=5000"`
	QuestionType  QuestionType    `json:"question_type" binding:"required,oneof=MULTIPLE_CHOICE MATCHING SINGLE_ANSWER"`
	Options       json.RawMessage `json:"options"`
	CorrectAnswer string          `json:"correct_answer" binding:"required,max=5000"`
	Points        int             `json:"points" binding:"omitempty,min=1,max=1000"`
	Position      *int            `json:"position" binding:"omitempty,min=0"`
}

// SubmitAnswersRequest carries one response per question of an attempt.
type SubmitAnswersRequest struct {
	Answers []SubmittedAnswer `json:"answers" binding:"required,min=1,dive"`
}

// SubmittedAnswer is a single response in a submission.
type SubmittedAnswer struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Response   string    `json:"response" binding:"max=5000"`
}

// QuestionResult is the graded outcome of one question.
type QuestionResult struct {
	QuestionID    uuid.UUID `json:"question_id"`
	IsCorrect     bool      `json:"is_correct"`
	PointsAwarded int       `json:"points_awarded"`
	Points        int       `json:"points"`
}

// AttemptResult is returned after grading a submission.
type AttemptResult struct {
	AssessmentID uuid.UUID        `json:"assessment_id"`
	Attempt      int              `json:"attempt"`
	Score        int              `json:"score"`
	MaxScore     int              `json:"max_score"`
	Percent      float64          `json:"percent"`
	Passed       bool             `json:"passed"`
	Results      []QuestionResult `json:"results"`
	SubmittedAt  time.Time        `json:"submitted_at"`
}

// AttemptSummary is one row of a student's attempt history.
type AttemptSummary struct {
	Attempt     int       `json:"attempt"`
	Score       int       `json:"score"`
	MaxScore    int       `json:"max_score"`
	Percent     float64   `json:"percent"`
	Passed      bool      `json:"passed"`
	SubmittedAt time.Time `json:"submitted_at"`
}
