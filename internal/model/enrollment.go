package model

import (
	"time"

	"github.com/google/uuid"
)

// EnrollmentStatus tracks a student's relationship with a course.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELLED"
)

// Enrollment links a user to a course.
type Enrollment struct {
	ID              uuid.UUID        `json:"id"`
	UserID          uuid.UUID        `json:"user_id"`
	UserName        string           `json:"user_name,omitempty"`
	UserEmail       string           `json:"user_email,omitempty"`
	CourseID        uuid.UUID        `json:"course_id"`
	CourseTitle     string           `json:"course_title,omitempty"`
	Status          EnrollmentStatus `json:"status"`
	ProgressPercent float64          `json:"progress_percent"`
	PaymentID       *uuid.UUID       `json:"payment_id,omitempty"`
	EnrolledAt      time.Time        `json:"enrolled_at"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
}

// IsActive reports whether the enrollment grants access to course content.
func (e *Enrollment) IsActive() bool {
	return e.Status == EnrollmentStatusActive || e.Status == EnrollmentStatusCompleted
}

// Progress is one completed lesson.
type Progress struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	CourseID    uuid.UUID `json:"course_id"`
	LessonID    uuid.UUID `json:"lesson_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// ModuleProgress summarises completion inside one module.
type ModuleProgress struct {
	ModuleID  uuid.UUID `json:"module_id"`
	Title     string    `json:"title"`
	Completed int       `json:"completed"`
	Total     int       `json:"total"`
}

// CourseProgress is the caller's progress report for a course.
type CourseProgress struct {
	CourseID           uuid.UUID        `json:"course_id"`
	Status             EnrollmentStatus `json:"status"`
	ProgressPercent    float64          `json:"progress_percent"`
	CompletedLessons   int              `json:"completed_lessons"`
	TotalLessons       int              `json:"total_lessons"`
	CompletedLessonIDs []uuid.UUID      `json:"completed_lesson_ids"`
	Modules            []ModuleProgress `json:"modules"`
	AssessmentsPassed  int              `json:"assessments_passed"`
	AssessmentsTotal   int              `json:"assessments_total"`
	Certificate        *Certificate     `json:"certificate,omitempty"`
}

// EnrollmentListParams filters enrollment lists.
type EnrollmentListParams struct {
	PageQuery
	Status string `form:"status" binding:"omitempty,oneof=ACTIVE COMPLETED CANCELLED"`
}
