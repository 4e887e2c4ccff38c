package model

import (
	"time"

	"github.com/google/uuid"
)

// CourseStatus is the publication lifecycle of a course.
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "DRAFT"
	CourseStatusPublished CourseStatus = "PUBLISHED"
	CourseStatusArchived  CourseStatus = "ARCHIVED"
)

// CourseLevel is the advertised difficulty.
type CourseLevel string

const (
	CourseLevelBeginner     CourseLevel = "BEGINNER"
	CourseLevelIntermediate CourseLevel = "INTERMEDIATE"
	CourseLevelAdvanced     CourseLevel = "ADVANCED"
)

// Course is the top-level unit a student enrolls in.
type Course struct {
	ID             uuid.UUID    `json:"id"`
	OrganizationID *uuid.UUID   `json:"organization_id,omitempty"`
	InstructorID   uuid.UUID    `json:"instructor_id"`
	InstructorName string       `json:"instructor_name,omitempty"`
	Title          string       `json:"title"`
	Slug           string       `json:"slug"`
	Description    string       `json:"description"`
	Category       string       `json:"category"`
	Level          CourseLevel  `json:"level"`
	PriceCents     int64        `json:"price_cents"`
	Currency       string       `json:"currency"`
	ThumbnailURL   *string      `json:"thumbnail_url,omitempty"`
	Status         CourseStatus `json:"status"`
	RatingAvg      float64      `json:"rating_avg"`
	RatingCount    int          `json:"rating_count"`
	PublishedAt    *time.Time   `json:"published_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// IsFree reports whether the course can be joined without payment.
func (c *Course) IsFree() bool {
	return c.PriceCents <= 0
}

// IsPublished reports whether students can see and join the course.
func (c *Course) IsPublished() bool {
	return c.Status == CourseStatusPublished
}

// Module is an ordered section of a course.
type Module struct {
	ID          uuid.UUID `json:"id"`
	CourseID    uuid.UUID `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Position    int       `json:"position"`
	Lessons     []Lesson  `json:"lessons,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Lesson is a single piece of learning content inside a module.
type Lesson struct {
	ID              uuid.UUID `json:"id"`
	ModuleID        uuid.UUID `json:"module_id"`
	CourseID        uuid.UUID `json:"course_id"`
	Title           string    `json:"title"`
	Content         string    `json:"content,omitempty"`
	VideoURL        *string   `json:"video_url,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	Position        int       `json:"position"`
	IsPreview       bool      `json:"is_preview"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CourseOutline is a course with its modules and lesson headers.
type CourseOutline struct {
	Course       *Course  `json:"course"`
	Modules      []Module `json:"modules"`
	TotalLessons int      `json:"total_lessons"`
}

// CourseRequest is the payload for creating or replacing a course.
type CourseRequest struct {
	Title          string      `json:"title" binding:"required,min=3,max=200"`
	Description    string      `json:"description" binding:"max=10000"`
	Category       string      `json:"category" binding:"max=100"`
	Level          CourseLevel `json:"level" binding:"omitempty,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	PriceCents     int64       `json:"price_cents" binding:"min=0"`
	Currency       string      `json:"currency" binding:"omitempty,len=3,alpha"`
	OrganizationID *uuid.UUID  `json:"organization_id"`
}

// CourseListParams filters the public catalogue and instructor lists.
type CourseListParams struct {
	PageQuery
	Query          string `form:"q" binding:"omitempty,max=100"`
	Category       string `form:"category" binding:"omitempty,max=100"`
	Level          string `form:"level" binding:"omitempty,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	OrganizationID string `form:"organization_id" binding:"omitempty,uuid"`
	Status         string `form:"status" binding:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
}

// ModuleRequest is the payload for creating or updating a module.
type ModuleRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=200"`
	Description string `json:"description" binding:"max=2000"`
	Position    *int   `json:"position" binding:"omitempty,min=0"`
}

// LessonRequest is the payload for creating or updating a lesson.
type LessonRequest struct {
	Title           string  `json:"title" binding:"required,min=1,max=200"`
	Content         string  `json:"content" binding:"max=100000"`
	VideoURL        *string `json:"video_url" binding:"omitempty,url,max=500"`
	DurationMinutes int     `json:"duration_minutes" binding:"min=0,max=1440"`
	Position        *int    `json:"position" binding:"omitempty,min=0"`
	IsPreview       bool    `json:"is_preview"`
}
