package model

import (
	"time"

	"github.com/google/uuid"
)

// Review is a student's rating of a course.
type Review struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	CourseID  uuid.UUID `json:"course_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReviewRequest is the payload for creating or editing a review.
type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

// RatingSummary is the aggregate stored on the course row.
type RatingSummary struct {
	Average float64 `json:"rating_avg"`
	Count   int     `json:"rating_count"`
}
