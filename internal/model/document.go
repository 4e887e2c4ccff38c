package model

import (
	"time"

	"github.com/google/uuid"
)

// Document is an uploaded file attached to a course or lesson.
type Document struct {
	ID         uuid.UUID  `json:"id"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	CourseID   *uuid.UUID `json:"course_id,omitempty"`
	LessonID   *uuid.UUID `json:"lesson_id,omitempty"`
	Title      string     `json:"title"`
	FileURL    string     `json:"file_url"`
	StorageKey string     `json:"-"`
	MimeType   string     `json:"mime_type"`
	SizeBytes  int64      `json:"size_bytes"`
	CreatedAt  time.Time  `json:"created_at"`
}

// DocumentUploadForm is the multipart metadata sent with a document file.
type DocumentUploadForm struct {
	Title    string `form:"title" binding:"required,min=1,max=200"`
	CourseID string `form:"course_id" binding:"omitempty,uuid"`
	LessonID string `form:"lesson_id" binding:"omitempty,uuid"`
}

// DocumentListParams filters documents.
type DocumentListParams struct {
	PageQuery
	CourseID string `form:"course_id" binding:"omitempty,uuid"`
	LessonID string `form:"lesson_id" binding:"omitempty,uuid"`
}
