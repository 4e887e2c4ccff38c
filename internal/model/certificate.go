package model

import (
	"time"

	"github.com/google/uuid"
)

// Certificate is issued once per user and course on completion.
type Certificate struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"user_id"`
	UserName          string    `json:"user_name,omitempty"`
	CourseID          uuid.UUID `json:"course_id"`
	CourseTitle       string    `json:"course_title,omitempty"`
	EnrollmentID      uuid.UUID `json:"enrollment_id"`
	CertificateNumber string    `json:"certificate_number"`
	IssuedAt          time.Time `json:"issued_at"`
}

// CertificateVerification is the public answer to a certificate lookup.
type CertificateVerification struct {
	Valid             bool       `json:"valid"`
	CertificateNumber string     `json:"certificate_number"`
	HolderName        string     `json:"holder_name,omitempty"`
	CourseTitle       string     `json:"course_title,omitempty"`
	IssuedAt          *time.Time `json:"issued_at,omitempty"`
}
