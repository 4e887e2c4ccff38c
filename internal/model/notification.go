package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification types pushed to users.
const (
	NotificationEnrolled          = "ENROLLED"
	NotificationCourseCompleted   = "COURSE_COMPLETED"
	NotificationCertificateIssued = "CERTIFICATE_ISSUED"
	NotificationPaymentSucceeded  = "PAYMENT_SUCCEEDED"
	NotificationPaymentFailed     = "PAYMENT_FAILED"
	NotificationAssessmentGraded  = "ASSESSMENT_GRADED"
	NotificationNewReview         = "NEW_REVIEW"
	NotificationOrganization      = "ORGANIZATION"
)

// Notification is an in-app message for one user.
type Notification struct {
	ID        uuid.UUID              `json:"id"`
	UserID    uuid.UUID              `json:"user_id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Data      map[string]interface{} `json:"data,omitempty"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// NotificationListParams filters the caller's notifications.
type NotificationListParams struct {
	PageQuery
	Unread bool `form:"unread"`
}
