package model

import (
	"time"

	"github.com/google/uuid"
)

// Activity actions written to the audit log.
const (
	ActivityRegister         = "auth.register"
	ActivityLogin            = "auth.login"
	ActivityLoginFailed      = "auth.login_failed"
	ActivityLogout           = "auth.logout"
	ActivityPasswordReset    = "auth.password_reset"
	ActivityPasswordChanged  = "auth.password_changed"
	ActivityTwoFactorToggled = "auth.two_factor_toggled"
	ActivityEmailVerified    = "auth.email_verified"
	ActivityCourseCreated    = "course.created"
	ActivityCourseUpdated    = "course.updated"
	ActivityCoursePublished  = "course.published"
	ActivityCourseArchived   = "course.archived"
	ActivityCourseDeleted    = "course.deleted"
	ActivityEnrolled         = "enrollment.created"
	ActivityEnrollCancelled  = "enrollment.cancelled"
	ActivityLessonCompleted  = "progress.lesson_completed"
	ActivityCourseCompleted  = "progress.course_completed"
	ActivityAssessmentTaken  = "assessment.submitted"
	ActivityReviewCreated    = "review.created"
	ActivityPaymentStarted   = "payment.checkout"
	ActivityPaymentSettled   = "payment.settled"
	ActivityDocumentUploaded = "document.uploaded"
	ActivityDocumentDeleted  = "document.deleted"
	ActivityUserRoleChanged  = "user.role_changed"
	ActivityUserStatusChange = "user.status_changed"
	ActivityOrgCreated       = "organization.created"
	ActivityOrgMemberAdded   = "organization.member_added"
	ActivityOrgMemberRemoved = "organization.member_removed"
)

// ActivityLog is one audit entry.
type ActivityLog struct {
	ID         int64                  `json:"id"`
	UserID     *uuid.UUID             `json:"user_id,omitempty"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type,omitempty"`
	EntityID   string                 `json:"entity_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	IPAddress  string                 `json:"ip_address,omitempty"`
	UserAgent  string                 `json:"user_agent,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ActivityLogFilter filters the audit log.
type ActivityLogFilter struct {
	PageQuery
	UserID     string `form:"user_id" binding:"omitempty,uuid"`
	Action     string `form:"action" binding:"omitempty,max=100"`
	EntityType string `form:"entity_type" binding:"omitempty,max=50"`
}
