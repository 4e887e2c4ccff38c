package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/repository"
)

// The interfaces below are the slices of the repositories each service uses.
// The pgx repositories satisfy them; tests use hand-written fakes.

// UserStore is the user persistence used by the services.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, p model.UserListParams) ([]model.User, int, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name string) error
	UpdateAvatar(ctx context.Context, id uuid.UUID, url string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
	SetTwoFactor(ctx context.Context, id uuid.UUID, enabled bool) error
	UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error
	UpdateStatus(ctx context.Context, id uuid.UUID, active bool) error
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
	SetOrganization(ctx context.Context, id uuid.UUID, orgID *uuid.UUID) error
	PromoteToOrgAdmin(ctx context.Context, id, orgID uuid.UUID) error
	CountByRole(ctx context.Context) (map[string]int, error)
}

// OTPStore persists hashed one-time codes.
type OTPStore interface {
	Create(ctx context.Context, o *model.OTP) error
	Latest(ctx context.Context, userID uuid.UUID, purpose model.OTPPurpose) (*model.OTP, error)
	ReserveAttempt(ctx context.Context, id uuid.UUID, now time.Time, maxAttempts int) (int, error)
	Consume(ctx context.Context, id uuid.UUID, maxAttempts int) error
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// OrganizationStore persists organizations.
type OrganizationStore interface {
	Create(ctx context.Context, o *model.Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	List(ctx context.Context, p model.OrganizationListParams) ([]model.Organization, int, error)
	Update(ctx context.Context, o *model.Organization) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CourseStore persists courses.
type CourseStore interface {
	Create(ctx context.Context, c *model.Course) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error)
	List(ctx context.Context, p model.CourseListParams, scope repository.CourseScope) ([]model.Course, int, error)
	Update(ctx context.Context, c *model.Course) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.CourseStatus) error
	UpdateThumbnail(ctx context.Context, id uuid.UUID, url string) error
	Delete(ctx context.Context, id uuid.UUID) error
	RefreshRating(ctx context.Context, id uuid.UUID) (model.RatingSummary, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// ModuleStore persists course modules.
type ModuleStore interface {
	Create(ctx context.Context, m *model.Module) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Module, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Module, error)
	Update(ctx context.Context, m *model.Module) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// LessonStore persists lessons.
type LessonStore interface {
	Create(ctx context.Context, l *model.Lesson) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Lesson, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Lesson, error)
	CountByCourse(ctx context.Context, courseID uuid.UUID) (int, error)
	Update(ctx context.Context, l *model.Lesson) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AssessmentStore persists assessments and questions.
type AssessmentStore interface {
	Create(ctx context.Context, a *model.Assessment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Assessment, error)
	CountByCourse(ctx context.Context, courseID uuid.UUID) (int, error)
	Update(ctx context.Context, a *model.Assessment) error
	Delete(ctx context.Context, id uuid.UUID) error
	CreateQuestion(ctx context.Context, q *model.AssessmentQuestion) error
	GetQuestion(ctx context.Context, id uuid.UUID) (*model.AssessmentQuestion, error)
	ListQuestions(ctx context.Context, assessmentID uuid.UUID) ([]model.AssessmentQuestion, error)
	UpdateQuestion(ctx context.Context, q *model.AssessmentQuestion) error
	DeleteQuestion(ctx context.Context, id uuid.UUID) error
}

// AnswerStore persists graded attempts.
type AnswerStore interface {
	CountAttempts(ctx context.Context, assessmentID, userID uuid.UUID) (int, error)
	InsertAttempt(ctx context.Context, answers []model.Answer) error
	ListAttempts(ctx context.Context, assessmentID, userID uuid.UUID) ([]model.AttemptSummary, error)
	CountPassedAssessments(ctx context.Context, courseID, userID uuid.UUID) (int, error)
}

// EnrollmentStore persists enrollments.
type EnrollmentStore interface {
	Upsert(ctx context.Context, userID, courseID uuid.UUID, paymentID *uuid.UUID) (*model.Enrollment, error)
	GetByUserAndCourse(ctx context.Context, userID, courseID uuid.UUID) (*model.Enrollment, error)
	ListByUser(ctx context.Context, userID uuid.UUID, p model.EnrollmentListParams) ([]model.Enrollment, int, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID, p model.EnrollmentListParams) ([]model.Enrollment, int, error)
	UpdateProgress(ctx context.Context, id uuid.UUID, percent float64) error
	MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// ProgressStore records completed lessons.
type ProgressStore interface {
	MarkComplete(ctx context.Context, userID, courseID, lessonID uuid.UUID) error
	CompletedLessonIDs(ctx context.Context, userID, courseID uuid.UUID) ([]uuid.UUID, error)
}

// ReviewStore persists reviews.
type ReviewStore interface {
	Create(ctx context.Context, rv *model.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID, p model.PageQuery) ([]model.Review, int, error)
	Update(ctx context.Context, rv *model.Review) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CertificateStore persists certificates.
type CertificateStore interface {
	Create(ctx context.Context, ct *model.Certificate) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Certificate, error)
	GetByNumber(ctx context.Context, number string) (*model.Certificate, error)
	GetByUserAndCourse(ctx context.Context, userID, courseID uuid.UUID) (*model.Certificate, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Certificate, error)
	Count(ctx context.Context) (int, error)
}

// PaymentStore persists payments.
type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	SetCheckout(ctx context.Context, id uuid.UUID, providerRef, checkoutURL string) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	GetByProviderRef(ctx context.Context, provider model.PaymentProvider, ref string) (*model.Payment, error)
	Transition(ctx context.Context, id uuid.UUID, status model.PaymentStatus, reason *string) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, p model.PageQuery) ([]model.Payment, int, error)
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
	RevenueByCurrency(ctx context.Context) (map[string]int64, error)
}

// DocumentStore persists document metadata.
type DocumentStore interface {
	Create(ctx context.Context, d *model.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Document, error)
	List(ctx context.Context, p model.DocumentListParams, ownerID *uuid.UUID) ([]model.Document, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ActivityLogStore reads the audit trail.
type ActivityLogStore interface {
	List(ctx context.Context, f model.ActivityLogFilter) ([]model.ActivityLog, int, error)
}

// NotificationStore persists notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, p model.NotificationListParams) ([]model.Notification, int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	PruneRead(ctx context.Context, cutoff time.Time) (int64, error)
}
