package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/mailer"
	"github.com/stemsi/learnhub-backend/internal/model"
)

// EnrollmentService handles joining and leaving courses.
type EnrollmentService struct {
	courses       CourseStore
	enrollments   EnrollmentStore
	users         UserStore
	notifications *NotificationService
	mail          *MailService
	activity      *ActivityService
	log           zerolog.Logger
}

// NewEnrollmentService creates a new EnrollmentService.
func NewEnrollmentService(courses CourseStore, enrollments EnrollmentStore, users UserStore, notifications *NotificationService, mail *MailService, activity *ActivityService, log zerolog.Logger) *EnrollmentService {
	return &EnrollmentService{
		courses:       courses,
		enrollments:   enrollments,
		users:         users,
		notifications: notifications,
		mail:          mail,
		activity:      activity,
		log:           log.With().Str("component", "enrollments").Logger(),
	}
}

// Enroll joins a free, published course. Enrolling twice is a no-op that
// returns the existing enrollment with created=false; a cancelled enrollment
// is reactivated.
func (s *EnrollmentService) Enroll(ctx context.Context, actor *Actor, courseID uuid.UUID, meta RequestMeta) (*model.Enrollment, bool, error) {
	c, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, false, err
	}
	if !c.IsPublished() {
		return nil, false, ErrCourseNotPublished
	}
	if !c.IsFree() {
		return nil, false, ErrPaymentRequired
	}
	return s.enroll(ctx, actor.UserID, c, nil, meta)
}

// EnrollPaid grants access after a successful payment. It is safe to call
// again for the same payment.
func (s *EnrollmentService) EnrollPaid(ctx context.Context, userID, courseID, paymentID uuid.UUID) (*model.Enrollment, error) {
	c, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	e, _, err := s.enroll(ctx, userID, c, &paymentID, RequestMeta{})
	return e, err
}

func (s *EnrollmentService) enroll(ctx context.Context, userID uuid.UUID, c *model.Course, paymentID *uuid.UUID, meta RequestMeta) (*model.Enrollment, bool, error) {
	existing, err := s.enrollments.GetByUserAndCourse(ctx, userID, c.ID)
	switch {
	case err == nil && existing.IsActive():
		return existing, false, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return nil, false, err
	}

	e, err := s.enrollments.Upsert(ctx, userID, c.ID, paymentID)
	if err != nil {
		return nil, false, fmt.Errorf("enroll: %w", err)
	}

	s.notifications.Notify(ctx, userID, model.NotificationEnrolled,
		"Enrolled in "+c.Title, "You now have access to "+c.Title+".",
		map[string]interface{}{"course_id": c.ID})
	s.activity.Record(ctx, &userID, model.ActivityEnrolled, "course", c.ID.String(), meta,
		map[string]interface{}{"enrollment_id": e.ID, "paid": paymentID != nil})

	if u, err := s.users.GetByID(ctx, userID); err == nil {
		if err := s.mail.Enqueue(ctx, mailer.TemplateEnrollmentConfirmed, u.Email, u.Name, map[string]interface{}{
			"Name":        u.Name,
			"CourseTitle": c.Title,
			"CourseID":    c.ID.String(),
		}); err != nil {
			s.log.Error().Err(err).Str("user_id", userID.String()).Msg("queue enrollment email")
		}
	} else {
		s.log.Error().Err(err).Str("user_id", userID.String()).Msg("load user for enrollment email")
	}
	return e, true, nil
}

// Cancel leaves a course. Completed enrollments are kept.
func (s *EnrollmentService) Cancel(ctx context.Context, actor *Actor, courseID uuid.UUID, meta RequestMeta) error {
	e, err := s.enrollments.GetByUserAndCourse(ctx, actor.UserID, courseID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotEnrolled
		}
		return err
	}
	switch e.Status {
	case model.EnrollmentStatusCancelled:
		return ErrNotEnrolled
	case model.EnrollmentStatusCompleted:
		return fmt.Errorf("%w: completed enrollments cannot be cancelled", ErrActionForbidden)
	}
	if err := s.enrollments.Cancel(ctx, e.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotEnrolled
		}
		return err
	}
	s.activity.Record(ctx, &actor.UserID, model.ActivityEnrollCancelled, "course", courseID.String(), meta, nil)
	return nil
}

// ListMine returns the caller's enrollments.
func (s *EnrollmentService) ListMine(ctx context.Context, userID uuid.UUID, p model.EnrollmentListParams) ([]model.Enrollment, int, error) {
	p.Normalize()
	return s.enrollments.ListByUser(ctx, userID, p)
}

// ListByCourse returns the students of a course to its managers.
func (s *EnrollmentService) ListByCourse(ctx context.Context, actor *Actor, courseID uuid.UUID, p model.EnrollmentListParams) ([]model.Enrollment, int, error) {
	if _, err := managedCourse(ctx, s.courses, actor, courseID); err != nil {
		return nil, 0, err
	}
	p.Normalize()
	return s.enrollments.ListByCourse(ctx, courseID, p)
}
