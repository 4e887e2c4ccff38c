package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/repository"
)

// ReviewService handles course reviews and keeps the course rating current.
type ReviewService struct {
	reviews       ReviewStore
	courses       CourseStore
	enrollments   EnrollmentStore
	notifications *NotificationService
	activity      *ActivityService
	log           zerolog.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(reviews ReviewStore, courses CourseStore, enrollments EnrollmentStore, notifications *NotificationService, activity *ActivityService, log zerolog.Logger) *ReviewService {
	return &ReviewService{
		reviews:       reviews,
		courses:       courses,
		enrollments:   enrollments,
		notifications: notifications,
		activity:      activity,
		log:           log.With().Str("component", "reviews").Logger(),
	}
}

// List returns the reviews of a visible course.
func (s *ReviewService) List(ctx context.Context, actor *Actor, courseID uuid.UUID, p model.PageQuery) ([]model.Review, int, error) {
	if _, err := visibleCourse(ctx, s.courses, actor, courseID); err != nil {
		return nil, 0, err
	}
	p.Normalize()
	return s.reviews.ListByCourse(ctx, courseID, p)
}

// Create adds the caller's review. Only enrolled students may review, once.
func (s *ReviewService) Create(ctx context.Context, actor *Actor, courseID uuid.UUID, req model.ReviewRequest, meta RequestMeta) (*model.Review, error) {
	c, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if _, err := activeEnrollment(ctx, s.enrollments, actor.UserID, courseID); err != nil {
		return nil, err
	}

	rv := &model.Review{
		UserID:   actor.UserID,
		CourseID: courseID,
		Rating:   req.Rating,
		Comment:  strings.TrimSpace(req.Comment),
	}
	if err := s.reviews.Create(ctx, rv); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyReviewed
		}
		return nil, err
	}
	s.refreshRating(ctx, courseID)

	s.notifications.Notify(ctx, c.InstructorID, model.NotificationNewReview,
		"New review", fmt.Sprintf("%s received a %d-star review.", c.Title, rv.Rating),
		map[string]interface{}{"course_id": courseID, "review_id": rv.ID})
	s.activity.Record(ctx, &actor.UserID, model.ActivityReviewCreated, "course", courseID.String(), meta,
		map[string]interface{}{"rating": rv.Rating})

	return s.reviews.GetByID(ctx, rv.ID)
}

// Update edits the caller's own review.
func (s *ReviewService) Update(ctx context.Context, actor *Actor, id uuid.UUID, req model.ReviewRequest) (*model.Review, error) {
	rv, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rv.UserID != actor.UserID {
		return nil, ErrForbidden
	}
	rv.Rating = req.Rating
	rv.Comment = strings.TrimSpace(req.Comment)
	if err := s.reviews.Update(ctx, rv); err != nil {
		return nil, err
	}
	s.refreshRating(ctx, rv.CourseID)
	return rv, nil
}

// Delete removes a review. Authors and admins may delete.
func (s *ReviewService) Delete(ctx context.Context, actor *Actor, id uuid.UUID) error {
	rv, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rv.UserID != actor.UserID && !actor.IsAdmin() {
		return ErrForbidden
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}
	s.refreshRating(ctx, rv.CourseID)
	return nil
}

func (s *ReviewService) refreshRating(ctx context.Context, courseID uuid.UUID) {
	if _, err := s.courses.RefreshRating(ctx, courseID); err != nil {
		s.log.Error().Err(err).Str("course_id", courseID.String()).Msg("refresh rating")
	}
}
