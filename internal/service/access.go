package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stemsi/learnhub-backend/internal/model"
)

// managedCourse loads a course the actor may edit.
func managedCourse(ctx context.Context, courses CourseStore, actor *Actor, courseID uuid.UUID) (*model.Course, error) {
	c, err := courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageCourse(c) {
		return nil, ErrForbidden
	}
	return c, nil
}

// visibleCourse loads a course the actor may see: published ones for
// everybody, drafts and archived ones for managers only.
func visibleCourse(ctx context.Context, courses CourseStore, actor *Actor, courseID uuid.UUID) (*model.Course, error) {
	c, err := courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !c.IsPublished() && !actor.CanManageCourse(c) {
		return nil, ErrNotFound
	}
	return c, nil
}

// studyCourse loads a course whose content the actor may reach: what
// visibleCourse allows, plus archived courses the actor is still enrolled in.
func studyCourse(ctx context.Context, courses CourseStore, enrollments EnrollmentStore, actor *Actor, courseID uuid.UUID) (*model.Course, error) {
	c, err := courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if c.IsPublished() || actor.CanManageCourse(c) {
		return c, nil
	}
	if c.Status == model.CourseStatusArchived && actor != nil {
		if _, err := activeEnrollment(ctx, enrollments, actor.UserID, c.ID); err == nil {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

// activeEnrollment returns the actor's enrollment in courseID, or
// ErrNotEnrolled when there is none or it was cancelled.
func activeEnrollment(ctx context.Context, enrollments EnrollmentStore, userID, courseID uuid.UUID) (*model.Enrollment, error) {
	e, err := enrollments.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}
	if !e.IsActive() {
		return nil, ErrNotEnrolled
	}
	return e, nil
}

// requireContentAccess allows course managers and actively enrolled users.
func requireContentAccess(ctx context.Context, enrollments EnrollmentStore, actor *Actor, c *model.Course) error {
	if actor == nil {
		return ErrNotEnrolled
	}
	if actor.CanManageCourse(c) {
		return nil
	}
	_, err := activeEnrollment(ctx, enrollments, actor.UserID, c.ID)
	return err
}
