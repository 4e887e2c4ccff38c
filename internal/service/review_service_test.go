package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReviews struct {
	ReviewStore
	byID map[uuid.UUID]*model.Review
}

func (f *fakeReviews) Create(_ context.Context, rv *model.Review) error {
	for _, existing := range f.byID {
		if existing.UserID == rv.UserID && existing.CourseID == rv.CourseID {
			return repository.ErrDuplicate
		}
	}
	rv.ID = uuid.New()
	cp := *rv
	f.byID[rv.ID] = &cp
	return nil
}

func (f *fakeReviews) GetByID(_ context.Context, id uuid.UUID) (*model.Review, error) {
	rv, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rv
	return &cp, nil
}

func (f *fakeReviews) Update(_ context.Context, rv *model.Review) error {
	cp := *rv
	f.byID[rv.ID] = &cp
	return nil
}

func (f *fakeReviews) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

func newReviewService(env *testEnv) (*ReviewService, *fakeReviews) {
	reviews := &fakeReviews{byID: map[uuid.UUID]*model.Review{}}
	log := zerolog.Nop()
	svc := NewReviewService(reviews, env.courses, env.enrollmentsDB,
		NewNotificationService(env.notifyDB, env.rdb, log), NewActivityService(env.rdb, nil, log), log)
	return svc, reviews
}

func TestReviewService_Create(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newReviewService(env)
	instructor := uuid.New()
	course, _ := env.seedCourse(instructor, 0, 1)
	student := &Actor{UserID: uuid.New(), Role: model.RoleStudent}

	t.Run("requires enrollment", func(t *testing.T) {
		_, err := svc.Create(t.Context(), student, course.ID, model.ReviewRequest{Rating: 5}, RequestMeta{})
		assert.ErrorIs(t, err, ErrNotEnrolled)
	})

	env.enrollmentsDB.add(student.UserID, course.ID, model.EnrollmentStatusActive)

	t.Run("stores trimmed review and notifies instructor", func(t *testing.T) {
		rv, err := svc.Create(t.Context(), student, course.ID, model.ReviewRequest{Rating: 4, Comment: "  clear and short  "}, RequestMeta{})
		require.NoError(t, err)
		assert.Equal(t, 4, rv.Rating)
		assert.Equal(t, "clear and short", rv.Comment)
		assert.Equal(t, 1, env.courses.refreshed)
		assert.Equal(t, []string{model.NotificationNewReview}, env.notifyDB.types(instructor))
	})

	t.Run("one review per student", func(t *testing.T) {
		_, err := svc.Create(t.Context(), student, course.ID, model.ReviewRequest{Rating: 1}, RequestMeta{})
		assert.ErrorIs(t, err, ErrAlreadyReviewed)
	})

	t.Run("cancelled enrollment cannot review", func(t *testing.T) {
		other := &Actor{UserID: uuid.New(), Role: model.RoleStudent}
		env.enrollmentsDB.add(other.UserID, course.ID, model.EnrollmentStatusCancelled)
		_, err := svc.Create(t.Context(), other, course.ID, model.ReviewRequest{Rating: 3}, RequestMeta{})
		assert.ErrorIs(t, err, ErrNotEnrolled)
	})
}

func TestReviewService_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	svc, reviews := newReviewService(env)
	course, _ := env.seedCourse(uuid.New(), 0, 1)
	author := &Actor{UserID: uuid.New(), Role: model.RoleStudent}
	stranger := &Actor{UserID: uuid.New(), Role: model.RoleStudent}
	admin := &Actor{UserID: uuid.New(), Role: model.RoleAdmin}

	env.enrollmentsDB.add(author.UserID, course.ID, model.EnrollmentStatusActive)
	rv, err := svc.Create(t.Context(), author, course.ID, model.ReviewRequest{Rating: 2}, RequestMeta{})
	require.NoError(t, err)

	_, err = svc.Update(t.Context(), stranger, rv.ID, model.ReviewRequest{Rating: 5})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(t.Context(), author, rv.ID, model.ReviewRequest{Rating: 5, Comment: "better now"})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)
	assert.Equal(t, 2, env.courses.refreshed)

	assert.ErrorIs(t, svc.Delete(t.Context(), stranger, rv.ID), ErrForbidden)
	require.NoError(t, svc.Delete(t.Context(), admin, rv.ID))
	assert.Empty(t, reviews.byID)
	assert.Equal(t, 3, env.courses.refreshed)
}
