package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/stemsi/learnhub-backend/internal/model"
)

// ListModules returns the module tree. Managers see full lesson bodies.
func (s *CourseService) ListModules(ctx context.Context, actor *Actor, courseID uuid.UUID) ([]model.Module, error) {
	c, err := studyCourse(ctx, s.courses, s.enrollments, actor, courseID)
	if err != nil {
		return nil, err
	}
	if actor.CanManageCourse(c) {
		return s.moduleTree(ctx, courseID, true)
	}
	return s.outline(ctx, courseID)
}

// CreateModule appends or inserts a module into a course.
func (s *CourseService) CreateModule(ctx context.Context, actor *Actor, courseID uuid.UUID, req model.ModuleRequest) (*model.Module, error) {
	if _, err := managedCourse(ctx, s.courses, actor, courseID); err != nil {
		return nil, err
	}
	m := &model.Module{
		CourseID:    courseID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Position:    positionOrAppend(req.Position),
	}
	if err := s.modules.Create(ctx, m); err != nil {
		return nil, err
	}
	s.invalidateOutline(ctx, courseID)
	return m, nil
}

// UpdateModule edits a module. A nil position keeps the current one.
func (s *CourseService) UpdateModule(ctx context.Context, actor *Actor, id uuid.UUID, req model.ModuleRequest) (*model.Module, error) {
	m, err := s.modules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := managedCourse(ctx, s.courses, actor, m.CourseID); err != nil {
		return nil, err
	}
	m.Title = strings.TrimSpace(req.Title)
	m.Description = req.Description
	if req.Position != nil {
		m.Position = *req.Position
	}
	if err := s.modules.Update(ctx, m); err != nil {
		return nil, err
	}
	s.invalidateOutline(ctx, m.CourseID)
	return m, nil
}

// DeleteModule removes a module with its lessons.
func (s *CourseService) DeleteModule(ctx context.Context, actor *Actor, id uuid.UUID) error {
	m, err := s.modules.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := managedCourse(ctx, s.courses, actor, m.CourseID); err != nil {
		return err
	}
	if err := s.modules.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateOutline(ctx, m.CourseID)
	return nil
}

// CreateLesson adds a lesson to a module.
func (s *CourseService) CreateLesson(ctx context.Context, actor *Actor, moduleID uuid.UUID, req model.LessonRequest) (*model.Lesson, error) {
	m, err := s.modules.GetByID(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if _, err := managedCourse(ctx, s.courses, actor, m.CourseID); err != nil {
		return nil, err
	}
	l := &model.Lesson{ModuleID: m.ID, CourseID: m.CourseID}
	applyLessonRequest(l, req)
	l.Position = positionOrAppend(req.Position)
	if err := s.lessons.Create(ctx, l); err != nil {
		return nil, err
	}
	s.invalidateOutline(ctx, m.CourseID)
	return l, nil
}

// GetLesson returns a lesson with its content to managers, enrolled
// students, and anyone for preview lessons of a published course.
func (s *CourseService) GetLesson(ctx context.Context, actor *Actor, id uuid.UUID) (*model.Lesson, error) {
	l, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c, err := studyCourse(ctx, s.courses, s.enrollments, actor, l.CourseID)
	if err != nil {
		return nil, err
	}
	if l.IsPreview && c.IsPublished() {
		return l, nil
	}
	if err := requireContentAccess(ctx, s.enrollments, actor, c); err != nil {
		return nil, err
	}
	return l, nil
}

// UpdateLesson edits a lesson. A nil position keeps the current one.
func (s *CourseService) UpdateLesson(ctx context.Context, actor *Actor, id uuid.UUID, req model.LessonRequest) (*model.Lesson, error) {
	l, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := managedCourse(ctx, s.courses, actor, l.CourseID); err != nil {
		return nil, err
	}
	applyLessonRequest(l, req)
	if req.Position != nil {
		l.Position = *req.Position
	}
	if err := s.lessons.Update(ctx, l); err != nil {
		return nil, err
	}
	s.invalidateOutline(ctx, l.CourseID)
	return l, nil
}

// DeleteLesson removes a lesson.
func (s *CourseService) DeleteLesson(ctx context.Context, actor *Actor, id uuid.UUID) error {
	l, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := managedCourse(ctx, s.courses, actor, l.CourseID); err != nil {
		return err
	}
	if err := s.lessons.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateOutline(ctx, l.CourseID)
	return nil
}

func applyLessonRequest(l *model.Lesson, req model.LessonRequest) {
	l.Title = strings.TrimSpace(req.Title)
	l.Content = req.Content
	l.VideoURL = req.VideoURL
	l.DurationMinutes = req.DurationMinutes
	l.IsPreview = req.IsPreview
}

// positionOrAppend maps an omitted position to -1, which the repositories
// treat as "after the last sibling".
func positionOrAppend(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}
