package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/config"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/repository"
	"github.com/stemsi/learnhub-backend/internal/storage"
)

const (
	outlineTTL      = 10 * time.Minute
	thumbnailWidth  = 1280
	thumbnailHeight = 720
	defaultCurrency = "USD"
)

// CourseService handles course authoring, the public catalogue and the
// module/lesson curriculum.
type CourseService struct {
	cfg         *config.Config
	courses     CourseStore
	modules     ModuleStore
	lessons     LessonStore
	enrollments EnrollmentStore
	rdb         *redis.Client
	store       storage.Storage
	activity    *ActivityService
	log         zerolog.Logger
}

// NewCourseService creates a new CourseService.
func NewCourseService(
	cfg *config.Config,
	courses CourseStore,
	modules ModuleStore,
	lessons LessonStore,
	enrollments EnrollmentStore,
	rdb *redis.Client,
	store storage.Storage,
	activity *ActivityService,
	log zerolog.Logger,
) *CourseService {
	return &CourseService{
		cfg:         cfg,
		courses:     courses,
		modules:     modules,
		lessons:     lessons,
		enrollments: enrollments,
		rdb:         rdb,
		store:       store,
		activity:    activity,
		log:         log.With().Str("component", "courses").Logger(),
	}
}

// ListPublished returns the public catalogue.
func (s *CourseService) ListPublished(ctx context.Context, p model.CourseListParams) ([]model.Course, int, error) {
	p.Normalize()
	return s.courses.List(ctx, p, repository.CourseScope{PublishedOnly: true})
}

// ListForInstructor returns the caller's own courses in every status.
func (s *CourseService) ListForInstructor(ctx context.Context, actor *Actor, p model.CourseListParams) ([]model.Course, int, error) {
	p.Normalize()
	return s.courses.List(ctx, p, repository.CourseScope{InstructorID: &actor.UserID})
}

// Create adds a DRAFT course owned by the caller.
func (s *CourseService) Create(ctx context.Context, actor *Actor, req model.CourseRequest, meta RequestMeta) (*model.Course, error) {
	orgID := actor.OrganizationID
	if req.OrganizationID != nil {
		if !actor.IsAdmin() && (actor.OrganizationID == nil || *actor.OrganizationID != *req.OrganizationID) {
			return nil, fmt.Errorf("%w: not a member of that organization", ErrForbidden)
		}
		orgID = req.OrganizationID
	}

	c := &model.Course{
		OrganizationID: orgID,
		InstructorID:   actor.UserID,
		Status:         model.CourseStatusDraft,
	}
	applyCourseRequest(c, req)

	base := slugify(c.Title)
	c.Slug = base
	var err error
	for i := 0; i < slugAttempts; i++ {
		if err = s.courses.Create(ctx, c); !errors.Is(err, repository.ErrDuplicate) {
			break
		}
		c.Slug = withSuffix(base)
	}
	if err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}

	s.activity.Record(ctx, &actor.UserID, model.ActivityCourseCreated, "course", c.ID.String(), meta,
		map[string]interface{}{"title": c.Title})
	return s.courses.GetByID(ctx, c.ID)
}

func applyCourseRequest(c *model.Course, req model.CourseRequest) {
	c.Title = strings.TrimSpace(req.Title)
	c.Description = req.Description
	c.Category = strings.TrimSpace(req.Category)
	c.Level = req.Level
	if c.Level == "" {
		c.Level = model.CourseLevelBeginner
	}
	c.PriceCents = req.PriceCents
	c.Currency = strings.ToUpper(req.Currency)
	if c.Currency == "" {
		c.Currency = defaultCurrency
	}
}

// Get returns a course with its outline. Unpublished courses are only
// visible to their managers and, once archived, to enrolled students. Lesson bodies are omitted unless the lesson is
// a preview.
func (s *CourseService) Get(ctx context.Context, actor *Actor, id uuid.UUID) (*model.CourseOutline, error) {
	c, err := studyCourse(ctx, s.courses, s.enrollments, actor, id)
	if err != nil {
		return nil, err
	}
	modules, err := s.outline(ctx, id)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, m := range modules {
		total += len(m.Lessons)
	}
	return &model.CourseOutline{Course: c, Modules: modules, TotalLessons: total}, nil
}

// outline returns the public module tree, cached in Redis.
func (s *CourseService) outline(ctx context.Context, courseID uuid.UUID) ([]model.Module, error) {
	key := config.CacheKey.CourseOutlineKey(courseID.String())
	if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var modules []model.Module
		if err := json.Unmarshal(raw, &modules); err == nil {
			return modules, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("key", key).Msg("outline cache read")
	}

	modules, err := s.moduleTree(ctx, courseID, false)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(modules); err == nil {
		if err := s.rdb.Set(ctx, key, raw, outlineTTL).Err(); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("outline cache write")
		}
	}
	return modules, nil
}

// moduleTree groups the course lessons under their modules. Without
// withContent, non-preview lesson bodies are blanked.
func (s *CourseService) moduleTree(ctx context.Context, courseID uuid.UUID, withContent bool) ([]model.Module, error) {
	modules, err := s.modules.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	index := make(map[uuid.UUID]int, len(modules))
	for i := range modules {
		modules[i].Lessons = make([]model.Lesson, 0)
		index[modules[i].ID] = i
	}
	for _, l := range lessons {
		i, ok := index[l.ModuleID]
		if !ok {
			continue
		}
		if !withContent && !l.IsPreview {
			l.Content = ""
			l.VideoURL = nil
		}
		modules[i].Lessons = append(modules[i].Lessons, l)
	}
	return modules, nil
}

func (s *CourseService) invalidateOutline(ctx context.Context, courseID uuid.UUID) {
	key := config.CacheKey.CourseOutlineKey(courseID.String())
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("outline cache invalidate")
	}
}

// Update replaces the editable course fields. Only admins may move a course
// to another organization.
func (s *CourseService) Update(ctx context.Context, actor *Actor, id uuid.UUID, req model.CourseRequest, meta RequestMeta) (*model.Course, error) {
	c, err := managedCourse(ctx, s.courses, actor, id)
	if err != nil {
		return nil, err
	}
	applyCourseRequest(c, req)
	if req.OrganizationID != nil && actor.IsAdmin() {
		c.OrganizationID = req.OrganizationID
	}
	if err := s.courses.Update(ctx, c); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, &actor.UserID, model.ActivityCourseUpdated, "course", id.String(), meta, nil)
	return s.courses.GetByID(ctx, id)
}

// Delete removes a course and everything below it.
func (s *CourseService) Delete(ctx context.Context, actor *Actor, id uuid.UUID, meta RequestMeta) error {
	c, err := managedCourse(ctx, s.courses, actor, id)
	if err != nil {
		return err
	}
	if err := s.courses.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return ErrDependencyExists
		}
		return err
	}
	s.invalidateOutline(ctx, id)
	s.activity.Record(ctx, &actor.UserID, model.ActivityCourseDeleted, "course", id.String(), meta,
		map[string]interface{}{"title": c.Title})
	return nil
}

// Publish makes a course visible. A course needs at least one lesson.
func (s *CourseService) Publish(ctx context.Context, actor *Actor, id uuid.UUID, meta RequestMeta) (*model.Course, error) {
	c, err := managedCourse(ctx, s.courses, actor, id)
	if err != nil {
		return nil, err
	}
	if c.IsPublished() {
		return c, nil
	}
	n, err := s.lessons.CountByCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrCourseEmpty
	}
	if err := s.courses.UpdateStatus(ctx, id, model.CourseStatusPublished); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, &actor.UserID, model.ActivityCoursePublished, "course", id.String(), meta, nil)
	return s.courses.GetByID(ctx, id)
}

// Archive hides a course from the catalogue. Enrolled students keep access.
func (s *CourseService) Archive(ctx context.Context, actor *Actor, id uuid.UUID, meta RequestMeta) (*model.Course, error) {
	if _, err := managedCourse(ctx, s.courses, actor, id); err != nil {
		return nil, err
	}
	if err := s.courses.UpdateStatus(ctx, id, model.CourseStatusArchived); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, &actor.UserID, model.ActivityCourseArchived, "course", id.String(), meta, nil)
	return s.courses.GetByID(ctx, id)
}

// UploadThumbnail scales the image to fit 1280x720 and stores it as JPEG.
func (s *CourseService) UploadThumbnail(ctx context.Context, actor *Actor, id uuid.UUID, r io.Reader, size int64) (*model.Course, error) {
	c, err := managedCourse(ctx, s.courses, actor, id)
	if err != nil {
		return nil, err
	}
	if size > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, size, s.cfg.MaxUploadBytes)
	}
	img, err := storage.ResizeToJPEG(r, thumbnailWidth, thumbnailHeight)
	if err != nil {
		if errors.Is(err, storage.ErrNotAnImage) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFile, err)
		}
		return nil, err
	}
	obj, err := s.store.Put(ctx, storage.NewKey("thumbnails", ".jpg"), img, "image/jpeg")
	if err != nil {
		return nil, fmt.Errorf("store thumbnail: %w", err)
	}
	if err := s.courses.UpdateThumbnail(ctx, c.ID, obj.URL); err != nil {
		return nil, err
	}
	c.ThumbnailURL = &obj.URL
	return c, nil
}
