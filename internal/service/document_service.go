package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/config"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/storage"
)

// Allowed document MIME types and their stored extension.
var allowedDocumentTypes = map[string]string{
	"application/pdf": ".pdf",

	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",

	"application/msword":            ".doc",
	"application/vnd.ms-excel":      ".xls",
	"application/vnd.ms-powerpoint": ".ppt",

	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   ".docx",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         ".xlsx",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": ".pptx",

	"application/zip":              ".zip",
	"application/x-zip-compressed": ".zip",
}

// DocumentUpload is a file received by a handler.
type DocumentUpload struct {
	Body        io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// DocumentService stores course material files.
type DocumentService struct {
	cfg         *config.Config
	docs        DocumentStore
	courses     CourseStore
	lessons     LessonStore
	enrollments EnrollmentStore
	store       storage.Storage
	activity    *ActivityService
	log         zerolog.Logger
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(cfg *config.Config, docs DocumentStore, courses CourseStore, lessons LessonStore, enrollments EnrollmentStore, store storage.Storage, activity *ActivityService, log zerolog.Logger) *DocumentService {
	return &DocumentService{
		cfg:         cfg,
		docs:        docs,
		courses:     courses,
		lessons:     lessons,
		enrollments: enrollments,
		store:       store,
		activity:    activity,
		log:         log.With().Str("component", "documents").Logger(),
	}
}

// Upload stores a file and its metadata. Files attached to a course or lesson
// require the uploader to manage that course.
func (s *DocumentService) Upload(ctx context.Context, actor *Actor, form model.DocumentUploadForm, f DocumentUpload, meta RequestMeta) (*model.Document, error) {
	if f.Size > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, f.Size, s.cfg.MaxUploadBytes)
	}
	contentType, body, err := detectDocumentType(f)
	if err != nil {
		return nil, err
	}

	courseID, lessonID, err := s.attachTarget(ctx, actor, form)
	if err != nil {
		return nil, err
	}

	key := storage.NewKey("documents", allowedDocumentTypes[contentType])
	obj, err := s.store.Put(ctx, key, io.LimitReader(body, s.cfg.MaxUploadBytes), contentType)
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	d := &model.Document{
		OwnerID:    actor.UserID,
		CourseID:   courseID,
		LessonID:   lessonID,
		Title:      strings.TrimSpace(form.Title),
		FileURL:    obj.URL,
		StorageKey: obj.Key,
		MimeType:   contentType,
		SizeBytes:  f.Size,
	}
	if obj.Size > 0 {
		d.SizeBytes = obj.Size
	}
	if err := s.docs.Create(ctx, d); err != nil {
		if delErr := s.store.Delete(ctx, obj.Key); delErr != nil {
			s.log.Error().Err(delErr).Str("key", obj.Key).Msg("remove orphaned object")
		}
		return nil, err
	}

	s.activity.Record(ctx, &actor.UserID, model.ActivityDocumentUploaded, "document", d.ID.String(), meta,
		map[string]interface{}{"mime_type": d.MimeType, "size_bytes": d.SizeBytes})
	return d, nil
}

// attachTarget resolves course_id and lesson_id. A lesson implies its course;
// a mismatching pair is rejected.
func (s *DocumentService) attachTarget(ctx context.Context, actor *Actor, form model.DocumentUploadForm) (*uuid.UUID, *uuid.UUID, error) {
	var courseID, lessonID *uuid.UUID
	if form.CourseID != "" {
		id, err := uuid.Parse(form.CourseID)
		if err != nil {
			return nil, nil, ErrNotFound
		}
		courseID = &id
	}
	if form.LessonID != "" {
		id, err := uuid.Parse(form.LessonID)
		if err != nil {
			return nil, nil, ErrNotFound
		}
		l, err := s.lessons.GetByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if courseID != nil && *courseID != l.CourseID {
			return nil, nil, fmt.Errorf("%w: lesson belongs to another course", ErrActionForbidden)
		}
		lessonID = &l.ID
		courseID = &l.CourseID
	}
	if courseID != nil {
		if _, err := managedCourse(ctx, s.courses, actor, *courseID); err != nil {
			return nil, nil, err
		}
	}
	return courseID, lessonID, nil
}

// detectDocumentType checks the declared type against the allow-list and
// sniffs the leading bytes so a renamed executable is not accepted as a PDF.
func detectDocumentType(f DocumentUpload) (string, io.Reader, error) {
	declared := strings.ToLower(strings.TrimSpace(strings.Split(f.ContentType, ";")[0]))
	if declared == "" || declared == "application/octet-stream" {
		declared = typeFromExtension(f.Filename)
	}
	if _, ok := allowedDocumentTypes[declared]; !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, declared)
	}

	br := bufio.NewReaderSize(f.Body, 512)
	head, _ := br.Peek(512)
	sniffed := strings.Split(http.DetectContentType(head), ";")[0]
	if !sniffMatches(declared, sniffed) {
		return "", nil, fmt.Errorf("%w: content looks like %s", ErrUnsupportedFile, sniffed)
	}
	return declared, br, nil
}

func sniffMatches(declared, sniffed string) bool {
	switch {
	case declared == "application/pdf":
		return sniffed == "application/pdf"
	case strings.HasPrefix(declared, "image/"):
		return sniffed == declared
	case strings.Contains(declared, "openxmlformats"), strings.Contains(declared, "zip"):
		return sniffed == "application/zip"
	default:
		// Legacy office formats are OLE containers, which sniff as octet-stream.
		return sniffed == "application/octet-stream"
	}
}

func typeFromExtension(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	for t, e := range allowedDocumentTypes {
		if e == ext && t != "application/x-zip-compressed" {
			return t
		}
	}
	return ""
}

// List returns documents. Filtering by course or lesson requires content
// access; without a filter users see their own uploads and admins see all.
func (s *DocumentService) List(ctx context.Context, actor *Actor, p model.DocumentListParams) ([]model.Document, int, error) {
	p.Normalize()

	if p.LessonID != "" {
		id, err := uuid.Parse(p.LessonID)
		if err != nil {
			return nil, 0, ErrNotFound
		}
		l, err := s.lessons.GetByID(ctx, id)
		if err != nil {
			return nil, 0, err
		}
		if p.CourseID != "" && p.CourseID != l.CourseID.String() {
			return []model.Document{}, 0, nil
		}
		p.CourseID = l.CourseID.String()
	}

	if p.CourseID != "" {
		id, err := uuid.Parse(p.CourseID)
		if err != nil {
			return nil, 0, ErrNotFound
		}
		c, err := studyCourse(ctx, s.courses, s.enrollments, actor, id)
		if err != nil {
			return nil, 0, err
		}
		if err := requireContentAccess(ctx, s.enrollments, actor, c); err != nil {
			return nil, 0, err
		}
		return s.docs.List(ctx, p, nil)
	}

	if actor.IsAdmin() {
		return s.docs.List(ctx, p, nil)
	}
	return s.docs.List(ctx, p, &actor.UserID)
}

// Get returns a document the actor may read.
func (s *DocumentService) Get(ctx context.Context, actor *Actor, id uuid.UUID) (*model.Document, error) {
	d, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.OwnerID == actor.UserID || actor.IsAdmin() {
		return d, nil
	}
	if d.CourseID == nil {
		return nil, ErrNotFound
	}
	c, err := s.courses.GetByID(ctx, *d.CourseID)
	if err != nil {
		return nil, err
	}
	if err := requireContentAccess(ctx, s.enrollments, actor, c); err != nil {
		return nil, err
	}
	return d, nil
}

// Delete removes the metadata and then the stored object. The uploader,
// managers of the course and admins may delete.
func (s *DocumentService) Delete(ctx context.Context, actor *Actor, id uuid.UUID, meta RequestMeta) error {
	d, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if d.OwnerID != actor.UserID && !actor.IsAdmin() {
		if d.CourseID == nil {
			return ErrForbidden
		}
		if _, err := managedCourse(ctx, s.courses, actor, *d.CourseID); err != nil {
			return err
		}
	}

	if err := s.docs.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, d.StorageKey); err != nil {
		s.log.Error().Err(err).Str("key", d.StorageKey).Msg("delete stored object")
	}

	s.activity.Record(ctx, &actor.UserID, model.ActivityDocumentDeleted, "document", d.ID.String(), meta, nil)
	return nil
}
