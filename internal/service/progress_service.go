package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/grading"
	"github.com/stemsi/learnhub-backend/internal/mailer"
	"github.com/stemsi/learnhub-backend/internal/model"
)

// ProgressService tracks completed lessons and decides course completion.
type ProgressService struct {
	courses       CourseStore
	modules       ModuleStore
	lessons       LessonStore
	assessments   AssessmentStore
	answers       AnswerStore
	enrollments   EnrollmentStore
	progress      ProgressStore
	certificates  *CertificateService
	notifications *NotificationService
	mail          *MailService
	activity      *ActivityService
	log           zerolog.Logger
}

// ProgressDeps groups the stores ProgressService reads.
type ProgressDeps struct {
	Courses     CourseStore
	Modules     ModuleStore
	Lessons     LessonStore
	Assessments AssessmentStore
	Answers     AnswerStore
	Enrollments EnrollmentStore
	Progress    ProgressStore
}

// NewProgressService creates a new ProgressService.
func NewProgressService(deps ProgressDeps, certificates *CertificateService, notifications *NotificationService, mail *MailService, activity *ActivityService, log zerolog.Logger) *ProgressService {
	return &ProgressService{
		courses:       deps.Courses,
		modules:       deps.Modules,
		lessons:       deps.Lessons,
		assessments:   deps.Assessments,
		answers:       deps.Answers,
		enrollments:   deps.Enrollments,
		progress:      deps.Progress,
		certificates:  certificates,
		notifications: notifications,
		mail:          mail,
		activity:      activity,
		log:           log.With().Str("component", "progress").Logger(),
	}
}

// CompleteLesson marks a lesson done for an enrolled student and returns the
// refreshed course progress. Completing a lesson twice is a no-op.
func (s *ProgressService) CompleteLesson(ctx context.Context, actor *Actor, lessonID uuid.UUID, meta RequestMeta) (*model.CourseProgress, error) {
	l, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	e, err := activeEnrollment(ctx, s.enrollments, actor.UserID, l.CourseID)
	if err != nil {
		return nil, err
	}
	if err := s.progress.MarkComplete(ctx, actor.UserID, l.CourseID, l.ID); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, &actor.UserID, model.ActivityLessonCompleted, "lesson", l.ID.String(), meta,
		map[string]interface{}{"course_id": l.CourseID})

	if _, err := s.refresh(ctx, e); err != nil {
		return nil, err
	}
	return s.GetProgress(ctx, actor, l.CourseID)
}

// EvaluateCompletion re-checks the user's enrollment in courseID, for
// example after an assessment was passed.
func (s *ProgressService) EvaluateCompletion(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	e, err := activeEnrollment(ctx, s.enrollments, userID, courseID)
	if err != nil {
		return false, err
	}
	return s.refresh(ctx, e)
}

// refresh recomputes progress_percent and completes the enrollment once all
// lessons are done and every assessment has a passing attempt.
func (s *ProgressService) refresh(ctx context.Context, e *model.Enrollment) (bool, error) {
	done, err := s.progress.CompletedLessonIDs(ctx, e.UserID, e.CourseID)
	if err != nil {
		return false, err
	}
	total, err := s.lessons.CountByCourse(ctx, e.CourseID)
	if err != nil {
		return false, err
	}
	percent := grading.Percent(len(done), total)
	if percent != e.ProgressPercent {
		if err := s.enrollments.UpdateProgress(ctx, e.ID, percent); err != nil {
			return false, err
		}
		e.ProgressPercent = percent
	}

	if e.Status != model.EnrollmentStatusActive || total == 0 || len(done) < total {
		return false, nil
	}

	assessments, err := s.assessments.CountByCourse(ctx, e.CourseID)
	if err != nil {
		return false, err
	}
	if assessments > 0 {
		passed, err := s.answers.CountPassedAssessments(ctx, e.CourseID, e.UserID)
		if err != nil {
			return false, err
		}
		if passed < assessments {
			return false, nil
		}
	}

	transitioned, err := s.enrollments.MarkCompleted(ctx, e.ID)
	if err != nil || !transitioned {
		return false, err
	}
	e.Status = model.EnrollmentStatusCompleted
	s.onCompleted(ctx, e)
	return true, nil
}

// onCompleted issues the certificate and tells the student. Failures are
// logged; the enrollment stays COMPLETED either way.
func (s *ProgressService) onCompleted(ctx context.Context, e *model.Enrollment) {
	log := s.log.With().Str("enrollment_id", e.ID.String()).Logger()

	s.activity.Record(ctx, &e.UserID, model.ActivityCourseCompleted, "course", e.CourseID.String(), RequestMeta{}, nil)
	s.notifications.Notify(ctx, e.UserID, model.NotificationCourseCompleted,
		"Course completed", "You completed "+e.CourseTitle+".",
		map[string]interface{}{"course_id": e.CourseID})

	ct, issued, err := s.certificates.Issue(ctx, e)
	if err != nil {
		log.Error().Err(err).Msg("issue certificate")
		return
	}
	if !issued {
		return
	}

	s.notifications.Notify(ctx, e.UserID, model.NotificationCertificateIssued,
		"Certificate issued", "Certificate "+ct.CertificateNumber+" for "+e.CourseTitle+".",
		map[string]interface{}{"certificate_id": ct.ID, "certificate_number": ct.CertificateNumber})

	if e.UserEmail == "" {
		return
	}
	if err := s.mail.Enqueue(ctx, mailer.TemplateCertificateIssued, e.UserEmail, e.UserName, map[string]interface{}{
		"Name":              e.UserName,
		"CourseTitle":       e.CourseTitle,
		"CertificateNumber": ct.CertificateNumber,
	}); err != nil {
		log.Error().Err(err).Msg("queue certificate email")
	}
}

// GetProgress reports the caller's progress in a course.
func (s *ProgressService) GetProgress(ctx context.Context, actor *Actor, courseID uuid.UUID) (*model.CourseProgress, error) {
	e, err := activeEnrollment(ctx, s.enrollments, actor.UserID, courseID)
	if err != nil {
		return nil, err
	}
	done, err := s.progress.CompletedLessonIDs(ctx, actor.UserID, courseID)
	if err != nil {
		return nil, err
	}
	modules, err := s.modules.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	doneSet := make(map[uuid.UUID]struct{}, len(done))
	for _, id := range done {
		doneSet[id] = struct{}{}
	}
	index := make(map[uuid.UUID]int, len(modules))
	breakdown := make([]model.ModuleProgress, len(modules))
	for i, m := range modules {
		index[m.ID] = i
		breakdown[i] = model.ModuleProgress{ModuleID: m.ID, Title: m.Title}
	}
	for _, l := range lessons {
		i, ok := index[l.ModuleID]
		if !ok {
			continue
		}
		breakdown[i].Total++
		if _, ok := doneSet[l.ID]; ok {
			breakdown[i].Completed++
		}
	}

	assessments, err := s.assessments.CountByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	passed := 0
	if assessments > 0 {
		if passed, err = s.answers.CountPassedAssessments(ctx, courseID, actor.UserID); err != nil {
			return nil, err
		}
	}
	cert, err := s.certificates.ForCourse(ctx, actor.UserID, courseID)
	if err != nil {
		return nil, err
	}

	return &model.CourseProgress{
		CourseID:           courseID,
		Status:             e.Status,
		ProgressPercent:    grading.Percent(len(done), len(lessons)),
		CompletedLessons:   len(done),
		TotalLessons:       len(lessons),
		CompletedLessonIDs: done,
		Modules:            breakdown,
		AssessmentsPassed:  passed,
		AssessmentsTotal:   assessments,
		Certificate:        cert,
	}, nil
}
