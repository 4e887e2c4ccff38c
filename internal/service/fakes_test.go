package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/config"
	"github.com/stemsi/learnhub-backend/internal/grading"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/payment"
	"github.com/stemsi/learnhub-backend/internal/repository"
	"github.com/stemsi/learnhub-backend/internal/storage"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// In-memory stores. Each embeds its interface so methods a test does not
// exercise panic instead of silently returning zero values.

type fakeUsers struct {
	UserStore
	byID map[uuid.UUID]*model.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[uuid.UUID]*model.User{}} }

func (f *fakeUsers) add(u *model.User) *model.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = model.RoleStudent
	}
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) MarkEmailVerified(_ context.Context, id uuid.UUID) error {
	f.byID[id].EmailVerified = true
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	f.byID[id].PasswordHash = hash
	return nil
}

func (f *fakeUsers) SetTwoFactor(_ context.Context, id uuid.UUID, enabled bool) error {
	f.byID[id].TwoFactorEnabled = enabled
	return nil
}

func (f *fakeUsers) TouchLastLogin(_ context.Context, id uuid.UUID) error {
	now := time.Now()
	f.byID[id].LastLoginAt = &now
	return nil
}

func (f *fakeUsers) UpdateStatus(_ context.Context, id uuid.UUID, active bool) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsActive = active
	return nil
}

func (f *fakeUsers) CountByRole(context.Context) (map[string]int, error) {
	out := map[string]int{}
	for _, u := range f.byID {
		out[string(u.Role)]++
	}
	return out, nil
}

type fakeOTPs struct {
	OTPStore
	mu    sync.Mutex
	codes []*model.OTP
}

func (f *fakeOTPs) Create(_ context.Context, o *model.OTP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o.ID = uuid.New()
	o.CreatedAt = time.Now()
	f.codes = append(f.codes, o)
	return nil
}

func (f *fakeOTPs) Latest(_ context.Context, userID uuid.UUID, purpose model.OTPPurpose) (*model.OTP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.codes) - 1; i >= 0; i-- {
		if o := f.codes[i]; o.UserID == userID && o.Purpose == purpose {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeOTPs) find(id uuid.UUID) *model.OTP {
	for _, o := range f.codes {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func (f *fakeOTPs) ReserveAttempt(_ context.Context, id uuid.UUID, now time.Time, maxAttempts int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.find(id)
	if o == nil || o.ConsumedAt != nil || !now.Before(o.ExpiresAt) || o.Attempts >= maxAttempts {
		return 0, repository.ErrNotFound
	}
	o.Attempts++
	return o.Attempts, nil
}

func (f *fakeOTPs) Consume(_ context.Context, id uuid.UUID, maxAttempts int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.find(id)
	if o == nil || o.ConsumedAt != nil || o.Attempts > maxAttempts {
		return repository.ErrNotFound
	}
	now := time.Now()
	o.ConsumedAt = &now
	return nil
}

func (f *fakeOTPs) Purge(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.codes[:0]
	var n int64
	for _, o := range f.codes {
		if o.ConsumedAt != nil || o.ExpiresAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, o)
	}
	f.codes = kept
	return n, nil
}

type fakeCourses struct {
	CourseStore
	byID      map[uuid.UUID]*model.Course
	refreshed int
}

func (f *fakeCourses) add(c *model.Course) *model.Course {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = model.CourseStatusPublished
	}
	if c.Currency == "" {
		c.Currency = "USD"
	}
	f.byID[c.ID] = c
	return c
}

func (f *fakeCourses) GetByID(_ context.Context, id uuid.UUID) (*model.Course, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCourses) Create(_ context.Context, c *model.Course) error {
	for _, existing := range f.byID {
		if existing.Slug == c.Slug {
			return repository.ErrDuplicate
		}
	}
	c.ID = uuid.New()
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeCourses) UpdateStatus(_ context.Context, id uuid.UUID, status model.CourseStatus) error {
	c, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Status = status
	return nil
}

func (f *fakeCourses) RefreshRating(context.Context, uuid.UUID) (model.RatingSummary, error) {
	f.refreshed++
	return model.RatingSummary{}, nil
}

func (f *fakeCourses) CountByStatus(context.Context) (map[string]int, error) {
	out := map[string]int{}
	for _, c := range f.byID {
		out[string(c.Status)]++
	}
	return out, nil
}

type fakeModules struct {
	ModuleStore
	items []model.Module
}

func (f *fakeModules) Create(_ context.Context, m *model.Module) error {
	m.ID = uuid.New()
	f.items = append(f.items, *m)
	return nil
}

func (f *fakeModules) GetByID(_ context.Context, id uuid.UUID) (*model.Module, error) {
	for _, m := range f.items {
		if m.ID == id {
			cp := m
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeModules) ListByCourse(_ context.Context, courseID uuid.UUID) ([]model.Module, error) {
	out := []model.Module{}
	for _, m := range f.items {
		if m.CourseID == courseID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeLessons struct {
	LessonStore
	items []model.Lesson
}

func (f *fakeLessons) Create(_ context.Context, l *model.Lesson) error {
	l.ID = uuid.New()
	f.items = append(f.items, *l)
	return nil
}

func (f *fakeLessons) GetByID(_ context.Context, id uuid.UUID) (*model.Lesson, error) {
	for _, l := range f.items {
		if l.ID == id {
			cp := l
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeLessons) ListByCourse(_ context.Context, courseID uuid.UUID) ([]model.Lesson, error) {
	out := []model.Lesson{}
	for _, l := range f.items {
		if l.CourseID == courseID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLessons) CountByCourse(ctx context.Context, courseID uuid.UUID) (int, error) {
	ls, _ := f.ListByCourse(ctx, courseID)
	return len(ls), nil
}

type fakeAssessments struct {
	AssessmentStore
	byID      map[uuid.UUID]*model.Assessment
	questions []model.AssessmentQuestion
}

func (f *fakeAssessments) GetByID(_ context.Context, id uuid.UUID) (*model.Assessment, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAssessments) ListByCourse(_ context.Context, courseID uuid.UUID) ([]model.Assessment, error) {
	out := []model.Assessment{}
	for _, a := range f.byID {
		if a.CourseID == courseID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAssessments) CountByCourse(_ context.Context, courseID uuid.UUID) (int, error) {
	n := 0
	for _, a := range f.byID {
		if a.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

func (f *fakeAssessments) ListQuestions(_ context.Context, assessmentID uuid.UUID) ([]model.AssessmentQuestion, error) {
	out := []model.AssessmentQuestion{}
	for _, q := range f.questions {
		if q.AssessmentID == assessmentID {
			out = append(out, q)
		}
	}
	return out, nil
}

// fakeAnswers grades attempts against the questions held by fakeAssessments
// to answer CountPassedAssessments the way the SQL does.
type fakeAnswers struct {
	AnswerStore
	assessments *fakeAssessments
	rows        []model.Answer
}

func (f *fakeAnswers) CountAttempts(_ context.Context, assessmentID, userID uuid.UUID) (int, error) {
	max := 0
	for _, r := range f.rows {
		if r.AssessmentID == assessmentID && r.UserID == userID && r.Attempt > max {
			max = r.Attempt
		}
	}
	return max, nil
}

func (f *fakeAnswers) InsertAttempt(_ context.Context, answers []model.Answer) error {
	for _, a := range answers {
		for _, r := range f.rows {
			if r.AssessmentID == a.AssessmentID && r.UserID == a.UserID && r.QuestionID == a.QuestionID && r.Attempt == a.Attempt {
				return repository.ErrDuplicate
			}
		}
	}
	f.rows = append(f.rows, answers...)
	return nil
}

func (f *fakeAnswers) CountPassedAssessments(ctx context.Context, courseID, userID uuid.UUID) (int, error) {
	passed := 0
	for _, a := range f.assessments.byID {
		if a.CourseID != courseID {
			continue
		}
		qs, _ := f.assessments.ListQuestions(ctx, a.ID)
		maxScore := 0
		for _, q := range qs {
			maxScore += q.Points
		}
		scores := map[int]int{}
		for _, r := range f.rows {
			if r.AssessmentID == a.ID && r.UserID == userID {
				scores[r.Attempt] += r.PointsAwarded
			}
		}
		for _, score := range scores {
			if grading.Passed(score, maxScore, a.PassingScore) {
				passed++
				break
			}
		}
	}
	return passed, nil
}

type fakeEnrollments struct {
	EnrollmentStore
	users   *fakeUsers
	courses *fakeCourses
	items   map[[2]uuid.UUID]*model.Enrollment
}

func (f *fakeEnrollments) fill(e *model.Enrollment) *model.Enrollment {
	cp := *e
	if u, ok := f.users.byID[e.UserID]; ok {
		cp.UserName, cp.UserEmail = u.Name, u.Email
	}
	if c, ok := f.courses.byID[e.CourseID]; ok {
		cp.CourseTitle = c.Title
	}
	return &cp
}

func (f *fakeEnrollments) add(userID, courseID uuid.UUID, status model.EnrollmentStatus) *model.Enrollment {
	e := &model.Enrollment{ID: uuid.New(), UserID: userID, CourseID: courseID, Status: status, EnrolledAt: time.Now()}
	f.items[[2]uuid.UUID{userID, courseID}] = e
	return e
}

func (f *fakeEnrollments) Upsert(_ context.Context, userID, courseID uuid.UUID, paymentID *uuid.UUID) (*model.Enrollment, error) {
	key := [2]uuid.UUID{userID, courseID}
	e, ok := f.items[key]
	if !ok {
		e = &model.Enrollment{ID: uuid.New(), UserID: userID, CourseID: courseID, EnrolledAt: time.Now()}
		f.items[key] = e
	}
	e.Status = model.EnrollmentStatusActive
	if paymentID != nil {
		e.PaymentID = paymentID
	}
	return f.fill(e), nil
}

func (f *fakeEnrollments) GetByUserAndCourse(_ context.Context, userID, courseID uuid.UUID) (*model.Enrollment, error) {
	e, ok := f.items[[2]uuid.UUID{userID, courseID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return f.fill(e), nil
}

func (f *fakeEnrollments) byID(id uuid.UUID) *model.Enrollment {
	for _, e := range f.items {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (f *fakeEnrollments) UpdateProgress(_ context.Context, id uuid.UUID, percent float64) error {
	f.byID(id).ProgressPercent = percent
	return nil
}

func (f *fakeEnrollments) MarkCompleted(_ context.Context, id uuid.UUID) (bool, error) {
	e := f.byID(id)
	if e.Status != model.EnrollmentStatusActive {
		return false, nil
	}
	now := time.Now()
	e.Status = model.EnrollmentStatusCompleted
	e.CompletedAt = &now
	return true, nil
}

func (f *fakeEnrollments) Cancel(_ context.Context, id uuid.UUID) error {
	e := f.byID(id)
	if e == nil || e.Status != model.EnrollmentStatusActive {
		return repository.ErrNotFound
	}
	e.Status = model.EnrollmentStatusCancelled
	return nil
}

func (f *fakeEnrollments) CountByStatus(context.Context) (map[string]int, error) {
	out := map[string]int{}
	for _, e := range f.items {
		out[string(e.Status)]++
	}
	return out, nil
}

type fakeProgress struct {
	ProgressStore
	done map[[2]uuid.UUID][]uuid.UUID
}

func (f *fakeProgress) MarkComplete(_ context.Context, userID, courseID, lessonID uuid.UUID) error {
	key := [2]uuid.UUID{userID, courseID}
	for _, id := range f.done[key] {
		if id == lessonID {
			return nil
		}
	}
	f.done[key] = append(f.done[key], lessonID)
	return nil
}

func (f *fakeProgress) CompletedLessonIDs(_ context.Context, userID, courseID uuid.UUID) ([]uuid.UUID, error) {
	return append([]uuid.UUID{}, f.done[[2]uuid.UUID{userID, courseID}]...), nil
}

type fakeCertificates struct {
	CertificateStore
	items []*model.Certificate
	// collide makes the next n Create calls fail on the number constraint.
	collide int
}

func (f *fakeCertificates) Create(_ context.Context, ct *model.Certificate) error {
	if f.collide > 0 {
		f.collide--
		return repository.ErrDuplicate
	}
	for _, existing := range f.items {
		if existing.CertificateNumber == ct.CertificateNumber ||
			(existing.UserID == ct.UserID && existing.CourseID == ct.CourseID) {
			return repository.ErrDuplicate
		}
	}
	ct.ID = uuid.New()
	ct.IssuedAt = time.Now()
	cp := *ct
	f.items = append(f.items, &cp)
	return nil
}

func (f *fakeCertificates) GetByUserAndCourse(_ context.Context, userID, courseID uuid.UUID) (*model.Certificate, error) {
	for _, ct := range f.items {
		if ct.UserID == userID && ct.CourseID == courseID {
			cp := *ct
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCertificates) GetByNumber(_ context.Context, number string) (*model.Certificate, error) {
	for _, ct := range f.items {
		if ct.CertificateNumber == number {
			cp := *ct
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCertificates) GetByID(_ context.Context, id uuid.UUID) (*model.Certificate, error) {
	for _, ct := range f.items {
		if ct.ID == id {
			cp := *ct
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCertificates) Count(context.Context) (int, error) { return len(f.items), nil }

type fakePayments struct {
	PaymentStore
	byID map[uuid.UUID]*model.Payment
}

func (f *fakePayments) Create(_ context.Context, p *model.Payment) error {
	p.ID = uuid.New()
	p.Status = model.PaymentStatusPending
	p.CreatedAt = time.Now()
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakePayments) SetCheckout(_ context.Context, id uuid.UUID, ref, url string) error {
	p := f.byID[id]
	p.ProviderRef, p.CheckoutURL = &ref, &url
	return nil
}

func (f *fakePayments) GetByID(_ context.Context, id uuid.UUID) (*model.Payment, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePayments) GetByProviderRef(_ context.Context, provider model.PaymentProvider, ref string) (*model.Payment, error) {
	for _, p := range f.byID {
		if p.Provider == provider && p.ProviderRef != nil && *p.ProviderRef == ref {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakePayments) Transition(_ context.Context, id uuid.UUID, status model.PaymentStatus, reason *string) (bool, error) {
	p, ok := f.byID[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status, p.FailureReason = status, reason
	return true, nil
}

func (f *fakePayments) ExpireStale(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, p := range f.byID {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(cutoff) {
			p.Status = model.PaymentStatusExpired
			n++
		}
	}
	return n, nil
}

func (f *fakePayments) RevenueByCurrency(context.Context) (map[string]int64, error) {
	out := map[string]int64{}
	for _, p := range f.byID {
		if p.Status == model.PaymentStatusSucceeded {
			out[p.Currency] += p.AmountCents
		}
	}
	return out, nil
}

type fakeNotifications struct {
	NotificationStore
	items []model.Notification
}

func (f *fakeNotifications) Create(_ context.Context, n *model.Notification) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	f.items = append(f.items, *n)
	return nil
}

func (f *fakeNotifications) types(userID uuid.UUID) []string {
	var out []string
	for _, n := range f.items {
		if n.UserID == userID {
			out = append(out, n.Type)
		}
	}
	return out
}

type fakeGateway struct {
	provider model.PaymentProvider
	session  payment.Session
	err      error
	event    *payment.Event
	parseErr error
	inputs   []payment.CheckoutInput
}

func (g *fakeGateway) Provider() model.PaymentProvider { return g.provider }

func (g *fakeGateway) CreateCheckout(_ context.Context, in payment.CheckoutInput) (payment.Session, error) {
	g.inputs = append(g.inputs, in)
	return g.session, g.err
}

func (g *fakeGateway) ParseWebhook([]byte, http.Header) (*payment.Event, error) {
	return g.event, g.parseErr
}

type fakeDocuments struct {
	DocumentStore
	byID map[uuid.UUID]*model.Document
}

func (f *fakeDocuments) Create(_ context.Context, d *model.Document) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	cp := *d
	f.byID[d.ID] = &cp
	return nil
}

func (f *fakeDocuments) GetByID(_ context.Context, id uuid.UUID) (*model.Document, error) {
	d, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDocuments) List(_ context.Context, p model.DocumentListParams, ownerID *uuid.UUID) ([]model.Document, int, error) {
	out := []model.Document{}
	for _, d := range f.byID {
		if ownerID != nil && d.OwnerID != *ownerID {
			continue
		}
		if p.CourseID != "" && (d.CourseID == nil || d.CourseID.String() != p.CourseID) {
			continue
		}
		if p.LessonID != "" && (d.LessonID == nil || d.LessonID.String() != p.LessonID) {
			continue
		}
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (f *fakeDocuments) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// memStorage keeps stored objects in memory.
type memStorage struct {
	objects map[string][]byte
}

func (m *memStorage) Put(_ context.Context, key string, r io.Reader, contentType string) (storage.Object, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return storage.Object{}, err
	}
	m.objects[key] = body
	return storage.Object{Key: key, URL: "/uploads/" + key, ContentType: contentType, Size: int64(len(body))}, nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

// testEnv wires every service over the fakes and a miniredis instance.
type testEnv struct {
	cfg   *config.Config
	mr    *miniredis.Miniredis
	rdb   *redis.Client
	users *fakeUsers

	otpRepo       *fakeOTPs
	courses       *fakeCourses
	modules       *fakeModules
	lessons       *fakeLessons
	assessmentsDB *fakeAssessments
	answers       *fakeAnswers
	enrollmentsDB *fakeEnrollments
	progressDB    *fakeProgress
	certsDB       *fakeCertificates
	paymentsDB    *fakePayments
	notifyDB      *fakeNotifications
	gateway       *fakeGateway
	docsDB        *fakeDocuments
	objects       *memStorage

	auth         *AuthService
	otp          *OTPService
	enrollments  *EnrollmentService
	certificates *CertificateService
	progress     *ProgressService
	assessments  *AssessmentService
	payments     *PaymentService
	dashboard    *DashboardService
	courseSvc    *CourseService
	documents    *DocumentService
}

func testConfig() *config.Config {
	return &config.Config{
		AppName:                "LearnHub",
		JWTSecret:              "test-secret",
		JWTExpiry:              time.Hour,
		ChallengeExpiry:        5 * time.Minute,
		BcryptCost:             bcrypt.MinCost,
		OTPTTL:                 10 * time.Minute,
		OTPMaxAttempts:         3,
		OTPResendAfter:         time.Minute,
		MaxUploadBytes:         1 << 20,
		DefaultPaymentProvider: string(model.PaymentProviderStripe),
		PaymentPendingTTL:      24 * time.Hour,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := zerolog.Nop()
	env := &testEnv{cfg: testConfig(), mr: mr, rdb: rdb, users: newFakeUsers()}
	env.otpRepo = &fakeOTPs{}
	env.courses = &fakeCourses{byID: map[uuid.UUID]*model.Course{}}
	env.modules = &fakeModules{}
	env.lessons = &fakeLessons{}
	env.assessmentsDB = &fakeAssessments{byID: map[uuid.UUID]*model.Assessment{}}
	env.answers = &fakeAnswers{assessments: env.assessmentsDB}
	env.enrollmentsDB = &fakeEnrollments{users: env.users, courses: env.courses, items: map[[2]uuid.UUID]*model.Enrollment{}}
	env.progressDB = &fakeProgress{done: map[[2]uuid.UUID][]uuid.UUID{}}
	env.certsDB = &fakeCertificates{}
	env.paymentsDB = &fakePayments{byID: map[uuid.UUID]*model.Payment{}}
	env.notifyDB = &fakeNotifications{}
	env.gateway = &fakeGateway{provider: model.PaymentProviderStripe}
	env.docsDB = &fakeDocuments{byID: map[uuid.UUID]*model.Document{}}
	env.objects = &memStorage{objects: map[string][]byte{}}

	mail := NewMailService(rdb)
	activity := NewActivityService(rdb, nil, log)
	notifications := NewNotificationService(env.notifyDB, rdb, log)

	env.otp = NewOTPService(env.cfg, rdb, env.otpRepo)
	env.auth = NewAuthService(env.cfg, rdb, env.users, env.otp, mail, activity, log)
	env.enrollments = NewEnrollmentService(env.courses, env.enrollmentsDB, env.users, notifications, mail, activity, log)
	env.certificates = NewCertificateService(env.certsDB)
	env.progress = NewProgressService(ProgressDeps{
		Courses:     env.courses,
		Modules:     env.modules,
		Lessons:     env.lessons,
		Assessments: env.assessmentsDB,
		Answers:     env.answers,
		Enrollments: env.enrollmentsDB,
		Progress:    env.progressDB,
	}, env.certificates, notifications, mail, activity, log)
	env.assessments = NewAssessmentService(env.courses, env.modules, env.assessmentsDB, env.answers, env.enrollmentsDB, env.progress, notifications, activity, log)
	env.payments = NewPaymentService(env.cfg, PaymentDeps{
		Payments:    env.paymentsDB,
		Courses:     env.courses,
		Users:       env.users,
		Enrollments: env.enrollmentsDB,
	}, map[model.PaymentProvider]payment.Gateway{model.PaymentProviderStripe: env.gateway},
		env.enrollments, notifications, mail, activity, log)
	env.dashboard = NewDashboardService(env.users, env.courses, env.enrollmentsDB, env.certsDB, env.paymentsDB)
	env.courseSvc = NewCourseService(env.cfg, env.courses, env.modules, env.lessons, env.enrollmentsDB, rdb, env.objects, activity, log)
	env.documents = NewDocumentService(env.cfg, env.docsDB, env.courses, env.lessons, env.enrollmentsDB, env.objects, activity, log)
	return env
}

// emails returns the queued email jobs in order.
func (e *testEnv) emails(t *testing.T) []model.EmailJob {
	t.Helper()
	raw, err := e.rdb.LRange(context.Background(), config.Queues.Email, 0, -1).Result()
	require.NoError(t, err)
	jobs := make([]model.EmailJob, 0, len(raw))
	for _, r := range raw {
		var job model.EmailJob
		require.NoError(t, json.Unmarshal([]byte(r), &job))
		jobs = append(jobs, job)
	}
	return jobs
}

// lastCode returns the OTP from the newest email sent with template.
func (e *testEnv) lastCode(t *testing.T, template string) string {
	t.Helper()
	jobs := e.emails(t)
	for i := len(jobs) - 1; i >= 0; i-- {
		if jobs[i].Template == template {
			code, ok := jobs[i].Data["Code"].(string)
			require.True(t, ok, "email has no code")
			return code
		}
	}
	t.Fatalf("no %s email queued", template)
	return ""
}

func (e *testEnv) templates(t *testing.T) []string {
	var out []string
	for _, j := range e.emails(t) {
		out = append(out, j.Template)
	}
	return out
}

// seedCourse adds a published course with one module holding n lessons.
func (e *testEnv) seedCourse(instructorID uuid.UUID, priceCents int64, lessons int) (*model.Course, []model.Lesson) {
	c := e.courses.add(&model.Course{InstructorID: instructorID, Title: "Go Basics", PriceCents: priceCents})
	m := model.Module{ID: uuid.New(), CourseID: c.ID, Title: "Intro"}
	e.modules.items = append(e.modules.items, m)
	out := make([]model.Lesson, 0, lessons)
	for i := 0; i < lessons; i++ {
		l := model.Lesson{ID: uuid.New(), ModuleID: m.ID, CourseID: c.ID, Title: "Lesson", Position: i}
		e.lessons.items = append(e.lessons.items, l)
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return c, out
}
