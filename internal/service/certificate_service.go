package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/repository"
)

const certificateNumberAttempts = 5

// CertificateService issues and looks up completion certificates.
type CertificateService struct {
	certs CertificateStore
	now   func() time.Time
}

// NewCertificateService creates a new CertificateService.
func NewCertificateService(certs CertificateStore) *CertificateService {
	return &CertificateService{certs: certs, now: time.Now}
}

// Issue creates the certificate for a completed enrollment. When one already
// exists for the user and course it is returned with issued=false.
func (s *CertificateService) Issue(ctx context.Context, e *model.Enrollment) (*model.Certificate, bool, error) {
	for i := 0; i < certificateNumberAttempts; i++ {
		number, err := s.newNumber()
		if err != nil {
			return nil, false, err
		}
		ct := &model.Certificate{
			UserID:            e.UserID,
			CourseID:          e.CourseID,
			EnrollmentID:      e.ID,
			CertificateNumber: number,
		}
		err = s.certs.Create(ctx, ct)
		if err == nil {
			ct.UserName = e.UserName
			ct.CourseTitle = e.CourseTitle
			return ct, true, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, false, fmt.Errorf("create certificate: %w", err)
		}
		existing, getErr := s.certs.GetByUserAndCourse(ctx, e.UserID, e.CourseID)
		if getErr == nil {
			return existing, false, nil
		}
		if !errors.Is(getErr, ErrNotFound) {
			return nil, false, getErr
		}
		// Number collision; try another one.
	}
	return nil, false, errors.New("create certificate: could not allocate a unique number")
}

// newNumber builds LH-YYYYMMDD-XXXXXXXX with 8 random hex digits.
func (s *CertificateService) newNumber() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("certificate number: %w", err)
	}
	return fmt.Sprintf("LH-%s-%s", s.now().UTC().Format("20060102"), strings.ToUpper(hex.EncodeToString(buf))), nil
}

// Get returns a certificate to its holder or an admin.
func (s *CertificateService) Get(ctx context.Context, actor *Actor, id uuid.UUID) (*model.Certificate, error) {
	ct, err := s.certs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ct.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return ct, nil
}

// ListMine returns the caller's certificates.
func (s *CertificateService) ListMine(ctx context.Context, userID uuid.UUID) ([]model.Certificate, error) {
	return s.certs.ListByUser(ctx, userID)
}

// ForCourse returns the user's certificate for a course, or nil.
func (s *CertificateService) ForCourse(ctx context.Context, userID, courseID uuid.UUID) (*model.Certificate, error) {
	ct, err := s.certs.GetByUserAndCourse(ctx, userID, courseID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return ct, err
}

// Verify is the public lookup by certificate number. Unknown numbers are
// reported as invalid rather than as an error.
func (s *CertificateService) Verify(ctx context.Context, number string) (*model.CertificateVerification, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	ct, err := s.certs.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &model.CertificateVerification{Valid: false, CertificateNumber: number}, nil
		}
		return nil, err
	}
	issued := ct.IssuedAt
	return &model.CertificateVerification{
		Valid:             true,
		CertificateNumber: ct.CertificateNumber,
		HolderName:        ct.UserName,
		CourseTitle:       ct.CourseTitle,
		IssuedAt:          &issued,
	}, nil
}
