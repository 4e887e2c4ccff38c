package service

import (
	"context"

	"github.com/stemsi/learnhub-backend/internal/model"
)

// DashboardService builds the admin overview.
type DashboardService struct {
	users        UserStore
	courses      CourseStore
	enrollments  EnrollmentStore
	certificates CertificateStore
	payments     PaymentStore
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(users UserStore, courses CourseStore, enrollments EnrollmentStore, certificates CertificateStore, payments PaymentStore) *DashboardService {
	return &DashboardService{
		users:        users,
		courses:      courses,
		enrollments:  enrollments,
		certificates: certificates,
		payments:     payments,
	}
}

// GetStats collects platform counts and revenue per currency.
func (s *DashboardService) GetStats(ctx context.Context) (*model.DashboardStats, error) {
	byRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, err
	}

	courseStatus, err := s.courses.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	enrollmentStatus, err := s.enrollments.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	certs, err := s.certificates.Count(ctx)
	if err != nil {
		return nil, err
	}

	revenue, err := s.payments.RevenueByCurrency(ctx)
	if err != nil {
		return nil, err
	}

	stats := &model.DashboardStats{
		UsersByRole:      byRole,
		PublishedCourses: courseStatus[string(model.CourseStatusPublished)],
		Completions:      enrollmentStatus[string(model.EnrollmentStatusCompleted)],
		Certificates:     certs,
		RevenueCents:     revenue,
	}
	for _, n := range byRole {
		stats.TotalUsers += n
	}
	for _, n := range courseStatus {
		stats.TotalCourses += n
	}
	for status, n := range enrollmentStatus {
		if status != string(model.EnrollmentStatusCancelled) {
			stats.Enrollments += n
		}
	}
	return stats, nil
}
