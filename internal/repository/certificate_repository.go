package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/learnhub-backend/internal/model"
)

const certificateColumns = `ct.id, ct.user_id, u.name, ct.course_id, c.title, ct.enrollment_id, ct.certificate_number, ct.issued_at`

const certificateFrom = ` FROM certificates ct JOIN users u ON u.id = ct.user_id JOIN courses c ON c.id = ct.course_id`

// CertificateRepository handles issued certificates.
type CertificateRepository struct {
	pool *pgxpool.Pool
}

// NewCertificateRepository creates a new CertificateRepository.
func NewCertificateRepository(pool *pgxpool.Pool) *CertificateRepository {
	return &CertificateRepository{pool: pool}
}

func scanCertificate(row pgx.Row) (*model.Certificate, error) {
	ct := &model.Certificate{}
	err := row.Scan(&ct.ID, &ct.UserID, &ct.UserName, &ct.CourseID, &ct.CourseTitle, &ct.EnrollmentID,
		&ct.CertificateNumber, &ct.IssuedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return ct, nil
}

// Create inserts a certificate. A second certificate for the same user and
// course, or a number collision, returns ErrDuplicate.
func (r *CertificateRepository) Create(ctx context.Context, ct *model.Certificate) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO certificates (user_id, course_id, enrollment_id, certificate_number)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, issued_at`,
		ct.UserID, ct.CourseID, ct.EnrollmentID, ct.CertificateNumber,
	).Scan(&ct.ID, &ct.IssuedAt)
	return mapError(err)
}

// GetByID retrieves a certificate.
func (r *CertificateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Certificate, error) {
	return scanCertificate(r.pool.QueryRow(ctx, `SELECT `+certificateColumns+certificateFrom+` WHERE ct.id = $1`, id))
}

// GetByNumber retrieves a certificate by its public number.
func (r *CertificateRepository) GetByNumber(ctx context.Context, number string) (*model.Certificate, error) {
	return scanCertificate(r.pool.QueryRow(ctx,
		`SELECT `+certificateColumns+certificateFrom+` WHERE ct.certificate_number = $1`, number))
}

// GetByUserAndCourse retrieves the certificate of a user for a course.
func (r *CertificateRepository) GetByUserAndCourse(ctx context.Context, userID, courseID uuid.UUID) (*model.Certificate, error) {
	return scanCertificate(r.pool.QueryRow(ctx,
		`SELECT `+certificateColumns+certificateFrom+` WHERE ct.user_id = $1 AND ct.course_id = $2`, userID, courseID))
}

// ListByUser returns every certificate held by a user.
func (r *CertificateRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Certificate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+certificateColumns+certificateFrom+` WHERE ct.user_id = $1 ORDER BY ct.issued_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]model.Certificate, 0)
	for rows.Next() {
		ct, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *ct)
	}
	return list, rows.Err()
}

// Count returns the number of issued certificates.
func (r *CertificateRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM certificates`).Scan(&n)
	return n, err
}
