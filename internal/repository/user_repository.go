package repository

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/learnhub-backend/internal/model"
)

const userColumns = `id, organization_id, email, name, password_hash, role, avatar_url,
	email_verified, two_factor_enabled, is_active, last_login_at, created_at, updated_at`

// UserRepository handles user data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.OrganizationID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.AvatarURL,
		&u.EmailVerified, &u.TwoFactorEnabled, &u.IsActive, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

// Create inserts a new user. Email uniqueness violations return ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (organization_id, email, name, password_hash, role, email_verified, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		u.OrganizationID, u.Email, u.Name, u.PasswordHash, u.Role, u.EmailVerified, u.IsActive,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return mapError(err)
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail retrieves a user by email, case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
}

// List retrieves users with pagination and optional role/search filters.
func (r *UserRepository) List(ctx context.Context, p model.UserListParams) ([]model.User, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	if p.Role != "" {
		args = append(args, p.Role)
		where += ` AND role = $` + strconv.Itoa(len(args))
	}
	if p.Query != "" {
		args = append(args, "%"+p.Query+"%")
		where += ` AND (name ILIKE $` + strconv.Itoa(len(args)) + ` OR email ILIKE $` + strconv.Itoa(len(args)) + `)`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, p.PerPage, p.Offset())
	query := `SELECT ` + userColumns + ` FROM users` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

// ListByOrganization returns the members of an organization.
func (r *UserRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE organization_id = $1 ORDER BY name`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateProfile changes the display name.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, name string) error {
	return expectAffected(r.pool.Exec(ctx,
		`UPDATE users SET name = $1, updated_at = NOW() WHERE id = $2`, name, id))
}

// UpdateAvatar sets the avatar URL.
func (r *UserRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, url string) error {
	return expectAffected(r.pool.Exec(ctx,
		`UPDATE users SET avatar_url = $1, updated_at = NOW() WHERE id = $2`, url, id))
}

// UpdatePassword updates a user's password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return expectAffected(r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, id))
}

// MarkEmailVerified flags the email as confirmed.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	return expectAffected(r.pool.Exec(ctx,
		`UPDATE users SET email_verified = TRUE, updated_at = NOW() WHERE id = $1`, id))
}

// SetTwoFactor toggles email two-factor authentication.
func (r *UserRepository) SetTwoFactor(ctx context.Context, id uuid.UUID, enabled bool) error {
	return expectAffected(r.pool.Exec(ctx,
		`UPDATE users SET two_factor_enabled = $1, updated_at = NOW() WHERE id = $2`, enabled, id))
}

// UpdateRole changes a user's role.
func (r *UserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	return expectAffected(r.pool.Exec(ctx,
		`UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`, role, id))
}

// UpdateStatus (de)activates an account.
func (r *UserRepository) UpdateStatus(ctx context.Context, id uuid.UUID, active bool) error {
	return expectAffected(r.pool.Exec(ctx,
		`UPDATE users SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id))
}

// TouchLastLogin records a successful login.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, id)
	return err
}

// SetOrganization attaches a user to an organization, or detaches it when orgID is nil.
func (r *UserRepository) SetOrganization(ctx context.Context, id uuid.UUID, orgID *uuid.UUID) error {
	return expectAffected(r.pool.Exec(ctx,
		`UPDATE users SET organization_id = $1, updated_at = NOW() WHERE id = $2`, orgID, id))
}

// PromoteToOrgAdmin makes a user the admin of an organization unless they are a platform admin.
func (r *UserRepository) PromoteToOrgAdmin(ctx context.Context, id, orgID uuid.UUID) error {
	return expectAffected(r.pool.Exec(ctx,
		`UPDATE users
		 SET organization_id = $1,
		     role = CASE WHEN role = 'ADMIN' THEN role ELSE 'ORG_ADMIN' END,
		     updated_at = NOW()
		 WHERE id = $2`, orgID, id))
}

// CountByRole returns the number of users per role.
func (r *UserRepository) CountByRole(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		counts[role] = n
	}
	return counts, rows.Err()
}
