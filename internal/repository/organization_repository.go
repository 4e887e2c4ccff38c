package repository

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/learnhub-backend/internal/model"
)

const organizationColumns = `o.id, o.name, o.slug, o.description, o.logo_url, o.owner_id, o.created_at, o.updated_at,
	(SELECT COUNT(*) FROM users u WHERE u.organization_id = o.id)`

// OrganizationRepository handles organization data access.
type OrganizationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository creates a new OrganizationRepository.
func NewOrganizationRepository(pool *pgxpool.Pool) *OrganizationRepository {
	return &OrganizationRepository{pool: pool}
}

func scanOrganization(row pgx.Row) (*model.Organization, error) {
	o := &model.Organization{}
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &o.Description, &o.LogoURL, &o.OwnerID, &o.CreatedAt, &o.UpdatedAt, &o.MemberCount)
	if err != nil {
		return nil, mapError(err)
	}
	return o, nil
}

// Create inserts a new organization. A taken slug returns ErrDuplicate.
func (r *OrganizationRepository) Create(ctx context.Context, o *model.Organization) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO organizations (name, slug, description, logo_url, owner_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		o.Name, o.Slug, o.Description, o.LogoURL, o.OwnerID,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	return mapError(err)
}

// GetByID retrieves an organization with its member count.
func (r *OrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	return scanOrganization(r.pool.QueryRow(ctx,
		`SELECT `+organizationColumns+` FROM organizations o WHERE o.id = $1`, id))
}

// List retrieves organizations with pagination and optional name search.
func (r *OrganizationRepository) List(ctx context.Context, p model.OrganizationListParams) ([]model.Organization, int, error) {
	where := ``
	var args []interface{}
	if p.Query != "" {
		args = append(args, "%"+p.Query+"%")
		where = ` WHERE o.name ILIKE $1`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM organizations o`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, p.PerPage, p.Offset())
	rows, err := r.pool.Query(ctx,
		`SELECT `+organizationColumns+` FROM organizations o`+where+
			` ORDER BY o.name LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orgs := make([]model.Organization, 0)
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, 0, err
		}
		orgs = append(orgs, *o)
	}
	return orgs, total, rows.Err()
}

// Update modifies an organization's profile.
func (r *OrganizationRepository) Update(ctx context.Context, o *model.Organization) error {
	return expectAffected(r.pool.Exec(ctx,
		`UPDATE organizations SET name = $1, description = $2, logo_url = $3, updated_at = NOW()
		 WHERE id = $4`,
		o.Name, o.Description, o.LogoURL, o.ID,
	))
}

// Delete removes an organization. Members and courses are detached by the schema.
func (r *OrganizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return expectAffected(r.pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id))
}
