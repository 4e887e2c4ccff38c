package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/learnhub-backend/internal/model"
)

const moduleColumns = `id, course_id, title, description, position, created_at, updated_at`

// ModuleRepository handles course module data access.
type ModuleRepository struct {
	pool *pgxpool.Pool
}

// NewModuleRepository creates a new ModuleRepository.
func NewModuleRepository(pool *pgxpool.Pool) *ModuleRepository {
	return &ModuleRepository{pool: pool}
}

func scanModule(row pgx.Row) (*model.Module, error) {
	m := &model.Module{}
	if err := row.Scan(&m.ID, &m.CourseID, &m.Title, &m.Description, &m.Position, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	return m, nil
}

// Create inserts a module. A negative position appends it after the last module.
func (r *ModuleRepository) Create(ctx context.Context, m *model.Module) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO modules (course_id, title, description, position)
		 VALUES ($1, $2, $3,
		         CASE WHEN $4::int >= 0 THEN $4::int
		              ELSE (SELECT COALESCE(MAX(position) + 1, 0) FROM modules WHERE course_id = $1) END)
		 RETURNING id, position, created_at, updated_at`,
		m.CourseID, m.Title, m.Description, m.Position,
	).Scan(&m.ID, &m.Position, &m.CreatedAt, &m.UpdatedAt)
	return mapError(err)
}

// GetByID retrieves a module.
func (r *ModuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Module, error) {
	return scanModule(r.pool.QueryRow(ctx, `SELECT `+moduleColumns+` FROM modules WHERE id = $1`, id))
}

// ListByCourse returns the modules of a course in order.
func (r *ModuleRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Module, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+moduleColumns+` FROM modules WHERE course_id = $1 ORDER BY position, created_at`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	modules := make([]model.Module, 0)
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		modules = append(modules, *m)
	}
	return modules, rows.Err()
}

// Update modifies a module.
func (r *ModuleRepository) Update(ctx context.Context, m *model.Module) error {
	return expectAffected(r.pool.Exec(ctx,
		`UPDATE modules SET title = $1, description = $2, position = $3, updated_at = NOW() WHERE id = $4`,
		m.Title, m.Description, m.Position, m.ID,
	))
}

// Delete removes a module and its lessons.
func (r *ModuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return expectAffected(r.pool.Exec(ctx, `DELETE FROM modules WHERE id = $1`, id))
}
