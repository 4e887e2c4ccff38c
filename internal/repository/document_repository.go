package repository

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/learnhub-backend/internal/model"
)

const documentColumns = `id, owner_id, course_id, lesson_id, title, file_url, storage_key, mime_type, size_bytes, created_at`

// DocumentRepository handles uploaded document metadata.
type DocumentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

func scanDocument(row pgx.Row) (*model.Document, error) {
	d := &model.Document{}
	err := row.Scan(&d.ID, &d.OwnerID, &d.CourseID, &d.LessonID, &d.Title, &d.FileURL, &d.StorageKey,
		&d.MimeType, &d.SizeBytes, &d.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return d, nil
}

// Create inserts document metadata.
func (r *DocumentRepository) Create(ctx context.Context, d *model.Document) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO documents (owner_id, course_id, lesson_id, title, file_url, storage_key, mime_type, size_bytes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		d.OwnerID, d.CourseID, d.LessonID, d.Title, d.FileURL, d.StorageKey, d.MimeType, d.SizeBytes,
	).Scan(&d.ID, &d.CreatedAt)
	return mapError(err)
}

// GetByID retrieves a document.
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	return scanDocument(r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
}

// List returns documents filtered by course and/or lesson. ownerID, when set,
// restricts the result to one uploader.
func (r *DocumentRepository) List(ctx context.Context, p model.DocumentListParams, ownerID *uuid.UUID) ([]model.Document, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	if p.CourseID != "" {
		args = append(args, p.CourseID)
		where += ` AND course_id::text = $` + strconv.Itoa(len(args))
	}
	if p.LessonID != "" {
		args = append(args, p.LessonID)
		where += ` AND lesson_id::text = $` + strconv.Itoa(len(args))
	}
	if ownerID != nil {
		args = append(args, *ownerID)
		where += ` AND owner_id = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, p.PerPage, p.Offset())
	rows, err := r.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM documents`+where+
			` ORDER BY created_at DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	docs := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, *d)
	}
	return docs, total, rows.Err()
}

// Delete removes document metadata.
func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return expectAffected(r.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id))
}
