package file

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domain "file-sharing-api/internal/domain/file"
)

const uniqueViolation = "23505"

// DB is the subset of *pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repository struct {
	db DB
}

func NewRepository(db DB) domain.Repository {
	return &Repository{db: db}
}

func (r *Repository) FetchFiles(ctx context.Context) (domain.Records, error) {
	rows, err := r.db.Query(ctx, SelectFiles)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMetadata, err)
	}
	defer rows.Close()

	var fs Files
	for rows.Next() {
		f := new(File)

		if err = rows.Scan(
			&f.UUID,

			&f.Name,
			&f.MimeType,
			&f.SizeBytes,
			&f.StoragePath,

			&f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMetadata, err)
		}

		fs = append(fs, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMetadata, err)
	}

	return fromDBModels(&fs), nil
}

func (r *Repository) CreateFile(ctx context.Context, req *domain.Record) (*domain.Record, error) {
	f := new(File)

	err := r.db.QueryRow(
		ctx,
		InsertFile,
		req.Name, req.MimeType, req.SizeBytes, req.StoragePath,
	).Scan(
		&f.UUID,

		&f.Name,
		&f.MimeType,
		&f.SizeBytes,
		&f.StoragePath,

		&f.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: storage_path %q", domain.ErrMetadataConflict, req.StoragePath)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrMetadata, err)
	}

	return fromDBModel(f), nil
}

func (r *Repository) DeleteFileByUUID(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, DeleteFileByUUID, id)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMetadata, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrMetadataNotFound, id)
	}

	return nil
}
