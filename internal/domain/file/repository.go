package file

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	FetchFiles(ctx context.Context) (Records, error)
	CreateFile(ctx context.Context, req *Record) (*Record, error)
	DeleteFileByUUID(ctx context.Context, id uuid.UUID) error
}
