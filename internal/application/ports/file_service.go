package ports

import (
	"context"
	"io"
	"mime/multipart"

	"github.com/google/uuid"

	"file-sharing-api/internal/domain/file"
)

type FileService interface {
	FindFiles(ctx context.Context) (file.Records, error)
	CreateFile(ctx context.Context, in *multipart.FileHeader) (*file.Record, error)
	DeleteFile(ctx context.Context, id uuid.UUID, storagePath string) error
	DownloadFile(storagePath string) (io.ReadCloser, error)
	ShareLink(storagePath string) (*file.SharedLink, error)
	OpenSharedLink(token string) (io.ReadCloser, error)
}
