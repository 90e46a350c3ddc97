package file

import (
	"time"

	"github.com/google/uuid"
)

type (
	// Record describes one uploaded file. It is immutable after
	// creation; the only lifecycle transition is deletion.
	Record struct {
		UUID uuid.UUID

		Name        string
		MimeType    string
		SizeBytes   uint64
		StoragePath string

		CreatedAt time.Time
	}
	Records []*Record

	// SharedLink is a time-limited retrieval URL. It is reusable
	// within its validity window and cannot be revoked earlier.
	SharedLink struct {
		URL        string
		TTLSeconds int64
	}
)
