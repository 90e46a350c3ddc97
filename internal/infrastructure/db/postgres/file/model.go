package file

import (
	"time"

	"github.com/google/uuid"
)

type (
	File struct {
		UUID uuid.UUID

		Name        string
		MimeType    string
		SizeBytes   uint64
		StoragePath string

		CreatedAt time.Time
	}
	Files []*File
)
