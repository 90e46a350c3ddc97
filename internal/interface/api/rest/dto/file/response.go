package file

import (
	"time"

	"github.com/google/uuid"
)

type (
	File struct {
		ID        uuid.UUID `json:"id"`
		Name      string    `json:"name"`
		Size      uint64    `json:"size"`
		Type      string    `json:"type"`
		Path      string    `json:"path"`
		CreatedAt time.Time `json:"created_at"`
	}
	Files        []File
	ResponseData struct {
		Data Files `json:"data"`
	}

	// UploadResult reports one file of a batch upload; files fail
	// independently.
	UploadResult struct {
		Name  string `json:"name"`
		File  *File  `json:"file,omitempty"`
		Error string `json:"error,omitempty"`
	}
	UploadResponse struct {
		Results []UploadResult `json:"results"`
	}

	ShareLinkResponse struct {
		URL       string `json:"url"`
		ExpiresIn int64  `json:"expires_in"`
	}
)
