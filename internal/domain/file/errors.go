package file

import "errors"

// Failure kinds surfaced by the coordination core. Callers classify
// with errors.Is; lower layers wrap these with %w and context.
var (
	ErrStorageWrite  = errors.New("storage write failed")
	ErrStorageRead   = errors.New("storage read failed")
	ErrBlobNotFound  = errors.New("blob not found")
	ErrStorageDelete = errors.New("storage delete failed")

	ErrMetadata         = errors.New("metadata operation failed")
	ErrMetadataConflict = errors.New("metadata constraint violation")
	ErrMetadataNotFound = errors.New("metadata record not found")

	// ErrLinkExpired covers expired or otherwise unverifiable share
	// links. A valid link to a deleted blob yields ErrBlobNotFound,
	// not this.
	ErrLinkExpired = errors.New("access denied: link expired or invalid")
)
