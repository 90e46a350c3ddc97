package validator

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

func IsUUID(s string) (bool, uuid.UUID) {
	id, err := uuid.Parse(s)
	return err == nil, id
}

// ValidateStoragePath rejects obviously malformed keys before they
// reach the object store; full traversal checks live in the store.
func ValidateStoragePath(p string) error {
	p = strings.TrimSpace(p)
	if p == "" {
		return errors.New("path is required")
	}
	if strings.Contains(p, "..") {
		return errors.New("invalid path")
	}
	return nil
}
