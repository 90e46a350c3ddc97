// Package blobstore is the durable key->bytes backend. Writes are
// staged to a temp file, fsynced and atomically renamed so a key is
// either fully present or absent.
package blobstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"file-sharing-api/config"
	domain "file-sharing-api/internal/domain/file"
)

type Client struct {
	logger  *zap.Logger
	dataDir string
}

func New(logger *zap.Logger, cfg config.Blob) (*Client, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return nil, fmt.Errorf("create blob data dir %s: %w", cfg.DataDir, err)
	}

	return &Client{
		logger:  logger,
		dataDir: cfg.DataDir,
	}, nil
}

// fullPath resolves key inside dataDir and rejects anything that
// would escape it.
func (c *Client) fullPath(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(c.dataDir, clean), nil
}

// Put writes an immutable blob. The caller guarantees key uniqueness;
// an existing key is overwritten rather than erroring, matching the
// rename semantics.
func (c *Client) Put(key string, r io.Reader) error {
	fullPath, err := c.fullPath(key)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	if err = os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}

	tmpPath := fullPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}

	if _, err = io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	if err = f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	if err = f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}

	if err = os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}

	return nil
}

// Get opens the blob for reading. The caller closes the ReadCloser.
func (c *Client) Get(key string) (io.ReadCloser, error) {
	fullPath, err := c.fullPath(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageRead, err)
	}

	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrBlobNotFound, key)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageRead, err)
	}

	return f, nil
}

// Delete removes the blob. A missing key is treated as success so
// the operation can be repeated safely.
func (c *Client) Delete(key string) error {
	fullPath, err := c.fullPath(key)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageDelete, err)
	}

	if err = os.Remove(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %v", domain.ErrStorageDelete, err)
	}

	return nil
}
