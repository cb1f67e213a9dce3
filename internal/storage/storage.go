// Package storage keeps uploaded avatar files. The local backend writes them
// to a directory, the minio backend puts them into an S3 bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prperemyshlev/statboard/internal/config"
)

// ErrNotFound is returned when a stored file does not exist
var ErrNotFound = errors.New("file not found")

// ErrInvalidName is returned for names that could escape the storage root
var ErrInvalidName = errors.New("invalid file name")

// FileStorage stores files under flat, generated names
type FileStorage interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, name string) error
}

// New builds the backend selected by FILES_STORAGE
func New(ctx context.Context, cfg config.FilesConfig) (FileStorage, error) {
	switch cfg.Storage {
	case "local":
		return NewLocal(cfg.UploadDir)
	case "minio":
		return NewMinio(ctx, cfg.Minio)
	default:
		return nil, fmt.Errorf("unknown file storage %q", cfg.Storage)
	}
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	for _, r := range name {
		if r == '/' || r == '\\' || r == 0 {
			return false
		}
	}
	return true
}
