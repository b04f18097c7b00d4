// Package storage provides temporary and persistent file storage.
// It defines the Storage port plus implementations for local disk and S3.
package storage

import (
	"context"
	"io"
)

// Storage handles the transient files of a request (the uploaded source,
// working artifacts) and optionally pushes the finished loop to S3.
type Storage interface {
	// SaveTemp saves data to a temporary file and returns the file path.
	// The name parameter is used as a hint for the filename.
	SaveTemp(ctx context.Context, name string, data io.Reader) (path string, err error)

	// CleanupTemp removes the specified temporary files.
	// It continues cleanup even if some files fail to delete.
	CleanupTemp(ctx context.Context, paths []string) error

	// TempDir returns the shared working directory.
	TempDir() string

	// UploadToS3 uploads data to S3 and returns the public URL.
	// Returns ErrS3NotConfigured if S3 is not configured.
	UploadToS3(ctx context.Context, key string, data io.Reader) (url string, err error)
}
