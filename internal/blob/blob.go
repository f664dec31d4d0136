// Package blob moves document files between object storage and the
// local filesystem.
package blob

import (
	"context"
	"fmt"
	"io"
)

// Store reads and writes document blobs in a single configured bucket.
type Store interface {
	// Download fetches an object into a temporary file and returns
	// its local path. The caller removes the file when done.
	Download(ctx context.Context, key string) (string, error)
	Upload(ctx context.Context, key string, r io.Reader) error
}

// NotFoundError reports a missing object.
type NotFoundError struct {
	Bucket string
	Key    string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("object '%s' does not exist in bucket '%s'", e.Key, e.Bucket)
}

// AccessDeniedError reports missing permissions on the bucket.
type AccessDeniedError struct {
	Bucket string
}

func (e AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied to bucket '%s'", e.Bucket)
}
