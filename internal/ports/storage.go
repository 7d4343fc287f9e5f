// Package ports declares the contracts between the render core and its
// external collaborators.
package ports

import (
	"context"
	stderrors "errors"
	"io"
)

// ErrObjectNotFound is returned by GetObject/DeleteObject when the object
// no longer exists in the backing store (e.g. external cleanup).
var ErrObjectNotFound = stderrors.New("storage: object not found")

type PutObjectInput struct {
	ObjectKey   string
	ContentType string
	Reader      io.Reader
	Size        int64
}

type PutObjectOutput struct {
	// On localfs this echoes the object key. On gdrive it is the real
	// Drive fileId so later reads can locate the object.
	ObjectKey string
	Size      int64
}

// StorageProvider stores scene assets ("scenes/…") and render artifacts
// ("renders/…"). Implementations: localfs, gdrive.
type StorageProvider interface {
	Provider() string

	PutObject(ctx context.Context, in PutObjectInput) (PutObjectOutput, error)
	GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error)
	DeleteObject(ctx context.Context, objectKey string) error
}
