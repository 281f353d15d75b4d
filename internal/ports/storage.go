// Package ports declares the storage contract the core depends on.
package ports

import (
	"context"
	"io"
	"time"
)

type PutObjectInput struct {
	ObjectKey   string
	ContentType string
	Reader      io.Reader
	Size        int64
}

// PutObjectOutput reports where the object landed. Localfs echoes the
// object key; gdrive returns the Drive file id, which callers must
// keep for later reads and deletes.
type PutObjectOutput struct {
	ObjectKey string
	Size      int64
}

// ObjectInfo describes one stored object. Key is what DeleteObject
// accepts; Name is the logical object name the worker chose on upload.
// They differ on gdrive, where Key is the Drive file id.
type ObjectInfo struct {
	Key     string
	Name    string
	Size    int64
	ModTime time.Time
}

// StorageProvider holds rendered artifacts under opaque object keys.
// DeleteObject treats an already absent object as deleted, so the
// sweeper can retry half-finished removals. The reader returned by
// GetObject may additionally implement io.Seeker; transports use that
// for range requests.
type StorageProvider interface {
	Provider() string

	PutObject(ctx context.Context, in PutObjectInput) (PutObjectOutput, error)
	GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error)
	DeleteObject(ctx context.Context, objectKey string) error
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
}
