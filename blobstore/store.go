package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction for storing and retrieving immutable data
// blobs, one per view.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Create opens a new blob for writing. The blob becomes visible to
	// readers once its WritableBlob is closed.
	Create(ctx context.Context, name string) (WritableBlob, error)

	// Put writes a complete blob in one call.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all blobs under prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	// ReadAt reads len(p) bytes starting at offset off. It returns io.EOF
	// when fewer bytes than requested are available.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	// ReadRange returns a reader over length bytes starting at off,
	// truncated at the end of the blob. Offsets at or past the end return
	// io.EOF.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)

	io.Closer

	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a write-once handle to a new blob.
type WritableBlob interface {
	io.Writer
	io.Closer

	// Sync flushes written data to stable storage where the backend
	// distinguishes that from Close.
	Sync() error
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	// This is a zero-copy operation if supported.
	Bytes() ([]byte, error)
}

// ReadAll reads the entire blob into memory, zero-copy when the blob is
// Mappable. The returned slice must be treated as read-only and may alias
// the blob's mapping.
func ReadAll(ctx context.Context, b Blob) ([]byte, error) {
	if m, ok := b.(Mappable); ok {
		return m.Bytes()
	}
	buf := make([]byte, b.Size())
	if len(buf) == 0 {
		return buf, nil
	}
	n, err := b.ReadAt(ctx, buf, 0)
	if err == io.EOF && n == len(buf) {
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
