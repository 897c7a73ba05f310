// Package storage holds the blob backends behind the notes service. A blob is
// addressed by the path returned from Put; records store that path verbatim.
package storage

import (
	"context"
	"io"

	"github.com/juju/errors"
)

// ErrBlobNotFound is returned by Open and Delete when nothing is stored
// at the given path.
const ErrBlobNotFound = errors.ConstError("blob not found")

// ErrBlobExists is returned by Put when the name is already taken.
const ErrBlobExists = errors.ConstError("blob already exists")

// Store saves, reads back and deletes blobs.
type Store interface {
	// Put writes r under name and returns the storage path and the number of
	// bytes read from r. size is the expected length, or -1 when unknown;
	// backends that need a length up front may reject -1. Put never
	// overwrites an existing blob.
	Put(ctx context.Context, name string, r io.Reader, size int64) (path string, written int64, err error)

	// Open returns a reader over the blob and its size.
	Open(ctx context.Context, path string) (io.ReadCloser, int64, error)

	// Delete removes the blob.
	Delete(ctx context.Context, path string) error

	// Location describes where blobs live, for health reporting.
	Location() string
}
