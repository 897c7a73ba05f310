package storage

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
)

// FSStore keeps blobs as plain files inside one directory.
type FSStore struct {
	dir string
}

// NewFSStore creates dir if needed.
func NewFSStore(dir string) (*FSStore, error) {
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Annotatef(err, "creating upload directory %q", dir)
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) Location() string {
	return s.dir
}

// Put streams r to disk whatever size says; callers compare the written
// count themselves.
func (s *FSStore) Put(ctx context.Context, name string, r io.Reader, _ int64) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, errors.Trace(err)
	}
	if err := validateName(name); err != nil {
		return "", 0, errors.Trace(err)
	}

	path := filepath.Join(s.dir, name)

	// O_EXCL makes the name claim atomic across concurrent uploads.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", 0, errors.Annotatef(ErrBlobExists, "%q", name)
		}
		return "", 0, errors.Annotatef(err, "creating blob %q", name)
	}

	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", 0, errors.Annotatef(err, "writing blob %q", name)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", 0, errors.Annotatef(err, "closing blob %q", name)
	}

	return path, n, nil
}

func (s *FSStore) Open(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, errors.Trace(err)
	}
	if !s.contains(path) {
		return nil, 0, errors.Annotatef(ErrBlobNotFound, "%q is outside the store", path)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, errors.Annotatef(ErrBlobNotFound, "%q", path)
		}
		return nil, 0, errors.Annotatef(err, "opening blob %q", path)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, errors.Annotatef(err, "stat blob %q", path)
	}
	return f, info.Size(), nil
}

func (s *FSStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}
	if !s.contains(path) {
		return errors.Annotatef(ErrBlobNotFound, "%q is outside the store", path)
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.Annotatef(ErrBlobNotFound, "%q", path)
		}
		return errors.Annotatef(err, "removing blob %q", path)
	}
	return nil
}

// contains reports whether path resolves to a direct child of the store.
func (s *FSStore) contains(path string) bool {
	rel, err := filepath.Rel(s.dir, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..") && !strings.ContainsRune(rel, filepath.Separator)
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errors.NotValidf("blob name %q", name)
	}
	return nil
}
