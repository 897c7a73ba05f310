package usecase

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"skilltracker/model"
	"skilltracker/repository"
	"skilltracker/services"
	"skilltracker/storage"
	"skilltracker/test/testutils"

	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

type notesFixture struct {
	svc   *NotesService
	repo  *repository.MemoryNotesRepo
	store *storage.FSStore
	clock *testclock.Clock
}

func newNotesFixture(t *testing.T, maxBytes int64) *notesFixture {
	t.Helper()

	store, err := storage.NewFSStore(filepath.Join(t.TempDir(), "uploads", "notes"))
	require.NoError(t, err)

	repo := repository.NewMemoryNotesRepo()
	clk := testclock.NewClock(testNow)

	svc := NewNotesService(repo, store, maxBytes, testutils.NewTestLogger(t))
	svc.Clock = clk

	return &notesFixture{svc: svc, repo: repo, store: store, clock: clk}
}

func (f *notesFixture) blobCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(f.store.Location())
	require.NoError(t, err)
	return len(entries)
}

func fileInput(name, contentType string, content []byte) *FileInput {
	return &FileInput{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	}
}

// brokenStore wraps a Store and fails selected operations.
type brokenStore struct {
	storage.Store
	deleteErr error
	openErr   error
}

func (s *brokenStore) Delete(ctx context.Context, path string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.Store.Delete(ctx, path)
}

func (s *brokenStore) Open(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	if s.openErr != nil {
		return nil, 0, s.openErr
	}
	return s.Store.Open(ctx, path)
}

// fakeListCache records calls and serves whatever was last Set for the
// current generation.
type fakeListCache struct {
	mu          sync.Mutex
	gen         int64
	notes       []*model.Note
	cached      bool
	gets        int
	invalidated int
}

func (c *fakeListCache) Get(context.Context) ([]*model.Note, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if !c.cached {
		return nil, c.gen, errors.Trace(services.ErrCacheMiss)
	}
	return c.notes, c.gen, nil
}

func (c *fakeListCache) Set(_ context.Context, gen int64, notes []*model.Note) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	c.notes = notes
	c.cached = true
	return nil
}

func (c *fakeListCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.notes = nil
	c.cached = false
	c.invalidated++
	return nil
}

// pausingNotesRepo blocks the first List after it has read the repository,
// until release is closed.
type pausingNotesRepo struct {
	*repository.MemoryNotesRepo
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func newPausingNotesRepo(inner *repository.MemoryNotesRepo) *pausingNotesRepo {
	return &pausingNotesRepo{
		MemoryNotesRepo: inner,
		read:            make(chan struct{}),
		release:         make(chan struct{}),
	}
}

func (r *pausingNotesRepo) List(ctx context.Context, opts model.ListOptions) ([]*model.Note, error) {
	notes, err := r.MemoryNotesRepo.List(ctx, opts)
	r.once.Do(func() {
		close(r.read)
		<-r.release
	})
	return notes, err
}
