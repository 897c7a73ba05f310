package usecase

import (
	"context"
	"io"
	"log/slog"

	"skilltracker/apperrors"
	"skilltracker/model"
	"skilltracker/services"
	"skilltracker/storage"
	"skilltracker/utils"

	"github.com/juju/clock"
	"github.com/juju/errors"
)

type NotesService struct {
	NotesRepo      NoteStore
	Blobs          storage.Store
	Cache          ListCache // optional
	Clock          clock.Clock
	Logger         *slog.Logger
	MaxUploadBytes int64
}

func NewNotesService(repo NoteStore, blobs storage.Store, maxUploadBytes int64, logger *slog.Logger) *NotesService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotesService{
		NotesRepo:      repo,
		Blobs:          blobs,
		Clock:          clock.WallClock,
		Logger:         logger.With("component", "notes"),
		MaxUploadBytes: maxUploadBytes,
	}
}

// List returns notes newest first. The unpaged listing is served from the
// cache when one is configured.
func (s *NotesService) List(ctx context.Context, opts model.ListOptions) ([]*model.Note, error) {
	var (
		cacheable bool
		gen       int64
	)
	if s.Cache != nil && opts.IsZero() {
		notes, g, err := s.Cache.Get(ctx)
		switch {
		case err == nil:
			return notes, nil
		case errors.Is(err, services.ErrCacheMiss):
			cacheable, gen = true, g
		default:
			s.Logger.Warn("notes cache read failed", "error", err)
		}
	}

	notes, err := s.NotesRepo.List(ctx, opts)
	if err != nil {
		return nil, errors.Trace(err)
	}

	if cacheable {
		if err := s.Cache.Set(ctx, gen, notes); err != nil {
			s.Logger.Warn("notes cache write failed", "error", err)
		}
	}
	return notes, nil
}

// Download is an open blob ready to be streamed to the client.
type Download struct {
	Name string
	Size int64
	Body io.ReadCloser
}

// Download looks up the note and opens its blob. A record whose blob has
// gone missing is reported as NotFound.
func (s *NotesService) Download(ctx context.Context, id string) (*Download, error) {
	note, err := s.NotesRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Trace(err)
	}

	body, size, err := s.Blobs.Open(ctx, note.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			s.Logger.Warn("note blob is missing", "note_id", id, "path", note.StoragePath)
			return nil, errors.Annotatef(apperrors.NotFound, "file for note %q", id)
		}
		return nil, errors.Annotatef(errors.WithType(err, apperrors.StorageError), "opening blob for note %q", id)
	}

	utils.TrackNoteOperation("download", "success")
	return &Download{Name: note.OriginalName, Size: size, Body: body}, nil
}

// DeleteOutcome reports what a Delete removed.
type DeleteOutcome struct {
	RecordDeleted bool
	BlobDeleted   bool
}

// Delete removes the blob and then the record. An absent blob counts as
// deleted. A blob that cannot be removed does not keep the record alive;
// the outcome reports it instead.
func (s *NotesService) Delete(ctx context.Context, id string) (DeleteOutcome, error) {
	var outcome DeleteOutcome

	note, err := s.NotesRepo.FindByID(ctx, id)
	if err != nil {
		return outcome, errors.Trace(err)
	}

	outcome.BlobDeleted = true
	if err := s.Blobs.Delete(ctx, note.StoragePath); err != nil && !errors.Is(err, storage.ErrBlobNotFound) {
		outcome.BlobDeleted = false
		s.Logger.Error("failed to delete note blob", "note_id", id, "path", note.StoragePath, "error", err)
	}

	if err := s.NotesRepo.Delete(ctx, id); err != nil {
		utils.TrackNoteOperation("delete", "failed")
		return outcome, errors.Trace(err)
	}
	outcome.RecordDeleted = true

	if outcome.BlobDeleted {
		utils.TrackNoteOperation("delete", "success")
	} else {
		utils.TrackNoteOperation("delete", "partial")
	}
	s.invalidateList(ctx)
	return outcome, nil
}

func (s *NotesService) invalidateList(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
		s.Logger.Warn("notes cache invalidation failed", "error", err)
	}
}
