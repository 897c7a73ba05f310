package usecase

import (
	"context"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"skilltracker/apperrors"
	"skilltracker/model"
	"skilltracker/storage"
	"skilltracker/utils"

	"github.com/juju/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FileInput is the file part of an upload as received by the HTTP layer.
type FileInput struct {
	Name        string
	ContentType string
	Size        int64 // declared length, -1 if unknown
	Open        func() (io.ReadCloser, error)
}

type UploadInput struct {
	File        *FileInput
	Title       string
	Description string
	UploadedBy  *primitive.ObjectID
}

type fileCategory string

const (
	categoryDocument fileCategory = "document"
	categoryImage    fileCategory = "image"
)

var allowedExtensions = map[string]fileCategory{
	"pdf":  categoryDocument,
	"doc":  categoryDocument,
	"docx": categoryDocument,
	"txt":  categoryDocument,
	"ppt":  categoryDocument,
	"pptx": categoryDocument,
	"jpg":  categoryImage,
	"jpeg": categoryImage,
	"png":  categoryImage,
}

var allowedMediaTypes = map[string]fileCategory{
	"application/pdf":    categoryDocument,
	"application/msword": categoryDocument,
	"text/plain":         categoryDocument,

	"application/vnd.ms-powerpoint": categoryDocument,

	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   categoryDocument,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": categoryDocument,

	"image/jpeg": categoryImage,
	"image/jpg":  categoryImage,
	"image/png":  categoryImage,
}

// fileExtension returns the lower-case extension of name without the dot.
func fileExtension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// checkFileType accepts a file when both its extension and its declared
// media type are allowlisted and fall in the same category.
func checkFileType(name, contentType string) (string, error) {
	ext := fileExtension(name)
	extCategory, ok := allowedExtensions[ext]
	if !ok {
		return "", errors.Annotatef(apperrors.UnsupportedType, "extension %q", ext)
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", errors.Annotatef(apperrors.UnsupportedType, "content type %q", contentType)
	}
	if mimeCategory, ok := allowedMediaTypes[strings.ToLower(mediaType)]; !ok || mimeCategory != extCategory {
		return "", errors.Annotatef(apperrors.UnsupportedType, "content type %q for .%s", mediaType, ext)
	}
	return ext, nil
}

type uploadState int

const (
	uploadNotStarted uploadState = iota
	uploadBlobWritten
	uploadCommitted
	uploadRolledBack
)

func (s uploadState) String() string {
	switch s {
	case uploadNotStarted:
		return "not_started"
	case uploadBlobWritten:
		return "blob_written"
	case uploadCommitted:
		return "committed"
	case uploadRolledBack:
		return "rolled_back"
	}
	return "unknown"
}

// Upload validates the input, writes the blob and then the record. If the
// record cannot be written the blob is removed again.
func (s *NotesService) Upload(ctx context.Context, in UploadInput) (*model.Note, error) {
	note, err := s.upload(ctx, in)
	if err != nil {
		outcome := "failed"
		switch apperrors.Kind(err) {
		case apperrors.MissingFile, apperrors.UnsupportedType, apperrors.PayloadTooLarge, apperrors.ValidationError:
			outcome = "rejected"
		}
		utils.TrackNoteOperation("upload", outcome)
		return nil, err
	}

	utils.TrackNoteOperation("upload", "success")
	utils.UploadSizeBytes.Observe(float64(note.FileSize))
	s.invalidateList(ctx)
	return note, nil
}

func (s *NotesService) upload(ctx context.Context, in UploadInput) (*model.Note, error) {
	if in.File == nil {
		return nil, apperrors.MissingFile
	}

	ext, err := checkFileType(in.File.Name, in.File.ContentType)
	if err != nil {
		return nil, err
	}

	if in.File.Size > s.MaxUploadBytes {
		return nil, errors.Annotatef(apperrors.PayloadTooLarge, "%d bytes exceeds the %d byte limit", in.File.Size, s.MaxUploadBytes)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, errors.Annotate(apperrors.ValidationError, "title is required")
	}

	now := s.Clock.Now().UTC()
	storedName := storage.NewStoredName(now, ext)
	logger := s.Logger.With("stored_name", storedName)

	state := uploadNotStarted

	src, err := in.File.Open()
	if err != nil {
		return nil, errors.Annotate(errors.WithType(err, apperrors.StorageError), "opening uploaded file")
	}
	// Never read more than the ceiling, whatever the declared size says.
	path, written, err := s.Blobs.Put(ctx, storedName, io.LimitReader(src, s.MaxUploadBytes+1), in.File.Size)
	_ = src.Close()
	if err != nil {
		return nil, errors.Annotatef(errors.WithType(err, apperrors.StorageError), "writing blob %q", storedName)
	}
	state = uploadBlobWritten

	if written > s.MaxUploadBytes {
		state = s.rollback(ctx, logger, path, state)
		logger.Warn("upload exceeded size limit while streaming", "state", state.String())
		return nil, errors.Annotatef(apperrors.PayloadTooLarge, "more than %d bytes", s.MaxUploadBytes)
	}
	if in.File.Size >= 0 && written != in.File.Size {
		state = s.rollback(ctx, logger, path, state)
		logger.Warn("upload size differs from declared size", "declared", in.File.Size, "written", written, "state", state.String())
		return nil, errors.Annotatef(apperrors.ValidationError, "file is %d bytes, declared %d", written, in.File.Size)
	}

	note := &model.Note{
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		StoredName:   storedName,
		OriginalName: in.File.Name,
		StoragePath:  path,
		FileType:     ext,
		FileSize:     written,
		UploadedAt:   now,
		UploadedBy:   in.UploadedBy,
	}

	if err := s.NotesRepo.Insert(ctx, note); err != nil {
		state = s.rollback(ctx, logger, path, state)
		logger.Error("failed to record upload", "state", state.String(), "error", err)
		return nil, errors.Trace(err)
	}
	state = uploadCommitted

	logger.Info("note uploaded",
		"note_id", note.ID.Hex(),
		"file_type", note.FileType,
		"file_size", note.FileSize,
		"state", state.String())
	return note, nil
}

// rollback removes a written blob. A failed removal is logged and leaves an
// orphan blob behind; the caller still reports its original error.
func (s *NotesService) rollback(ctx context.Context, logger *slog.Logger, path string, state uploadState) uploadState {
	if state != uploadBlobWritten {
		return state
	}

	utils.TrackNoteOperation("rollback", "attempted")
	if err := s.Blobs.Delete(context.WithoutCancel(ctx), path); err != nil && !errors.Is(err, storage.ErrBlobNotFound) {
		utils.TrackNoteOperation("rollback", "failed")
		logger.Error("failed to remove blob during rollback", "path", path, "error", err)
	}
	return uploadRolledBack
}
