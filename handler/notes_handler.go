package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"skilltracker/apperrors"
	"skilltracker/dto"
	"skilltracker/model"
	"skilltracker/usecase"
	"skilltracker/utils"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotesHandler struct {
	notes  *usecase.NotesService
	logger *slog.Logger
}

func NewNotesHandler(notes *usecase.NotesService, logger *slog.Logger) *NotesHandler {
	return &NotesHandler{notes: notes, logger: logger}
}

// Upload handles POST /notes/upload (multipart: file, title, description).
func (h *NotesHandler) Upload(c *gin.Context) {
	in := usecase.UploadInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
	}

	fileHeader, err := c.FormFile("file")
	switch {
	case err == nil:
		in.File = &usecase.FileInput{
			Name:        fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Size:        fileHeader.Size,
			Open: func() (io.ReadCloser, error) {
				return fileHeader.Open()
			},
		}
	case isMaxBytesError(err):
		utils.RespondError(c, err)
		return
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		utils.RespondError(c, apperrors.MissingFile)
		return
	default:
		h.logger.Debug("malformed multipart body", "error", err)
		utils.RespondError(c, errors.Annotate(apperrors.ValidationError, "malformed multipart body"))
		return
	}

	if by := strings.TrimSpace(c.PostForm("uploaded_by")); by != "" {
		oid, err := primitive.ObjectIDFromHex(by)
		if err != nil {
			utils.RespondError(c, errors.Annotate(apperrors.ValidationError, "uploaded_by must be a user id"))
			return
		}
		in.UploadedBy = &oid
	}

	note, err := h.notes.Upload(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Created(c, "Notes uploaded successfully", dto.ToNoteResponse(note, utils.GetBaseURL(c)))
}

// List handles GET /notes with optional limit and skip.
func (h *NotesHandler) List(c *gin.Context) {
	opts, err := listOptions(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	notes, err := h.notes.List(c.Request.Context(), opts)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, dto.ToNoteResponses(notes, utils.GetBaseURL(c)))
}

func listOptions(c *gin.Context) (model.ListOptions, error) {
	var opts model.ListOptions
	for _, p := range []struct {
		name string
		dst  *int64
	}{
		{"limit", &opts.Limit},
		{"skip", &opts.Skip},
	} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			return opts, errors.Annotatef(apperrors.ValidationError, "%s must be a non-negative integer", p.name)
		}
		*p.dst = v
	}
	return opts, nil
}

// Download handles GET /notes/download/:id and streams the file as an
// attachment under its original name.
func (h *NotesHandler) Download(c *gin.Context) {
	id := c.Param("id")

	dl, err := h.notes.Download(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	defer dl.Body.Close()

	// A failed copy is recorded on the context and aborts the response; the
	// client sees a body shorter than Content-Length.
	c.DataFromReader(http.StatusOK, dl.Size, "application/octet-stream", dl.Body, map[string]string{
		"Content-Disposition": contentDisposition(dl.Name),
	})
	if len(c.Errors) > 0 {
		h.logger.Error("download interrupted", "note_id", id, "error", c.Errors.Last().Err)
	}
}

// contentDisposition quotes name for an attachment header. Characters that
// cannot appear in a quoted ASCII filename are replaced, and the exact name
// is carried in filename* when they were present.
func contentDisposition(name string) string {
	fallback := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, name)

	value := `attachment; filename="` + fallback + `"`
	if fallback != name {
		value += "; filename*=UTF-8''" + url.PathEscape(name)
	}
	return value
}

// Delete handles DELETE /notes/:id.
func (h *NotesHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	outcome, err := h.notes.Delete(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	resp := dto.DeleteNoteResponse{ID: id, BlobDeleted: outcome.BlobDeleted}
	if !outcome.BlobDeleted {
		utils.SuccessWithMessage(c, "Note deleted, but its file could not be removed", resp)
		return
	}
	utils.SuccessWithMessage(c, "Note deleted successfully", resp)
}

func isMaxBytesError(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}
