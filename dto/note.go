package dto

import (
	"time"

	"skilltracker/model"
)

type NoteResponse struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	OriginalName string          `json:"original_name"`
	FileType     string          `json:"file_type"`
	FileSize     int64           `json:"file_size"`
	UploadedAt   time.Time       `json:"uploaded_at"`
	UploadedBy   string          `json:"uploaded_by,omitempty"`
	Links        map[string]Link `json:"_links,omitempty"`
}

type DeleteNoteResponse struct {
	ID          string `json:"id"`
	BlobDeleted bool   `json:"blob_deleted"`
}

// ToNoteResponse exposes only the public fields of a note. The storage
// location and stored name never leave the server.
func ToNoteResponse(note *model.Note, baseURL string) NoteResponse {
	id := note.ID.Hex()
	resp := NoteResponse{
		ID:           id,
		Title:        note.Title,
		Description:  note.Description,
		OriginalName: note.OriginalName,
		FileType:     note.FileType,
		FileSize:     note.FileSize,
		UploadedAt:   note.UploadedAt,
		Links: map[string]Link{
			"download": {Href: baseURL + "/notes/download/" + id, Method: "GET"},
			"delete":   {Href: baseURL + "/notes/" + id, Method: "DELETE"},
		},
	}
	if note.UploadedBy != nil {
		resp.UploadedBy = note.UploadedBy.Hex()
	}
	return resp
}

func ToNoteResponses(notes []*model.Note, baseURL string) []NoteResponse {
	out := make([]NoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, ToNoteResponse(n, baseURL))
	}
	return out
}
