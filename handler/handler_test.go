package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"skilltracker/repository"
	"skilltracker/storage"
	"skilltracker/test/testutils"
	"skilltracker/usecase"
	"skilltracker/utils"

	"github.com/gin-gonic/gin"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const testMaxUpload = 4096

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.InitValidator()
	os.Exit(m.Run())
}

type envelope struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context, *readpref.ReadPref) error { return p.err }

type testServer struct {
	router *gin.Engine
	store  *storage.FSStore
	clock  *testclock.Clock
	users  *usecase.UserService
	pinger *fakePinger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := testutils.NewTestLogger(t)

	store, err := storage.NewFSStore(filepath.Join(t.TempDir(), "uploads", "notes"))
	require.NoError(t, err)

	clk := testclock.NewClock(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))

	notesSvc := usecase.NewNotesService(repository.NewMemoryNotesRepo(), store, testMaxUpload, logger)
	notesSvc.Clock = clk
	usersSvc := usecase.NewUserService(repository.NewMemoryUserRepo(), logger)
	usersSvc.Clock = clk

	pinger := &fakePinger{}
	router := NewRouter(RouterConfig{
		Logger:             logger,
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		MaxUploadBytes:     testMaxUpload,
	}, Handlers{
		Users:  NewUserHandler(usersSvc, logger),
		Notes:  NewNotesHandler(notesSvc, logger),
		Health: NewHealthHandler(pinger, store.Location(), clk),
	})

	return &testServer{router: router, store: store, clock: clk, users: usersSvc, pinger: pinger}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) doJSON(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.do(req)
}

func (s *testServer) upload(t *testing.T, title, filename, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	fields := map[string]string{"title": title, "description": "desc"}
	var file *testutils.FilePart
	if filename != "" {
		file = &testutils.FilePart{Field: "file", Filename: filename, ContentType: contentType, Content: content}
	}
	return s.do(testutils.NewMultipartRequest(t, http.MethodPost, "/api/notes/upload", fields, file))
}

func (s *testServer) blobCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(s.store.Location())
	require.NoError(t, err)
	return len(entries)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) envelope {
	t.Helper()
	env := decode(t, w)
	require.NoError(t, json.Unmarshal(env.Data, dst), string(env.Data))
	return env
}

func TestUserRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.doJSON(t, http.MethodPost, "/api/users/signup", `{"name":"Ada","email":"ada@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user map[string]any
	env := decodeData(t, w, &user)
	assert.Equal(t, "User registered successfully", env.Message)
	assert.Equal(t, "ada@example.com", user["email"])
	assert.NotContains(t, user, "password_hash")
	assert.NotContains(t, w.Body.String(), "secret1")
	id := user["id"].(string)
	assert.Equal(t, "private, no-store", w.Header().Get("Cache-Control"))

	t.Run("duplicate signup", func(t *testing.T) {
		w := s.doJSON(t, http.MethodPost, "/api/users/signup", `{"name":"Other","email":"ADA@example.com","password":"secret2"}`)
		assert.Equal(t, http.StatusConflict, w.Code)

		w = s.doJSON(t, http.MethodGet, "/api/users", "")
		var users []map[string]any
		decodeData(t, w, &users)
		assert.Len(t, users, 1)
	})

	t.Run("signup validation", func(t *testing.T) {
		for _, body := range []string{
			`{"name":"A","password":"secret1"}`,
			`{"name":"A","email":"not-an-email","password":"secret1"}`,
			`{"name":"   ","email":"b@example.com","password":"secret1"}`,
			`{"name":"A","email":"b@example.com","password":"123"}`,
			`{"name":"A","email":"b@example.com","password":"secret1","admin":true}`,
			`not json`,
		} {
			w := s.doJSON(t, http.MethodPost, "/api/users/signup", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, body)
			assert.NotEmpty(t, decode(t, w).Error, body)
		}
	})

	t.Run("login", func(t *testing.T) {
		w := s.doJSON(t, http.MethodPost, "/api/users/login", `{"email":"ada@example.com","password":"secret1"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var got map[string]any
		env := decodeData(t, w, &got)
		assert.Equal(t, "Login successful", env.Message)
		assert.Equal(t, id, got["id"])

		wrong := s.doJSON(t, http.MethodPost, "/api/users/login", `{"email":"ada@example.com","password":"nope-nope"}`)
		unknown := s.doJSON(t, http.MethodPost, "/api/users/login", `{"email":"ghost@example.com","password":"secret1"}`)
		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, decode(t, wrong).Error, decode(t, unknown).Error)

		s.users.RevealUnknownEmail = true
		defer func() { s.users.RevealUnknownEmail = false }()
		unknown = s.doJSON(t, http.MethodPost, "/api/users/login", `{"email":"ghost@example.com","password":"secret1"}`)
		assert.Equal(t, http.StatusNotFound, unknown.Code)
	})

	t.Run("get and update", func(t *testing.T) {
		w := s.doJSON(t, http.MethodGet, "/api/users/"+id, "")
		require.Equal(t, http.StatusOK, w.Code)

		w = s.doJSON(t, http.MethodPut, "/api/users/"+id, `{"name":"Ada Lovelace","password":"analytical"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var got map[string]any
		decodeData(t, w, &got)
		assert.Equal(t, "Ada Lovelace", got["name"])

		w = s.doJSON(t, http.MethodPost, "/api/users/login", `{"email":"ada@example.com","password":"analytical"}`)
		assert.Equal(t, http.StatusOK, w.Code)

		w = s.doJSON(t, http.MethodPut, "/api/users/"+id, `{"role":"admin"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = s.doJSON(t, http.MethodPut, "/api/users/"+id, `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = s.doJSON(t, http.MethodPut, "/api/users/"+primitive.NewObjectID().Hex(), `{"name":"X"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown and malformed ids", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, s.doJSON(t, http.MethodGet, "/api/users/"+primitive.NewObjectID().Hex(), "").Code)
		assert.Equal(t, http.StatusNotFound, s.doJSON(t, http.MethodGet, "/api/users/not-an-id", "").Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := s.doJSON(t, http.MethodDelete, "/api/users/"+id, "")
		assert.Equal(t, http.StatusOK, w.Code)
		w = s.doJSON(t, http.MethodDelete, "/api/users/"+id, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	s := newTestServer(t)
	content := append([]byte("%PDF-1.7\n"), bytes.Repeat([]byte{0, 1, 2, 0xfe, 0xff}, 200)...)

	w := s.upload(t, "Quarterly", "report.pdf", "application/pdf", content)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var note map[string]any
	env := decodeData(t, w, &note)
	assert.Equal(t, "Notes uploaded successfully", env.Message)
	assert.Equal(t, "Quarterly", note["title"])
	assert.Equal(t, "report.pdf", note["original_name"])
	assert.Equal(t, "pdf", note["file_type"])
	assert.EqualValues(t, len(content), note["file_size"])
	assert.NotContains(t, note, "storage_path")
	assert.NotContains(t, note, "stored_name")
	assert.NotContains(t, w.Body.String(), s.store.Location())
	id := note["id"].(string)

	links := note["_links"].(map[string]any)
	download := links["download"].(map[string]any)
	assert.True(t, strings.HasSuffix(download["href"].(string), "/api/notes/download/"+id))

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/notes/download/"+id, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, content, w.Body.Bytes())
	assert.Equal(t, `attachment; filename="report.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, strconv.Itoa(len(content)), w.Header().Get("Content-Length"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestUploadRejections(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		filename    string
		contentType string
		size        int
		status      int
	}{
		{name: "missing file", title: "t", status: http.StatusBadRequest},
		{name: "executable", title: "t", filename: "run.exe", contentType: "application/octet-stream", size: 10, status: http.StatusBadRequest},
		{name: "mismatched type", title: "t", filename: "a.pdf", contentType: "image/png", size: 10, status: http.StatusBadRequest},
		{name: "empty title", title: "", filename: "a.txt", contentType: "text/plain", size: 10, status: http.StatusBadRequest},
		{name: "one byte over", title: "t", filename: "a.png", contentType: "image/png", size: testMaxUpload + 1, status: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)

			w := s.upload(t, tt.title, tt.filename, tt.contentType, make([]byte, tt.size))
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.NotEmpty(t, decode(t, w).Error)
			assert.Zero(t, s.blobCount(t))

			w = s.doJSON(t, http.MethodGet, "/api/notes", "")
			var notes []any
			decodeData(t, w, &notes)
			assert.Empty(t, notes)
		})
	}
}

func TestUploadExactlyAtLimit(t *testing.T) {
	s := newTestServer(t)

	w := s.upload(t, "edge", "a.png", "image/png", make([]byte, testMaxUpload))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 1, s.blobCount(t))
}

func TestUploadNotMultipart(t *testing.T) {
	s := newTestServer(t)

	w := s.doJSON(t, http.MethodPost, "/api/notes/upload", `{"title":"t"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Error, "no file uploaded")
}

func TestUploadBodyOverLimiter(t *testing.T) {
	s := newTestServer(t)

	req := testutils.NewMultipartRequest(t, http.MethodPost, "/api/notes/upload",
		map[string]string{"title": "huge"},
		&testutils.FilePart{Field: "file", Filename: "a.txt", ContentType: "text/plain", Content: make([]byte, testMaxUpload+multipartOverhead)})

	w := s.do(req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Zero(t, s.blobCount(t))
}

func TestListNewestFirstAndDelete(t *testing.T) {
	s := newTestServer(t)

	var ids []string
	for i := 0; i < 3; i++ {
		w := s.upload(t, fmt.Sprintf("note %d", i), "n.txt", "text/plain", []byte("x"))
		require.Equal(t, http.StatusCreated, w.Code)
		var note map[string]any
		decodeData(t, w, &note)
		ids = append(ids, note["id"].(string))
		s.clock.Advance(time.Minute)
	}

	w := s.doJSON(t, http.MethodGet, "/api/notes", "")
	require.Equal(t, http.StatusOK, w.Code)
	var notes []map[string]any
	decodeData(t, w, &notes)
	require.Len(t, notes, 3)
	assert.Equal(t, "note 2", notes[0]["title"])
	assert.Equal(t, "note 1", notes[1]["title"])
	assert.Equal(t, "note 0", notes[2]["title"])

	w = s.doJSON(t, http.MethodGet, "/api/notes?limit=1&skip=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &notes)
	require.Len(t, notes, 1)
	assert.Equal(t, "note 1", notes[0]["title"])

	assert.Equal(t, http.StatusBadRequest, s.doJSON(t, http.MethodGet, "/api/notes?limit=-1", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.doJSON(t, http.MethodGet, "/api/notes?skip=abc", "").Code)

	w = s.doJSON(t, http.MethodDelete, "/api/notes/"+ids[1], "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var deleted map[string]any
	env := decodeData(t, w, &deleted)
	assert.Equal(t, "Note deleted successfully", env.Message)
	assert.Equal(t, true, deleted["blob_deleted"])
	assert.Equal(t, 2, s.blobCount(t))

	w = s.doJSON(t, http.MethodGet, "/api/notes/download/"+ids[1], "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.doJSON(t, http.MethodDelete, "/api/notes/"+ids[1], "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.doJSON(t, http.MethodGet, "/api/notes/download/not-an-id", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndIndex(t *testing.T) {
	s := newTestServer(t)

	w := s.doJSON(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "running")

	w = s.doJSON(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "connected", health["database"])

	s.pinger.err = errors.New("no reachable servers")
	w = s.doJSON(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "disconnected")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.doJSON(t, http.MethodGet, "/api/notes", "")

	w := s.doJSON(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",path="/api/notes",status="200"}`)
}

func TestRequestIDAndNoRoute(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := s.do(req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	assert.Contains(t, w.Body.String(), "/nowhere")

	w = s.doJSON(t, http.MethodGet, "/", "")
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/notes", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := s.do(req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Requested-With")

	req = httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = s.do(req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestContentDisposition(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"report.pdf", `attachment; filename="report.pdf"`},
		{"my notes.txt", `attachment; filename="my notes.txt"`},
		{`say "hi".txt`, `attachment; filename="say _hi_.txt"; filename*=UTF-8''say%20%22hi%22.txt`},
		{"résumé.pdf", `attachment; filename="r_sum_.pdf"; filename*=UTF-8''r%C3%A9sum%C3%A9.pdf`},
		{"a\r\nb.txt", `attachment; filename="a__b.txt"; filename*=UTF-8''a%0D%0Ab.txt`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, contentDisposition(tt.name), tt.name)
	}
}
