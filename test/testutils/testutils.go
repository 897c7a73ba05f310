package testutils

import (
	"bytes"
	"context"
	"io"
	"log"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"skilltracker/config"
	"skilltracker/repository"
	"skilltracker/utils"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
)

var envOnce sync.Once

// SetupTestEnvironment loads the project .env (if any) once and forces the
// test environment.
func SetupTestEnvironment() {
	envOnce.Do(func() {
		if rootDir := findProjectRoot(); rootDir != "" {
			envPath := filepath.Join(rootDir, ".env")
			if err := godotenv.Load(envPath); err == nil {
				log.Printf("Loaded .env file from: %s", envPath)
			}
		}
		os.Setenv("GO_ENV", "test")
	})
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// SetupTestDB connects to TEST_MONGO_URI and returns a throwaway database
// that is dropped on cleanup. Tests are skipped when no server is configured.
func SetupTestDB(t *testing.T) (*mongo.Database, config.DatabaseConfig, func()) {
	t.Helper()
	SetupTestEnvironment()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set; skipping MongoDB integration test")
	}

	cfg := config.LoadDatabaseConfig()
	cfg.URI = uri
	cfg.DatabaseName = "skilltracker_test_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")
	cfg.OperationTimeout = 10 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := repository.Connect(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	db := client.Database(cfg.DatabaseName)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := db.Drop(ctx); err != nil {
			t.Logf("Warning: Failed to drop test database %s: %v", cfg.DatabaseName, err)
		}
		if err := client.Disconnect(ctx); err != nil {
			t.Logf("Warning: Failed to disconnect: %v", err)
		}
	}

	return db, cfg, cleanup
}

// NewTestLogger returns a logger that discards output unless -v is set.
func NewTestLogger(t *testing.T) *slog.Logger {
	t.Helper()
	var w io.Writer = io.Discard
	if testing.Verbose() {
		w = os.Stderr
	}
	return utils.NewLogger(w, "test", "debug")
}

// FilePart describes one file field of a multipart form.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Content     []byte
}

// NewMultipartRequest builds a multipart/form-data request with the given
// text fields and an optional file part.
func NewMultipartRequest(t *testing.T, method, target string, fields map[string]string, file *FilePart) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}

	if file != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+file.Field+`"; filename="`+file.Filename+`"`)
		if file.ContentType != "" {
			header.Set("Content-Type", file.ContentType)
		}
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(file.Content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req, err := http.NewRequest(method, target, &body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
