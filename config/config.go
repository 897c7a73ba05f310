package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"skilltracker/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StorageBackendFS    = "fs"
	StorageBackendMinio = "minio"

	// DefaultMaxUploadBytes is the 10 MiB ceiling of the reference deployment.
	DefaultMaxUploadBytes int64 = 10 * 1024 * 1024
)

type Config struct {
	Env      string `validate:"oneof=development production test"`
	Port     string `validate:"required,numeric"`
	LogLevel string `validate:"oneof=debug info warn error"`

	Database DatabaseConfig
	Storage  StorageConfig
	Cache    CacheConfig

	CORSAllowedOrigins      []string
	LoginRevealUnknownEmail bool
	ShutdownTimeout         time.Duration `validate:"gt=0"`
}

type StorageConfig struct {
	Backend        string `validate:"oneof=fs minio"`
	UploadDir      string `validate:"required_if=Backend fs"`
	MaxUploadBytes int64  `validate:"gt=0"`

	S3Endpoint  string `validate:"required_if=Backend minio"`
	S3AccessKey string `validate:"required_if=Backend minio"`
	S3SecretKey string `validate:"required_if=Backend minio"`
	S3Bucket    string `validate:"required_if=Backend minio"`
	S3Prefix    string
}

// CacheConfig configures the redis notes list cache. An empty RedisURL
// disables it.
type CacheConfig struct {
	RedisURL string
	NotesTTL time.Duration `validate:"gte=0"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env file", "error", err)
	}

	cfg := &Config{
		Env:      utils.GetEnvAsString("GO_ENV", "development"),
		Port:     utils.GetEnvAsString("PORT", "5000"),
		LogLevel: utils.GetEnvAsString("LOG_LEVEL", "info"),
		Database: LoadDatabaseConfig(),
		Storage: StorageConfig{
			Backend:        utils.GetEnvAsString("STORAGE_BACKEND", StorageBackendFS),
			UploadDir:      utils.GetEnvAsString("UPLOAD_DIR", "uploads/notes"),
			MaxUploadBytes: utils.GetEnvAsInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
			S3Endpoint:     utils.GetEnvAsString("S3_ENDPOINT", ""),
			S3AccessKey:    utils.GetEnvAsString("S3_ACCESS_KEY", ""),
			S3SecretKey:    utils.GetEnvAsString("S3_SECRET_KEY", ""),
			S3Bucket:       utils.GetEnvAsString("S3_BUCKET", ""),
			S3Prefix:       utils.GetEnvAsString("S3_PREFIX", "notes/"),
		},
		Cache: CacheConfig{
			RedisURL: utils.GetEnvAsString("REDIS_URL", ""),
			NotesTTL: utils.GetEnvAsDuration("NOTES_CACHE_TTL", time.Minute),
		},
		CORSAllowedOrigins: utils.GetEnvAsList("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
		LoginRevealUnknownEmail: utils.GetEnvAsBool("LOGIN_REVEAL_UNKNOWN_EMAIL", false),
		ShutdownTimeout:         utils.GetEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags of the whole configuration tree.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
