package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skilltracker/config"
	"skilltracker/handler"
	"skilltracker/repository"
	"skilltracker/services"
	"skilltracker/storage"
	"skilltracker/usecase"
	"skilltracker/utils"

	"github.com/gin-gonic/gin"
	"github.com/juju/clock"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := utils.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	utils.InitValidator()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := repository.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			logger.Error("mongo disconnect failed", "error", err)
		}
	}()

	db := client.Database(cfg.Database.DatabaseName)
	if err := repository.SetupIndexes(ctx, db, cfg.Database); err != nil {
		return err
	}

	blobs, diskPath, err := openBlobStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	logger.Info("blob store ready", "backend", cfg.Storage.Backend, "location", blobs.Location())

	notesSvc := usecase.NewNotesService(
		repository.GetNotesRepo(db, cfg.Database.NotesCollection),
		blobs,
		cfg.Storage.MaxUploadBytes,
		logger,
	)
	if cfg.Cache.RedisURL != "" {
		cache, err := services.NewNotesListCache(ctx, cfg.Cache.RedisURL, cfg.Cache.NotesTTL)
		if err != nil {
			// The listing still works from the database.
			logger.Warn("notes cache disabled", "error", err)
		} else {
			defer cache.Close()
			notesSvc.Cache = cache
		}
	}

	userSvc := usecase.NewUserService(repository.GetUserRepo(db, cfg.Database.UsersCollection), logger)
	userSvc.RevealUnknownEmail = cfg.LoginRevealUnknownEmail

	router := handler.NewRouter(handler.RouterConfig{
		Logger:             logger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		MaxUploadBytes:     cfg.Storage.MaxUploadBytes,
	}, handler.Handlers{
		Users:  handler.NewUserHandler(userSvc, logger),
		Notes:  handler.NewNotesHandler(notesSvc, logger),
		Health: handler.NewHealthHandler(client, diskPath, clock.WallClock),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received", "timeout", cfg.ShutdownTimeout)
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	logger.Info("server shutdown complete")
	return nil
}

// openBlobStore returns the configured store and the local directory the
// health check should report disk usage for ("" for remote stores).
func openBlobStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, string, error) {
	if cfg.Backend == config.StorageBackendMinio {
		store, err := storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
		})
		return store, "", err
	}
	store, err := storage.NewFSStore(cfg.UploadDir)
	return store, cfg.UploadDir, err
}
