package repository

import (
	"context"
	"fmt"

	"skilltracker/apperrors"
	"skilltracker/config"
	"skilltracker/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connect opens the MongoDB client and pings the primary.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxConnIdleTime(cfg.MaxConnIdleTime).
		SetTimeout(cfg.OperationTimeout).
		SetRetryWrites(cfg.RetryWrites).
		SetPoolMonitor(utils.NewPoolMonitor())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.OperationTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, nil
}

// dbError marks a driver failure as a PersistenceError, keeping the cause.
func dbError(err error, action string) error {
	return fmt.Errorf("%s: %w: %w", action, apperrors.PersistenceError, err)
}

func parseID(id, kind string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, notFound(kind, id)
	}
	return oid, nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, apperrors.NotFound)
}
