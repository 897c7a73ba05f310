package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"skilltracker/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func SetupIndexes(ctx context.Context, db *mongo.Database, cfg config.DatabaseConfig) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	usersCollection := db.Collection(cfg.UsersCollection)
	notesCollection := db.Collection(cfg.NotesCollection)

	userIndexes := []mongo.IndexModel{
		// Email uniqueness is what makes concurrent signups safe
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName("unique_email").
				SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().
				SetName("users_created_at"),
		},
	}

	noteIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "uploaded_at", Value: -1},
				{Key: "_id", Value: -1},
			},
			Options: options.Index().
				SetName("notes_newest_first"),
		},
		{
			Keys: bson.D{{Key: "stored_name", Value: 1}},
			Options: options.Index().
				SetName("unique_stored_name").
				SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "uploaded_by", Value: 1}},
			Options: options.Index().
				SetName("notes_uploaded_by").
				SetSparse(true),
		},
	}

	if _, err := usersCollection.Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create users indexes: %w", err)
	}

	if _, err := notesCollection.Indexes().CreateMany(ctx, noteIndexes); err != nil {
		return fmt.Errorf("failed to create notes indexes: %w", err)
	}

	slog.Info("Successfully created all indexes",
		"users", cfg.UsersCollection,
		"notes", cfg.NotesCollection)
	return nil
}
