package repository

import (
	"context"
	"errors"

	"skilltracker/model"
	"skilltracker/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotesRepo struct {
	MongoCollection *mongo.Collection
}

func GetNotesRepo(db *mongo.Database, collection string) *NotesRepo {
	return &NotesRepo{
		MongoCollection: db.Collection(collection),
	}
}

func (r *NotesRepo) name() string {
	return r.MongoCollection.Name()
}

func (r *NotesRepo) Insert(ctx context.Context, note *model.Note) error {
	timer := utils.TrackDBOperation("insert", r.name())
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.InsertOne(ctx, note)
	if err != nil {
		return dbError(err, "failed to insert note")
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		note.ID = oid
	}
	return nil
}

func (r *NotesRepo) FindByID(ctx context.Context, id string) (*model.Note, error) {
	oid, err := parseID(id, "note")
	if err != nil {
		return nil, err
	}

	timer := utils.TrackDBOperation("find", r.name())
	defer timer.ObserveDuration()

	var note model.Note
	err = r.MongoCollection.FindOne(ctx, bson.M{"_id": oid}).Decode(&note)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound("note", id)
		}
		return nil, dbError(err, "failed to look up note")
	}
	return &note, nil
}

// List returns notes newest first. Ties on uploaded_at fall back to _id,
// which also grows with insertion time.
func (r *NotesRepo) List(ctx context.Context, opts model.ListOptions) ([]*model.Note, error) {
	timer := utils.TrackDBOperation("find", r.name())
	defer timer.ObserveDuration()

	findOpts := options.Find().SetSort(bson.D{
		{Key: "uploaded_at", Value: -1},
		{Key: "_id", Value: -1},
	})
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}

	cursor, err := r.MongoCollection.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, dbError(err, "failed to list notes")
	}
	defer cursor.Close(ctx)

	notes := make([]*model.Note, 0)
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, dbError(err, "failed to decode notes")
	}
	return notes, nil
}

func (r *NotesRepo) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id, "note")
	if err != nil {
		return err
	}

	timer := utils.TrackDBOperation("delete", r.name())
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return dbError(err, "failed to delete note")
	}
	if result.DeletedCount == 0 {
		return notFound("note", id)
	}
	return nil
}
