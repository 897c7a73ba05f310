package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skilltracker/apperrors"
	"skilltracker/model"
	"skilltracker/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepo struct {
	MongoCollection *mongo.Collection
}

func GetUserRepo(db *mongo.Database, collection string) *UserRepo {
	return &UserRepo{
		MongoCollection: db.Collection(collection),
	}
}

func (r *UserRepo) name() string {
	return r.MongoCollection.Name()
}

// Create inserts the user. The unique email index turns a concurrent
// duplicate signup into a Conflict.
func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	timer := utils.TrackDBOperation("insert", r.name())
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("email %q: %w", user.Email, apperrors.Conflict)
		}
		return dbError(err, "failed to add user to database")
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	timer := utils.TrackDBOperation("find", r.name())
	defer timer.ObserveDuration()

	var user model.User
	err := r.MongoCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user with email %q: %w", email, apperrors.NotFound)
		}
		return nil, dbError(err, "failed to look up user")
	}
	return &user, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := parseID(id, "user")
	if err != nil {
		return nil, err
	}

	timer := utils.TrackDBOperation("find", r.name())
	defer timer.ObserveDuration()

	var user model.User
	err = r.MongoCollection.FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound("user", id)
		}
		return nil, dbError(err, "failed to look up user")
	}
	return &user, nil
}

func (r *UserRepo) List(ctx context.Context) ([]*model.User, error) {
	timer := utils.TrackDBOperation("find", r.name())
	defer timer.ObserveDuration()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.MongoCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, dbError(err, "failed to list users")
	}
	defer cursor.Close(ctx)

	users := make([]*model.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, dbError(err, "failed to decode users")
	}
	return users, nil
}

// Update applies the non-nil fields of upd and returns the updated user.
func (r *UserRepo) Update(ctx context.Context, id string, upd model.UserUpdate) (*model.User, error) {
	oid, err := parseID(id, "user")
	if err != nil {
		return nil, err
	}

	timer := utils.TrackDBOperation("update", r.name())
	defer timer.ObserveDuration()

	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.PasswordHash != nil {
		set["password_hash"] = *upd.PasswordHash
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user model.User
	err = r.MongoCollection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, notFound("user", id)
		case mongo.IsDuplicateKeyError(err) && upd.Email != nil:
			return nil, fmt.Errorf("email %q: %w", *upd.Email, apperrors.Conflict)
		case mongo.IsDuplicateKeyError(err):
			return nil, fmt.Errorf("user %q: %w", id, apperrors.Conflict)
		}
		return nil, dbError(err, "failed to update user")
	}
	return &user, nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id, "user")
	if err != nil {
		return err
	}

	timer := utils.TrackDBOperation("delete", r.name())
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return dbError(err, "failed to delete user")
	}
	if result.DeletedCount == 0 {
		return notFound("user", id)
	}
	return nil
}
