package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`     // unique, lower-cased
	PasswordHash string             `bson:"password_hash" json:"-"` // argon2id salt$hash
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// UserUpdate holds the fields of a partial update; nil means unchanged.
type UserUpdate struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.PasswordHash == nil
}
