package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Note struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title        string              `bson:"title" json:"title"`
	Description  string              `bson:"description" json:"description"`
	StoredName   string              `bson:"stored_name" json:"-"`
	OriginalName string              `bson:"original_name" json:"original_name"`
	StoragePath  string              `bson:"storage_path" json:"-"` // owned by this record
	FileType     string              `bson:"file_type" json:"file_type"`
	FileSize     int64               `bson:"file_size" json:"file_size"`
	UploadedAt   time.Time           `bson:"uploaded_at" json:"uploaded_at"`
	UploadedBy   *primitive.ObjectID `bson:"uploaded_by,omitempty" json:"uploaded_by,omitempty"` // weak reference to a User
}

// ListOptions pages a note listing. Zero values list everything.
type ListOptions struct {
	Skip  int64
	Limit int64
}

func (o ListOptions) IsZero() bool {
	return o.Skip == 0 && o.Limit == 0
}
