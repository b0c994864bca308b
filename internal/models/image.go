package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Image is an uploaded asset. ImageCldID is the handle the media store
// needs to delete the remote object.
type Image struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ImageURL   string              `bson:"imageUrl" json:"imageUrl"`
	ImageCldID string              `bson:"imageCldId" json:"imageCldId"`
	UploadedBy *primitive.ObjectID `bson:"uploadedBy,omitempty" json:"uploadedBy,omitempty"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time           `bson:"updatedAt" json:"updatedAt"`
}
