package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/harentsoaR/medlink-api/internal/models"
)

type ImageStore struct {
	coll *mongo.Collection
}

func NewImageStore(db *mongo.Database) *ImageStore {
	return &ImageStore{coll: db.Collection(imagesCollection)}
}

func (s *ImageStore) Create(ctx context.Context, img *models.Image) error {
	if img.ID.IsZero() {
		img.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, img)
	return translate(err, "Image")
}

func (s *ImageStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Image, error) {
	var img models.Image
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&img); err != nil {
		return nil, translate(err, "Image")
	}
	return &img, nil
}

func (s *ImageStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	return translate(err, "Image")
}
