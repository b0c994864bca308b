package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/harentsoaR/medlink-api/internal/models"
)

type ReviewStore struct {
	coll *mongo.Collection
}

func NewReviewStore(db *mongo.Database) *ReviewStore {
	return &ReviewStore{coll: db.Collection(reviewsCollection)}
}

func (s *ReviewStore) Create(ctx context.Context, r *models.Review) error {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, r)
	return translate(err, "Review")
}

// ListByDoctor returns a doctor's reviews newest first with their authors.
func (s *ReviewStore) ListByDoctor(ctx context.Context, doctorID primitive.ObjectID) ([]models.Review, error) {
	pipeline := concat(
		mongo.Pipeline{
			{{Key: "$match", Value: bson.D{{Key: "doctor", Value: doctorID}}}},
			{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		},
		lookupOne(usersCollection, "author"),
		mongo.Pipeline{userSummaryProjection("author")},
	)
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, translate(err, "Review")
	}
	defer cursor.Close(ctx)

	reviews := make([]models.Review, 0)
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, translate(err, "Review")
	}
	return reviews, nil
}
