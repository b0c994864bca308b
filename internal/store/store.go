// Package store persists the platform's documents in MongoDB.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/medlink-api/internal/errs"
)

const (
	partnersCollection = "partners"
	imagesCollection   = "images"
	usersCollection    = "users"
	ordersCollection   = "orders"
	productsCollection = "products"
	reviewsCollection  = "reviews"
	paymentsCollection = "payments"
)

// Connect dials MongoDB and pings it before handing the client back.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// EnsureIndexes creates the indexes the queries below rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "roles", Value: 1}}},
		},
		partnersCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "partnerType", Value: 1}}},
		},
		ordersCollection: {
			{Keys: bson.D{{Key: "partner", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		reviewsCollection: {
			{Keys: bson.D{{Key: "doctor", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		paymentsCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}}},
			{Keys: bson.D{{Key: "order", Value: 1}}},
		},
	}
	for coll, idx := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	log.Println("MongoDB indexes are in place.")
	return nil
}

// translate maps driver errors onto the errs taxonomy.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return errs.NotFound(what)
	case mongo.IsDuplicateKeyError(err):
		return errs.Conflict(what + " already exists")
	default:
		return errs.Wrap(err, "Database error")
	}
}

// clearImage unsets the owner's image field, but only while it still
// points at imageID.
func clearImage(ctx context.Context, coll *mongo.Collection, ownerID, imageID primitive.ObjectID, what string) error {
	filter := bson.M{"_id": ownerID, "image": imageID}
	_, err := coll.UpdateOne(ctx, filter, bson.M{"$unset": bson.M{"image": ""}})
	return translate(err, what)
}

// lookupOne populates a single reference field in place. Dangling
// references drop the field instead of dropping the document.
func lookupOne(from, field string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: from},
			{Key: "localField", Value: field},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: field},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$" + field},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}
}

// userSummaryProjection hides the user fields no embedding should carry.
func userSummaryProjection(field string) bson.D {
	return bson.D{{Key: "$project", Value: bson.D{
		{Key: field + ".password", Value: 0},
		{Key: field + ".pushTokens", Value: 0},
		{Key: field + ".roles", Value: 0},
		{Key: field + ".doctor", Value: 0},
	}}}
}

func concat(parts ...mongo.Pipeline) mongo.Pipeline {
	var out mongo.Pipeline
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
