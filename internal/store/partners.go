package store

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/medlink-api/internal/errs"
	"github.com/harentsoaR/medlink-api/internal/models"
)

type PartnerStore struct {
	coll *mongo.Collection
}

func NewPartnerStore(db *mongo.Database) *PartnerStore {
	return &PartnerStore{coll: db.Collection(partnersCollection)}
}

func (s *PartnerStore) Create(ctx context.Context, p *models.Partner) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, p)
	return translate(err, "Partner")
}

// List returns matching partners newest first, with image and creator
// populated.
func (s *PartnerStore) List(ctx context.Context, f models.PartnerFilter) ([]models.Partner, error) {
	return s.aggregate(ctx, partnerPipeline(partnerMatch(f)))
}

// Get returns one populated partner.
func (s *PartnerStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Partner, error) {
	found, err := s.aggregate(ctx, partnerPipeline(bson.D{{Key: "_id", Value: id}}))
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, errs.NotFound("Partner")
	}
	return &found[0], nil
}

// FindByID returns the stored document with bare references.
func (s *PartnerStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Partner, error) {
	var p models.Partner
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err, "Partner")
	}
	return &p, nil
}

// Replace overwrites the whole document. Concurrent writers race with
// last-write-wins semantics.
func (s *PartnerStore) Replace(ctx context.Context, p *models.Partner) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return translate(err, "Partner")
	}
	if res.MatchedCount == 0 {
		return errs.NotFound("Partner")
	}
	return nil
}

func (s *PartnerStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, "Partner")
	}
	if res.DeletedCount == 0 {
		return errs.NotFound("Partner")
	}
	return nil
}

func (s *PartnerStore) ClearImage(ctx context.Context, id, imageID primitive.ObjectID) error {
	return clearImage(ctx, s.coll, id, imageID, "Partner")
}

// ToggleActive flips isActive in a single server-side update.
func (s *PartnerStore) ToggleActive(ctx context.Context, id primitive.ObjectID) (*models.Partner, error) {
	flip := mongo.Pipeline{{{Key: "$set", Value: bson.D{
		{Key: "isActive", Value: bson.D{{Key: "$not", Value: bson.A{"$isActive"}}}},
		{Key: "updatedAt", Value: time.Now()},
	}}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Partner
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, flip, opts).Decode(&p); err != nil {
		return nil, translate(err, "Partner")
	}
	return &p, nil
}

func (s *PartnerStore) Stats(ctx context.Context) (models.PartnerStats, error) {
	cursor, err := s.coll.Aggregate(ctx, statsPipeline())
	if err != nil {
		return models.PartnerStats{}, translate(err, "Partner")
	}
	defer cursor.Close(ctx)

	var rows []models.PartnerTypeCount
	if err := cursor.All(ctx, &rows); err != nil {
		return models.PartnerStats{}, translate(err, "Partner")
	}
	return models.FoldPartnerStats(rows), nil
}

func (s *PartnerStore) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]models.Partner, error) {
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, translate(err, "Partner")
	}
	defer cursor.Close(ctx)

	partners := make([]models.Partner, 0)
	if err := cursor.All(ctx, &partners); err != nil {
		return nil, translate(err, "Partner")
	}
	return partners, nil
}

func partnerMatch(f models.PartnerFilter) bson.D {
	match := bson.D{}
	if f.IsActive != nil {
		match = append(match, bson.E{Key: "isActive", Value: *f.IsActive})
	}
	if f.PartnerType != "" {
		match = append(match, bson.E{Key: "partnerType", Value: f.PartnerType})
	}
	if f.Profession != "" {
		match = append(match, bson.E{Key: "profession", Value: f.Profession})
	}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		match = append(match, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: pattern}},
			bson.D{{Key: "profession", Value: pattern}},
		}})
	}
	return match
}

func partnerPipeline(match bson.D) mongo.Pipeline {
	return concat(
		mongo.Pipeline{
			{{Key: "$match", Value: match}},
			{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		},
		lookupOne(imagesCollection, "image"),
		lookupOne(usersCollection, "createdBy"),
		mongo.Pipeline{userSummaryProjection("createdBy")},
	)
}

func statsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$partnerType"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "active", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{bson.D{{Key: "$eq", Value: bson.A{"$isActive", true}}}, 1, 0}},
			}}}},
		}}},
	}
}
