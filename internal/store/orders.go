package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/harentsoaR/medlink-api/internal/models"
)

type OrderStore struct {
	coll *mongo.Collection
}

func NewOrderStore(db *mongo.Database) *OrderStore {
	return &OrderStore{coll: db.Collection(ordersCollection)}
}

func (s *OrderStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, translate(err, "Order")
	}
	return &o, nil
}

type orderRow struct {
	models.Order `bson:",inline"`
	Purchaser    []models.UserSummary `bson:"purchaser"`
	FirstProduct []models.Product     `bson:"firstProduct"`
}

// ListByPartner returns the partner's orders, newest first, flattened into
// summaries.
func (s *OrderStore) ListByPartner(ctx context.Context, partnerID primitive.ObjectID) ([]models.OrderSummary, error) {
	cursor, err := s.coll.Aggregate(ctx, partnerOrdersPipeline(partnerID))
	if err != nil {
		return nil, translate(err, "Order")
	}
	defer cursor.Close(ctx)

	var rows []orderRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, translate(err, "Order")
	}

	summaries := make([]models.OrderSummary, 0, len(rows))
	for _, row := range rows {
		var purchaser *models.UserSummary
		if row.Order.User != nil && len(row.Purchaser) > 0 {
			purchaser = &row.Purchaser[0]
		}
		var product *models.Product
		if len(row.FirstProduct) > 0 {
			product = &row.FirstProduct[0]
		}
		summaries = append(summaries, models.SummarizeOrder(row.Order, purchaser, product))
	}
	return summaries, nil
}

func partnerOrdersPipeline(partnerID primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "partner", Value: partnerID}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "user"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "purchaser"},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "firstItem", Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{"$items", 0}}}},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: productsCollection},
			{Key: "localField", Value: "firstItem.product"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "firstProduct"},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "purchaser.password", Value: 0},
			{Key: "purchaser.pushTokens", Value: 0},
			{Key: "firstItem", Value: 0},
		}}},
	}
}
