package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Doctor    primitive.ObjectID `bson:"doctor" json:"doctor"`
	Author    Ref[UserSummary]   `bson:"author" json:"author"`
	Rating    int                `bson:"rating" json:"rating" validate:"min=1,max=5"`
	Comment   string             `bson:"comment" json:"comment" validate:"max=2000"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (r *Review) Validate() error { return check(r) }

type ReviewSummary struct {
	Count         int     `json:"count"`
	AverageRating float64 `json:"averageRating"`
}

func SummarizeReviews(reviews []Review) ReviewSummary {
	if len(reviews) == 0 {
		return ReviewSummary{}
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	return ReviewSummary{
		Count:         len(reviews),
		AverageRating: float64(total) / float64(len(reviews)),
	}
}
