package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order and Product are written by the storefront; this service only reads
// them to report a partner's orders.
type Order struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrderID    string              `bson:"orderId" json:"orderId"`
	Partner    primitive.ObjectID  `bson:"partner" json:"partner"`
	User       *primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty"`
	Items      []OrderItem         `bson:"items" json:"items"`
	TotalPrice float64             `bson:"totalPrice" json:"totalPrice"`
	Status     string              `bson:"status" json:"status"`
	Platform   string              `bson:"platform" json:"platform"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
}

type OrderItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Quantity int                `bson:"quantity" json:"quantity"`
	Price    float64            `bson:"price" json:"price"`
}

type Product struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Price      float64            `bson:"price" json:"price"`
	FrontImage string             `bson:"frontImage" json:"frontImage"`
}

type Purchaser struct {
	Name   string `json:"name"`
	Origin string `json:"origin"`
}

// OrderSummary is the flat row shown in a partner's order list.
type OrderSummary struct {
	ID         primitive.ObjectID `json:"id"`
	OrderID    string             `json:"orderId"`
	TotalPrice float64            `json:"totalPrice"`
	Status     string             `json:"status"`
	Platform   string             `json:"platform"`
	User       Purchaser          `json:"user"`
	ItemCount  int                `json:"itemCount"`
	FrontImage string             `json:"frontImage"`
	CreatedAt  time.Time          `json:"createdAt"`
}

var guestPurchaser = Purchaser{Name: "Guest", Origin: "N/A"}

// SummarizeOrder flattens an order with its populated purchaser and first
// line-item product. A nil purchaser means a guest checkout.
func SummarizeOrder(o Order, purchaser *UserSummary, firstProduct *Product) OrderSummary {
	s := OrderSummary{
		ID:         o.ID,
		OrderID:    o.OrderID,
		TotalPrice: o.TotalPrice,
		Status:     o.Status,
		Platform:   o.Platform,
		User:       guestPurchaser,
		ItemCount:  len(o.Items),
		CreatedAt:  o.CreatedAt,
	}
	if purchaser != nil {
		s.User = Purchaser{Name: purchaser.Name, Origin: purchaser.Origin}
		if s.User.Origin == "" {
			s.User.Origin = guestPurchaser.Origin
		}
	}
	if firstProduct != nil {
		s.FrontImage = firstProduct.FrontImage
	}
	return s
}
