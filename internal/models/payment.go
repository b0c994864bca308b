package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentMethod string

const (
	PaymentCard         PaymentMethod = "card"
	PaymentPaystack     PaymentMethod = "paystack"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

type Payment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Order         primitive.ObjectID `bson:"order" json:"order"`
	User          primitive.ObjectID `bson:"user" json:"user"`
	Amount        float64            `bson:"amount" json:"amount" validate:"gt=0"`
	PaymentMethod PaymentMethod      `bson:"paymentMethod" json:"paymentMethod" validate:"required,oneof=card paystack bank_transfer"`
	Status        PaymentStatus      `bson:"status" json:"status" validate:"required,oneof=pending success failed"`
	Reference     string             `bson:"reference,omitempty" json:"reference,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (p *Payment) Validate() error { return check(p) }

func ValidPaymentStatus(s string) bool {
	switch PaymentStatus(s) {
	case PaymentPending, PaymentSuccess, PaymentFailed:
		return true
	}
	return false
}
