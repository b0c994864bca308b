package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser   Role = "User"
	RoleAdmin  Role = "Admin"
	RoleDoctor Role = "Doctor"
)

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name" validate:"required,max=120"`
	Email      string             `bson:"email" json:"email" validate:"required,email"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Origin     string             `bson:"origin,omitempty" json:"origin,omitempty"`
	Password   string             `bson:"password,omitempty" json:"-"`
	Roles      []Role             `bson:"roles" json:"roles" validate:"required,min=1,dive,oneof=User Admin Doctor"`
	Image      Ref[Image]         `bson:"image,omitempty" json:"image"`
	PushTokens []string           `bson:"pushTokens" json:"pushTokens"`
	Doctor     *DoctorProfile     `bson:"doctor,omitempty" json:"doctor,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type DoctorProfile struct {
	Specialization    string `bson:"specialization" json:"specialization"`
	Bio               string `bson:"bio,omitempty" json:"bio,omitempty"`
	YearsOfExperience int    `bson:"yearsOfExperience" json:"yearsOfExperience"`
}

// UserSummary is the slice of a user embedded in other documents' responses.
type UserSummary struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Name   string             `bson:"name" json:"name"`
	Email  string             `bson:"email,omitempty" json:"email,omitempty"`
	Origin string             `bson:"origin,omitempty" json:"origin,omitempty"`
}

func (u *User) Validate() error { return check(u) }

func (u *User) HasRole(r Role) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FieldSet names the fields a write changed. Pre-persist hooks use it to
// decide what needs transforming.
type FieldSet map[string]struct{}

func Changed(fields ...string) FieldSet {
	set := make(FieldSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func (s FieldSet) Has(field string) bool {
	_, ok := s[field]
	return ok
}

func (s FieldSet) Add(field string) { s[field] = struct{}{} }
