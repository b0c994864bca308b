package models

import (
	"encoding/json"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medlink-api/internal/errs"
)

type PartnerType string

const (
	PartnerIndividual PartnerType = "individual"
	PartnerBusiness   PartnerType = "business"
)

type Partner struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name" validate:"required,max=200"`
	Profession      string             `bson:"profession" json:"profession" validate:"required,max=200"`
	BusinessAddress string             `bson:"businessAddress" json:"businessAddress" validate:"required"`
	PartnerType     PartnerType        `bson:"partnerType" json:"partnerType" validate:"required,oneof=individual business"`
	Email           string             `bson:"email,omitempty" json:"email,omitempty" validate:"omitempty,email"`
	Phone           string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	Website         string             `bson:"website,omitempty" json:"website,omitempty" validate:"omitempty,url_shape"`
	SocialLinks     []string           `bson:"socialLinks" json:"socialLinks" validate:"dive,url_shape"`
	IsActive        bool               `bson:"isActive" json:"isActive"`
	Image           Ref[Image]         `bson:"image,omitempty" json:"image"`
	CreatedBy       Ref[UserSummary]   `bson:"createdBy" json:"createdBy"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Validate checks the whole document, as it is about to be stored.
func (p *Partner) Validate() error {
	if err := check(p); err != nil {
		return err
	}
	if p.CreatedBy.IsZero() {
		return errs.Validation("createdBy is required")
	}
	return nil
}

// PartnerInput carries the client-supplied fields of a create or update.
// Nil means "not provided".
type PartnerInput struct {
	Name            *string      `form:"name" json:"name"`
	Profession      *string      `form:"profession" json:"profession"`
	BusinessAddress *string      `form:"businessAddress" json:"businessAddress"`
	PartnerType     *string      `form:"partnerType" json:"partnerType"`
	Email           *string      `form:"email" json:"email"`
	Phone           *string      `form:"phone" json:"phone"`
	Description     *string      `form:"description" json:"description"`
	Website         *string      `form:"website" json:"website"`
	IsActive        *bool        `form:"isActive" json:"isActive"`
	SocialLinks     *SocialLinks `form:"-" json:"socialLinks"`
}

// NewPartner builds a partner from input with the schema defaults applied.
func NewPartner(in PartnerInput, createdBy primitive.ObjectID, now time.Time) *Partner {
	p := &Partner{
		PartnerType: PartnerIndividual,
		SocialLinks: []string{},
		IsActive:    true,
		CreatedBy:   Reference[UserSummary](createdBy),
		CreatedAt:   now,
	}
	p.Apply(in, now)
	return p
}

// Apply merges the provided fields onto p.
func (p *Partner) Apply(in PartnerInput, now time.Time) {
	setString(&p.Name, in.Name)
	setString(&p.Profession, in.Profession)
	setString(&p.BusinessAddress, in.BusinessAddress)
	if in.PartnerType != nil {
		p.PartnerType = PartnerType(strings.TrimSpace(*in.PartnerType))
	}
	setString(&p.Email, in.Email)
	if in.Email != nil {
		p.Email = strings.ToLower(p.Email)
	}
	setString(&p.Phone, in.Phone)
	setString(&p.Description, in.Description)
	setString(&p.Website, in.Website)
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.SocialLinks != nil {
		p.SocialLinks = append([]string{}, (*in.SocialLinks)...)
	}
	p.UpdatedAt = now
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

// SocialLinks accepts either a JSON array or a JSON-encoded string holding
// an array, as multipart clients tend to send the latter.
type SocialLinks []string

func (s *SocialLinks) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseSocialLinks([]string{raw})
	return nil
}

// ParseSocialLinks interprets form values for socialLinks. A single value
// is tried as a JSON array first; if that fails it becomes a one-element
// list. Several values are taken as they are.
func ParseSocialLinks(values []string) SocialLinks {
	if len(values) == 1 {
		raw := values[0]
		if raw == "" {
			return SocialLinks{}
		}
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			return list
		}
		return SocialLinks{raw}
	}
	return append(SocialLinks{}, values...)
}

// PartnerFilter narrows the admin listing. Zero values mean "any".
type PartnerFilter struct {
	IsActive    *bool
	PartnerType string
	Profession  string
	Search      string
}

type PartnerTypeCount struct {
	PartnerType string `bson:"_id"`
	Count       int64  `bson:"count"`
	Active      int64  `bson:"active"`
}

type PartnerStats struct {
	Total    int64            `json:"total"`
	Active   int64            `json:"active"`
	Inactive int64            `json:"inactive"`
	ByType   map[string]int64 `json:"byType"`
}

// FoldPartnerStats sums per-type counts taken in a single aggregation, so
// active and inactive always add up to total.
func FoldPartnerStats(rows []PartnerTypeCount) PartnerStats {
	stats := PartnerStats{ByType: make(map[string]int64, len(rows))}
	for _, r := range rows {
		stats.Total += r.Count
		stats.Active += r.Active
		stats.ByType[r.PartnerType] += r.Count
	}
	stats.Inactive = stats.Total - stats.Active
	return stats
}
