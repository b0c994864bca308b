package handlers

import (
	"slices"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medlink-api/internal/errs"
	"github.com/harentsoaR/medlink-api/internal/middleware"
	"github.com/harentsoaR/medlink-api/internal/models"
)

// Actor is the authenticated caller of one request.
type Actor struct {
	ID    primitive.ObjectID
	Roles []models.Role
}

func (a Actor) IsAdmin() bool { return slices.Contains(a.Roles, models.RoleAdmin) }

func actorFrom(c *gin.Context) (Actor, error) {
	raw := c.GetString(middleware.UserIDKey)
	if raw == "" {
		return Actor{}, errs.Auth("Authentication required")
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return Actor{}, errs.Auth("Invalid user identity in token")
	}
	held := c.GetStringSlice(middleware.RolesKey)
	roles := make([]models.Role, 0, len(held))
	for _, r := range held {
		roles = append(roles, models.Role(r))
	}
	return Actor{ID: id, Roles: roles}, nil
}

// pathID reads an ObjectID route parameter. A malformed value is rejected
// here, before anything touches the database.
func pathID(c *gin.Context, param, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		return primitive.NilObjectID, errs.Validation("Invalid %s ID format", what)
	}
	return id, nil
}
