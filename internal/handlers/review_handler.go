package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medlink-api/internal/errs"
	"github.com/harentsoaR/medlink-api/internal/models"
)

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type doctorReviews struct {
	Reviews       []models.Review `json:"reviews"`
	AverageRating float64         `json:"averageRating"`
}

func (h *Handler) GetDoctors(c *gin.Context) {
	doctors, err := h.Users.ListByRole(c.Request.Context(), models.RoleDoctor)
	if err != nil {
		fail(c, err)
		return
	}
	respondList(c, doctors, len(doctors))
}

// findDoctor loads a user and checks they hold the Doctor role.
func (h *Handler) findDoctor(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := h.Users.FindByID(ctx, id)
	if errs.Is(err, errs.KindNotFound) {
		return nil, errs.NotFound("Doctor")
	}
	if err != nil {
		return nil, err
	}
	if !u.HasRole(models.RoleDoctor) {
		return nil, errs.NotFound("Doctor")
	}
	return u, nil
}

func (h *Handler) GetDoctorReviews(c *gin.Context) {
	id, err := pathID(c, "doctorId", "doctor")
	if err != nil {
		fail(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.findDoctor(ctx, id); err != nil {
		fail(c, err)
		return
	}
	reviews, err := h.Reviews.ListByDoctor(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}

	summary := models.SummarizeReviews(reviews)
	c.JSON(http.StatusOK, envelope{
		Success: true,
		Data:    doctorReviews{Reviews: reviews, AverageRating: summary.AverageRating},
		Count:   &summary.Count,
	})
}

func (h *Handler) CreateReview(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		fail(c, err)
		return
	}
	id, err := pathID(c, "doctorId", "doctor")
	if err != nil {
		fail(c, err)
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.Validation("Invalid request body"))
		return
	}

	ctx := c.Request.Context()
	if _, err := h.findDoctor(ctx, id); err != nil {
		fail(c, err)
		return
	}
	if actor.ID == id {
		fail(c, errs.Validation("Doctors cannot review themselves"))
		return
	}

	now := h.now()
	review := &models.Review{
		Doctor:    id,
		Author:    models.Reference[models.UserSummary](actor.ID),
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := review.Validate(); err != nil {
		fail(c, err)
		return
	}
	if err := h.Reviews.Create(ctx, review); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Review submitted successfully", review)
}
