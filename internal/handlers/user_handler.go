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

type updateUserRequest struct {
	Name     *string `form:"name" json:"name"`
	Phone    *string `form:"phone" json:"phone"`
	Origin   *string `form:"origin" json:"origin"`
	Password *string `form:"password" json:"password"`
}

type pushTokenRequest struct {
	Token string `json:"token"`
}

// GetCurrentUser retrieves the profile of the authenticated caller.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		fail(c, err)
		return
	}
	user, err := h.Users.FindByID(c.Request.Context(), actor.ID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", user)
}

// UpdateCurrentUser updates the caller's own profile. Only the fields sent
// are written; a new file replaces the profile image.
func (h *Handler) UpdateCurrentUser(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		fail(c, err)
		return
	}

	var req updateUserRequest
	if c.Request.ContentLength != 0 || c.ContentType() != "" {
		if err := c.ShouldBind(&req); err != nil {
			fail(c, errs.Validation("Invalid request body"))
			return
		}
	}

	ctx := c.Request.Context()
	user, err := h.Users.FindByID(ctx, actor.ID)
	if err != nil {
		fail(c, err)
		return
	}

	changed := models.Changed()
	set := func(field string, dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
			changed.Add(field)
		}
	}
	set("name", &user.Name, req.Name)
	set("phone", &user.Phone, req.Phone)
	set("origin", &user.Origin, req.Origin)
	if req.Password != nil {
		if err := checkPassword(*req.Password); err != nil {
			fail(c, err)
			return
		}
		user.Password = *req.Password
		changed.Add("password")
	}
	if err := user.Validate(); err != nil {
		fail(c, err)
		return
	}

	img, err := h.uploadImage(c, h.UserFolder, actor.ID)
	if err != nil {
		fail(c, err)
		return
	}
	var discarded primitive.ObjectID
	if img != nil {
		if !user.Image.IsZero() {
			if err := h.discardImage(ctx, user.Image.ID()); err != nil {
				h.rollbackImage(ctx, img)
				fail(c, err)
				return
			}
			discarded = user.Image.ID()
		}
		user.Image = models.Expanded(img.ID, *img)
		changed.Add("image")
	}

	if len(changed) == 0 {
		fail(c, errs.Validation("No update fields provided"))
		return
	}
	if err := h.Users.Update(ctx, user, changed); err != nil {
		if img != nil {
			h.rollbackImage(ctx, img)
		}
		if !discarded.IsZero() {
			h.detachImage(ctx, h.Users.ClearImage, actor.ID, discarded)
		}
		fail(c, err)
		return
	}

	user.Password = ""
	respond(c, http.StatusOK, "Profile updated successfully", user)
}

func (h *Handler) AddPushToken(c *gin.Context) {
	h.mutatePushTokens(c, h.Users.AddPushToken)
}

func (h *Handler) RemovePushToken(c *gin.Context) {
	h.mutatePushTokens(c, h.Users.RemovePushToken)
}

func (h *Handler) mutatePushTokens(c *gin.Context, mutate func(ctx context.Context, id primitive.ObjectID, token string) ([]string, error)) {
	actor, err := actorFrom(c)
	if err != nil {
		fail(c, err)
		return
	}
	var req pushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		fail(c, errs.Validation("token is required"))
		return
	}
	tokens, err := mutate(c.Request.Context(), actor.ID, strings.TrimSpace(req.Token))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"pushTokens": tokens})
}
