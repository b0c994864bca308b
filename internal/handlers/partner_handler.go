package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medlink-api/internal/errs"
	"github.com/harentsoaR/medlink-api/internal/models"
	"github.com/harentsoaR/medlink-api/internal/services"
)

const (
	activePartnersCacheKey = "partners:active"
	partnerStatsCacheKey   = "partners:stats"
)

// bindPartnerInput reads partner fields from a JSON or form body.
func bindPartnerInput(c *gin.Context) (models.PartnerInput, error) {
	var in models.PartnerInput
	if c.Request.ContentLength == 0 && c.ContentType() == "" {
		return in, nil
	}
	if err := c.ShouldBind(&in); err != nil {
		return in, errs.Validation("Invalid request body: %v", err)
	}
	if c.ContentType() != binding.MIMEJSON {
		if values, ok := c.GetPostFormArray("socialLinks"); ok {
			links := models.ParseSocialLinks(values)
			in.SocialLinks = &links
		}
	}
	return in, nil
}

func partnerFilter(c *gin.Context) (models.PartnerFilter, error) {
	f := models.PartnerFilter{
		PartnerType: strings.TrimSpace(c.Query("partnerType")),
		Profession:  strings.TrimSpace(c.Query("profession")),
		Search:      strings.TrimSpace(c.Query("search")),
	}
	if raw := c.Query("isActive"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return f, errs.Validation("isActive must be true or false")
		}
		f.IsActive = &active
	}
	return f, nil
}

// CreatePartner handles POST /api/partners.
func (h *Handler) CreatePartner(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		fail(c, err)
		return
	}
	in, err := bindPartnerInput(c)
	if err != nil {
		fail(c, err)
		return
	}

	partner := models.NewPartner(in, actor.ID, h.now())
	if err := partner.Validate(); err != nil {
		fail(c, err)
		return
	}

	ctx := c.Request.Context()
	img, err := h.uploadImage(c, h.PartnerFolder, actor.ID)
	if err != nil {
		fail(c, err)
		return
	}
	if img != nil {
		partner.Image = models.Expanded(img.ID, *img)
	}

	if err := h.Partners.Create(ctx, partner); err != nil {
		if img != nil {
			h.rollbackImage(ctx, img)
		}
		fail(c, err)
		return
	}

	h.partnersChanged(ctx, services.SubjectPartnerCreated, partner, actor)
	respond(c, http.StatusCreated, "Partner created successfully", partner)
}

// GetPartners handles GET /api/partners.
func (h *Handler) GetPartners(c *gin.Context) {
	f, err := partnerFilter(c)
	if err != nil {
		fail(c, err)
		return
	}
	partners, err := h.Partners.List(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	respondList(c, partners, len(partners))
}

// GetActivePartners handles the public GET /api/partners/active.
func (h *Handler) GetActivePartners(c *gin.Context) {
	ctx := c.Request.Context()

	var partners []models.Partner
	if h.Cache != nil && h.Cache.Get(ctx, activePartnersCacheKey, &partners) {
		respondList(c, partners, len(partners))
		return
	}

	active := true
	partners, err := h.Partners.List(ctx, models.PartnerFilter{IsActive: &active})
	if err != nil {
		fail(c, err)
		return
	}
	if h.Cache != nil {
		h.Cache.Set(ctx, activePartnersCacheKey, partners)
	}
	respondList(c, partners, len(partners))
}

func (h *Handler) GetPartner(c *gin.Context) {
	id, err := pathID(c, "partnerId", "partner")
	if err != nil {
		fail(c, err)
		return
	}
	partner, err := h.Partners.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", partner)
}

// UpdatePartner merges the provided fields onto the stored partner. A new
// file replaces the current image; the old one is deleted first.
func (h *Handler) UpdatePartner(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		fail(c, err)
		return
	}
	id, err := pathID(c, "partnerId", "partner")
	if err != nil {
		fail(c, err)
		return
	}
	in, err := bindPartnerInput(c)
	if err != nil {
		fail(c, err)
		return
	}

	ctx := c.Request.Context()
	partner, err := h.Partners.FindByID(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	partner.Apply(in, h.now())
	if err := partner.Validate(); err != nil {
		fail(c, err)
		return
	}

	img, err := h.uploadImage(c, h.PartnerFolder, actor.ID)
	if err != nil {
		fail(c, err)
		return
	}
	var discarded primitive.ObjectID
	if img != nil {
		if !partner.Image.IsZero() {
			if err := h.discardImage(ctx, partner.Image.ID()); err != nil {
				h.rollbackImage(ctx, img)
				fail(c, err)
				return
			}
			discarded = partner.Image.ID()
		}
		partner.Image = models.Expanded(img.ID, *img)
	}

	if err := h.Partners.Replace(ctx, partner); err != nil {
		if img != nil {
			h.rollbackImage(ctx, img)
		}
		if !discarded.IsZero() {
			h.detachImage(ctx, h.Partners.ClearImage, id, discarded)
		}
		fail(c, err)
		return
	}

	updated, err := h.Partners.Get(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	h.partnersChanged(ctx, services.SubjectPartnerUpdated, updated, actor)
	respond(c, http.StatusOK, "Partner updated successfully", updated)
}

func (h *Handler) DeletePartner(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		fail(c, err)
		return
	}
	id, err := pathID(c, "partnerId", "partner")
	if err != nil {
		fail(c, err)
		return
	}

	ctx := c.Request.Context()
	partner, err := h.Partners.FindByID(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	if !partner.Image.IsZero() {
		if err := h.discardImage(ctx, partner.Image.ID()); err != nil {
			fail(c, err)
			return
		}
	}
	if err := h.Partners.Delete(ctx, id); err != nil {
		fail(c, err)
		return
	}

	h.partnersChanged(ctx, services.SubjectPartnerDeleted, partner, actor)
	respond(c, http.StatusOK, "Partner deleted successfully", nil)
}

func (h *Handler) TogglePartnerStatus(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		fail(c, err)
		return
	}
	id, err := pathID(c, "partnerId", "partner")
	if err != nil {
		fail(c, err)
		return
	}

	ctx := c.Request.Context()
	partner, err := h.Partners.ToggleActive(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}

	h.partnersChanged(ctx, services.SubjectPartnerStatus, partner, actor)
	state := "deactivated"
	if partner.IsActive {
		state = "activated"
	}
	respond(c, http.StatusOK, "Partner "+state+" successfully", partner)
}

func (h *Handler) GetPartnerStats(c *gin.Context) {
	ctx := c.Request.Context()

	var stats models.PartnerStats
	if h.Cache != nil && h.Cache.Get(ctx, partnerStatsCacheKey, &stats) {
		respond(c, http.StatusOK, "", stats)
		return
	}
	stats, err := h.Partners.Stats(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	if h.Cache != nil {
		h.Cache.Set(ctx, partnerStatsCacheKey, stats)
	}
	respond(c, http.StatusOK, "", stats)
}

func (h *Handler) GetPartnerOrders(c *gin.Context) {
	id, err := pathID(c, "partnerId", "partner")
	if err != nil {
		fail(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.Partners.FindByID(ctx, id); err != nil {
		fail(c, err)
		return
	}
	orders, err := h.Orders.ListByPartner(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	respondList(c, orders, len(orders))
}

// partnersChanged drops cached partner reads and announces the change.
func (h *Handler) partnersChanged(ctx context.Context, subject string, p *models.Partner, actor Actor) {
	if h.Cache != nil {
		h.Cache.Invalidate(ctx, activePartnersCacheKey, partnerStatsCacheKey)
	}
	if h.Events != nil {
		h.Events.Publish(subject, services.PartnerEvent{
			PartnerID: p.ID.Hex(),
			Name:      p.Name,
			IsActive:  p.IsActive,
			ActorID:   actor.ID.Hex(),
			At:        h.now(),
		})
	}
}
