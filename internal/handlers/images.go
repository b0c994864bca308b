package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medlink-api/internal/errs"
	"github.com/harentsoaR/medlink-api/internal/models"
)

// uploadImage stores the request's "file" part, if there is one, and
// records it as an Image. It returns nil when no file was sent.
func (h *Handler) uploadImage(c *gin.Context, folder string, uploadedBy primitive.ObjectID) (*models.Image, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, nil
	}
	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Validation("Invalid file upload: %v", err)
	}
	if h.Media == nil {
		return nil, errs.Wrap(errors.New("media store not configured"), "Image upload is unavailable")
	}

	file, err := fh.Open()
	if err != nil {
		return nil, errs.Wrap(err, "Failed to read uploaded file")
	}
	defer file.Close()

	ctx := c.Request.Context()
	res, err := h.Media.Upload(ctx, file, folder)
	if err != nil {
		return nil, errs.Wrap(err, "Failed to upload image")
	}

	now := h.now()
	img := &models.Image{
		ImageURL:   res.SecureURL,
		ImageCldID: res.PublicID,
		UploadedBy: &uploadedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.Images.Create(ctx, img); err != nil {
		h.deleteRemote(ctx, res.PublicID)
		return nil, err
	}
	return img, nil
}

// discardImage removes an owned image: the remote object first, then its
// record. A record that is already gone is not an error.
func (h *Handler) discardImage(ctx context.Context, id primitive.ObjectID) error {
	img, err := h.Images.FindByID(ctx, id)
	if errs.Is(err, errs.KindNotFound) {
		log.Printf("Image %s already removed, nothing to discard", id.Hex())
		return nil
	}
	if err != nil {
		return err
	}
	if h.Media == nil {
		return errs.Wrap(errors.New("media store not configured"), "Failed to delete image")
	}
	if err := h.Media.Delete(ctx, img.ImageCldID); err != nil {
		return errs.Wrap(err, "Failed to delete image")
	}
	return h.Images.Delete(ctx, id)
}

// rollbackImage undoes uploadImage after the owning write failed. It is
// best effort and only logs.
func (h *Handler) rollbackImage(ctx context.Context, img *models.Image) {
	ctx = context.WithoutCancel(ctx)
	h.deleteRemote(ctx, img.ImageCldID)
	if err := h.Images.Delete(ctx, img.ID); err != nil {
		log.Printf("Failed to remove orphaned image record %s: %v", img.ID.Hex(), err)
	}
}

type imageClearer func(ctx context.Context, ownerID, imageID primitive.ObjectID) error

// detachImage drops the owner's reference to an image discardImage already
// removed, after the write that would have replaced it failed. Best effort.
func (h *Handler) detachImage(ctx context.Context, clear imageClearer, ownerID, imageID primitive.ObjectID) {
	if err := clear(context.WithoutCancel(ctx), ownerID, imageID); err != nil {
		log.Printf("Failed to clear dangling image %s on %s: %v", imageID.Hex(), ownerID.Hex(), err)
	}
}

func (h *Handler) deleteRemote(ctx context.Context, publicID string) {
	if h.Media == nil {
		return
	}
	if err := h.Media.Delete(context.WithoutCancel(ctx), publicID); err != nil {
		log.Printf("Failed to remove orphaned upload %s: %v", publicID, err)
	}
}
