package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/harentsoaR/medlink-api/internal/config"
	"github.com/harentsoaR/medlink-api/internal/middleware"
	"github.com/harentsoaR/medlink-api/internal/models"
	"github.com/harentsoaR/medlink-api/internal/services"
	"github.com/harentsoaR/medlink-api/internal/store"
)

type PartnerStore interface {
	Create(ctx context.Context, p *models.Partner) error
	List(ctx context.Context, f models.PartnerFilter) ([]models.Partner, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Partner, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Partner, error)
	Replace(ctx context.Context, p *models.Partner) error
	ClearImage(ctx context.Context, id, imageID primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	ToggleActive(ctx context.Context, id primitive.ObjectID) (*models.Partner, error)
	Stats(ctx context.Context) (models.PartnerStats, error)
}

type ImageStore interface {
	Create(ctx context.Context, img *models.Image) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Image, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Update(ctx context.Context, u *models.User, changed models.FieldSet) error
	ClearImage(ctx context.Context, id, imageID primitive.ObjectID) error
	AddPushToken(ctx context.Context, id primitive.ObjectID, token string) ([]string, error)
	RemovePushToken(ctx context.Context, id primitive.ObjectID, token string) ([]string, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
}

type OrderStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ListByPartner(ctx context.Context, partnerID primitive.ObjectID) ([]models.OrderSummary, error)
}

type ReviewStore interface {
	Create(ctx context.Context, r *models.Review) error
	ListByDoctor(ctx context.Context, doctorID primitive.ObjectID) ([]models.Review, error)
}

type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Payment, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) (*models.Payment, error)
}

// MediaStore holds uploaded binaries. Delete takes the handle Upload
// returned as PublicID.
type MediaStore interface {
	Upload(ctx context.Context, file io.Reader, folder string) (*services.UploadResult, error)
	Delete(ctx context.Context, publicID string) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, value any)
	Invalidate(ctx context.Context, keys ...string)
}

type Events interface {
	Publish(subject string, event services.PartnerEvent)
}

// Handler is the toolbox every route handler is a method of. Cache and
// Events may be nil.
type Handler struct {
	Partners PartnerStore
	Images   ImageStore
	Users    UserStore
	Orders   OrderStore
	Reviews  ReviewStore
	Payments PaymentStore

	Media  MediaStore
	Cache  Cache
	Events Events

	JWTSecret     string
	JWTTTL        time.Duration
	PartnerFolder string
	UserFolder    string

	Now func() time.Time
}

// NewHandler wires the Mongo-backed stores. media may be nil when no media
// store is configured; uploads then fail with a 500.
func NewHandler(db *mongo.Database, cfg *config.Config, media MediaStore, cache Cache, events Events) *Handler {
	return &Handler{
		Partners:      store.NewPartnerStore(db),
		Images:        store.NewImageStore(db),
		Users:         store.NewUserStore(db, store.HashPasswordHook),
		Orders:        store.NewOrderStore(db),
		Reviews:       store.NewReviewStore(db),
		Payments:      store.NewPaymentStore(db),
		Media:         media,
		Cache:         cache,
		Events:        events,
		JWTSecret:     cfg.JWTSecret,
		JWTTTL:        cfg.JWTTTL,
		PartnerFolder: cfg.MediaFolder,
		UserFolder:    cfg.UserMediaFolder,
		Now:           time.Now,
	}
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// RegisterRoutes mounts every route on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	auth := middleware.AuthMiddleware(h.JWTSecret)
	admin := middleware.RequireRole(string(models.RoleAdmin))

	r.GET("/health", h.Health)

	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", h.RegisterUser)
		authRoutes.POST("/login", h.Login)
	}

	api := r.Group("/api")

	partners := api.Group("/partners")
	{
		partners.GET("/active", h.GetActivePartners)
		partners.GET("/:partnerId", h.GetPartner)

		admins := partners.Group("", auth, admin)
		admins.POST("", h.CreatePartner)
		admins.GET("", h.GetPartners)
		admins.GET("/stats", h.GetPartnerStats)
		admins.PUT("/:partnerId", h.UpdatePartner)
		admins.DELETE("/:partnerId", h.DeletePartner)
		admins.PATCH("/:partnerId/toggle-status", h.TogglePartnerStatus)
		admins.GET("/:partnerId/orders", h.GetPartnerOrders)
	}

	users := api.Group("/users", auth)
	{
		users.GET("/me", h.GetCurrentUser)
		users.PUT("/me", h.UpdateCurrentUser)
		users.POST("/me/push-tokens", h.AddPushToken)
		users.DELETE("/me/push-tokens", h.RemovePushToken)
	}

	doctors := api.Group("/doctors")
	{
		doctors.GET("", h.GetDoctors)
		doctors.GET("/:doctorId/reviews", h.GetDoctorReviews)
		doctors.POST("/:doctorId/reviews", auth, h.CreateReview)
	}

	payments := api.Group("/payments", auth)
	{
		payments.POST("", h.CreatePayment)
		payments.GET("/:paymentId", h.GetPayment)
		payments.PATCH("/:paymentId/status", admin, h.UpdatePaymentStatus)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, envelope{Success: true, Message: "OK"})
}
