package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medlink-api/internal/errs"
	"github.com/harentsoaR/medlink-api/internal/models"
)

type paymentRequest struct {
	OrderID       string  `json:"orderId"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
	Reference     string  `json:"reference"`
}

// CreatePayment records a pending payment for one of the caller's orders.
// Orders placed by someone else look missing, except to admins. No gateway
// is contacted.
func (h *Handler) CreatePayment(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		fail(c, err)
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.Validation("Invalid request body"))
		return
	}
	orderID, err := primitive.ObjectIDFromHex(req.OrderID)
	if err != nil {
		fail(c, errs.Validation("Invalid order ID format"))
		return
	}

	now := h.now()
	payment := &models.Payment{
		Order:         orderID,
		User:          actor.ID,
		Amount:        req.Amount,
		PaymentMethod: models.PaymentMethod(strings.TrimSpace(req.PaymentMethod)),
		Status:        models.PaymentPending,
		Reference:     strings.TrimSpace(req.Reference),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := payment.Validate(); err != nil {
		fail(c, err)
		return
	}

	ctx := c.Request.Context()
	order, err := h.Orders.FindByID(ctx, orderID)
	if err != nil {
		fail(c, err)
		return
	}
	if !actor.IsAdmin() && (order.User == nil || *order.User != actor.ID) {
		fail(c, errs.NotFound("Order"))
		return
	}
	if err := h.Payments.Create(ctx, payment); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Payment recorded successfully", payment)
}

// GetPayment shows a payment to its owner or an admin. Anyone else is
// told it does not exist.
func (h *Handler) GetPayment(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		fail(c, err)
		return
	}
	id, err := pathID(c, "paymentId", "payment")
	if err != nil {
		fail(c, err)
		return
	}

	payment, err := h.Payments.FindByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if payment.User != actor.ID && !actor.IsAdmin() {
		fail(c, errs.NotFound("Payment"))
		return
	}
	respond(c, http.StatusOK, "", payment)
}

func (h *Handler) UpdatePaymentStatus(c *gin.Context) {
	id, err := pathID(c, "paymentId", "payment")
	if err != nil {
		fail(c, err)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.Validation("Invalid request body"))
		return
	}
	if !models.ValidPaymentStatus(req.Status) {
		fail(c, errs.Validation("status must be one of [pending success failed]"))
		return
	}

	payment, err := h.Payments.UpdateStatus(c.Request.Context(), id, models.PaymentStatus(req.Status))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Payment status updated", payment)
}
