// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
)

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct {
	orderService *order.Service
	logger       *logrus.Logger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(orderService *order.Service, logger *logrus.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// Checkout handles POST /checkout
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req order.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}
	req.IdempotencyKey = c.GetHeader(idempotencyKeyHeader)

	receipt, replayed, err := h.orderService.Checkout(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if replayed {
		c.Header(replayedHeader, "true")
	} else {
		h.logger.WithFields(logrus.Fields{
			"order_id":   receipt.OrderID,
			"session_id": req.SessionID,
			"total":      receipt.Total.String(),
			"items":      len(receipt.Items),
		}).Info("order placed")
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"receipt": receipt,
	})
}
