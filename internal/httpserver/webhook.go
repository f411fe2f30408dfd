package httpserver

import (
	"errors"
	"io"
	"net/http"

	"bookstore/internal/service/checkout"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 64 << 10

type webhookResponse struct {
	Received  bool   `json:"received"`
	OrderID   string `json:"orderId,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// stripeWebhook hands the raw body to the checkout orchestrator; the signature
// covers the exact bytes, so the body must not be re-encoded.
func (h *handlers) stripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
			return
		}
		badRequest(c, "could not read body")
		return
	}

	res, err := h.deps.Checkout.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		kind := checkout.KindOf(err)
		switch kind {
		case checkout.KindAuthentication, checkout.KindValidation:
			h.logger.Warn("webhook rejected", zap.String("kind", string(kind)), zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("webhook failed", zap.String("kind", string(kind)), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook processing failed"})
		}
		return
	}

	c.JSON(http.StatusOK, webhookResponse{Received: true, OrderID: res.OrderReference, Duplicate: res.Duplicate})
}
