package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsync "github.com/fulfillhub/backend/internal/application/sync"
)

// SignatureHeader carries the HMAC signature on aggregator deliveries
const SignatureHeader = "X-Trackstar-Signature"

// WebhookService verifies and applies one webhook delivery
type WebhookService interface {
	Process(ctx context.Context, body []byte, signature string) (*appsync.Ack, error)
}

// WebhookHandler receives event-driven updates from the aggregator
type WebhookHandler struct {
	BaseHandler
	processor WebhookService
	logger    *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(processor WebhookService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		processor: processor,
		logger:    logger.Named("webhook_handler"),
	}
}

// RegisterRoutes registers webhook routes on the API group
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/trackstar", h.Receive)
}

// Receive verifies and processes one delivery. Everything that passes
// the signature and shape checks is acknowledged with 200, including
// duplicates, unknown event types, and unknown connections; only
// signature failures and malformed payloads are rejected.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "unable to read request body")
		return
	}

	ack, err := h.processor.Process(c.Request.Context(), body, c.GetHeader(SignatureHeader))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, ack)
}
