package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/Tixario2/tixario-2/internal/services"
	"github.com/Tixario2/tixario-2/pkg/logger"
)

// maxWebhookBody bounds the payload size accepted from the provider.
const maxWebhookBody = 1 << 20

// EventProcessor fulfills verified webhook events.
type EventProcessor interface {
	HandleEvent(ctx context.Context, event *services.WebhookEvent) error
}

// SignatureVerifier validates and decodes webhook payloads.
type SignatureVerifier interface {
	VerifyWebhookSignature(payload []byte, signatureHeader string) error
	ParseEvent(payload []byte) (*services.WebhookEvent, error)
}

// WebhookHandler receives payment provider webhooks. Once the signature
// checks out the response is always 200: the provider retries on any other
// status, and fulfillment is idempotent, so retrying a processing failure
// buys nothing a log line does not.
type WebhookHandler struct {
	verifier  SignatureVerifier
	processor EventProcessor
	log       *logger.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(verifier SignatureVerifier, processor EventProcessor, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier:  verifier,
		processor: processor,
		log:       log,
	}
}

// HandleStripeWebhook handles POST /api/stripe/webhook
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read payload")
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if err := h.verifier.VerifyWebhookSignature(payload, signature); err != nil {
		h.log.Warn("webhook signature rejected", "error", err)
		respondError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	event, err := h.verifier.ParseEvent(payload)
	if err != nil {
		h.log.Warn("webhook payload rejected", "error", err)
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := h.processor.HandleEvent(r.Context(), event); err != nil {
		h.log.Error("webhook processing failed",
			"event_id", event.ID,
			"type", event.Type,
			"error", err)
	}

	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
