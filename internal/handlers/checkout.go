package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/Tixario2/tixario-2/internal/cart"
	"github.com/Tixario2/tixario-2/internal/models"
	"github.com/Tixario2/tixario-2/internal/services"
	"github.com/Tixario2/tixario-2/pkg/logger"
)

// CheckoutStarter creates hosted payment sessions.
type CheckoutStarter interface {
	CheckoutCart(ctx context.Context, lines []models.CartLine) (*services.CheckoutSession, error)
	BuyNow(ctx context.Context, offerID string, quantity int) (*services.CheckoutSession, error)
}

// CheckoutHandler hands the cart off to the payment provider and returns the
// redirect URL. The cart survives until the webhook confirms payment.
type CheckoutHandler struct {
	checkout CheckoutStarter
	store    sessions.Store
	log      *logger.Logger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkout CheckoutStarter, store sessions.Store, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		store:    store,
		log:      log,
	}
}

type checkoutRequest struct {
	// A direct purchase bypasses the cart when both fields are set.
	OfferID  string `json:"offer_id,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
}

// StartCheckout handles POST /api/checkout
func (h *CheckoutHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	// an absent body means "check out the cart"
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var session *services.CheckoutSession
	var err error

	if req.OfferID != "" {
		session, err = h.checkout.BuyNow(r.Context(), req.OfferID, req.Quantity)
	} else {
		ledger, lerr := cart.NewLedger(cart.NewSessionStore(h.store, r, w))
		if lerr != nil {
			h.log.Error("failed to load cart", "error", lerr)
			respondError(w, http.StatusInternalServerError, "failed to load cart")
			return
		}
		session, err = h.checkout.CheckoutCart(r.Context(), ledger.Lines())
	}

	if err != nil {
		h.respondCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"session_id": session.ID,
		"url":        session.URL,
	})
}

func (h *CheckoutHandler) respondCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "cart is empty")
	case errors.Is(err, models.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "quantity must be at least 1")
	case errors.Is(err, models.ErrOfferNotFound):
		respondError(w, http.StatusNotFound, "offer not found")
	case errors.Is(err, models.ErrOfferUnavailable), errors.Is(err, models.ErrStockExceeded):
		respondError(w, http.StatusConflict, "the requested tickets are no longer available")
	default:
		h.log.Error("checkout failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to start checkout")
	}
}
