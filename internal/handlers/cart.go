package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/Tixario2/tixario-2/internal/cart"
	"github.com/Tixario2/tixario-2/internal/models"
	"github.com/Tixario2/tixario-2/pkg/logger"
)

// OfferGetter loads single offers for cart validation.
type OfferGetter interface {
	GetByID(id string) (*models.Offer, error)
}

// CartHandler exposes the session-backed cart. Every mutation re-reads the
// offer so the quantity rules run against live stock, not what the page
// showed when it was built.
type CartHandler struct {
	offers OfferGetter
	store  sessions.Store
	log    *logger.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(offers OfferGetter, store sessions.Store, log *logger.Logger) *CartHandler {
	return &CartHandler{
		offers: offers,
		store:  store,
		log:    log,
	}
}

type cartResponse struct {
	Lines         []models.CartLine `json:"lines"`
	TotalQuantity int               `json:"total_quantity"`
	TotalPrice    float64           `json:"total_price"`
}

func cartState(ledger *cart.Ledger) cartResponse {
	return cartResponse{
		Lines:         ledger.Lines(),
		TotalQuantity: ledger.TotalQuantity(),
		TotalPrice:    ledger.TotalPrice(),
	}
}

func (h *CartHandler) ledger(w http.ResponseWriter, r *http.Request) (*cart.Ledger, error) {
	return cart.NewLedger(cart.NewSessionStore(h.store, r, w))
}

// GetCart handles GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ledger, err := h.ledger(w, r)
	if err != nil {
		h.log.Error("failed to load cart", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}

	respondJSON(w, http.StatusOK, cartState(ledger))
}

type addItemRequest struct {
	OfferID  string `json:"offer_id"`
	Quantity int    `json:"quantity"`
}

// AddItem handles POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OfferID == "" {
		respondError(w, http.StatusBadRequest, "offer_id is required")
		return
	}

	offer, err := h.offers.GetByID(req.OfferID)
	if err != nil {
		if errors.Is(err, models.ErrOfferNotFound) {
			respondError(w, http.StatusNotFound, "offer not found")
			return
		}
		h.log.Error("failed to load offer", "offer_id", req.OfferID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load offer")
		return
	}

	ledger, err := h.ledger(w, r)
	if err != nil {
		h.log.Error("failed to load cart", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}

	added, err := ledger.AddLine(offer, req.Quantity)
	if err != nil {
		h.respondCartError(w, err)
		return
	}

	resp := struct {
		cartResponse
		Added int `json:"added"`
	}{cartState(ledger), added}
	respondJSON(w, http.StatusOK, resp)
}

// RemoveItem handles DELETE /api/cart/items/{offerID}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	offerID := chi.URLParam(r, "offerID")

	ledger, err := h.ledger(w, r)
	if err != nil {
		h.log.Error("failed to load cart", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}

	if err := ledger.RemoveLine(offerID); err != nil {
		h.log.Error("failed to remove cart line", "offer_id", offerID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}

	respondJSON(w, http.StatusOK, cartState(ledger))
}

// ClearCart handles DELETE /api/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ledger, err := h.ledger(w, r)
	if err != nil {
		h.log.Error("failed to load cart", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}

	if err := ledger.Clear(); err != nil {
		h.log.Error("failed to clear cart", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}

	respondJSON(w, http.StatusOK, cartState(ledger))
}

// respondCartError maps quantity-rule violations to stable error codes the
// storefront can show a reason for.
func (h *CartHandler) respondCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "quantity must be at least 1",
			"code":  "invalid_quantity",
		})
	case errors.Is(err, models.ErrStockExceeded):
		respondJSON(w, http.StatusConflict, map[string]string{
			"error": "not enough tickets left for this offer",
			"code":  "stock_exceeded",
		})
	case errors.Is(err, models.ErrStrandedSeat):
		respondJSON(w, http.StatusConflict, map[string]string{
			"error": "this quantity would leave a single unsellable seat",
			"code":  "stranded_seat",
		})
	default:
		h.log.Error("cart update failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update cart")
	}
}
