package services

import (
	"context"

	"github.com/Tixario2/tixario-2/internal/models"
)

// PurchaseIntent is one provider-agnostic checkout line:
// a display name, a unit price in minor units and a quantity.
type PurchaseIntent struct {
	DisplayName string
	UnitAmount  int // minor units (cents)
	Quantity    int
	OfferID     string // carried as structured metadata alongside the display name
}

// CheckoutSessionRequest is the input to a hosted payment session.
type CheckoutSessionRequest struct {
	LineItems  []PurchaseIntent
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// CheckoutSession is the created hosted session: its id and the URL the
// buyer is redirected to.
type CheckoutSession struct {
	ID  string
	URL string
}

// WebhookEvent is a decoded provider webhook envelope.
type WebhookEvent struct {
	ID   string
	Type string
	// Session is populated for checkout completion events.
	Session *CompletedSession
}

// CompletedSession is the completed checkout session carried by a relevant
// webhook event.
type CompletedSession struct {
	ID            string
	AmountTotal   int // minor units
	CustomerID    string
	CustomerEmail string
	CustomerName  string
	Metadata      map[string]string
}

// SessionLineItem is one itemized purchase line of a completed session.
// OfferID is filled from structured metadata when the provider returned it;
// otherwise the fulfillment service falls back to parsing the bracketed
// token in the description.
type SessionLineItem struct {
	Description    string
	Quantity       int
	AmountTotal    int // minor units
	AmountSubtotal int // minor units
	OfferID        string
}

// PaymentProvider is the outbound payment boundary: session creation for
// checkout, line-item retrieval and signature verification for fulfillment.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSession, error)
	ListLineItems(ctx context.Context, sessionID string) ([]SessionLineItem, error)
	CustomerEmail(ctx context.Context, customerID string) (string, error)
	VerifyWebhookSignature(payload []byte, signatureHeader string) error
	ParseEvent(payload []byte) (*WebhookEvent, error)
}

// EmailService sends transactional mail. Confirmation failures are logged
// and never retried; the order and the stock decrement always win.
type EmailService interface {
	SendOrderConfirmation(order *models.Order) error
}

// StorageService is the asset boundary for map overlays, raster backgrounds
// and artist images.
type StorageService interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Fetch(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// OfferStore is the inventory write boundary the fulfillment webhook needs.
type OfferStore interface {
	GetByID(id string) (*models.Offer, error)
	DecrementQuantity(id string, qty int) (int, error)
}

// OrderStore records completed orders, keyed by the payment session id.
type OrderStore interface {
	CreateIfAbsent(order *models.Order) (bool, error)
}

// NewsletterStore records marketing contacts.
type NewsletterStore interface {
	Subscribe(email, source string) error
}

// SnapshotInvalidator drops cached zone snapshots after a stock change.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context, slug, date string)
}
