package services

import (
	"context"
	"fmt"

	"github.com/Tixario2/tixario-2/internal/models"
	"github.com/Tixario2/tixario-2/pkg/logger"
)

// CheckoutService bridges the cart to the hosted payment page. It re-reads
// every offer before creating the session so stale carts fail here instead
// of at fulfillment.
type CheckoutService struct {
	offers     OfferStore
	payments   PaymentProvider
	successURL string
	cancelURL  string
	log        *logger.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(offers OfferStore, payments PaymentProvider, successURL, cancelURL string, log *logger.Logger) *CheckoutService {
	return &CheckoutService{
		offers:     offers,
		payments:   payments,
		successURL: successURL,
		cancelURL:  cancelURL,
		log:        log,
	}
}

// LineDisplayName builds the human-readable name of a purchase line. The
// bracketed token keeps the offer recoverable from the description alone,
// for providers or events where structured metadata is unavailable.
func LineDisplayName(offer *models.Offer) string {
	return fmt.Sprintf("%s – %s [ID:%s]", offer.EventName, offer.Category, offer.ID)
}

// CheckoutCart creates a hosted payment session for the cart contents and
// returns the redirect URL.
func (s *CheckoutService) CheckoutCart(ctx context.Context, lines []models.CartLine) (*CheckoutSession, error) {
	if len(lines) == 0 {
		return nil, models.ErrEmptyCart
	}

	req := &CheckoutSessionRequest{
		SuccessURL: s.successURL,
		CancelURL:  s.cancelURL,
		Metadata:   map[string]string{},
	}

	for _, line := range lines {
		offer, err := s.offers.GetByID(line.OfferID)
		if err != nil {
			return nil, fmt.Errorf("failed to load offer %s: %w", line.OfferID, err)
		}

		if !offer.InStock() {
			return nil, fmt.Errorf("offer %s: %w", offer.ID, models.ErrOfferUnavailable)
		}
		if line.Quantity > offer.Quantity {
			return nil, fmt.Errorf("offer %s: %w", offer.ID, models.ErrStockExceeded)
		}

		req.LineItems = append(req.LineItems, PurchaseIntent{
			DisplayName: LineDisplayName(offer),
			UnitAmount:  offer.PriceMinorUnits(),
			Quantity:    line.Quantity,
			OfferID:     offer.ID,
		})

		// The session carries the event context so fulfillment can
		// invalidate the right snapshot without guessing.
		req.Metadata["slug"] = offer.Slug
		req.Metadata["event_date"] = offer.EventDate
		req.Metadata["event_name"] = offer.EventName
	}

	session, err := s.payments.CreateCheckoutSession(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	s.log.Info("checkout session created",
		"session_id", session.ID,
		"lines", len(req.LineItems))

	return session, nil
}

// BuyNow creates a single-offer session without touching the cart.
func (s *CheckoutService) BuyNow(ctx context.Context, offerID string, quantity int) (*CheckoutSession, error) {
	if quantity <= 0 {
		return nil, models.ErrInvalidInput
	}

	offer, err := s.offers.GetByID(offerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load offer %s: %w", offerID, err)
	}

	return s.CheckoutCart(ctx, []models.CartLine{models.LineFromOffer(offer, quantity)})
}
