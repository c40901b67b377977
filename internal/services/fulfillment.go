package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/Tixario2/tixario-2/internal/models"
	"github.com/Tixario2/tixario-2/pkg/logger"
)

// offerTokenRegex recovers the offer id from a purchase line description
// when the provider did not return structured metadata.
var offerTokenRegex = regexp.MustCompile(`\[ID:(.+?)\]`)

// FulfillmentService turns a completed payment session into an order, a
// stock decrement and a confirmation email. The order insert is the
// idempotency gate: it happens before any stock mutation, keyed on the
// session id, so a redelivered webhook is a no-op.
type FulfillmentService struct {
	payments   PaymentProvider
	offers     OfferStore
	orders     OrderStore
	newsletter NewsletterStore
	email      EmailService
	snapshots  SnapshotInvalidator
	log        *logger.Logger
}

// NewFulfillmentService creates a new fulfillment service
func NewFulfillmentService(
	payments PaymentProvider,
	offers OfferStore,
	orders OrderStore,
	newsletter NewsletterStore,
	email EmailService,
	snapshots SnapshotInvalidator,
	log *logger.Logger,
) *FulfillmentService {
	return &FulfillmentService{
		payments:   payments,
		offers:     offers,
		orders:     orders,
		newsletter: newsletter,
		email:      email,
		snapshots:  snapshots,
		log:        log,
	}
}

// HandleEvent processes one verified webhook event. Events other than
// checkout completion are acknowledged without action.
func (s *FulfillmentService) HandleEvent(ctx context.Context, event *WebhookEvent) error {
	if event.Type != "checkout.session.completed" || event.Session == nil {
		s.log.Debug("ignoring webhook event", "event_id", event.ID, "type", event.Type)
		return nil
	}

	session := event.Session

	items, err := s.payments.ListLineItems(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("failed to list line items for session %s: %w", session.ID, err)
	}
	if len(items) == 0 {
		return fmt.Errorf("session %s has no line items", session.ID)
	}

	email := session.CustomerEmail
	if email == "" && session.CustomerID != "" {
		email, err = s.payments.CustomerEmail(ctx, session.CustomerID)
		if err != nil {
			s.log.Warn("failed to resolve customer email",
				"session_id", session.ID,
				"customer_id", session.CustomerID,
				"error", err)
			email = ""
		}
	}

	order := s.buildOrder(session, items, email)

	created, err := s.orders.CreateIfAbsent(order)
	if err != nil {
		return fmt.Errorf("failed to record order for session %s: %w", session.ID, err)
	}
	if !created {
		s.log.Info("duplicate webhook delivery, order already recorded",
			"session_id", session.ID)
		return nil
	}

	s.decrementStock(ctx, session, items)

	if s.newsletter != nil && order.Email != "" {
		if err := s.newsletter.Subscribe(order.Email, "checkout"); err != nil {
			s.log.Warn("newsletter subscription failed",
				"session_id", session.ID, "error", err)
		}
	}

	if s.email != nil && order.Email != "" {
		if err := s.email.SendOrderConfirmation(order); err != nil {
			s.log.Error("failed to send order confirmation",
				"session_id", session.ID,
				"reference", order.Reference,
				"error", err)
		}
	}

	s.log.Info("order fulfilled",
		"session_id", session.ID,
		"reference", order.Reference,
		"tickets", order.TotalQuantity,
		"amount", order.TotalAmount)

	return nil
}

// buildOrder assembles the order record from the session and its lines.
func (s *FulfillmentService) buildOrder(session *CompletedSession, items []SessionLineItem, email string) *models.Order {
	order := &models.Order{
		SessionID:    session.ID,
		Reference:    uuid.New().String(),
		Email:        email,
		CustomerName: session.CustomerName,
		TotalAmount:  session.AmountTotal,
		EventName:    session.Metadata["event_name"],
		EventDate:    session.Metadata["event_date"],
	}

	for _, item := range items {
		offerID := item.OfferID
		if offerID == "" {
			offerID = parseOfferToken(item.Description)
		}

		unitPrice := 0.0
		if item.Quantity > 0 {
			unitPrice = float64(item.AmountSubtotal) / float64(item.Quantity) / 100
		}

		order.Tickets = append(order.Tickets, models.OrderTicket{
			Description: item.Description,
			Category:    parseCategory(item.Description),
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
			LineTotal:   float64(item.AmountTotal) / 100,
		})
		order.TotalQuantity += item.Quantity
		if offerID != "" {
			order.OfferIDs = append(order.OfferIDs, offerID)
		}
	}

	return order
}

// decrementStock applies the purchased quantities to inventory. Each line is
// independent: a failed lookup or decrement is logged and the rest proceed,
// since the payment has already settled.
func (s *FulfillmentService) decrementStock(ctx context.Context, session *CompletedSession, items []SessionLineItem) {
	invalidated := map[string]bool{}

	for _, item := range items {
		offerID := item.OfferID
		if offerID == "" {
			offerID = parseOfferToken(item.Description)
		}
		if offerID == "" {
			s.log.Error("purchase line has no recoverable offer id",
				"session_id", session.ID, "description", item.Description)
			continue
		}

		offer, err := s.offers.GetByID(offerID)
		if err != nil {
			s.log.Error("failed to load offer for decrement",
				"session_id", session.ID, "offer_id", offerID, "error", err)
			continue
		}

		remaining, err := s.offers.DecrementQuantity(offerID, item.Quantity)
		if err != nil {
			s.log.Error("failed to decrement stock",
				"session_id", session.ID, "offer_id", offerID, "error", err)
			continue
		}

		s.log.Info("stock decremented",
			"offer_id", offerID,
			"quantity", item.Quantity,
			"remaining", remaining)

		if s.snapshots != nil {
			key := offer.Slug + "/" + offer.EventDate
			if !invalidated[key] {
				s.snapshots.Invalidate(ctx, offer.Slug, offer.EventDate)
				invalidated[key] = true
			}
		}
	}
}

func parseOfferToken(description string) string {
	match := offerTokenRegex.FindStringSubmatch(description)
	if len(match) < 2 {
		return ""
	}
	return strings.TrimSpace(match[1])
}

// parseCategory extracts the category segment from a display name shaped
// like "Event – Category [ID:xxx]".
func parseCategory(description string) string {
	cleaned := offerTokenRegex.ReplaceAllString(description, "")
	parts := strings.SplitN(cleaned, "–", 2)
	if len(parts) < 2 {
		return strings.TrimSpace(cleaned)
	}
	return strings.TrimSpace(parts[1])
}
