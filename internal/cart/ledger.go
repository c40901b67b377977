// Package cart implements the stock-aware cart ledger. The ledger is
// advisory: it validates against the stock known when the page was built,
// while final truth is re-validated by the fulfillment webhook.
package cart

import (
	"fmt"

	"github.com/Tixario2/tixario-2/internal/models"
)

// Store is the ledger's pluggable persistence side effect. Absence of stored
// lines means an empty cart.
type Store interface {
	Load() ([]models.CartLine, error)
	Save(lines []models.CartLine) error
	Clear() error
}

// Ledger holds the selected ticket lines and enforces the quantity-safety
// rules on every addition. Every mutation re-serializes the full line list
// to the store.
type Ledger struct {
	store Store
	lines []models.CartLine
}

// NewLedger creates a ledger rehydrated from the store.
func NewLedger(store Store) (*Ledger, error) {
	lines, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return &Ledger{store: store, lines: lines}, nil
}

// AddLine adds requested units of the offer, capped to the remaining stock.
// The accepted line replaces any existing line for the same offer; quantities
// are never incremented in place past the stock ceiling.
//
// Two rejections are possible, each with its own reason: ErrStockExceeded
// when nothing can be added at all, and ErrStrandedSeat when the addition
// would leave exactly one unit of the offer unsold. Rejections never mutate
// the ledger.
//
// Returns the quantity actually added.
func (l *Ledger) AddLine(offer *models.Offer, requested int) (int, error) {
	if offer == nil || requested <= 0 {
		return 0, models.ErrInvalidInput
	}

	alreadyHeld := l.Quantity(offer.ID)
	maxAddable := offer.Quantity - alreadyHeld

	toAdd := requested
	if toAdd > maxAddable {
		toAdd = maxAddable
	}
	if toAdd <= 0 {
		return 0, models.ErrStockExceeded
	}

	if offer.Quantity-(alreadyHeld+toAdd) == 1 {
		return 0, models.ErrStrandedSeat
	}

	replaced := make([]models.CartLine, 0, len(l.lines)+1)
	for _, line := range l.lines {
		if line.OfferID != offer.ID {
			replaced = append(replaced, line)
		}
	}
	replaced = append(replaced, models.LineFromOffer(offer, alreadyHeld+toAdd))

	if err := l.store.Save(replaced); err != nil {
		return 0, fmt.Errorf("failed to persist cart: %w", err)
	}
	l.lines = replaced

	return toAdd, nil
}

// RemoveLine deletes the line for the offer unconditionally.
func (l *Ledger) RemoveLine(offerID string) error {
	kept := make([]models.CartLine, 0, len(l.lines))
	for _, line := range l.lines {
		if line.OfferID != offerID {
			kept = append(kept, line)
		}
	}

	if err := l.store.Save(kept); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	l.lines = kept

	return nil
}

// Clear empties the ledger and its persisted copy.
func (l *Ledger) Clear() error {
	if err := l.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	l.lines = nil
	return nil
}

// Lines returns a copy of the current cart lines.
func (l *Ledger) Lines() []models.CartLine {
	return append([]models.CartLine(nil), l.lines...)
}

// Quantity returns the held quantity for the offer, 0 if none.
func (l *Ledger) Quantity(offerID string) int {
	for _, line := range l.lines {
		if line.OfferID == offerID {
			return line.Quantity
		}
	}
	return 0
}

// TotalQuantity returns the number of tickets in the cart.
func (l *Ledger) TotalQuantity() int {
	total := 0
	for _, line := range l.lines {
		total += line.Quantity
	}
	return total
}

// TotalPrice returns the cart total in euros.
func (l *Ledger) TotalPrice() float64 {
	total := 0.0
	for _, line := range l.lines {
		total += line.Subtotal()
	}
	return total
}

// IsEmpty reports whether the cart holds no lines.
func (l *Ledger) IsEmpty() bool {
	return len(l.lines) == 0
}

// ValidQuantities lists the quantities a buyer may still add for the offer:
// each candidate neither oversells nor strands a single seat. Drives the
// quantity selector on the event page.
func ValidQuantities(offer *models.Offer, alreadyHeld int) []int {
	maxAddable := offer.Quantity - alreadyHeld
	var valid []int
	for q := 1; q <= maxAddable; q++ {
		if offer.Quantity-(alreadyHeld+q) == 1 {
			continue
		}
		valid = append(valid, q)
	}
	return valid
}
