package models

import (
	"errors"
	"regexp"
	"time"
)

// OrderTicket is one purchased line embedded in an order record.
type OrderTicket struct {
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
}

// Order is the record created exactly once per completed payment session.
// SessionID is the payment provider's session identifier and doubles as the
// idempotency key: a redelivered webhook for the same session must not create
// a second order nor decrement stock again.
type Order struct {
	ID            int           `json:"id" db:"id"`
	SessionID     string        `json:"session_id" db:"session_id"`
	Reference     string        `json:"reference" db:"reference"`
	Email         string        `json:"email" db:"email"`
	CustomerName  string        `json:"customer_name" db:"customer_name"`
	Tickets       []OrderTicket `json:"tickets" db:"tickets"`
	TotalQuantity int           `json:"total_quantity" db:"total_quantity"`
	TotalAmount   int           `json:"total_amount" db:"total_amount"` // cents
	EventName     string        `json:"event_name" db:"event_name"`
	EventDate     string        `json:"event_date" db:"event_date"`
	OfferIDs      []string      `json:"offer_ids" db:"offer_ids"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

var orderEmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Validate validates the order data
func (o *Order) Validate() error {
	if o.SessionID == "" {
		return errors.New("payment session id is required")
	}

	if o.Reference == "" {
		return errors.New("order reference is required")
	}

	if o.TotalAmount < 0 {
		return errors.New("order total cannot be negative")
	}

	if o.TotalQuantity < 0 {
		return errors.New("order quantity cannot be negative")
	}

	if o.Email != "" && !orderEmailRegex.MatchString(o.Email) {
		return errors.New("order email is invalid")
	}

	return nil
}
