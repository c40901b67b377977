package models

import "errors"

// Common errors used throughout the application.
//
// Validation errors (stock, stranded seat, unknown offer) are recoverable:
// they surface as a user-facing message and never mutate state. Integration
// errors (payment session, webhook signature) reject the whole operation.
var (
	ErrOfferNotFound    = errors.New("offer not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrOfferUnavailable = errors.New("offer is no longer available")
	ErrStockExceeded    = errors.New("requested quantity exceeds remaining stock")
	ErrStrandedSeat     = errors.New("addition would leave exactly one seat unsold")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrInvalidInput     = errors.New("invalid input")
)
