package models

import (
	"errors"
	"time"
)

// Offer is one sellable ticket line: event + date + category + zone, with its
// own price and remaining quantity. Quantity is authoritative only at the
// moment it was read; the browser treats it as advisory and the fulfillment
// webhook re-checks the live row before decrementing.
type Offer struct {
	ID         string    `json:"id" db:"id"`
	Slug       string    `json:"slug" db:"slug"`
	EventName  string    `json:"event_name" db:"event_name"`
	Category   string    `json:"category" db:"category"`
	Price      float64   `json:"price" db:"price"` // unit price in euros
	Quantity   int       `json:"quantity" db:"quantity"`
	Available  bool      `json:"available" db:"available"`
	EventDate  string    `json:"event_date" db:"event_date"` // YYYY-MM-DD
	City       string    `json:"city" db:"city"`
	Country    string    `json:"country" db:"country"`
	ZoneID     string    `json:"zone_id" db:"zone_id"`
	MapPNG     string    `json:"map_png" db:"map_png"`
	MapSVG     string    `json:"map_svg" db:"map_svg"`
	ArtistLogo string    `json:"artist_logo" db:"artist_logo"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// PriceMinorUnits returns the unit price in cents, rounded the same way the
// checkout session builds its line items.
func (o *Offer) PriceMinorUnits() int {
	return int(o.Price*100 + 0.5)
}

// Validate validates the offer data
func (o *Offer) Validate() error {
	if o.ID == "" {
		return errors.New("offer id is required")
	}

	if o.Slug == "" {
		return errors.New("offer slug is required")
	}

	if o.EventName == "" {
		return errors.New("event name is required")
	}

	if o.Category == "" {
		return errors.New("offer category is required")
	}

	if o.Price < 0 {
		return errors.New("offer price cannot be negative")
	}

	if o.Quantity < 0 {
		return errors.New("offer quantity cannot be negative")
	}

	if o.EventDate == "" {
		return errors.New("event date is required")
	}

	if _, err := time.Parse("2006-01-02", o.EventDate); err != nil {
		return errors.New("event date must be YYYY-MM-DD")
	}

	return nil
}

// InStock reports whether the offer can still be sold at all.
func (o *Offer) InStock() bool {
	return o.Available && o.Quantity > 0
}

// EventSummary is one entry of the distinct-events listing that backs the
// storefront search dropdown.
type EventSummary struct {
	Name       string   `json:"name"`
	Slug       string   `json:"slug"`
	ArtistLogo string   `json:"artist_logo"`
	Dates      []string `json:"dates"`
}
