package models

// CartLine is one cart entry: a chosen quantity of an offer plus the
// denormalized display fields the receipt and cart pages need without
// another round trip.
type CartLine struct {
	OfferID    string  `json:"offer_id"`
	Quantity   int     `json:"quantity"`
	EventName  string  `json:"event_name"`
	EventDate  string  `json:"event_date"`
	Category   string  `json:"category"`
	Price      float64 `json:"price"`
	City       string  `json:"city"`
	Country    string  `json:"country"`
	ZoneID     string  `json:"zone_id"`
	ArtistLogo string  `json:"artist_logo"`
}

// Subtotal returns the line total in euros.
func (l CartLine) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}

// LineFromOffer builds a cart line holding qty units of the offer.
func LineFromOffer(offer *Offer, qty int) CartLine {
	return CartLine{
		OfferID:    offer.ID,
		Quantity:   qty,
		EventName:  offer.EventName,
		EventDate:  offer.EventDate,
		Category:   offer.Category,
		Price:      offer.Price,
		City:       offer.City,
		Country:    offer.Country,
		ZoneID:     offer.ZoneID,
		ArtistLogo: offer.ArtistLogo,
	}
}
