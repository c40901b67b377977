package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Tixario2/tixario-2/internal/models"
)

// OfferRepository handles ticket offer data operations
type OfferRepository struct {
	db *sql.DB
}

// NewOfferRepository creates a new offer repository
func NewOfferRepository(db *sql.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

const offerColumns = `id, slug, event_name, category, price, quantity, available, to_char(event_date, 'YYYY-MM-DD'), city, country, zone_id, map_png, map_svg, artist_logo, created_at, updated_at`

func scanOffer(row interface{ Scan(dest ...any) error }) (*models.Offer, error) {
	offer := &models.Offer{}
	err := row.Scan(
		&offer.ID,
		&offer.Slug,
		&offer.EventName,
		&offer.Category,
		&offer.Price,
		&offer.Quantity,
		&offer.Available,
		&offer.EventDate,
		&offer.City,
		&offer.Country,
		&offer.ZoneID,
		&offer.MapPNG,
		&offer.MapSVG,
		&offer.ArtistLogo,
		&offer.CreatedAt,
		&offer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return offer, nil
}

// Create inserts a new offer
func (r *OfferRepository) Create(offer *models.Offer) error {
	if err := offer.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO offers (id, slug, event_name, category, price, quantity, available, event_date, city, country, zone_id, map_png, map_svg, artist_logo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	now := time.Now()
	_, err := r.db.Exec(
		query,
		offer.ID,
		offer.Slug,
		offer.EventName,
		offer.Category,
		offer.Price,
		offer.Quantity,
		offer.Available,
		offer.EventDate,
		offer.City,
		offer.Country,
		offer.ZoneID,
		offer.MapPNG,
		offer.MapSVG,
		offer.ArtistLogo,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}

	return nil
}

// GetByID retrieves an offer by ID
func (r *OfferRepository) GetByID(id string) (*models.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`

	offer, err := scanOffer(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}

	return offer, nil
}

// ListByEventDate retrieves all sellable offers for one event and date,
// cheapest category first.
func (r *OfferRepository) ListByEventDate(slug, date string) ([]*models.Offer, error) {
	query := `
		SELECT ` + offerColumns + `
		FROM offers
		WHERE slug = $1 AND event_date = $2 AND available = TRUE
		ORDER BY price ASC, category ASC`

	rows, err := r.db.Query(query, slug, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()

	var offers []*models.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, offer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate offers: %w", err)
	}

	return offers, nil
}

// ListEvents returns the distinct events that still have sellable offers,
// with their dates, for the storefront search dropdown.
func (r *OfferRepository) ListEvents() ([]*models.EventSummary, error) {
	query := `
		SELECT event_name, slug, artist_logo, to_char(event_date, 'YYYY-MM-DD')
		FROM offers
		WHERE available = TRUE
		ORDER BY event_name ASC, event_date ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	byName := make(map[string]*models.EventSummary)
	var ordered []*models.EventSummary
	for rows.Next() {
		var name, slug, logo, date string
		if err := rows.Scan(&name, &slug, &logo, &date); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}

		ev, ok := byName[name]
		if !ok {
			ev = &models.EventSummary{Name: name, Slug: slug, ArtistLogo: logo}
			byName[name] = ev
			ordered = append(ordered, ev)
		}
		if len(ev.Dates) == 0 || ev.Dates[len(ev.Dates)-1] != date {
			ev.Dates = append(ev.Dates, date)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event rows: %w", err)
	}

	return ordered, nil
}

// DecrementQuantity atomically subtracts qty from the offer's stock, floored
// at zero, and clears the availability flag when the offer sells out. The
// single UPDATE replaces a read-then-write so concurrent purchases of the
// same offer cannot interleave. Returns the remaining quantity.
func (r *OfferRepository) DecrementQuantity(id string, qty int) (int, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("decrement quantity must be positive, got %d", qty)
	}

	query := `
		UPDATE offers
		SET quantity = GREATEST(quantity - $2, 0),
		    available = (quantity - $2 > 0),
		    updated_at = $3
		WHERE id = $1
		RETURNING quantity`

	var remaining int
	err := r.db.QueryRow(query, id, qty, time.Now()).Scan(&remaining)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, models.ErrOfferNotFound
		}
		return 0, fmt.Errorf("failed to decrement offer %s: %w", id, err)
	}

	return remaining, nil
}
