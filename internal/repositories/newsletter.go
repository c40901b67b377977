package repositories

import (
	"database/sql"
	"fmt"
	"time"
)

// NewsletterRepository handles marketing contact records
type NewsletterRepository struct {
	db *sql.DB
}

// NewNewsletterRepository creates a new newsletter repository
func NewNewsletterRepository(db *sql.DB) *NewsletterRepository {
	return &NewsletterRepository{db: db}
}

// Subscribe records an email address with the channel it came from
// (e.g. "checkout" for a completed purchase).
func (r *NewsletterRepository) Subscribe(email, source string) error {
	if email == "" {
		return fmt.Errorf("newsletter email is required")
	}

	query := `
		INSERT INTO newsletters (email, source, subscribed_at)
		VALUES ($1, $2, $3)`

	if _, err := r.db.Exec(query, email, source, time.Now()); err != nil {
		return fmt.Errorf("failed to record newsletter subscription: %w", err)
	}

	return nil
}
