package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Tixario2/tixario-2/internal/models"
)

// OrderRepository handles order data operations
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateIfAbsent inserts the order unless one already exists for the same
// payment session. The UNIQUE constraint on session_id is the idempotency
// guard: ON CONFLICT DO NOTHING means a redelivered webhook loses the insert
// race and reports created=false, so the caller skips every side effect.
func (r *OrderRepository) CreateIfAbsent(order *models.Order) (bool, error) {
	if err := order.Validate(); err != nil {
		return false, fmt.Errorf("validation failed: %w", err)
	}

	ticketsJSON, err := json.Marshal(order.Tickets)
	if err != nil {
		return false, fmt.Errorf("failed to encode order tickets: %w", err)
	}

	query := `
		INSERT INTO orders (session_id, reference, email, customer_name, tickets, total_quantity, total_amount, event_name, event_date, offer_ids, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, '')::date, $10, $11)
		ON CONFLICT (session_id) DO NOTHING
		RETURNING id`

	err = r.db.QueryRow(
		query,
		order.SessionID,
		order.Reference,
		order.Email,
		order.CustomerName,
		ticketsJSON,
		order.TotalQuantity,
		order.TotalAmount,
		order.EventName,
		order.EventDate,
		pq.Array(order.OfferIDs),
		time.Now(),
	).Scan(&order.ID)

	if err == sql.ErrNoRows {
		// Conflict: this session was already recorded.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create order: %w", err)
	}

	return true, nil
}

// GetBySessionID retrieves an order by its payment session identifier
func (r *OrderRepository) GetBySessionID(sessionID string) (*models.Order, error) {
	query := `
		SELECT id, session_id, reference, email, customer_name, tickets, total_quantity, total_amount, event_name, COALESCE(to_char(event_date, 'YYYY-MM-DD'), ''), offer_ids, created_at
		FROM orders
		WHERE session_id = $1`

	order := &models.Order{}
	var ticketsJSON []byte

	err := r.db.QueryRow(query, sessionID).Scan(
		&order.ID,
		&order.SessionID,
		&order.Reference,
		&order.Email,
		&order.CustomerName,
		&ticketsJSON,
		&order.TotalQuantity,
		&order.TotalAmount,
		&order.EventName,
		&order.EventDate,
		pq.Array(&order.OfferIDs),
		&order.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := json.Unmarshal(ticketsJSON, &order.Tickets); err != nil {
		return nil, fmt.Errorf("failed to decode order tickets: %w", err)
	}

	return order, nil
}

// Count returns the total number of recorded orders
func (r *OrderRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM orders").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}
