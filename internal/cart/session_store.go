package cart

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/Tixario2/tixario-2/internal/models"
)

const (
	// SessionName is the cookie the cart travels in.
	SessionName = "cart"
	// sessionKey is the single well-known key the serialized lines live
	// under; a missing key means an empty cart.
	sessionKey = "lines"
)

// SessionStore persists cart lines in the client's cookie session, scoped to
// one request/response pair. It is the server-rendered analog of the
// storefront's local storage: the cart survives across visits without any
// server-side record.
type SessionStore struct {
	store sessions.Store
	r     *http.Request
	w     http.ResponseWriter
}

// NewSessionStore creates a store bound to the given request and response.
func NewSessionStore(store sessions.Store, r *http.Request, w http.ResponseWriter) *SessionStore {
	return &SessionStore{store: store, r: r, w: w}
}

// Load reads the serialized cart lines from the session cookie.
func (s *SessionStore) Load() ([]models.CartLine, error) {
	session, err := s.store.Get(s.r, SessionName)
	if err != nil {
		// A cookie that no longer decodes is treated as an empty cart
		// rather than a hard failure.
		return nil, nil
	}

	raw, ok := session.Values[sessionKey].(string)
	if !ok || raw == "" {
		return nil, nil
	}

	var lines []models.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, nil
	}

	return lines, nil
}

// Save writes the full line list back to the session cookie.
func (s *SessionStore) Save(lines []models.CartLine) error {
	session, _ := s.store.Get(s.r, SessionName)

	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to encode cart lines: %w", err)
	}
	session.Values[sessionKey] = string(raw)

	if err := session.Save(s.r, s.w); err != nil {
		return fmt.Errorf("failed to save cart session: %w", err)
	}

	return nil
}

// Clear drops the cart key from the session cookie.
func (s *SessionStore) Clear() error {
	session, _ := s.store.Get(s.r, SessionName)
	delete(session.Values, sessionKey)

	if err := session.Save(s.r, s.w); err != nil {
		return fmt.Errorf("failed to clear cart session: %w", err)
	}

	return nil
}
