package cart

import "github.com/Tixario2/tixario-2/internal/models"

// MemoryStore is an in-process Store, used in tests and wherever no durable
// client storage is attached.
type MemoryStore struct {
	lines []models.CartLine
	saved bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored lines; nil when nothing was ever saved.
func (s *MemoryStore) Load() ([]models.CartLine, error) {
	if !s.saved {
		return nil, nil
	}
	return append([]models.CartLine(nil), s.lines...), nil
}

// Save replaces the stored lines.
func (s *MemoryStore) Save(lines []models.CartLine) error {
	s.lines = append([]models.CartLine(nil), lines...)
	s.saved = true
	return nil
}

// Clear removes the stored lines entirely.
func (s *MemoryStore) Clear() error {
	s.lines = nil
	s.saved = false
	return nil
}
