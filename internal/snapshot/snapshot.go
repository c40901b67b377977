// Package snapshot computes the per-zone stock totals that color the seating
// map. A snapshot is advisory by definition: it is the stock as of page
// build, not a reservation.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/Tixario2/tixario-2/internal/models"
	"github.com/Tixario2/tixario-2/pkg/logger"
)

// Snapshot maps a zone id to the total quantity still sellable in that zone.
type Snapshot map[string]int

// Compute aggregates offers into per-zone totals. Offers without a zone id
// are skipped: they sell from the list but have no clickable region.
func Compute(offers []*models.Offer) Snapshot {
	snap := Snapshot{}
	for _, offer := range offers {
		if offer.ZoneID == "" {
			continue
		}
		snap[offer.ZoneID] += offer.Quantity
	}
	return snap
}

// OfferLister is the inventory read boundary the service depends on.
type OfferLister interface {
	ListByEventDate(slug, date string) ([]*models.Offer, error)
}

// Cache is the optional read-cache boundary.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Service serves snapshots for event dates, caching them briefly. The cache
// is an optimization only: any cache failure falls back to the database.
type Service struct {
	offers OfferLister
	cache  Cache
	ttl    time.Duration
	log    *logger.Logger
}

// NewService creates a snapshot service. cache may be nil.
func NewService(offers OfferLister, cache Cache, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{offers: offers, cache: cache, ttl: ttl, log: log}
}

// ForEventDate returns the zone stock snapshot for one event and date.
func (s *Service) ForEventDate(ctx context.Context, slug, date string) (Snapshot, error) {
	key := cacheKey(slug, date)

	if s.cache != nil {
		var cached Snapshot
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.log.Warn("snapshot cache read failed", "key", key, "error", err)
		} else if hit {
			return cached, nil
		}
	}

	offers, err := s.offers.ListByEventDate(slug, date)
	if err != nil {
		return nil, fmt.Errorf("failed to compute snapshot for %s/%s: %w", slug, date, err)
	}

	snap := Compute(offers)

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, snap, s.ttl); err != nil {
			s.log.Warn("snapshot cache write failed", "key", key, "error", err)
		}
	}

	return snap, nil
}

// Invalidate drops the cached snapshot for one event and date. Called after
// a stock decrement so the next page build sees fresh totals.
func (s *Service) Invalidate(ctx context.Context, slug, date string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(slug, date)); err != nil {
		s.log.Warn("snapshot cache invalidation failed", "slug", slug, "date", date, "error", err)
	}
}

func cacheKey(slug, date string) string {
	return fmt.Sprintf("snapshot:%s:%s", slug, date)
}
