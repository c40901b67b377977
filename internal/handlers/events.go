package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Tixario2/tixario-2/internal/cart"
	"github.com/Tixario2/tixario-2/internal/models"
	"github.com/Tixario2/tixario-2/internal/seatmap"
	"github.com/Tixario2/tixario-2/internal/snapshot"
	"github.com/Tixario2/tixario-2/pkg/logger"
)

// OfferCatalog is the inventory read surface the event pages need.
type OfferCatalog interface {
	ListEvents() ([]*models.EventSummary, error)
	ListByEventDate(slug, date string) ([]*models.Offer, error)
}

// SnapshotSource serves per-zone stock totals.
type SnapshotSource interface {
	ForEventDate(ctx context.Context, slug, date string) (snapshot.Snapshot, error)
}

// AssetResolver turns stored asset keys into public URLs.
type AssetResolver interface {
	PublicURL(key string) string
}

// EventHandler serves the event listing and the per-date sales page: offers,
// the zone stock snapshot and the colored seating map.
type EventHandler struct {
	offers      OfferCatalog
	snapshots   SnapshotSource
	assets      AssetResolver
	fetcher     seatmap.AssetFetcher
	cropOffsetY float64
	log         *logger.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(offers OfferCatalog, snapshots SnapshotSource, assets AssetResolver, fetcher seatmap.AssetFetcher, cropOffsetY float64, log *logger.Logger) *EventHandler {
	return &EventHandler{
		offers:      offers,
		snapshots:   snapshots,
		assets:      assets,
		fetcher:     fetcher,
		cropOffsetY: cropOffsetY,
		log:         log,
	}
}

// ListEvents handles GET /api/events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.offers.ListEvents()
	if err != nil {
		h.log.Error("failed to list events", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load events")
		return
	}

	for _, event := range events {
		if event.ArtistLogo != "" && h.assets != nil {
			event.ArtistLogo = h.assets.PublicURL(event.ArtistLogo)
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{"events": events})
}

// offerView is an offer as the sales page sees it, with resolved asset URLs
// and the quantities a buyer may select without stranding a single seat.
type offerView struct {
	*models.Offer
	ValidQuantities []int `json:"valid_quantities"`
}

type eventDateResponse struct {
	EventName    string            `json:"event_name"`
	Slug         string            `json:"slug"`
	EventDate    string            `json:"event_date"`
	City         string            `json:"city"`
	Country      string            `json:"country"`
	ArtistLogo   string            `json:"artist_logo"`
	Offers       []offerView       `json:"offers"`
	StockPerZone snapshot.Snapshot `json:"stock_per_zone"`
	MapPNG       string            `json:"map_png"`
	MapSVG       string            `json:"map_svg"`
}

// GetEventDate handles GET /api/events/{slug}/{date}
func (h *EventHandler) GetEventDate(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	date := chi.URLParam(r, "date")

	if _, err := time.Parse("2006-01-02", date); err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	offers, err := h.offers.ListByEventDate(slug, date)
	if err != nil {
		h.log.Error("failed to list offers", "slug", slug, "date", date, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load offers")
		return
	}
	if len(offers) == 0 {
		respondError(w, http.StatusNotFound, "no offers for this event date")
		return
	}

	snap, err := h.snapshots.ForEventDate(r.Context(), slug, date)
	if err != nil {
		h.log.Error("failed to build snapshot", "slug", slug, "date", date, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load stock")
		return
	}

	first := offers[0]
	resp := eventDateResponse{
		EventName:    first.EventName,
		Slug:         slug,
		EventDate:    date,
		City:         first.City,
		Country:      first.Country,
		StockPerZone: snap,
	}

	if h.assets != nil {
		if first.ArtistLogo != "" {
			resp.ArtistLogo = h.assets.PublicURL(first.ArtistLogo)
		}
		if first.MapPNG != "" {
			resp.MapPNG = h.assets.PublicURL(first.MapPNG)
		}
	}

	for _, offer := range offers {
		resp.Offers = append(resp.Offers, offerView{
			Offer:           offer,
			ValidQuantities: cart.ValidQuantities(offer, 0),
		})
	}

	// A missing or unreadable overlay still renders, just with no
	// clickable zones.
	overlay := seatmap.LoadOverlay(r.Context(), h.fetcher, first.MapSVG)
	overlay.CropTop(h.cropOffsetY)
	renderer := seatmap.NewRenderer(overlay, snap)
	resp.MapSVG = string(renderer.Render())

	respondJSON(w, http.StatusOK, resp)
}
