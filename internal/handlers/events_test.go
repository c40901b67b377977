package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tixario2/tixario-2/internal/models"
	"github.com/Tixario2/tixario-2/internal/snapshot"
	"github.com/Tixario2/tixario-2/pkg/logger"
)

const overlayFixture = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800 600">
  <rect id="zone-a" x="100" y="100" width="200" height="150"/>
  <rect id="zone-b" x="400" y="100" width="200" height="150"/>
</svg>`

type fakeCatalog struct {
	events []*models.EventSummary
	offers []*models.Offer
	err    error
}

func (f *fakeCatalog) ListEvents() ([]*models.EventSummary, error) {
	return f.events, f.err
}

func (f *fakeCatalog) ListByEventDate(slug, date string) ([]*models.Offer, error) {
	return f.offers, f.err
}

type fakeSnapshots struct {
	snap snapshot.Snapshot
	err  error
}

func (f *fakeSnapshots) ForEventDate(ctx context.Context, slug, date string) (snapshot.Snapshot, error) {
	return f.snap, f.err
}

type fakeAssets struct{}

func (fakeAssets) PublicURL(key string) string { return "https://cdn.test/" + key }

type fakeFetcher struct {
	data map[string][]byte
}

func (f *fakeFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	data, ok := f.data[ref]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func catalogOffer(id, category, zone string, qty int) *models.Offer {
	return &models.Offer{
		ID:         id,
		Slug:       "indochine",
		EventName:  "Indochine",
		Category:   category,
		Price:      85,
		Quantity:   qty,
		Available:  true,
		EventDate:  "2026-06-27",
		City:       "Paris",
		Country:    "France",
		ZoneID:     zone,
		MapPNG:     "maps/indochine.png",
		MapSVG:     "maps/indochine.svg",
		ArtistLogo: "logos/indochine.png",
	}
}

func newEventRouter(h *EventHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/api/events", h.ListEvents)
	r.Get("/api/events/{slug}/{date}", h.GetEventDate)
	return r
}

func TestEventHandler_ListEvents(t *testing.T) {
	catalog := &fakeCatalog{
		events: []*models.EventSummary{
			{Name: "Indochine", Slug: "indochine", ArtistLogo: "logos/indochine.png", Dates: []string{"2026-06-27"}},
		},
	}
	h := NewEventHandler(catalog, &fakeSnapshots{}, fakeAssets{}, &fakeFetcher{}, 11, logger.New("test"))

	rec := httptest.NewRecorder()
	newEventRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Events []models.EventSummary `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "https://cdn.test/logos/indochine.png", resp.Events[0].ArtistLogo)
}

func TestEventHandler_GetEventDate(t *testing.T) {
	catalog := &fakeCatalog{
		offers: []*models.Offer{
			catalogOffer("abc", "Carré Or", "zone-a", 5),
			catalogOffer("def", "Fosse", "zone-b", 0),
		},
	}
	snapshots := &fakeSnapshots{snap: snapshot.Snapshot{"zone-a": 5, "zone-b": 0}}
	fetcher := &fakeFetcher{data: map[string][]byte{"maps/indochine.svg": []byte(overlayFixture)}}
	h := NewEventHandler(catalog, snapshots, fakeAssets{}, fetcher, 11, logger.New("test"))

	rec := httptest.NewRecorder()
	newEventRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/indochine/2026-06-27", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp eventDateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "Indochine", resp.EventName)
	assert.Equal(t, "Paris", resp.City)
	assert.Equal(t, snapshot.Snapshot{"zone-a": 5, "zone-b": 0}, resp.StockPerZone)
	assert.Equal(t, "https://cdn.test/maps/indochine.png", resp.MapPNG)

	require.Len(t, resp.Offers, 2)
	assert.Equal(t, []int{1, 2, 3, 5}, resp.Offers[0].ValidQuantities)

	// stocked zone is clickable and colored, empty zone stays inert
	assert.Contains(t, resp.MapSVG, `viewBox="0 11 800 589"`)
	assert.Contains(t, resp.MapSVG, "pointer-events:auto")
	assert.Contains(t, resp.MapSVG, "rgba(158,229,181,0.6)")
}

func TestEventHandler_GetEventDate_MissingOverlayStillServes(t *testing.T) {
	catalog := &fakeCatalog{offers: []*models.Offer{catalogOffer("abc", "Carré Or", "zone-a", 5)}}
	snapshots := &fakeSnapshots{snap: snapshot.Snapshot{"zone-a": 5}}
	h := NewEventHandler(catalog, snapshots, fakeAssets{}, &fakeFetcher{}, 11, logger.New("test"))

	rec := httptest.NewRecorder()
	newEventRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/indochine/2026-06-27", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp eventDateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotContains(t, resp.MapSVG, "pointer-events:auto")
}

func TestEventHandler_GetEventDate_BadDate(t *testing.T) {
	h := NewEventHandler(&fakeCatalog{}, &fakeSnapshots{}, fakeAssets{}, &fakeFetcher{}, 11, logger.New("test"))

	rec := httptest.NewRecorder()
	newEventRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/indochine/june-27", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventHandler_GetEventDate_NotFound(t *testing.T) {
	h := NewEventHandler(&fakeCatalog{}, &fakeSnapshots{}, fakeAssets{}, &fakeFetcher{}, 11, logger.New("test"))

	rec := httptest.NewRecorder()
	newEventRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/ghost/2026-06-27", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventHandler_GetEventDate_ListError(t *testing.T) {
	h := NewEventHandler(&fakeCatalog{err: errors.New("db gone")}, &fakeSnapshots{}, fakeAssets{}, &fakeFetcher{}, 11, logger.New("test"))

	rec := httptest.NewRecorder()
	newEventRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/indochine/2026-06-27", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "error"))
}
