// Package httpapi exposes the card layout service as a JSON HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/louisbranch/tablecards/internal/layout/domain"
	"github.com/louisbranch/tablecards/internal/platform/i18n/catalog"
	"github.com/louisbranch/tablecards/internal/platform/id"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/feed"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/overlay"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/search"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/storage"
)

const maxBodyBytes = 1 << 20

// Deps are the collaborators of the API handlers.
type Deps struct {
	Store storage.Store
	// Feed receives change notifications. Nil disables publishing.
	Feed   feed.Publisher
	Search *search.Index
	// Messages localizes error responses; the embedded catalog when nil.
	Messages *catalog.Bundle
	Now      func() time.Time
	NewID    func() (string, error)
}

// Handler serves the /api routes.
type Handler struct {
	store    storage.Store
	feed     feed.Publisher
	search   *search.Index
	overlay  *overlay.Loader
	messages *catalog.Bundle
	now      func() time.Time
	newID    func() (string, error)
}

// NewHandler validates deps and returns the API handler.
func NewHandler(deps Deps) (*Handler, error) {
	if deps.Store == nil {
		return nil, errors.New("store is required")
	}
	h := &Handler{
		store:    deps.Store,
		feed:     deps.Feed,
		search:   deps.Search,
		overlay:  overlay.NewLoader(deps.Store),
		messages: deps.Messages,
		now:      deps.Now,
		newID:    deps.NewID,
	}
	if h.messages == nil {
		h.messages = catalog.Default()
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.newID == nil {
		h.newID = id.NewID
	}
	return h, nil
}

// Routes returns the API router, to be mounted under /api.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/presets", h.listPresets)
	r.Get("/overlay/{slug}", h.getOverlay)
	r.Get("/search/{slug}", h.searchCharacters)

	r.Route("/campaigns", func(r chi.Router) {
		r.Get("/", h.listCampaigns)
		r.Post("/", h.createCampaign)
		r.Route("/{campaignID}", func(r chi.Router) {
			r.Get("/", h.getCampaign)

			r.Get("/characters", h.listCharacters)
			r.Post("/characters", h.createCharacter)
			r.Get("/characters/{characterID}", h.getCharacter)
			r.Put("/characters/{characterID}", h.updateCharacter)

			r.Get("/episodes", h.listEpisodes)
			r.Post("/episodes", h.createEpisode)
			r.Route("/episodes/{episodeID}", func(r chi.Router) {
				r.Get("/", h.getEpisode)
				r.Put("/", h.updateEpisode)
				r.Delete("/", h.deleteEpisode)
				r.Get("/events", h.listEvents)
				r.Post("/events", h.createEvent)
				r.Put("/events/{eventID}", h.updateEvent)
				r.Delete("/events/{eventID}", h.deleteEvent)
			})

			r.Get("/layouts", h.listLayouts)
			r.Post("/layouts", h.createLayout)
			r.Get("/layouts/default", h.getDefaultLayout)
			r.Route("/layouts/{layoutID}", func(r chi.Router) {
				r.Get("/", h.getLayout)
				r.Put("/", h.updateLayout)
				r.Delete("/", h.deleteLayout)
				r.Post("/badges", h.addBadge)
				r.Delete("/badges/{stat}", h.removeBadge)
				r.Post("/preset/cycle", h.cyclePreset)
			})
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, r, storage.ErrNotFound)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json response: %v", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return badRequest(fmt.Errorf("decode request body: %w", err))
	}
	return nil
}

// publish notifies overlay clients. Failures are logged: the change is
// already stored and overlays still poll.
func (h *Handler) publish(ctx context.Context, eventType feed.EventType, campaign domain.Campaign, entityID string) {
	if h.feed == nil {
		return
	}
	event := feed.Event{
		Type:         eventType,
		CampaignID:   campaign.ID,
		CampaignSlug: campaign.Slug,
		EntityID:     entityID,
		At:           h.now().UTC(),
	}
	if err := h.feed.Publish(ctx, event); err != nil {
		log.Printf("publish %s for campaign %s: %v", eventType, campaign.ID, err)
	}
}

func (h *Handler) listPresets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Presets())
}
