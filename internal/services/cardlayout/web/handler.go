// Package web renders the public campaign pages and the stream overlay.
package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/louisbranch/tablecards/internal/layout/domain"
	"github.com/louisbranch/tablecards/internal/platform/i18n/catalog"
	"github.com/louisbranch/tablecards/internal/platform/timeouts"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/overlay"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/search"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/storage"
	"golang.org/x/text/message"
)

// Store is the read surface the pages need.
type Store interface {
	overlay.Store
	ListCampaigns(ctx context.Context) ([]domain.Campaign, error)
}

// Handler serves HTML pages.
type Handler struct {
	store    Store
	overlay  *overlay.Loader
	search   *search.Index
	messages *catalog.Bundle
}

// NewHandler returns the page handler. index may be nil, which disables
// roster filtering.
func NewHandler(store Store, index *search.Index, messages *catalog.Bundle) (*Handler, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if messages == nil {
		messages = catalog.Default()
	}
	return &Handler{
		store:    store,
		overlay:  overlay.NewLoader(store),
		search:   index,
		messages: messages,
	}, nil
}

// Routes returns the page router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.campaigns)
	r.Get("/campaigns/{slug}", h.campaign)
	r.Get("/campaigns/{slug}/characters/{characterSlug}", h.character)
	r.Get("/campaigns/{slug}/overlay", h.overlayPage)
	return r
}

// printer resolves the request language from Accept-Language.
func (h *Handler) printer(r *http.Request) (*message.Printer, string) {
	tag := h.messages.Match(r.Header.Get("Accept-Language"))
	return message.NewPrinter(tag), tag.String()
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, status int, title, bodyClass string, content templ.Component) {
	_, lang := h.printer(r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	ctx := templ.WithChildren(r.Context(), content)
	if err := Page(title, lang, bodyClass).Render(ctx, w); err != nil {
		log.Printf("render %s: %v", r.URL.Path, err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, storage.ErrNotFound) {
		status = http.StatusNotFound
	} else {
		log.Printf("page %s: %v", r.URL.Path, err)
	}
	http.Error(w, http.StatusText(status), status)
}

func (h *Handler) campaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.store.ListCampaigns(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, _ := h.printer(r)
	h.write(w, r, http.StatusOK, p.Sprintf("web.campaigns.title"), "light", CampaignList(p, campaigns))
}

func (h *Handler) campaign(w http.ResponseWriter, r *http.Request) {
	snap, err := h.overlay.Load(r.Context(), chi.URLParam(r, "slug"), overlay.Options{})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	form := SearchForm{
		Query: q.Get("q"),
		Class: q.Get("class"),
		Race:  q.Get("race"),
		Sort:  string(search.ParseSort(q.Get("sort"))),
	}
	if h.search != nil {
		roster, err := h.filterRoster(r.Context(), snap, form)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		snap.Roster = roster
	}
	p, _ := h.printer(r)
	h.write(w, r, http.StatusOK, snap.Campaign.Name, "light", CampaignPage(p, snap, form))
}

// filterRoster narrows the snapshot roster to the search results, in result
// order.
func (h *Handler) filterRoster(ctx context.Context, snap overlay.Snapshot, form SearchForm) ([]overlay.Card, error) {
	if err := h.search.EnsureLoaded(ctx, snap.Campaign.ID, h.store.ListCharacters); err != nil {
		return nil, err
	}
	results, err := h.search.Search(ctx, search.Query{
		CampaignID: snap.Campaign.ID,
		Text:       form.Query,
		Class:      form.Class,
		Race:       form.Race,
		Sort:       search.Sort(form.Sort),
	})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]overlay.Card, len(snap.Roster))
	for _, card := range snap.Roster {
		byID[card.ID] = card
	}
	out := make([]overlay.Card, 0, len(results))
	for _, ch := range results {
		if card, ok := byID[ch.ID]; ok {
			out = append(out, card)
		}
	}
	return out, nil
}

func (h *Handler) character(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "characterSlug")
	snap, err := h.overlay.Load(r.Context(), chi.URLParam(r, "slug"), overlay.Options{FeaturedSlug: slug})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if snap.Featured == nil {
		h.fail(w, r, storage.ErrNotFound)
		return
	}
	p, _ := h.printer(r)
	h.write(w, r, http.StatusOK, snap.Featured.Name, "light", CharacterCard(p, snap.Layout, *snap.Featured))
}

// ParseOverlayOptions reads the overlay query parameters. Roster, featured
// and events sections are shown unless set to "false"; the arrangement
// defaults to grid and the theme to dark.
func ParseOverlayOptions(r *http.Request) OverlayOptions {
	q := r.URL.Query()
	opts := OverlayOptions{
		ShowRoster:   q.Get("roster") != "false",
		ShowFeatured: q.Get("featured") != "false",
		ShowEvents:   q.Get("events") != "false",
		Character:    strings.TrimSpace(q.Get("character")),
		Arrangement:  "grid",
		Theme:        "dark",
	}
	switch a := q.Get("layout"); a {
	case "horizontal", "vertical":
		opts.Arrangement = a
	}
	if q.Get("theme") == "light" {
		opts.Theme = "light"
	}
	return opts
}

func (h *Handler) overlayPage(w http.ResponseWriter, r *http.Request) {
	opts := ParseOverlayOptions(r)
	snap, err := h.overlay.Load(r.Context(), chi.URLParam(r, "slug"), overlay.Options{
		FeaturedSlug: opts.Character,
		Events:       opts.ShowEvents,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, _ := h.printer(r)
	if r.URL.Query().Get("fragment") == "1" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := OverlayContent(p, snap, opts).Render(r.Context(), w); err != nil {
			log.Printf("render overlay fragment: %v", err)
		}
		return
	}
	title := p.Sprintf("web.overlay.title") + " - " + snap.Campaign.Name
	h.write(w, r, http.StatusOK, title, opts.Theme, OverlayPage(p, snap, opts, timeouts.OverlayRefresh.Milliseconds()))
}
