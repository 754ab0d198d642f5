package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/louisbranch/tablecards/internal/layout/badge"
	"github.com/louisbranch/tablecards/internal/layout/domain"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/search"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/storage"
)

type fakeStore struct {
	campaigns  []domain.Campaign
	characters []domain.Character
	layout     *domain.CardLayout
	episodes   []domain.Episode
	events     []domain.Event
}

func (f *fakeStore) ListEpisodes(_ context.Context, campaignID string) ([]domain.Episode, error) {
	out := []domain.Episode{}
	for _, ep := range f.episodes {
		if ep.CampaignID == campaignID {
			out = append(out, ep)
		}
	}
	return out, nil
}

func (f *fakeStore) ListEvents(_ context.Context, episodeID string) ([]domain.Event, error) {
	out := []domain.Event{}
	for _, ev := range f.events {
		if ev.EpisodeID == episodeID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeStore) ListCampaigns(context.Context) ([]domain.Campaign, error) {
	return f.campaigns, nil
}

func (f *fakeStore) GetCampaignBySlug(_ context.Context, slug string) (domain.Campaign, error) {
	for _, c := range f.campaigns {
		if c.Slug == slug {
			return c, nil
		}
	}
	return domain.Campaign{}, storage.ErrNotFound
}

func (f *fakeStore) ListCharacters(_ context.Context, campaignID string) ([]domain.Character, error) {
	out := []domain.Character{}
	for _, ch := range f.characters {
		if ch.CampaignID == campaignID {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (f *fakeStore) GetDefaultLayout(context.Context, string) (domain.CardLayout, error) {
	if f.layout == nil {
		return domain.CardLayout{}, storage.ErrNotFound
	}
	return *f.layout, nil
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		campaigns: []domain.Campaign{{ID: "camp", Name: "Night <Watch>", Slug: "night-watch"}},
		characters: []domain.Character{
			{ID: "c1", CampaignID: "camp", Name: "Thorin", Slug: "thorin", ClassName: "Fighter", Race: "Dwarf", Level: 5, Stats: map[string]int{"str": 17}},
			{ID: "c2", CampaignID: "camp", Name: "Elowen", Slug: "elowen", ClassName: "Wizard", Race: "Elf", Level: 4, IsActive: true},
		},
	}
}

func serve(t *testing.T, h *Handler, target string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func newHandler(t *testing.T, store Store, index *search.Index) *Handler {
	t.Helper()
	h, err := NewHandler(store, index, nil)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	return h
}

func TestCampaignListPage(t *testing.T) {
	t.Parallel()

	h := newHandler(t, newFakeStore(), nil)
	rec := serve(t, h, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`<html lang="en-US">`, "Campaigns", `href="/campaigns/night-watch"`, "Night &lt;Watch&gt;"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}

	rec = serve(t, h, "/", map[string]string{"Accept-Language": "pt-BR"})
	if !strings.Contains(rec.Body.String(), `<html lang="pt-BR">`) {
		t.Fatalf("expected pt-BR document, got:\n%s", rec.Body.String())
	}
}

func TestCampaignPageFiltersRoster(t *testing.T) {
	t.Parallel()

	index, err := search.New()
	if err != nil {
		t.Fatalf("search.New() error = %v", err)
	}
	t.Cleanup(func() { _ = index.Close() })
	h := newHandler(t, newFakeStore(), index)

	rec := serve(t, h, "/campaigns/night-watch", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "Thorin") || !strings.Contains(body, "Elowen") {
		t.Fatalf("expected both characters:\n%s", body)
	}

	rec = serve(t, h, "/campaigns/night-watch?class=Wizard", nil)
	body := rec.Body.String()
	if strings.Contains(body, "Thorin") || !strings.Contains(body, "Elowen") {
		t.Fatalf("expected only Elowen:\n%s", body)
	}
	if !strings.Contains(body, `name="class" value="Wizard"`) {
		t.Fatalf("expected form to keep the class filter:\n%s", body)
	}

	rec = serve(t, h, "/campaigns/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing campaign status = %d", rec.Code)
	}
}

func TestCharacterPage(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	layout := domain.DefaultLayout("camp")
	layout.CardType = domain.CardTypeEnhanced
	layout.Badges = []badge.Badge{{Stat: "str", X: 24, Y: 40, Shape: badge.ShapeShield}}
	store.layout = &layout
	h := newHandler(t, store, nil)

	rec := serve(t, h, "/campaigns/night-watch/characters/thorin", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Thorin", "Level 5", "Inactive", "left:24%;top:40%", "STR 17"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}

	rec = serve(t, h, "/campaigns/night-watch/characters/nobody", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown character status = %d", rec.Code)
	}
}

func TestOverlayPage(t *testing.T) {
	t.Parallel()

	h := newHandler(t, newFakeStore(), nil)
	rec := serve(t, h, "/campaigns/night-watch/overlay?layout=horizontal", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`<body class="dark">`, "Featured", `class="cards horizontal"`, "setInterval(refresh,3000)", "/ws/overlay/"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}

	rec = serve(t, h, "/campaigns/night-watch/overlay?fragment=1&roster=false&character=thorin", nil)
	body = rec.Body.String()
	if strings.Contains(body, "<html") || strings.Contains(body, "Elowen") || !strings.Contains(body, "Thorin") {
		t.Fatalf("unexpected fragment:\n%s", body)
	}
}

func TestOverlayPageEvents(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	season, number, at := 1, 3, 125
	store.episodes = []domain.Episode{
		{ID: "ep-3", CampaignID: "camp", Name: "Into the <Vault>", Season: &season, EpisodeNumber: &number, IsPublished: true},
	}
	store.events = []domain.Event{
		{ID: "ev-1", EpisodeID: "ep-3", Name: "Ambush", Description: "Goblins strike", EventType: domain.EventCombat, TimestampInEpisode: &at},
	}
	h := newHandler(t, store, nil)

	rec := serve(t, h, "/campaigns/night-watch/overlay?fragment=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`class="events"`, "S1 E3 - Into the &lt;Vault&gt;", "2:05", "Ambush", "Goblins strike", "border-left-color:#DC2626"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}

	rec = serve(t, h, "/campaigns/night-watch/overlay?fragment=1&events=false", nil)
	if body := rec.Body.String(); strings.Contains(body, `class="events"`) || strings.Contains(body, "Ambush") {
		t.Fatalf("expected no events section:\n%s", body)
	}

	store.episodes[0].IsPublished = false
	rec = serve(t, h, "/campaigns/night-watch/overlay?fragment=1", nil)
	if body := rec.Body.String(); !strings.Contains(body, "No events yet.") {
		t.Fatalf("expected empty timeline message:\n%s", body)
	}
}

func TestParseOverlayOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query string
		want  OverlayOptions
	}{
		{query: "", want: OverlayOptions{ShowRoster: true, ShowFeatured: true, ShowEvents: true, Arrangement: "grid", Theme: "dark"}},
		{query: "roster=false&featured=false&events=false&theme=light&layout=vertical&character=aria", want: OverlayOptions{Character: "aria", Arrangement: "vertical", Theme: "light"}},
		{query: "layout=diagonal&theme=neon&events=no", want: OverlayOptions{ShowRoster: true, ShowFeatured: true, ShowEvents: true, Arrangement: "grid", Theme: "dark"}},
	}
	for _, tt := range tests {
		got := ParseOverlayOptions(httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil))
		if got != tt.want {
			t.Fatalf("ParseOverlayOptions(%q) = %+v, want %+v", tt.query, got, tt.want)
		}
	}
}

func TestNewHandlerRequiresStore(t *testing.T) {
	t.Parallel()

	if _, err := NewHandler(nil, nil, nil); err == nil {
		t.Fatal("expected error without store")
	}
}
