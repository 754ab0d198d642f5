package overlay

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/louisbranch/tablecards/internal/layout/domain"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/storage"
)

func roster() []domain.Character {
	return []domain.Character{
		{ID: "c1", CampaignID: "camp", Name: "Aria", Slug: "aria"},
		{ID: "c2", CampaignID: "camp", Name: "Bram", Slug: "bram", IsActive: true},
		{ID: "c3", CampaignID: "camp", Name: "Cass", Slug: "cass", IsActive: true},
	}
}

func TestBuildFeaturedSelection(t *testing.T) {
	t.Parallel()

	layout := domain.DefaultLayout("camp")
	tests := []struct {
		name       string
		characters []domain.Character
		slug       string
		want       string
	}{
		{name: "explicit slug", characters: roster(), slug: "cass", want: "cass"},
		{name: "first active", characters: roster(), want: "bram"},
		{name: "first when none active", characters: []domain.Character{
			{ID: "c1", Name: "Aria", Slug: "aria"},
			{ID: "c2", Name: "Bram", Slug: "bram"},
		}, want: "aria"},
		{name: "unknown slug", characters: roster(), slug: "zed", want: ""},
		{name: "empty roster", characters: nil, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := Build(domain.Campaign{ID: "camp"}, layout, tt.characters, Options{FeaturedSlug: tt.slug})
			got := ""
			if snap.Featured != nil {
				got = snap.Featured.Slug
			}
			if got != tt.want {
				t.Fatalf("featured = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildResolvesThemes(t *testing.T) {
	t.Parallel()

	layout := domain.DefaultLayout("camp")
	characters := roster()
	characters[1].ThemeOverride = &domain.ColorTheme{TextColor: "#123456"}

	snap := Build(domain.Campaign{ID: "camp"}, layout, characters, Options{})
	if len(snap.Roster) != 3 {
		t.Fatalf("roster len = %d, want 3", len(snap.Roster))
	}
	if snap.Roster[0].Theme.Source != domain.ThemeSourceLayout {
		t.Fatalf("roster[0] source = %q, want %q", snap.Roster[0].Theme.Source, domain.ThemeSourceLayout)
	}
	if snap.Roster[1].Theme.Source != domain.ThemeSourceCharacter {
		t.Fatalf("roster[1] source = %q, want %q", snap.Roster[1].Theme.Source, domain.ThemeSourceCharacter)
	}
	if snap.Roster[1].Theme.TextColor != "#123456" {
		t.Fatalf("roster[1] text color = %q, want %q", snap.Roster[1].Theme.TextColor, "#123456")
	}
}

type fakeStore struct {
	campaign   domain.Campaign
	characters []domain.Character
	layout     *domain.CardLayout
	episodes   []domain.Episode
	events     map[string][]domain.Event
	eventsErr  error
	err        error
}

func (f *fakeStore) ListEpisodes(context.Context, string) ([]domain.Episode, error) {
	return f.episodes, nil
}

func (f *fakeStore) ListEvents(_ context.Context, episodeID string) ([]domain.Event, error) {
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	return f.events[episodeID], nil
}

func (f *fakeStore) GetCampaignBySlug(_ context.Context, slug string) (domain.Campaign, error) {
	if f.err != nil {
		return domain.Campaign{}, f.err
	}
	if slug != f.campaign.Slug {
		return domain.Campaign{}, storage.ErrNotFound
	}
	return f.campaign, nil
}

func (f *fakeStore) ListCharacters(context.Context, string) ([]domain.Character, error) {
	return f.characters, nil
}

func (f *fakeStore) GetDefaultLayout(context.Context, string) (domain.CardLayout, error) {
	if f.layout == nil {
		return domain.CardLayout{}, storage.ErrNotFound
	}
	return *f.layout, nil
}

func TestLoaderFallsBackToDefaultLayout(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		campaign:   domain.Campaign{ID: "camp", Slug: "night-watch"},
		characters: roster(),
	}
	snap, err := NewLoader(store).Load(context.Background(), "night-watch", Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.Layout.CampaignID != "camp" || !snap.Layout.IsDefault {
		t.Fatalf("layout = %+v, want default layout for camp", snap.Layout)
	}
	if snap.Featured == nil || snap.Featured.Slug != "bram" {
		t.Fatalf("featured = %+v, want bram", snap.Featured)
	}
}

func TestLoaderUsesSavedLayout(t *testing.T) {
	t.Parallel()

	saved := domain.DefaultLayout("camp")
	saved.ID = "layout-1"
	saved.Name = "Stream"
	store := &fakeStore{
		campaign: domain.Campaign{ID: "camp", Slug: "night-watch"},
		layout:   &saved,
	}
	snap, err := NewLoader(store).Load(context.Background(), "night-watch", Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.Layout.ID != "layout-1" {
		t.Fatalf("layout id = %q, want %q", snap.Layout.ID, "layout-1")
	}
	if snap.Featured != nil {
		t.Fatalf("featured = %+v, want nil for empty roster", snap.Featured)
	}
}

func TestLoaderMissingCampaign(t *testing.T) {
	t.Parallel()

	store := &fakeStore{campaign: domain.Campaign{ID: "camp", Slug: "night-watch"}}
	_, err := NewLoader(store).Load(context.Background(), "other", Options{})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestNilLoader(t *testing.T) {
	t.Parallel()

	var loader *Loader
	if _, err := loader.Load(context.Background(), "x", Options{}); err == nil {
		t.Fatal("expected error from nil loader")
	}
}

func offset(v int) *int { return &v }

func episodeStore() *fakeStore {
	store := &fakeStore{
		campaign:   domain.Campaign{ID: "camp", Slug: "night-watch"},
		characters: roster(),
		episodes: []domain.Episode{
			{ID: "ep-1", CampaignID: "camp", Name: "Pilot", EpisodeNumber: offset(1), IsPublished: true},
			{ID: "ep-2", CampaignID: "camp", Name: "The Vault", EpisodeNumber: offset(2), IsPublished: true},
			{ID: "ep-3", CampaignID: "camp", Name: "Draft", EpisodeNumber: offset(3)},
		},
		events: map[string][]domain.Event{},
	}
	for i := 0; i < 10; i++ {
		store.events["ep-2"] = append(store.events["ep-2"], domain.Event{
			ID:                 fmt.Sprintf("ev-%d", i),
			EpisodeID:          "ep-2",
			Name:               fmt.Sprintf("Event %d", i),
			TimestampInEpisode: offset(i * 60),
		})
	}
	return store
}

func TestLoaderAttachesActiveEpisodeEvents(t *testing.T) {
	t.Parallel()

	store := episodeStore()
	snap, err := NewLoader(store).Load(context.Background(), "night-watch", Options{Events: true})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.Episode == nil || snap.Episode.ID != "ep-2" {
		t.Fatalf("episode = %+v, want latest published ep-2", snap.Episode)
	}
	if len(snap.Events) != DefaultMaxEvents {
		t.Fatalf("events len = %d, want %d", len(snap.Events), DefaultMaxEvents)
	}
	if snap.Events[0].ID != "ev-9" || snap.Events[DefaultMaxEvents-1].ID != "ev-2" {
		t.Fatalf("events = %q..%q, want latest first", snap.Events[0].ID, snap.Events[DefaultMaxEvents-1].ID)
	}

	limited, err := NewLoader(store).Load(context.Background(), "night-watch", Options{Events: true, MaxEvents: 3})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(limited.Events) != 3 {
		t.Fatalf("limited events len = %d, want 3", len(limited.Events))
	}
}

func TestLoaderSkipsEventsWhenDisabled(t *testing.T) {
	t.Parallel()

	snap, err := NewLoader(episodeStore()).Load(context.Background(), "night-watch", Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.Episode != nil || snap.Events != nil {
		t.Fatalf("episode = %+v events = %v, want none", snap.Episode, snap.Events)
	}
}

func TestLoaderEventsWithoutPublishedEpisode(t *testing.T) {
	t.Parallel()

	store := episodeStore()
	store.episodes = store.episodes[2:]
	snap, err := NewLoader(store).Load(context.Background(), "night-watch", Options{Events: true})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.Episode != nil || len(snap.Events) != 0 {
		t.Fatalf("episode = %+v events = %v, want none", snap.Episode, snap.Events)
	}
}

func TestLoaderToleratesEventReadFailure(t *testing.T) {
	t.Parallel()

	store := episodeStore()
	store.eventsErr = errors.New("disk on fire")
	snap, err := NewLoader(store).Load(context.Background(), "night-watch", Options{Events: true})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.Episode == nil || len(snap.Events) != 0 {
		t.Fatalf("episode = %+v events = %v, want episode without events", snap.Episode, snap.Events)
	}
}
