// Package overlay builds the stream overlay view of a campaign: the roster of
// characters with their resolved card themes, the featured character and the
// recent events of the active episode.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/louisbranch/tablecards/internal/layout/domain"
	"github.com/louisbranch/tablecards/internal/platform/otel"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/storage"
)

// Card is one character as drawn on the overlay.
type Card struct {
	domain.Character
	Theme domain.ResolvedTheme `json:"resolved_colors"`
}

// Snapshot is everything an overlay page needs for one refresh.
type Snapshot struct {
	Campaign domain.Campaign   `json:"campaign"`
	Layout   domain.CardLayout `json:"layout"`
	Roster   []Card            `json:"roster"`
	Featured *Card             `json:"featured,omitempty"`
	Episode  *domain.Episode   `json:"active_episode,omitempty"`
	Events   []domain.Event    `json:"events,omitempty"`
}

// DefaultMaxEvents caps the events shown on an overlay.
const DefaultMaxEvents = 8

// Options tune snapshot assembly.
type Options struct {
	// FeaturedSlug pins the featured character. An unknown slug leaves the
	// snapshot without a featured character.
	FeaturedSlug string
	// Events loads the active episode and its most recent events.
	Events bool
	// MaxEvents caps the events kept; zero means DefaultMaxEvents.
	MaxEvents int
}

// Build assembles a snapshot from already loaded records. Characters keep
// their given order.
func Build(campaign domain.Campaign, layout domain.CardLayout, characters []domain.Character, opts Options) Snapshot {
	snap := Snapshot{
		Campaign: campaign,
		Layout:   layout.Clone(),
		Roster:   make([]Card, 0, len(characters)),
	}
	for _, ch := range characters {
		snap.Roster = append(snap.Roster, Card{
			Character: ch,
			Theme:     domain.ResolveTheme(layout, ch),
		})
	}
	if idx := featuredIndex(snap.Roster, strings.TrimSpace(opts.FeaturedSlug)); idx >= 0 {
		featured := snap.Roster[idx]
		snap.Featured = &featured
	}
	return snap
}

func featuredIndex(roster []Card, slug string) int {
	if len(roster) == 0 {
		return -1
	}
	if slug != "" {
		for i, c := range roster {
			if c.Slug == slug {
				return i
			}
		}
		return -1
	}
	for i, c := range roster {
		if c.IsActive {
			return i
		}
	}
	return 0
}

// Store is the read surface the loader needs.
type Store interface {
	GetCampaignBySlug(ctx context.Context, slug string) (domain.Campaign, error)
	ListCharacters(ctx context.Context, campaignID string) ([]domain.Character, error)
	GetDefaultLayout(ctx context.Context, campaignID string) (domain.CardLayout, error)
	ListEpisodes(ctx context.Context, campaignID string) ([]domain.Episode, error)
	ListEvents(ctx context.Context, episodeID string) ([]domain.Event, error)
}

// Loader reads snapshots from storage.
type Loader struct {
	store Store
}

// NewLoader returns a loader over store.
func NewLoader(store Store) *Loader {
	return &Loader{store: store}
}

// Load builds the snapshot of the campaign with slug. Campaigns without a
// saved default layout use domain.DefaultLayout.
func (l *Loader) Load(ctx context.Context, slug string, opts Options) (Snapshot, error) {
	if l == nil || l.store == nil {
		return Snapshot{}, errors.New("overlay store is not configured")
	}
	ctx, span := otel.Start(ctx, "overlay.Load")
	defer span.End()

	campaign, err := l.store.GetCampaignBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return Snapshot{}, fmt.Errorf("load campaign %q: %w", slug, err)
	}
	characters, err := l.store.ListCharacters(ctx, campaign.ID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list characters: %w", err)
	}
	layout, err := l.store.GetDefaultLayout(ctx, campaign.ID)
	if errors.Is(err, storage.ErrNotFound) {
		layout = domain.DefaultLayout(campaign.ID)
	} else if err != nil {
		return Snapshot{}, fmt.Errorf("load default layout: %w", err)
	}
	snap := Build(campaign, layout, characters, opts)
	if opts.Events {
		if err := l.loadEpisode(ctx, &snap, opts); err != nil {
			return Snapshot{}, err
		}
	}
	return snap, nil
}

// loadEpisode attaches the active episode and its recent events. A failed
// event read leaves the timeline empty rather than failing the refresh.
func (l *Loader) loadEpisode(ctx context.Context, snap *Snapshot, opts Options) error {
	episodes, err := l.store.ListEpisodes(ctx, snap.Campaign.ID)
	if err != nil {
		return fmt.Errorf("list episodes: %w", err)
	}
	episode, ok := domain.ActiveEpisode(episodes)
	if !ok {
		snap.Events = []domain.Event{}
		return nil
	}
	snap.Episode = &episode
	events, err := l.store.ListEvents(ctx, episode.ID)
	if err != nil {
		log.Printf("overlay events for episode %s: %v", episode.ID, err)
		events = nil
	}
	limit := opts.MaxEvents
	if limit <= 0 {
		limit = DefaultMaxEvents
	}
	snap.Events = domain.RecentEvents(events, limit)
	return nil
}
