// Package storage defines persistence contracts for card layout service state.
package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/tablecards/internal/layout/domain"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// CampaignStore persists campaigns.
type CampaignStore interface {
	CreateCampaign(ctx context.Context, campaign domain.Campaign) error
	GetCampaign(ctx context.Context, campaignID string) (domain.Campaign, error)
	GetCampaignBySlug(ctx context.Context, slug string) (domain.Campaign, error)
	ListCampaigns(ctx context.Context) ([]domain.Campaign, error)
}

// CharacterStore persists campaign characters. Character slugs are unique
// within a campaign.
type CharacterStore interface {
	PutCharacter(ctx context.Context, character domain.Character) error
	GetCharacter(ctx context.Context, campaignID, characterID string) (domain.Character, error)
	ListCharacters(ctx context.Context, campaignID string) ([]domain.Character, error)
}

// LayoutStore persists card layouts. At most one layout per campaign is the
// default: saving a default layout clears the flag on its siblings.
type LayoutStore interface {
	PutLayout(ctx context.Context, layout domain.CardLayout) error
	GetLayout(ctx context.Context, campaignID, layoutID string) (domain.CardLayout, error)
	GetDefaultLayout(ctx context.Context, campaignID string) (domain.CardLayout, error)
	ListLayouts(ctx context.Context, campaignID string) ([]domain.CardLayout, error)
	DeleteLayout(ctx context.Context, campaignID, layoutID string) error
}

// EpisodeStore persists campaign episodes and the events recorded in them.
// Episode slugs are unique within a campaign; deleting an episode deletes its
// events.
type EpisodeStore interface {
	PutEpisode(ctx context.Context, episode domain.Episode) error
	GetEpisode(ctx context.Context, campaignID, episodeID string) (domain.Episode, error)
	ListEpisodes(ctx context.Context, campaignID string) ([]domain.Episode, error)
	DeleteEpisode(ctx context.Context, campaignID, episodeID string) error

	PutEvent(ctx context.Context, event domain.Event) error
	GetEvent(ctx context.Context, episodeID, eventID string) (domain.Event, error)
	ListEvents(ctx context.Context, episodeID string) ([]domain.Event, error)
	DeleteEvent(ctx context.Context, episodeID, eventID string) error
}

// Store is the full persistence surface of the card layout service.
type Store interface {
	CampaignStore
	CharacterStore
	LayoutStore
	EpisodeStore
	Close() error
}
