// Package feed carries change notifications from the card layout API to
// overlay clients.
//
// Handlers publish events on a Bus. The Hub subscribes to the bus and pushes
// every event to the websocket clients watching the event's campaign, which
// then re-fetch their overlay snapshot.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EventType names a change notification.
type EventType string

const (
	// LayoutUpdated is published after a layout is saved, changed or deleted.
	LayoutUpdated EventType = "layout.updated"
	// CharacterUpdated is published after a character is saved.
	CharacterUpdated EventType = "character.updated"
	// EpisodeUpdated is published after an episode or one of its events
	// changes.
	EpisodeUpdated EventType = "episode.updated"
)

// Event is one change notification.
type Event struct {
	Type         EventType `json:"type"`
	CampaignID   string    `json:"campaign_id"`
	CampaignSlug string    `json:"campaign_slug"`
	// EntityID is the layout or character that changed.
	EntityID string    `json:"entity_id,omitempty"`
	At       time.Time `json:"at"`
}

// Validate reports whether the event can be routed to overlay clients.
func (e Event) Validate() error {
	if strings.TrimSpace(string(e.Type)) == "" {
		return fmt.Errorf("event type is required")
	}
	if strings.TrimSpace(e.CampaignSlug) == "" {
		return fmt.Errorf("event campaign slug is required")
	}
	return nil
}

func encodeEvent(e Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return data, nil
}

func decodeEvent(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}

// Publisher publishes change notifications.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Bus delivers published events to every subscriber.
type Bus interface {
	Publisher
	// Subscribe returns a channel of events published after the call. The
	// channel closes when ctx ends or the bus closes.
	Subscribe(ctx context.Context) (<-chan Event, error)
	Close() error
}
