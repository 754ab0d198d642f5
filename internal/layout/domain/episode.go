package domain

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/louisbranch/tablecards/internal/platform/id"
)

var (
	// ErrEmptyEpisodeID indicates an event without its episode.
	ErrEmptyEpisodeID = errors.New("episode id is required")
	// ErrInvalidEpisodeNumber indicates a negative season, episode number or runtime.
	ErrInvalidEpisodeNumber = errors.New("season, episode number and runtime must not be negative")
	// ErrInvalidEventTimestamp indicates a negative offset into the episode.
	ErrInvalidEventTimestamp = errors.New("event timestamp must not be negative")
)

// Event types with a dedicated overlay color.
const (
	EventCombat      = "combat"
	EventRoleplay    = "roleplay"
	EventExploration = "exploration"
	EventSocial      = "social"
	EventSkillCheck  = "skill_check"
	EventRest        = "rest"
)

const defaultEventColor = "#6B7280"

var eventColors = map[string]string{
	EventCombat:      "#DC2626",
	EventRoleplay:    "#2563EB",
	EventExploration: "#059669",
	EventSocial:      "#7C3AED",
	EventSkillCheck:  "#D97706",
	EventRest:        "#0891B2",
}

// Episode is one recorded session of a campaign.
type Episode struct {
	ID            string    `json:"id"`
	CampaignID    string    `json:"campaign_id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	EpisodeNumber *int      `json:"episode_number,omitempty"`
	Season        *int      `json:"season,omitempty"`
	Description   string    `json:"description,omitempty"`
	AirDate       string    `json:"air_date,omitempty"`
	Runtime       *int      `json:"runtime,omitempty"`
	IsPublished   bool      `json:"is_published"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Event is a key moment inside an episode. TimestampInEpisode is in seconds.
type Event struct {
	ID                 string    `json:"id"`
	EpisodeID          string    `json:"episode_id"`
	Name               string    `json:"name"`
	Description        string    `json:"description,omitempty"`
	TimestampInEpisode *int      `json:"timestamp_in_episode,omitempty"`
	EventType          string    `json:"event_type,omitempty"`
	CharactersInvolved []string  `json:"characters_involved"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Label is the short "S1 E3 - Name" heading used on overlays.
func (e Episode) Label() string {
	var b strings.Builder
	if e.Season != nil {
		fmt.Fprintf(&b, "S%d ", *e.Season)
	}
	if e.EpisodeNumber != nil {
		fmt.Fprintf(&b, "E%d - ", *e.EpisodeNumber)
	}
	b.WriteString(e.Name)
	return b.String()
}

// NormalizeEpisode trims and validates episode fields. The slug is derived
// from the name when absent.
func NormalizeEpisode(in Episode) (Episode, error) {
	out := in
	out.CampaignID = strings.TrimSpace(in.CampaignID)
	if out.CampaignID == "" {
		return Episode{}, ErrEmptyCampaignID
	}
	out.Name = strings.TrimSpace(in.Name)
	if out.Name == "" {
		return Episode{}, ErrEmptyName
	}
	out.Slug = Slugify(in.Slug)
	if out.Slug == "" {
		out.Slug = Slugify(out.Name)
	}
	if out.Slug == "" {
		return Episode{}, ErrInvalidSlug
	}
	for _, n := range []*int{in.EpisodeNumber, in.Season, in.Runtime} {
		if n != nil && *n < 0 {
			return Episode{}, ErrInvalidEpisodeNumber
		}
	}
	out.Description = strings.TrimSpace(in.Description)
	out.AirDate = strings.TrimSpace(in.AirDate)
	return out, nil
}

// CreateEpisode normalizes input into a new episode with a generated ID and
// timestamps.
func CreateEpisode(input Episode, now func() time.Time, idGenerator func() (string, error)) (Episode, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	normalized, err := NormalizeEpisode(input)
	if err != nil {
		return Episode{}, err
	}
	episodeID, err := idGenerator()
	if err != nil {
		return Episode{}, fmt.Errorf("generate episode id: %w", err)
	}
	createdAt := now().UTC()
	normalized.ID = episodeID
	normalized.CreatedAt = createdAt
	normalized.UpdatedAt = createdAt
	return normalized, nil
}

// NormalizeEvent trims and validates event fields. The event type is
// lowercased and involved character ids are deduplicated in order.
func NormalizeEvent(in Event) (Event, error) {
	out := in
	out.EpisodeID = strings.TrimSpace(in.EpisodeID)
	if out.EpisodeID == "" {
		return Event{}, ErrEmptyEpisodeID
	}
	out.Name = strings.TrimSpace(in.Name)
	if out.Name == "" {
		return Event{}, ErrEmptyName
	}
	if in.TimestampInEpisode != nil && *in.TimestampInEpisode < 0 {
		return Event{}, ErrInvalidEventTimestamp
	}
	out.Description = strings.TrimSpace(in.Description)
	out.EventType = strings.ToLower(strings.TrimSpace(in.EventType))
	involved := make([]string, 0, len(in.CharactersInvolved))
	for _, characterID := range in.CharactersInvolved {
		characterID = strings.TrimSpace(characterID)
		if characterID == "" || slices.Contains(involved, characterID) {
			continue
		}
		involved = append(involved, characterID)
	}
	out.CharactersInvolved = involved
	return out, nil
}

// CreateEvent normalizes input into a new event with a generated ID and
// timestamps.
func CreateEvent(input Event, now func() time.Time, idGenerator func() (string, error)) (Event, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	normalized, err := NormalizeEvent(input)
	if err != nil {
		return Event{}, err
	}
	eventID, err := idGenerator()
	if err != nil {
		return Event{}, fmt.Errorf("generate event id: %w", err)
	}
	createdAt := now().UTC()
	normalized.ID = eventID
	normalized.CreatedAt = createdAt
	normalized.UpdatedAt = createdAt
	return normalized, nil
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

// SortEpisodes orders episodes by season then episode number, missing values
// last, then by creation time.
func SortEpisodes(episodes []Episode) []Episode {
	out := slices.Clone(episodes)
	slices.SortStableFunc(out, func(a, b Episode) int {
		if c := cmp.Compare(intOr(a.Season, math.MaxInt), intOr(b.Season, math.MaxInt)); c != 0 {
			return c
		}
		if c := cmp.Compare(intOr(a.EpisodeNumber, math.MaxInt), intOr(b.EpisodeNumber, math.MaxInt)); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

// SortEvents orders events by their offset into the episode, untimed events
// last.
func SortEvents(events []Event) []Event {
	out := slices.Clone(events)
	slices.SortStableFunc(out, func(a, b Event) int {
		return cmp.Compare(intOr(a.TimestampInEpisode, math.MaxInt), intOr(b.TimestampInEpisode, math.MaxInt))
	})
	return out
}

// ActiveEpisode returns the latest published episode in SortEpisodes order.
func ActiveEpisode(episodes []Episode) (Episode, bool) {
	sorted := SortEpisodes(episodes)
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].IsPublished {
			return sorted[i], true
		}
	}
	return Episode{}, false
}

// RecentEvents returns up to limit events, latest offset first. Untimed
// events count as offset zero. A non-positive limit keeps every event.
func RecentEvents(events []Event, limit int) []Event {
	out := slices.Clone(events)
	slices.SortStableFunc(out, func(a, b Event) int {
		return cmp.Compare(intOr(b.TimestampInEpisode, 0), intOr(a.TimestampInEpisode, 0))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// EventColor returns the overlay color of an event type.
func EventColor(eventType string) string {
	if c, ok := eventColors[strings.ToLower(eventType)]; ok {
		return c
	}
	return defaultEventColor
}

// FormatOffset renders seconds as m:ss, or "--:--" when unknown or zero.
func FormatOffset(seconds *int) string {
	if seconds == nil || *seconds <= 0 {
		return "--:--"
	}
	return fmt.Sprintf("%d:%02d", *seconds/60, *seconds%60)
}
