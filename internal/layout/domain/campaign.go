package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/louisbranch/tablecards/internal/platform/id"
)

var (
	// ErrEmptyName indicates a missing campaign or character name.
	ErrEmptyName = errors.New("name is required")
	// ErrInvalidSlug indicates a name that produces no usable slug.
	ErrInvalidSlug = errors.New("slug must contain letters or digits")
	// ErrInvalidLevel indicates a character level below 1.
	ErrInvalidLevel = errors.New("level must be at least 1")
)

// Campaign groups the characters and layouts shown on one public page.
type Campaign struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateCampaignInput describes the metadata needed to create a campaign.
type CreateCampaignInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
}

// CreateCampaign creates a new campaign with a generated ID and timestamps.
func CreateCampaign(input CreateCampaignInput, now func() time.Time, idGenerator func() (string, error)) (Campaign, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Campaign{}, ErrEmptyName
	}
	slug := Slugify(input.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return Campaign{}, ErrInvalidSlug
	}
	campaignID, err := idGenerator()
	if err != nil {
		return Campaign{}, fmt.Errorf("generate campaign id: %w", err)
	}
	createdAt := now().UTC()
	return Campaign{
		ID:          campaignID,
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}, nil
}

// Character is a player character shown on the campaign page and overlay.
type Character struct {
	ID            string         `json:"id"`
	CampaignID    string         `json:"campaign_id"`
	Name          string         `json:"name"`
	Slug          string         `json:"slug"`
	ClassName     string         `json:"class_name,omitempty"`
	Race          string         `json:"race,omitempty"`
	PlayerName    string         `json:"player_name,omitempty"`
	Level         int            `json:"level"`
	IsActive      bool           `json:"is_active"`
	ImageURL      string         `json:"image_url,omitempty"`
	Stats         map[string]int `json:"stats"`
	ThemeOverride *ColorTheme    `json:"color_theme_override,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// NormalizeCharacter trims and validates character fields. The slug is
// derived from the name when absent, level defaults to 1 and stat keys are
// normalized.
func NormalizeCharacter(in Character) (Character, error) {
	out := in
	out.CampaignID = strings.TrimSpace(in.CampaignID)
	if out.CampaignID == "" {
		return Character{}, ErrEmptyCampaignID
	}
	out.Name = strings.TrimSpace(in.Name)
	if out.Name == "" {
		return Character{}, ErrEmptyName
	}
	out.Slug = Slugify(in.Slug)
	if out.Slug == "" {
		out.Slug = Slugify(out.Name)
	}
	if out.Slug == "" {
		return Character{}, ErrInvalidSlug
	}
	out.ClassName = strings.TrimSpace(in.ClassName)
	out.Race = strings.TrimSpace(in.Race)
	out.PlayerName = strings.TrimSpace(in.PlayerName)
	out.ImageURL = strings.TrimSpace(in.ImageURL)
	if out.Level == 0 {
		out.Level = 1
	}
	if out.Level < 1 {
		return Character{}, ErrInvalidLevel
	}
	stats := make(map[string]int, len(in.Stats))
	for k, v := range in.Stats {
		key := NormalizeStatKey(k)
		if key == "" {
			continue
		}
		stats[key] = v
	}
	out.Stats = stats
	if in.ThemeOverride != nil {
		override := in.ThemeOverride.Clone()
		if err := override.Validate(); err != nil {
			return Character{}, err
		}
		if override.IsZero() {
			out.ThemeOverride = nil
		} else {
			out.ThemeOverride = &override
		}
	}
	return out, nil
}

// CreateCharacter normalizes input into a new character with a generated ID
// and timestamps.
func CreateCharacter(input Character, now func() time.Time, idGenerator func() (string, error)) (Character, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	normalized, err := NormalizeCharacter(input)
	if err != nil {
		return Character{}, err
	}
	characterID, err := idGenerator()
	if err != nil {
		return Character{}, fmt.Errorf("generate character id: %w", err)
	}
	createdAt := now().UTC()
	normalized.ID = characterID
	normalized.CreatedAt = createdAt
	normalized.UpdatedAt = createdAt
	return normalized, nil
}

// Slugify returns a URL-friendly form of name: lowercase letters and digits
// joined by single hyphens, with quotes dropped.
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r == '\'' || r == '"' || r == '’':
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}
	return b.String()
}
