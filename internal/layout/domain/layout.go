package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/louisbranch/tablecards/internal/layout/badge"
	"github.com/louisbranch/tablecards/internal/platform/id"
)

// CardType selects how character cards are drawn.
type CardType string

const (
	// CardTypeSimple renders stats as a text row.
	CardTypeSimple CardType = "simple"
	// CardTypeEnhanced renders stats as positioned badges over the portrait.
	CardTypeEnhanced CardType = "enhanced"
)

// AspectRatio is the portrait crop used on enhanced cards.
type AspectRatio string

const (
	AspectSquare    AspectRatio = "square"
	AspectPortrait  AspectRatio = "portrait"
	AspectLandscape AspectRatio = "landscape"
)

const (
	// DefaultLayoutName names layouts created without a name.
	DefaultLayoutName = "Default"
	// DefaultImageWidthPercent is the portrait width used by new layouts.
	DefaultImageWidthPercent = 30
	// MinImageWidthPercent and MaxImageWidthPercent bound the portrait width.
	MinImageWidthPercent = 25
	MaxImageWidthPercent = 40
	// MaxStats caps how many stats a layout configures.
	MaxStats = 8
	// MinBadgeSize and MaxBadgeSize bound the badge scale factor.
	MinBadgeSize = 0.5
	MaxBadgeSize = 2.0
)

var (
	// ErrEmptyCampaignID indicates a layout without an owning campaign.
	ErrEmptyCampaignID = errors.New("campaign id is required")
	// ErrInvalidCardType indicates an unknown card type.
	ErrInvalidCardType = errors.New("card type must be simple or enhanced")
	// ErrInvalidAspectRatio indicates an unknown image aspect ratio.
	ErrInvalidAspectRatio = errors.New("image aspect ratio must be square, portrait or landscape")
	// ErrInvalidImageWidth indicates a portrait width outside 25-40 percent.
	ErrInvalidImageWidth = errors.New("image width percent must be between 25 and 40")
	// ErrInvalidBorderColorCount indicates a border gradient that is not 2 or 4 colors.
	ErrInvalidBorderColorCount = errors.New("border color count must be 2 or 4")
	// ErrInvalidColor indicates a color that is not a #RRGGBB hex value.
	ErrInvalidColor = errors.New("colors must be #RRGGBB hex values")
	// ErrInvalidStats indicates an empty, oversized or duplicated stat configuration.
	ErrInvalidStats = errors.New("stats must list 1 to 8 unique keys")
	// ErrInvalidBadge indicates a badge with a bad shape, size or duplicate stat.
	ErrInvalidBadge = errors.New("badge layout is invalid")
	// ErrUnknownPreset indicates a color preset id missing from the catalog.
	ErrUnknownPreset = errors.New("unknown color preset")
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Gradient is a badge fill.
type Gradient struct {
	Type   string   `json:"type,omitempty" toml:"type"`
	Colors []string `json:"colors,omitempty" toml:"colors"`
}

// StatColor styles one of the fixed HP/AC badges.
type StatColor struct {
	Border   string   `json:"border,omitempty" toml:"border"`
	Interior Gradient `json:"interior_gradient" toml:"interior_gradient"`
}

// ColorTheme is the color scheme of a character card.
type ColorTheme struct {
	BorderColors  []string  `json:"border_colors" toml:"border_colors"`
	TextColor     string    `json:"text_color" toml:"text_color"`
	BadgeInterior Gradient  `json:"badge_interior_gradient" toml:"badge_interior_gradient"`
	HPColor       StatColor `json:"hp_color" toml:"hp_color"`
	ACColor       StatColor `json:"ac_color" toml:"ac_color"`
}

// IsZero reports whether no color is set.
func (t ColorTheme) IsZero() bool {
	return len(t.BorderColors) == 0 &&
		t.TextColor == "" &&
		t.BadgeInterior.Type == "" && len(t.BadgeInterior.Colors) == 0 &&
		t.HPColor.Border == "" && len(t.HPColor.Interior.Colors) == 0 &&
		t.ACColor.Border == "" && len(t.ACColor.Interior.Colors) == 0
}

// Clone returns a deep copy of the theme.
func (t ColorTheme) Clone() ColorTheme {
	out := t
	out.BorderColors = cloneStrings(t.BorderColors)
	out.BadgeInterior.Colors = cloneStrings(t.BadgeInterior.Colors)
	out.HPColor.Interior.Colors = cloneStrings(t.HPColor.Interior.Colors)
	out.ACColor.Interior.Colors = cloneStrings(t.ACColor.Interior.Colors)
	return out
}

// Validate checks every set color is a hex value.
func (t ColorTheme) Validate() error {
	colors := append([]string{t.TextColor, t.HPColor.Border, t.ACColor.Border}, t.BorderColors...)
	colors = append(colors, t.BadgeInterior.Colors...)
	colors = append(colors, t.HPColor.Interior.Colors...)
	colors = append(colors, t.ACColor.Interior.Colors...)
	for _, c := range colors {
		if c == "" {
			continue
		}
		if !hexColor.MatchString(c) {
			return fmt.Errorf("%w: %q", ErrInvalidColor, c)
		}
	}
	return nil
}

// CardLayout is the campaign-wide character card configuration.
type CardLayout struct {
	ID                 string        `json:"id"`
	CampaignID         string        `json:"campaign_id"`
	Name               string        `json:"name"`
	IsDefault          bool          `json:"is_default"`
	CardType           CardType      `json:"card_type"`
	Stats              []badge.Stat  `json:"stats_config"`
	ImageWidthPercent  int           `json:"image_width_percent"`
	ImageAspectRatio   AspectRatio   `json:"image_aspect_ratio"`
	BackgroundImageURL string        `json:"background_image_url,omitempty"`
	BorderColorCount   int           `json:"border_color_count"`
	Badges             []badge.Badge `json:"badge_layout"`
	ColorPreset        string        `json:"color_preset,omitempty"`
	ColorTheme
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the layout.
func (l CardLayout) Clone() CardLayout {
	out := l
	out.Stats = append([]badge.Stat(nil), l.Stats...)
	out.Badges = badge.CloneBadges(l.Badges)
	out.ColorTheme = l.ColorTheme.Clone()
	return out
}

// DefaultStats returns the six ability scores every new layout starts with.
func DefaultStats() []badge.Stat {
	return []badge.Stat{
		{Key: "str", Label: "STR", Visible: true, Order: 0},
		{Key: "dex", Label: "DEX", Visible: true, Order: 1},
		{Key: "con", Label: "CON", Visible: true, Order: 2},
		{Key: "int", Label: "INT", Visible: true, Order: 3},
		{Key: "wis", Label: "WIS", Visible: true, Order: 4},
		{Key: "cha", Label: "CHA", Visible: true, Order: 5},
	}
}

// DefaultLayout returns the unsaved layout offered to campaigns without one.
func DefaultLayout(campaignID string) CardLayout {
	preset := DefaultPreset()
	return CardLayout{
		CampaignID:        strings.TrimSpace(campaignID),
		Name:              "Default Layout",
		IsDefault:         true,
		CardType:          CardTypeSimple,
		Stats:             DefaultStats(),
		ImageWidthPercent: DefaultImageWidthPercent,
		ImageAspectRatio:  AspectSquare,
		BorderColorCount:  len(preset.BorderColors),
		Badges:            []badge.Badge{},
		ColorPreset:       preset.ID,
		ColorTheme:        preset.ColorTheme.Clone(),
	}
}

// CreateLayout normalizes input into a new layout with a generated ID and
// timestamps.
func CreateLayout(input CardLayout, now func() time.Time, idGenerator func() (string, error)) (CardLayout, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	normalized, err := NormalizeLayout(input)
	if err != nil {
		return CardLayout{}, err
	}
	layoutID, err := idGenerator()
	if err != nil {
		return CardLayout{}, fmt.Errorf("generate layout id: %w", err)
	}
	createdAt := now().UTC()
	normalized.ID = layoutID
	normalized.CreatedAt = createdAt
	normalized.UpdatedAt = createdAt
	return normalized, nil
}

// NormalizeLayout trims, defaults and validates a layout.
//
// Missing optional values take the defaults of DefaultLayout, badge
// coordinates are clamped into the canvas, and badges bound to stats the
// layout does not configure are dropped.
func NormalizeLayout(in CardLayout) (CardLayout, error) {
	out := in
	out.ID = strings.TrimSpace(in.ID)
	out.CampaignID = strings.TrimSpace(in.CampaignID)
	if out.CampaignID == "" {
		return CardLayout{}, ErrEmptyCampaignID
	}
	out.Name = strings.TrimSpace(in.Name)
	if out.Name == "" {
		out.Name = DefaultLayoutName
	}

	switch CardType(strings.ToLower(strings.TrimSpace(string(in.CardType)))) {
	case "", CardTypeSimple:
		out.CardType = CardTypeSimple
	case CardTypeEnhanced:
		out.CardType = CardTypeEnhanced
	default:
		return CardLayout{}, ErrInvalidCardType
	}

	switch AspectRatio(strings.ToLower(strings.TrimSpace(string(in.ImageAspectRatio)))) {
	case "", AspectSquare:
		out.ImageAspectRatio = AspectSquare
	case AspectPortrait:
		out.ImageAspectRatio = AspectPortrait
	case AspectLandscape:
		out.ImageAspectRatio = AspectLandscape
	default:
		return CardLayout{}, ErrInvalidAspectRatio
	}

	if out.ImageWidthPercent == 0 {
		out.ImageWidthPercent = DefaultImageWidthPercent
	}
	if out.ImageWidthPercent < MinImageWidthPercent || out.ImageWidthPercent > MaxImageWidthPercent {
		return CardLayout{}, ErrInvalidImageWidth
	}
	out.BackgroundImageURL = strings.TrimSpace(in.BackgroundImageURL)

	out.ColorPreset = strings.TrimSpace(in.ColorPreset)
	if out.ColorPreset != "" {
		if _, ok := LookupPreset(out.ColorPreset); !ok {
			return CardLayout{}, fmt.Errorf("%w: %q", ErrUnknownPreset, out.ColorPreset)
		}
	}
	theme, err := normalizeTheme(in.ColorTheme, out.ColorPreset)
	if err != nil {
		return CardLayout{}, err
	}
	out.ColorTheme = theme
	if out.BorderColorCount == 0 {
		out.BorderColorCount = len(out.BorderColors)
	}
	if out.BorderColorCount != 2 && out.BorderColorCount != 4 {
		return CardLayout{}, ErrInvalidBorderColorCount
	}
	if len(out.BorderColors) < out.BorderColorCount {
		return CardLayout{}, ErrInvalidBorderColorCount
	}

	stats, err := normalizeStats(in.Stats)
	if err != nil {
		return CardLayout{}, err
	}
	out.Stats = stats

	badges, err := normalizeBadges(in.Badges, stats)
	if err != nil {
		return CardLayout{}, err
	}
	out.Badges = badges
	return out, nil
}

func normalizeTheme(theme ColorTheme, presetID string) (ColorTheme, error) {
	out := theme.Clone()
	out.TextColor = strings.TrimSpace(out.TextColor)
	if presetID == "" {
		presetID = DefaultPreset().ID
	}
	if preset, ok := LookupPreset(presetID); ok {
		out = fillTheme(out, preset.ColorTheme)
	}
	if err := out.Validate(); err != nil {
		return ColorTheme{}, err
	}
	return out, nil
}

func normalizeStats(in []badge.Stat) ([]badge.Stat, error) {
	if len(in) == 0 {
		return DefaultStats(), nil
	}
	if len(in) > MaxStats {
		return nil, ErrInvalidStats
	}
	out := make([]badge.Stat, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s.Key = NormalizeStatKey(s.Key)
		if s.Key == "" {
			return nil, ErrInvalidStats
		}
		if _, ok := seen[s.Key]; ok {
			return nil, fmt.Errorf("%w: duplicate stat %q", ErrInvalidStats, s.Key)
		}
		seen[s.Key] = struct{}{}
		s.Label = strings.TrimSpace(s.Label)
		if s.Label == "" {
			s.Label = strings.ToUpper(s.Key)
		}
		if s.Required {
			s.Visible = true
		}
		out = append(out, s)
	}
	return badge.SortStats(out), nil
}

func normalizeBadges(in []badge.Badge, stats []badge.Stat) ([]badge.Badge, error) {
	out := make([]badge.Badge, 0, len(in))
	for _, b := range in {
		b = b.Clone()
		b.Stat = NormalizeStatKey(b.Stat)
		if _, ok := badge.FindStat(stats, b.Stat); !ok {
			continue
		}
		if badge.Has(out, b.Stat) {
			return nil, fmt.Errorf("%w: duplicate badge for %q", ErrInvalidBadge, b.Stat)
		}
		switch strings.ToLower(strings.TrimSpace(b.Shape)) {
		case "":
			b.Shape = badge.DefaultShape
		case badge.ShapeHexagon, badge.ShapeHeart, badge.ShapeShield:
			b.Shape = strings.ToLower(strings.TrimSpace(b.Shape))
		default:
			return nil, fmt.Errorf("%w: unknown shape %q", ErrInvalidBadge, b.Shape)
		}
		if b.Size != nil && (*b.Size < MinBadgeSize || *b.Size > MaxBadgeSize) {
			return nil, fmt.Errorf("%w: size %.2f outside %.1f-%.1f", ErrInvalidBadge, *b.Size, MinBadgeSize, MaxBadgeSize)
		}
		b.X = clampPosition(b.X)
		b.Y = clampPosition(b.Y)
		out = append(out, b)
	}
	return out, nil
}

func clampPosition(v float64) float64 {
	if v < badge.MinPosition {
		return badge.MinPosition
	}
	if v > badge.MaxPosition {
		return badge.MaxPosition
	}
	return v
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
