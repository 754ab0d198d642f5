// Package badge implements the stat badge positioning canvas used by the
// character card layout editor.
//
// A canvas holds a collection of badges, one per stat, placed at normalized
// percentage coordinates. Badges are moved by pointer drags that clamp to the
// canvas, align with sibling badges and snap to a grid. The canvas never owns
// the collection: every change is reported through the change callback and the
// owner hands the accepted collection back with SetBadges.
package badge

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultX is the horizontal position assigned to a newly added badge.
	DefaultX = 50.0
	// DefaultY is the vertical position assigned to a newly added badge.
	DefaultY = 50.0
	// DefaultSize is the relative scale assigned to a newly added badge.
	DefaultSize = 1.0
	// DefaultShape is the shape assigned to a newly added badge.
	DefaultShape = ShapeHexagon

	// MinPosition and MaxPosition bound badge coordinates in percent.
	MinPosition = 0.0
	MaxPosition = 100.0
)

// Badge shapes understood by card renderers.
const (
	ShapeHexagon = "hexagon"
	ShapeHeart   = "heart"
	ShapeShield  = "shield"
)

// Stat describes one character attribute slot shown on a card.
type Stat struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Visible bool   `json:"visible"`
	Order   int    `json:"order"`
	// Required stats (HP, AC) are always rendered by the card itself and are
	// never offered as placeable badges.
	Required bool `json:"required,omitempty"`
}

// Badge is a marker bound to exactly one stat.
type Badge struct {
	Stat     string   `json:"stat"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Size     *float64 `json:"size,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
	Shape    string   `json:"shape,omitempty"`
}

// NewBadge returns a badge for statKey at the default position, size and shape.
func NewBadge(statKey string) Badge {
	size := DefaultSize
	return Badge{
		Stat:  statKey,
		X:     DefaultX,
		Y:     DefaultY,
		Size:  &size,
		Shape: DefaultShape,
	}
}

// Label returns the marker label for the badge: the upper-cased first
// character of its stat key.
func (b Badge) Label() string {
	key := strings.TrimSpace(b.Stat)
	if key == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(key)
	return string(unicode.ToUpper(r))
}

// Clone returns a deep copy of the badge.
func (b Badge) Clone() Badge {
	out := b
	if b.Size != nil {
		size := *b.Size
		out.Size = &size
	}
	if b.Rotation != nil {
		rotation := *b.Rotation
		out.Rotation = &rotation
	}
	return out
}

// CloneBadges returns a deep copy of badges. A nil input yields an empty,
// non-nil slice so callers can always serialize the result as a list.
func CloneBadges(badges []Badge) []Badge {
	out := make([]Badge, len(badges))
	for i, b := range badges {
		out[i] = b.Clone()
	}
	return out
}

// IndexOf returns the index of the badge bound to statKey, or -1.
func IndexOf(badges []Badge, statKey string) int {
	for i, b := range badges {
		if b.Stat == statKey {
			return i
		}
	}
	return -1
}

// Has reports whether badges contains a badge bound to statKey.
func Has(badges []Badge, statKey string) bool {
	return IndexOf(badges, statKey) >= 0
}

// SortStats returns a copy of stats ordered by Order, keeping input order for
// equal ranks.
func SortStats(stats []Stat) []Stat {
	out := append([]Stat(nil), stats...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// FindStat returns the stat with key and whether it exists.
func FindStat(stats []Stat, key string) (Stat, bool) {
	for _, s := range stats {
		if s.Key == key {
			return s, true
		}
	}
	return Stat{}, false
}

// clampPercent keeps v on the canvas. NaN maps to MinPosition.
func clampPercent(v float64) float64 {
	if math.IsNaN(v) || v < MinPosition {
		return MinPosition
	}
	if v > MaxPosition {
		return MaxPosition
	}
	return v
}
