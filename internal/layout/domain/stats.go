package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/tablecards/internal/layout/badge"
)

var (
	// ErrStatNotFound indicates a stat key the layout does not configure.
	ErrStatNotFound = errors.New("stat not found")
	// ErrStatExists indicates a stat key the layout already configures.
	ErrStatExists = errors.New("stat already configured")
)

// Direction moves a stat within the display order.
type Direction int

const (
	Up Direction = iota
	Down
)

// NormalizeStatKey lowercases key and joins whitespace runs with underscores.
func NormalizeStatKey(key string) string {
	return strings.Join(strings.Fields(strings.ToLower(key)), "_")
}

// SortedStats returns the layout stats ordered for display.
func SortedStats(stats []badge.Stat) []badge.Stat {
	return badge.SortStats(stats)
}

// ToggleStat flips the visibility of key. Required stats stay visible.
func ToggleStat(stats []badge.Stat, key string) ([]badge.Stat, error) {
	out := append([]badge.Stat(nil), stats...)
	for i := range out {
		if out[i].Key != key {
			continue
		}
		if !out[i].Required {
			out[i].Visible = !out[i].Visible
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrStatNotFound, key)
}

// RenameStat sets the display label of key.
func RenameStat(stats []badge.Stat, key, label string) ([]badge.Stat, error) {
	out := append([]badge.Stat(nil), stats...)
	for i := range out {
		if out[i].Key == key {
			out[i].Label = label
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrStatNotFound, key)
}

// AddStat appends a visible stat after the highest ranked one. The key is
// normalized and a blank label defaults to the upper-cased key.
func AddStat(stats []badge.Stat, key, label string) ([]badge.Stat, error) {
	key = NormalizeStatKey(key)
	if key == "" {
		return nil, badge.ErrEmptyStatKey
	}
	if _, ok := badge.FindStat(stats, key); ok {
		return nil, fmt.Errorf("%w: %q", ErrStatExists, key)
	}
	if len(stats) >= MaxStats {
		return nil, ErrInvalidStats
	}
	label = strings.ToUpper(strings.TrimSpace(label))
	if label == "" {
		label = strings.ToUpper(key)
	}
	order := 0
	for i, s := range stats {
		if i == 0 || s.Order+1 > order {
			order = s.Order + 1
		}
	}
	out := append(append([]badge.Stat(nil), stats...), badge.Stat{
		Key:     key,
		Label:   label,
		Visible: true,
		Order:   order,
	})
	return out, nil
}

// RemoveStat drops key from the layout together with its badge.
func RemoveStat(layout CardLayout, key string) (CardLayout, error) {
	if _, ok := badge.FindStat(layout.Stats, key); !ok {
		return CardLayout{}, fmt.Errorf("%w: %q", ErrStatNotFound, key)
	}
	out := layout.Clone()
	stats := make([]badge.Stat, 0, len(out.Stats))
	for _, s := range out.Stats {
		if s.Key != key {
			stats = append(stats, s)
		}
	}
	badges := make([]badge.Badge, 0, len(out.Badges))
	for _, b := range out.Badges {
		if b.Stat != key {
			badges = append(badges, b)
		}
	}
	out.Stats = stats
	out.Badges = badges
	return out, nil
}

// MoveStat swaps the rank of key with its display neighbour. Moving the first
// stat up or the last stat down leaves the order unchanged.
func MoveStat(stats []badge.Stat, key string, dir Direction) ([]badge.Stat, error) {
	sorted := badge.SortStats(stats)
	idx := -1
	for i, s := range sorted {
		if s.Key == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrStatNotFound, key)
	}
	other := idx - 1
	if dir == Down {
		other = idx + 1
	}
	if other < 0 || other >= len(sorted) {
		return sorted, nil
	}
	sorted[idx].Order, sorted[other].Order = sorted[other].Order, sorted[idx].Order
	return badge.SortStats(sorted), nil
}
