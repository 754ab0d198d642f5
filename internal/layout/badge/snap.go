package badge

import "math"

const (
	// DefaultGridSize is the grid unit, in percent of the canvas.
	DefaultGridSize = 8.0
	// DefaultSnapDistance is how close, in percent, a dragged badge must be to
	// a sibling before it aligns with it.
	DefaultSnapDistance = 8.0
)

// Guides holds the alignment lines shown while dragging. A nil axis has no
// guide.
type Guides struct {
	Vertical   *float64 `json:"vertical,omitempty"`
	Horizontal *float64 `json:"horizontal,omitempty"`
}

// Empty reports whether no guide is set on either axis.
func (g Guides) Empty() bool {
	return g.Vertical == nil && g.Horizontal == nil
}

// SnapToGrid rounds v to the nearest multiple of grid inside [0, 100].
//
// Ties resolve to the lower multiple, and a multiple past 100 steps back one
// grid unit, so the result always satisfies both the bounds and the grid.
// A non-positive grid returns v clamped.
func SnapToGrid(v, grid float64) float64 {
	v = clampPercent(v)
	if grid <= 0 {
		return v
	}
	snapped := math.Ceil(v/grid-0.5) * grid
	if snapped > MaxPosition {
		snapped -= grid
	}
	if snapped < MinPosition {
		snapped += grid
	}
	// math.Ceil(-0.5) is -0.
	if snapped == 0 {
		return 0
	}
	return snapped
}

// Align snaps the candidate position (x, y) to sibling badges.
//
// Every badge other than the one bound to activeStat is compared against the
// raw candidate, in collection order. An axis aligns when the distance is
// strictly below distance; when several siblings qualify on one axis the last
// one wins. The returned guides report the aligned coordinates. Earlier
// matches do not move the candidate, so the result can differ from snapping
// to each sibling in turn.
func Align(x, y float64, badges []Badge, activeStat string, distance float64) (float64, float64, Guides) {
	var guides Guides
	outX, outY := x, y
	for _, b := range badges {
		if b.Stat == activeStat {
			continue
		}
		if math.Abs(x-b.X) < distance {
			v := b.X
			outX = v
			guides.Vertical = &v
		}
		if math.Abs(y-b.Y) < distance {
			v := b.Y
			outY = v
			guides.Horizontal = &v
		}
	}
	return outX, outY, guides
}
