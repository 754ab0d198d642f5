package badge

import (
	"errors"
	"math"
	"strings"
)

var (
	// ErrDuplicateBadge indicates the stat already has a badge on the canvas.
	ErrDuplicateBadge = errors.New("badge already placed for stat")
	// ErrEmptyStatKey indicates a badge was requested for a blank stat key.
	ErrEmptyStatKey = errors.New("stat key is required")
)

// Point is a pointer position in the same units as the canvas bounds.
type Point struct {
	X float64
	Y float64
}

// Rect is the canvas bounding box in pointer units.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Valid reports whether the rectangle has a usable area.
func (r Rect) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// Contains reports whether p lies inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Left+r.Width && p.Y >= r.Top && p.Y < r.Top+r.Height
}

// Project converts a badge position in percent to a pointer position.
func (r Rect) Project(x, y float64) Point {
	return Point{
		X: r.Left + x*r.Width/100,
		Y: r.Top + y*r.Height/100,
	}
}

// BoundsFunc reports the current canvas bounding box. It returns false while
// the canvas is not laid out.
type BoundsFunc func() (Rect, bool)

// PointerSource delivers global pointer events for the duration of a drag.
// Subscribe registers both handlers and returns the function that removes
// them; the canvas calls it exactly once.
type PointerSource interface {
	Subscribe(onMove func(Point), onRelease func()) (unsubscribe func())
}

// Mode is the drag state of a canvas.
type Mode int

const (
	// Idle means no badge is being dragged.
	Idle Mode = iota
	// Dragging means exactly one badge follows the pointer.
	Dragging
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// Option configures a Canvas.
type Option func(*Canvas)

// WithGridSize sets the grid unit in percent. Non-positive values disable
// grid snapping.
func WithGridSize(size float64) Option {
	return func(c *Canvas) {
		c.gridSize = size
	}
}

// WithSnapDistance sets the sibling alignment distance in percent.
func WithSnapDistance(distance float64) Option {
	return func(c *Canvas) {
		c.snapDistance = distance
	}
}

// WithBounds sets the bounding box provider.
func WithBounds(bounds BoundsFunc) Option {
	return func(c *Canvas) {
		c.bounds = bounds
	}
}

// WithPointerSource sets where global move and release listeners are
// registered while dragging.
func WithPointerSource(source PointerSource) Option {
	return func(c *Canvas) {
		c.pointer = source
	}
}

// Canvas is the drag, snap and align engine for one badge collection.
//
// Canvas is not safe for concurrent use; it is driven from a single UI event
// loop.
type Canvas struct {
	stats    []Stat
	badges   []Badge
	onChange func([]Badge)

	gridSize     float64
	snapDistance float64
	bounds       BoundsFunc
	pointer      PointerSource

	mode        Mode
	active      string
	offset      Point
	guides      Guides
	unsubscribe func()
	closed      bool
}

// New returns an idle canvas over stats and badges. onChange receives the
// full replacement collection after every change.
func New(stats []Stat, badges []Badge, onChange func([]Badge), opts ...Option) *Canvas {
	c := &Canvas{
		stats:        append([]Stat(nil), stats...),
		badges:       CloneBadges(badges),
		onChange:     onChange,
		gridSize:     DefaultGridSize,
		snapDistance: DefaultSnapDistance,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// SetBadges replaces the collection the canvas renders and drags. Owners call
// it with the collection they accepted from the change callback.
func (c *Canvas) SetBadges(badges []Badge) {
	c.badges = CloneBadges(badges)
	if c.mode == Dragging && !Has(c.badges, c.active) {
		c.Release()
	}
}

// SetStats replaces the stat descriptors used for labels and the add list.
func (c *Canvas) SetStats(stats []Stat) {
	c.stats = append([]Stat(nil), stats...)
}

// Badges returns a copy of the current collection.
func (c *Canvas) Badges() []Badge {
	return CloneBadges(c.badges)
}

// Stats returns a copy of the stat descriptors.
func (c *Canvas) Stats() []Stat {
	return append([]Stat(nil), c.stats...)
}

// State returns the drag mode and, while dragging, the active stat key.
func (c *Canvas) State() (Mode, string) {
	return c.mode, c.active
}

// Guides returns the alignment guides of the current drag.
func (c *Canvas) Guides() Guides {
	return c.guides
}

// Add places a badge for stat at the default position. A stat that already
// has a badge is rejected with ErrDuplicateBadge and nothing is reported.
func (c *Canvas) Add(stat Stat) error {
	key := strings.TrimSpace(stat.Key)
	if key == "" {
		return ErrEmptyStatKey
	}
	if Has(c.badges, key) {
		return ErrDuplicateBadge
	}
	updated := append(CloneBadges(c.badges), NewBadge(key))
	c.emit(updated)
	return nil
}

// Remove drops the badge bound to statKey, leaving every other badge in place.
func (c *Canvas) Remove(statKey string) {
	updated := make([]Badge, 0, len(c.badges))
	for _, b := range c.badges {
		if b.Stat == statKey {
			continue
		}
		updated = append(updated, b.Clone())
	}
	c.emit(updated)
}

// Press starts dragging the badge bound to statKey from pointer p. It is a
// no-op when the canvas has no bounding box or the badge does not exist, and
// reports whether a drag started.
func (c *Canvas) Press(p Point, statKey string) bool {
	if c.closed || c.bounds == nil {
		return false
	}
	rect, ok := c.bounds()
	if !ok || !rect.Valid() {
		return false
	}
	idx := IndexOf(c.badges, statKey)
	if idx < 0 {
		return false
	}
	if c.mode == Dragging {
		c.Release()
	}

	b := c.badges[idx]
	c.offset = Point{
		X: p.X - rect.Left - b.X*rect.Width/100,
		Y: p.Y - rect.Top - b.Y*rect.Height/100,
	}
	c.mode = Dragging
	c.active = statKey
	c.guides = Guides{}
	if c.pointer != nil {
		c.unsubscribe = c.pointer.Subscribe(func(p Point) { c.Move(p) }, c.Release)
	}
	return true
}

// Move updates the dragged badge from pointer p and returns the alignment
// guides applied. It does nothing while idle, without a bounding box, or
// for a pointer with non-finite coordinates.
func (c *Canvas) Move(p Point) Guides {
	if c.mode != Dragging || c.bounds == nil {
		return Guides{}
	}
	if !finite(p.X) || !finite(p.Y) {
		return c.guides
	}
	rect, ok := c.bounds()
	if !ok || !rect.Valid() {
		return c.guides
	}
	idx := IndexOf(c.badges, c.active)
	if idx < 0 {
		c.Release()
		return Guides{}
	}

	x := clampPercent((p.X - rect.Left - c.offset.X) * 100 / rect.Width)
	y := clampPercent((p.Y - rect.Top - c.offset.Y) * 100 / rect.Height)
	x, y, guides := Align(x, y, c.badges, c.active, c.snapDistance)
	c.guides = guides

	updated := CloneBadges(c.badges)
	updated[idx].X = SnapToGrid(x, c.gridSize)
	updated[idx].Y = SnapToGrid(y, c.gridSize)
	c.emit(updated)
	return guides
}

// Release ends the current drag, clears guides and drops the pointer
// listeners.
func (c *Canvas) Release() {
	if c.mode != Dragging {
		return
	}
	c.mode = Idle
	c.active = ""
	c.offset = Point{}
	c.guides = Guides{}
	c.dropListeners()
}

// Close tears the canvas down, releasing any listeners held by a drag in
// progress. A closed canvas ignores further presses.
func (c *Canvas) Close() {
	c.Release()
	c.dropListeners()
	c.closed = true
}

func (c *Canvas) dropListeners() {
	if c.unsubscribe == nil {
		return
	}
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	unsubscribe()
}

func (c *Canvas) emit(updated []Badge) {
	if c.onChange != nil {
		c.onChange(updated)
	}
}

// Available returns the stats that can still be added: not required, not yet
// placed, ordered by rank.
func (c *Canvas) Available() []Stat {
	out := make([]Stat, 0, len(c.stats))
	for _, s := range SortStats(c.stats) {
		if s.Required || Has(c.badges, s.Key) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Entry is one row of the placed badge list.
type Entry struct {
	Stat  string
	Label string
	X     float64
	Y     float64
}

// Entries lists placed badges in collection order, skipping required stats.
// Labels fall back to the stat key when the stat is not configured.
func (c *Canvas) Entries() []Entry {
	out := make([]Entry, 0, len(c.badges))
	for _, b := range c.badges {
		label := b.Stat
		if s, ok := FindStat(c.stats, b.Stat); ok {
			if s.Required {
				continue
			}
			if strings.TrimSpace(s.Label) != "" {
				label = s.Label
			}
		}
		out = append(out, Entry{Stat: b.Stat, Label: label, X: b.X, Y: b.Y})
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
