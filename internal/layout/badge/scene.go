package badge

import "math"

// ActiveScale is the emphasis applied to the marker being dragged.
const ActiveScale = 1.25

// Marker is one rendered badge.
type Marker struct {
	Stat   string  `json:"stat"`
	Label  string  `json:"label"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Shape  string  `json:"shape,omitempty"`
	Active bool    `json:"active,omitempty"`
	Scale  float64 `json:"scale"`
}

// Scene is a render pass of the canvas: background grid, alignment guides and
// one marker per badge in collection order.
type Scene struct {
	GridSize float64  `json:"grid_size"`
	Guides   Guides   `json:"guides"`
	Markers  []Marker `json:"markers"`
	// Empty is set when there is nothing to drag yet.
	Empty bool `json:"empty"`
}

// Scene renders the current state.
func (c *Canvas) Scene() Scene {
	scene := Scene{
		GridSize: c.gridSize,
		Guides:   c.guides,
		Markers:  make([]Marker, 0, len(c.badges)),
		Empty:    len(c.badges) == 0,
	}
	for _, b := range c.badges {
		m := Marker{
			Stat:  b.Stat,
			Label: b.Label(),
			X:     b.X,
			Y:     b.Y,
			Shape: b.Shape,
			Scale: 1,
		}
		if c.mode == Dragging && b.Stat == c.active {
			m.Active = true
			m.Scale = ActiveScale
		}
		scene.Markers = append(scene.Markers, m)
	}
	return scene
}

// BadgeAt returns the stat key of the topmost badge whose projected center is
// within radius of p, measured in pointer units per axis. Later badges render
// above earlier ones and win ties.
func (c *Canvas) BadgeAt(p Point, radiusX, radiusY float64) (string, bool) {
	if c.bounds == nil {
		return "", false
	}
	rect, ok := c.bounds()
	if !ok || !rect.Valid() {
		return "", false
	}
	for i := len(c.badges) - 1; i >= 0; i-- {
		center := rect.Project(c.badges[i].X, c.badges[i].Y)
		if math.Abs(p.X-center.X) <= radiusX && math.Abs(p.Y-center.Y) <= radiusY {
			return c.badges[i].Stat, true
		}
	}
	return "", false
}
