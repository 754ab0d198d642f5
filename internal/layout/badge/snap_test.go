package badge

import "testing"

func TestSnapToGrid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   float64
		grid float64
		want float64
	}{
		{name: "rounds down", in: 83, grid: 8, want: 80},
		{name: "rounds up", in: 85, grid: 8, want: 88},
		{name: "tie goes low", in: 12, grid: 8, want: 8},
		{name: "zero", in: 0, grid: 8, want: 0},
		{name: "below half unit", in: 3.9, grid: 8, want: 0},
		{name: "upper edge stays inside", in: 100, grid: 8, want: 96},
		{name: "clamps above", in: 140, grid: 8, want: 96},
		{name: "clamps below", in: -12, grid: 8, want: 0},
		{name: "grid dividing 100", in: 99, grid: 5, want: 100},
		{name: "disabled grid clamps only", in: 101.5, grid: 0, want: 100},
		{name: "disabled grid keeps value", in: 33.3, grid: 0, want: 33.3},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := SnapToGrid(tc.in, tc.grid); got != tc.want {
				t.Fatalf("SnapToGrid(%v, %v) = %v, want %v", tc.in, tc.grid, got, tc.want)
			}
		})
	}
}

func TestAlignIgnoresActiveBadge(t *testing.T) {
	t.Parallel()

	badges := []Badge{at("str", 44, 50)}
	x, y, guides := Align(44, 50, badges, "str", DefaultSnapDistance)
	if x != 44 || y != 50 {
		t.Fatalf("aligned = (%v, %v), want unchanged", x, y)
	}
	if !guides.Empty() {
		t.Fatalf("guides = %+v, want none", guides)
	}
}

func TestAlignRequiresStrictDistance(t *testing.T) {
	t.Parallel()

	badges := []Badge{at("str", 40, 40)}
	x, y, guides := Align(48, 32, badges, "dex", 8)
	if x != 48 || y != 32 || !guides.Empty() {
		t.Fatalf("aligned = (%v, %v, %+v), want no alignment at exactly the snap distance", x, y, guides)
	}
}

func TestAlignBothAxes(t *testing.T) {
	t.Parallel()

	badges := []Badge{at("str", 40, 40)}
	x, y, guides := Align(43, 37, badges, "dex", 8)
	if x != 40 || y != 40 {
		t.Fatalf("aligned = (%v, %v), want (40, 40)", x, y)
	}
	if guides.Vertical == nil || *guides.Vertical != 40 || guides.Horizontal == nil || *guides.Horizontal != 40 {
		t.Fatalf("guides = %+v, want both at 40", guides)
	}
}

func TestAlignComparesRawCandidate(t *testing.T) {
	t.Parallel()

	// Snapping to 38 first would put 50 out of reach; both are compared
	// against 45 instead, and the later sibling wins.
	badges := []Badge{at("str", 38, 10), at("con", 50, 90)}
	x, _, guides := Align(45, 50, badges, "dex", 8)
	if x != 50 {
		t.Fatalf("aligned x = %v, want 50", x)
	}
	if guides.Vertical == nil || *guides.Vertical != 50 {
		t.Fatalf("vertical guide = %v, want 50", guides.Vertical)
	}
}

func TestSceneMarksActiveBadge(t *testing.T) {
	t.Parallel()

	o := newOwner([]Badge{at("str", 40, 10), at("dex", 56, 80)}, WithBounds(fixedBounds()))
	scene := o.canvas.Scene()
	if scene.Empty {
		t.Fatal("expected non-empty scene")
	}
	if len(scene.Markers) != 2 {
		t.Fatalf("markers = %d, want 2", len(scene.Markers))
	}
	if scene.Markers[0].Label != "S" || scene.Markers[1].Label != "D" {
		t.Fatalf("labels = %q %q, want S D", scene.Markers[0].Label, scene.Markers[1].Label)
	}

	o.canvas.Press(Point{X: 112, Y: 80}, "dex")
	scene = o.canvas.Scene()
	if scene.Markers[0].Active || scene.Markers[0].Scale != 1 {
		t.Fatalf("idle marker = %+v, want scale 1", scene.Markers[0])
	}
	if !scene.Markers[1].Active || scene.Markers[1].Scale != ActiveScale {
		t.Fatalf("active marker = %+v, want scale %v", scene.Markers[1], ActiveScale)
	}
}

func TestSceneEmpty(t *testing.T) {
	t.Parallel()

	scene := New(testStats, nil, nil).Scene()
	if !scene.Empty || len(scene.Markers) != 0 {
		t.Fatalf("scene = %+v, want empty", scene)
	}
	if scene.GridSize != DefaultGridSize {
		t.Fatalf("grid size = %v, want %v", scene.GridSize, DefaultGridSize)
	}
}

func TestBadgeAtPicksTopmost(t *testing.T) {
	t.Parallel()

	c := New(testStats, []Badge{at("str", 50, 50), at("dex", 51, 50)}, nil, WithBounds(fixedBounds()))
	key, ok := c.BadgeAt(Point{X: 101, Y: 50}, 3, 2)
	if !ok || key != "dex" {
		t.Fatalf("BadgeAt = %q, %v, want dex", key, ok)
	}
	if _, ok := c.BadgeAt(Point{X: 10, Y: 10}, 3, 2); ok {
		t.Fatal("expected miss far from badges")
	}
}

func TestBadgeLabel(t *testing.T) {
	t.Parallel()

	tests := map[string]string{"str": "S", "wis": "W", "": "", "élan": "É"}
	for in, want := range tests {
		if got := (Badge{Stat: in}).Label(); got != want {
			t.Fatalf("Label(%q) = %q, want %q", in, got, want)
		}
	}
}
