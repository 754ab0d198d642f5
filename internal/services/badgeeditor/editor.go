// Package badgeeditor is the terminal badge editor: a mouse driven front end
// over the badge positioning canvas of one card layout.
package badgeeditor

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/louisbranch/tablecards/internal/layout/badge"
	"github.com/louisbranch/tablecards/internal/layout/domain"
)

const (
	panelWidth = 30
	// Markers are three cells wide ("[S]"), so a press counts within one cell
	// of the projected center horizontally and on the same row vertically.
	hitRadiusX = 1.5
	hitRadiusY = 0.5
)

// addKeys are offered, in order, for the stats that can still be added.
// p, q, s and x are reserved for commands.
const addKeys = "123456789abcdefghijklmnortuvwyz"

// Saver stores the edited layout and returns the stored version.
type Saver interface {
	SaveLayout(ctx context.Context, layout domain.CardLayout) (domain.CardLayout, error)
}

// Cue plays a short sound when an alignment guide appears.
type Cue interface {
	Play()
}

// Option configures an Editor.
type Option func(*Editor)

// WithSaver sets where s saves the layout. Without one saving reports an
// error in the status line.
func WithSaver(saver Saver) Option {
	return func(e *Editor) {
		e.saver = saver
	}
}

// WithCue sets the snap cue.
func WithCue(cue Cue) Option {
	return func(e *Editor) {
		e.cue = cue
	}
}

// Editor owns the layout being edited and the canvas that moves its badges.
// It is driven from a single event loop.
type Editor struct {
	screen tcell.Screen
	saver  Saver
	cue    Cue

	layout  domain.CardLayout
	canvas  *badge.Canvas
	pointer *badge.Listeners

	rect       badge.Rect
	rectOK     bool
	buttonDown bool
	hadGuides  bool

	lastTouched string
	status      string
	dirty       bool
}

// New returns an editor for layout drawn on screen.
func New(screen tcell.Screen, layout domain.CardLayout, opts ...Option) *Editor {
	e := &Editor{
		screen:  screen,
		layout:  layout.Clone(),
		pointer: &badge.Listeners{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.canvas = badge.New(e.layout.Stats, e.layout.Badges, e.accept,
		badge.WithBounds(e.bounds),
		badge.WithPointerSource(e.pointer),
	)
	e.Resize()
	return e
}

// accept is the canvas change callback: the editor takes every proposed
// collection as the new layout badges.
func (e *Editor) accept(badges []badge.Badge) {
	e.layout.Badges = badges
	e.canvas.SetBadges(badges)
	e.dirty = true
}

func (e *Editor) bounds() (badge.Rect, bool) {
	return e.rect, e.rectOK
}

// Layout returns a copy of the layout as edited so far.
func (e *Editor) Layout() domain.CardLayout {
	return e.layout.Clone()
}

// Dirty reports whether there are unsaved changes.
func (e *Editor) Dirty() bool {
	return e.dirty
}

// Status returns the status line message.
func (e *Editor) Status() string {
	return e.status
}

// CanvasRect returns the canvas area in cells and whether it is usable.
func (e *Editor) CanvasRect() (badge.Rect, bool) {
	return e.rect, e.rectOK
}

// Resize recomputes the canvas area from the screen size. The canvas sits
// inside a border left of the side panel, above the status line.
func (e *Editor) Resize() {
	w, h := e.screen.Size()
	e.rect = badge.Rect{
		Left:   1,
		Top:    1,
		Width:  float64(w - panelWidth - 2),
		Height: float64(h - 4),
	}
	e.rectOK = e.rect.Valid()
}

// AddKeys maps the add panel keys to the stats they add.
func (e *Editor) AddKeys() map[rune]badge.Stat {
	available := e.canvas.Available()
	out := make(map[rune]badge.Stat, len(available))
	for i, stat := range available {
		if i >= len(addKeys) {
			break
		}
		out[rune(addKeys[i])] = stat
	}
	return out
}

func cellPoint(x, y int) badge.Point {
	return badge.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}
}

// HandleEvent applies one terminal event and reports whether the editor
// should quit.
func (e *Editor) HandleEvent(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return e.handleKey(ctx, ev)
	case *tcell.EventMouse:
		e.handleMouse(ev)
	case *tcell.EventResize:
		e.screen.Sync()
		e.Resize()
	}
	return false
}

func (e *Editor) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	p := cellPoint(x, y)
	held := ev.Buttons()&tcell.Button1 != 0

	switch {
	case held && !e.buttonDown:
		e.buttonDown = true
		if !e.rectOK || !e.rect.Contains(p) {
			return
		}
		stat, ok := e.canvas.BadgeAt(p, hitRadiusX, hitRadiusY)
		if !ok {
			return
		}
		if e.canvas.Press(p, stat) {
			e.lastTouched = stat
			e.hadGuides = false
		}
	case held && e.buttonDown:
		e.pointer.Move(p)
		guides := e.canvas.Guides()
		if !guides.Empty() && !e.hadGuides && e.cue != nil {
			e.cue.Play()
		}
		e.hadGuides = !guides.Empty()
	case !held && e.buttonDown:
		e.buttonDown = false
		e.pointer.Release()
		e.hadGuides = false
	}
}

func (e *Editor) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		e.canvas.Close()
		return true
	case tcell.KeyRune:
	default:
		return false
	}

	r := ev.Rune()
	switch r {
	case 'q':
		e.canvas.Close()
		return true
	case 'x':
		e.removeLastTouched()
	case 'p':
		e.cyclePreset()
	case 's':
		e.save(ctx)
	default:
		if stat, ok := e.AddKeys()[r]; ok {
			if err := e.canvas.Add(stat); err != nil {
				e.status = err.Error()
				return false
			}
			e.lastTouched = stat.Key
			e.status = "added " + statLabel(stat)
		}
	}
	return false
}

func (e *Editor) removeLastTouched() {
	if e.lastTouched == "" {
		e.status = "nothing to remove"
		return
	}
	if !badge.Has(e.layout.Badges, e.lastTouched) {
		e.lastTouched = ""
		return
	}
	e.canvas.Remove(e.lastTouched)
	e.status = "removed " + e.lastTouched
	e.lastTouched = ""
}

func (e *Editor) cyclePreset() {
	next, err := domain.ApplyPreset(e.layout, domain.CyclePreset(e.layout.ColorPreset))
	if err != nil {
		e.status = err.Error()
		return
	}
	e.layout = next
	e.dirty = true
	if preset, ok := domain.LookupPreset(next.ColorPreset); ok {
		e.status = "preset " + preset.Name
	}
}

func (e *Editor) save(ctx context.Context) {
	if e.saver == nil {
		e.status = "save unavailable"
		return
	}
	saved, err := e.saver.SaveLayout(ctx, e.layout)
	if err != nil {
		log.Printf("save layout: %v", err)
		e.status = "save failed: " + err.Error()
		return
	}
	e.layout = saved.Clone()
	e.canvas.SetStats(e.layout.Stats)
	e.canvas.SetBadges(e.layout.Badges)
	e.dirty = false
	e.status = "saved " + saved.Name
}

func statLabel(stat badge.Stat) string {
	if label := strings.TrimSpace(stat.Label); label != "" {
		return label
	}
	return stat.Key
}

// Run draws and handles events until the user quits or ctx ends.
func (e *Editor) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go e.screen.ChannelEvents(events, quit)

	e.Draw()
	for {
		select {
		case <-ctx.Done():
			e.canvas.Close()
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if e.HandleEvent(ctx, ev) {
				return nil
			}
			e.Draw()
		}
	}
}

var (
	styleDefault = tcell.StyleDefault
	styleBorder  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleGrid    = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	styleGuide   = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	styleMarker  = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorGold)
	styleActive  = styleMarker.Reverse(true).Bold(true)
	styleHeader  = tcell.StyleDefault.Bold(true)
	styleMuted   = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// Draw renders the canvas, the side panel and the status line.
func (e *Editor) Draw() {
	e.screen.Clear()
	w, h := e.screen.Size()
	if e.rectOK {
		e.drawCanvas()
	} else {
		e.text(0, 0, "terminal too small", styleMuted)
	}
	e.drawPanel(w)
	if h > 1 {
		e.text(0, h-2, e.status, styleDefault)
		e.text(0, h-1, "drag: mouse  x: remove  p: preset  s: save  q: quit", styleMuted)
	}
	e.screen.Show()
}

func (e *Editor) drawCanvas() {
	r := e.rect
	left, top := int(r.Left), int(r.Top)
	right, bottom := left+int(r.Width), top+int(r.Height)

	for x := left; x < right; x++ {
		e.screen.SetContent(x, top-1, '─', nil, styleBorder)
		e.screen.SetContent(x, bottom, '─', nil, styleBorder)
	}
	for y := top; y < bottom; y++ {
		e.screen.SetContent(left-1, y, '│', nil, styleBorder)
		e.screen.SetContent(right, y, '│', nil, styleBorder)
	}
	e.screen.SetContent(left-1, top-1, '┌', nil, styleBorder)
	e.screen.SetContent(right, top-1, '┐', nil, styleBorder)
	e.screen.SetContent(left-1, bottom, '└', nil, styleBorder)
	e.screen.SetContent(right, bottom, '┘', nil, styleBorder)

	scene := e.canvas.Scene()
	if scene.GridSize > 0 {
		for gy := 0.0; gy <= badge.MaxPosition; gy += scene.GridSize {
			for gx := 0.0; gx <= badge.MaxPosition; gx += scene.GridSize {
				if x, y, ok := e.cell(gx, gy); ok {
					e.screen.SetContent(x, y, '·', nil, styleGrid)
				}
			}
		}
	}
	if v := scene.Guides.Vertical; v != nil {
		if x, _, ok := e.cell(*v, 0); ok {
			for y := top; y < bottom; y++ {
				e.screen.SetContent(x, y, '┆', nil, styleGuide)
			}
		}
	}
	if hz := scene.Guides.Horizontal; hz != nil {
		if _, y, ok := e.cell(0, *hz); ok {
			for x := left; x < right; x++ {
				e.screen.SetContent(x, y, '┄', nil, styleGuide)
			}
		}
	}

	if scene.Empty {
		msg := "add a badge from the panel"
		e.text(left+max(0, (int(r.Width)-len(msg))/2), top+int(r.Height)/2, msg, styleMuted)
		return
	}
	for _, m := range scene.Markers {
		x, y, ok := e.cell(m.X, m.Y)
		if !ok {
			continue
		}
		style := styleMarker
		if m.Active {
			style = styleActive
		}
		e.text(x-1, y, "["+m.Label+"]", style)
	}
}

// cell projects a position in percent to the terminal cell that holds it.
func (e *Editor) cell(xPct, yPct float64) (int, int, bool) {
	p := e.rect.Project(xPct, yPct)
	x := int(math.Floor(p.X))
	y := int(math.Floor(p.Y))
	right := int(e.rect.Left + e.rect.Width)
	bottom := int(e.rect.Top + e.rect.Height)
	if x >= right {
		x = right - 1
	}
	if y >= bottom {
		y = bottom - 1
	}
	return x, y, x >= int(e.rect.Left) && y >= int(e.rect.Top)
}

func (e *Editor) drawPanel(w int) {
	x := w - panelWidth
	if x < 0 {
		return
	}
	y := 0
	title := e.layout.Name
	if e.dirty {
		title += " *"
	}
	e.text(x, y, title, styleHeader)
	y++
	if preset, ok := domain.LookupPreset(e.layout.ColorPreset); ok {
		e.text(x, y, "preset: "+preset.Name, styleMuted)
	}
	y += 2

	e.text(x, y, "Add", styleHeader)
	y++
	keys := e.AddKeys()
	if len(keys) == 0 {
		e.text(x, y, "every stat is placed", styleMuted)
		y++
	}
	for i := 0; i < len(addKeys); i++ {
		stat, ok := keys[rune(addKeys[i])]
		if !ok {
			continue
		}
		e.text(x, y, fmt.Sprintf("[%c] %s", addKeys[i], statLabel(stat)), styleDefault)
		y++
	}
	y++

	e.text(x, y, "Placed", styleHeader)
	y++
	entries := e.canvas.Entries()
	if len(entries) == 0 {
		e.text(x, y, "no badges placed", styleMuted)
	}
	for _, entry := range entries {
		line := fmt.Sprintf("%-6s %3.0f%% %3.0f%%", entry.Label, entry.X, entry.Y)
		style := styleDefault
		if entry.Stat == e.lastTouched {
			style = style.Bold(true)
		}
		e.text(x, y, line, style)
		y++
	}
}

func (e *Editor) text(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		e.screen.SetContent(x, y, r, nil, style)
		x++
	}
}
