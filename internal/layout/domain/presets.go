package domain

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

//go:embed presets.toml
var presetsTOML string

// ColorPreset is a named color theme offered by the layout editor.
type ColorPreset struct {
	ID          string `json:"id" toml:"id"`
	Name        string `json:"name" toml:"name"`
	Description string `json:"description" toml:"description"`
	ColorTheme
}

type presetFile struct {
	Default string        `toml:"default"`
	Presets []ColorPreset `toml:"preset"`
}

type presetCatalog struct {
	defaultID string
	order     []string
	byID      map[string]ColorPreset
}

var (
	catalogOnce sync.Once
	catalog     presetCatalog
)

func loadedCatalog() presetCatalog {
	catalogOnce.Do(func() {
		parsed, err := parsePresets(presetsTOML)
		if err != nil {
			panic(fmt.Sprintf("parse embedded presets: %v", err))
		}
		catalog = parsed
	})
	return catalog
}

func parsePresets(data string) (presetCatalog, error) {
	var file presetFile
	if _, err := toml.Decode(data, &file); err != nil {
		return presetCatalog{}, fmt.Errorf("decode presets: %w", err)
	}
	if len(file.Presets) == 0 {
		return presetCatalog{}, fmt.Errorf("no presets defined")
	}
	out := presetCatalog{
		order: make([]string, 0, len(file.Presets)),
		byID:  make(map[string]ColorPreset, len(file.Presets)),
	}
	for _, p := range file.Presets {
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			return presetCatalog{}, fmt.Errorf("preset id is required")
		}
		if _, ok := out.byID[p.ID]; ok {
			return presetCatalog{}, fmt.Errorf("duplicate preset %q", p.ID)
		}
		if err := p.Validate(); err != nil {
			return presetCatalog{}, fmt.Errorf("preset %q: %w", p.ID, err)
		}
		out.order = append(out.order, p.ID)
		out.byID[p.ID] = p
	}
	out.defaultID = strings.TrimSpace(file.Default)
	if out.defaultID == "" {
		out.defaultID = out.order[0]
	}
	if _, ok := out.byID[out.defaultID]; !ok {
		return presetCatalog{}, fmt.Errorf("default preset %q is not defined", out.defaultID)
	}
	return out, nil
}

func (c presetCatalog) lookup(id string) (ColorPreset, bool) {
	p, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return ColorPreset{}, false
	}
	p.ColorTheme = p.ColorTheme.Clone()
	return p, true
}

func (c presetCatalog) next(current string) string {
	current = strings.TrimSpace(current)
	for i, id := range c.order {
		if id == current {
			return c.order[(i+1)%len(c.order)]
		}
	}
	return c.order[0]
}

// Presets returns every preset in cycle order.
func Presets() []ColorPreset {
	c := loadedCatalog()
	out := make([]ColorPreset, 0, len(c.order))
	for _, id := range c.order {
		p, _ := c.lookup(id)
		out = append(out, p)
	}
	return out
}

// Preset returns the preset with the given id.
func Preset(id string) (ColorPreset, error) {
	p, ok := LookupPreset(id)
	if !ok {
		return ColorPreset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, id)
	}
	return p, nil
}

// LookupPreset returns the preset with the given id and whether it exists.
func LookupPreset(id string) (ColorPreset, bool) {
	return loadedCatalog().lookup(id)
}

// DefaultPreset returns the preset new layouts start with.
func DefaultPreset() ColorPreset {
	c := loadedCatalog()
	p, _ := c.lookup(c.defaultID)
	return p
}

// CyclePreset returns the preset after current, wrapping at the end. An empty
// or unknown id yields the first preset.
func CyclePreset(current string) string {
	return loadedCatalog().next(current)
}

// ApplyPreset replaces the layout theme with the preset colors and records
// the preset id.
func ApplyPreset(layout CardLayout, presetID string) (CardLayout, error) {
	p, err := Preset(presetID)
	if err != nil {
		return CardLayout{}, err
	}
	out := layout.Clone()
	out.ColorPreset = p.ID
	out.ColorTheme = p.ColorTheme
	out.BorderColorCount = len(p.BorderColors)
	return out, nil
}

// fillTheme copies every color base defines into the fields theme leaves
// empty.
func fillTheme(theme, base ColorTheme) ColorTheme {
	out := theme.Clone()
	if len(out.BorderColors) == 0 {
		out.BorderColors = cloneStrings(base.BorderColors)
	}
	if out.TextColor == "" {
		out.TextColor = base.TextColor
	}
	out.BadgeInterior = fillGradient(out.BadgeInterior, base.BadgeInterior)
	out.HPColor = fillStatColor(out.HPColor, base.HPColor)
	out.ACColor = fillStatColor(out.ACColor, base.ACColor)
	return out
}

func fillGradient(g, base Gradient) Gradient {
	if g.Type == "" {
		g.Type = base.Type
	}
	if len(g.Colors) == 0 {
		g.Colors = cloneStrings(base.Colors)
	}
	return g
}

func fillStatColor(c, base StatColor) StatColor {
	if c.Border == "" {
		c.Border = base.Border
	}
	c.Interior = fillGradient(c.Interior, base.Interior)
	return c
}
