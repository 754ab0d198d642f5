package domain

// ThemeSource names where a resolved theme came from.
type ThemeSource string

const (
	ThemeSourceCharacter ThemeSource = "character"
	ThemeSourceLayout    ThemeSource = "layout"
	ThemeSourcePreset    ThemeSource = "preset"
)

// ResolvedTheme is the theme a card is drawn with.
type ResolvedTheme struct {
	ColorTheme
	Source ThemeSource `json:"source"`
}

// ResolveTheme merges the color theme for character on layout. Each
// non-empty field of the character override wins, then the layout theme,
// then the layout preset (or the default preset).
func ResolveTheme(layout CardLayout, character Character) ResolvedTheme {
	base := DefaultPreset().ColorTheme
	if p, ok := LookupPreset(layout.ColorPreset); ok {
		base = p.ColorTheme
	}
	source := ThemeSourcePreset
	theme := base
	if !layout.ColorTheme.IsZero() {
		theme = fillTheme(layout.ColorTheme, base)
		source = ThemeSourceLayout
	}
	if character.ThemeOverride != nil && !character.ThemeOverride.IsZero() {
		theme = fillTheme(*character.ThemeOverride, theme)
		source = ThemeSourceCharacter
	}
	return ResolvedTheme{ColorTheme: theme.Clone(), Source: source}
}
