package web

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/louisbranch/tablecards/internal/layout/badge"
	"github.com/louisbranch/tablecards/internal/layout/domain"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/overlay"
	"golang.org/x/text/message"
)

// htmlWriter writes markup and keeps the first error.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(parts ...string) {
	for _, p := range parts {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, p)
	}
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) render(ctx context.Context, c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

// Page wraps children in the document shell.
func Page(title, lang string, bodyClass string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<!DOCTYPE html><html lang="`, templ.EscapeString(lang), `"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(title)
		h.raw(`</title><style>`, baseCSS, `</style></head><body class="`, templ.EscapeString(bodyClass), `">`)
		h.render(ctx, templ.GetChildren(ctx))
		h.raw(`</body></html>`)
		return h.err
	})
}

const baseCSS = `body{font-family:system-ui,sans-serif;margin:0;padding:1rem}
body.dark{background:#111;color:#eee}body.light{background:#fafafa;color:#222}
.cards{display:grid;gap:1rem;grid-template-columns:repeat(auto-fill,minmax(16rem,1fr))}
.cards.horizontal{display:flex;flex-direction:row;overflow-x:auto}
.cards.vertical{display:flex;flex-direction:column}
.card{border:4px solid;border-radius:.75rem;padding:.75rem;position:relative}
.card .portrait{position:relative;background-size:cover;background-position:center}
.card .portrait.square{aspect-ratio:1/1}.card .portrait.portrait{aspect-ratio:3/4}.card .portrait.landscape{aspect-ratio:4/3}
.badge{position:absolute;transform:translate(-50%,-50%);min-width:2.5rem;text-align:center;padding:.25rem;border-radius:.5rem;font-weight:700}
.stats{display:flex;gap:.5rem;flex-wrap:wrap}.stat{padding:.25rem .5rem;border-radius:.25rem}
.muted{opacity:.6}`

// CampaignList renders the campaign index.
func CampaignList(p *message.Printer, campaigns []domain.Campaign) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<h1>`)
		h.text(p.Sprintf("web.campaigns.title"))
		h.raw(`</h1>`)
		if len(campaigns) == 0 {
			h.raw(`<p class="muted">`)
			h.text(p.Sprintf("web.campaigns.empty"))
			h.raw(`</p>`)
			return h.err
		}
		h.raw(`<ul>`)
		for _, c := range campaigns {
			h.raw(`<li><a href="/campaigns/`, templ.EscapeString(c.Slug), `">`)
			h.text(c.Name)
			h.raw(`</a>`)
			if c.Description != "" {
				h.raw(` <span class="muted">`)
				h.text(c.Description)
				h.raw(`</span>`)
			}
			h.raw(`</li>`)
		}
		h.raw(`</ul>`)
		return h.err
	})
}

// SearchForm is the current character filter of the campaign page.
type SearchForm struct {
	Query string
	Class string
	Race  string
	Sort  string
}

// CampaignPage renders a campaign with its character roster.
func CampaignPage(p *message.Printer, snap overlay.Snapshot, form SearchForm) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<h1>`)
		h.text(snap.Campaign.Name)
		h.raw(`</h1>`)
		if snap.Campaign.Description != "" {
			h.raw(`<p>`)
			h.text(snap.Campaign.Description)
			h.raw(`</p>`)
		}
		h.raw(`<form method="get" class="search"><input type="search" name="q" value="`, templ.EscapeString(form.Query), `" placeholder="`)
		h.text(p.Sprintf("web.search.placeholder"))
		h.raw(`"><input type="text" name="class" value="`, templ.EscapeString(form.Class), `">`)
		h.raw(`<input type="text" name="race" value="`, templ.EscapeString(form.Race), `">`)
		h.raw(`<select name="sort">`)
		for _, s := range []string{"name", "class", "race"} {
			selected := ""
			if s == form.Sort {
				selected = " selected"
			}
			h.raw(`<option value="`, s, `"`, selected, `>`, s, `</option>`)
		}
		h.raw(`</select><button type="submit">&#x1F50D;</button></form>`)

		h.raw(`<h2>`)
		h.text(p.Sprintf("web.characters.title"))
		h.raw(`</h2>`)
		h.render(ctx, CharacterList(p, snap.Campaign, snap.Layout, snap.Roster, "grid"))
		return h.err
	})
}

// CharacterList renders roster cards arranged by layout
// (horizontal, vertical or grid).
func CharacterList(p *message.Printer, campaign domain.Campaign, layout domain.CardLayout, roster []overlay.Card, arrangement string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		if len(roster) == 0 {
			h.raw(`<p class="muted">`)
			h.text(p.Sprintf("web.characters.empty"))
			h.raw(`</p>`)
			return h.err
		}
		h.raw(`<div class="cards `, templ.EscapeString(arrangement), `">`)
		for _, card := range roster {
			h.raw(`<a href="/campaigns/`, templ.EscapeString(campaign.Slug), `/characters/`, templ.EscapeString(card.Slug), `">`)
			h.render(ctx, CharacterCard(p, layout, card))
			h.raw(`</a>`)
		}
		h.raw(`</div>`)
		return h.err
	})
}

func gradientCSS(colors []string) string {
	if len(colors) == 0 {
		return "transparent"
	}
	if len(colors) == 1 {
		return colors[0]
	}
	return "linear-gradient(135deg," + strings.Join(colors, ",") + ")"
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// CharacterCard renders one character with the layout's card type and the
// card's resolved theme.
func CharacterCard(p *message.Printer, layout domain.CardLayout, card overlay.Card) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		theme := card.Theme
		borderImage := gradientCSS(theme.BorderColors)
		style := fmt.Sprintf("color:%s;border-image:%s 1", theme.TextColor, borderImage)
		h.raw(`<article class="card `, templ.EscapeString(string(layout.CardType)), `" style="`, templ.EscapeString(style), `">`)
		h.raw(`<header><strong>`)
		h.text(card.Name)
		h.raw(`</strong> <span>`)
		h.text(p.Sprintf("web.character.level", card.Level))
		h.raw(`</span>`)
		if !card.IsActive {
			h.raw(` <span class="muted">`)
			h.text(p.Sprintf("web.character.inactive"))
			h.raw(`</span>`)
		}
		h.raw(`<div class="muted">`)
		h.text(strings.TrimSpace(card.Race + " " + card.ClassName))
		h.raw(`</div></header>`)

		stats := visibleStats(layout.Stats)
		if layout.CardType == domain.CardTypeEnhanced {
			h.raw(`<div class="portrait `, templ.EscapeString(string(layout.ImageAspectRatio)), `" style="width:`, strconv.Itoa(layout.ImageWidthPercent), `%;background-image:url('`, templ.EscapeString(card.ImageURL), `')">`)
			badgeStyle := fmt.Sprintf("background:%s;border:2px solid %s", gradientCSS(theme.BadgeInterior.Colors), theme.TextColor)
			for _, b := range layout.Badges {
				stat, ok := badge.FindStat(stats, b.Stat)
				if !ok {
					continue
				}
				h.raw(`<span class="badge `, templ.EscapeString(b.Shape), `" style="left:`, formatPercent(b.X), `;top:`, formatPercent(b.Y), `;`, templ.EscapeString(badgeStyle), `">`)
				h.text(stat.Label)
				h.raw(` `, strconv.Itoa(card.Stats[stat.Key]), `</span>`)
			}
			h.raw(`</div></article>`)
			return h.err
		}

		h.raw(`<div class="stats">`)
		for _, stat := range stats {
			h.raw(`<span class="stat">`)
			h.text(stat.Label)
			h.raw(` `, strconv.Itoa(card.Stats[stat.Key]), `</span>`)
		}
		h.raw(`</div></article>`)
		return h.err
	})
}

func visibleStats(stats []badge.Stat) []badge.Stat {
	out := make([]badge.Stat, 0, len(stats))
	for _, s := range badge.SortStats(stats) {
		if s.Visible {
			out = append(out, s)
		}
	}
	return out
}

// OverlayOptions are the overlay page query parameters.
type OverlayOptions struct {
	ShowRoster   bool
	ShowFeatured bool
	ShowEvents   bool
	Character    string
	Arrangement  string
	Theme        string
}

// OverlayContent renders the refreshable part of the overlay.
func OverlayContent(p *message.Printer, snap overlay.Snapshot, opts OverlayOptions) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		if opts.ShowFeatured && snap.Featured != nil {
			h.raw(`<section class="featured"><h2>`)
			h.text(p.Sprintf("web.overlay.featured"))
			h.raw(`</h2>`)
			h.render(ctx, CharacterCard(p, snap.Layout, *snap.Featured))
			h.raw(`</section>`)
		}
		if opts.ShowRoster {
			if len(snap.Roster) == 0 {
				h.raw(`<p class="muted">`)
				h.text(p.Sprintf("web.overlay.empty"))
				h.raw(`</p>`)
			} else {
				h.raw(`<section class="roster">`)
				h.render(ctx, CharacterList(p, snap.Campaign, snap.Layout, snap.Roster, opts.Arrangement))
				h.raw(`</section>`)
			}
		}
		if opts.ShowEvents {
			h.render(ctx, EventTimeline(p, snap.Episode, snap.Events))
		}
		return h.err
	})
}

// EventTimeline renders the active episode heading and its recent events.
func EventTimeline(p *message.Printer, episode *domain.Episode, events []domain.Event) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<section class="events"><h2>`)
		if episode != nil {
			h.text(episode.Label())
		} else {
			h.text(p.Sprintf("web.overlay.events"))
		}
		h.raw(`</h2>`)
		if len(events) == 0 {
			h.raw(`<p class="muted">`)
			h.text(p.Sprintf("web.overlay.no_events"))
			h.raw(`</p></section>`)
			return h.err
		}
		h.raw(`<ol class="timeline">`)
		for _, ev := range events {
			h.raw(`<li class="event" style="border-left-color:`, templ.EscapeString(domain.EventColor(ev.EventType)), `">`)
			h.raw(`<span class="offset">`, templ.EscapeString(domain.FormatOffset(ev.TimestampInEpisode)), `</span> `)
			h.raw(`<strong>`)
			h.text(ev.Name)
			h.raw(`</strong>`)
			if ev.Description != "" {
				h.raw(`<p>`)
				h.text(ev.Description)
				h.raw(`</p>`)
			}
			h.raw(`</li>`)
		}
		h.raw(`</ol></section>`)
		return h.err
	})
}

// OverlayPage renders the overlay with a script that refreshes the content
// every refreshMillis and whenever the change feed announces an update.
func OverlayPage(p *message.Printer, snap overlay.Snapshot, opts OverlayOptions, refreshMillis int64) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<main id="overlay" data-slug="`, templ.EscapeString(snap.Campaign.Slug), `">`)
		h.render(ctx, OverlayContent(p, snap, opts))
		h.raw(`</main>`)
		h.raw(`<script>(function(){`,
			`var root=document.getElementById("overlay");`,
			`function refresh(){var u=new URL(window.location.href);u.searchParams.set("fragment","1");`,
			`fetch(u).then(function(r){return r.ok?r.text():null}).then(function(t){if(t!==null){root.innerHTML=t}}).catch(function(){})}`,
			`setInterval(refresh,`, strconv.FormatInt(refreshMillis, 10), `);`,
			`try{var s=location.protocol==="https:"?"wss://":"ws://";`,
			`var ws=new WebSocket(s+location.host+"/ws/overlay/"+encodeURIComponent(root.dataset.slug));`,
			`ws.onmessage=refresh;}catch(e){}`,
			`})();</script>`)
		return h.err
	})
}
