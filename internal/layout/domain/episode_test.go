package domain

import (
	"errors"
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func TestCreateEpisode(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	ep, err := CreateEpisode(Episode{
		CampaignID:    "camp",
		Name:          "  The Siege of Emon ",
		Season:        intPtr(2),
		EpisodeNumber: intPtr(7),
	}, func() time.Time { return fixed }, func() (string, error) { return "ep-1", nil })
	if err != nil {
		t.Fatalf("create episode: %v", err)
	}
	if ep.ID != "ep-1" || ep.Name != "The Siege of Emon" || ep.Slug != "the-siege-of-emon" {
		t.Fatalf("episode = %+v, want normalized fields", ep)
	}
	if !ep.CreatedAt.Equal(fixed) || !ep.UpdatedAt.Equal(fixed) {
		t.Fatal("expected timestamps to match fixed time")
	}
	if got := ep.Label(); got != "S2 E7 - The Siege of Emon" {
		t.Fatalf("Label() = %q", got)
	}
	if got := (Episode{Name: "Pilot"}).Label(); got != "Pilot" {
		t.Fatalf("Label() without numbers = %q", got)
	}
}

func TestNormalizeEpisodeValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Episode
		err  error
	}{
		{name: "campaign", in: Episode{Name: "x"}, err: ErrEmptyCampaignID},
		{name: "name", in: Episode{CampaignID: "c", Name: " "}, err: ErrEmptyName},
		{name: "slug", in: Episode{CampaignID: "c", Name: "!!"}, err: ErrInvalidSlug},
		{name: "season", in: Episode{CampaignID: "c", Name: "x", Season: intPtr(-1)}, err: ErrInvalidEpisodeNumber},
		{name: "runtime", in: Episode{CampaignID: "c", Name: "x", Runtime: intPtr(-5)}, err: ErrInvalidEpisodeNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NormalizeEpisode(tt.in); !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestCreateEventNormalizes(t *testing.T) {
	t.Parallel()

	ev, err := CreateEvent(Event{
		EpisodeID:          "ep-1",
		Name:               " Dragon attack ",
		EventType:          " Combat ",
		TimestampInEpisode: intPtr(95),
		CharactersInvolved: []string{"c1", " ", "c2", "c1"},
	}, nil, func() (string, error) { return "ev-1", nil })
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if ev.ID != "ev-1" || ev.Name != "Dragon attack" || ev.EventType != EventCombat {
		t.Fatalf("event = %+v", ev)
	}
	if len(ev.CharactersInvolved) != 2 || ev.CharactersInvolved[0] != "c1" || ev.CharactersInvolved[1] != "c2" {
		t.Fatalf("involved = %v, want [c1 c2]", ev.CharactersInvolved)
	}

	if _, err := NormalizeEvent(Event{Name: "x"}); !errors.Is(err, ErrEmptyEpisodeID) {
		t.Fatalf("err = %v, want ErrEmptyEpisodeID", err)
	}
	if _, err := NormalizeEvent(Event{EpisodeID: "e", Name: "x", TimestampInEpisode: intPtr(-1)}); !errors.Is(err, ErrInvalidEventTimestamp) {
		t.Fatalf("err = %v, want ErrInvalidEventTimestamp", err)
	}
	empty, err := NormalizeEvent(Event{EpisodeID: "e", Name: "x"})
	if err != nil || empty.CharactersInvolved == nil {
		t.Fatalf("involved = %v, err = %v, want empty non-nil list", empty.CharactersInvolved, err)
	}
}

func TestActiveEpisode(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	episodes := []Episode{
		{ID: "s2e1", Season: intPtr(2), EpisodeNumber: intPtr(1), IsPublished: true, CreatedAt: base},
		{ID: "s1e2", Season: intPtr(1), EpisodeNumber: intPtr(2), IsPublished: true, CreatedAt: base},
		{ID: "s2e2", Season: intPtr(2), EpisodeNumber: intPtr(2), CreatedAt: base},
		{ID: "s1e1", Season: intPtr(1), EpisodeNumber: intPtr(1), IsPublished: true, CreatedAt: base},
	}
	sorted := SortEpisodes(episodes)
	want := []string{"s1e1", "s1e2", "s2e1", "s2e2"}
	for i, ep := range sorted {
		if ep.ID != want[i] {
			t.Fatalf("sorted[%d] = %q, want %q", i, ep.ID, want[i])
		}
	}
	if episodes[0].ID != "s2e1" {
		t.Fatal("SortEpisodes must not reorder its input")
	}

	active, ok := ActiveEpisode(episodes)
	if !ok || active.ID != "s2e1" {
		t.Fatalf("ActiveEpisode() = %q, %v, want s2e1", active.ID, ok)
	}
	if _, ok := ActiveEpisode([]Episode{{ID: "draft"}}); ok {
		t.Fatal("expected no active episode without published ones")
	}
}

func TestRecentAndSortedEvents(t *testing.T) {
	t.Parallel()

	events := []Event{
		{ID: "a", TimestampInEpisode: intPtr(60)},
		{ID: "untimed"},
		{ID: "b", TimestampInEpisode: intPtr(300)},
		{ID: "c", TimestampInEpisode: intPtr(120)},
	}
	recent := RecentEvents(events, 3)
	if len(recent) != 3 || recent[0].ID != "b" || recent[1].ID != "c" || recent[2].ID != "a" {
		t.Fatalf("RecentEvents() = %+v", recent)
	}
	if all := RecentEvents(events, 0); len(all) != 4 || all[3].ID != "untimed" {
		t.Fatalf("RecentEvents(0) = %+v", all)
	}
	sorted := SortEvents(events)
	if sorted[0].ID != "a" || sorted[3].ID != "untimed" {
		t.Fatalf("SortEvents() = %+v", sorted)
	}
}

func TestEventPresentation(t *testing.T) {
	t.Parallel()

	if got := EventColor("Combat"); got != "#DC2626" {
		t.Fatalf("EventColor(Combat) = %q", got)
	}
	if got := EventColor("dance-off"); got != defaultEventColor {
		t.Fatalf("EventColor(unknown) = %q", got)
	}
	tests := []struct {
		in   *int
		want string
	}{
		{in: nil, want: "--:--"},
		{in: intPtr(0), want: "--:--"},
		{in: intPtr(65), want: "1:05"},
		{in: intPtr(3600), want: "60:00"},
	}
	for _, tt := range tests {
		if got := FormatOffset(tt.in); got != tt.want {
			t.Fatalf("FormatOffset(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
