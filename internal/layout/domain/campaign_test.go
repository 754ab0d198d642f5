package domain

import (
	"errors"
	"testing"
	"time"
)

func TestCreateCampaignNormalizesInput(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 1, 23, 10, 0, 0, 0, time.UTC)
	c, err := CreateCampaign(CreateCampaignInput{Name: "  Curse of the Crimson Throne "}, func() time.Time { return fixed }, func() (string, error) {
		return "camp123", nil
	})
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	if c.ID != "camp123" || c.Name != "Curse of the Crimson Throne" {
		t.Fatalf("campaign = %+v, want trimmed name and id", c)
	}
	if c.Slug != "curse-of-the-crimson-throne" {
		t.Fatalf("slug = %q, want curse-of-the-crimson-throne", c.Slug)
	}
	if !c.CreatedAt.Equal(fixed) || !c.UpdatedAt.Equal(fixed) {
		t.Fatal("expected timestamps to match fixed time")
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	t.Parallel()

	if _, err := CreateCampaign(CreateCampaignInput{Name: "  "}, nil, nil); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("err = %v, want ErrEmptyName", err)
	}
	if _, err := CreateCampaign(CreateCampaignInput{Name: "!!!"}, nil, nil); !errors.Is(err, ErrInvalidSlug) {
		t.Fatalf("err = %v, want ErrInvalidSlug", err)
	}
}

func TestCreateCharacter(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	ch, err := CreateCharacter(Character{
		CampaignID: "camp-1",
		Name:       " Vax'ildan ",
		ClassName:  " Rogue ",
		Stats:      map[string]int{"STR": 16, "Dex": 18},
	}, func() time.Time { return fixed }, func() (string, error) { return "char-1", nil })
	if err != nil {
		t.Fatalf("create character: %v", err)
	}
	if ch.ID != "char-1" || ch.Slug != "vaxildan" || ch.ClassName != "Rogue" {
		t.Fatalf("character = %+v, want normalized fields", ch)
	}
	if ch.Level != 1 {
		t.Fatalf("level = %d, want 1", ch.Level)
	}
	if ch.Stats["str"] != 16 || ch.Stats["dex"] != 18 {
		t.Fatalf("stats = %v, want lowercased keys", ch.Stats)
	}
}

func TestNormalizeCharacterRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Character
		err  error
	}{
		{name: "campaign", in: Character{Name: "A"}, err: ErrEmptyCampaignID},
		{name: "name", in: Character{CampaignID: "c"}, err: ErrEmptyName},
		{name: "level", in: Character{CampaignID: "c", Name: "A", Level: -2}, err: ErrInvalidLevel},
		{name: "override color", in: Character{CampaignID: "c", Name: "A", ThemeOverride: &ColorTheme{TextColor: "#12"}}, err: ErrInvalidColor},
	}
	for _, tc := range tests {
		if _, err := NormalizeCharacter(tc.in); !errors.Is(err, tc.err) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.err)
		}
	}
}

func TestNormalizeCharacterDropsEmptyOverride(t *testing.T) {
	t.Parallel()

	ch, err := NormalizeCharacter(Character{CampaignID: "c", Name: "Pike", ThemeOverride: &ColorTheme{}})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if ch.ThemeOverride != nil {
		t.Fatalf("override = %+v, want nil", ch.ThemeOverride)
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Vax'ildan":                     "vaxildan",
		"  Keyleth of the Air  ":        "keyleth-of-the-air",
		"Grog -- Strongjaw":             "grog-strongjaw",
		`Scanlan "the Great" Shorthalt`: "scanlan-the-great-shorthalt",
		"!!!":                           "",
		"Lvl 20":                        "lvl-20",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
