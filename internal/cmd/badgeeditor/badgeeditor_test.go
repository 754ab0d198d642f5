package badgeeditor

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/tablecards/internal/layout/domain"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("badge-editor", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.APIURL != "http://localhost:8090/api" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if !cfg.Sound || cfg.Language != "en-US" || cfg.Campaign != "" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("TABLECARDS_BADGE_EDITOR_CAMPAIGN", "night-watch")

	fs := flag.NewFlagSet("badge-editor", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-sound=false", "-api", "http://cards:8090/api"})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.Campaign != "night-watch" || cfg.Sound || cfg.APIURL != "http://cards:8090/api" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

type campaignList struct {
	campaigns []domain.Campaign
	err       error
}

func (l campaignList) ListCampaigns(context.Context) ([]domain.Campaign, error) {
	return l.campaigns, l.err
}

func TestResolveCampaign(t *testing.T) {
	t.Parallel()

	one := campaignList{campaigns: []domain.Campaign{{ID: "c1", Slug: "night-watch"}}}
	two := campaignList{campaigns: []domain.Campaign{{ID: "c1", Slug: "night-watch"}, {ID: "c2", Slug: "sunken-keep"}}}

	tests := []struct {
		name    string
		lister  campaignList
		want    string
		wantID  string
		wantErr string
	}{
		{name: "only campaign", lister: one, wantID: "c1"},
		{name: "by slug", lister: two, want: "sunken-keep", wantID: "c2"},
		{name: "by id", lister: two, want: "c1", wantID: "c1"},
		{name: "ambiguous", lister: two, wantErr: "night-watch, sunken-keep"},
		{name: "unknown", lister: two, want: "nope", wantErr: `"nope" not found`},
		{name: "list error", lister: campaignList{err: errors.New("offline")}, wantErr: "offline"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveCampaign(context.Background(), tt.lister, tt.want)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveCampaign() error = %v", err)
			}
			if got.ID != tt.wantID {
				t.Fatalf("ID = %q, want %q", got.ID, tt.wantID)
			}
		})
	}
}

func TestRedirectLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editor.log")
	restore, err := redirectLogs(path)
	if err != nil {
		t.Fatalf("redirectLogs() error = %v", err)
	}
	log.Printf("hello from the editor")
	restore()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello from the editor") {
		t.Fatalf("log file = %q", data)
	}

	if _, err := redirectLogs(filepath.Join(t.TempDir(), "missing", "editor.log")); err == nil {
		t.Fatal("expected error for unwritable path")
	}
}
