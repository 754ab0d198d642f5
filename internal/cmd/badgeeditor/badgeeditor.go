// Package badgeeditor parses badge editor flags and runs the terminal editor.
package badgeeditor

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/louisbranch/tablecards/internal/layout/domain"
	entrypoint "github.com/louisbranch/tablecards/internal/platform/cmd"
	"github.com/louisbranch/tablecards/internal/services/badgeeditor"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/client"
)

// Config holds badge editor command configuration.
type Config struct {
	APIURL   string `env:"BADGE_EDITOR_API_URL" envDefault:"http://localhost:8090/api"`
	Campaign string `env:"BADGE_EDITOR_CAMPAIGN"`
	Language string `env:"BADGE_EDITOR_LANG" envDefault:"en-US"`
	LogFile  string `env:"BADGE_EDITOR_LOG_FILE"`
	Sound    bool   `env:"BADGE_EDITOR_SOUND" envDefault:"true"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.APIURL, "api", cfg.APIURL, "Card layout API base URL")
	fs.StringVar(&cfg.Campaign, "campaign", cfg.Campaign, "Campaign id or slug (optional when only one campaign exists)")
	fs.StringVar(&cfg.Language, "lang", cfg.Language, "Accept-Language sent to the API")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Write logs to this file while the editor runs")
	fs.BoolVar(&cfg.Sound, "sound", cfg.Sound, "Play a cue when a badge aligns")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// CampaignLister lists campaigns.
type CampaignLister interface {
	ListCampaigns(ctx context.Context) ([]domain.Campaign, error)
}

// ResolveCampaign picks the campaign matching want by id or slug. An empty
// want selects the only campaign, if there is exactly one.
func ResolveCampaign(ctx context.Context, lister CampaignLister, want string) (domain.Campaign, error) {
	campaigns, err := lister.ListCampaigns(ctx)
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("list campaigns: %w", err)
	}
	want = strings.TrimSpace(want)
	if want == "" {
		if len(campaigns) == 1 {
			return campaigns[0], nil
		}
		slugs := make([]string, 0, len(campaigns))
		for _, c := range campaigns {
			slugs = append(slugs, c.Slug)
		}
		return domain.Campaign{}, fmt.Errorf("campaign is required, one of: %s", strings.Join(slugs, ", "))
	}
	for _, c := range campaigns {
		if c.ID == want || c.Slug == want {
			return c, nil
		}
	}
	return domain.Campaign{}, fmt.Errorf("campaign %q not found", want)
}

// Run loads the campaign's default layout and edits it in the terminal.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceBadgeEditor, func(ctx context.Context) error {
		api, err := client.New(cfg.APIURL, client.WithLanguage(cfg.Language))
		if err != nil {
			return err
		}
		campaign, err := ResolveCampaign(ctx, api, cfg.Campaign)
		if err != nil {
			return err
		}
		layout, err := api.GetDefaultLayout(ctx, campaign.ID)
		if err != nil {
			return fmt.Errorf("load default layout: %w", err)
		}

		restore, err := redirectLogs(cfg.LogFile)
		if err != nil {
			return err
		}
		defer restore()

		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("create screen: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("init screen: %w", err)
		}
		defer screen.Fini()
		screen.EnableMouse()

		opts := []badgeeditor.Option{badgeeditor.WithSaver(api)}
		if cfg.Sound {
			cue, err := badgeeditor.NewSpeakerCue()
			if err != nil {
				log.Printf("audio disabled: %v", err)
			} else {
				defer cue.Close()
				opts = append(opts, badgeeditor.WithCue(cue))
			}
		}

		editor := badgeeditor.New(screen, layout, opts...)
		log.Printf("editing %s for campaign %s", layout.Name, campaign.Slug)
		if err := editor.Run(ctx); err != nil {
			return err
		}
		if editor.Dirty() {
			log.Printf("quit with unsaved changes")
		}
		return nil
	})
}

// redirectLogs keeps log lines off the terminal while the editor owns it.
func redirectLogs(path string) (func(), error) {
	prev := log.Writer()
	if strings.TrimSpace(path) == "" {
		log.SetOutput(io.Discard)
		return func() { log.SetOutput(prev) }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(prev)
		if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			log.Printf("close log file: %v", err)
		}
	}, nil
}
