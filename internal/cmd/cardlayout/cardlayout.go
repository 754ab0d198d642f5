// Package cardlayout parses card layout command flags and starts the service.
package cardlayout

import (
	"context"
	"flag"
	"log"
	"strings"

	entrypoint "github.com/louisbranch/tablecards/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/tablecards/internal/platform/grpc"
	"github.com/louisbranch/tablecards/internal/platform/timeouts"
	server "github.com/louisbranch/tablecards/internal/services/cardlayout/app"
)

// Config holds card layout command configuration.
type Config struct {
	HTTPAddr       string `env:"CARDLAYOUT_HTTP_ADDR" envDefault:"localhost:8090"`
	GRPCAddr       string `env:"CARDLAYOUT_GRPC_ADDR" envDefault:"localhost:8091"`
	DBDriver       string `env:"CARDLAYOUT_DB_DRIVER" envDefault:"sqlite"`
	DBPath         string `env:"CARDLAYOUT_DB_PATH" envDefault:"data/cardlayout.db"`
	PostgresDSN    string `env:"CARDLAYOUT_POSTGRES_DSN"`
	RedisURL       string `env:"CARDLAYOUT_REDIS_URL"`
	AllowedOrigins string `env:"CARDLAYOUT_ALLOWED_ORIGINS"`
	// HealthCheck checks a running instance at GRPCAddr and exits.
	HealthCheck bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "gRPC health listen address (empty disables)")
	fs.StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "Storage driver: sqlite or postgres")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.PostgresDSN, "postgres-dsn", cfg.PostgresDSN, "Postgres connection string")
	fs.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis URL for the change feed (in-process when empty)")
	fs.StringVar(&cfg.AllowedOrigins, "allowed-origins", cfg.AllowedOrigins, "Comma-separated CORS and websocket origins (any when empty)")
	fs.BoolVar(&cfg.HealthCheck, "healthcheck", false, "Check the gRPC health endpoint and exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Origins splits AllowedOrigins into trimmed, non-empty entries.
func (c Config) Origins() []string {
	var out []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

// Run starts the card layout service, or checks its health when HealthCheck is set.
func Run(ctx context.Context, cfg Config) error {
	if cfg.HealthCheck {
		checkCtx, cancel := context.WithTimeout(ctx, timeouts.HealthCheck)
		defer cancel()
		return platformgrpc.CheckHealth(checkCtx, cfg.GRPCAddr, nil)
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceCardLayout, func(ctx context.Context) error {
		srv, err := server.NewServer(ctx, server.Config{
			HTTPAddr:       cfg.HTTPAddr,
			GRPCAddr:       cfg.GRPCAddr,
			DBDriver:       cfg.DBDriver,
			DBPath:         cfg.DBPath,
			PostgresDSN:    cfg.PostgresDSN,
			RedisURL:       cfg.RedisURL,
			AllowedOrigins: cfg.Origins(),
		})
		if err != nil {
			return err
		}
		log.Printf("storage driver %s", cfg.DBDriver)
		return srv.ListenAndServe(ctx)
	})
}
