package cardlayout

import (
	"context"
	"flag"
	"net"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("cardlayout", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != "localhost:8090" {
		t.Fatalf("HTTPAddr = %q, want %q", cfg.HTTPAddr, "localhost:8090")
	}
	if cfg.GRPCAddr != "localhost:8091" {
		t.Fatalf("GRPCAddr = %q, want %q", cfg.GRPCAddr, "localhost:8091")
	}
	if cfg.DBDriver != "sqlite" || cfg.DBPath != "data/cardlayout.db" {
		t.Fatalf("storage = %q %q", cfg.DBDriver, cfg.DBPath)
	}
	if cfg.HealthCheck {
		t.Fatal("HealthCheck = true, want false")
	}
}

func TestParseConfigEnvAndFlags(t *testing.T) {
	t.Setenv("TABLECARDS_CARDLAYOUT_REDIS_URL", "redis://cache:6379/0")
	t.Setenv("TABLECARDS_CARDLAYOUT_DB_DRIVER", "postgres")

	fs := flag.NewFlagSet("cardlayout", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-http-addr", "127.0.0.1:9090", "-allowed-origins", " https://a.test, ,https://b.test "})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.RedisURL != "redis://cache:6379/0" || cfg.DBDriver != "postgres" {
		t.Fatalf("env values = %q %q", cfg.RedisURL, cfg.DBDriver)
	}
	if cfg.HTTPAddr != "127.0.0.1:9090" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	origins := cfg.Origins()
	if len(origins) != 2 || origins[0] != "https://a.test" || origins[1] != "https://b.test" {
		t.Fatalf("Origins() = %v", origins)
	}
	if got := (Config{}).Origins(); len(got) != 0 {
		t.Fatalf("empty Origins() = %v", got)
	}
}

func TestRunHealthCheckFailsWithoutServer(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := lis.Addr().String()
	_ = lis.Close()

	if err := Run(context.Background(), Config{HealthCheck: true, GRPCAddr: addr}); err == nil {
		t.Fatal("expected health check to fail")
	}
}
