package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type testConfig struct {
	Address string `env:"CMD_TEST_ADDRESS" envDefault:"127.0.0.1:8080"`
	Mode    string `env:"CMD_TEST_MODE" envDefault:"server"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("TABLECARDS_CMD_TEST_ADDRESS", "env:9000")
	t.Setenv("TABLECARDS_CMD_TEST_MODE", "env-mode")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfgRef := testConfig{}
	if err := ParseConfig(&cfgRef); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfgRef.Address, "address", cfgRef.Address, "address")
	fs.StringVar(&cfgRef.Mode, "mode", cfgRef.Mode, "mode")

	if err := ParseArgs(fs, []string{"-address", "flag:9001"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfgRef.Address != "flag:9001" {
		t.Fatalf("expected flag value for address, got %q", cfgRef.Address)
	}
	if cfgRef.Mode != "env-mode" {
		t.Fatalf("expected env default mode, got %q", cfgRef.Mode)
	}
}

func TestParseConfigFromArgsKeepsDefaults(t *testing.T) {
	cfgRef := testConfig{}
	fs := flag.NewFlagSet("configargs", flag.ContinueOnError)
	fs.StringVar(&cfgRef.Mode, "mode", "", "mode")
	if err := ParseConfigFromArgs(&cfgRef, fs, nil); err != nil {
		t.Fatalf("parse config and args: %v", err)
	}
	if cfgRef.Address != "127.0.0.1:8080" {
		t.Fatalf("expected default address, got %q", cfgRef.Address)
	}
}

func TestParseConfigRejectsNilTarget(t *testing.T) {
	var cfg *testConfig
	if err := ParseConfig(cfg); err == nil {
		t.Fatal("expected nil target error")
	}
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
}

func TestLogPrefix(t *testing.T) {
	tests := map[string]string{
		ServiceCardLayout:  "[CARDLAYOUT] ",
		ServiceBadgeEditor: "[BADGE_EDITOR] ",
		"  ":               "",
	}
	for in, want := range tests {
		if got := LogPrefix(in); got != want {
			t.Fatalf("LogPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRunWithTelemetry(t *testing.T) {
	t.Setenv("TABLECARDS_OTEL_ENDPOINT", "")

	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceCardLayout, nil); err == nil {
		t.Fatal("expected missing run function error")
	}

	want := errors.New("stop")
	err := RunWithTelemetry(context.Background(), ServiceCardLayout, func(context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("run err = %v, want %v", err, want)
	}
}
