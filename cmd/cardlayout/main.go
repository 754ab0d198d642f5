package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	cardlayoutcmd "github.com/louisbranch/tablecards/internal/cmd/cardlayout"
	"github.com/louisbranch/tablecards/internal/platform/config"
)

func main() {
	cfg, err := cardlayoutcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.ExitConfig(err)
	}
	log.SetPrefix("[CARDLAYOUT] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cardlayoutcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
