package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	badgeeditorcmd "github.com/louisbranch/tablecards/internal/cmd/badgeeditor"
	"github.com/louisbranch/tablecards/internal/platform/config"
)

func main() {
	cfg, err := badgeeditorcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.ExitConfig(err)
	}
	log.SetPrefix("[BADGE_EDITOR] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := badgeeditorcmd.Run(ctx, cfg); err != nil {
		stop()
		config.Exitf("badge editor: %v", err)
	}
}
