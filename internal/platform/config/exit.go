package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Exit codes of the command line tools.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

var (
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// Exitf prints a fatal message prefixed with the program name to stderr and
// exits with ExitFailure.
func Exitf(format string, args ...any) {
	exitf(ExitFailure, format, args...)
}

// ExitConfig ends a tool whose flags or environment could not be parsed. A
// help request exits cleanly since the flag set already printed usage.
func ExitConfig(err error) {
	if errors.Is(err, flag.ErrHelp) {
		exit(0)
		return
	}
	exitf(ExitUsage, "parse flags: %v", err)
}

func exitf(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if name := filepath.Base(os.Args[0]); name != "" && name != "." {
		msg = name + ": " + msg
	}
	fmt.Fprintln(stderr, msg)
	exit(code)
}
