// Package main is the entry point for revdesk.
package main

import (
	"fmt"
	"os"

	"github.com/revdeskhq/revdesk/internal/cli"
	"github.com/revdeskhq/revdesk/internal/config"
	"github.com/revdeskhq/revdesk/internal/logging"
	"github.com/revdeskhq/revdesk/internal/tui"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var _ = []string{commit, date}

func main() {
	// Default entrypoint: launch the dashboard when invoked with no args.
	if len(os.Args) == 1 {
		if err := runDashboard(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := cli.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runDashboard() error {
	cfg, err := config.LoadDefault()
	if err != nil {
		return err
	}

	// The dashboard owns the terminal, so logs go to a file.
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.EnableCaller = cfg.Logging.EnableCaller
	closer, err := logging.InitFile(logCfg, cfg.LogFilePath())
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closer.Close()

	return tui.Run(cfg, version)
}
