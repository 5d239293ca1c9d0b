package app

import (
	"fmt"
	"log"
	"os"

	"github.com/hashicorp/logutils"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool

	// exitCode is the status the process should finish with. The run
	// command sets it to the wrapped command's code so launcher and child
	// both propagate exactly what the workload reported.
	exitCode int

	// RootCmd is the root command for respawn
	RootCmd = &cobra.Command{
		Use:   "respawn",
		Short: "Restart a command when its source files change",
		Long: `respawn wraps a long-running command and restarts it whenever the
source files it was built from change on disk.

It watches your tree with OS filesystem notifications when available and
falls back to mtime polling everywhere else. The wrapped command runs in
its own process group and is shut down cleanly (SIGTERM, then SIGKILL
after a grace period) before each restart.

Quick Start:
  1. respawn init                     # optional: write .respawn.yaml
  2. respawn run -- go run ./cmd/app  # edit files, watch it restart
  3. respawn history                  # see recorded runs (with --journal)

Features:
  • OS file notifications with polling fallback
  • Glob include/exclude filters over watched trees
  • Env-file loading for the wrapped command (changes trigger restarts)
  • Optional pty mode so the command keeps its colors
  • Run journal with restart statistics

Examples:
  # Restart a Go server on any .go change under the working directory
  respawn run -- go run ./cmd/server

  # Poll every 2s instead of using file notifications
  respawn run --strategy stat --interval 2s -- python app.py

  # Watch two trees, skip tests, record runs
  respawn run --watch ./cmd --watch ./internal --exclude '**/*_test.go' --journal -- ./bin/api

  # Inspect what would be watched
  respawn paths`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setUpLogging(verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("respawn: restart a command when its source files change")
			fmt.Println()
			if _, err := os.Stat(".respawn.yaml"); os.IsNotExist(err) {
				fmt.Println("Run 'respawn init' to write a starter config.")
				fmt.Println("Run 'respawn run -- <command>' to start watching.")
				fmt.Println("Run 'respawn --help' for the full reference.")
			} else {
				fmt.Println("Tip: Run 'respawn run -- <command>' to start watching.")
				fmt.Println("     Run 'respawn paths' to inspect the watch set.")
				fmt.Println("     Run 'respawn --help' for all commands.")
			}
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .respawn.yaml, then $XDG_CONFIG_HOME/respawn/config.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug output")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command and reports the exit status the process
// should finish with.
func Execute() (int, error) {
	if err := RootCmd.Execute(); err != nil {
		return 1, err
	}
	return exitCode, nil
}

// setUpLogging routes the stdlib logger through a level filter. Core
// packages emit [DEBUG]/[INFO]/[WARN] prefixed lines; --verbose lowers the
// threshold to DEBUG.
func setUpLogging(debug bool) {
	logLevel := "INFO"
	if debug {
		logLevel = "DEBUG"
	}

	filter := logutils.LevelFilter{
		Levels:   []logutils.LogLevel{"DEBUG", "INFO", "WARN", "ERROR"},
		MinLevel: logutils.LogLevel(logLevel),
		Writer:   os.Stderr,
	}

	log.SetOutput(&filter)
}
