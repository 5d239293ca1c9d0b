package app

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/respawn/internal/config"
	"github.com/blackwell-systems/respawn/internal/journal"
	"github.com/blackwell-systems/respawn/internal/reload"
	"github.com/blackwell-systems/respawn/internal/runner"
)

var (
	runStrategy string
	runInterval time.Duration
	runGrace    time.Duration
	runPTY      bool
	runJournal  bool
	runWatchSet watchFlags

	runCmd = &cobra.Command{
		Use:   "run [flags] -- command [args...]",
		Short: "Run a command and restart it on source changes",
		Long: `Run a command under supervision and restart it whenever a watched
source file changes.

respawn keeps a launcher process in the foreground and hands the actual
work to a supervised copy of itself. The copy watches your files while the
command runs; on a change it stops the command's process group (SIGTERM,
then SIGKILL after the grace period) and exits with a reserved status, and
the launcher starts a fresh copy. When the command ends for any other
reason, its exit code passes through respawn unchanged.

Detection strategies:
  • watchdog: OS filesystem notifications (fsnotify)
  • stat:     mtime polling every interval
  • auto:     watchdog when available, else stat (default)

Everything after -- is the command to run; nothing before it is touched.`,
		Example: `  # Restart a Go server on any .go change
  respawn run -- go run ./cmd/server

  # Poll every 2 seconds, watch Python sources
  respawn run --strategy stat --interval 2s --ext .py -- python app.py

  # Load .env into the command and restart when it changes
  respawn run --env-file .env -- ./bin/api

  # Keep colored output and record runs in the journal
  respawn run --pty --journal -- npm run dev`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRun,
	}
)

func init() {
	runCmd.Flags().StringVar(&runStrategy, "strategy", "", "detection strategy: stat, watchdog or auto (default from config)")
	runCmd.Flags().DurationVar(&runInterval, "interval", 0, "tick interval for change detection (default from config)")
	runCmd.Flags().DurationVar(&runGrace, "grace", 0, "how long a stopped command gets before SIGKILL (default from config)")
	runCmd.Flags().BoolVar(&runPTY, "pty", false, "run the command on a pseudo-terminal")
	runCmd.Flags().BoolVar(&runJournal, "journal", false, "record every run in the journal")
	runWatchSet.register(runCmd)

	RootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)

	strategy, err := reload.Resolve(cfg.Strategy)
	if err != nil {
		return err
	}

	scanner, err := newScanner(cfg)
	if err != nil {
		return err
	}
	opts := detectorOptions(cfg, scanner)

	if reload.RunMain() {
		return runSupervised(strategy, opts, cfg, args)
	}
	return runLauncher(strategy, opts, cfg, args)
}

// applyRunFlags lays explicitly-set flags over the loaded config.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("strategy") {
		cfg.Strategy = runStrategy
	}
	if cmd.Flags().Changed("interval") {
		cfg.Interval = config.Duration(runInterval)
	}
	if cmd.Flags().Changed("grace") {
		cfg.Grace = config.Duration(runGrace)
	}
	if cmd.Flags().Changed("pty") {
		cfg.PTY = runPTY
	}
	if cmd.Flags().Changed("journal") {
		cfg.Journal = runJournal
	}
	runWatchSet.apply(cmd, cfg)
}

// runLauncher supervises child copies of this process until one exits with
// a code other than the restart sentinel, then adopts that code.
func runLauncher(strategy string, opts reload.Options, cfg *config.Config, args []string) error {
	if cfg.Journal {
		path, err := journalPath(cfg)
		if err != nil {
			return fmt.Errorf("failed to resolve journal path: %w", err)
		}
		store, err := journal.New(path)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer store.Close()
		if err := store.CreateSchema(); err != nil {
			return fmt.Errorf("failed to prepare journal: %w", err)
		}
		opts.Recorder = &commandRecorder{store: store, command: strings.Join(args, " ")}
	}

	sup := reload.NewSupervisor(strategy, opts)
	code, err := sup.Run()
	if err != nil {
		return err
	}
	exitCode = code
	return nil
}

// runSupervised is the child side: start the detector, run the command,
// and exit with either the command's own code or the restart sentinel the
// detector injected through Shutdown.
func runSupervised(strategy string, opts reload.Options, cfg *config.Config, args []string) error {
	env, err := wrappedEnv(cfg)
	if err != nil {
		return err
	}

	proc, err := runner.New(runner.Config{
		Argv:  args,
		Env:   env,
		Grace: cfg.Grace.Std(),
		PTY:   cfg.PTY,
	})
	if err != nil {
		return err
	}

	// A detected change stops the command and makes its run report the
	// sentinel code instead of killing this process outright.
	opts.Exit = proc.Shutdown

	det, err := reload.NewDetector(strategy, opts)
	if err != nil {
		return err
	}
	if err := det.Start(); err != nil {
		return fmt.Errorf("failed to start %s detector: %w", det.Name(), err)
	}
	defer det.Stop()

	log.Printf("[DEBUG] %s detector watching for changes every %v", det.Name(), cfg.Interval.Std())

	code, err := proc.Run()
	if err != nil {
		return err
	}
	exitCode = code
	return nil
}

// commandRecorder journals supervised runs under the wrapped command line
// rather than the launcher's own argv.
type commandRecorder struct {
	store   *journal.Store
	command string
}

func (r *commandRecorder) RecordRun(run reload.Run) error {
	run.Command = r.command
	return r.store.RecordRun(run)
}
