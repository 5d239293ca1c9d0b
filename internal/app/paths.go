package app

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/respawn/internal/config"
	"github.com/blackwell-systems/respawn/internal/output"
	"github.com/blackwell-systems/respawn/internal/reload"
)

var (
	pathsWatchSet watchFlags

	pathsCmd = &cobra.Command{
		Use:   "paths",
		Short: "Show which files and directories would be watched",
		Long: `Resolve the effective watch set without running anything.

paths applies the same configuration and flags as run, scans the watched
trees once, and prints the files the detector would track plus the reduced
set of directory roots it would register with the OS watcher. Nested
directories collapse into their common ancestors, so the root list is what
fsnotify would actually see.

Use this to debug include/exclude globs before trusting them with a real
workload.`,
		Example: `  # Show the watch set for the working directory
  respawn paths

  # Check what a filter combination really matches
  respawn paths --watch ./internal --exclude '**/testdata/**'`,
		Args: cobra.NoArgs,
		RunE: runPaths,
	}
)

func init() {
	pathsWatchSet.register(pathsCmd)

	RootCmd.AddCommand(pathsCmd)
}

func runPaths(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	pathsWatchSet.apply(cmd, cfg)

	spinner := output.NewSpinner("Scanning watch roots")
	spinner.Start()

	roots, files, err := effectiveWatchSet(cfg)
	if err != nil {
		spinner.Stop()
		return err
	}
	spinner.Stop()

	fmt.Print(output.RenderPathTable(roots, files))
	return nil
}

// effectiveWatchSet resolves cfg to the watched files and the reduced
// directory roots a notify detector would register.
func effectiveWatchSet(cfg *config.Config) (roots, files []string, err error) {
	scanner, err := newScanner(cfg)
	if err != nil {
		return nil, nil, err
	}

	paths := reload.NewPathSet(detectorOptions(cfg, scanner))
	files = paths.Files()
	roots = lo.Keys(reload.CommonRoots(paths.ObservableDirs()))
	return roots, files, nil
}
