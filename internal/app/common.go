package app

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/respawn/internal/config"
	"github.com/blackwell-systems/respawn/internal/journal"
	"github.com/blackwell-systems/respawn/internal/reload"
	"github.com/blackwell-systems/respawn/internal/scan"
)

// watchFlags are the watch-set selection flags shared by run and paths.
// Repeatable flags use StringArray so globs with braces survive unsplit.
type watchFlags struct {
	watch      []string
	ext        []string
	include    []string
	exclude    []string
	extraFiles []string
	envFiles   []string
}

func (f *watchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.watch, "watch", nil, "directory tree to watch (repeatable, default \".\")")
	cmd.Flags().StringArrayVar(&f.ext, "ext", nil, "source file extension, e.g. .go (repeatable, default .go)")
	cmd.Flags().StringArrayVar(&f.include, "include", nil, "glob of extra files to watch (repeatable)")
	cmd.Flags().StringArrayVar(&f.exclude, "exclude", nil, "glob of files and directories to skip (repeatable)")
	cmd.Flags().StringArrayVar(&f.extraFiles, "extra-file", nil, "file to watch regardless of filters (repeatable)")
	cmd.Flags().StringArrayVar(&f.envFiles, "env-file", nil, "env file loaded into the command and watched for changes (repeatable)")
}

// apply overrides config values with flags the user actually set.
func (f *watchFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("watch") {
		cfg.Watch = f.watch
	}
	if cmd.Flags().Changed("ext") {
		cfg.Extensions = f.ext
	}
	if cmd.Flags().Changed("include") {
		cfg.Include = f.include
	}
	if cmd.Flags().Changed("exclude") {
		cfg.Exclude = f.exclude
	}
	if cmd.Flags().Changed("extra-file") {
		cfg.ExtraFiles = f.extraFiles
	}
	if cmd.Flags().Changed("env-file") {
		cfg.EnvFiles = f.envFiles
	}
}

// newScanner builds the source scanner for cfg and fails fast on bad globs
// or missing watch roots.
func newScanner(cfg *config.Config) (*scan.Scanner, error) {
	scanner, err := scan.New(scan.Config{
		Roots:      cfg.Watch,
		Extensions: cfg.Extensions,
		Include:    cfg.Include,
		Exclude:    cfg.Exclude,
	})
	if err != nil {
		return nil, err
	}
	if err := scanner.Validate(); err != nil {
		return nil, err
	}
	return scanner, nil
}

// detectorOptions maps the effective config onto reload options. Env files
// count as extra files so editing one triggers a restart.
func detectorOptions(cfg *config.Config, scanner *scan.Scanner) reload.Options {
	extras := make([]string, 0, len(cfg.ExtraFiles)+len(cfg.EnvFiles))
	extras = append(extras, cfg.ExtraFiles...)
	extras = append(extras, cfg.EnvFiles...)

	return reload.Options{
		Sources:    scanner.Snapshot,
		SearchDirs: scanner.Roots,
		ExtraFiles: extras,
		Suffixes: reload.Suffixes{
			Source:   cfg.Extensions,
			Compiled: cfg.Artifacts,
		},
		Interval: cfg.Interval.Std(),
	}
}

// wrappedEnv reads every configured env file into one map for the wrapped
// command. The real environment still wins on conflicts.
func wrappedEnv(cfg *config.Config) (map[string]string, error) {
	if len(cfg.EnvFiles) == 0 {
		return nil, nil
	}
	env, err := godotenv.Read(cfg.EnvFiles...)
	if err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	return env, nil
}

// journalPath resolves where runs get recorded: the configured path, or
// ~/.respawn/journal.db.
func journalPath(cfg *config.Config) (string, error) {
	if cfg.JournalPath != "" {
		return cfg.JournalPath, nil
	}
	return journal.DefaultPath()
}
