// Package config provides configuration file parsing for respawn.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// projectFiles are probed in the working directory, in order, before the
// XDG location.
var projectFiles = []string{".respawn.yaml", ".respawn.yml"}

// Dir returns the respawn config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/respawn if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "respawn"), nil
}

// Duration wraps time.Duration so YAML values like "500ms" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds the file-backed settings. Command-line flags override
// whatever is loaded here.
type Config struct {
	Strategy    string            `yaml:"strategy"`
	Interval    Duration          `yaml:"interval"`
	Watch       []string          `yaml:"watch"`
	Extensions  []string          `yaml:"extensions"`
	Include     []string          `yaml:"include"`
	Exclude     []string          `yaml:"exclude"`
	ExtraFiles  []string          `yaml:"extra_files"`
	Artifacts   map[string]string `yaml:"artifacts"`
	EnvFiles    []string          `yaml:"env_files"`
	Grace       Duration          `yaml:"grace"`
	PTY         bool              `yaml:"pty"`
	Journal     bool              `yaml:"journal"`
	JournalPath string            `yaml:"journal_path"`
}

// Default returns the settings used when no file provides a value.
func Default() *Config {
	return &Config{
		Strategy:   "auto",
		Interval:   Duration(time.Second),
		Watch:      []string{"."},
		Extensions: []string{".go"},
		Grace:      Duration(5 * time.Second),
	}
}

/// Locate returns the config file that Load would read: an explicit path as
// given, otherwise the first project file in the working directory,
// otherwise {Dir()}/config.yaml. Returns "" when nothing exists.
func Locate(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}
	for _, name := range projectFiles {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}
	dir, err := Dir()
	if err != nil {
		return "", nil
	}
	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return "", nil
}

// Load reads the effective configuration. A missing file (when none was
// named explicitly) is not an error: defaults come back instead. Values
// absent from the file keep their defaults.
func Load(explicit string) (*Config, error) {
	cfg := Default()

	path, err := Locate(explicit)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// starter is the commented template written by WriteStarter.
const starter = `# respawn configuration.
# Values here are defaults; command-line flags override them.

# Restart strategy: auto, watchdog (OS notifications) or stat (polling).
strategy: auto

# Tick interval: poll cadence for stat, watch-maintenance cadence for
# watchdog.
interval: 1s

# Directory trees to watch.
watch:
  - .

# File extensions that count as source code.
extensions:
  - .go

# Extra doublestar globs to include, tested against root-relative paths.
#include:
#  - "templates/**/*.html"

# Globs to exclude; matching directories are pruned whole.
#exclude:
#  - "**/testdata"

# Files watched regardless of the rules above.
#extra_files:
#  - .env

# Compiled-artifact extensions mapped to their source extension.
#artifacts:
#  ".pyc": ".py"

# Env files loaded into the child environment (and watched).
#env_files:
#  - .env

# Grace period between asking the child to stop and killing it.
grace: 5s

# Run the child on a pseudo-terminal (keeps color output).
pty: false

# Record run history to ~/.respawn/journal.db.
journal: false
`

// WriteStarter writes the commented starter config to path, refusing to
// clobber an existing file.
func WriteStarter(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(starter); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
