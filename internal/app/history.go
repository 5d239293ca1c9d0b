package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/respawn/internal/config"
	"github.com/blackwell-systems/respawn/internal/journal"
	"github.com/blackwell-systems/respawn/internal/output"
)

var (
	historyLimit int
	historyStats bool

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs from the journal",
		Long: `List the runs respawn has recorded, newest first.

Runs are recorded only when the journal is enabled, either with
'respawn run --journal' or with 'journal: true' in the config file. Each
entry keeps the wrapped command, the detection strategy, how long the run
lasted and how it ended.

With --stats, aggregate figures are shown instead: total runs, restarts,
clean exits and uptime across everything recorded.`,
		Example: `  # Last 20 runs
  respawn history

  # Last 5 runs
  respawn history --limit 5

  # Aggregate restart statistics
  respawn history --stats`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}
)

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to list")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "show aggregate statistics instead of runs")

	RootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyLimit <= 0 {
		return fmt.Errorf("invalid limit: %d (must be positive)", historyLimit)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	path, err := journalPath(cfg)
	if err != nil {
		return fmt.Errorf("failed to resolve journal path: %w", err)
	}
	store, err := journal.New(path)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer store.Close()

	text, err := renderHistory(store, historyLimit, historyStats)
	if err != nil {
		return err
	}
	fmt.Print(text)
	return nil
}

// renderHistory formats either the recent-runs table or the aggregate
// summary from the journal.
func renderHistory(store *journal.Store, limit int, stats bool) (string, error) {
	if stats {
		s, err := store.Stats()
		if err != nil {
			return "", err
		}
		return output.RenderStatsSummary(s), nil
	}

	entries, err := store.ListRuns(limit)
	if err != nil {
		return "", err
	}
	return output.RenderRunTable(entries), nil
}
