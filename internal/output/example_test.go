package output_test

import (
	"fmt"
	"time"

	"github.com/blackwell-systems/respawn/internal/journal"
	"github.com/blackwell-systems/respawn/internal/output"
)

// Example showing how to render a run history table
func ExampleRenderRunTable() {
	entries := []*journal.Entry{
		{
			Command:   "go run ./cmd/server",
			Strategy:  "watchdog",
			StartedAt: time.Now().Add(-2 * time.Minute),
			Duration:  45 * time.Second,
			ExitCode:  5,
			Restarted: true,
		},
		{
			Command:   "go run ./cmd/server",
			Strategy:  "watchdog",
			StartedAt: time.Now().Add(-3 * time.Hour),
			Duration:  2 * time.Hour,
			ExitCode:  0,
		},
	}

	table := output.RenderRunTable(entries)
	fmt.Println(table)
}

// Example showing how to render journal statistics
func ExampleRenderStatsSummary() {
	stats := &journal.Stats{
		Runs:        12,
		Restarts:    9,
		CleanExits:  2,
		FirstRun:    time.Now().Add(-3 * 24 * time.Hour),
		LastRun:     time.Now().Add(-10 * time.Minute),
		TotalUptime: 95 * time.Minute,
		AvgUptime:   475 * time.Second,
	}

	fmt.Println(output.RenderStatsSummary(stats))
}

// Example showing how to use a spinner around a scan
func ExampleSpinner() {
	// Create and start a spinner
	spinner := output.NewSpinner("Scanning watch roots")
	spinner.Start()

	// Simulate some work
	time.Sleep(2 * time.Second)

	// Stop the spinner
	spinner.Stop()
	fmt.Println("Scan complete!")
}
