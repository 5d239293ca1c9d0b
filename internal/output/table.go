// Package output provides terminal output utilities for respawn.
//
// This package includes:
//   - Table rendering for run history, journal statistics, and watched paths
//   - Spinners for indeterminate operations such as the initial scan
//   - Human-readable formatting for durations and timestamps
//
// All table rendering functions use ASCII characters and ANSI color codes for
// terminal output. The spinner is thread-safe and can be used from multiple
// goroutines.
package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/respawn/internal/journal"
	"github.com/blackwell-systems/respawn/internal/reload"
)

// ANSI color codes for exit status display
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderRunTable renders a table of recorded runs, newest first.
// Expects entries in the order the journal returns them.
func RenderRunTable(entries []*journal.Entry) string {
	if len(entries) == 0 {
		return "No runs recorded yet.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("%-13s %-30s %-9s %-10s %s\n",
		"Started", "Command", "Strategy", "Duration", "Exit"))
	sb.WriteString(strings.Repeat("─", 72))
	sb.WriteString("\n")

	// Rows
	for _, entry := range entries {
		sb.WriteString(fmt.Sprintf("%-13s %-30s %-9s %-10s %s\n",
			formatRelativeTime(entry.StartedAt),
			truncate(entry.Command, 30),
			entry.Strategy,
			formatDuration(entry.Duration),
			formatExit(entry.ExitCode, entry.Restarted)))
	}

	return sb.String()
}

// RenderStatsSummary renders aggregate journal statistics as a key/value
// block. An empty journal renders a single hint line.
func RenderStatsSummary(stats *journal.Stats) string {
	if stats == nil || stats.Runs == 0 {
		return "No runs recorded yet.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-15s %d\n", "Runs:", stats.Runs))
	sb.WriteString(fmt.Sprintf("%-15s %s\n", "Restarts:",
		colorize(colorYellow, fmt.Sprintf("%d", stats.Restarts))))
	sb.WriteString(fmt.Sprintf("%-15s %s\n", "Clean exits:",
		colorize(colorGreen, fmt.Sprintf("%d", stats.CleanExits))))
	sb.WriteString(fmt.Sprintf("%-15s %s\n", "First run:", formatRelativeTime(stats.FirstRun)))
	sb.WriteString(fmt.Sprintf("%-15s %s\n", "Last run:", formatRelativeTime(stats.LastRun)))
	sb.WriteString(fmt.Sprintf("%-15s %s\n", "Total uptime:", formatDuration(stats.TotalUptime)))
	sb.WriteString(fmt.Sprintf("%-15s %s\n", "Avg uptime:", formatDuration(stats.AvgUptime)))

	return sb.String()
}

// RenderPathTable renders the effective watch set: the observed directory
// roots followed by every watched file, both sorted.
func RenderPathTable(roots, files []string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Watched roots (%d)\n", len(roots)))
	sb.WriteString(strings.Repeat("─", 40))
	sb.WriteString("\n")
	if len(roots) == 0 {
		sb.WriteString(colorize(colorGray, "(none)"))
		sb.WriteString("\n")
	}
	for _, root := range sortedCopy(roots) {
		sb.WriteString("  ")
		sb.WriteString(root)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Watched files (%d)\n", len(files)))
	sb.WriteString(strings.Repeat("─", 40))
	sb.WriteString("\n")
	if len(files) == 0 {
		sb.WriteString(colorize(colorGray, "(none)"))
		sb.WriteString("\n")
	}
	for _, file := range sortedCopy(files) {
		sb.WriteString("  ")
		sb.WriteString(file)
		sb.WriteString("\n")
	}

	return sb.String()
}

func sortedCopy(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)
	return sorted
}

// formatExit returns a colored status cell for a run's exit.
// Restarts are the common case and render as "restart" rather than as the
// reserved exit code, which would read like a failure.
func formatExit(code int, restarted bool) string {
	switch {
	case restarted:
		return colorize(colorYellow, "restart")
	case code == 0:
		return colorize(colorGreen, "ok")
	case code == reload.ExitCode:
		return colorize(colorYellow, "restart")
	default:
		return colorize(colorRed, fmt.Sprintf("exit %d", code))
	}
}

// formatDuration renders a duration at a precision that matches its size:
// sub-second runs show milliseconds, short runs show seconds, longer runs
// drop to whole minutes and hours.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		mins := int(d.Minutes())
		secs := int(d.Seconds()) - mins*60
		return fmt.Sprintf("%dm%02ds", mins, secs)
	default:
		hours := int(d.Hours())
		mins := int(d.Minutes()) - hours*60
		return fmt.Sprintf("%dh%02dm", hours, mins)
	}
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	now := time.Now()
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	case diff < 30*24*time.Hour:
		weeks := int(diff.Hours() / 24 / 7)
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	case diff < 365*24*time.Hour:
		months := int(diff.Hours() / 24 / 30)
		if months == 1 {
			return "1 month ago"
		}
		return fmt.Sprintf("%d months ago", months)
	default:
		years := int(diff.Hours() / 24 / 365)
		if years == 1 {
			return "1 year ago"
		}
		return fmt.Sprintf("%d years ago", years)
	}
}

// truncate shortens a string to maxLen, appending "..." when it cuts.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
