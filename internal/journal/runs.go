package journal

import (
	"fmt"
	"time"

	"github.com/blackwell-systems/respawn/internal/reload"
)

// Entry is one recorded child run.
type Entry struct {
	ID        int64
	Command   string
	Strategy  string
	StartedAt time.Time
	EndedAt   time.Time
	Duration  time.Duration
	ExitCode  int
	Restarted bool
}

// RecordRun inserts one completed run. Store satisfies reload.Recorder so
// a supervisor can write here directly.
func (s *Store) RecordRun(run reload.Run) error {
	query := `
		INSERT INTO runs (command, strategy, started_at, ended_at, duration_ms, exit_code, restarted)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		run.Command,
		run.Strategy,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.EndedAt.UTC().Format(time.RFC3339Nano),
		run.EndedAt.Sub(run.StartedAt).Milliseconds(),
		run.ExitCode,
		run.Restarted,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", mapErr(err))
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. A non-positive
// limit returns everything.
func (s *Store) ListRuns(limit int) ([]*Entry, error) {
	query := `
		SELECT id, command, strategy, started_at, ended_at, duration_ms, exit_code, restarted
		FROM runs
		ORDER BY id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", mapErr(err))
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var (
			e          Entry
			startedAt  string
			endedAt    string
			durationMS int64
		)
		err := rows.Scan(
			&e.ID,
			&e.Command,
			&e.Strategy,
			&startedAt,
			&endedAt,
			&durationMS,
			&e.ExitCode,
			&e.Restarted,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}

		if e.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("failed to parse started_at for run %d: %w", e.ID, err)
		}
		if e.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, fmt.Errorf("failed to parse ended_at for run %d: %w", e.ID, err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return entries, nil
}
