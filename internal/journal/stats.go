package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Stats aggregates the recorded history.
type Stats struct {
	Runs        int
	Restarts    int
	CleanExits  int
	FirstRun    time.Time
	LastRun     time.Time
	TotalUptime time.Duration
	AvgUptime   time.Duration
}

// Stats computes aggregate figures over every recorded run.
func (s *Store) Stats() (*Stats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(restarted), 0),
			COALESCE(SUM(CASE WHEN exit_code = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(duration_ms), 0),
			COALESCE(AVG(duration_ms), 0)
		FROM runs
	`
	var (
		st      Stats
		totalMS int64
		avgMS   float64
	)
	err := s.db.QueryRow(query).Scan(&st.Runs, &st.Restarts, &st.CleanExits, &totalMS, &avgMS)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate runs: %w", mapErr(err))
	}
	st.TotalUptime = time.Duration(totalMS) * time.Millisecond
	st.AvgUptime = time.Duration(avgMS * float64(time.Millisecond))

	if st.Runs == 0 {
		return &st, nil
	}
	if st.FirstRun, err = s.runTime("ORDER BY id ASC"); err != nil {
		return nil, err
	}
	if st.LastRun, err = s.runTime("ORDER BY id DESC"); err != nil {
		return nil, err
	}
	return &st, nil
}

// runTime fetches the started_at of the first row under the given order.
// Insertion order tracks wall-clock order here: the launcher records runs
// one at a time.
func (s *Store) runTime(order string) (time.Time, error) {
	var raw string
	err := s.db.QueryRow("SELECT started_at FROM runs " + order + " LIMIT 1").Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch run time: %w", mapErr(err))
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse run time: %w", err)
	}
	return ts, nil
}
