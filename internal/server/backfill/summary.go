package backfill

import (
	"fmt"
	"sync"
	"time"
)

// Summary describes one backfill run.
type Summary struct {
	RunID      string    `json:"run_id"`
	RangeStart time.Time `json:"range_start"`
	RangeEnd   time.Time `json:"range_end"`
	PoolSize   int       `json:"pool_size"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Accounts        int `json:"accounts"`
	AccountsSkipped int `json:"accounts_skipped"`
	Tasks           int `json:"tasks"`
	TasksAbandoned  int `json:"tasks_abandoned"`
	RecordsUpdated  int `json:"records_updated"`
	RecordsSkipped  int `json:"records_skipped"`
	GeocodeFailures int `json:"geocode_failures"`
	UpdateFailures  int `json:"update_failures"`

	// Aborted is set when the run returned before every task finished.
	Aborted bool `json:"aborted"`
}

func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// ReportKey is the object key the summary is stored under.
func (s *Summary) ReportKey() string {
	return fmt.Sprintf("backfill/%s/%s.json", s.StartedAt.UTC().Format("2006-01-02"), s.RunID)
}

// tally collects counters from concurrently running tasks.
type tally struct {
	mu  sync.Mutex
	sum Summary
}

func (t *tally) update(fn func(s *Summary)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.sum)
}

func (t *tally) snapshot() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sum
}

type taskStats struct {
	updated         int
	skipped         int
	geocodeFailures int
	updateFailures  int
}
