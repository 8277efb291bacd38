package models

import (
	"time"
)

// Scoring run statuses
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ScoringRun is the audit record of one scoring run
type ScoringRun struct {
	ID          int64     `db:"id"`
	RunID       string    `db:"run_id"`
	Rebuild     bool      `db:"rebuild"`
	Status      string    `db:"status"`
	Scored      int       `db:"scored"`
	Blacklisted int       `db:"blacklisted"`
	Invalid     int       `db:"invalid"`
	Players     int       `db:"players"`
	DurationMs  int64     `db:"duration_ms"`
	Error       *string   `db:"error"`
	CreatedAt   time.Time `db:"created_at"`
}

// NewScoringRun builds the audit record for a finished run. runErr is nil on success.
func NewScoringRun(summary *ScoringSummary, rebuild bool, runErr error) *ScoringRun {
	run := &ScoringRun{
		RunID:       summary.RunID,
		Rebuild:     rebuild,
		Status:      RunStatusCompleted,
		Scored:      summary.Scored,
		Blacklisted: summary.Blacklisted,
		Invalid:     summary.Invalid,
		Players:     summary.PlayerCount(),
		DurationMs:  summary.Duration.Milliseconds(),
	}
	if runErr != nil {
		msg := runErr.Error()
		run.Status = RunStatusFailed
		run.Error = &msg
	}
	return run
}
