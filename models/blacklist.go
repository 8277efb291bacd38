package models

import "time"

// BlacklistEntry is a player/server pair excluded from scoring
type BlacklistEntry struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Src       string    `db:"src"`
	CreatedAt time.Time `db:"created_at"`
}

// ScoringSummary reports what a scoring run did
type ScoringSummary struct {
	RunID       string
	Scored      int
	Blacklisted int
	Invalid     int
	Players     map[string]struct{}
	Duration    time.Duration
}

// PlayerCount returns the number of distinct players seen by the run
func (s *ScoringSummary) PlayerCount() int {
	return len(s.Players)
}
