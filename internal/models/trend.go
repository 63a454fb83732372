package models

import "time"

// StateCounts are the per-state participant totals captured by one tracking
// run for one activity instance.
type StateCounts struct {
	NotLoggedIn int `db:"not_logged_in" json:"not_logged_in"`
	LoggedIn    int `db:"logged_in" json:"logged_in"`
	InProgress  int `db:"in_progress" json:"in_progress"`
	Finished    int `db:"finished" json:"finished"`
}

// Total sums all four states.
func (c StateCounts) Total() int {
	return c.NotLoggedIn + c.LoggedIn + c.InProgress + c.Finished
}

// TrendSnapshot is one immutable time-series point per (instance, tracking
// run). Append-only; consumers select by most recent CreatedAt and never
// assume exactly one snapshot per period.
type TrendSnapshot struct {
	ID         int64  `db:"id" json:"id"`
	Module     string `db:"module" json:"module"`
	InstanceID int64  `db:"instance_id" json:"instance_id"`
	StateCounts
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
