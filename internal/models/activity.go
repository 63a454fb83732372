package models

import "database/sql"

// ActivityRef identifies one gradable activity instance across modules.
type ActivityRef struct {
	Module     string `json:"module"`
	InstanceID int64  `json:"instance_id"`
}

// ActivityInstance is one gradable activity read from the host content
// store. Open/close/limit are unix seconds; zero means unset. Read-only to
// this service.
type ActivityInstance struct {
	ID        int64  `db:"id" json:"id"`
	CourseID  int64  `db:"course_id" json:"course_id"`
	Module    string `db:"-" json:"module"`
	Name      string `db:"name" json:"name"`
	TimeOpen  int64  `db:"time_open" json:"time_open"`
	TimeClose int64  `db:"time_close" json:"time_close"`
	TimeLimit int64  `db:"time_limit" json:"time_limit"`

	// HasOverride marks instances with at least one override window;
	// Overrides is populated only by the override-aware tracked query.
	HasOverride bool             `db:"has_override" json:"has_override"`
	Overrides   []OverrideWindow `db:"-" json:"-"`
}

// Ref returns the instance identity.
func (a ActivityInstance) Ref() ActivityRef {
	return ActivityRef{Module: a.Module, InstanceID: a.ID}
}

// EffectiveWindow resolves the instance window against its group overrides.
// The most permissive bound wins: the earliest group open and the latest
// group close extend the base window, never shrink it. User-level overrides
// never move the instance window; they only shift that user's own rows.
func (a ActivityInstance) EffectiveWindow() (open, close int64) {
	open, close = a.TimeOpen, a.TimeClose
	for _, ov := range a.Overrides {
		if !ov.GroupID.Valid {
			continue
		}
		if ov.TimeOpen.Valid && ov.TimeOpen.Int64 > 0 && (open == 0 || ov.TimeOpen.Int64 < open) {
			open = ov.TimeOpen.Int64
		}
		if ov.TimeClose.Valid && ov.TimeClose.Int64 > close {
			close = ov.TimeClose.Int64
		}
	}
	return open, close
}

// OverrideWindow is a per-user or per-group exception to an activity's
// open/close/time-limit. Consumed to compute effective windows, never
// mutated here.
type OverrideWindow struct {
	ID         int64         `db:"id" json:"id"`
	InstanceID int64         `db:"instance_id" json:"instance_id"`
	UserID     sql.NullInt64 `db:"user_id" json:"-"`
	GroupID    sql.NullInt64 `db:"group_id" json:"-"`
	TimeOpen   sql.NullInt64 `db:"time_open" json:"-"`
	TimeClose  sql.NullInt64 `db:"time_close" json:"-"`
	TimeLimit  sql.NullInt64 `db:"time_limit" json:"-"`
}

// UserStates holds the two-way engagement split an adapter derives from its
// own attempt records.
type UserStates struct {
	InProgress map[int64]struct{}
	Finished   map[int64]struct{}
}

// NewUserStates returns an empty classification.
func NewUserStates() UserStates {
	return UserStates{
		InProgress: make(map[int64]struct{}),
		Finished:   make(map[int64]struct{}),
	}
}

// Classified reports whether the user appears in either state set.
func (s UserStates) Classified(userID int64) bool {
	if _, ok := s.InProgress[userID]; ok {
		return true
	}
	_, ok := s.Finished[userID]
	return ok
}
