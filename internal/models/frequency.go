package models

import "database/sql"

// FrequencyMetric selects which rollup a frequency query returns.
type FrequencyMetric string

const (
	// MetricActivities counts events per day.
	MetricActivities FrequencyMetric = "activities"
	// MetricStudents counts distinct participating students per day.
	MetricStudents FrequencyMetric = "students"
)

// Valid reports whether the metric is one of the supported rollups.
func (m FrequencyMetric) Valid() bool {
	return m == MetricActivities || m == MetricStudents
}

// Frequency event scopes. Site rows carry an aggregate participant count;
// user rows carry one row per participating user.
const (
	ScopeSite = "site"
	ScopeUser = "user"
)

// FrequencyEvent is one denormalized row of the frequency index: one
// (instance, effective open day) pair. Rebuilt wholesale by the aggregation
// job; rows dated in the past are immutable history.
type FrequencyEvent struct {
	ID           int64         `db:"id" json:"id"`
	Module       string        `db:"module" json:"module"`
	InstanceID   int64         `db:"instance_id" json:"instance_id"`
	CourseID     int64         `db:"course_id" json:"course_id"`
	Name         string        `db:"name" json:"name"`
	URL          string        `db:"url" json:"url"`
	TimeOpen     int64         `db:"time_open" json:"time_open"`
	Day          int           `db:"day" json:"day"`
	Month        int           `db:"month" json:"month"`
	Year         int           `db:"year" json:"year"`
	Scope        string        `db:"scope" json:"scope"`
	Participants int           `db:"participants" json:"participants"`
	UserID       sql.NullInt64 `db:"user_id" json:"-"`
}

// FrequencyFilter scopes frequency index reads.
type FrequencyFilter struct {
	Year       int
	StartMonth int
	Metric     FrequencyMetric
	// Modules restricts results to the named activity types. Empty means all.
	Modules []string
}

// HeatLegendEntry reports the smallest count that mapped onto a heat level.
type HeatLegendEntry struct {
	Level    int `json:"level"`
	MinCount int `json:"min_count"`
}

// DailyCount is a per-day rollup of the frequency index.
type DailyCount struct {
	Day   int `db:"day" json:"day"`
	Month int `db:"month" json:"month"`
	Year  int `db:"year" json:"year"`
	Count int `db:"total" json:"count"`
}
