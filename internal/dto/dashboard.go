package dto

import (
	"time"

	"github.com/campuspulse/engagement-api/internal/models"
	"github.com/campuspulse/engagement-api/pkg/sched"
)

// FrequencyQuery scopes a frequency index read.
type FrequencyQuery struct {
	Year       int    `form:"year" validate:"required,min=1970,max=2100"`
	StartMonth int    `form:"start_month" validate:"omitempty,min=1,max=12"`
	Metric     string `form:"metric" validate:"omitempty,oneof=activities students"`
	Modules    string `form:"modules"`
}

// CalendarCell is one day of the calendar heatmap.
type CalendarCell struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
	Count int `json:"count"`
	Heat  int `json:"heat"`
}

// FrequencyIndexResponse is the calendar heatmap payload. An empty Cells
// slice with nil GeneratedAt means the index has not been built yet.
type FrequencyIndexResponse struct {
	Year        int                       `json:"year"`
	StartMonth  int                       `json:"start_month"`
	Metric      string                    `json:"metric"`
	Cells       []CalendarCell           `json:"cells"`
	Legend      []models.HeatLegendEntry `json:"legend"`
	GeneratedAt *time.Time               `json:"generated_at,omitempty"`
}

// PartitionQuery scopes a window partition read.
type PartitionQuery struct {
	LookAheadHours  int    `form:"lookahead_hours" validate:"omitempty,min=0,max=168"`
	LookBehindHours int    `form:"lookbehind_hours" validate:"omitempty,min=0,max=168"`
	Modules         string `form:"modules"`
}

// PartitionResponse wraps the merged window partition.
type PartitionResponse struct {
	Now       int64                  `json:"now"`
	Partition models.WindowPartition `json:"partition"`
}

// TrendsResponse lists snapshots most recent first.
type TrendsResponse struct {
	Module     string                 `json:"module"`
	InstanceID int64                  `json:"instance_id"`
	Snapshots  []models.TrendSnapshot `json:"snapshots"`
}

// JobStatusResponse reports scheduler and telemetry state for the admin
// view.
type JobStatusResponse struct {
	Jobs    []sched.JobStatus        `json:"jobs"`
	Events  []models.CompletionEvent `json:"events"`
	Metrics models.SystemMetrics     `json:"metrics"`
}
