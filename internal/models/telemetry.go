package models

import "time"

// Job phase actions reported to the telemetry sink.
const (
	ActionDelete = "delete"
	ActionSite   = "site"
	ActionUser   = "user"
	ActionTrack  = "track"
)

// CompletionEvent is the structured completion signal each aggregation
// phase and tracking run emits.
type CompletionEvent struct {
	Action          string    `json:"action"`
	DurationSeconds float64   `json:"duration_seconds"`
	InstanceCount   int       `json:"instance_count"`
	At              time.Time `json:"at"`
}

// SystemMetrics is a lightweight instrumentation snapshot for the admin
// status endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	JobPhasesTotal           uint64    `json:"job_phases_total"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
