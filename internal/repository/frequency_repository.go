package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campuspulse/engagement-api/internal/models"
)

// insertChunkSize bounds rows per multi-row insert so parameter counts stay
// under the store's practical limit.
const insertChunkSize = 100

// FrequencyRepository owns the derived frequency_events table.
type FrequencyRepository struct {
	db *sqlx.DB
}

// NewFrequencyRepository instantiates the repository.
func NewFrequencyRepository(db *sqlx.DB) *FrequencyRepository {
	return &FrequencyRepository{db: db}
}

// InsertBatch bulk-inserts frequency rows in chunks.
func (r *FrequencyRepository) InsertBatch(ctx context.Context, events []models.FrequencyEvent) error {
	const query = `INSERT INTO frequency_events
		(module, instance_id, course_id, name, url, time_open, day, month, year, scope, participants, user_id)
		VALUES (:module, :instance_id, :course_id, :name, :url, :time_open, :day, :month, :year, :scope, :participants, :user_id)`

	for start := 0; start < len(events); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(events) {
			end = len(events)
		}
		if _, err := r.db.NamedExecContext(ctx, query, events[start:end]); err != nil {
			return fmt.Errorf("insert frequency events: %w", err)
		}
	}
	return nil
}

// DeleteFrom removes every row whose open timestamp is at or after cutoff
// and returns the number of rows removed. cutoff zero clears the table.
func (r *FrequencyRepository) DeleteFrom(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM frequency_events WHERE time_open >= $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete frequency events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete frequency events rows affected: %w", err)
	}
	return n, nil
}

// DailyCounts rolls the index up per calendar day for the filter's display
// year. StartMonth shifts the window to an academic year: months at or after
// it come from Year, earlier months from Year+1.
func (r *FrequencyRepository) DailyCounts(ctx context.Context, filter models.FrequencyFilter) ([]models.DailyCount, error) {
	var builder strings.Builder
	var args []interface{}

	switch filter.Metric {
	case models.MetricStudents:
		builder.WriteString("SELECT day, month, year, COUNT(DISTINCT user_id) AS total FROM frequency_events WHERE scope = 'user'")
	default:
		builder.WriteString("SELECT day, month, year, COUNT(*) AS total FROM frequency_events WHERE scope = 'site'")
	}

	args = append(args, filter.Year)
	if filter.StartMonth > 1 {
		args = append(args, filter.StartMonth)
		builder.WriteString(fmt.Sprintf(" AND ((year = $1 AND month >= $%d) OR (year = $1 + 1 AND month < $%d))", len(args), len(args)))
	} else {
		builder.WriteString(" AND year = $1")
	}
	if len(filter.Modules) > 0 {
		args = append(args, pq.Array(filter.Modules))
		builder.WriteString(fmt.Sprintf(" AND module = ANY($%d)", len(args)))
	}
	builder.WriteString(" GROUP BY year, month, day ORDER BY year, month, day")

	var counts []models.DailyCount
	if err := r.db.SelectContext(ctx, &counts, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query daily counts: %w", err)
	}
	return counts, nil
}

// Events lists the site-scope rows for the filter, newest first. Used by the
// export facade.
func (r *FrequencyRepository) Events(ctx context.Context, filter models.FrequencyFilter) ([]models.FrequencyEvent, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT id, module, instance_id, course_id, name, url, time_open, day, month, year, scope, participants, user_id
		FROM frequency_events WHERE scope = 'site'`)

	args := []interface{}{filter.Year}
	if filter.StartMonth > 1 {
		args = append(args, filter.StartMonth)
		builder.WriteString(fmt.Sprintf(" AND ((year = $1 AND month >= $%d) OR (year = $1 + 1 AND month < $%d))", len(args), len(args)))
	} else {
		builder.WriteString(" AND year = $1")
	}
	if len(filter.Modules) > 0 {
		args = append(args, pq.Array(filter.Modules))
		builder.WriteString(fmt.Sprintf(" AND module = ANY($%d)", len(args)))
	}
	builder.WriteString(" ORDER BY time_open, module, instance_id")

	var events []models.FrequencyEvent
	if err := r.db.SelectContext(ctx, &events, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query frequency events: %w", err)
	}
	return events, nil
}
