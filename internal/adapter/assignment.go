package adapter

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// AssignmentSource adapts the assignment tables. Assignments have no time
// limit; a submission in status "submitted" counts as finished, any other
// submission record as in-progress.
type AssignmentSource struct {
	*baseSource
}

// NewAssignmentSource builds the assignment adapter.
func NewAssignmentSource(db *sqlx.DB) *AssignmentSource {
	return &AssignmentSource{baseSource: newBaseSource(db, sourceSpec{
		module:       "assignment",
		table:        "assign",
		courseField:  "course",
		nameField:    "name",
		openField:    "allowsubmissionsfromdate",
		closeField:   "duedate",
		capabilities: []string{"mod/assign:submit"},

		overrideTable: "assign_overrides",
		overrideFK:    "assignid",
		ovOpenField:   "allowsubmissionsfromdate",
		ovCloseField:  "duedate",

		attemptTable:   "assign_submission",
		attemptFK:      "assignment",
		statusField:    "status",
		finishedStates: []string{"submitted"},
	})}
}

// DashboardData returns submission counts grouped by status.
func (s *AssignmentSource) DashboardData(ctx context.Context, instanceID int64) (map[string]interface{}, error) {
	type row struct {
		Status string `db:"status"`
		Count  int    `db:"total"`
	}
	var rows []row
	query := "SELECT status, COUNT(*) AS total FROM assign_submission WHERE assignment = $1 GROUP BY status ORDER BY status"
	if err := s.db.SelectContext(ctx, &rows, query, instanceID); err != nil {
		return nil, fmt.Errorf("assignment: dashboard data: %w", err)
	}

	byStatus := make(map[string]int, len(rows))
	total := 0
	for _, r := range rows {
		byStatus[r.Status] = r.Count
		total += r.Count
	}
	return map[string]interface{}{
		"submissions_total":     total,
		"submissions_by_status": byStatus,
	}, nil
}
