package adapter

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// QuizSource adapts the quiz activity tables. Quizzes carry a time limit,
// per-user/group overrides and a rich attempt state vocabulary.
type QuizSource struct {
	*baseSource
}

// NewQuizSource builds the quiz adapter.
func NewQuizSource(db *sqlx.DB) *QuizSource {
	return &QuizSource{baseSource: newBaseSource(db, sourceSpec{
		module:       "quiz",
		table:        "quiz",
		courseField:  "course",
		nameField:    "name",
		openField:    "timeopen",
		closeField:   "timeclose",
		limitField:   "timelimit",
		capabilities: []string{"mod/quiz:attempt"},

		overrideTable: "quiz_overrides",
		overrideFK:    "quiz",
		ovOpenField:   "timeopen",
		ovCloseField:  "timeclose",
		ovLimitField:  "timelimit",

		attemptTable:   "quiz_attempts",
		attemptFK:      "quiz",
		statusField:    "state",
		finishedStates: []string{"finished", "abandoned"},
	})}
}

// DashboardData returns attempt counts grouped by state.
func (s *QuizSource) DashboardData(ctx context.Context, instanceID int64) (map[string]interface{}, error) {
	type row struct {
		State string `db:"state"`
		Count int    `db:"total"`
	}
	var rows []row
	query := "SELECT state, COUNT(*) AS total FROM quiz_attempts WHERE quiz = $1 GROUP BY state ORDER BY state"
	if err := s.db.SelectContext(ctx, &rows, query, instanceID); err != nil {
		return nil, fmt.Errorf("quiz: dashboard data: %w", err)
	}

	byState := make(map[string]int, len(rows))
	total := 0
	for _, r := range rows {
		byState[r.State] = r.Count
		total += r.Count
	}
	return map[string]interface{}{
		"attempts_total":    total,
		"attempts_by_state": byState,
	}, nil
}
