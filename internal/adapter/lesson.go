package adapter

import "github.com/jmoiron/sqlx"

// NewLessonSource builds the lesson adapter. Lessons support overrides but
// have no time limit; a completed attempt counts as finished.
func NewLessonSource(db *sqlx.DB) Source {
	return newBaseSource(db, sourceSpec{
		module:       "lesson",
		table:        "lesson",
		courseField:  "course",
		nameField:    "name",
		openField:    "available",
		closeField:   "deadline",
		capabilities: []string{"mod/lesson:view"},

		overrideTable: "lesson_overrides",
		overrideFK:    "lessonid",
		ovOpenField:   "available",
		ovCloseField:  "deadline",

		attemptTable:   "lesson_attempts",
		attemptFK:      "lessonid",
		statusField:    "state",
		finishedStates: []string{"completed"},
	})
}
