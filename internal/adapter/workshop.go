package adapter

import "github.com/jmoiron/sqlx"

// NewWorkshopSource builds the workshop adapter. Workshops have neither a
// time limit nor override windows; its submission phase bounds the window.
func NewWorkshopSource(db *sqlx.DB) Source {
	return newBaseSource(db, sourceSpec{
		module:       "workshop",
		table:        "workshop",
		courseField:  "course",
		nameField:    "name",
		openField:    "submissionstart",
		closeField:   "submissionend",
		capabilities: []string{"mod/workshop:submit"},

		attemptTable:   "workshop_submissions",
		attemptFK:      "workshopid",
		statusField:    "status",
		finishedStates: []string{"submitted"},
	})
}
