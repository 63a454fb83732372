package adapter

import "github.com/jmoiron/sqlx"

// NewDataModuleSource builds the data-module adapter. Data modules have no
// time limit and no overrides; a record that reached approval or submission
// counts as finished.
func NewDataModuleSource(db *sqlx.DB) Source {
	return newBaseSource(db, sourceSpec{
		module:       "datamodule",
		table:        "data",
		courseField:  "course",
		nameField:    "name",
		openField:    "timeavailablefrom",
		closeField:   "timeavailableto",
		capabilities: []string{"mod/data:writeentry"},

		attemptTable:   "data_records",
		attemptFK:      "dataid",
		statusField:    "status",
		finishedStates: []string{"approved", "submitted"},
	})
}
