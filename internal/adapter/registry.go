package adapter

import "github.com/jmoiron/sqlx"

// NewDefaultRegistry wires every built-in activity source against the host
// store, filtered by the enabled module list.
func NewDefaultRegistry(db *sqlx.DB, enabled []string) *Registry {
	return NewRegistry([]Source{
		NewQuizSource(db),
		NewAssignmentSource(db),
		NewLessonSource(db),
		NewWorkshopSource(db),
		NewDataModuleSource(db),
	}, enabled)
}
