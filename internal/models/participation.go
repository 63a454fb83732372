package models

// Participation maps one user onto one activity instance they are counted
// for. Rebuilt alongside the frequency index; scoped by the adapter's
// required capabilities.
type Participation struct {
	Module     string `db:"module" json:"module"`
	InstanceID int64  `db:"instance_id" json:"instance_id"`
	CourseID   int64  `db:"course_id" json:"course_id"`
	UserID     int64  `db:"user_id" json:"user_id"`
}
