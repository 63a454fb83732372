package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campuspulse/engagement-api/internal/models"
)

// ParticipationRepository owns the derived activity_participants index
// mapping instances to the users counted as participants.
type ParticipationRepository struct {
	db *sqlx.DB
}

// NewParticipationRepository instantiates the repository.
func NewParticipationRepository(db *sqlx.DB) *ParticipationRepository {
	return &ParticipationRepository{db: db}
}

// ReplaceForModule swaps the participation rows for one module: existing
// rows are dropped, then the new set is inserted in chunks.
func (r *ParticipationRepository) ReplaceForModule(ctx context.Context, module string, rows []models.Participation) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM activity_participants WHERE module = $1", module); err != nil {
		return fmt.Errorf("delete participation for %s: %w", module, err)
	}

	const query = `INSERT INTO activity_participants (module, instance_id, course_id, user_id)
		VALUES (:module, :instance_id, :course_id, :user_id)`
	for start := 0; start < len(rows); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(rows) {
			end = len(rows)
		}
		if _, err := r.db.NamedExecContext(ctx, query, rows[start:end]); err != nil {
			return fmt.Errorf("insert participation for %s: %w", module, err)
		}
	}
	return nil
}

// UserIDs returns the participant user ids for one instance, in id order.
func (r *ParticipationRepository) UserIDs(ctx context.Context, module string, instanceID int64) ([]int64, error) {
	var ids []int64
	const query = "SELECT user_id FROM activity_participants WHERE module = $1 AND instance_id = $2 ORDER BY user_id"
	if err := r.db.SelectContext(ctx, &ids, query, module, instanceID); err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	return ids, nil
}
