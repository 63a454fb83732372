package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campuspulse/engagement-api/internal/models"
)

// TrendRepository owns the append-only trend_snapshots table.
type TrendRepository struct {
	db *sqlx.DB
}

// NewTrendRepository instantiates the repository.
func NewTrendRepository(db *sqlx.DB) *TrendRepository {
	return &TrendRepository{db: db}
}

// Insert appends one snapshot. Snapshots are never updated.
func (r *TrendRepository) Insert(ctx context.Context, snapshot *models.TrendSnapshot) error {
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO trend_snapshots
		(module, instance_id, not_logged_in, logged_in, in_progress, finished, created_at)
		VALUES (:module, :instance_id, :not_logged_in, :logged_in, :in_progress, :finished, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, snapshot); err != nil {
		return fmt.Errorf("insert trend snapshot: %w", err)
	}
	return nil
}

// List returns snapshots for an instance, most recent first.
func (r *TrendRepository) List(ctx context.Context, module string, instanceID int64, limit int) ([]models.TrendSnapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT id, module, instance_id, not_logged_in, logged_in, in_progress, finished, created_at
		FROM trend_snapshots WHERE module = $1 AND instance_id = $2
		ORDER BY created_at DESC, id DESC LIMIT $3`

	var snapshots []models.TrendSnapshot
	if err := r.db.SelectContext(ctx, &snapshots, query, module, instanceID, limit); err != nil {
		return nil, fmt.Errorf("query trend snapshots: %w", err)
	}
	return snapshots, nil
}

// DeleteHistory removes every snapshot for the instance. The explicit
// history clear is the only deletion path for trend data.
func (r *TrendRepository) DeleteHistory(ctx context.Context, module string, instanceID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM trend_snapshots WHERE module = $1 AND instance_id = $2", module, instanceID)
	if err != nil {
		return 0, fmt.Errorf("delete trend history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete trend history rows affected: %w", err)
	}
	return n, nil
}
