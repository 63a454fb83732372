package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// CapabilityRepository reads the host platform's capability assignments.
// Read-only: participation scoping only, never authorization decisions.
type CapabilityRepository struct {
	db *sqlx.DB
}

// NewCapabilityRepository instantiates the repository.
func NewCapabilityRepository(db *sqlx.DB) *CapabilityRepository {
	return &CapabilityRepository{db: db}
}

// UsersWithCapabilities returns the users in a course holding every one of
// the named capabilities, in id order.
func (r *CapabilityRepository) UsersWithCapabilities(ctx context.Context, courseID int64, capabilities []string) ([]int64, error) {
	if len(capabilities) == 0 {
		return nil, nil
	}

	const query = `SELECT userid FROM user_capabilities
		WHERE courseid = $1 AND capability = ANY($2)
		GROUP BY userid HAVING COUNT(DISTINCT capability) >= $3
		ORDER BY userid`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, courseID, pq.Array(capabilities), len(capabilities)); err != nil {
		return nil, fmt.Errorf("query capability holders: %w", err)
	}
	return ids, nil
}
