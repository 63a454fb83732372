package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// defaultSessionChunkSize caps user ids per IN clause; the host store's
// practical parameter limit.
const defaultSessionChunkSize = 250

// SessionRepository reads the host platform's session table to answer
// "which of these users are currently active".
type SessionRepository struct {
	db        *sqlx.DB
	chunkSize int
}

// NewSessionRepository instantiates the repository.
func NewSessionRepository(db *sqlx.DB, chunkSize int) *SessionRepository {
	if chunkSize <= 0 {
		chunkSize = defaultSessionChunkSize
	}
	return &SessionRepository{db: db, chunkSize: chunkSize}
}

// ActiveUsers returns the subset of userIDs with a session row modified at
// or after threshold. Lookups are chunked to respect the parameter limit.
func (r *SessionRepository) ActiveUsers(ctx context.Context, userIDs []int64, threshold int64) (map[int64]bool, error) {
	active := make(map[int64]bool, len(userIDs))
	for _, chunk := range chunkInt64s(userIDs, r.chunkSize) {
		query, args, err := sqlx.In("SELECT DISTINCT userid FROM sessions WHERE timemodified >= ? AND userid IN (?)", threshold, chunk)
		if err != nil {
			return nil, fmt.Errorf("build session query: %w", err)
		}
		query = r.db.Rebind(query)

		var ids []int64
		if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
			return nil, fmt.Errorf("query active sessions: %w", err)
		}
		for _, id := range ids {
			active[id] = true
		}
	}
	return active, nil
}

// chunkInt64s splits ids into slices of at most size elements.
func chunkInt64s(ids []int64, size int) [][]int64 {
	if len(ids) == 0 {
		return nil
	}
	if size <= 0 {
		size = defaultSessionChunkSize
	}
	chunks := make([][]int64, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
