package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestCapabilityRepositoryUsersWithCapabilities(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCapabilityRepository(db)
	capabilities := []string{"mod/quiz:attempt", "mod/quiz:view"}
	rows := sqlmock.NewRows([]string{"userid"}).AddRow(5).AddRow(8)
	mock.ExpectQuery(regexp.QuoteMeta("HAVING COUNT(DISTINCT capability) >= $3")).
		WithArgs(int64(1), pq.Array(capabilities), 2).
		WillReturnRows(rows)

	ids, err := repo.UsersWithCapabilities(context.Background(), 1, capabilities)
	require.NoError(t, err)
	require.Equal(t, []int64{5, 8}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCapabilityRepositoryNoCapabilities(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCapabilityRepository(db)
	ids, err := repo.UsersWithCapabilities(context.Background(), 1, nil)
	require.NoError(t, err)
	require.Nil(t, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}
