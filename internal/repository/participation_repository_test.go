package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/campuspulse/engagement-api/internal/models"
)

func TestParticipationRepositoryReplaceForModule(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewParticipationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM activity_participants WHERE module = $1")).
		WithArgs("quiz").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO activity_participants")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	rows := []models.Participation{
		{Module: "quiz", InstanceID: 10, CourseID: 1, UserID: 5},
		{Module: "quiz", InstanceID: 10, CourseID: 1, UserID: 6},
	}
	require.NoError(t, repo.ReplaceForModule(context.Background(), "quiz", rows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipationRepositoryReplaceForModuleEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewParticipationRepository(db)
	// An empty set still clears the module's previous rows.
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM activity_participants WHERE module = $1")).
		WithArgs("lesson").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.ReplaceForModule(context.Background(), "lesson", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipationRepositoryUserIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewParticipationRepository(db)
	rows := sqlmock.NewRows([]string{"user_id"}).AddRow(5).AddRow(6)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM activity_participants WHERE module = $1 AND instance_id = $2")).
		WithArgs("quiz", int64(10)).
		WillReturnRows(rows)

	ids, err := repo.UserIDs(context.Background(), "quiz", 10)
	require.NoError(t, err)
	require.Equal(t, []int64{5, 6}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}
