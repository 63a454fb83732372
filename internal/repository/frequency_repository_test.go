package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campuspulse/engagement-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestFrequencyRepositoryInsertBatchChunks(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFrequencyRepository(db)

	events := make([]models.FrequencyEvent, insertChunkSize+1)
	for i := range events {
		events[i] = models.FrequencyEvent{Module: "quiz", InstanceID: int64(i + 1), Scope: models.ScopeSite}
	}

	// One statement per chunk.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO frequency_events")).
		WillReturnResult(sqlmock.NewResult(0, insertChunkSize))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO frequency_events")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.InsertBatch(context.Background(), events))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFrequencyRepositoryInsertBatchEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFrequencyRepository(db)
	require.NoError(t, repo.InsertBatch(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFrequencyRepositoryDeleteFrom(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFrequencyRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM frequency_events WHERE time_open >= $1")).
		WithArgs(int64(1_700_000_000)).
		WillReturnResult(sqlmock.NewResult(0, 7))

	removed, err := repo.DeleteFrom(context.Background(), 1_700_000_000)
	require.NoError(t, err)
	require.Equal(t, int64(7), removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFrequencyRepositoryDailyCountsSiteScope(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFrequencyRepository(db)
	rows := sqlmock.NewRows([]string{"day", "month", "year", "total"}).
		AddRow(1, 9, 2026, 4).
		AddRow(2, 9, 2026, 9)
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) AS total FROM frequency_events WHERE scope = 'site' AND year = $1")).
		WithArgs(2026).
		WillReturnRows(rows)

	counts, err := repo.DailyCounts(context.Background(), models.FrequencyFilter{Year: 2026, Metric: models.MetricActivities})
	require.NoError(t, err)
	require.Len(t, counts, 2)
	require.Equal(t, 9, counts[1].Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFrequencyRepositoryDailyCountsStudentsAcademicYear(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFrequencyRepository(db)
	rows := sqlmock.NewRows([]string{"day", "month", "year", "total"}).
		AddRow(15, 9, 2026, 31)
	// An academic year starting in September spans into the next calendar year.
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(DISTINCT user_id) AS total FROM frequency_events WHERE scope = 'user' AND ((year = $1 AND month >= $2) OR (year = $1 + 1 AND month < $2))")).
		WithArgs(2026, 9).
		WillReturnRows(rows)

	counts, err := repo.DailyCounts(context.Background(), models.FrequencyFilter{
		Year:       2026,
		StartMonth: 9,
		Metric:     models.MetricStudents,
	})
	require.NoError(t, err)
	require.Len(t, counts, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFrequencyRepositoryDailyCountsModuleFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFrequencyRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("AND module = ANY($2)")).
		WillReturnRows(sqlmock.NewRows([]string{"day", "month", "year", "total"}))

	_, err := repo.DailyCounts(context.Background(), models.FrequencyFilter{
		Year:    2026,
		Modules: []string{"quiz", "lesson"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFrequencyRepositoryEvents(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFrequencyRepository(db)
	rows := sqlmock.NewRows([]string{"id", "module", "instance_id", "course_id", "name", "url", "time_open", "day", "month", "year", "scope", "participants", "user_id"}).
		AddRow(1, "quiz", 10, 1, "Midterm", "/mod/quiz/view?id=10", 1_700_000_000, 14, 11, 2023, "site", 25, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM frequency_events WHERE scope = 'site' AND year = $1")).
		WithArgs(2023).
		WillReturnRows(rows)

	events, err := repo.Events(context.Background(), models.FrequencyFilter{Year: 2023})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "Midterm", events[0].Name)
	require.Equal(t, 25, events[0].Participants)
	require.NoError(t, mock.ExpectationsWereMet())
}
