package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuspulse/engagement-api/internal/adapter"
	"github.com/campuspulse/engagement-api/internal/models"
	appErrors "github.com/campuspulse/engagement-api/pkg/errors"
)

type fakeParticipationIndex struct {
	users map[int64][]int64
}

func (f *fakeParticipationIndex) UserIDs(_ context.Context, _ string, instanceID int64) ([]int64, error) {
	return f.users[instanceID], nil
}

type fakeSessions struct {
	active    map[int64]bool
	threshold int64
	queried   []int64
}

func (f *fakeSessions) ActiveUsers(_ context.Context, userIDs []int64, threshold int64) (map[int64]bool, error) {
	f.threshold = threshold
	f.queried = userIDs
	return f.active, nil
}

type fakeTrends struct {
	snapshots []*models.TrendSnapshot
}

func (f *fakeTrends) Insert(_ context.Context, snapshot *models.TrendSnapshot) error {
	f.snapshots = append(f.snapshots, snapshot)
	return nil
}

func newTrackingFixture(src adapter.Source, participants map[int64][]int64, active map[int64]bool) (*TrackingService, *fakeSessions, *fakeTrends) {
	sessions := &fakeSessions{active: active}
	trends := &fakeTrends{}
	svc := NewTrackingService(
		adapter.NewRegistry([]adapter.Source{src}, nil),
		&fakeParticipationIndex{users: participants},
		sessions,
		trends,
		nil,
		nil,
		TrackingServiceConfig{},
	)
	return svc, sessions, trends
}

func TestTrackModuleCountsStates(t *testing.T) {
	states := models.NewUserStates()
	states.InProgress[1] = struct{}{}
	states.Finished[2] = struct{}{}

	src := &fakeSource{
		module:  "quiz",
		tracked: []models.ActivityInstance{{ID: 10, CourseID: 1, Name: "Midterm"}},
		states:  states,
	}
	participants := map[int64][]int64{10: {1, 2, 3, 4}}
	active := map[int64]bool{3: true}

	svc, _, trends := newTrackingFixture(src, participants, active)
	require.NoError(t, svc.TrackModule(context.Background(), "quiz"))

	require.Len(t, trends.snapshots, 1)
	snap := trends.snapshots[0]
	assert.Equal(t, "quiz", snap.Module)
	assert.Equal(t, int64(10), snap.InstanceID)
	assert.Equal(t, 1, snap.InProgress)
	assert.Equal(t, 1, snap.Finished)
	assert.Equal(t, 1, snap.LoggedIn)
	assert.Equal(t, 1, snap.NotLoggedIn)
	assert.Equal(t, len(participants[10]), snap.Total(), "every participant lands in exactly one state")
}

func TestTrackModuleAttemptStateWinsOverSession(t *testing.T) {
	// A user with an in-progress attempt counts as in-progress even when
	// their session is also live.
	states := models.NewUserStates()
	states.InProgress[1] = struct{}{}

	src := &fakeSource{
		module:  "quiz",
		tracked: []models.ActivityInstance{{ID: 10}},
		states:  states,
	}
	svc, _, trends := newTrackingFixture(src, map[int64][]int64{10: {1}}, map[int64]bool{1: true})
	require.NoError(t, svc.TrackModule(context.Background(), "quiz"))

	require.Len(t, trends.snapshots, 1)
	assert.Equal(t, 1, trends.snapshots[0].InProgress)
	assert.Zero(t, trends.snapshots[0].LoggedIn)
}

func TestTrackModuleSessionThreshold(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{
		module:  "quiz",
		tracked: []models.ActivityInstance{{ID: 10}},
		states:  models.NewUserStates(),
	}
	svc, sessions, _ := newTrackingFixture(src, map[int64][]int64{10: {1}}, nil)
	svc.now = func() time.Time { return now }
	svc.cfg.SessionTimeout = 30 * time.Minute

	require.NoError(t, svc.TrackModule(context.Background(), "quiz"))
	assert.Equal(t, now.Unix()-1800, sessions.threshold)
}

func TestTrackModuleAppendsPerRun(t *testing.T) {
	src := &fakeSource{
		module:  "quiz",
		tracked: []models.ActivityInstance{{ID: 10}},
		states:  models.NewUserStates(),
	}
	svc, _, trends := newTrackingFixture(src, nil, nil)

	require.NoError(t, svc.TrackModule(context.Background(), "quiz"))
	require.NoError(t, svc.TrackModule(context.Background(), "quiz"))
	assert.Len(t, trends.snapshots, 2, "snapshots are append-only, one per run")
}

func TestTrackModuleUnknownModule(t *testing.T) {
	src := &fakeSource{module: "quiz"}
	svc, _, _ := newTrackingFixture(src, nil, nil)

	err := svc.TrackModule(context.Background(), "forum")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnknownModule.Code, appErrors.FromError(err).Code)
}

func TestTrackModuleSharedSessionLookup(t *testing.T) {
	src := &fakeSource{
		module:  "quiz",
		tracked: []models.ActivityInstance{{ID: 10}, {ID: 11}},
		states:  models.NewUserStates(),
	}
	participants := map[int64][]int64{10: {1, 2}, 11: {2, 3}}
	svc, sessions, trends := newTrackingFixture(src, participants, nil)

	require.NoError(t, svc.TrackModule(context.Background(), "quiz"))
	assert.Len(t, sessions.queried, 3, "session lookup runs once over the participant union")
	assert.Len(t, trends.snapshots, 2)
}
