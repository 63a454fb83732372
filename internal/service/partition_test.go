package service

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuspulse/engagement-api/internal/models"
)

const testNow = int64(1_700_000_000)

func instance(id, open, close int64) models.ActivityInstance {
	return models.ActivityInstance{ID: id, Module: "quiz", Name: "q", TimeOpen: open, TimeClose: close}
}

func TestPartitionWindowInProgress(t *testing.T) {
	instances := []models.ActivityInstance{
		instance(1, testNow-600, testNow+600),
		instance(2, testNow-600, 0), // no close, open-ended
	}

	p := PartitionWindow(instances, testNow, 8, 8)

	require.Len(t, p.InProgress, 2)
	assert.Equal(t, int64(1), p.InProgress[0].InstanceID)
	assert.Equal(t, int64(2), p.InProgress[1].InstanceID)
	assert.Empty(t, p.Upcoming)
	assert.Empty(t, p.Finished)
}

func TestPartitionWindowUpcomingBuckets(t *testing.T) {
	instances := []models.ActivityInstance{
		instance(1, testNow+1800, 0),   // first hour
		instance(2, testNow+3600, 0),   // boundary belongs to first hour
		instance(3, testNow+3601, 0),   // second hour
		instance(4, testNow+7*3600, 0), // seventh hour
	}

	p := PartitionWindow(instances, testNow, 8, 8)

	firstHour := p.Upcoming[testNow+hourSeconds]
	require.Len(t, firstHour, 2)
	assert.Equal(t, int64(1), firstHour[0].InstanceID)
	assert.Equal(t, int64(2), firstHour[1].InstanceID)

	require.Len(t, p.Upcoming[testNow+2*hourSeconds], 1)
	assert.Equal(t, int64(3), p.Upcoming[testNow+2*hourSeconds][0].InstanceID)

	require.Len(t, p.Upcoming[testNow+7*hourSeconds], 1)
	assert.Equal(t, int64(4), p.Upcoming[testNow+7*hourSeconds][0].InstanceID)
}

func TestPartitionWindowFinishedBuckets(t *testing.T) {
	instances := []models.ActivityInstance{
		instance(1, testNow-7200, testNow-1800), // closed within the last hour
		instance(2, testNow-7200, testNow-3600), // exactly one hour ago
		instance(3, testNow-9000, testNow-3601), // the hour before that
	}

	p := PartitionWindow(instances, testNow, 8, 8)

	lastHour := p.Finished[testNow-hourSeconds]
	require.Len(t, lastHour, 2)
	assert.Equal(t, int64(1), lastHour[0].InstanceID)
	assert.Equal(t, int64(2), lastHour[1].InstanceID)

	require.Len(t, p.Finished[testNow-2*hourSeconds], 1)
	assert.Equal(t, int64(3), p.Finished[testNow-2*hourSeconds][0].InstanceID)
	assert.Empty(t, p.InProgress)
}

func TestPartitionWindowOverrideForcesInProgress(t *testing.T) {
	// Base window closed nine hours ago, outside the look-behind range, but
	// an override holds it open for one user.
	overridden := instance(7, testNow-12*3600, testNow-9*3600)
	overridden.HasOverride = true
	overridden.Overrides = []models.OverrideWindow{{
		InstanceID: 7,
		UserID:     sql.NullInt64{Int64: 42, Valid: true},
		TimeClose:  sql.NullInt64{Int64: testNow - 9*3600, Valid: true},
	}}

	p := PartitionWindow([]models.ActivityInstance{overridden}, testNow, 8, 8)

	require.Len(t, p.InProgress, 1)
	assert.Equal(t, int64(7), p.InProgress[0].InstanceID)
	assert.True(t, p.InProgress[0].HasOverride)
	assert.Equal(t, testNow-9*3600, p.InProgress[0].TimeClose, "a user override never moves the instance window")
}

func TestPartitionWindowGroupOverrideExtendsWindow(t *testing.T) {
	// Base close passed, a group override close eight days out keeps it
	// live now and widens the reported window.
	overridden := instance(8, testNow-3600, testNow-600)
	overridden.HasOverride = true
	overridden.Overrides = []models.OverrideWindow{{
		InstanceID: 8,
		GroupID:    sql.NullInt64{Int64: 3, Valid: true},
		TimeClose:  sql.NullInt64{Int64: testNow + 8*24*3600, Valid: true},
	}}

	p := PartitionWindow([]models.ActivityInstance{overridden}, testNow, 8, 8)

	require.Len(t, p.InProgress, 1)
	assert.Equal(t, testNow+8*24*3600, p.InProgress[0].TimeClose)
}

func TestPartitionWindowCompleteness(t *testing.T) {
	// Everything inside the tracked range lands in exactly one bucket.
	instances := []models.ActivityInstance{
		instance(1, testNow-600, testNow+600),
		instance(2, testNow+90, 0),
		instance(3, testNow+5*3600-1, 0),
		instance(4, testNow-7200, testNow-90),
		instance(5, testNow-9000, testNow-2*3600-30),
	}

	p := PartitionWindow(instances, testNow, 8, 8)
	assert.Equal(t, len(instances), p.Size())
}

func TestPartitionWindowOutOfRangeDropped(t *testing.T) {
	instances := []models.ActivityInstance{
		instance(1, testNow+9*3600, 0),             // beyond look-ahead
		instance(2, testNow-20*3600, testNow-9*3600), // beyond look-behind, no override
	}

	p := PartitionWindow(instances, testNow, 8, 8)
	assert.Zero(t, p.Size())
}

func TestWindowPartitionMerge(t *testing.T) {
	a := PartitionWindow([]models.ActivityInstance{instance(1, testNow+1800, 0)}, testNow, 8, 8)
	b := PartitionWindow([]models.ActivityInstance{instance(2, testNow+1900, 0)}, testNow, 8, 8)

	merged := models.NewWindowPartition()
	merged.Merge(a)
	merged.Merge(b)

	require.Len(t, merged.Upcoming[testNow+hourSeconds], 2)
	assert.Equal(t, 2, merged.Size())
}
