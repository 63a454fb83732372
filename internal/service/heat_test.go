package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuspulse/engagement-api/internal/models"
)

func TestHeatLevelBounds(t *testing.T) {
	assert.Equal(t, 1, HeatLevel(3, 3, 90))
	assert.Equal(t, HeatLevels, HeatLevel(90, 3, 90))
}

func TestHeatLevelDegenerateRange(t *testing.T) {
	// Identical min and max must not divide by zero.
	assert.Equal(t, 1, HeatLevel(5, 5, 5))
	assert.Equal(t, 1, HeatLevel(7, 5, 5))
}

func TestHeatLevelMonotonic(t *testing.T) {
	min, max := 0, 100
	previous := 0
	for count := min; count <= max; count++ {
		level := HeatLevel(count, min, max)
		assert.GreaterOrEqual(t, level, 1)
		assert.LessOrEqual(t, level, HeatLevels)
		assert.GreaterOrEqual(t, level, previous, "level must never decrease as count grows")
		previous = level
	}
}

func TestHeatLevelLinearScale(t *testing.T) {
	// With min 0 and max 100 the midpoint rounds to the middle of the scale.
	assert.Equal(t, 4, HeatLevel(50, 0, 100))
	assert.Equal(t, 2, HeatLevel(20, 0, 100))
	assert.Equal(t, 5, HeatLevel(80, 0, 100))
}

func TestHeatLegendSmallestCountPerLevel(t *testing.T) {
	var legend HeatLegend
	counts := []int{3, 12, 8, 90, 45, 3, 11}
	for _, c := range counts {
		legend.Observe(c, HeatLevel(c, 3, 90))
	}

	entries := legend.Entries()
	require.NotEmpty(t, entries)

	byLevel := make(map[int]int, len(entries))
	for i, entry := range entries {
		byLevel[entry.Level] = entry.MinCount
		if i > 0 {
			assert.Greater(t, entry.Level, entries[i-1].Level)
		}
	}
	// Level 1 holds the minimum; unobserved levels stay absent.
	assert.Equal(t, 3, byLevel[1])
	assert.Equal(t, 90, byLevel[HeatLevels])
}

func TestHeatLegendIgnoresOutOfRange(t *testing.T) {
	var legend HeatLegend
	legend.Observe(10, 0)
	legend.Observe(10, HeatLevels+1)
	assert.Empty(t, legend.Entries())
}

func TestHeatLegendEntryShape(t *testing.T) {
	var legend HeatLegend
	legend.Observe(4, 2)
	legend.Observe(2, 2)
	entries := legend.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, models.HeatLegendEntry{Level: 2, MinCount: 2}, entries[0])
}
