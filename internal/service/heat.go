package service

import (
	"math"

	"github.com/campuspulse/engagement-api/internal/models"
)

// HeatLevels is the number of ordinal buckets in the calendar heat scale.
const HeatLevels = 6

// HeatLevel maps a daily count onto a bounded ordinal level in [1,6] given
// the observed min/max daily counts. The minimum count and any degenerate
// range map to level 1; everything else scales linearly and is clamped.
func HeatLevel(count, min, max int) int {
	if count == min {
		return 1
	}
	if max-min <= 0 {
		return 1
	}
	level := int(math.Round(float64(count-min)/float64(max-min)*float64(HeatLevels-1))) + 1
	if level < 1 {
		return 1
	}
	if level > HeatLevels {
		return HeatLevels
	}
	return level
}

// HeatLegend accumulates, for each level, the smallest count that produced
// it across a render.
type HeatLegend struct {
	mins [HeatLevels + 1]int
	seen [HeatLevels + 1]bool
}

// Observe records one (count, level) pairing.
func (l *HeatLegend) Observe(count, level int) {
	if level < 1 || level > HeatLevels {
		return
	}
	if !l.seen[level] || count < l.mins[level] {
		l.mins[level] = count
		l.seen[level] = true
	}
}

// Entries returns the observed levels in ascending order.
func (l *HeatLegend) Entries() []models.HeatLegendEntry {
	entries := make([]models.HeatLegendEntry, 0, HeatLevels)
	for level := 1; level <= HeatLevels; level++ {
		if l.seen[level] {
			entries = append(entries, models.HeatLegendEntry{Level: level, MinCount: l.mins[level]})
		}
	}
	return entries
}
