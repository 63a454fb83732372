package service

import (
	"github.com/campuspulse/engagement-api/internal/models"
)

const hourSeconds = 3600

// PartitionWindow buckets the override-aware tracked instance set relative
// to now (unix seconds):
//
//   - in-progress: the effective window straddles now, or the instance has
//     an override record keeping it open for some user even though its base
//     window has passed;
//   - upcoming[t]: effective open falls inside the hour ending at boundary
//     t, for each hour up to lookAheadHours;
//   - finished[t]: close falls inside the hour starting at boundary t, for
//     each hour back to lookBehindHours.
//
// Buckets are keyed by absolute hour-boundary timestamps so partitions from
// multiple adapters merge correctly. Instances keep the adapter's id order
// within each bucket. An instance with neither open nor close time never
// reaches this function.
func PartitionWindow(instances []models.ActivityInstance, now int64, lookAheadHours, lookBehindHours int) models.WindowPartition {
	p := models.NewWindowPartition()
	remaining := make([]models.ActivityInstance, len(instances))
	copy(remaining, instances)

	for hour := 0; hour <= lookAheadHours; hour++ {
		var next []models.ActivityInstance
		for _, inst := range remaining {
			open, close := inst.EffectiveWindow()
			if hour == 0 {
				if open < now && (close == 0 || now <= close) {
					p.InProgress = append(p.InProgress, item(inst))
					continue
				}
			} else {
				lo := now + int64(hour-1)*hourSeconds
				hi := now + int64(hour)*hourSeconds
				if open > lo && open <= hi {
					p.Upcoming[hi] = append(p.Upcoming[hi], item(inst))
					continue
				}
			}
			next = append(next, inst)
		}
		remaining = next
	}

	// An override can hold a window open for a single user after the base
	// close has passed; those instances must surface as in-progress, never
	// silently dropped.
	var unplaced []models.ActivityInstance
	for _, inst := range remaining {
		if inst.HasOverride {
			p.InProgress = append(p.InProgress, item(inst))
			continue
		}
		unplaced = append(unplaced, inst)
	}
	remaining = unplaced

	for hour := 1; hour <= lookBehindHours; hour++ {
		lo := now - int64(hour)*hourSeconds
		hi := now - int64(hour-1)*hourSeconds
		var next []models.ActivityInstance
		for _, inst := range remaining {
			_, close := inst.EffectiveWindow()
			if close >= lo && close < hi {
				p.Finished[lo] = append(p.Finished[lo], item(inst))
				continue
			}
			next = append(next, inst)
		}
		remaining = next
	}

	return p
}

func item(inst models.ActivityInstance) models.PartitionItem {
	open, close := inst.EffectiveWindow()
	return models.PartitionItem{
		Module:      inst.Module,
		InstanceID:  inst.ID,
		Name:        inst.Name,
		TimeOpen:    open,
		TimeClose:   close,
		HasOverride: inst.HasOverride,
	}
}
