package models

// PartitionItem is one tracked instance placed into a window bucket.
type PartitionItem struct {
	Module      string `json:"module"`
	InstanceID  int64  `json:"instance_id"`
	Name        string `json:"name"`
	TimeOpen    int64  `json:"time_open"`
	TimeClose   int64  `json:"time_close"`
	HasOverride bool   `json:"has_override"`
}

// WindowPartition buckets tracked instances relative to a reference time.
// Upcoming and Finished are keyed by the absolute hour-boundary unix
// timestamp so partitions from multiple adapters merge cleanly.
type WindowPartition struct {
	InProgress []PartitionItem           `json:"in_progress"`
	Upcoming   map[int64][]PartitionItem `json:"upcoming"`
	Finished   map[int64][]PartitionItem `json:"finished"`
}

// NewWindowPartition returns an empty partition with allocated buckets.
func NewWindowPartition() WindowPartition {
	return WindowPartition{
		Upcoming: make(map[int64][]PartitionItem),
		Finished: make(map[int64][]PartitionItem),
	}
}

// Merge folds another partition into this one. Bucket keys are absolute
// timestamps, so same-hour buckets from different adapters combine.
func (p *WindowPartition) Merge(other WindowPartition) {
	p.InProgress = append(p.InProgress, other.InProgress...)
	for ts, items := range other.Upcoming {
		p.Upcoming[ts] = append(p.Upcoming[ts], items...)
	}
	for ts, items := range other.Finished {
		p.Finished[ts] = append(p.Finished[ts], items...)
	}
}

// Size returns the total number of bucketed instances.
func (p WindowPartition) Size() int {
	n := len(p.InProgress)
	for _, items := range p.Upcoming {
		n += len(items)
	}
	for _, items := range p.Finished {
		n += len(items)
	}
	return n
}
