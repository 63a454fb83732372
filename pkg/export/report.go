package export

import "strconv"

// FrequencyReport is the flattened frequency index prepared for download:
// one row per (instance, effective open day) in filter order.
type FrequencyReport struct {
	Title string
	Rows  []FrequencyRow
}

// FrequencyRow is one rendered line of the report. Opens is preformatted so
// both renderers agree on the timestamp layout.
type FrequencyRow struct {
	Module       string
	InstanceID   int64
	Name         string
	Opens        string
	Participants int
	URL          string
}

var frequencyColumns = []string{"Module", "Instance", "Name", "Opens", "Participants", "URL"}

func (r FrequencyRow) record() []string {
	return []string{
		r.Module,
		strconv.FormatInt(r.InstanceID, 10),
		r.Name,
		r.Opens,
		strconv.Itoa(r.Participants),
		r.URL,
	}
}
