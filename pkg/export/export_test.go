package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRenderColumnOrder(t *testing.T) {
	report := FrequencyReport{Rows: []FrequencyRow{{
		Module:       "quiz",
		InstanceID:   10,
		Name:         "Midterm",
		Opens:        "2026-02-14 09:30",
		Participants: 25,
		URL:          "/mod/quiz/view?id=10",
	}}}

	out, err := NewCSVExporter().Render(report)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Module,Instance,Name,Opens,Participants,URL", lines[0])
	assert.Equal(t, "quiz,10,Midterm,2026-02-14 09:30,25,/mod/quiz/view?id=10", lines[1])
}

func TestCSVRenderEmptyReportKeepsHeader(t *testing.T) {
	out, err := NewCSVExporter().Render(FrequencyReport{})
	require.NoError(t, err)
	assert.Equal(t, "Module,Instance,Name,Opens,Participants,URL\n", string(out))
}

func TestPDFRenderProducesDocument(t *testing.T) {
	report := FrequencyReport{
		Title: "Activity Frequency 2026",
		Rows:  []FrequencyRow{{Module: "quiz", Name: "Midterm"}},
	}

	out, err := NewPDFExporter().Render(report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
