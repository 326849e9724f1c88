package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []TimetableRow {
	return []TimetableRow{
		{Day: "Monday", Subject: "Mathematics", Teacher: "Ibu Sari", StartTime: "08:00", EndTime: "08:40"},
		{Day: "Tuesday", Subject: "English", Teacher: "Pak Budi", StartTime: "08:00", EndTime: "08:40"},
	}
}

func TestCSVExporterTimetableRoundTrip(t *testing.T) {
	out, err := NewCSVExporter().Render(NewTimetableDataset("10A", sampleRows()))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Subject,Teacher,Start Time,End Time", lines[0])
	assert.Equal(t, []string{"Monday", "Mathematics", "Ibu Sari", "08:00", "08:40"}, strings.Split(lines[1], ","))
	assert.Equal(t, []string{"Tuesday", "English", "Pak Budi", "08:00", "08:40"}, strings.Split(lines[2], ","))
}

func TestCSVExporterQuotesEmbeddedCommas(t *testing.T) {
	rows := []TimetableRow{{Day: "Monday", Subject: "Art, Music", Teacher: "Sari", StartTime: "08:00", EndTime: "08:40"}}
	out, err := NewCSVExporter().Render(NewTimetableDataset("", rows))
	require.NoError(t, err)
	assert.Contains(t, string(out), `"Art, Music"`)
}

func TestCSVExporterRejectsRaggedRows(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{Headers: []string{"a", "b"}, Rows: [][]string{{"1"}}})
	assert.Error(t, err)

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	rows := sampleRows()
	for i := 0; i < 60; i++ {
		rows = append(rows, sampleRows()...)
	}
	out, err := NewPDFExporter().Render(NewTimetableDataset("Timetable 10A", rows))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Equal(t, "application/pdf", NewPDFExporter().ContentType())
}
