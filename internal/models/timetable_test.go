package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

func TestBreakListScanAndValue(t *testing.T) {
	var breaks BreakList
	require.NoError(t, breaks.Scan([]byte(`[{"name":"Recess","start":"09:20","end":"09:40"}]`)))
	require.Len(t, breaks, 1)
	assert.Equal(t, "Recess", breaks[0].Name)
	assert.Equal(t, timetable.MustParseClock("09:40"), breaks[0].End)

	value, err := breaks.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Recess","start":"09:20","end":"09:40"}]`, string(value.([]byte)))

	require.NoError(t, breaks.Scan(nil))
	assert.Empty(t, breaks)
	assert.Error(t, breaks.Scan(42))
}

func TestTimetableEntryToEntryAcceptsPostgresTime(t *testing.T) {
	entry, err := TimetableEntry{SubjectID: "s1", TeacherID: "t1", DayOfWeek: 2, StartTime: "08:00:00", EndTime: "08:40:00"}.ToEntry()
	require.NoError(t, err)
	assert.Equal(t, timetable.Tuesday, entry.Day)
	assert.Equal(t, "08:40", entry.End.String())

	_, err = TimetableEntry{StartTime: "8am", EndTime: "09:00"}.ToEntry()
	assert.Error(t, err)
}

func TestSettingsSlotSettings(t *testing.T) {
	settings := TimetableSettings{StartTime: "07:00:00", EndTime: "08:20:00", LessonDuration: 40}
	slots, err := settings.SlotSettings()
	require.NoError(t, err)
	built, err := timetable.BuildSlots(slots)
	require.NoError(t, err)
	assert.Len(t, built, 2)
	assert.True(t, RoleAdmin.CanManageTimetables())
	assert.False(t, RoleTeacher.CanManageTimetables())
	assert.Equal(t, "pdf", ExportFormatPDF.Extension())
}
