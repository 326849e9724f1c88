package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoMorningSlots() []TimeSlot {
	return []TimeSlot{
		{Start: MustParseClock("08:00"), End: MustParseClock("08:40")},
		{Start: MustParseClock("08:40"), End: MustParseClock("09:20")},
	}
}

func TestGenerateSpreadsSameTeacherAcrossDays(t *testing.T) {
	entries, err := Generate(Input{
		Subjects:  []string{"math", "english"},
		TeacherOf: map[string]string{"math": "t1", "english": "t1"},
		Slots:     twoMorningSlots(),
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, Entry{SubjectID: "math", TeacherID: "t1", Day: Monday, Start: MustParseClock("08:00"), End: MustParseClock("08:40")}, entries[0])
	assert.Equal(t, Entry{SubjectID: "english", TeacherID: "t1", Day: Tuesday, Start: MustParseClock("08:00"), End: MustParseClock("08:40")}, entries[1])
	assert.Empty(t, DetectConflicts(entries))
}

func TestGenerateOneEntryPerSubject(t *testing.T) {
	subjects := []string{"math", "physics", "chemistry", "biology", "english", "history", "art", "music", "pe", "ict", "civics", "religion"}
	teacherOf := map[string]string{"math": "t1", "physics": "t1", "chemistry": "t2", "biology": "t2", "english": "t3"}

	entries, err := Generate(Input{
		Subjects:       subjects,
		TeacherOf:      teacherOf,
		DefaultTeacher: "t9",
		Slots:          twoMorningSlots(),
	})
	require.NoError(t, err)
	require.Len(t, entries, len(subjects))

	validStarts := map[Clock]Clock{MustParseClock("08:00"): MustParseClock("08:40"), MustParseClock("08:40"): MustParseClock("09:20")}
	for i, entry := range entries {
		assert.Equal(t, subjects[i], entry.SubjectID, "entries keep input order")
		assert.True(t, entry.Day.Valid())
		end, ok := validStarts[entry.Start]
		require.True(t, ok, "start %s must be a configured slot", entry.Start)
		assert.Equal(t, end, entry.End)
	}
	assert.Equal(t, "t9", entries[len(entries)-1].TeacherID, "unassigned subjects use the default teacher")
}

func TestGenerateIsDeterministic(t *testing.T) {
	in := Input{
		Subjects:  []string{"a", "b", "c", "d", "e", "f", "g"},
		TeacherOf: map[string]string{"a": "t1", "b": "t2", "c": "t1", "d": "t3", "e": "t2", "f": "t1", "g": "t3"},
		Slots:     twoMorningSlots(),
	}
	first, err := Generate(in)
	require.NoError(t, err)
	second, err := Generate(in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateSingleSlotForcesConflict(t *testing.T) {
	entries, err := Generate(Input{
		Subjects:  []string{"math", "english"},
		TeacherOf: map[string]string{"math": "t1", "english": "t1"},
		Days:      []Day{Monday},
		Slots:     []TimeSlot{{Start: MustParseClock("08:00"), End: MustParseClock("08:40")}},
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	conflicts := DetectConflicts(entries)
	require.Len(t, conflicts, 1)
	assert.Equal(t, 1, conflicts[0].Index)
	assert.Equal(t, "english", conflicts[0].Entry.SubjectID)
}

func TestGenerateTieKeepsEarliestDayEvenWhenBooked(t *testing.T) {
	entries, err := Generate(Input{
		Subjects:  []string{"a", "b", "c"},
		TeacherOf: map[string]string{"a": "t1", "b": "t1", "c": "t1"},
		Days:      []Day{Monday, Tuesday},
		Slots:     []TimeSlot{{Start: MustParseClock("08:00"), End: MustParseClock("08:40")}},
	})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, Monday, entries[0].Day)
	assert.Equal(t, Tuesday, entries[1].Day)
	assert.Equal(t, Monday, entries[2].Day)
	assert.Len(t, DetectConflicts(entries), 1)
}

func TestGenerateRejectsEmptySlots(t *testing.T) {
	entries, err := Generate(Input{Subjects: []string{"math"}})
	assert.ErrorIs(t, err, ErrNoSlots)
	assert.Nil(t, entries)
}

func TestGenerateWithoutSubjects(t *testing.T) {
	entries, err := Generate(Input{Slots: twoMorningSlots()})
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestGenerateStaysInsideRequestedDays(t *testing.T) {
	allowed := map[Day]bool{Wednesday: true, Friday: true}
	entries, err := Generate(Input{
		Subjects:  []string{"a", "b", "c", "d", "e", "f"},
		TeacherOf: map[string]string{"a": "t1", "b": "t1", "c": "t2", "d": "t1", "e": "t2", "f": "t3"},
		Days:      []Day{Wednesday, Friday},
		Slots:     twoMorningSlots(),
	})
	require.NoError(t, err)
	require.Len(t, entries, 6)
	for _, entry := range entries {
		assert.True(t, allowed[entry.Day], "%s is outside the requested days", entry.Day)
	}
}
