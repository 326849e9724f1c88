package timetable

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("07:05")
	require.NoError(t, err)
	assert.Equal(t, Clock(425), c)
	assert.Equal(t, "07:05", c.String())

	c, err = ParseClock("13:30:00")
	require.NoError(t, err)
	assert.Equal(t, "13:30", c.String())

	for _, raw := range []string{"", "7", "24:00", "08:60", "aa:bb", "08:5"} {
		_, err := ParseClock(raw)
		assert.Error(t, err, raw)
	}
}

func TestClockJSON(t *testing.T) {
	payload, err := json.Marshal(TimeSlot{Start: MustParseClock("08:00"), End: MustParseClock("08:40")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"08:00","end":"08:40"}`, string(payload))

	var slot TimeSlot
	require.NoError(t, json.Unmarshal([]byte(`{"start":"09:15","end":"09:55"}`), &slot))
	assert.Equal(t, "09:15-09:55", slot.Label())

	assert.Error(t, json.Unmarshal([]byte(`{"start":"9am"}`), &slot))
}

func TestBuildSlotsSkipsBreaks(t *testing.T) {
	slots, err := BuildSlots(SlotSettings{
		Start:          MustParseClock("07:00"),
		End:            MustParseClock("10:00"),
		LessonDuration: 40,
		Breaks: []Break{
			{Name: "Recess", Start: MustParseClock("08:20"), End: MustParseClock("08:40")},
		},
	})
	require.NoError(t, err)

	labels := make([]string, 0, len(slots))
	for _, slot := range slots {
		labels = append(labels, slot.Label())
	}
	assert.Equal(t, []string{"07:00-07:40", "07:40-08:20", "08:40-09:20", "09:20-10:00"}, labels)
}

func TestBuildSlotsRejectsInvalidSettings(t *testing.T) {
	_, err := BuildSlots(SlotSettings{Start: MustParseClock("07:00"), End: MustParseClock("10:00")})
	assert.Error(t, err)

	_, err = BuildSlots(SlotSettings{Start: MustParseClock("10:00"), End: MustParseClock("07:00"), LessonDuration: 40})
	assert.Error(t, err)

	_, err = BuildSlots(SlotSettings{
		Start:          MustParseClock("07:00"),
		End:            MustParseClock("10:00"),
		LessonDuration: 40,
		Breaks:         []Break{{Name: "bad", Start: MustParseClock("09:00"), End: MustParseClock("08:00")}},
	})
	assert.Error(t, err)
}

func TestParseDay(t *testing.T) {
	assert.Equal(t, Thursday, ParseDay("thursday"))
	assert.Equal(t, Day(0), ParseDay("Saturday"))
	assert.Equal(t, "Friday", Friday.String())
	assert.False(t, Day(6).Valid())
}

func TestValidateSlots(t *testing.T) {
	assert.NoError(t, ValidateSlots(nil))
	assert.NoError(t, ValidateSlots([]TimeSlot{
		{Start: MustParseClock("08:00"), End: MustParseClock("08:40")},
		{Start: MustParseClock("08:20"), End: MustParseClock("09:00")},
	}), "overlapping slots are allowed")

	assert.Error(t, ValidateSlots([]TimeSlot{{Start: MustParseClock("09:00"), End: MustParseClock("08:00")}}))
	assert.Error(t, ValidateSlots([]TimeSlot{{}}))
}
