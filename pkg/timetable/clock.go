package timetable

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Clock is a time of day expressed in minutes since midnight.
type Clock int

// ParseClock reads an "HH:MM" string (seconds, when present, are ignored).
func ParseClock(raw string) (Clock, error) {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid time %q: hour out of range", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time %q: minute out of range", raw)
	}
	return Clock(hours*60 + minutes), nil
}

// MustParseClock is ParseClock for literals; it panics on malformed input.
func MustParseClock(raw string) Clock {
	c, err := ParseClock(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// String renders the clock as zero-padded HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Add returns the clock shifted by the given number of minutes.
func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

// MarshalJSON encodes the clock as "HH:MM".
func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes an "HH:MM" string.
func (c *Clock) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseClock(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// TimeSlot is one configured lesson period of a day.
type TimeSlot struct {
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

// ValidateSlots rejects slots that do not end after they start. Overlapping
// slots are allowed.
func ValidateSlots(slots []TimeSlot) error {
	for i, slot := range slots {
		if slot.End <= slot.Start {
			return fmt.Errorf("slot %d (%s) must end after it starts", i, slot.Label())
		}
	}
	return nil
}

// Label renders the slot as "HH:MM-HH:MM".
func (s TimeSlot) Label() string {
	return s.Start.String() + "-" + s.End.String()
}
