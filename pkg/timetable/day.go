package timetable

import "strings"

// Day identifies a school day. Values start at 1 for Monday.
type Day int

const (
	Monday Day = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
)

// Weekdays is the fixed Monday to Friday week used by the generator.
var Weekdays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday}

var dayNames = map[Day]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
}

// String returns the English day name.
func (d Day) String() string {
	if name, ok := dayNames[d]; ok {
		return name
	}
	return "Unknown"
}

// Valid reports whether d is one of the school days.
func (d Day) Valid() bool {
	_, ok := dayNames[d]
	return ok
}

// ParseDay resolves a day name case-insensitively. Zero means unknown.
func ParseDay(name string) Day {
	name = strings.TrimSpace(name)
	for day, candidate := range dayNames {
		if strings.EqualFold(candidate, name) {
			return day
		}
	}
	return 0
}
