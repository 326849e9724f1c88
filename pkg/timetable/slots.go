package timetable

import (
	"errors"
	"fmt"
	"sort"
)

// Break is a non-teaching period inside the school day.
type Break struct {
	Name  string `json:"name"`
	Start Clock  `json:"start"`
	End   Clock  `json:"end"`
}

// SlotSettings describes a school day from which lesson slots are derived.
type SlotSettings struct {
	Start          Clock
	End            Clock
	LessonDuration int
	Breaks         []Break
}

// BuildSlots cuts the day into lessons of LessonDuration minutes. A lesson
// that would overlap a break starts after the break instead.
func BuildSlots(settings SlotSettings) ([]TimeSlot, error) {
	if settings.LessonDuration <= 0 {
		return nil, errors.New("lesson duration must be positive")
	}
	if settings.End <= settings.Start {
		return nil, fmt.Errorf("day end %s must be after start %s", settings.End, settings.Start)
	}
	breaks := make([]Break, len(settings.Breaks))
	copy(breaks, settings.Breaks)
	for _, b := range breaks {
		if b.End <= b.Start {
			return nil, fmt.Errorf("break %q ends before it starts", b.Name)
		}
	}
	sort.Slice(breaks, func(i, j int) bool { return breaks[i].Start < breaks[j].Start })

	slots := make([]TimeSlot, 0)
	cursor := settings.Start
	for cursor.Add(settings.LessonDuration) <= settings.End {
		lessonEnd := cursor.Add(settings.LessonDuration)
		if b, ok := overlappingBreak(breaks, cursor, lessonEnd); ok {
			cursor = b.End
			continue
		}
		slots = append(slots, TimeSlot{Start: cursor, End: lessonEnd})
		cursor = lessonEnd
	}
	return slots, nil
}

func overlappingBreak(breaks []Break, start, end Clock) (Break, bool) {
	for _, b := range breaks {
		if b.Start < end && b.End > start {
			return b, true
		}
	}
	return Break{}, false
}
