// Package timetable places subjects into a weekly grid of time slots and reports
// teacher double-bookings in the result.
package timetable

import (
	"errors"
	"fmt"
)

// ErrNoSlots is returned when generation is attempted without any time slot.
var ErrNoSlots = errors.New("timetable: at least one time slot is required")

// Entry is one placed subject in the weekly grid.
type Entry struct {
	SubjectID string `json:"subjectId"`
	TeacherID string `json:"teacherId"`
	Day       Day    `json:"dayOfWeek"`
	Start     Clock  `json:"startTime"`
	End       Clock  `json:"endTime"`
}

// Input describes a generation run. Subjects are processed in order; earlier
// subjects get first pick of the low-scoring slots.
type Input struct {
	Subjects       []string
	TeacherOf      map[string]string
	DefaultTeacher string
	Days           []Day
	Slots          []TimeSlot
}

func (in Input) teacherFor(subjectID string) string {
	if teacher, ok := in.TeacherOf[subjectID]; ok && teacher != "" {
		return teacher
	}
	return in.DefaultTeacher
}

// bookingKey identifies a teacher booking within the week.
func bookingKey(day Day, start Clock) string {
	return fmt.Sprintf("%d-%s", day, start)
}

type placementState struct {
	booked   map[string]map[string]bool
	dayCount map[Day]int
}

func newPlacementState() *placementState {
	return &placementState{
		booked:   make(map[string]map[string]bool),
		dayCount: make(map[Day]int),
	}
}

func (s *placementState) score(teacherID string, day Day, slot TimeSlot) int {
	score := s.dayCount[day]
	if s.booked[teacherID][bookingKey(day, slot.Start)] {
		score++
	}
	return score
}

func (s *placementState) reserve(teacherID string, day Day, slot TimeSlot) {
	if s.booked[teacherID] == nil {
		s.booked[teacherID] = make(map[string]bool)
	}
	s.booked[teacherID][bookingKey(day, slot.Start)] = true
	s.dayCount[day]++
}

// Generate greedily assigns one slot per subject. For every subject the
// (day, slot) pair with the smallest score wins, where the score is the number
// of subjects already on that day plus one when the teacher is already booked
// at that day and start time. Ties keep the first pair seen, scanning days in
// order and slots in list order. Both terms weigh the same, so a double-booking
// can still win over a busier day; DetectConflicts is the authoritative check.
func Generate(in Input) ([]Entry, error) {
	if len(in.Slots) == 0 {
		return nil, ErrNoSlots
	}
	days := in.Days
	if len(days) == 0 {
		days = Weekdays
	}

	state := newPlacementState()
	entries := make([]Entry, 0, len(in.Subjects))
	for _, subjectID := range in.Subjects {
		teacherID := in.teacherFor(subjectID)

		bestScore := -1
		var bestDay Day
		var bestSlot TimeSlot
		for _, day := range days {
			for _, slot := range in.Slots {
				score := state.score(teacherID, day, slot)
				if bestScore < 0 || score < bestScore {
					bestScore = score
					bestDay = day
					bestSlot = slot
				}
			}
		}

		entries = append(entries, Entry{
			SubjectID: subjectID,
			TeacherID: teacherID,
			Day:       bestDay,
			Start:     bestSlot.Start,
			End:       bestSlot.End,
		})
		state.reserve(teacherID, bestDay, bestSlot)
	}
	return entries, nil
}
