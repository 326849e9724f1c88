package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

// TimetableEntry is one persisted lesson of a class timetable.
type TimetableEntry struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	DayOfWeek int       `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TimetableEntryDetail joins display names onto an entry.
type TimetableEntryDetail struct {
	TimetableEntry
	SubjectName string `db:"subject_name" json:"subject_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}

// ToEntry converts the row into the generator's entry type.
func (e TimetableEntry) ToEntry() (timetable.Entry, error) {
	start, err := timetable.ParseClock(e.StartTime)
	if err != nil {
		return timetable.Entry{}, fmt.Errorf("entry %s start: %w", e.ID, err)
	}
	end, err := timetable.ParseClock(e.EndTime)
	if err != nil {
		return timetable.Entry{}, fmt.Errorf("entry %s end: %w", e.ID, err)
	}
	return timetable.Entry{
		SubjectID: e.SubjectID,
		TeacherID: e.TeacherID,
		Day:       timetable.Day(e.DayOfWeek),
		Start:     start,
		End:       end,
	}, nil
}

// TimetableSettings describes the lesson day of a class, or the school default
// when ClassID is nil.
type TimetableSettings struct {
	ID             string     `db:"id" json:"id"`
	SchoolID       string     `db:"school_id" json:"school_id"`
	ClassID        *string    `db:"class_id" json:"class_id,omitempty"`
	StartTime      string     `db:"start_time" json:"start_time"`
	EndTime        string     `db:"end_time" json:"end_time"`
	LessonDuration int        `db:"lesson_duration" json:"lesson_duration"`
	Breaks         BreakList  `db:"breaks" json:"breaks"`
	IsDefault      bool       `db:"is_default" json:"is_default"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	UpdatedBy      *string    `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt      *time.Time `db:"created_at" json:"created_at,omitempty"`
}

// SlotSettings converts the stored row into generator slot settings.
func (s TimetableSettings) SlotSettings() (timetable.SlotSettings, error) {
	start, err := timetable.ParseClock(s.StartTime)
	if err != nil {
		return timetable.SlotSettings{}, fmt.Errorf("settings start: %w", err)
	}
	end, err := timetable.ParseClock(s.EndTime)
	if err != nil {
		return timetable.SlotSettings{}, fmt.Errorf("settings end: %w", err)
	}
	return timetable.SlotSettings{
		Start:          start,
		End:            end,
		LessonDuration: s.LessonDuration,
		Breaks:         []timetable.Break(s.Breaks),
	}, nil
}

// BreakList is persisted as a JSONB array.
type BreakList []timetable.Break

// Value marshals the breaks to JSON.
func (b BreakList) Value() (driver.Value, error) {
	if b == nil {
		b = BreakList{}
	}
	data, err := json.Marshal([]timetable.Break(b))
	if err != nil {
		return nil, fmt.Errorf("marshal breaks: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSON array of breaks.
func (b *BreakList) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*b = BreakList{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for BreakList", value)
	}
	if len(data) == 0 {
		*b = BreakList{}
		return nil
	}
	var breaks []timetable.Break
	if err := json.Unmarshal(data, &breaks); err != nil {
		return fmt.Errorf("unmarshal breaks: %w", err)
	}
	*b = breaks
	return nil
}
