package dto

import "github.com/noah-isme/sma-timetable-api/pkg/timetable"

// GenerateTimetableRequest asks for a one-slot-per-subject weekly proposal.
// Slots fall back to the class settings, then the school default, when empty.
// SubjectIDs fall back to every subject taught in the class.
type GenerateTimetableRequest struct {
	SchoolID         string               `json:"-"`
	ClassID          string               `json:"classId" validate:"required"`
	SubjectIDs       []string             `json:"subjectIds" validate:"omitempty,unique,dive,required"`
	Days             []timetable.Day      `json:"days" validate:"omitempty,max=5,unique,dive,min=1,max=5"`
	Slots            []timetable.TimeSlot `json:"slots" validate:"omitempty,max=24"`
	DefaultTeacherID string               `json:"defaultTeacherId"`
}

// TimetableEntryView is an entry enriched with display names.
type TimetableEntryView struct {
	SubjectID   string `json:"subjectId"`
	SubjectName string `json:"subjectName"`
	TeacherID   string `json:"teacherId"`
	TeacherName string `json:"teacherName"`
	DayOfWeek   int    `json:"dayOfWeek"`
	DayName     string `json:"dayName"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}

// TimetableConflictView reports one double booking.
type TimetableConflictView struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// GenerateTimetableResponse is the preview of a generated timetable.
type GenerateTimetableResponse struct {
	ProposalID string                  `json:"proposalId"`
	ClassID    string                  `json:"classId"`
	Entries    []TimetableEntryView    `json:"entries"`
	Conflicts  []TimetableConflictView `json:"conflicts"`
	ExpiresAt  string                  `json:"expiresAt"`
}

// SaveTimetableRequest persists a previously generated proposal.
type SaveTimetableRequest struct {
	SchoolID   string `json:"-"`
	UserID     string `json:"-"`
	ProposalID string `json:"proposalId" validate:"required"`
}

// SaveTimetableResponse summarises a stored timetable.
type SaveTimetableResponse struct {
	ClassID string `json:"classId"`
	Saved   int    `json:"saved"`
}

// ClassTimetableResponse is the stored timetable of a class.
type ClassTimetableResponse struct {
	ClassID   string                  `json:"classId"`
	ClassName string                  `json:"className"`
	Entries   []TimetableEntryView    `json:"entries"`
	Conflicts []TimetableConflictView `json:"conflicts"`
}

// TimetableSettingsRequest configures the lesson day of a class or the school default.
type TimetableSettingsRequest struct {
	StartTime      timetable.Clock   `json:"startTime" validate:"required"`
	EndTime        timetable.Clock   `json:"endTime" validate:"required,gtfield=StartTime"`
	LessonDuration int               `json:"lessonDuration" validate:"required,min=5,max=180"`
	Breaks         []timetable.Break `json:"breaks" validate:"omitempty,max=10"`
}

// TimetableSettingsResponse exposes stored settings with derived slots.
type TimetableSettingsResponse struct {
	ClassID        *string              `json:"classId,omitempty"`
	IsDefault      bool                 `json:"isDefault"`
	StartTime      string               `json:"startTime"`
	EndTime        string               `json:"endTime"`
	LessonDuration int                  `json:"lessonDuration"`
	Breaks         []timetable.Break    `json:"breaks"`
	Slots          []timetable.TimeSlot `json:"slots"`
}
