package timetable

import "fmt"

// Conflict marks an entry whose teacher is already booked at the same day and
// start time by an earlier entry.
type Conflict struct {
	Index int   `json:"index"`
	Entry Entry `json:"entry"`
}

// Names resolves display names for messages. Missing names fall back to ids.
type Names struct {
	Teachers map[string]string
	Subjects map[string]string
}

func (n Names) teacher(id string) string {
	if name, ok := n.Teachers[id]; ok && name != "" {
		return name
	}
	if id == "" {
		return "Unassigned teacher"
	}
	return id
}

func (n Names) subject(id string) string {
	if name, ok := n.Subjects[id]; ok && name != "" {
		return name
	}
	return id
}

// DetectConflicts scans entries in order and returns one Conflict per entry
// that repeats a (teacher, day, start time) triple already seen. The result is
// empty if and only if no two entries share such a triple.
func DetectConflicts(entries []Entry) []Conflict {
	seen := make(map[string]map[string]bool)
	conflicts := make([]Conflict, 0)
	for i, entry := range entries {
		key := bookingKey(entry.Day, entry.Start)
		if seen[entry.TeacherID][key] {
			conflicts = append(conflicts, Conflict{Index: i, Entry: entry})
			continue
		}
		if seen[entry.TeacherID] == nil {
			seen[entry.TeacherID] = make(map[string]bool)
		}
		seen[entry.TeacherID][key] = true
	}
	return conflicts
}

// Describe renders a human readable message for a conflict.
func Describe(c Conflict, names Names) string {
	return fmt.Sprintf("%s is already teaching on %s at %s (%s)",
		names.teacher(c.Entry.TeacherID),
		c.Entry.Day,
		c.Entry.Start,
		names.subject(c.Entry.SubjectID),
	)
}

// DescribeAll renders every conflict in order.
func DescribeAll(conflicts []Conflict, names Names) []string {
	messages := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		messages = append(messages, Describe(c, names))
	}
	return messages
}
