package export

import "fmt"

// TimetableHeaders is the column layout of a timetable export.
var TimetableHeaders = []string{"Day", "Subject", "Teacher", "Start Time", "End Time"}

// Dataset defines tabular export content. Rows must have len(Headers) cells.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// TimetableRow is one resolved timetable line ready for rendering.
type TimetableRow struct {
	Day       string
	Subject   string
	Teacher   string
	StartTime string
	EndTime   string
}

// NewTimetableDataset maps timetable rows to a dataset, keeping their order.
func NewTimetableDataset(title string, rows []TimetableRow) Dataset {
	data := Dataset{
		Title:   title,
		Headers: TimetableHeaders,
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		data.Rows = append(data.Rows, []string{row.Day, row.Subject, row.Teacher, row.StartTime, row.EndTime})
	}
	return data
}

func (d Dataset) validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Headers) {
			return fmt.Errorf("row %d has %d cells, expected %d", i, len(row), len(d.Headers))
		}
	}
	return nil
}
