package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// TimetableEntryRepository persists saved class timetables.
type TimetableEntryRepository struct {
	db *sqlx.DB
}

// NewTimetableEntryRepository constructs the repository.
func NewTimetableEntryRepository(db *sqlx.DB) *TimetableEntryRepository {
	return &TimetableEntryRepository{db: db}
}

// ReplaceForClass deletes every entry of the class and inserts entries in one
// transaction. Either the whole new timetable is stored or the old one is kept.
// An empty TeacherID is stored as NULL.
func (r *TimetableEntryRepository) ReplaceForClass(ctx context.Context, schoolID, classID string, entries []models.TimetableEntry) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin timetable replace: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM timetable_entries WHERE school_id = $1 AND class_id = $2`, schoolID, classID); err != nil {
		return fmt.Errorf("delete timetable entries: %w", err)
	}

	const insert = `INSERT INTO timetable_entries (id, school_id, class_id, subject_id, teacher_id, day_of_week, start_time, end_time, created_at)
VALUES (:id, :school_id, :class_id, :subject_id, CAST(NULLIF(:teacher_id, '') AS UUID), :day_of_week, :start_time, :end_time, :created_at)`

	now := time.Now().UTC()
	for i := range entries {
		entry := &entries[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		entry.SchoolID = schoolID
		entry.ClassID = classID
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		if _, err = tx.NamedExecContext(ctx, insert, entry); err != nil {
			return fmt.Errorf("insert timetable entry: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit timetable replace: %w", err)
	}
	return nil
}

// ListByClass returns the stored timetable ordered by day then start time.
func (r *TimetableEntryRepository) ListByClass(ctx context.Context, schoolID, classID string) ([]models.TimetableEntryDetail, error) {
	const query = `SELECT e.id, e.school_id, e.class_id, e.subject_id, COALESCE(e.teacher_id::text, '') AS teacher_id, e.day_of_week,
       to_char(e.start_time, 'HH24:MI') AS start_time, to_char(e.end_time, 'HH24:MI') AS end_time, e.created_at,
       COALESCE(s.name, '') AS subject_name, COALESCE(t.full_name, '') AS teacher_name
FROM timetable_entries e
LEFT JOIN subjects s ON s.id = e.subject_id
LEFT JOIN teachers t ON t.id = e.teacher_id
WHERE e.school_id = $1 AND e.class_id = $2
ORDER BY e.day_of_week ASC, e.start_time ASC`
	entries := make([]models.TimetableEntryDetail, 0)
	if err := r.db.SelectContext(ctx, &entries, query, schoolID, classID); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}
