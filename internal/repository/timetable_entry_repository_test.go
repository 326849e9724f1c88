package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTimetableEntryRepositoryReplaceForClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_entries WHERE school_id = $1 AND class_id = $2")).
		WithArgs("school-1", "class-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_entries")).
		WithArgs(sqlmock.AnyArg(), "school-1", "class-1", "math", "t1", 1, "08:00", "08:40", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_entries")).
		WithArgs(sqlmock.AnyArg(), "school-1", "class-1", "english", "t1", 2, "08:00", "08:40", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entries := []models.TimetableEntry{
		{SubjectID: "math", TeacherID: "t1", DayOfWeek: 1, StartTime: "08:00", EndTime: "08:40"},
		{SubjectID: "english", TeacherID: "t1", DayOfWeek: 2, StartTime: "08:00", EndTime: "08:40"},
	}
	require.NoError(t, repo.ReplaceForClass(context.Background(), "school-1", "class-1", entries))
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, "class-1", entries[1].ClassID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableEntryRepositoryReplaceRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM timetable_entries").
		WithArgs("school-1", "class-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO timetable_entries").
		WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	err := repo.ReplaceForClass(context.Background(), "school-1", "class-1", []models.TimetableEntry{
		{SubjectID: "math", TeacherID: "t1", DayOfWeek: 1, StartTime: "08:00", EndTime: "08:40"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert timetable entry")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableEntryRepositoryReplaceWithNoEntriesClearsClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM timetable_entries").WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceForClass(context.Background(), "school-1", "class-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableEntryRepositoryListByClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableEntryRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "class_id", "subject_id", "teacher_id", "day_of_week", "start_time", "end_time", "created_at", "subject_name", "teacher_name"}).
		AddRow("e1", "school-1", "class-1", "math", "t1", 1, "08:00", "08:40", time.Now(), "Mathematics", "Ibu Sari").
		AddRow("e2", "school-1", "class-1", "english", "t1", 2, "08:00", "08:40", time.Now(), "English", "Ibu Sari")
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY e.day_of_week ASC, e.start_time ASC")).
		WithArgs("school-1", "class-1").
		WillReturnRows(rows)

	entries, err := repo.ListByClass(context.Background(), "school-1", "class-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Mathematics", entries[0].SubjectName)
	assert.Equal(t, 2, entries[1].DayOfWeek)
	assert.NoError(t, mock.ExpectationsWereMet())
}
