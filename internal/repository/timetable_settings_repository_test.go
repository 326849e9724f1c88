package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

var settingsRowColumns = []string{"id", "school_id", "class_id", "start_time", "end_time", "lesson_duration", "breaks", "is_default", "updated_at", "updated_by"}

func TestTimetableSettingsRepositoryGetForClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableSettingsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_settings WHERE school_id = $1 AND class_id = $2")).
		WithArgs("school-1", "class-1").
		WillReturnRows(sqlmock.NewRows(settingsRowColumns).
			AddRow("set-1", "school-1", "class-1", "07:00", "12:00", 45, []byte(`[{"name":"Istirahat","start":"09:15","end":"09:30"}]`), false, time.Now(), nil))

	settings, err := repo.GetForClass(context.Background(), "school-1", "class-1")
	require.NoError(t, err)
	assert.Equal(t, 45, settings.LessonDuration)
	require.Len(t, settings.Breaks, 1)
	assert.Equal(t, "Istirahat", settings.Breaks[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSettingsRepositoryGetDefaultMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableSettingsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE school_id = $1 AND is_default = TRUE")).
		WithArgs("school-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetDefault(context.Background(), "school-1")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSettingsRepositoryUpsertChoosesConflictTarget(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableSettingsRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (school_id) WHERE is_default DO UPDATE")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	defaults := &models.TimetableSettings{SchoolID: "school-1", StartTime: "07:00", EndTime: "13:00", LessonDuration: 40}
	require.NoError(t, repo.Upsert(context.Background(), defaults))
	assert.True(t, defaults.IsDefault)
	assert.NotEmpty(t, defaults.ID)

	classID := "class-1"
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (school_id, class_id) WHERE class_id IS NOT NULL DO UPDATE")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	perClass := &models.TimetableSettings{SchoolID: "school-1", ClassID: &classID, StartTime: "07:00", EndTime: "13:00", LessonDuration: 40}
	require.NoError(t, repo.Upsert(context.Background(), perClass))
	assert.False(t, perClass.IsDefault)
	assert.NoError(t, mock.ExpectationsWereMet())
}
