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
)

func TestTeacherRepositoryListBySchool(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "full_name", "email", "active"}).
		AddRow("t2", "school-1", "Bapak Andi", "andi@sma.id", true).
		AddRow("t1", "school-1", "Ibu Sari", "sari@sma.id", true)
	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers\nWHERE school_id = $1 AND active = TRUE ORDER BY full_name ASC, id ASC")).
		WithArgs("school-1").
		WillReturnRows(rows)

	teachers, err := repo.ListBySchool(context.Background(), "school-1")
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	assert.Equal(t, "Bapak Andi", teachers[0].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, school_id, name, grade, created_at, updated_at FROM classes WHERE id = $1")).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "school_id", "name", "grade", "created_at", "updated_at"}).
			AddRow("class-1", "school-1", "X IPA 1", "10", time.Now(), time.Now()))

	class, err := repo.FindByID(context.Background(), "class-1")
	require.NoError(t, err)
	assert.Equal(t, "X IPA 1", class.Name)

	mock.ExpectQuery("FROM classes WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryListByClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	rows := sqlmock.NewRows([]string{"subject_id", "subject_name", "subject_code", "teacher_id", "teacher_name"}).
		AddRow("eng", "English", "ENG", "t1", "Ibu Sari").
		AddRow("art", "Seni Budaya", "SBD", nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_subjects cs")).
		WithArgs("class-1").
		WillReturnRows(rows)

	subjects, err := repo.ListByClass(context.Background(), "class-1")
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	require.NotNil(t, subjects[0].TeacherID)
	assert.Equal(t, "t1", *subjects[0].TeacherID)
	assert.Nil(t, subjects[1].TeacherID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
