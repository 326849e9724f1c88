package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

var exportJobRowColumns = []string{"id", "school_id", "class_id", "format", "status", "result_url", "error_message", "created_by", "created_at", "finished_at"}

func TestExportJobRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_export_jobs")).
		WithArgs(sqlmock.AnyArg(), "school-1", "class-1", models.ExportFormatPDF, models.ExportStatusQueued, nil, nil, "user-1", sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.ExportJob{SchoolID: "school-1", ClassID: "class-1", Format: models.ExportFormatPDF, CreatedBy: "user-1"}
	require.NoError(t, repo.Create(context.Background(), job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.ExportStatusQueued, job.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobRepositoryUpdateBuildsSetClause(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	status := models.ExportStatusFinished
	url := "/api/v1/export/token"
	finished := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetable_export_jobs SET status = $1, result_url = $2, finished_at = $3 WHERE id = $4")).
		WithArgs(status, url, finished, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), "job-1", ExportJobUpdate{Status: &status, ResultURL: &url, FinishedAt: &finished}))
	require.NoError(t, repo.Update(context.Background(), "job-1", ExportJobUpdate{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobRepositoryListQueued(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status IN ('QUEUED', 'PROCESSING') ORDER BY created_at ASC LIMIT $1")).
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows(exportJobRowColumns).
			AddRow("job-1", "school-1", "class-1", "CSV", "QUEUED", nil, nil, "user-1", time.Now(), nil))

	jobs, err := repo.ListQueued(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.ExportFormatCSV, jobs[0].Format)
	assert.NoError(t, mock.ExpectationsWereMet())
}
