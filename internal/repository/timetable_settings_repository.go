package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const settingsColumns = `id, school_id, class_id, to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time,
lesson_duration, breaks, is_default, updated_at, updated_by`

// TimetableSettingsRepository stores per-class and school default lesson settings.
type TimetableSettingsRepository struct {
	db *sqlx.DB
}

// NewTimetableSettingsRepository constructs the repository.
func NewTimetableSettingsRepository(db *sqlx.DB) *TimetableSettingsRepository {
	return &TimetableSettingsRepository{db: db}
}

// GetForClass returns the settings of one class or a wrapped sql.ErrNoRows.
func (r *TimetableSettingsRepository) GetForClass(ctx context.Context, schoolID, classID string) (*models.TimetableSettings, error) {
	query := `SELECT ` + settingsColumns + ` FROM timetable_settings WHERE school_id = $1 AND class_id = $2`
	var settings models.TimetableSettings
	if err := r.db.GetContext(ctx, &settings, query, schoolID, classID); err != nil {
		return nil, fmt.Errorf("get class timetable settings: %w", err)
	}
	return &settings, nil
}

// GetDefault returns the school default settings or a wrapped sql.ErrNoRows.
func (r *TimetableSettingsRepository) GetDefault(ctx context.Context, schoolID string) (*models.TimetableSettings, error) {
	query := `SELECT ` + settingsColumns + ` FROM timetable_settings WHERE school_id = $1 AND is_default = TRUE`
	var settings models.TimetableSettings
	if err := r.db.GetContext(ctx, &settings, query, schoolID); err != nil {
		return nil, fmt.Errorf("get default timetable settings: %w", err)
	}
	return &settings, nil
}

// Upsert stores settings. Rows without a class id are the school default.
func (r *TimetableSettingsRepository) Upsert(ctx context.Context, settings *models.TimetableSettings) error {
	if settings.ID == "" {
		settings.ID = uuid.NewString()
	}
	settings.IsDefault = settings.ClassID == nil
	settings.UpdatedAt = time.Now().UTC()

	target := `(school_id, class_id) WHERE class_id IS NOT NULL`
	if settings.IsDefault {
		target = `(school_id) WHERE is_default`
	}
	query := `INSERT INTO timetable_settings (id, school_id, class_id, start_time, end_time, lesson_duration, breaks, is_default, updated_at, updated_by)
VALUES (:id, :school_id, :class_id, :start_time, :end_time, :lesson_duration, :breaks, :is_default, :updated_at, :updated_by)
ON CONFLICT ` + target + ` DO UPDATE
SET start_time = EXCLUDED.start_time,
    end_time = EXCLUDED.end_time,
    lesson_duration = EXCLUDED.lesson_duration,
    breaks = EXCLUDED.breaks,
    updated_at = EXCLUDED.updated_at,
    updated_by = EXCLUDED.updated_by`

	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert timetable settings: %w", err)
	}
	return nil
}
