package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

type timetableSettingsRepository interface {
	GetForClass(ctx context.Context, schoolID, classID string) (*models.TimetableSettings, error)
	GetDefault(ctx context.Context, schoolID string) (*models.TimetableSettings, error)
	Upsert(ctx context.Context, settings *models.TimetableSettings) error
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// TimetableSettingsService manages the lesson day definitions slots are derived from.
type TimetableSettingsService struct {
	repo      timetableSettingsRepository
	classes   classReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableSettingsService wires dependencies.
func NewTimetableSettingsService(repo timetableSettingsRepository, classes classReader, validate *validator.Validate, logger *zap.Logger) *TimetableSettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableSettingsService{repo: repo, classes: classes, validator: validate, logger: logger}
}

// Get returns the settings that apply to classID, falling back to the school
// default. A nil classID asks for the default directly.
func (s *TimetableSettingsService) Get(ctx context.Context, schoolID string, classID *string) (*dto.TimetableSettingsResponse, error) {
	settings, err := s.resolve(ctx, schoolID, classID)
	if err != nil {
		return nil, err
	}
	return toSettingsResponse(settings)
}

// Save validates and stores settings for a class, or the school default when classID is nil.
func (s *TimetableSettingsService) Save(ctx context.Context, schoolID, userID string, classID *string, req dto.TimetableSettingsRequest) (*dto.TimetableSettingsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable settings payload")
	}
	if classID != nil {
		if err := ensureClassInSchool(ctx, s.classes, schoolID, *classID); err != nil {
			return nil, err
		}
	}

	slotSettings := timetable.SlotSettings{Start: req.StartTime, End: req.EndTime, LessonDuration: req.LessonDuration, Breaks: req.Breaks}
	slots, err := timetable.BuildSlots(slotSettings)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if len(slots) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "settings leave no room for a single lesson")
	}

	record := &models.TimetableSettings{
		SchoolID:       schoolID,
		ClassID:        classID,
		StartTime:      req.StartTime.String(),
		EndTime:        req.EndTime.String(),
		LessonDuration: req.LessonDuration,
		Breaks:         models.BreakList(req.Breaks),
	}
	if userID != "" {
		record.UpdatedBy = &userID
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Internal(err, "failed to save timetable settings")
	}
	s.logger.Sugar().Infow("timetable settings saved", "school_id", schoolID, "class_id", classID, "slots", len(slots))
	return toSettingsResponse(record)
}

// Slots derives lesson slots for a class from the settings that apply to it.
func (s *TimetableSettingsService) Slots(ctx context.Context, schoolID, classID string) ([]timetable.TimeSlot, error) {
	settings, err := s.resolve(ctx, schoolID, &classID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no time slots given and no lesson settings configured for this class")
		}
		return nil, err
	}
	slotSettings, err := settings.SlotSettings()
	if err != nil {
		return nil, appErrors.Internal(err, "stored timetable settings are invalid")
	}
	slots, err := timetable.BuildSlots(slotSettings)
	if err != nil {
		return nil, appErrors.Internal(err, "stored timetable settings are invalid")
	}
	return slots, nil
}

func (s *TimetableSettingsService) resolve(ctx context.Context, schoolID string, classID *string) (*models.TimetableSettings, error) {
	if classID != nil {
		if err := ensureClassInSchool(ctx, s.classes, schoolID, *classID); err != nil {
			return nil, err
		}
		settings, err := s.repo.GetForClass(ctx, schoolID, *classID)
		if err == nil {
			return settings, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Internal(err, "failed to load class timetable settings")
		}
	}
	settings, err := s.repo.GetDefault(ctx, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable settings not configured")
		}
		return nil, appErrors.Internal(err, "failed to load default timetable settings")
	}
	return settings, nil
}

func toSettingsResponse(settings *models.TimetableSettings) (*dto.TimetableSettingsResponse, error) {
	slotSettings, err := settings.SlotSettings()
	if err != nil {
		return nil, appErrors.Internal(err, "stored timetable settings are invalid")
	}
	slots, err := timetable.BuildSlots(slotSettings)
	if err != nil {
		return nil, appErrors.Internal(err, "stored timetable settings are invalid")
	}
	breaks := []timetable.Break(settings.Breaks)
	if breaks == nil {
		breaks = []timetable.Break{}
	}
	return &dto.TimetableSettingsResponse{
		ClassID:        settings.ClassID,
		IsDefault:      settings.ClassID == nil,
		StartTime:      slotSettings.Start.String(),
		EndTime:        slotSettings.End.String(),
		LessonDuration: settings.LessonDuration,
		Breaks:         breaks,
		Slots:          slots,
	}, nil
}

// ensureClassInSchool hides classes of other schools behind a 404.
func ensureClassInSchool(ctx context.Context, classes classReader, schoolID, classID string) error {
	_, err := loadClass(ctx, classes, schoolID, classID)
	return err
}

func loadClass(ctx context.Context, classes classReader, schoolID, classID string) (*models.Class, error) {
	class, err := classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Internal(err, "failed to load class")
	}
	if class.SchoolID != schoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	return class, nil
}
