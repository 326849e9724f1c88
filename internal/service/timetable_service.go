package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

type classSubjectReader interface {
	ListByClass(ctx context.Context, classID string) ([]models.ClassSubject, error)
}

type teacherRosterReader interface {
	ListBySchool(ctx context.Context, schoolID string) ([]models.Teacher, error)
}

type timetableEntryRepository interface {
	ReplaceForClass(ctx context.Context, schoolID, classID string, entries []models.TimetableEntry) error
	ListByClass(ctx context.Context, schoolID, classID string) ([]models.TimetableEntryDetail, error)
}

type slotSource interface {
	Slots(ctx context.Context, schoolID, classID string) ([]timetable.TimeSlot, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

// TimetableServiceConfig tunes caching of stored timetables.
type TimetableServiceConfig struct {
	CacheTTL time.Duration
}

// TimetableService generates, checks, stores and exports class timetables.
type TimetableService struct {
	classes   classReader
	subjects  classSubjectReader
	teachers  teacherRosterReader
	entries   timetableEntryRepository
	slots     slotSource
	proposals ProposalStore
	cache     *CacheService
	metrics   *MetricsService
	renderers map[models.ExportFormat]datasetRenderer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableServiceConfig
}

// NewTimetableService wires timetable dependencies. cache and metrics may be nil.
func NewTimetableService(
	classes classReader,
	subjects classSubjectReader,
	teachers teacherRosterReader,
	entries timetableEntryRepository,
	slots slotSource,
	proposals ProposalStore,
	cacheSvc *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableServiceConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if proposals == nil {
		proposals = NewMemoryProposalStore(0)
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &TimetableService{
		classes:   classes,
		subjects:  subjects,
		teachers:  teachers,
		entries:   entries,
		slots:     slots,
		proposals: proposals,
		cache:     cacheSvc,
		metrics:   metrics,
		renderers: map[models.ExportFormat]datasetRenderer{
			models.ExportFormatCSV: export.NewCSVExporter(),
			models.ExportFormatPDF: export.NewPDFExporter(),
		},
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate builds a proposal for the class and stores it for a later save.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}
	if err := timetable.ValidateSlots(req.Slots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	class, err := loadClass(ctx, s.classes, req.SchoolID, req.ClassID)
	if err != nil {
		return nil, err
	}

	classSubjects, err := s.subjects.ListByClass(ctx, class.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class subjects")
	}
	roster, err := s.teachers.ListBySchool(ctx, req.SchoolID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load teachers")
	}

	subjectIDs, teacherOf, names, err := planSubjects(req.SubjectIDs, classSubjects, roster)
	if err != nil {
		return nil, err
	}
	defaultTeacher, err := pickDefaultTeacher(req.DefaultTeacherID, roster)
	if err != nil {
		return nil, err
	}

	slots := req.Slots
	if len(slots) == 0 {
		if slots, err = s.slots.Slots(ctx, req.SchoolID, class.ID); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	entries, err := timetable.Generate(timetable.Input{
		Subjects:       subjectIDs,
		TeacherOf:      teacherOf,
		DefaultTeacher: defaultTeacher,
		Days:           req.Days,
		Slots:          slots,
	})
	if errors.Is(err, timetable.ErrNoSlots) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no time slots available for this class")
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to generate timetable")
	}
	conflicts := timetable.DetectConflicts(entries)
	s.metrics.ObserveGeneration(time.Since(start), len(entries), len(conflicts))

	proposal := TimetableProposal{
		ID:        uuid.NewString(),
		SchoolID:  req.SchoolID,
		ClassID:   class.ID,
		Entries:   entries,
		Conflicts: conflicts,
		Names:     names,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.proposals.Put(ctx, proposal); err != nil {
		return nil, appErrors.Internal(err, "failed to store timetable proposal")
	}

	s.logger.Sugar().Infow("timetable proposal generated",
		"proposal_id", proposal.ID,
		"class_id", class.ID,
		"entries", len(entries),
		"conflicts", len(conflicts),
	)

	return &dto.GenerateTimetableResponse{
		ProposalID: proposal.ID,
		ClassID:    class.ID,
		Entries:    entryViews(entries, names),
		Conflicts:  conflictViews(conflicts, names),
		ExpiresAt:  proposal.CreatedAt.Add(s.proposals.TTL()).Format(time.RFC3339),
	}, nil
}

// Save replaces the stored timetable of the proposal's class. Proposals with
// teacher double-bookings are rejected.
func (s *TimetableService) Save(ctx context.Context, req dto.SaveTimetableRequest) (*dto.SaveTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save timetable payload")
	}
	proposal, ok, err := s.proposals.Get(ctx, req.ProposalID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load timetable proposal")
	}
	if !ok || proposal.SchoolID != req.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}

	conflicts := timetable.DetectConflicts(proposal.Entries)
	if len(proposal.Conflicts) > 0 || len(conflicts) > 0 {
		if len(conflicts) == 0 {
			conflicts = proposal.Conflicts
		}
		s.metrics.RecordSave("rejected")
		return nil, appErrors.WithDetails(appErrors.ErrScheduleConflict, "", conflictViews(conflicts, proposal.Names))
	}

	rows := make([]models.TimetableEntry, 0, len(proposal.Entries))
	for _, entry := range proposal.Entries {
		rows = append(rows, models.TimetableEntry{
			SchoolID:  proposal.SchoolID,
			ClassID:   proposal.ClassID,
			SubjectID: entry.SubjectID,
			TeacherID: entry.TeacherID,
			DayOfWeek: int(entry.Day),
			StartTime: entry.Start.String(),
			EndTime:   entry.End.String(),
		})
	}

	start := time.Now()
	err = s.entries.ReplaceForClass(ctx, proposal.SchoolID, proposal.ClassID, rows)
	s.metrics.ObserveDBQuery("timetable_replace", time.Since(start))
	if err != nil {
		s.metrics.RecordSave("failed")
		return nil, appErrors.Internal(err, "failed to save timetable")
	}
	s.metrics.RecordSave("saved")

	s.cache.Invalidate(ctx, timetableCacheKey(proposal.SchoolID, proposal.ClassID))
	if err := s.proposals.Delete(ctx, proposal.ID); err != nil {
		s.logger.Warn("failed to drop saved proposal", zap.String("proposal_id", proposal.ID), zap.Error(err))
	}

	s.logger.Sugar().Infow("timetable saved",
		"proposal_id", proposal.ID,
		"class_id", proposal.ClassID,
		"entries", len(rows),
		"saved_by", req.UserID,
	)
	return &dto.SaveTimetableResponse{ClassID: proposal.ClassID, Saved: len(rows)}, nil
}

// Get returns the stored timetable of a class ordered by day then start time,
// together with any double-bookings it contains. The bool reports a cache hit.
func (s *TimetableService) Get(ctx context.Context, schoolID, classID string) (*dto.ClassTimetableResponse, bool, error) {
	class, err := loadClass(ctx, s.classes, schoolID, classID)
	if err != nil {
		return nil, false, err
	}

	key := timetableCacheKey(schoolID, classID)
	var cached dto.ClassTimetableResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	details, err := s.entries.ListByClass(ctx, schoolID, classID)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to load timetable")
	}

	names := timetable.Names{Teachers: map[string]string{}, Subjects: map[string]string{}}
	entries := make([]timetable.Entry, 0, len(details))
	for _, detail := range details {
		entry, err := detail.ToEntry()
		if err != nil {
			return nil, false, appErrors.Internal(err, "stored timetable entry is invalid")
		}
		entries = append(entries, entry)
		names.Teachers[detail.TeacherID] = detail.TeacherName
		names.Subjects[detail.SubjectID] = detail.SubjectName
	}
	conflicts := timetable.DetectConflicts(entries)
	s.metrics.ObserveStoredConflicts(len(conflicts))

	resp := &dto.ClassTimetableResponse{
		ClassID:   class.ID,
		ClassName: class.Name,
		Entries:   entryViews(entries, names),
		Conflicts: conflictViews(conflicts, names),
	}
	s.cache.Set(ctx, key, resp, s.cfg.CacheTTL)
	return resp, false, nil
}

// Export renders the stored timetable of a class in the requested format.
func (s *TimetableService) Export(ctx context.Context, schoolID, classID string, format models.ExportFormat) (*dto.ExportFile, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	table, _, err := s.Get(ctx, schoolID, classID)
	if err != nil {
		return nil, err
	}

	rows := make([]export.TimetableRow, 0, len(table.Entries))
	for _, entry := range table.Entries {
		rows = append(rows, export.TimetableRow{
			Day:       entry.DayName,
			Subject:   entry.SubjectName,
			Teacher:   entry.TeacherName,
			StartTime: entry.StartTime,
			EndTime:   entry.EndTime,
		})
	}
	payload, err := renderer.Render(export.NewTimetableDataset("Timetable "+table.ClassName, rows))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render timetable export")
	}
	return &dto.ExportFile{
		Filename:    exportFilename(table.ClassName, format),
		ContentType: renderer.ContentType(),
		Payload:     payload,
	}, nil
}

// planSubjects resolves the subject order, the teacher of each subject and display names.
func planSubjects(requested []string, classSubjects []models.ClassSubject, roster []models.Teacher) ([]string, map[string]string, timetable.Names, error) {
	names := timetable.Names{
		Teachers: make(map[string]string, len(roster)),
		Subjects: make(map[string]string, len(classSubjects)),
	}
	for _, teacher := range roster {
		names.Teachers[teacher.ID] = teacher.FullName
	}

	teacherOf := make(map[string]string, len(classSubjects))
	ordered := make([]string, 0, len(classSubjects))
	for _, cs := range classSubjects {
		names.Subjects[cs.SubjectID] = cs.SubjectName
		if cs.TeacherID != nil && *cs.TeacherID != "" {
			teacherOf[cs.SubjectID] = *cs.TeacherID
			if cs.TeacherName != nil {
				names.Teachers[*cs.TeacherID] = *cs.TeacherName
			}
		}
		ordered = append(ordered, cs.SubjectID)
	}

	if len(requested) == 0 {
		return ordered, teacherOf, names, nil
	}
	for _, id := range requested {
		if _, ok := names.Subjects[id]; !ok {
			return nil, nil, names, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %s is not taught in this class", id))
		}
	}
	return requested, teacherOf, names, nil
}

// pickDefaultTeacher returns the explicit default when it belongs to the
// roster, else the first teacher by name, else the empty id.
func pickDefaultTeacher(requested string, roster []models.Teacher) (string, error) {
	if requested != "" {
		for _, teacher := range roster {
			if teacher.ID == requested {
				return requested, nil
			}
		}
		return "", appErrors.Clone(appErrors.ErrValidation, "defaultTeacherId is not an active teacher of this school")
	}
	if len(roster) > 0 {
		return roster[0].ID, nil
	}
	return "", nil
}

func entryViews(entries []timetable.Entry, names timetable.Names) []dto.TimetableEntryView {
	views := make([]dto.TimetableEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, dto.TimetableEntryView{
			SubjectID:   entry.SubjectID,
			SubjectName: displayName(names.Subjects, entry.SubjectID),
			TeacherID:   entry.TeacherID,
			TeacherName: displayName(names.Teachers, entry.TeacherID),
			DayOfWeek:   int(entry.Day),
			DayName:     entry.Day.String(),
			StartTime:   entry.Start.String(),
			EndTime:     entry.End.String(),
		})
	}
	return views
}

func conflictViews(conflicts []timetable.Conflict, names timetable.Names) []dto.TimetableConflictView {
	views := make([]dto.TimetableConflictView, 0, len(conflicts))
	for _, c := range conflicts {
		views = append(views, dto.TimetableConflictView{Index: c.Index, Message: timetable.Describe(c, names)})
	}
	return views
}

func displayName(names map[string]string, id string) string {
	if name := names[id]; name != "" {
		return name
	}
	return id
}

func timetableCacheKey(schoolID, classID string) string {
	return cache.Key("school", schoolID, "class", classID, "entries")
}

func exportFilename(className string, format models.ExportFormat) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, strings.TrimSpace(className))
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "class"
	}
	return fmt.Sprintf("timetable-%s.%s", slug, format.Extension())
}
