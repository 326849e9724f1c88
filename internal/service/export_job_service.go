package service

import (
	"context"
	"database/sql"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, upd repository.ExportJobUpdate) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportFileStore interface {
	Put(rel string, payload []byte) (string, error)
	Read(rel string) ([]byte, error)
	Remove(rel string) error
	Sweep(maxAge time.Duration) ([]string, error)
}

type downloadSigner interface {
	Sign(jobID, object string) (string, storage.DownloadToken, error)
	Verify(raw string) (storage.DownloadToken, error)
}

type timetableExporter interface {
	Export(ctx context.Context, schoolID, classID string, format models.ExportFormat) (*dto.ExportFile, error)
}

// ExportJobServiceConfig governs download links and cleanup.
type ExportJobServiceConfig struct {
	// DownloadPath is the public route prefix signed tokens are appended to.
	DownloadPath    string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportJobService manages the lifecycle of asynchronous timetable exports.
type ExportJobService struct {
	repo      exportJobStore
	classes   classReader
	queue     jobDispatcher
	files     exportFileStore
	signer    downloadSigner
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportJobServiceConfig
}

// NewExportJobService constructs the service.
func NewExportJobService(repo exportJobStore, classes classReader, queue jobDispatcher, files exportFileStore, signer downloadSigner, validate *validator.Validate, logger *zap.Logger, cfg ExportJobServiceConfig) *ExportJobService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.DownloadPath == "" {
		cfg.DownloadPath = "/api/v1/export"
	}
	return &ExportJobService{
		repo:      repo,
		classes:   classes,
		queue:     queue,
		files:     files,
		signer:    signer,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// CreateJob persists a queued export for a class and hands it to the worker pool.
func (s *ExportJobService) CreateJob(ctx context.Context, schoolID, classID, actorID string, req dto.ExportJobRequest) (*dto.ExportJobResponse, error) {
	req.Format = models.ExportFormat(strings.ToUpper(string(req.Format)))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be CSV or PDF")
	}
	if err := ensureClassInSchool(ctx, s.classes, schoolID, classID); err != nil {
		return nil, err
	}

	job := &models.ExportJob{
		SchoolID:  schoolID,
		ClassID:   classID,
		Format:    req.Format,
		Status:    models.ExportStatusQueued,
		CreatedBy: actorID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Internal(err, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Format)}); err != nil {
		failed := models.ExportStatusFailed
		msg := "failed to enqueue export"
		now := time.Now().UTC()
		_ = s.repo.Update(ctx, job.ID, repository.ExportJobUpdate{Status: &failed, ErrorMessage: &msg, FinishedAt: &now})
		return nil, appErrors.Internal(err, "failed to enqueue export job")
	}
	return &dto.ExportJobResponse{ID: job.ID, Status: job.Status}, nil
}

// GetStatus returns job progress. Jobs of other schools are reported as missing.
func (s *ExportJobService) GetStatus(ctx context.Context, schoolID, id string) (*dto.ExportStatusResponse, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.SchoolID != schoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	resp := &dto.ExportStatusResponse{
		ID:          job.ID,
		ClassID:     job.ClassID,
		Format:      job.Format,
		Status:      job.Status,
		DownloadURL: job.ResultURL,
		CreatedAt:   job.CreatedAt.UTC().Format(time.RFC3339),
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	if job.FinishedAt != nil {
		finished := job.FinishedAt.UTC().Format(time.RFC3339)
		resp.FinishedAt = &finished
	}
	return resp, nil
}

// ResolveDownload verifies a signed token and loads the finished export.
func (s *ExportJobService) ResolveDownload(ctx context.Context, token string) (*dto.ExportFile, error) {
	tok, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	job, err := s.load(ctx, tok.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.ExportStatusFinished || job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, "/"+token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "download link does not match export")
	}
	payload, err := s.files.Read(tok.Object)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to read export file")
	}
	return &dto.ExportFile{
		Filename:    path.Base(tok.Object),
		ContentType: contentTypeFor(job.Format),
		Payload:     payload,
	}, nil
}

// RecoverPendingJobs re-enqueues jobs left queued or in flight by a previous process.
func (s *ExportJobService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover queued export jobs", "error", err)
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Format)}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue export job", "job_id", job.ID, "error", err)
		}
	}
	if len(pending) > 0 {
		s.logger.Sugar().Infow("recovered export jobs", "count", len(pending))
	}
}

// StartCleanup periodically deletes export files older than the result TTL.
func (s *ExportJobService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *ExportJobService) cleanupExpired(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	expired, err := s.repo.ListFinishedBefore(ctx, cutoff, 100)
	if err != nil {
		s.logger.Sugar().Warnw("export cleanup list failed", "error", err)
		return
	}
	for _, job := range expired {
		if job.ResultURL == nil {
			continue
		}
		tok, err := s.signer.Verify(lastSegment(*job.ResultURL))
		if err != nil && !errors.Is(err, storage.ErrTokenExpired) {
			continue
		}
		if err := s.files.Remove(tok.Object); err != nil {
			s.logger.Sugar().Warnw("export cleanup delete failed", "job_id", job.ID, "error", err)
		}
	}
	removed, err := s.files.Sweep(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Sugar().Warnw("export sweep failed", "error", err)
		return
	}
	if len(removed) > 0 {
		s.logger.Sugar().Infow("export files swept", "count", len(removed))
	}
}

func (s *ExportJobService) load(ctx context.Context, id string) (*models.ExportJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Internal(err, "failed to load export job")
	}
	return job, nil
}

func contentTypeFor(format models.ExportFormat) string {
	if format == models.ExportFormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

func lastSegment(url string) string {
	return url[strings.LastIndex(url, "/")+1:]
}

// ExportWorker renders queued export jobs.
type ExportWorker struct {
	repo       exportJobStore
	exporter   timetableExporter
	files      exportFileStore
	signer     downloadSigner
	metrics    *MetricsService
	logger     *zap.Logger
	maxRetries int
	downloads  string
}

// NewExportWorker constructs a worker. maxRetries must match the queue setting
// so the last attempt marks the job failed.
func NewExportWorker(repo exportJobStore, exporter timetableExporter, files exportFileStore, signer downloadSigner, metrics *MetricsService, logger *zap.Logger, maxRetries int, downloadPath string) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if downloadPath == "" {
		downloadPath = "/api/v1/export"
	}
	return &ExportWorker{
		repo:       repo,
		exporter:   exporter,
		files:      files,
		signer:     signer,
		metrics:    metrics,
		logger:     logger,
		maxRetries: maxRetries,
		downloads:  strings.TrimRight(downloadPath, "/"),
	}
}

// Handle processes one queue job. Returning an error asks the queue to retry.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			w.logger.Sugar().Warnw("export job vanished", "job_id", job.ID)
			return nil
		}
		return err
	}
	if record.Status == models.ExportStatusFinished || record.Status == models.ExportStatusFailed {
		return nil
	}

	start := time.Now()
	processing := models.ExportStatusProcessing
	if err := w.repo.Update(ctx, job.ID, repository.ExportJobUpdate{Status: &processing}); err != nil {
		return err
	}

	url, err := w.render(ctx, record)
	if err != nil {
		return w.fail(ctx, job, record, err, start)
	}

	finished := models.ExportStatusFinished
	now := time.Now().UTC()
	empty := ""
	if err := w.repo.Update(ctx, job.ID, repository.ExportJobUpdate{Status: &finished, ResultURL: &url, ErrorMessage: &empty, FinishedAt: &now}); err != nil {
		return err
	}
	w.metrics.ObserveExport(string(record.Format), string(finished), time.Since(start))
	w.logger.Sugar().Infow("export finished", "job_id", job.ID, "class_id", record.ClassID, "format", record.Format)
	return nil
}

func (w *ExportWorker) render(ctx context.Context, record *models.ExportJob) (string, error) {
	file, err := w.exporter.Export(ctx, record.SchoolID, record.ClassID, record.Format)
	if err != nil {
		return "", err
	}
	object := storage.ObjectName(record.SchoolID, record.ClassID, record.ID, record.Format.Extension())
	if _, err := w.files.Put(object, file.Payload); err != nil {
		return "", err
	}
	token, _, err := w.signer.Sign(record.ID, object)
	if err != nil {
		return "", err
	}
	return w.downloads + "/" + token, nil
}

// fail records err on the job. Client errors and the final attempt mark the job
// failed; anything else is put back to QUEUED for another try.
func (w *ExportWorker) fail(ctx context.Context, job jobs.Job, record *models.ExportJob, cause error, start time.Time) error {
	msg := cause.Error()
	permanent := appErrors.FromError(cause).Status < 500
	if permanent || job.Attempt >= w.maxRetries {
		failed := models.ExportStatusFailed
		now := time.Now().UTC()
		if err := w.repo.Update(ctx, job.ID, repository.ExportJobUpdate{Status: &failed, ErrorMessage: &msg, FinishedAt: &now}); err != nil {
			w.logger.Sugar().Warnw("failed to mark export failed", "job_id", job.ID, "error", err)
		}
		w.metrics.ObserveExport(string(record.Format), string(failed), time.Since(start))
		w.logger.Sugar().Errorw("export failed", "job_id", job.ID, "attempt", job.Attempt, "error", cause)
		return nil
	}

	queued := models.ExportStatusQueued
	if err := w.repo.Update(ctx, job.ID, repository.ExportJobUpdate{Status: &queued, ErrorMessage: &msg}); err != nil {
		w.logger.Sugar().Warnw("failed to requeue export", "job_id", job.ID, "error", err)
	}
	return cause
}
