package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

// @title SMA Timetable API
// @version 1.0.0
// @description Weekly class timetable generation, conflict checking and export.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	validate := validator.New()
	cacheRepo := repository.NewCacheRepository(redisClient)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Timetable.CacheTTL, logr)

	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	entryRepo := repository.NewTimetableEntryRepository(db)
	settingsRepo := repository.NewTimetableSettingsRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)

	var proposals service.ProposalStore = service.NewMemoryProposalStore(cfg.Timetable.ProposalTTL)
	if redisClient != nil {
		proposals = service.NewRedisProposalStore(cacheRepo, cfg.Timetable.ProposalTTL)
	}

	tokenSvc := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Expiration)
	settingsSvc := service.NewTimetableSettingsService(settingsRepo, classRepo, validate, logr)
	timetableSvc := service.NewTimetableService(
		classRepo, subjectRepo, teacherRepo, entryRepo, settingsSvc, proposals,
		cacheSvc, metrics, validate, logr,
		service.TimetableServiceConfig{CacheTTL: cfg.Timetable.CacheTTL},
	)

	downloadPath := strings.TrimRight(cfg.APIPrefix, "/") + "/export"
	var exportHandler *handler.ExportHandler
	if cfg.Exports.Enabled {
		exportJobSvc, queue, err := buildExports(ctx, cfg, exportJobRepo, classRepo, timetableSvc, metrics, validate, logr, downloadPath)
		if err != nil {
			logr.Sugar().Fatalw("failed to init exports", "error", err)
		}
		defer queue.Stop()
		exportHandler = handler.NewExportHandler(exportJobSvc)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics, readinessChecks(db, redisClient))
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	settingsHandler := handler.NewTimetableSettingsHandler(settingsSvc)

	api := r.Group(cfg.APIPrefix)
	if exportHandler != nil {
		api.GET("/export/:token", exportHandler.Download)
	}

	secured := api.Group("", internalmiddleware.JWT(tokenSvc))
	managers := internalmiddleware.TimetableManagers()

	secured.POST("/timetables/generate", managers, timetableHandler.Generate)
	secured.POST("/timetables/save", managers, timetableHandler.Save)
	secured.GET("/timetable/settings/default", settingsHandler.GetDefault)
	secured.PUT("/timetable/settings/default", managers, settingsHandler.PutDefault)

	classes := secured.Group("/classes/:classId/timetable")
	classes.GET("", timetableHandler.Get)
	classes.GET("/export", timetableHandler.Export)
	classes.GET("/settings", settingsHandler.GetClass)
	classes.PUT("/settings", managers, settingsHandler.PutClass)
	classes.GET("/slots", settingsHandler.Slots)
	if exportHandler != nil {
		classes.POST("/exports", exportHandler.Create)
		secured.GET("/timetable-exports/:id", exportHandler.Status)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

func buildExports(
	ctx context.Context,
	cfg *config.Config,
	repo *repository.ExportJobRepository,
	classes *repository.ClassRepository,
	timetables *service.TimetableService,
	metrics *service.MetricsService,
	validate *validator.Validate,
	logr *zap.Logger,
	downloadPath string,
) (*service.ExportJobService, *jobs.Queue, error) {
	store, err := storage.NewExportStore(cfg.Exports.StorageDir)
	if err != nil {
		return nil, nil, err
	}
	secret := cfg.Exports.SignedURLSecret
	if secret == "" {
		secret = cfg.JWT.Secret
	}
	signer := storage.NewURLSigner(secret, cfg.Exports.SignedURLTTL)

	worker := service.NewExportWorker(repo, timetables, store, signer, metrics, logr, cfg.Exports.WorkerRetries, downloadPath)
	queue := jobs.NewQueue("timetable-export", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
		Observer:   metrics.ObserveQueueRun,
	})
	queue.Start(ctx)

	svc := service.NewExportJobService(repo, classes, queue, store, signer, validate, logr, service.ExportJobServiceConfig{
		DownloadPath:    downloadPath,
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	svc.RecoverPendingJobs(ctx)
	svc.StartCleanup(ctx)
	return svc, queue, nil
}

func readinessChecks(db *sqlx.DB, redisClient *redis.Client) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{
		"postgres": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}
