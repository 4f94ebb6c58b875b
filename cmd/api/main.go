package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dvloznov/ledgerconv/internal/api"
	"github.com/dvloznov/ledgerconv/internal/api/handlers"
	"github.com/dvloznov/ledgerconv/internal/config"
	"github.com/dvloznov/ledgerconv/internal/gcs"
	"github.com/dvloznov/ledgerconv/internal/gcsuploader"
	infraBQ "github.com/dvloznov/ledgerconv/internal/infra/bigquery"
	"github.com/dvloznov/ledgerconv/internal/jobs"
	"github.com/dvloznov/ledgerconv/internal/jobs/inmemory"
	"github.com/dvloznov/ledgerconv/internal/logger"
	"github.com/dvloznov/ledgerconv/internal/metrics"
	"github.com/dvloznov/ledgerconv/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	port := flag.Int("port", 0, "HTTP server port (overrides configuration)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	log := logger.NewWithLevel(cfg.Logging.Level)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()
	m := metrics.New()

	var storage gcs.StorageService
	if cfg.GCS.Bucket != "" {
		storage = gcsuploader.NewGCSStorageService()
	} else {
		log.Warn().Msg("No GCS bucket configured - artifacts will not be published")
	}

	var recorder pipeline.RunRecorder
	var runsHandler *handlers.RunsHandler
	if cfg.BigQuery.Enabled() {
		runRecorder, err := infraBQ.NewRunRecorder(ctx, cfg.BigQuery.Project, cfg.BigQuery.Dataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create conversion run recorder")
		}
		defer runRecorder.Close()
		recorder = runRecorder
		runsHandler = handlers.NewRunsHandler(runRecorder, log)
	}

	converter := pipeline.NewConverter(storage, recorder, m)

	// Initialize job infrastructure
	var convertHandler *handlers.ConvertHandler
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(inmemory.Options{
		BufferSize: cfg.Queue.Buffer,
		Workers:    cfg.Queue.Workers,
		MaxRetries: cfg.Queue.MaxRetries,
		Discard:    func(job *jobs.ConvertJob) { convertHandler.DiscardJob(job) },
	}, jobStore)

	convertHandler = handlers.NewConvertHandler(converter, jobQueue, handlers.ConvertSettings{
		Base:           pipeline.OptionsFromConfig(cfg),
		Bucket:         cfg.GCS.Bucket,
		Object:         cfg.GCS.Object,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		LogLevel:       cfg.Logging.Level,
	}, log)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	log.Info().Int("workers", cfg.Queue.Workers).Msg("Starting job workers")
	if err := jobQueue.Start(workerCtx, convertHandler.ProcessJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job workers")
	}
	go reportQueueDepth(workerCtx, jobQueue, m)

	router := api.NewRouter(api.Deps{
		Convert: convertHandler,
		Jobs:    handlers.NewJobsHandler(jobStore, log),
		Runs:    runsHandler,
		Metrics: m.Handler(),
		Log:     log,
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Int("port", cfg.Server.Port).
			Str("bucket", cfg.GCS.Bucket).
			Bool("audit", recorder != nil).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// In-flight conversions finish before the workers are cancelled.
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}

func reportQueueDepth(ctx context.Context, q *inmemory.Queue, m *metrics.Metrics) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SetQueueDepth(q.Depth())
		}
	}
}
