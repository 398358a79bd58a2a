package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/score-labs/score-backend/internal/bootstrap"
	"github.com/score-labs/score-backend/internal/config"
	"github.com/score-labs/score-backend/internal/core/ports"
	"github.com/score-labs/score-backend/internal/observability/logging"
	"github.com/score-labs/score-backend/internal/observability/metrics"
)

const serviceName = "worker"

// jobTimeout bounds one ingestion batch end to end, extraction through
// vector upsert.
const jobTimeout = 5 * time.Minute

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeIngestionJobs(ctx, func(handlerCtx context.Context, job ports.IngestionJob) error {
		jobCtx, cancel := context.WithTimeout(handlerCtx, jobTimeout)
		defer cancel()

		workerMetrics.StartJob()
		start := time.Now()
		result, err := app.PipelineUC.IngestJob(jobCtx, job)
		workerMetrics.FinishJob(serviceName, time.Since(start), err)
		if err != nil {
			return err
		}

		workerMetrics.ObserveChunks(serviceName, result.TotalChunks, result.TotalFiltered)
		slog.Info("ingestion job done",
			"job_id", job.JobID,
			"deck_id", result.DeckID,
			"files", result.FilesProcessed,
			"chunks", result.TotalChunks,
			"filtered", result.TotalFiltered,
		)
		return nil
	})
	if err != nil {
		slog.Error("worker subscribe", "error", err)
		os.Exit(1)
	}
}
