// Command batch_submit sends every record in the staging file as one batch image job and
// records the job name for batch_retrieve.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"medmonics/internal/app"
	"medmonics/internal/config"
	"medmonics/internal/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	l := logger.Get()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := app.New(ctx, cfg, l)
	if err != nil {
		l.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	l.Info("Submitting staged records", zap.String("staging_file", cfg.Paths.StagingFile))
	handle, err := services.Batch.Submit(ctx)
	if err != nil {
		if handle != nil {
			l.Error("Job was submitted but its name could not be saved; pass it to batch_retrieve explicitly",
				zap.String("job_name", handle.Name))
		}
		l.Fatal("Batch submission failed", zap.Error(err))
	}

	l.Info("Batch job submitted",
		zap.String("job_name", handle.Name),
		zap.Int("records", handle.RecordCount),
		zap.String("job_file", cfg.Paths.JobFile),
	)
}
