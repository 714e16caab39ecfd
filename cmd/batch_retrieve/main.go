// Command batch_retrieve polls a batch image job and, once it has succeeded, saves one
// bundle per staged record.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"medmonics/internal/app"
	"medmonics/internal/config"
	"medmonics/internal/domain"
	"medmonics/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var opts domain.RetrieveOptions

	cmd := &cobra.Command{
		Use:           "batch_retrieve",
		Short:         "Check a batch image job and save its results",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.JobName, "job-name", "", "job to retrieve (defaults to the last submitted job)")
	cmd.Flags().BoolVar(&opts.StatusOnly, "status-only", false, "only report the job status")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts domain.RetrieveOptions) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		return err
	}
	l := logger.Get()
	defer logger.Sync()

	services, err := app.New(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer services.Close()

	report, err := services.Batch.Retrieve(ctx, opts)
	if err != nil {
		return err
	}

	job := report.Job
	l.Info("Batch job status",
		zap.String("job_name", job.Name),
		zap.String("display_name", job.DisplayName),
		zap.String("status", string(job.Status)),
		zap.String("provider_state", job.ProviderState),
		zap.Int("requests", job.RequestCount),
	)
	if opts.StatusOnly || job.Status != domain.JobSucceeded {
		return nil
	}

	for _, s := range report.Saved {
		l.Info("Saved generation", zap.String("id", s.ID), zap.String("topic", s.Topic), zap.String("path", s.Path))
	}
	for _, f := range report.Failures {
		l.Warn("Record not saved", zap.String("tag", f.Tag), zap.String("reason", f.Reason))
	}
	l.Info("Retrieval complete", zap.Int("saved", len(report.Saved)), zap.Int("failed", len(report.Failures)))
	return nil
}
