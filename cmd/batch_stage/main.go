// Command batch_stage breaks a topic or document down into subtopics, runs the text stages
// for each one and writes the staging file. With --submit the staged records are sent as a
// batch job right away.
package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"medmonics/internal/app"
	"medmonics/internal/config"
	"medmonics/internal/domain"
	"medmonics/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type stageFlags struct {
	topic     string
	file      string
	language  string
	theme     string
	style     string
	specialty string
	submit    bool
}

func main() {
	var flags stageFlags

	cmd := &cobra.Command{
		Use:           "batch_stage",
		Short:         "Stage mnemonic records for a batch image job",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(flags.topic) == "" && flags.file == "" {
				return fmt.Errorf("one of --topic or --file is required")
			}
			return run(cmd.Context(), flags)
		},
	}
	cmd.Flags().StringVar(&flags.topic, "topic", "", "medical topic to break down")
	cmd.Flags().StringVar(&flags.file, "file", "", "document (PDF or text) to break down instead of a topic")
	cmd.Flags().StringVar(&flags.language, "language", "", "output language (en or es)")
	cmd.Flags().StringVar(&flags.theme, "theme", "", "story theme")
	cmd.Flags().StringVar(&flags.style, "style", "", "visual style (cartoon, photorealistic, professional)")
	cmd.Flags().StringVar(&flags.specialty, "specialty", "", "specialty folder for the saved results")
	cmd.Flags().BoolVar(&flags.submit, "submit", false, "submit the staged records as a batch job")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, flags stageFlags) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		return err
	}
	l := logger.Get()
	defer logger.Sync()

	doc, err := readDocument(flags.file)
	if err != nil {
		return err
	}

	services, err := app.New(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer services.Close()

	inputs, err := services.Batch.Breakdown(ctx, flags.topic, doc, flags.language)
	if err != nil {
		return err
	}
	l.Info("Topic broken down", zap.Int("subtopics", len(inputs)))

	records, err := services.Batch.Stage(ctx, inputs, domain.StageOptions{
		Language:    flags.language,
		Theme:       flags.theme,
		VisualStyle: flags.style,
		Specialty:   flags.specialty,
	})
	if err != nil {
		return err
	}
	l.Info("Records staged",
		zap.Int("staged", len(records)),
		zap.Int("skipped", len(inputs)-len(records)),
		zap.String("staging_file", cfg.Paths.StagingFile),
	)

	if !flags.submit {
		return nil
	}
	handle, err := services.Batch.Submit(ctx)
	if err != nil {
		return err
	}
	l.Info("Batch job submitted", zap.String("job_name", handle.Name), zap.Int("records", handle.RecordCount))
	return nil
}

func readDocument(path string) (*domain.Attachment, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewIOError("read", path, err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "text/plain"
	}
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return &domain.Attachment{MIMEType: mimeType, Data: data}, nil
}
