package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"medmonics/internal/config"
	"medmonics/internal/domain"
	"medmonics/internal/normalize"
	"medmonics/internal/prompt"
	"medmonics/internal/util"

	"go.uber.org/zap"
)

// BatchSubmitter sends every staged record to the provider as one batch job.
type BatchSubmitter struct {
	staging  domain.StagingStore
	jobs     domain.JobStore
	provider domain.BatchProvider
	defaults config.PipelineConfig
	prefix   string
	now      func() time.Time
	logger   *zap.Logger
}

func NewBatchSubmitter(staging domain.StagingStore, jobs domain.JobStore, provider domain.BatchProvider, cfg *config.Config, logger *zap.Logger) *BatchSubmitter {
	return &BatchSubmitter{
		staging:  staging,
		jobs:     jobs,
		provider: provider,
		defaults: cfg.Pipeline,
		prefix:   cfg.Batch.DisplayPrefix,
		now:      time.Now,
		logger:   logger,
	}
}

// Submit validates the whole staging set before anything is sent; a malformed or empty
// set submits nothing. The returned handle is persisted in the job store.
func (s *BatchSubmitter) Submit(ctx context.Context) (*domain.BatchJobHandle, error) {
	records, err := LoadStaged(ctx, s.staging)
	if err != nil {
		return nil, err
	}

	reqs := make([]domain.BatchImageRequest, 0, len(records))
	tags := make([]string, 0, len(records))
	for _, rec := range records {
		theme := rec.Theme
		if theme == "" {
			theme = s.defaults.DefaultTheme
		}
		style := rec.VisualStyle
		if style == "" {
			style = s.defaults.DefaultStyle
		}
		reqs = append(reqs, domain.BatchImageRequest{
			Tag:    rec.ID,
			Prompt: prompt.Image(rec.VisualPrompt, theme, style),
		})
		tags = append(tags, rec.ID)
	}

	now := s.now()
	displayName := fmt.Sprintf("%s_%d", s.prefix, now.Unix())
	s.logger.Info("Submitting batch job",
		zap.String("display_name", displayName),
		zap.Int("requests", len(reqs)))

	name, err := s.provider.SubmitImageBatch(ctx, displayName, reqs)
	if err != nil {
		return nil, err
	}

	handle := domain.NewBatchJobHandle(name, tags, now.UTC())
	if err := s.jobs.Save(ctx, handle); err != nil {
		// The job exists on the provider side; the name is the only way back to it.
		s.logger.Error("Batch job submitted but its handle could not be saved",
			zap.String("job_name", name), zap.Error(err))
		return handle, err
	}
	s.logger.Info("Batch job submitted", zap.String("job_name", name), zap.Int("records", handle.RecordCount))
	return handle, nil
}

// LoadStaged reads and validates every staged record. Records without an ID get a tag
// derived from their content; duplicate tags are rejected.
func LoadStaged(ctx context.Context, staging domain.StagingStore) ([]domain.StagedRecord, error) {
	raws, err := staging.Read(ctx)
	if err != nil {
		return nil, err
	}
	if len(raws) == 0 {
		return nil, domain.NewSchemaError("staging", "no staged records")
	}
	return decodeStaged(raws)
}

func decodeStaged(raws []json.RawMessage) ([]domain.StagedRecord, error) {
	records := make([]domain.StagedRecord, 0, len(raws))
	seen := make(map[string]int, len(raws))
	for i, raw := range raws {
		rec, err := normalize.DecodeStaged(raw)
		if err != nil {
			field, _ := domain.SchemaField(err)
			return nil, domain.NewSchemaError(fmt.Sprintf("staging[%d].%s", i, field), err.Error())
		}
		if rec.ID == "" {
			rec.ID = util.ContentTag("rec", rec.Topic, rec.VisualPrompt)
		}
		if prev, dup := seen[rec.ID]; dup {
			return nil, domain.NewSchemaError(fmt.Sprintf("staging[%d].id", i),
				fmt.Sprintf("tag %q already used by record %d", rec.ID, prev))
		}
		seen[rec.ID] = i
		records = append(records, *rec)
	}
	return records, nil
}
