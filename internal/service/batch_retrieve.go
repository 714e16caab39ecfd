package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medmonics/internal/config"
	"medmonics/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchRetriever polls a batch job and finalizes the results of a succeeded one.
type BatchRetriever struct {
	staging     domain.StagingStore
	jobs        domain.JobStore
	provider    domain.BatchProvider
	analyzer    domain.BoxAnalyzer
	store       domain.BundleStore
	catalog     domain.GenerationCatalog
	specialty   string
	concurrency int
	now         func() time.Time
	logger      *zap.Logger
}

// NewBatchRetriever creates a BatchRetriever. catalog may be nil.
func NewBatchRetriever(
	staging domain.StagingStore,
	jobs domain.JobStore,
	provider domain.BatchProvider,
	analyzer domain.BoxAnalyzer,
	store domain.BundleStore,
	catalog domain.GenerationCatalog,
	cfg *config.Config,
	logger *zap.Logger,
) *BatchRetriever {
	concurrency := cfg.Batch.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BatchRetriever{
		staging:     staging,
		jobs:        jobs,
		provider:    provider,
		analyzer:    analyzer,
		store:       store,
		catalog:     catalog,
		specialty:   cfg.Pipeline.Specialty,
		concurrency: concurrency,
		now:         time.Now,
		logger:      logger,
	}
}

// Status polls the job without touching staged data or storage.
func (r *BatchRetriever) Status(ctx context.Context, jobName string) (*domain.BatchJobSnapshot, error) {
	report, err := r.Retrieve(ctx, domain.RetrieveOptions{JobName: jobName, StatusOnly: true})
	if err != nil {
		return nil, err
	}
	return &report.Job, nil
}

// Retrieve runs one step of the job state machine. Pending and running jobs, and any job
// in status-only mode, produce a report with no artifacts. A failed job is a JobError
// carrying the provider's reason. A succeeded job has its results analyzed and saved once;
// retrieving it again is a JobError.
func (r *BatchRetriever) Retrieve(ctx context.Context, opts domain.RetrieveOptions) (*domain.RetrieveReport, error) {
	handle, tracked, err := r.resolve(ctx, opts.JobName)
	if err != nil {
		return nil, err
	}

	snap, err := r.provider.GetJob(ctx, handle.Name)
	if err != nil {
		return nil, err
	}
	r.logger.Info("Batch job status",
		zap.String("job_name", snap.Name),
		zap.String("status", string(snap.Status)),
		zap.String("provider_state", snap.ProviderState))

	r.track(ctx, handle, tracked, snap.Status)

	report := &domain.RetrieveReport{Job: *snap, Saved: []domain.GenerationSummary{}}
	if opts.StatusOnly {
		return report, nil
	}

	switch snap.Status {
	case domain.JobSucceeded:
		if handle.Retrieved() {
			return report, domain.NewJobError(snap.Name, "results were already retrieved").
				WithContext("retrieved_at", handle.RetrievedAt.UTC().Format(time.RFC3339))
		}
		final, err := r.finalize(ctx, handle, report)
		if err != nil {
			return final, err
		}
		return final, r.markRetrieved(ctx, handle, tracked)
	case domain.JobFailed:
		reason := snap.FailureReason
		if reason == "" {
			reason = "provider reported failure"
		}
		return report, domain.NewJobError(snap.Name, reason)
	default:
		return report, nil
	}
}

// resolve returns the handle to poll. tracked is set when the handle came from the job
// store, so that status changes are written back.
func (r *BatchRetriever) resolve(ctx context.Context, jobName string) (*domain.BatchJobHandle, bool, error) {
	stored, err := r.jobs.Load(ctx)
	if jobName == "" {
		if err != nil {
			return nil, false, err
		}
		return stored, true, nil
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		r.logger.Warn("Could not read job file, continuing with explicit job name", zap.Error(err))
	}
	if err == nil && stored.Name == jobName {
		return stored, true, nil
	}
	return &domain.BatchJobHandle{Name: jobName, Status: domain.JobPending}, false, nil
}

func (r *BatchRetriever) track(ctx context.Context, handle *domain.BatchJobHandle, tracked bool, next domain.JobStatus) {
	prev := handle.Status
	if err := handle.Advance(next); err != nil {
		r.logger.Warn("Ignoring job status transition", zap.String("job_name", handle.Name), zap.Error(err))
		return
	}
	if !tracked || prev == handle.Status {
		return
	}
	if err := r.jobs.Save(ctx, handle); err != nil {
		r.logger.Warn("Failed to persist job status", zap.String("job_name", handle.Name), zap.Error(err))
	}
}

// markRetrieved persists the retrieved marker so a later run does not save the bundles
// again. Untracked handles have nowhere to store it.
func (r *BatchRetriever) markRetrieved(ctx context.Context, handle *domain.BatchJobHandle, tracked bool) error {
	if err := handle.MarkRetrieved(r.now().UTC()); err != nil {
		return err
	}
	if !tracked {
		r.logger.Warn("Job is not the saved job; a repeated retrieval will save its results again",
			zap.String("job_name", handle.Name))
		return nil
	}
	if err := r.jobs.Save(ctx, handle); err != nil {
		r.logger.Error("Results saved but the job could not be marked as retrieved",
			zap.String("job_name", handle.Name), zap.Error(err))
		return err
	}
	return nil
}

type pendingResult struct {
	record domain.StagedRecord
	image  domain.ImageArtifact
}

func (r *BatchRetriever) finalize(ctx context.Context, handle *domain.BatchJobHandle, report *domain.RetrieveReport) (*domain.RetrieveReport, error) {
	records, err := LoadStaged(ctx, r.staging)
	if err != nil {
		return report, err
	}
	byTag := make(map[string]domain.StagedRecord, len(records))
	for _, rec := range records {
		byTag[rec.ID] = rec
	}

	tags := handle.Tags
	if len(tags) == 0 {
		tags = make([]string, 0, len(records))
		for _, rec := range records {
			tags = append(tags, rec.ID)
		}
	}

	results, err := r.provider.FetchImageResults(ctx, handle.Name, tags)
	if err != nil {
		return report, err
	}

	pending := make([]pendingResult, 0, len(results))
	for _, res := range results {
		switch rec, ok := byTag[res.Tag]; {
		case res.Err != "":
			report.Failures = append(report.Failures, domain.RecordFailure{Tag: res.Tag, Reason: res.Err})
		case !ok:
			report.Failures = append(report.Failures, domain.RecordFailure{Tag: res.Tag, Reason: "no staged record with this tag"})
		default:
			mime := res.MIME
			if mime == "" {
				mime = "image/png"
			}
			pending = append(pending, pendingResult{
				record: rec,
				image:  domain.ImageArtifact{RecordID: rec.ID, Data: res.Image, MIMEType: mime, Prompt: rec.VisualPrompt},
			})
		}
	}
	for _, f := range report.Failures {
		r.logger.Warn("Batch result skipped", zap.String("tag", f.Tag), zap.String("reason", f.Reason))
	}

	boxes, err := r.analyze(ctx, pending)
	if err != nil {
		return report, err
	}

	for i, p := range pending {
		specialty := p.record.Specialty
		if specialty == "" {
			specialty = r.specialty
		}
		record := p.record.Record()
		gen := &domain.Generation{
			Record:  record,
			Image:   p.image,
			Boxes:   boxes[i],
			Quizzes: LinkQuizzes(p.record.Quizzes, boxes[i]),
			Metadata: domain.GenerationMetadata{
				TopicID:   p.record.ID,
				Topic:     record.Topic,
				Specialty: specialty,
				BatchJob:  handle.Name,
			},
		}
		summary, err := r.store.Save(ctx, gen)
		if err != nil {
			return report, err
		}
		report.Saved = append(report.Saved, summary)
		if r.catalog != nil {
			if err := r.catalog.Record(ctx, summary); err != nil {
				r.logger.Warn("Failed to index generation", zap.String("id", summary.ID), zap.Error(err))
			}
		}
	}

	r.logger.Info("Batch job finalized",
		zap.String("job_name", handle.Name),
		zap.Int("saved", len(report.Saved)),
		zap.Int("failed", len(report.Failures)))

	if len(report.Saved) == 0 && len(results) > 0 {
		return report, domain.NewJobError(handle.Name, fmt.Sprintf("none of %d results could be finalized", len(results)))
	}
	return report, nil
}

// analyze runs bounding-box analysis for every downloaded image, at most concurrency at a
// time. boxes[i] belongs to pending[i].
func (r *BatchRetriever) analyze(ctx context.Context, pending []pendingResult) ([]domain.BboxSet, error) {
	boxes := make([]domain.BboxSet, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := range pending {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec := pending[i].record.Record()
			boxes[i] = r.analyzer.AnalyzeBoxes(gctx, &rec, pending[i].image)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return boxes, nil
}
