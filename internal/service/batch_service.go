package service

import (
	"context"
	"time"

	"medmonics/internal/domain"

	"go.uber.org/zap"
)

// batchService implements the domain.BatchService interface.
type batchService struct {
	stager    *Stager
	submitter *BatchSubmitter
	retriever *BatchRetriever
	logger    *zap.Logger
}

// NewBatchService creates a new instance of batchService.
func NewBatchService(stager *Stager, submitter *BatchSubmitter, retriever *BatchRetriever, logger *zap.Logger) domain.BatchService {
	return &batchService{
		stager:    stager,
		submitter: submitter,
		retriever: retriever,
		logger:    logger,
	}
}

func (s *batchService) Breakdown(ctx context.Context, topic string, doc *domain.Attachment, language string) ([]domain.BatchInput, error) {
	md, err := s.stager.Breakdown(ctx, topic, doc, language)
	if err != nil {
		return nil, err
	}
	inputs := ParseBreakdown(md)
	if len(inputs) == 0 {
		return nil, domain.NewGenerationError("topic breakdown", domain.NewSchemaError("breakdown", "no subtopics found"))
	}
	s.logger.Info("Topic broken down", zap.Int("subtopics", len(inputs)))
	return inputs, nil
}

func (s *batchService) Stage(ctx context.Context, inputs []domain.BatchInput, opts domain.StageOptions) ([]domain.StagedRecord, error) {
	s.logger.Info("Starting staging run", zap.Int("inputs", len(inputs)), zap.Time("start_time", time.Now()))
	return s.stager.Stage(ctx, inputs, opts)
}

func (s *batchService) Submit(ctx context.Context) (*domain.BatchJobHandle, error) {
	return s.submitter.Submit(ctx)
}

func (s *batchService) Status(ctx context.Context, jobName string) (*domain.BatchJobSnapshot, error) {
	return s.retriever.Status(ctx, jobName)
}

func (s *batchService) Retrieve(ctx context.Context, opts domain.RetrieveOptions) (*domain.RetrieveReport, error) {
	report, err := s.retriever.Retrieve(ctx, opts)
	if err != nil {
		s.logger.Error("Batch retrieval failed", zap.String("job_name", opts.JobName), zap.Error(err))
		return report, err
	}
	return report, nil
}
