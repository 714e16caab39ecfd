package service

import (
	"context"
	"strings"

	"medmonics/internal/config"
	"medmonics/internal/domain"

	"go.uber.org/zap"
)

const catalogListLimit = 500

// generationService implements domain.MnemonicService.
type generationService struct {
	pipeline  *Pipeline
	store     domain.BundleStore
	catalog   domain.GenerationCatalog
	specialty string
	logger    *zap.Logger
}

// NewGenerationService creates the interactive service. catalog may be nil, in which case
// listings are read from the bundle store.
func NewGenerationService(pipeline *Pipeline, store domain.BundleStore, catalog domain.GenerationCatalog, cfg *config.Config, logger *zap.Logger) domain.MnemonicService {
	return &generationService{
		pipeline:  pipeline,
		store:     store,
		catalog:   catalog,
		specialty: cfg.Pipeline.Specialty,
		logger:    logger,
	}
}

func (s *generationService) Create(ctx context.Context, in domain.MnemonicInput, specialty string, save bool) (*domain.Generation, *domain.GenerationSummary, error) {
	if strings.TrimSpace(in.Topic) == "" {
		return nil, nil, domain.NewInvalidInputError("topic is required")
	}
	gen, err := s.pipeline.Run(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	if specialty == "" {
		specialty = s.specialty
	}
	gen.Metadata = domain.GenerationMetadata{
		TopicID:   gen.Record.ID,
		Topic:     gen.Record.Topic,
		Specialty: specialty,
	}
	if !save {
		return gen, nil, nil
	}

	summary, err := s.store.Save(ctx, gen)
	if err != nil {
		return gen, nil, err
	}
	if s.catalog != nil {
		if err := s.catalog.Record(ctx, summary); err != nil {
			s.logger.Warn("Failed to index generation", zap.String("id", summary.ID), zap.Error(err))
		}
	}
	return gen, &summary, nil
}

func (s *generationService) List(ctx context.Context, specialty string) ([]domain.GenerationSummary, error) {
	if s.catalog != nil {
		list, err := s.catalog.List(ctx, specialty, catalogListLimit)
		if err == nil {
			return list, nil
		}
		s.logger.Warn("Catalog listing failed, scanning storage", zap.Error(err))
	}
	return s.store.List(ctx, specialty)
}

func (s *generationService) Load(ctx context.Context, id string) (*domain.Generation, error) {
	return s.store.Load(ctx, id)
}

func (s *generationService) LoadImage(ctx context.Context, id string) ([]byte, error) {
	return s.store.LoadImage(ctx, id)
}
