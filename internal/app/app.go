// Package app wires providers, storage and services from configuration for the commands.
package app

import (
	"context"
	"fmt"
	"sync"

	"medmonics/internal/adapter"
	"medmonics/internal/adapter/batchjob"
	"medmonics/internal/adapter/imagegen"
	"medmonics/internal/adapter/textgen"
	"medmonics/internal/cache"
	"medmonics/internal/config"
	"medmonics/internal/database"
	"medmonics/internal/domain"
	"medmonics/internal/repository"
	"medmonics/internal/service"
	"medmonics/internal/storage"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// App holds the services shared by the API and the batch commands.
type App struct {
	Mnemonics domain.MnemonicService
	Batch     domain.BatchService

	redis  *redis.Client
	db     *sqlx.DB
	logger *zap.Logger
}

// New builds every service from cfg. Redis and the Oracle catalog are optional and only
// connected when configured.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	llm, err := textgen.NewModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create text model: %w", err)
	}
	text := textgen.NewLangchainGenerator(llm, cfg.Models.Text, cfg.LLM.Timeout, logger)

	// Shared by the image generator and the batch provider; created on first need.
	var (
		geminiMu sync.Mutex
		gemini   *genai.Client
	)
	geminiClient := func(ctx context.Context) (*genai.Client, error) {
		geminiMu.Lock()
		defer geminiMu.Unlock()
		if gemini != nil {
			return gemini, nil
		}
		client, err := imagegen.NewGeminiClient(ctx, cfg.Gemini.APIKey)
		if err != nil {
			return nil, err
		}
		gemini = client
		return gemini, nil
	}

	var images domain.ImageGenerator
	switch cfg.Image.Provider {
	case "", "gemini":
		client, err := geminiClient(ctx)
		if err != nil {
			return nil, err
		}
		images = imagegen.NewGeminiImageGenerator(client, cfg.Models.Image, cfg.Image.AspectRatio, logger)
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai api key is not configured")
		}
		images = imagegen.NewOpenAIImageGenerator(openai.NewClient(cfg.OpenAI.APIKey), cfg.OpenAI.ImageModel, cfg.OpenAI.ImageSize, logger)
	default:
		return nil, fmt.Errorf("unknown image provider %q", cfg.Image.Provider)
	}
	logger.Info("Providers initialized",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("image_provider", cfg.Image.Provider),
	)

	mnemonicCache := a.newCache(ctx, cfg)
	catalog := a.newCatalog(cfg)

	store := storage.NewFileStore(cfg.Paths.StorageDir, logger)
	staging := storage.NewStagingFile(cfg.Paths.StagingFile)
	jobs := storage.NewJobFile(cfg.Paths.JobFile)

	pipeline := service.NewPipeline(text, images, mnemonicCache, cfg, logger)
	a.Mnemonics = service.NewGenerationService(pipeline, store, catalog, cfg, logger)

	// Batch jobs always go through Gemini, whatever the image provider is.
	provider := batchjob.NewLazyProvider(func(ctx context.Context) (domain.BatchProvider, error) {
		client, err := geminiClient(ctx)
		if err != nil {
			logger.Warn("Batch provider unavailable", zap.Error(err))
			return nil, err
		}
		return batchjob.NewGeminiBatchProvider(client, cfg.Models.BatchImage, cfg.Image.AspectRatio, logger), nil
	})
	a.Batch = service.NewBatchService(
		service.NewStager(pipeline, text, staging, cfg, logger),
		service.NewBatchSubmitter(staging, jobs, provider, cfg, logger),
		service.NewBatchRetriever(staging, jobs, provider, pipeline, store, catalog, cfg, logger),
		logger,
	)
	return a, nil
}

func (a *App) newCache(ctx context.Context, cfg *config.Config) domain.Cache {
	if cfg.Redis.Address != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err == nil {
			a.redis = client
			a.logger.Info("Successfully connected to Redis", zap.String("address", cfg.Redis.Address))
			return adapter.NewRedisCacheAdapter(client, cfg.Cache.MnemonicTTL)
		}
		a.logger.Warn("Redis unavailable, using in-process cache", zap.Error(err))
	}
	return adapter.NewLRUCacheAdapter(cfg.Cache.LRUSize, cfg.Cache.MnemonicTTL)
}

func (a *App) newCatalog(cfg *config.Config) domain.GenerationCatalog {
	if !cfg.CatalogEnabled() {
		return nil
	}
	db, err := database.NewSQLXOracleDB(cfg.GetDSN(), a.logger)
	if err != nil {
		a.logger.Warn("Generation catalog unavailable, listing from storage", zap.Error(err))
		return nil
	}
	a.db = db
	return repository.NewGenerationCatalogAdapter(db)
}

// Close releases the optional Redis and database connections.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close Redis client", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("Failed to close database", zap.Error(err))
		}
	}
}
