package service

import (
	"context"
	"encoding/json"
	"strings"

	"medmonics/internal/config"
	"medmonics/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockTextGenerator ---
type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) GenerateText(ctx context.Context, req domain.TextRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// --- MockImageGenerator ---
type MockImageGenerator struct {
	mock.Mock
}

func (m *MockImageGenerator) GenerateImage(ctx context.Context, prompt string) ([]byte, string, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

// --- MockBatchProvider ---
type MockBatchProvider struct {
	mock.Mock
}

func (m *MockBatchProvider) SubmitImageBatch(ctx context.Context, displayName string, reqs []domain.BatchImageRequest) (string, error) {
	args := m.Called(ctx, displayName, reqs)
	return args.String(0), args.Error(1)
}

func (m *MockBatchProvider) GetJob(ctx context.Context, name string) (*domain.BatchJobSnapshot, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchJobSnapshot), args.Error(1)
}

func (m *MockBatchProvider) FetchImageResults(ctx context.Context, name string, tags []string) ([]domain.BatchImageResult, error) {
	args := m.Called(ctx, name, tags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BatchImageResult), args.Error(1)
}

// --- MockBoxAnalyzer ---
type MockBoxAnalyzer struct {
	mock.Mock
}

func (m *MockBoxAnalyzer) AnalyzeBoxes(ctx context.Context, record *domain.MnemonicRecord, image domain.ImageArtifact) domain.BboxSet {
	args := m.Called(ctx, record, image)
	return args.Get(0).(domain.BboxSet)
}

// --- MockBundleStore ---
type MockBundleStore struct {
	mock.Mock
}

func (m *MockBundleStore) Save(ctx context.Context, gen *domain.Generation) (domain.GenerationSummary, error) {
	args := m.Called(ctx, gen)
	return args.Get(0).(domain.GenerationSummary), args.Error(1)
}

func (m *MockBundleStore) List(ctx context.Context, specialty string) ([]domain.GenerationSummary, error) {
	args := m.Called(ctx, specialty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GenerationSummary), args.Error(1)
}

func (m *MockBundleStore) Load(ctx context.Context, id string) (*domain.Generation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Generation), args.Error(1)
}

func (m *MockBundleStore) LoadImage(ctx context.Context, id string) ([]byte, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// --- MockGenerationCatalog ---
type MockGenerationCatalog struct {
	mock.Mock
}

func (m *MockGenerationCatalog) Record(ctx context.Context, summary domain.GenerationSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *MockGenerationCatalog) List(ctx context.Context, specialty string, limit int) ([]domain.GenerationSummary, error) {
	args := m.Called(ctx, specialty, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GenerationSummary), args.Error(1)
}

// --- MockStagingStore ---
type MockStagingStore struct {
	mock.Mock
}

func (m *MockStagingStore) Read(ctx context.Context) ([]json.RawMessage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]json.RawMessage), args.Error(1)
}

func (m *MockStagingStore) Write(ctx context.Context, records []domain.StagedRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

// Prompt markers that identify the pipeline stage of a TextRequest.
const (
	markMnemonic  = "Create a memorable mnemonic story"
	markEnhance   = "Create a highly detailed visual description"
	markBbox      = "Identify the 2D bounding box"
	markQuiz      = "Generate a challenging multiple-choice quiz"
	markBreakdown = "Break this medical topic down"
)

func stageReq(marker string) interface{} {
	return mock.MatchedBy(func(req domain.TextRequest) bool {
		return strings.Contains(strings.Join(req.Parts, "\n"), marker)
	})
}

func testConfig() *config.Config {
	return &config.Config{
		Models: config.ModelsConfig{
			Text:         "text-model",
			VisualPrompt: "visual-model",
			Image:        "image-model",
			BatchImage:   "batch-image-model",
		},
		Batch: config.BatchConfig{Concurrency: 2, DisplayPrefix: "medmonics_images"},
		Pipeline: config.PipelineConfig{
			DefaultLanguage: "en",
			DefaultTheme:    "Standard Mnemonic",
			DefaultStyle:    "cartoon",
			FallbackTheme:   "Minimalist abstract medical vector art, blue and white, clean lines",
			Specialty:       "General",
		},
	}
}

const statinMnemonic = `{
	"topic": "Statins",
	"facts": ["Inhibit HMG-CoA reductase"],
	"story": "Stan the statue guards the liver while a ghost steals cholesterol.",
	"associations": [
		{"character": "Stan", "medicalTerm": "Statin", "explanation": "sounds alike"},
		{"character": "Ghost", "medicalTerm": "Cholesterol", "explanation": "disappears"}
	],
	"visualPrompt": "A stone statue named Stan next to a ghost"
}`
