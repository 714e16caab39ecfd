package imagegen

import (
	"context"
	"fmt"

	"medmonics/internal/domain"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiImageGenerator implements domain.ImageGenerator with a Gemini image model.
type GeminiImageGenerator struct {
	models      contentGenerator
	model       string
	aspectRatio string
	logger      *zap.Logger
}

// NewGeminiClient creates a genai client for the Gemini API.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return client, nil
}

func NewGeminiImageGenerator(client *genai.Client, model, aspectRatio string, logger *zap.Logger) domain.ImageGenerator {
	return newGeminiImageGenerator(client.Models, model, aspectRatio, logger)
}

func newGeminiImageGenerator(models contentGenerator, model, aspectRatio string, logger *zap.Logger) *GeminiImageGenerator {
	return &GeminiImageGenerator{models: models, model: model, aspectRatio: aspectRatio, logger: logger}
}

// ImageRequestConfig is the generation config shared by interactive and batch image requests.
func ImageRequestConfig(aspectRatio string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{ResponseModalities: []string{"TEXT", "IMAGE"}}
	if aspectRatio != "" {
		cfg.ImageConfig = &genai.ImageConfig{AspectRatio: aspectRatio}
	}
	return cfg
}

func (g *GeminiImageGenerator) GenerateImage(ctx context.Context, prompt string) ([]byte, string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := g.models.GenerateContent(ctx, g.model, contents, ImageRequestConfig(g.aspectRatio))
	if err != nil {
		return nil, "", fmt.Errorf("gemini image request failed: %w", err)
	}
	data, mime, ok := FirstImage(resp)
	if !ok {
		g.logger.Warn("Gemini returned no image part", zap.String("model", g.model))
		return nil, "", fmt.Errorf("no image data returned")
	}
	return data, mime, nil
}

// FirstImage returns the first inline image of the first candidate.
func FirstImage(resp *genai.GenerateContentResponse) ([]byte, string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, "", false
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return nil, "", false
	}
	for _, part := range cand.Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			mime := part.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			return part.InlineData.Data, mime, true
		}
	}
	return nil, "", false
}
