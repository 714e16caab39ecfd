package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"

	"medmonics/internal/domain"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIImageGenerator implements domain.ImageGenerator with the OpenAI images API.
type OpenAIImageGenerator struct {
	client *openai.Client
	model  string
	size   string
	logger *zap.Logger
}

var _ domain.ImageGenerator = (*OpenAIImageGenerator)(nil)

func NewOpenAIImageGenerator(client *openai.Client, model, size string, logger *zap.Logger) *OpenAIImageGenerator {
	if size == "" {
		size = openai.CreateImageSize1024x1024
	}
	return &OpenAIImageGenerator{client: client, model: model, size: size, logger: logger}
}

func (g *OpenAIImageGenerator) GenerateImage(ctx context.Context, prompt string) ([]byte, string, error) {
	req := openai.ImageRequest{
		Prompt:         prompt,
		Size:           g.size,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		N:              1,
		Model:          g.model,
	}

	resp, err := g.client.CreateImage(ctx, req)
	if err != nil {
		return nil, "", err
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, "", fmt.Errorf("no image data returned")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image data: %w", err)
	}
	g.logger.Debug("OpenAI image generated", zap.String("model", g.model), zap.Int("bytes", len(data)))
	return data, "image/png", nil
}
