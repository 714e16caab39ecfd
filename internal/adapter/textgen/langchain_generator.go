package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medmonics/internal/config"
	"medmonics/internal/domain"
	"medmonics/internal/normalize"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// NewModel builds the langchaingo backend selected by cfg.LLM.Provider.
func NewModel(ctx context.Context, cfg *config.Config) (llms.Model, error) {
	switch cfg.LLM.Provider {
	case "", "googleai":
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("gemini api key is not configured")
		}
		return googleai.New(ctx,
			googleai.WithAPIKey(cfg.Gemini.APIKey),
			googleai.WithDefaultModel(cfg.Models.Text),
		)
	case "ollama":
		return ollama.New(
			ollama.WithServerURL(cfg.LLM.OllamaServerURL),
			ollama.WithModel(cfg.Models.Text),
		)
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai api key is not configured")
		}
		return openai.New(
			openai.WithToken(cfg.OpenAI.APIKey),
			openai.WithModel(cfg.Models.Text),
		)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

// LangchainGenerator implements domain.TextGenerator on top of a langchaingo model.
type LangchainGenerator struct {
	llm          llms.Model
	defaultModel string
	timeout      time.Duration
	logger       *zap.Logger
}

// NewLangchainGenerator wraps llm. Requests without a model use defaultModel.
func NewLangchainGenerator(llm llms.Model, defaultModel string, timeout time.Duration, logger *zap.Logger) domain.TextGenerator {
	return &LangchainGenerator{
		llm:          llm,
		defaultModel: defaultModel,
		timeout:      timeout,
		logger:       logger,
	}
}

func (g *LangchainGenerator) GenerateText(ctx context.Context, req domain.TextRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = g.defaultModel
	}

	parts := make([]llms.ContentPart, 0, len(req.Parts)+1)
	for _, p := range req.Parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		parts = append(parts, llms.TextPart(p))
	}
	if req.Attachment != nil {
		parts = append(parts, llms.BinaryPart(req.Attachment.MIMEType, req.Attachment.Data))
	}
	if len(parts) == 0 {
		return "", domain.NewInvalidInputError("text request has no content")
	}

	opts := []llms.CallOption{llms.WithModel(model)}
	if req.JSON {
		opts = append(opts, llms.WithJSONMode())
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	started := time.Now()
	resp, err := g.llm.GenerateContent(ctx, []llms.MessageContent{
		{Role: llms.ChatMessageTypeHuman, Parts: parts},
	}, opts...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			g.logger.Error("LLM request timed out", zap.String("model", model), zap.Duration("timeout", g.timeout))
			return "", fmt.Errorf("LLM request timed out: %w", err)
		}
		g.logger.Error("LLM call failed", zap.String("model", model), zap.Error(err))
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}

	text := stripThinking(resp.Choices[0].Content)
	g.logger.Debug("LLM response received",
		zap.String("model", model),
		zap.Bool("json", req.JSON),
		zap.Int("chars", len(text)),
		zap.Duration("elapsed", time.Since(started)))

	if req.JSON {
		return normalize.ExtractJSON(text), nil
	}
	return strings.TrimSpace(text), nil
}

// stripThinking removes a leading <think>...</think> block emitted by reasoning models.
func stripThinking(s string) string {
	s = strings.TrimSpace(s)
	if start := strings.Index(s, "<think>"); start != -1 {
		if end := strings.Index(s, "</think>"); end > start {
			s = strings.TrimSpace(s[:start] + s[end+len("</think>"):])
		}
	}
	return s
}
