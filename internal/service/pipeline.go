package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"medmonics/internal/cache"
	"medmonics/internal/config"
	"medmonics/internal/domain"
	"medmonics/internal/normalize"
	"medmonics/internal/prompt"
	"medmonics/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	stageMnemonic = "mnemonic generation"
	stageImage    = "image generation"
	stageQuiz     = "quiz generation"
)

// Pipeline runs the five generation stages. Each stage method depends only on its
// arguments and the injected providers.
type Pipeline struct {
	text     domain.TextGenerator
	images   domain.ImageGenerator
	cache    domain.Cache
	group    singleflight.Group
	models   config.ModelsConfig
	defaults config.PipelineConfig
	cacheTTL time.Duration

	// callTimeout bounds a shared stage 1 call once it is detached from its callers.
	callTimeout time.Duration
	logger      *zap.Logger
}

var _ domain.BoxAnalyzer = (*Pipeline)(nil)

// NewPipeline creates a Pipeline. cache may be nil to disable step 1 caching.
func NewPipeline(text domain.TextGenerator, images domain.ImageGenerator, mnemonicCache domain.Cache, cfg *config.Config, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		text:        text,
		images:      images,
		cache:       mnemonicCache,
		models:      cfg.Models,
		defaults:    cfg.Pipeline,
		cacheTTL:    cfg.Cache.MnemonicTTL,
		callTimeout: cfg.LLM.Timeout,
		logger:      logger,
	}
}

// WithDefaults fills empty input fields from the configured defaults.
func (p *Pipeline) WithDefaults(in domain.MnemonicInput) domain.MnemonicInput {
	if in.Language == "" {
		in.Language = p.defaults.DefaultLanguage
	}
	if in.Theme == "" {
		in.Theme = p.defaults.DefaultTheme
	}
	if in.VisualStyle == "" {
		in.VisualStyle = p.defaults.DefaultStyle
	}
	in.Topic = strings.TrimSpace(in.Topic)
	return in
}

// Run executes all stages in order.
func (p *Pipeline) Run(ctx context.Context, in domain.MnemonicInput) (*domain.Generation, error) {
	in = p.WithDefaults(in)
	started := time.Now()

	record, err := p.GenerateMnemonic(ctx, in)
	if err != nil {
		return nil, err
	}
	if record.ID == "" {
		record.ID = util.NewULID()
	}

	enhanced := p.EnhanceVisualPrompt(ctx, record, in.Theme)

	image, err := p.GenerateImage(ctx, enhanced, in.Theme, in.VisualStyle)
	if err != nil {
		return nil, err
	}

	boxes := p.AnalyzeBoxes(ctx, enhanced, image)

	quizzes, err := p.GenerateQuiz(ctx, enhanced, boxes.Labels(), in.Language)
	if err != nil {
		return nil, err
	}

	p.logger.Info("Pipeline completed",
		zap.String("topic", enhanced.Topic),
		zap.Bool("fallback_image", image.Fallback),
		zap.Int("boxes", len(boxes.Boxes)),
		zap.Int("quizzes", len(quizzes)),
		zap.Duration("elapsed", time.Since(started)))

	return &domain.Generation{
		Record:  *enhanced,
		Image:   image,
		Boxes:   boxes,
		Quizzes: LinkQuizzes(quizzes, boxes),
	}, nil
}

// GenerateMnemonic is stage 1. Identical concurrent requests share one provider call and
// results are cached when a cache is configured.
func (p *Pipeline) GenerateMnemonic(ctx context.Context, in domain.MnemonicInput) (*domain.MnemonicRecord, error) {
	if in.Topic == "" {
		return nil, domain.NewInvalidInputError("topic is required")
	}
	key := mnemonicCacheKey(in, p.models.Text)

	if rec, ok := p.cachedMnemonic(ctx, key); ok {
		return rec, nil
	}

	ch := p.group.DoChan(key, func() (interface{}, error) {
		// Shared by every caller with this key; not tied to the one that started it.
		callCtx, cancel := p.detach(ctx)
		defer cancel()

		raw, err := p.text.GenerateText(callCtx, domain.TextRequest{
			Model: p.models.Text,
			Parts: []string{prompt.Mnemonic(in.Language, in.Theme, in.VisualStyle), in.Topic, prompt.Facts(in.Facts)},
			JSON:  true,
		})
		if err != nil {
			return nil, domain.NewGenerationError(stageMnemonic, err)
		}
		rec, err := normalize.DecodeMnemonic([]byte(raw))
		if err != nil {
			p.logger.Warn("Malformed mnemonic response", zap.String("topic", in.Topic), zap.Error(err))
			return nil, domain.NewGenerationError(stageMnemonic, err)
		}
		if len(rec.Associations) == 0 {
			return nil, domain.NewGenerationError(stageMnemonic,
				domain.NewSchemaError("associations", "at least one association is required"))
		}
		p.storeMnemonic(callCtx, key, rec)
		return rec, nil
	})

	select {
	case <-ctx.Done():
		return nil, domain.NewGenerationError(stageMnemonic, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			p.logger.Debug("Mnemonic request shared with a concurrent caller", zap.String("key", key))
		}
		return cloneRecord(res.Val.(*domain.MnemonicRecord)), nil
	}
}

// detach returns a context that keeps ctx's values but not its cancellation, bounded by
// the configured LLM timeout.
func (p *Pipeline) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if p.callTimeout <= 0 {
		return context.WithCancel(base)
	}
	return context.WithTimeout(base, p.callTimeout)
}

func (p *Pipeline) cachedMnemonic(ctx context.Context, key string) (*domain.MnemonicRecord, bool) {
	if p.cache == nil {
		return nil, false
	}
	val, err := p.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			p.logger.Warn("Mnemonic cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var rec domain.MnemonicRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		p.logger.Warn("Discarding corrupt cache entry", zap.String("key", key), zap.Error(err))
		_ = p.cache.Delete(ctx, key)
		return nil, false
	}
	p.logger.Debug("Mnemonic cache hit", zap.String("key", key))
	return &rec, true
}

func (p *Pipeline) storeMnemonic(ctx context.Context, key string, rec *domain.MnemonicRecord) {
	if p.cache == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, key, string(data), p.cacheTTL); err != nil {
		p.logger.Warn("Mnemonic cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func mnemonicCacheKey(in domain.MnemonicInput, model string) string {
	id := util.ContentTag("m", strings.ToLower(in.Topic), strings.Join(in.Facts, "\n"), in.Theme, in.VisualStyle)
	return cache.GenerateCacheKey("pipeline", "mnemonic", id, in.Language, model)
}

// EnhanceVisualPrompt is stage 2. It returns a copy of record with the enriched visual
// prompt; on any failure the copy keeps the original prompt.
func (p *Pipeline) EnhanceVisualPrompt(ctx context.Context, record *domain.MnemonicRecord, theme string) *domain.MnemonicRecord {
	out := cloneRecord(record)
	text, err := p.text.GenerateText(ctx, domain.TextRequest{
		Model: p.models.VisualPrompt,
		Parts: []string{prompt.EnhanceVisual(record, theme)},
	})
	if err != nil || strings.TrimSpace(text) == "" {
		p.logger.Warn("Visual prompt enhancement failed, keeping original prompt",
			zap.String("topic", record.Topic), zap.Error(err))
		return out
	}
	out.VisualPrompt = strings.TrimSpace(text)
	return out
}

// GenerateImage is stage 3: the primary prompt, then once with the fallback theme.
func (p *Pipeline) GenerateImage(ctx context.Context, record *domain.MnemonicRecord, theme, style string) (domain.ImageArtifact, error) {
	attempts := prompt.ImagePolicy(record.VisualPrompt, theme, p.defaults.FallbackTheme, style)

	data, mime, err := p.images.GenerateImage(ctx, attempts.Primary)
	if err == nil {
		return domain.ImageArtifact{RecordID: record.ID, Data: data, MIMEType: mime, Prompt: attempts.Primary}, nil
	}
	p.logger.Warn("Image generation failed, retrying with fallback prompt",
		zap.String("topic", record.Topic), zap.Error(err))

	data, mime, fallbackErr := p.images.GenerateImage(ctx, attempts.Fallback)
	if fallbackErr != nil {
		return domain.ImageArtifact{}, domain.NewGenerationError(stageImage,
			errors.Join(err, fallbackErr)).WithContext("attempts", 2)
	}
	return domain.ImageArtifact{RecordID: record.ID, Data: data, MIMEType: mime, Prompt: attempts.Fallback, Fallback: true}, nil
}

// AnalyzeBoxes is stage 4.
func (p *Pipeline) AnalyzeBoxes(ctx context.Context, record *domain.MnemonicRecord, image domain.ImageArtifact) domain.BboxSet {
	empty := domain.BboxSet{Boxes: []domain.CharBox{}}
	if len(image.Data) == 0 || len(record.Associations) == 0 {
		return empty
	}
	mime := image.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	raw, err := p.text.GenerateText(ctx, domain.TextRequest{
		Model:      p.models.Text,
		Parts:      []string{prompt.Bbox(record.Associations)},
		Attachment: &domain.Attachment{MIMEType: mime, Data: image.Data},
		JSON:       true,
	})
	if err != nil {
		p.logger.Warn("Bounding-box analysis failed, using empty set", zap.String("topic", record.Topic), zap.Error(err))
		return empty
	}
	boxes, err := normalize.DecodeBoxes([]byte(raw))
	if err != nil {
		p.logger.Warn("Malformed bounding-box response, using empty set", zap.String("topic", record.Topic), zap.Error(err))
		return empty
	}
	return boxes
}

// GenerateQuiz is stage 5. characters are the labels the questions may reference; callers
// link the result against the final BboxSet with LinkQuizzes.
func (p *Pipeline) GenerateQuiz(ctx context.Context, record *domain.MnemonicRecord, characters []string, language string) ([]domain.QuizItem, error) {
	raw, err := p.text.GenerateText(ctx, domain.TextRequest{
		Model: p.models.Text,
		Parts: []string{prompt.QuizContext(record, characters), prompt.Quiz(language)},
		JSON:  true,
	})
	if err != nil {
		return nil, domain.NewGenerationError(stageQuiz, err)
	}
	items, err := normalize.DecodeQuizzes([]byte(raw))
	if err != nil {
		return nil, domain.NewGenerationError(stageQuiz, err)
	}
	return items, nil
}

func cloneRecord(r *domain.MnemonicRecord) *domain.MnemonicRecord {
	out := *r
	out.Facts = append([]string(nil), r.Facts...)
	out.Associations = append([]domain.Association(nil), r.Associations...)
	return &out
}
