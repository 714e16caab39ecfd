package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"medmonics/internal/config"
	"medmonics/internal/domain"
	"medmonics/internal/prompt"
	"medmonics/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxInputContent = 1000

// Stager breaks a topic into subtopics and prepares staged records for batch submission.
type Stager struct {
	pipeline    *Pipeline
	text        domain.TextGenerator
	staging     domain.StagingStore
	model       string
	concurrency int
	logger      *zap.Logger
}

func NewStager(pipeline *Pipeline, text domain.TextGenerator, staging domain.StagingStore, cfg *config.Config, logger *zap.Logger) *Stager {
	concurrency := cfg.Batch.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Stager{
		pipeline:    pipeline,
		text:        text,
		staging:     staging,
		model:       cfg.Models.Text,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Breakdown asks the text model for a markdown breakdown of topic, or of doc when it is
// non-nil.
func (s *Stager) Breakdown(ctx context.Context, topic string, doc *domain.Attachment, language string) (string, error) {
	req := domain.TextRequest{Model: s.model}
	switch {
	case doc != nil:
		req.Parts = []string{prompt.ContentBreakdown(language)}
		req.Attachment = doc
	case strings.TrimSpace(topic) != "":
		req.Parts = []string{prompt.TopicBreakdown(strings.TrimSpace(topic), language)}
	default:
		return "", domain.NewInvalidInputError("a topic or a document is required")
	}
	md, err := s.text.GenerateText(ctx, req)
	if err != nil {
		return "", domain.NewGenerationError("topic breakdown", err)
	}
	return md, nil
}

// ParseBreakdown turns a markdown breakdown into batch inputs. Each "## " header starts an
// item; "# " titles are skipped; text before the first header belongs to "Introduction".
func ParseBreakdown(markdown string) []domain.BatchInput {
	markdown = strings.ReplaceAll(markdown, "```markdown", "")
	markdown = strings.ReplaceAll(markdown, "```", "")

	var items []domain.BatchInput
	title := "Introduction"
	var content []string
	flush := func() {
		if len(content) > 0 {
			items = append(items, domain.BatchInput{Title: title, Content: truncate(strings.Join(content, " "), maxInputContent)})
		}
		content = nil
	}

	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "# "):
		case strings.HasPrefix(line, "## "):
			flush()
			title = strings.Trim(strings.TrimSpace(line[3:]), "[]")
		case line != "":
			content = append(content, line)
		}
	}
	flush()
	return items
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Stage runs steps 1, 2 and 5 for every input and writes the staged records. Inputs whose
// text stages fail are skipped; it is an error when none succeed.
func (s *Stager) Stage(ctx context.Context, inputs []domain.BatchInput, opts domain.StageOptions) ([]domain.StagedRecord, error) {
	if len(inputs) == 0 {
		return nil, domain.NewInvalidInputError("no inputs to stage")
	}
	base := s.pipeline.WithDefaults(domain.MnemonicInput{
		Language:    opts.Language,
		Theme:       opts.Theme,
		VisualStyle: opts.VisualStyle,
	})

	staged := make([]*domain.StagedRecord, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			rec, err := s.stageOne(gctx, input, base, opts.Specialty)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.logger.Warn("Skipping input", zap.String("title", input.Title), zap.Error(err))
				return nil
			}
			staged[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]domain.StagedRecord, 0, len(inputs))
	for _, rec := range staged {
		if rec != nil {
			records = append(records, *rec)
		}
	}
	if len(records) == 0 {
		return nil, domain.NewError(domain.CodeGeneration, "no input could be staged", nil).WithContext("inputs", len(inputs))
	}
	if err := s.staging.Write(ctx, records); err != nil {
		return nil, err
	}
	s.logger.Info("Staging written", zap.Int("records", len(records)), zap.Int("inputs", len(inputs)))
	return records, nil
}

func (s *Stager) stageOne(ctx context.Context, input domain.BatchInput, base domain.MnemonicInput, specialty string) (*domain.StagedRecord, error) {
	in := base
	in.Topic = strings.TrimSpace(input.Content)
	if input.Title != "" {
		in.Topic = input.Title + ": " + in.Topic
	}

	rec, err := s.pipeline.GenerateMnemonic(ctx, in)
	if err != nil {
		return nil, err
	}
	enhanced := s.pipeline.EnhanceVisualPrompt(ctx, rec, in.Theme)
	quizzes, err := s.pipeline.GenerateQuiz(ctx, enhanced, enhanced.Characters(), in.Language)
	if err != nil {
		return nil, err
	}

	return &domain.StagedRecord{
		ID:           strings.ToLower(util.NewULID()),
		Title:        input.Title,
		Topic:        enhanced.Topic,
		Facts:        enhanced.Facts,
		Story:        enhanced.Story,
		Associations: enhanced.Associations,
		VisualPrompt: enhanced.VisualPrompt,
		Quizzes:      quizzes,
		Theme:        in.Theme,
		VisualStyle:  in.VisualStyle,
		Language:     in.Language,
		Specialty:    specialty,
	}, nil
}
