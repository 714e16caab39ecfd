package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"medmonics/internal/adapter"
	"medmonics/internal/domain"
	"medmonics/internal/prompt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPipeline(text *MockTextGenerator, images *MockImageGenerator, c domain.Cache) *Pipeline {
	return NewPipeline(text, images, c, testConfig(), zap.NewNop())
}

func TestPipeline_Run_Success(t *testing.T) {
	text := new(MockTextGenerator)
	images := new(MockImageGenerator)
	p := newTestPipeline(text, images, nil)
	ctx := context.Background()

	text.On("GenerateText", mock.Anything, stageReq(markMnemonic)).Return(statinMnemonic, nil).Once()
	text.On("GenerateText", ctx, stageReq(markEnhance)).Return("  Stan the statue, Standard Mnemonic theme  ", nil).Once()
	images.On("GenerateImage", ctx, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Subject: Stan the statue, Standard Mnemonic theme.")
	})).Return([]byte("png-bytes"), "image/png", nil).Once()
	text.On("GenerateText", ctx, mock.MatchedBy(func(req domain.TextRequest) bool {
		return req.Attachment != nil && string(req.Attachment.Data) == "png-bytes" && req.JSON
	})).Return(`{"boxes": [{"character": "STAN", "box_2d": [100, 100, 500, 400]}]}`, nil).Once()
	text.On("GenerateText", ctx, stageReq("Characters visible in the illustration: STAN")).Return(`{"quizzes": [
		{"character": "stan", "question": "What enzyme?", "options": ["HMG-CoA reductase", "COX-1", "ACE", "MAO"], "correctOptionIndex": 0, "explanation": "Statins inhibit it"},
		{"character": "Ghost", "question": "Lowered lipid?", "options": ["LDL", "HDL", "TG", "Lp(a)"], "correctOptionIndex": 0, "explanation": "LDL"}
	]}`, nil).Once()

	gen, err := p.Run(ctx, domain.MnemonicInput{Topic: "  Statins  "})
	require.NoError(t, err)

	assert.NotEmpty(t, gen.Record.ID)
	assert.Equal(t, "Statins", gen.Record.Topic)
	assert.Equal(t, "Stan the statue, Standard Mnemonic theme", gen.Record.VisualPrompt)
	assert.Equal(t, gen.Record.ID, gen.Image.RecordID)
	assert.False(t, gen.Image.Fallback)
	assert.Equal(t, []string{"STAN"}, gen.Boxes.Labels())

	require.Len(t, gen.Quizzes, 2)
	assert.Equal(t, "STAN", gen.Quizzes[0].Character)
	assert.Empty(t, gen.Quizzes[1].Character, "characters without a box are unlinked")

	text.AssertExpectations(t)
	images.AssertExpectations(t)
}

func TestPipeline_GenerateMnemonic(t *testing.T) {
	ctx := context.Background()

	t.Run("empty topic", func(t *testing.T) {
		p := newTestPipeline(new(MockTextGenerator), new(MockImageGenerator), nil)
		_, err := p.GenerateMnemonic(ctx, domain.MnemonicInput{})
		var de *domain.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, domain.CodeInvalidInput, de.Code)
	})

	t.Run("malformed response is a schema error", func(t *testing.T) {
		text := new(MockTextGenerator)
		p := newTestPipeline(text, new(MockImageGenerator), nil)
		text.On("GenerateText", mock.Anything, stageReq(markMnemonic)).Return(`{"topic": "Statins", "story": "Stan"}`, nil).Once()

		_, err := p.GenerateMnemonic(ctx, domain.MnemonicInput{Topic: "Statins"})
		assert.True(t, errors.Is(err, domain.ErrGeneration))
		assert.True(t, errors.Is(err, domain.ErrSchema))
		field, ok := domain.SchemaField(err)
		require.True(t, ok)
		assert.Equal(t, "associations", field)
	})

	t.Run("provider failure", func(t *testing.T) {
		text := new(MockTextGenerator)
		p := newTestPipeline(text, new(MockImageGenerator), nil)
		text.On("GenerateText", mock.Anything, stageReq(markMnemonic)).Return("", errors.New("quota exceeded")).Once()

		_, err := p.GenerateMnemonic(ctx, domain.MnemonicInput{Topic: "Statins"})
		assert.True(t, errors.Is(err, domain.ErrGeneration))
		assert.False(t, errors.Is(err, domain.ErrSchema))
	})

	t.Run("facts are sent as their own part", func(t *testing.T) {
		text := new(MockTextGenerator)
		p := newTestPipeline(text, new(MockImageGenerator), nil)
		text.On("GenerateText", mock.Anything, mock.MatchedBy(func(req domain.TextRequest) bool {
			return len(req.Parts) == 3 && req.Parts[1] == "Statins" &&
				strings.Contains(req.Parts[2], "- Inhibit HMG-CoA reductase") && req.Model == "text-model" && req.JSON
		})).Return(statinMnemonic, nil).Once()

		rec, err := p.GenerateMnemonic(ctx, domain.MnemonicInput{Topic: "Statins", Facts: []string{"Inhibit HMG-CoA reductase"}})
		require.NoError(t, err)
		assert.Len(t, rec.Associations, 2)
		text.AssertExpectations(t)
	})
}

func TestPipeline_GenerateMnemonic_Cached(t *testing.T) {
	ctx := context.Background()
	text := new(MockTextGenerator)
	p := newTestPipeline(text, new(MockImageGenerator), adapter.NewLRUCacheAdapter(8, time.Minute))
	text.On("GenerateText", mock.Anything, stageReq(markMnemonic)).Return(statinMnemonic, nil).Once()

	in := p.WithDefaults(domain.MnemonicInput{Topic: "Statins"})
	first, err := p.GenerateMnemonic(ctx, in)
	require.NoError(t, err)
	first.Story = "mutated by caller"

	second, err := p.GenerateMnemonic(ctx, in)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated by caller", second.Story)
	assert.Equal(t, "Statins", second.Topic)

	text.AssertNumberOfCalls(t, "GenerateText", 1)
}

func TestPipeline_GenerateMnemonic_SharedCallOutlivesCancelledCaller(t *testing.T) {
	text := new(MockTextGenerator)
	lru := adapter.NewLRUCacheAdapter(8, time.Minute)
	p := newTestPipeline(text, new(MockImageGenerator), lru)
	in := p.WithDefaults(domain.MnemonicInput{Topic: "Statins"})

	started := make(chan struct{})
	release := make(chan struct{})
	providerCtxErr := make(chan error, 1)
	text.On("GenerateText", mock.Anything, stageReq(markMnemonic)).
		Run(func(args mock.Arguments) {
			close(started)
			<-release
			providerCtxErr <- args.Get(0).(context.Context).Err()
		}).
		Return(statinMnemonic, nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := p.GenerateMnemonic(ctx, in)
		done <- err
	}()

	<-started
	cancel()
	err := <-done
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, errors.Is(err, domain.ErrGeneration))

	close(release)
	require.NoError(t, <-providerCtxErr, "the provider call is not cancelled with its first caller")

	key := mnemonicCacheKey(in, "text-model")
	require.Eventually(t, func() bool {
		_, err := lru.Get(context.Background(), key)
		return err == nil
	}, time.Second, 5*time.Millisecond)

	rec, err := p.GenerateMnemonic(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Statins", rec.Topic)
	text.AssertNumberOfCalls(t, "GenerateText", 1)
}

func TestPipeline_EnhanceVisualPrompt_FallsBackToOriginal(t *testing.T) {
	ctx := context.Background()
	text := new(MockTextGenerator)
	p := newTestPipeline(text, new(MockImageGenerator), nil)
	text.On("GenerateText", ctx, stageReq(markEnhance)).Return("", errors.New("timeout")).Once()

	rec := &domain.MnemonicRecord{Topic: "Statins", VisualPrompt: "original"}
	out := p.EnhanceVisualPrompt(ctx, rec, "Standard Mnemonic")

	assert.Equal(t, "original", out.VisualPrompt)
	assert.NotSame(t, rec, out)
}

func TestPipeline_GenerateImage(t *testing.T) {
	ctx := context.Background()
	rec := &domain.MnemonicRecord{ID: "rec-1", Topic: "Statins", VisualPrompt: "A statue named Stan"}
	cfg := testConfig()
	attempts := prompt.ImagePolicy(rec.VisualPrompt, "Dark fantasy", cfg.Pipeline.FallbackTheme, "cartoon")

	t.Run("primary succeeds", func(t *testing.T) {
		images := new(MockImageGenerator)
		p := newTestPipeline(new(MockTextGenerator), images, nil)
		images.On("GenerateImage", ctx, attempts.Primary).Return([]byte("primary"), "image/png", nil).Once()

		img, err := p.GenerateImage(ctx, rec, "Dark fantasy", "cartoon")
		require.NoError(t, err)
		assert.Equal(t, []byte("primary"), img.Data)
		assert.False(t, img.Fallback)
		assert.Equal(t, "rec-1", img.RecordID)
		images.AssertNotCalled(t, "GenerateImage", ctx, attempts.Fallback)
	})

	t.Run("fallback after primary failure", func(t *testing.T) {
		images := new(MockImageGenerator)
		p := newTestPipeline(new(MockTextGenerator), images, nil)
		images.On("GenerateImage", ctx, attempts.Primary).Return(nil, "", errors.New("safety filter")).Once()
		images.On("GenerateImage", ctx, attempts.Fallback).Return([]byte("fallback"), "image/png", nil).Once()

		img, err := p.GenerateImage(ctx, rec, "Dark fantasy", "cartoon")
		require.NoError(t, err)
		assert.True(t, img.Fallback)
		assert.Equal(t, []byte("fallback"), img.Data)
		assert.Contains(t, img.Prompt, "Minimalist abstract medical vector art")
		assert.Contains(t, img.Prompt, "A statue named Stan")
		images.AssertExpectations(t)
	})

	t.Run("both attempts fail", func(t *testing.T) {
		images := new(MockImageGenerator)
		p := newTestPipeline(new(MockTextGenerator), images, nil)
		images.On("GenerateImage", ctx, mock.Anything).Return(nil, "", errors.New("unavailable")).Twice()

		_, err := p.GenerateImage(ctx, rec, "Dark fantasy", "cartoon")
		assert.True(t, errors.Is(err, domain.ErrGeneration))
		images.AssertNumberOfCalls(t, "GenerateImage", 2)
	})
}

func TestPipeline_AnalyzeBoxes_EmptyOnFailure(t *testing.T) {
	ctx := context.Background()
	rec := &domain.MnemonicRecord{Topic: "Statins", Associations: []domain.Association{{Character: "Stan", MedicalTerm: "Statin"}}}
	img := domain.ImageArtifact{Data: []byte("png"), MIMEType: "image/png"}

	tests := []struct {
		name string
		resp string
		err  error
	}{
		{name: "provider error", err: errors.New("boom")},
		{name: "malformed response", resp: `{"boxes": [{"character": "Stan", "box_2d": [1, 2, 3]}]}`},
		{name: "not json", resp: `I could not find anyone`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := new(MockTextGenerator)
			p := newTestPipeline(text, new(MockImageGenerator), nil)
			text.On("GenerateText", ctx, stageReq(markBbox)).Return(tt.resp, tt.err).Once()

			set := p.AnalyzeBoxes(ctx, rec, img)
			assert.NotNil(t, set.Boxes)
			assert.Empty(t, set.Boxes)
		})
	}

	t.Run("no image skips the call", func(t *testing.T) {
		text := new(MockTextGenerator)
		p := newTestPipeline(text, new(MockImageGenerator), nil)
		set := p.AnalyzeBoxes(ctx, rec, domain.ImageArtifact{})
		assert.Empty(t, set.Boxes)
		text.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything)
	})
}

func TestPipeline_GenerateQuiz(t *testing.T) {
	ctx := context.Background()
	rec := &domain.MnemonicRecord{Topic: "Statins", Associations: []domain.Association{{Character: "Stan", MedicalTerm: "Statin"}}}

	text := new(MockTextGenerator)
	p := newTestPipeline(text, new(MockImageGenerator), nil)
	text.On("GenerateText", ctx, stageReq(markQuiz)).
		Return(`[{"character": "Stan", "question": "Q?", "options": ["a", "b"], "correctOptionIndex": 3}]`, nil).Once()

	_, err := p.GenerateQuiz(ctx, rec, []string{"Stan"}, "en")
	assert.True(t, errors.Is(err, domain.ErrGeneration))
	assert.True(t, errors.Is(err, domain.ErrSchema))
}
