package imagegen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeModels struct {
	resp   *genai.GenerateContentResponse
	err    error
	model  string
	config *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, _ []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	return f.resp, f.err
}

func imageResponse(data []byte, mime string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "Here is your image"},
				{InlineData: &genai.Blob{Data: data, MIMEType: mime}},
			}},
		}},
	}
}

func TestGeminiImageGenerator(t *testing.T) {
	fake := &fakeModels{resp: imageResponse([]byte("png-bytes"), "image/png")}
	gen := newGeminiImageGenerator(fake, "gemini-3-pro-image-preview", "4:3", zap.NewNop())

	data, mime, err := gen.GenerateImage(context.Background(), "a macaroni slide")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, "gemini-3-pro-image-preview", fake.model)
	assert.Equal(t, []string{"TEXT", "IMAGE"}, fake.config.ResponseModalities)
	assert.Equal(t, "4:3", fake.config.ImageConfig.AspectRatio)
}

func TestGeminiImageGenerator_NoImage(t *testing.T) {
	fake := &fakeModels{resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{{Text: "I cannot draw that"}}},
	}}}}
	gen := newGeminiImageGenerator(fake, "m", "", zap.NewNop())

	_, _, err := gen.GenerateImage(context.Background(), "p")
	assert.ErrorContains(t, err, "no image data")
	assert.Nil(t, fake.config.ImageConfig)

	fake.err = errors.New("safety block")
	_, _, err = gen.GenerateImage(context.Background(), "p")
	assert.ErrorContains(t, err, "safety block")
}

func TestFirstImage_DefaultsMIME(t *testing.T) {
	data, mime, ok := FirstImage(imageResponse([]byte{1}, ""))
	require.True(t, ok)
	assert.Equal(t, []byte{1}, data)
	assert.Equal(t, "image/png", mime)

	_, _, ok = FirstImage(nil)
	assert.False(t, ok)
}

func newOpenAITestClient(t *testing.T, handler http.HandlerFunc) *openai.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	return openai.NewClientWithConfig(cfg)
}

func TestOpenAIImageGenerator(t *testing.T) {
	var got openai.ImageRequest
	client := newOpenAITestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"created": 1,
			"data":    []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString([]byte("img"))}},
		})
	})

	gen := NewOpenAIImageGenerator(client, "dall-e-3", "", zap.NewNop())
	data, mime, err := gen.GenerateImage(context.Background(), "a statin superhero")
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), data)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, "a statin superhero", got.Prompt)
	assert.Equal(t, openai.CreateImageResponseFormatB64JSON, got.ResponseFormat)
	assert.Equal(t, openai.CreateImageSize1024x1024, got.Size)
}

func TestOpenAIImageGenerator_EmptyData(t *testing.T) {
	client := newOpenAITestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created": 1, "data": []}`))
	})

	gen := NewOpenAIImageGenerator(client, "dall-e-3", "512x512", zap.NewNop())
	_, _, err := gen.GenerateImage(context.Background(), "p")
	assert.ErrorContains(t, err, "no image data")
}
