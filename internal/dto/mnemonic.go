package dto

import (
	"time"

	"medmonics/internal/domain"
)

// CreateMnemonicRequest is the body of POST /api/mnemonics.
type CreateMnemonicRequest struct {
	Topic       string   `json:"topic"`
	Facts       []string `json:"facts,omitempty"`
	Language    string   `json:"language,omitempty"`
	Theme       string   `json:"theme,omitempty"`
	VisualStyle string   `json:"visual_style,omitempty"`
	Specialty   string   `json:"specialty,omitempty"`
	// Save defaults to true.
	Save *bool `json:"save,omitempty"`
}

// ShouldSave reports whether the generation is persisted.
func (r *CreateMnemonicRequest) ShouldSave() bool {
	return r.Save == nil || *r.Save
}

// Input converts the request into pipeline input.
func (r *CreateMnemonicRequest) Input() domain.MnemonicInput {
	return domain.MnemonicInput{
		Topic:       r.Topic,
		Facts:       r.Facts,
		Language:    r.Language,
		Theme:       r.Theme,
		VisualStyle: r.VisualStyle,
	}
}

// ImageResponse describes the generated image. Data is only set for unsaved generations;
// saved ones are served from URL.
type ImageResponse struct {
	URL      string `json:"url,omitempty"`
	Data     []byte `json:"data,omitempty"`
	MIMEType string `json:"mime_type"`
	Prompt   string `json:"prompt"`
	Fallback bool   `json:"fallback"`
}

// GenerationResponse is a complete generation bundle.
type GenerationResponse struct {
	ID       string                    `json:"id,omitempty"`
	Mnemonic domain.MnemonicRecord     `json:"mnemonic_data"`
	Boxes    domain.BboxSet            `json:"bbox_data"`
	Quizzes  []domain.QuizItem         `json:"quizzes"`
	Image    ImageResponse             `json:"image"`
	Metadata domain.GenerationMetadata `json:"metadata"`
}

// NewGenerationResponse builds the response for gen. id is empty for unsaved generations.
func NewGenerationResponse(id string, gen *domain.Generation) GenerationResponse {
	img := ImageResponse{MIMEType: gen.Image.MIMEType, Prompt: gen.Image.Prompt, Fallback: gen.Image.Fallback}
	if id != "" {
		img.URL = "/api/generations/" + id + "/image"
	} else {
		img.Data = gen.Image.Data
	}
	quizzes := gen.Quizzes
	if quizzes == nil {
		quizzes = []domain.QuizItem{}
	}
	return GenerationResponse{
		ID:       id,
		Mnemonic: gen.Record,
		Boxes:    gen.Boxes,
		Quizzes:  quizzes,
		Image:    img,
		Metadata: gen.Metadata,
	}
}

// GenerationListResponse lists saved generations.
type GenerationListResponse struct {
	Items []domain.GenerationSummary `json:"items"`
	Total int                        `json:"total"`
}

// BatchJobResponse is the submitted job handle.
type BatchJobResponse struct {
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	RecordCount int       `json:"record_count"`
}

// RetrieveRequest is the body of POST /api/batch/retrieve.
type RetrieveRequest struct {
	JobName    string `json:"job_name,omitempty"`
	StatusOnly bool   `json:"status_only,omitempty"`
}

// StageRequest is the body of POST /api/batch/stage. Inputs may be given directly, or
// derived from a topic breakdown.
type StageRequest struct {
	Topic       string              `json:"topic,omitempty"`
	Inputs      []domain.BatchInput `json:"inputs,omitempty"`
	Language    string              `json:"language,omitempty"`
	Theme       string              `json:"theme,omitempty"`
	VisualStyle string              `json:"visual_style,omitempty"`
	Specialty   string              `json:"specialty,omitempty"`
}

// StageResponse summarizes a staging run.
type StageResponse struct {
	Staged int      `json:"staged"`
	IDs    []string `json:"ids"`
}

// ErrorResponse represents an error in the API response
type ErrorResponse struct {
	Error string `json:"error"`
}
