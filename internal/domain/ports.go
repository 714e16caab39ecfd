package domain

import (
	"context"
	"encoding/json"
)

// Attachment is binary content sent alongside a text prompt (an image or a document).
type Attachment struct {
	MIMEType string
	Data     []byte
}

// TextRequest is one text-generation round trip.
type TextRequest struct {
	Model      string
	Parts      []string
	Attachment *Attachment
	// JSON asks the provider for a JSON-only response.
	JSON bool
}

// TextGenerator produces text (or JSON text) from prompt parts.
type TextGenerator interface {
	GenerateText(ctx context.Context, req TextRequest) (string, error)
}

// ImageGenerator turns a prompt into image bytes.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (data []byte, mimeType string, err error)
}

// BatchProvider submits and inspects provider-side batch jobs of inline image requests.
type BatchProvider interface {
	SubmitImageBatch(ctx context.Context, displayName string, reqs []BatchImageRequest) (string, error)
	GetJob(ctx context.Context, name string) (*BatchJobSnapshot, error)
	// FetchImageResults downloads the inline results of a succeeded job. tags are the tags
	// of the submitted requests in submission order.
	FetchImageResults(ctx context.Context, name string, tags []string) ([]BatchImageResult, error)
}

// BundleStore persists finished generations.
type BundleStore interface {
	Save(ctx context.Context, gen *Generation) (GenerationSummary, error)
	List(ctx context.Context, specialty string) ([]GenerationSummary, error)
	Load(ctx context.Context, id string) (*Generation, error)
	LoadImage(ctx context.Context, id string) ([]byte, error)
}

// GenerationCatalog indexes saved generations in a database.
type GenerationCatalog interface {
	Record(ctx context.Context, summary GenerationSummary) error
	List(ctx context.Context, specialty string, limit int) ([]GenerationSummary, error)
}

// StagingStore reads and writes the staging record set. Read returns the raw records so
// that they can be normalized before validation.
type StagingStore interface {
	Read(ctx context.Context) ([]json.RawMessage, error)
	Write(ctx context.Context, records []StagedRecord) error
}

// JobStore persists the handle of the most recently submitted batch job.
type JobStore interface {
	Load(ctx context.Context) (*BatchJobHandle, error)
	Save(ctx context.Context, handle *BatchJobHandle) error
}
