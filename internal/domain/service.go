package domain

import "context"

// MnemonicService runs the interactive pipeline and serves saved generations.
type MnemonicService interface {
	// Create runs all five pipeline stages. The result is saved unless save is false.
	Create(ctx context.Context, in MnemonicInput, specialty string, save bool) (*Generation, *GenerationSummary, error)

	// List returns saved generations, newest first.
	List(ctx context.Context, specialty string) ([]GenerationSummary, error)

	// Load returns one saved generation.
	Load(ctx context.Context, id string) (*Generation, error)

	// LoadImage returns the image bytes of one saved generation.
	LoadImage(ctx context.Context, id string) ([]byte, error)
}

// BatchService drives the staging, submission and retrieval of batch image jobs.
type BatchService interface {
	// Breakdown splits a topic, or an attached document, into staging inputs.
	Breakdown(ctx context.Context, topic string, doc *Attachment, language string) ([]BatchInput, error)

	// Stage runs the text stages for each input and writes the staging file.
	Stage(ctx context.Context, inputs []BatchInput, opts StageOptions) ([]StagedRecord, error)

	// Submit sends every staged record as one batch job and persists its handle.
	Submit(ctx context.Context) (*BatchJobHandle, error)

	// Status polls a job without downloading results.
	Status(ctx context.Context, jobName string) (*BatchJobSnapshot, error)

	// Retrieve polls a job and, once it has succeeded, finalizes its results.
	Retrieve(ctx context.Context, opts RetrieveOptions) (*RetrieveReport, error)
}

// BoxAnalyzer locates the record's characters in an image (pipeline stage 4). It never
// fails; an analysis error yields an empty set.
type BoxAnalyzer interface {
	AnalyzeBoxes(ctx context.Context, record *MnemonicRecord, image ImageArtifact) BboxSet
}
