package batchjob

import (
	"context"
	"fmt"
	"strings"

	"medmonics/internal/adapter/imagegen"
	"medmonics/internal/domain"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// batchAPI is the subset of *genai.Batches used here.
type batchAPI interface {
	Create(ctx context.Context, model string, src *genai.BatchJobSource, config *genai.CreateBatchJobConfig) (*genai.BatchJob, error)
	Get(ctx context.Context, name string, config *genai.GetBatchJobConfig) (*genai.BatchJob, error)
}

// GeminiBatchProvider implements domain.BatchProvider with Gemini inline batch jobs.
//
// Each request carries its tag as metadata for the batch console, but inline responses come
// back in request order without it, so results are paired with the submitted tags by
// position here and by tag everywhere else.
type GeminiBatchProvider struct {
	batches     batchAPI
	model       string
	aspectRatio string
	logger      *zap.Logger
}

func NewGeminiBatchProvider(client *genai.Client, model, aspectRatio string, logger *zap.Logger) domain.BatchProvider {
	return newGeminiBatchProvider(client.Batches, model, aspectRatio, logger)
}

func newGeminiBatchProvider(batches batchAPI, model, aspectRatio string, logger *zap.Logger) *GeminiBatchProvider {
	return &GeminiBatchProvider{batches: batches, model: model, aspectRatio: aspectRatio, logger: logger}
}

func (p *GeminiBatchProvider) SubmitImageBatch(ctx context.Context, displayName string, reqs []domain.BatchImageRequest) (string, error) {
	if len(reqs) == 0 {
		return "", domain.NewInvalidInputError("batch has no requests")
	}
	inlined := make([]*genai.InlinedRequest, 0, len(reqs))
	for _, r := range reqs {
		inlined = append(inlined, &genai.InlinedRequest{
			Model:    p.model,
			Contents: []*genai.Content{genai.NewContentFromText(r.Prompt, genai.RoleUser)},
			Metadata: map[string]string{"tag": r.Tag},
			Config:   imagegen.ImageRequestConfig(p.aspectRatio),
		})
	}

	job, err := p.batches.Create(ctx, p.model,
		&genai.BatchJobSource{InlinedRequests: inlined},
		&genai.CreateBatchJobConfig{DisplayName: displayName},
	)
	if err != nil {
		return "", domain.NewGenerationError("batch submit", err)
	}
	if job == nil || job.Name == "" {
		return "", domain.NewGenerationError("batch submit", fmt.Errorf("provider returned no job name"))
	}
	p.logger.Info("Batch job created",
		zap.String("job", job.Name),
		zap.String("display_name", displayName),
		zap.Int("requests", len(reqs)))
	return job.Name, nil
}

func (p *GeminiBatchProvider) GetJob(ctx context.Context, name string) (*domain.BatchJobSnapshot, error) {
	job, err := p.batches.Get(ctx, name, nil)
	if err != nil {
		return nil, domain.NewGenerationError("batch status", err)
	}
	snap := &domain.BatchJobSnapshot{
		Name:          job.Name,
		DisplayName:   job.DisplayName,
		ProviderState: string(job.State),
		Status:        MapState(string(job.State)),
	}
	if job.Error != nil {
		snap.FailureReason = job.Error.Message
	}
	if snap.Status == domain.JobFailed && snap.FailureReason == "" {
		snap.FailureReason = "provider reported " + string(job.State)
	}
	if job.Dest != nil {
		snap.RequestCount = len(job.Dest.InlinedResponses)
	}
	return snap, nil
}

func (p *GeminiBatchProvider) FetchImageResults(ctx context.Context, name string, tags []string) ([]domain.BatchImageResult, error) {
	job, err := p.batches.Get(ctx, name, nil)
	if err != nil {
		return nil, domain.NewGenerationError("batch download", err)
	}
	if status := MapState(string(job.State)); status != domain.JobSucceeded {
		return nil, domain.NewJobError(name, "results requested while job is "+string(status))
	}
	if job.Dest == nil {
		return nil, domain.NewJobError(name, "job has no inline responses")
	}
	return ZipResults(name, tags, job.Dest.InlinedResponses)
}

// ZipResults pairs inline responses with the tags of the submitted requests.
func ZipResults(jobName string, tags []string, responses []*genai.InlinedResponse) ([]domain.BatchImageResult, error) {
	if len(responses) != len(tags) {
		return nil, domain.NewJobError(jobName,
			fmt.Sprintf("job returned %d responses for %d submitted requests", len(responses), len(tags)))
	}
	out := make([]domain.BatchImageResult, 0, len(tags))
	for i, resp := range responses {
		res := domain.BatchImageResult{Tag: tags[i]}
		switch {
		case resp == nil:
			res.Err = "empty response"
		case resp.Error != nil:
			res.Err = resp.Error.Message
		default:
			data, mime, ok := imagegen.FirstImage(resp.Response)
			if !ok {
				res.Err = "no image in response"
			} else {
				res.Image, res.MIME = data, mime
			}
		}
		out = append(out, res)
	}
	return out, nil
}

// MapState maps a provider job state onto the four lifecycle states.
func MapState(state string) domain.JobStatus {
	switch strings.TrimPrefix(strings.ToUpper(state), "JOB_STATE_") {
	case "RUNNING", "UPDATING", "PAUSED":
		return domain.JobRunning
	case "SUCCEEDED", "PARTIALLY_SUCCEEDED":
		return domain.JobSucceeded
	case "FAILED", "CANCELLED", "CANCELLING", "EXPIRED":
		return domain.JobFailed
	default:
		return domain.JobPending
	}
}
