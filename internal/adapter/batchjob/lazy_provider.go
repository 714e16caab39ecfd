package batchjob

import (
	"context"
	"sync"

	"medmonics/internal/domain"
)

// LazyProvider builds its underlying provider on first use, so commands and servers that
// never touch batch jobs do not need batch credentials to start.
type LazyProvider struct {
	build func(ctx context.Context) (domain.BatchProvider, error)

	mu       sync.Mutex
	provider domain.BatchProvider
}

var _ domain.BatchProvider = (*LazyProvider)(nil)

func NewLazyProvider(build func(ctx context.Context) (domain.BatchProvider, error)) *LazyProvider {
	return &LazyProvider{build: build}
}

// get returns the provider, retrying the build after a failure.
func (l *LazyProvider) get(ctx context.Context) (domain.BatchProvider, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.provider != nil {
		return l.provider, nil
	}
	p, err := l.build(ctx)
	if err != nil {
		return nil, domain.NewError(domain.CodeInternal, "batch provider is not available", err)
	}
	l.provider = p
	return p, nil
}

func (l *LazyProvider) SubmitImageBatch(ctx context.Context, displayName string, reqs []domain.BatchImageRequest) (string, error) {
	p, err := l.get(ctx)
	if err != nil {
		return "", err
	}
	return p.SubmitImageBatch(ctx, displayName, reqs)
}

func (l *LazyProvider) GetJob(ctx context.Context, name string) (*domain.BatchJobSnapshot, error) {
	p, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return p.GetJob(ctx, name)
}

func (l *LazyProvider) FetchImageResults(ctx context.Context, name string, tags []string) ([]domain.BatchImageResult, error) {
	p, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return p.FetchImageResults(ctx, name, tags)
}
