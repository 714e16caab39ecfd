package domain

import (
	"fmt"
	"time"
)

// StagedRecord is a mnemonic whose text steps (1, 2 and 5) are done and whose image is
// pending batch generation. ID is the tag that links a batch result back to the record.
type StagedRecord struct {
	ID           string        `json:"id"`
	Title        string        `json:"title,omitempty"`
	Topic        string        `json:"topic"`
	Facts        []string      `json:"facts,omitempty"`
	Story        string        `json:"story"`
	Associations []Association `json:"associations"`
	VisualPrompt string        `json:"visualPrompt"`
	Quizzes      []QuizItem    `json:"quizzes"`
	Theme        string        `json:"theme,omitempty"`
	VisualStyle  string        `json:"visualStyle,omitempty"`
	Language     string        `json:"language,omitempty"`
	Specialty    string        `json:"specialty,omitempty"`
}

// Record returns the mnemonic part of the staged record.
func (s *StagedRecord) Record() MnemonicRecord {
	return MnemonicRecord{
		ID:           s.ID,
		Topic:        s.Topic,
		Facts:        s.Facts,
		Story:        s.Story,
		Associations: s.Associations,
		VisualPrompt: s.VisualPrompt,
	}
}

// JobStatus is the lifecycle state of a batch job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

func (s JobStatus) rank() int {
	switch s {
	case JobPending:
		return 0
	case JobRunning:
		return 1
	case JobSucceeded, JobFailed:
		return 2
	default:
		return -1
	}
}

// Terminal reports whether no further transition is possible.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// Valid reports whether s is one of the known states.
func (s JobStatus) Valid() bool {
	return s.rank() >= 0
}

// BatchJobHandle tracks a submitted job. Status only moves forward:
// pending -> running -> {succeeded, failed}. Tags are the request tags in submission order.
type BatchJobHandle struct {
	Name        string    `json:"name"`
	Status      JobStatus `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	RecordCount int       `json:"record_count"`
	Tags        []string  `json:"tags,omitempty"`

	// RetrievedAt is set once the results of a succeeded job have been saved.
	RetrievedAt *time.Time `json:"retrieved_at,omitempty"`
}

// NewBatchJobHandle returns a pending handle for a freshly submitted job.
func NewBatchJobHandle(name string, tags []string, now time.Time) *BatchJobHandle {
	return &BatchJobHandle{Name: name, Status: JobPending, SubmittedAt: now, RecordCount: len(tags), Tags: tags}
}

// Advance moves the handle to next. Repeating the current status is a no-op; moving
// backward, leaving a terminal state or entering an unknown state is an error.
func (h *BatchJobHandle) Advance(next JobStatus) error {
	if !next.Valid() {
		return NewJobError(h.Name, fmt.Sprintf("unknown status %q", next))
	}
	if next == h.Status {
		return nil
	}
	if h.Status.Terminal() || next.rank() < h.Status.rank() {
		return NewJobError(h.Name, fmt.Sprintf("status cannot move from %s to %s", h.Status, next))
	}
	h.Status = next
	return nil
}

// BatchImageRequest is one inline image request of a batch job.
type BatchImageRequest struct {
	Tag    string
	Prompt string
}

// BatchImageResult is one downloaded inline result. Err is set when the provider reported a
// per-request failure or returned no image.
type BatchImageResult struct {
	Tag   string
	Image []byte
	MIME  string
	Err   string
}

// BatchJobSnapshot is the provider's current view of a job.
type BatchJobSnapshot struct {
	Name          string    `json:"name"`
	DisplayName   string    `json:"display_name,omitempty"`
	Status        JobStatus `json:"status"`
	ProviderState string    `json:"provider_state"`
	FailureReason string    `json:"failure_reason,omitempty"`
	RequestCount  int       `json:"request_count"`
}

// RetrieveOptions selects the job to retrieve. An empty JobName means the most recently
// submitted job; StatusOnly polls without downloading.
type RetrieveOptions struct {
	JobName    string
	StatusOnly bool
}

// RecordFailure is a downloaded result that could not be finalized.
type RecordFailure struct {
	Tag    string `json:"tag"`
	Reason string `json:"reason"`
}

// RetrieveReport is the outcome of one retrieval invocation. Saved is empty unless the job
// succeeded and StatusOnly was not set.
type RetrieveReport struct {
	Job      BatchJobSnapshot    `json:"job"`
	Saved    []GenerationSummary `json:"saved"`
	Failures []RecordFailure     `json:"failures,omitempty"`
}

// BatchInput is one subtopic of a topic breakdown, queued for staging.
type BatchInput struct {
	Title   string `json:"title"`
	Content string `json:"topic"`
}

// StageOptions apply to every record of one staging run.
type StageOptions struct {
	Language    string
	Theme       string
	VisualStyle string
	Specialty   string
}

// Retrieved reports whether the job's results were already saved.
func (h *BatchJobHandle) Retrieved() bool {
	return h.RetrievedAt != nil
}

// MarkRetrieved records that the results of a succeeded job were saved.
func (h *BatchJobHandle) MarkRetrieved(now time.Time) error {
	if h.Status != JobSucceeded {
		return NewJobError(h.Name, fmt.Sprintf("cannot mark a %s job as retrieved", h.Status))
	}
	if h.RetrievedAt == nil {
		at := now
		h.RetrievedAt = &at
	}
	return nil
}
