package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchJobHandle_Advance(t *testing.T) {
	tests := []struct {
		name    string
		path    []JobStatus
		want    JobStatus
		wantErr bool
	}{
		{name: "full forward path", path: []JobStatus{JobRunning, JobSucceeded}, want: JobSucceeded},
		{name: "skip running", path: []JobStatus{JobFailed}, want: JobFailed},
		{name: "repeat is a no-op", path: []JobStatus{JobRunning, JobRunning}, want: JobRunning},
		{name: "backward", path: []JobStatus{JobRunning, JobPending}, want: JobRunning, wantErr: true},
		{name: "leave terminal", path: []JobStatus{JobSucceeded, JobFailed}, want: JobSucceeded, wantErr: true},
		{name: "unknown", path: []JobStatus{"exploded"}, want: JobPending, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewBatchJobHandle("batches/abc", []string{"a", "b", "c"}, time.Now())
			var err error
			for _, s := range tt.path {
				if err = h.Advance(s); err != nil {
					break
				}
			}
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrJob))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, h.Status)
		})
	}
}

func TestJobStatus_Terminal(t *testing.T) {
	assert.False(t, JobPending.Terminal())
	assert.False(t, JobRunning.Terminal())
	assert.True(t, JobSucceeded.Terminal())
	assert.True(t, JobFailed.Terminal())
	assert.False(t, JobStatus("").Valid())
}

func TestStagedRecord_Record(t *testing.T) {
	s := StagedRecord{ID: "a", Topic: "Statins", Story: "Stan", VisualPrompt: "gym",
		Associations: []Association{{Character: "Stan", MedicalTerm: "Statin"}}}
	rec := s.Record()
	assert.Equal(t, "a", rec.ID)
	assert.Equal(t, []string{"Stan"}, rec.Characters())
}

func TestBatchJobHandle_MarkRetrieved(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	h := NewBatchJobHandle("batches/abc", []string{"a"}, now)
	err := h.MarkRetrieved(now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrJob))
	assert.False(t, h.Retrieved())

	require.NoError(t, h.Advance(JobSucceeded))
	require.NoError(t, h.MarkRetrieved(now))
	require.True(t, h.Retrieved())

	require.NoError(t, h.MarkRetrieved(now.Add(time.Hour)))
	assert.Equal(t, now, *h.RetrievedAt, "the first retrieval time is kept")
}
