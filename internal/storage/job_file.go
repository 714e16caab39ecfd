package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"medmonics/internal/domain"
)

// JobFile implements domain.JobStore with a single JSON file holding the most recently
// submitted job. A file holding only a job name is read as a pending handle.
type JobFile struct {
	path string
}

var _ domain.JobStore = (*JobFile)(nil)

func NewJobFile(path string) *JobFile {
	return &JobFile{path: path}
}

// Load returns the stored handle, or a NotFound error when no job was submitted yet.
func (f *JobFile) Load(_ context.Context) (*domain.BatchJobHandle, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewNotFoundError("no batch job has been submitted: " + f.path)
		}
		return nil, domain.NewIOError("read", f.path, err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, domain.NewNotFoundError("job file is empty: " + f.path)
	}
	if trimmed[0] != '{' {
		return &domain.BatchJobHandle{Name: strings.TrimSpace(string(trimmed)), Status: domain.JobPending}, nil
	}

	var h domain.BatchJobHandle
	if err := json.Unmarshal(trimmed, &h); err != nil {
		return nil, domain.NewIOError("decode", f.path, err)
	}
	if h.Name == "" {
		return nil, domain.NewSchemaError("name", "job file has no job name")
	}
	if h.Status == "" {
		h.Status = domain.JobPending
	}
	if !h.Status.Valid() {
		return nil, domain.NewSchemaError("status", "unknown job status "+string(h.Status))
	}
	return &h, nil
}

func (f *JobFile) Save(_ context.Context, h *domain.BatchJobHandle) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return domain.NewInternalError("failed to encode job handle", err)
	}
	return writeFileAtomic(f.path, data)
}

// writeFileAtomic replaces path with data through a temporary file in the same directory.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.NewIOError("create", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return domain.NewIOError("create", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return domain.NewIOError("write", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return domain.NewIOError("write", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return domain.NewIOError("rename", path, err)
	}
	return nil
}
