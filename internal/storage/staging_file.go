package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"medmonics/internal/domain"
)

// StagingFile implements domain.StagingStore with a JSON array file.
type StagingFile struct {
	path string
}

var _ domain.StagingStore = (*StagingFile)(nil)

func NewStagingFile(path string) *StagingFile {
	return &StagingFile{path: path}
}

// Read returns the raw staged records. A missing file is an IOError; content that is not a
// JSON array is a SchemaError.
func (f *StagingFile) Read(_ context.Context) ([]json.RawMessage, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewIOError("read", f.path, err).WithContext("reason", "staging file not found")
		}
		return nil, domain.NewIOError("read", f.path, err)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, domain.NewSchemaError("staging", "staging file must hold a JSON array: "+err.Error())
	}
	return records, nil
}

func (f *StagingFile) Write(_ context.Context, records []domain.StagedRecord) error {
	if records == nil {
		records = []domain.StagedRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return domain.NewInternalError("failed to encode staging records", err)
	}
	return writeFileAtomic(f.path, data)
}
