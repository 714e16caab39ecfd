package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_IsMatchesCode(t *testing.T) {
	schemaErr := NewSchemaError("topic", "required field is missing")
	wrapped := NewGenerationError("mnemonic generation", schemaErr)

	assert.True(t, errors.Is(wrapped, ErrGeneration))
	assert.True(t, errors.Is(wrapped, ErrSchema))
	assert.False(t, errors.Is(wrapped, ErrJob))

	field, ok := SchemaField(fmt.Errorf("outer: %w", wrapped))
	require.True(t, ok)
	assert.Equal(t, "topic", field)

	_, ok = SchemaField(errors.New("plain"))
	assert.False(t, ok)
}

func TestDomainError_Messages(t *testing.T) {
	cause := errors.New("disk full")
	err := NewIOError("write", "/tmp/x", cause)
	assert.Equal(t, "write /tmp/x: disk full", err.Error())
	assert.ErrorIs(t, err, cause)

	jobErr := NewJobError("batches/abc", "quota exhausted")
	assert.Equal(t, "quota exhausted", jobErr.Context["reason"])
	assert.Contains(t, jobErr.Error(), "batches/abc")
}

func TestDomainError_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(NewSchemaError("associations[0].character", "missing"))
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, string(CodeSchema), body["code"])
	assert.Equal(t, "associations[0].character", body["context"].(map[string]any)["field"])
}
