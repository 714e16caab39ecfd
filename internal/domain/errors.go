package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"

	// Generation workflow errors
	CodeGeneration ErrorCode = "GENERATION_ERROR"
	CodeSchema     ErrorCode = "SCHEMA_ERROR"
	CodeJob        ErrorCode = "JOB_ERROR"
	CodeIO         ErrorCode = "IO_ERROR"
)

// Sentinels for errors.Is checks. Matching is by code only.
var (
	ErrGeneration = &DomainError{Code: CodeGeneration}
	ErrSchema     = &DomainError{Code: CodeSchema}
	ErrJob        = &DomainError{Code: CodeJob}
	ErrIO         = &DomainError{Code: CodeIO}
	ErrNotFound   = &DomainError{Code: CodeNotFound}
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Context map[string]interface{} `json:"context,omitempty"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
		Context: e.Context,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithContext attaches a key/value pair to the error and returns it.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Helper functions for common errors
func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(CodeInternal, message, err)
}

// NewGenerationError reports a provider call that failed or returned unusable content.
func NewGenerationError(stage string, err error) *DomainError {
	return NewError(CodeGeneration, fmt.Sprintf("%s failed", stage), err).WithContext("stage", stage)
}

// NewSchemaError reports a record that failed validation. field names the offending
// canonical field (dotted/indexed path for nested fields).
func NewSchemaError(field, message string) *DomainError {
	return NewError(CodeSchema, fmt.Sprintf("schema validation failed on %q: %s", field, message), nil).
		WithContext("field", field)
}

// NewJobError reports a batch job the provider marked as failed, or a job that cannot be
// finalized.
func NewJobError(jobName, reason string) *DomainError {
	return NewError(CodeJob, fmt.Sprintf("batch job %s: %s", jobName, reason), nil).
		WithContext("job", jobName).
		WithContext("reason", reason)
}

// NewIOError reports a failed local read or write.
func NewIOError(op, path string, err error) *DomainError {
	return NewError(CodeIO, fmt.Sprintf("%s %s", op, path), err).WithContext("path", path)
}

// SchemaField returns the field named by a SchemaError anywhere in err's chain.
func SchemaField(err error) (string, bool) {
	for ; err != nil; err = errors.Unwrap(err) {
		if de, ok := err.(*DomainError); ok && de.Code == CodeSchema {
			f, ok := de.Context["field"].(string)
			return f, ok
		}
	}
	return "", false
}
