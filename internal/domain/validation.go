package domain

import (
	"fmt"
	"strings"
)

// CodeValidation marks a request that failed field validation.
const CodeValidation ErrorCode = "VALIDATION_ERROR"

// ValidationError describes one invalid request field.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid field of a request.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, v := range e {
		msgs = append(msgs, v.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Field: field, Message: "field is required"}
}

func NewInvalidFormatError(field string, value interface{}) ValidationError {
	return ValidationError{Field: field, Message: "invalid format", Value: value}
}

func NewOutOfRangeError(field string, value interface{}, min, max int) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("must be between %d and %d", min, max), Value: value}
}

func NewUnsupportedValueError(field string, value interface{}, allowed []string) ValidationError {
	return ValidationError{Field: field, Message: "must be one of " + strings.Join(allowed, ", "), Value: value}
}
