// Package transform normalizes raw backend records of uncertain,
// historically drifting shape into the stable typed records the rest of
// the application consumes. Each entity transformer owns a static
// configuration (field mappings, computed fields, validation rules,
// version heuristics, evolution rewrites); every call is a pure
// computation with no state carried between calls.
package transform

import (
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// ErrorCode classifies a transformation failure.
type ErrorCode string

const (
	// ErrCodeValidation covers nil input, missing required fields, and
	// failed validation rules.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	// ErrCodeFieldMapping covers any other failure inside the mapping
	// pipeline, wrapped with the offending raw record.
	ErrCodeFieldMapping ErrorCode = "FIELD_MAPPING_ERROR"
)

// Error is a structured transformation failure.
type Error struct {
	Code        ErrorCode
	Message     string
	Field       string
	Details     any
	Timestamp   time.Time
	Transformer string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s [%s] transform failed: field %s: %s", e.Transformer, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s [%s] transform failed: %s", e.Transformer, e.Code, e.Message)
}

func newValidationError(transformer, field, message string, details any) *Error {
	return &Error{
		Code:        ErrCodeValidation,
		Message:     message,
		Field:       field,
		Details:     details,
		Timestamp:   time.Now().UTC(),
		Transformer: transformer,
	}
}

// wrapMappingError converts an arbitrary pipeline failure into a
// field-mapping Error carrying the original raw record.
func wrapMappingError(transformer string, cause error, raw map[string]any) *Error {
	return &Error{
		Code:    ErrCodeFieldMapping,
		Message: cause.Error(),
		Details: map[string]any{
			"record": raw,
			"cause":  eris.Wrap(cause, "transform: field mapping"),
		},
		Timestamp:   time.Now().UTC(),
		Transformer: transformer,
	}
}

// AsError extracts a *Error from err's chain, if present.
func AsError(err error) (*Error, bool) {
	var te *Error
	ok := errors.As(err, &te)
	return te, ok
}

// IsValidation reports whether err is a validation-kind transformation
// failure.
func IsValidation(err error) bool {
	te, ok := AsError(err)
	return ok && te.Code == ErrCodeValidation
}
