package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrMalformed means the input is not valid JSON.
	ErrMalformed = errors.New("malformed input")
	// ErrSchema means the input is JSON but does not match the document contract.
	ErrSchema = errors.New("schema violation")
)

// FieldError locates one contract violation.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError carries every field-level violation found in a document.
// It unwraps to ErrSchema.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrSchema.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Path == "" {
			parts = append(parts, f.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", f.Path, f.Message))
	}
	return fmt.Sprintf("%s: %s", ErrSchema, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrSchema }

// Fields returns the field errors carried by err, if any.
func Fields(err error) []FieldError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// Wire names of the error taxonomy.
const (
	KindMalformed = "malformed_input"
	KindSchema    = "schema_violation"
	KindInternal  = "internal"
)

// Kind maps err onto the error taxonomy.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrMalformed):
		return KindMalformed
	case errors.Is(err, ErrSchema):
		return KindSchema
	default:
		return KindInternal
	}
}
