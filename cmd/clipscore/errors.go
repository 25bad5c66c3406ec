package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/okian/clipscore/internal/domain/schema"
)

// Process exit codes.
const (
	exitFailure   = 1
	exitMalformed = 1
	exitSchema    = 2
	exitInternal  = 3
)

// exitError ends the process with code once its message, if any, has
// already been written.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// failure is the error body written to stderr.
type failure struct {
	Error  string              `json:"error"`
	Kind   string              `json:"kind"`
	Fields []schema.FieldError `json:"fields,omitempty"`
	Stack  string              `json:"stack,omitempty"`
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func newFailure(err error, withStack bool) failure {
	f := failure{
		Error:  err.Error(),
		Kind:   schema.Kind(err),
		Fields: schema.Fields(err),
	}
	if withStack {
		var st stackTracer
		if errors.As(err, &st) {
			f.Stack = fmt.Sprintf("%+v", st.StackTrace())
		}
	}
	return f
}

func exitCode(kind string) int {
	switch kind {
	case schema.KindMalformed:
		return exitMalformed
	case schema.KindSchema:
		return exitSchema
	default:
		return exitInternal
	}
}

// fail writes the error body for err and returns the matching exitError.
func (c *cli) fail(err error) error {
	f := newFailure(err, c.stack)
	writeFailure(c.errOut, f)
	return &exitError{code: exitCode(f.Kind)}
}

func writeFailure(w io.Writer, f failure) {
	b, err := json.Marshal(f)
	if err != nil {
		fmt.Fprintf(w, "{\"error\":%q,\"kind\":%q}\n", f.Error, f.Kind)
		return
	}
	fmt.Fprintln(w, string(b))
}
