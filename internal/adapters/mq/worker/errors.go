package worker

import "errors"

// Sentinel errors for worker failures.
var (
	// ErrPanic wraps a panic recovered while scoring one job.
	ErrPanic = errors.New("worker panic")
	// ErrShutdownTimeout is returned when workers do not stop in time.
	ErrShutdownTimeout = errors.New("worker shutdown timed out")
)
