package scoring

import "errors"

var (
	// ErrInvalidWeights is returned when a weight table is negative or does
	// not sum to one.
	ErrInvalidWeights = errors.New("invalid weight table")
	// ErrUnknownProfile is returned when no built-in profile has the version.
	ErrUnknownProfile = errors.New("unknown scoring profile")
	// ErrInvalidThreshold is returned for out-of-range flag thresholds.
	ErrInvalidThreshold = errors.New("invalid threshold")
)
