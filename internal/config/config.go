// Package config defines service configuration and its layered loading.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/clipscore/internal/domain/normalize"
	"github.com/okian/clipscore/internal/domain/scoring"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the submission dedupe cache. 0 means unbounded.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// Profile is the version of the built-in weight profile to score with.
	Profile string `koanf:"profile"`

	IncompleteThreshold    int     `koanf:"incomplete_threshold"`
	LowConfidenceThreshold float64 `koanf:"low_confidence_threshold"`

	NormalizeEnabled    bool    `koanf:"normalize_enabled"`
	NormalizeTargetMean float64 `koanf:"normalize_target_mean"`
	NormalizeTargetStd  float64 `koanf:"normalize_target_std"`
	NormalizeRawMean    float64 `koanf:"normalize_raw_mean"`
	NormalizeRawStd     float64 `koanf:"normalize_raw_std"`

	// ArchivePath is the SQLite file for score history. Empty disables it.
	ArchivePath string `koanf:"archive_path"`
}

// New returns a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		QueueSize:              10_000,
		WorkerCount:            runtime.NumCPU(),
		DedupeSize:             100_000,
		MaxLeaderboardLimit:    100,
		Profile:                scoring.Version,
		IncompleteThreshold:    scoring.DefaultIncompleteThreshold,
		LowConfidenceThreshold: scoring.DefaultLowConfidenceThreshold,
		NormalizeTargetMean:    normalize.DefaultTargetMean,
		NormalizeTargetStd:     normalize.DefaultTargetStd,
	}
}

// Normalization returns the normalization stage settings.
func (c *Config) Normalization() normalize.Config {
	return normalize.Config{
		Enabled:    c.NormalizeEnabled,
		TargetMean: c.NormalizeTargetMean,
		TargetStd:  c.NormalizeTargetStd,
		RawMean:    c.NormalizeRawMean,
		RawStd:     c.NormalizeRawStd,
	}
}

// ScoringOptions returns the engine options this config selects.
func (c *Config) ScoringOptions() ([]scoring.Option, error) {
	p, err := scoring.LookupProfile(c.Profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return []scoring.Option{
		scoring.WithProfile(p),
		scoring.WithIncompleteThreshold(c.IncompleteThreshold),
		scoring.WithLowConfidenceThreshold(c.LowConfidenceThreshold),
	}, nil
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative", ErrInvalidConfig)
	case c.MaxLeaderboardLimit <= 0:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.IncompleteThreshold < 0 || c.IncompleteThreshold > scoring.OptionalFieldCount:
		return fmt.Errorf("%w: incomplete_threshold must be within [0,%d]", ErrInvalidConfig, scoring.OptionalFieldCount)
	case c.LowConfidenceThreshold < 0 || c.LowConfidenceThreshold > 1:
		return fmt.Errorf("%w: low_confidence_threshold must be within [0,1]", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}
	if _, err := scoring.LookupProfile(c.Profile); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Normalization().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
