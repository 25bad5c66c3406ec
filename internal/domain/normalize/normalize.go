// Package normalize rescales overall scores toward a target distribution.
// It is a batch stage: the raw mean and standard deviation come from a
// reference population, never from the call being normalized.
package normalize

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/clipscore/internal/domain/model"
)

var (
	// ErrInvalidConfig is returned for a config that cannot be applied.
	ErrInvalidConfig = errors.New("invalid normalization config")
	// ErrEmptyPopulation is returned when Reference gets no scores.
	ErrEmptyPopulation = errors.New("empty reference population")
)

// Default target distribution.
const (
	DefaultTargetMean = 50.0
	DefaultTargetStd  = 15.0
)

// Config describes the mapping. Disabled by default.
type Config struct {
	Enabled    bool    `json:"enabled" yaml:"enabled" koanf:"enabled"`
	TargetMean float64 `json:"target_mean" yaml:"target_mean" koanf:"target_mean"`
	TargetStd  float64 `json:"target_std" yaml:"target_std" koanf:"target_std"`
	RawMean    float64 `json:"raw_mean" yaml:"raw_mean" koanf:"raw_mean"`
	RawStd     float64 `json:"raw_std" yaml:"raw_std" koanf:"raw_std"`
}

// Validate checks an enabled config has positive spreads and a target mean
// inside the score range.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	for name, v := range map[string]float64{
		"target_mean": c.TargetMean, "target_std": c.TargetStd,
		"raw_mean": c.RawMean, "raw_std": c.RawStd,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidConfig, name)
		}
	}
	if c.RawStd <= 0 {
		return fmt.Errorf("%w: raw_std must be positive", ErrInvalidConfig)
	}
	if c.TargetStd <= 0 {
		return fmt.Errorf("%w: target_std must be positive", ErrInvalidConfig)
	}
	if c.TargetMean < 0 || c.TargetMean > 100 {
		return fmt.Errorf("%w: target_mean must be within [0,100]", ErrInvalidConfig)
	}
	return nil
}

// Normalizer applies a validated Config.
type Normalizer struct {
	cfg Config
}

// New validates cfg and returns a Normalizer.
func New(cfg Config) (*Normalizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Normalizer{cfg: cfg}, nil
}

// Enabled reports whether Apply changes anything.
func (n *Normalizer) Enabled() bool {
	return n.cfg.Enabled
}

// Apply maps one overall score. The map is monotone non-decreasing, so the
// relative order of any batch is preserved. Disabled means identity.
func (n *Normalizer) Apply(overall float64) float64 {
	if !n.cfg.Enabled {
		return overall
	}
	v := n.cfg.TargetMean + (overall-n.cfg.RawMean)/n.cfg.RawStd*n.cfg.TargetStd
	return math.Round(math.Max(0, math.Min(100, v))*100) / 100
}

// Annotate sets r.Normalized. Overall itself is never changed. A disabled
// Normalizer leaves r untouched.
func (n *Normalizer) Annotate(r *model.Result) {
	if !n.cfg.Enabled {
		return
	}
	r.Normalized = &model.Normalized{
		Overall:    n.Apply(r.Overall),
		RawMean:    n.cfg.RawMean,
		RawStd:     n.cfg.RawStd,
		TargetMean: n.cfg.TargetMean,
		TargetStd:  n.cfg.TargetStd,
	}
}

// AnnotateAll annotates every result in place.
func (n *Normalizer) AnnotateAll(results []model.Result) {
	for i := range results {
		n.Annotate(&results[i])
	}
}

// Stats summarises a reference population.
type Stats struct {
	Count int     `json:"count" yaml:"count"`
	Mean  float64 `json:"raw_mean" yaml:"raw_mean"`
	Std   float64 `json:"raw_std" yaml:"raw_std"`
}

// Reference computes the population mean and standard deviation of scores.
func Reference(scores []float64) (Stats, error) {
	if len(scores) == 0 {
		return Stats{}, ErrEmptyPopulation
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))
	var sq float64
	for _, s := range scores {
		sq += (s - mean) * (s - mean)
	}
	return Stats{
		Count: len(scores),
		Mean:  mean,
		Std:   math.Sqrt(sq / float64(len(scores))),
	}, nil
}

// Config returns a Config that maps this population onto the target.
func (s Stats) Config(targetMean, targetStd float64) Config {
	return Config{
		Enabled:    true,
		TargetMean: targetMean,
		TargetStd:  targetStd,
		RawMean:    s.Mean,
		RawStd:     s.Std,
	}
}
