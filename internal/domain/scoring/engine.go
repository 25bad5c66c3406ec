// Package scoring turns a validated video document into a versioned,
// reproducible quality score.
package scoring

import (
	"fmt"
	"math"

	"github.com/okian/clipscore/internal/domain/model"
	"github.com/okian/clipscore/internal/domain/schema"
)

// Default flag thresholds.
const (
	DefaultIncompleteThreshold    = 3
	DefaultLowConfidenceThreshold = 0.7
)

// Engine combines the nine formulas into a Result. It holds only immutable
// configuration and is safe for concurrent use.
type Engine struct {
	profile                Profile
	incompleteThreshold    int
	lowConfidenceThreshold float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithProfile sets the weight table and the version stamped on results.
func WithProfile(p Profile) Option {
	return func(e *Engine) {
		e.profile = p
	}
}

// WithIncompleteThreshold sets how many missing optional fields are tolerated
// before a result is flagged incomplete.
func WithIncompleteThreshold(n int) Option {
	return func(e *Engine) {
		e.incompleteThreshold = n
	}
}

// WithLowConfidenceThreshold sets the confidence below which a result is
// flagged low_confidence.
func WithLowConfidenceThreshold(v float64) Option {
	return func(e *Engine) {
		e.lowConfidenceThreshold = v
	}
}

// New builds an Engine. It fails if the profile or thresholds are invalid.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		profile:                DefaultProfile(),
		incompleteThreshold:    DefaultIncompleteThreshold,
		lowConfidenceThreshold: DefaultLowConfidenceThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.profile.Validate(); err != nil {
		return nil, err
	}
	if e.incompleteThreshold < 0 || e.incompleteThreshold > OptionalFieldCount {
		return nil, fmt.Errorf("%w: incomplete threshold %d", ErrInvalidThreshold, e.incompleteThreshold)
	}
	if e.lowConfidenceThreshold < 0 || e.lowConfidenceThreshold > 1 || math.IsNaN(e.lowConfidenceThreshold) {
		return nil, fmt.Errorf("%w: low confidence threshold %v", ErrInvalidThreshold, e.lowConfidenceThreshold)
	}
	return e, nil
}

// Profile returns the active profile.
func (e *Engine) Profile() Profile {
	return e.profile
}

// DimensionDetail explains one weighted subscore.
type DimensionDetail struct {
	Dimension   model.Dimension `json:"dimension" yaml:"dimension"`
	Value       float64         `json:"value" yaml:"value"`
	Weight      float64         `json:"weight" yaml:"weight"`
	Weighted    float64         `json:"weighted" yaml:"weighted"`
	Adjustments []Adjustment    `json:"adjustments" yaml:"adjustments"`
}

// Explanation is a Result plus the rule trail behind every subscore.
type Explanation struct {
	Result     model.Result      `json:"result" yaml:"result"`
	Dimensions []DimensionDetail `json:"dimensions" yaml:"dimensions"`
}

// Score computes the result for doc. doc must already be validated.
func (e *Engine) Score(doc *model.Document) model.Result {
	return e.Explain(doc).Result
}

// ScoreJSON validates raw input and scores it. Errors wrap
// schema.ErrMalformed or schema.ErrSchema.
func (e *Engine) ScoreJSON(data []byte) (model.Result, error) {
	doc, err := schema.Parse(data)
	if err != nil {
		return model.Result{}, err
	}
	return e.Score(doc), nil
}

// Explain computes the result for doc along with every rule that fired.
func (e *Engine) Explain(doc *model.Document) Explanation {
	presence := Resolve(doc)
	weights := e.profile.Weights

	var (
		subs     model.Subscores
		weighted float64
		details  = make([]DimensionDetail, 0, len(model.Dimensions))
	)
	for _, d := range model.Dimensions {
		s := formulaFor(d)(doc, presence)
		w := weights.Get(d)
		weighted += s.Value * w
		subs.Set(d, round(s.Value, 2))
		details = append(details, DimensionDetail{
			Dimension:   d,
			Value:       round(s.Value, 2),
			Weight:      w,
			Weighted:    round(s.Value*w, 4),
			Adjustments: s.Adjustments,
		})
	}

	penalties := Penalties(doc)
	total := penalties.Total()
	missing := presence.Missing()
	confidence := Confidence(len(missing))

	return Explanation{
		Result: model.Result{
			Version:          e.profile.Version,
			VideoID:          doc.Meta.VideoID,
			Subscores:        subs,
			Penalties:        round(total, 2),
			PenaltyBreakdown: penalties,
			Overall:          round(clamp(weighted-total, minScore, maxScore), 2),
			Weights:          weights,
			Diagnostics: model.Diagnostics{
				Missing:           missing,
				OverallConfidence: round(confidence, 4),
			},
			Flags: model.Flags{
				Incomplete:    len(missing) > e.incompleteThreshold,
				LowConfidence: confidence < e.lowConfidenceThreshold,
			},
		},
		Dimensions: details,
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
