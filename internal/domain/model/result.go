package model

// Dimension names one of the nine scored aspects of a video.
type Dimension string

// The nine scoring dimensions.
const (
	DimHook         Dimension = "hook"
	DimStory        Dimension = "story"
	DimRelatability Dimension = "relatability"
	DimVisuals      Dimension = "visuals"
	DimAudio        Dimension = "audio"
	DimWatchtime    Dimension = "watchtime"
	DimEngagement   Dimension = "engagement"
	DimShareability Dimension = "shareability"
	DimAlgo         Dimension = "algo"
)

// Dimensions lists every dimension in canonical order. Weighted sums iterate
// this slice so floating point accumulation is reproducible.
var Dimensions = []Dimension{
	DimHook, DimStory, DimRelatability, DimVisuals, DimAudio,
	DimWatchtime, DimEngagement, DimShareability, DimAlgo,
}

// Subscores holds one [0,100] value per dimension.
type Subscores struct {
	Hook         float64 `json:"hook" yaml:"hook"`
	Story        float64 `json:"story" yaml:"story"`
	Relatability float64 `json:"relatability" yaml:"relatability"`
	Visuals      float64 `json:"visuals" yaml:"visuals"`
	Audio        float64 `json:"audio" yaml:"audio"`
	Watchtime    float64 `json:"watchtime" yaml:"watchtime"`
	Engagement   float64 `json:"engagement" yaml:"engagement"`
	Shareability float64 `json:"shareability" yaml:"shareability"`
	Algo         float64 `json:"algo" yaml:"algo"`
}

// Weights maps each dimension to its share of the overall score.
type Weights struct {
	Hook         float64 `json:"hook" yaml:"hook" koanf:"hook"`
	Story        float64 `json:"story" yaml:"story" koanf:"story"`
	Relatability float64 `json:"relatability" yaml:"relatability" koanf:"relatability"`
	Visuals      float64 `json:"visuals" yaml:"visuals" koanf:"visuals"`
	Audio        float64 `json:"audio" yaml:"audio" koanf:"audio"`
	Watchtime    float64 `json:"watchtime" yaml:"watchtime" koanf:"watchtime"`
	Engagement   float64 `json:"engagement" yaml:"engagement" koanf:"engagement"`
	Shareability float64 `json:"shareability" yaml:"shareability" koanf:"shareability"`
	Algo         float64 `json:"algo" yaml:"algo" koanf:"algo"`
}

// Get returns the subscore for d, or 0 for an unknown dimension.
func (s Subscores) Get(d Dimension) float64 {
	return *s.field(d)
}

// Set stores v as the subscore for d. Unknown dimensions are ignored.
func (s *Subscores) Set(d Dimension, v float64) {
	*s.field(d) = v
}

func (s *Subscores) field(d Dimension) *float64 {
	switch d {
	case DimHook:
		return &s.Hook
	case DimStory:
		return &s.Story
	case DimRelatability:
		return &s.Relatability
	case DimVisuals:
		return &s.Visuals
	case DimAudio:
		return &s.Audio
	case DimWatchtime:
		return &s.Watchtime
	case DimEngagement:
		return &s.Engagement
	case DimShareability:
		return &s.Shareability
	case DimAlgo:
		return &s.Algo
	}
	var discard float64
	return &discard
}

// Map returns the subscores keyed by dimension name.
func (s Subscores) Map() map[string]float64 {
	out := make(map[string]float64, len(Dimensions))
	for _, d := range Dimensions {
		out[string(d)] = s.Get(d)
	}
	return out
}

// Get returns the weight for d, or 0 for an unknown dimension.
func (w Weights) Get(d Dimension) float64 {
	switch d {
	case DimHook:
		return w.Hook
	case DimStory:
		return w.Story
	case DimRelatability:
		return w.Relatability
	case DimVisuals:
		return w.Visuals
	case DimAudio:
		return w.Audio
	case DimWatchtime:
		return w.Watchtime
	case DimEngagement:
		return w.Engagement
	case DimShareability:
		return w.Shareability
	case DimAlgo:
		return w.Algo
	}
	return 0
}

// Sum returns the total of all weights, accumulated in canonical order.
func (w Weights) Sum() float64 {
	var sum float64
	for _, d := range Dimensions {
		sum += w.Get(d)
	}
	return sum
}

// Map returns the weights keyed by dimension name.
func (w Weights) Map() map[string]float64 {
	out := make(map[string]float64, len(Dimensions))
	for _, d := range Dimensions {
		out[string(d)] = w.Get(d)
	}
	return out
}

// PenaltyBreakdown holds the four independent deduction factors.
type PenaltyBreakdown struct {
	SpamIndicators    float64 `json:"spam_indicators" yaml:"spam_indicators"`
	LowQualitySignals float64 `json:"low_quality_signals" yaml:"low_quality_signals"`
	ExcessiveLength   float64 `json:"excessive_length" yaml:"excessive_length"`
	PoorFormatting    float64 `json:"poor_formatting" yaml:"poor_formatting"`
}

// Total sums the factors.
func (p PenaltyBreakdown) Total() float64 {
	return p.SpamIndicators + p.LowQualitySignals + p.ExcessiveLength + p.PoorFormatting
}

// Diagnostics reports which optional inputs were absent.
type Diagnostics struct {
	Missing           []string `json:"missing" yaml:"missing"`
	OverallConfidence float64  `json:"overall_confidence" yaml:"overall_confidence"`
}

// Flags summarise Diagnostics against fixed thresholds.
type Flags struct {
	Incomplete    bool `json:"incomplete" yaml:"incomplete"`
	LowConfidence bool `json:"low_confidence" yaml:"low_confidence"`
}

// Normalized is the batch-level rescaling of Overall. It is only present
// when the normalization stage ran.
type Normalized struct {
	Overall    float64 `json:"overall" yaml:"overall"`
	RawMean    float64 `json:"raw_mean" yaml:"raw_mean"`
	RawStd     float64 `json:"raw_std" yaml:"raw_std"`
	TargetMean float64 `json:"target_mean" yaml:"target_mean"`
	TargetStd  float64 `json:"target_std" yaml:"target_std"`
}

// Result is the output document for one scored video.
type Result struct {
	Version          string           `json:"version" yaml:"version"`
	VideoID          string           `json:"video_id" yaml:"video_id"`
	Subscores        Subscores        `json:"subscores" yaml:"subscores"`
	Penalties        float64          `json:"penalties" yaml:"penalties"`
	PenaltyBreakdown PenaltyBreakdown `json:"penalty_breakdown" yaml:"penalty_breakdown"`
	Overall          float64          `json:"overall" yaml:"overall"`
	Weights          Weights          `json:"weights" yaml:"weights"`
	Diagnostics      Diagnostics      `json:"diagnostics" yaml:"diagnostics"`
	Flags            Flags            `json:"flags" yaml:"flags"`
	Normalized       *Normalized      `json:"normalized,omitempty" yaml:"normalized,omitempty"`
}

// Entry is one row of the ranked leaderboard.
type Entry struct {
	Rank       int     `json:"rank"`
	VideoID    string  `json:"video_id"`
	Version    string  `json:"version"`
	Overall    float64 `json:"overall"`
	Incomplete bool    `json:"incomplete"`
}
