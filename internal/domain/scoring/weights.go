package scoring

import (
	"fmt"
	"math"

	"github.com/okian/clipscore/internal/domain/model"
)

// Version is the semantic version of the formula set. Bump it whenever a
// band, weight or penalty changes so archived scores are not confused with
// new ones.
const Version = "1.0.0"

const weightSumTolerance = 1e-6

// DefaultWeights is the canonical weight table for Version.
var DefaultWeights = model.Weights{
	Hook:         0.18,
	Story:        0.10,
	Relatability: 0.06,
	Visuals:      0.08,
	Audio:        0.06,
	Watchtime:    0.25,
	Engagement:   0.15,
	Shareability: 0.07,
	Algo:         0.05,
}

// Profile pairs a scorer version with the weight table it uses.
type Profile struct {
	Version string        `json:"version" yaml:"version"`
	Weights model.Weights `json:"weights" yaml:"weights"`
}

// DefaultProfile returns the profile for the current Version.
func DefaultProfile() Profile {
	return Profile{Version: Version, Weights: DefaultWeights}
}

// Profiles lists the built-in profiles, newest first.
func Profiles() []Profile {
	return []Profile{DefaultProfile()}
}

// LookupProfile returns the built-in profile for version.
func LookupProfile(version string) (Profile, error) {
	for _, p := range Profiles() {
		if p.Version == version {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, version)
}

// Validate checks the profile has a version, no negative weights and a
// weight sum of 1 within tolerance.
func (p Profile) Validate() error {
	if p.Version == "" {
		return fmt.Errorf("%w: empty version", ErrInvalidWeights)
	}
	for _, d := range model.Dimensions {
		if w := p.Weights.Get(d); w < 0 || math.IsNaN(w) {
			return fmt.Errorf("%w: %s weight %v", ErrInvalidWeights, d, w)
		}
	}
	if sum := p.Weights.Sum(); math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %v", ErrInvalidWeights, sum)
	}
	return nil
}
