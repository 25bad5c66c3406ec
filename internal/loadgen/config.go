// Package loadgen drives a running clipscore service with synthetic video
// documents and checks the resulting ranks against locally computed scores.
package loadgen

import (
	"errors"
	"runtime"
	"time"
)

// Sentinel errors.
var (
	ErrUnhealthy    = errors.New("service unhealthy")
	ErrVerification = errors.New("verification failed")
	ErrInvalidRun   = errors.New("invalid load run configuration")
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumVideos  int           // Number of documents to generate
	TopN       int           // Number of leaderboard entries to fetch
	Workers    int           // Number of concurrent HTTP workers
	Timeout    time.Duration // Per-request timeout
	Wait       time.Duration // How long to wait for asynchronous scoring
	OutputFile string        // Optional JSON Lines dump of the generated documents
}

// DefaultConfig returns the settings used when flags are not given.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "http://localhost:9080",
		NumVideos: 1000,
		TopN:      50,
		Workers:   runtime.NumCPU() * 2,
		Timeout:   30 * time.Second,
		Wait:      2 * time.Minute,
	}
}

func (c Config) validate() error {
	switch {
	case c.BaseURL == "":
		return errors.Join(ErrInvalidRun, errors.New("empty base url"))
	case c.NumVideos < 1:
		return errors.Join(ErrInvalidRun, errors.New("videos must be positive"))
	case c.Workers < 1:
		return errors.Join(ErrInvalidRun, errors.New("workers must be positive"))
	case c.TopN < 1:
		return errors.Join(ErrInvalidRun, errors.New("top must be positive"))
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	Generated          int           `json:"generated"`
	Submitted          int           `json:"submitted"`
	Accepted           int           `json:"accepted"`
	Duplicate          int           `json:"duplicate"`
	Rejected           int           `json:"rejected"`
	Failed             int           `json:"failed"`
	Ranked             int           `json:"ranked"`
	Missing            int           `json:"missing"`
	ScoreMismatches    int           `json:"score_mismatches"`
	RankViolations     int           `json:"rank_violations"`
	LeaderboardEntries int           `json:"leaderboard_entries"`
	Duration           time.Duration `json:"duration"`
}
