// Package repository holds the ranked leaderboard and the score-history archive.
package repository

import (
	"context"

	"github.com/okian/clipscore/internal/domain/model"
)

// Store provides read/write access to the ranking state.
type Store interface {
	// Put records the latest overall score for a video, replacing any earlier
	// entry. Returns true when the stored ranking changed.
	Put(ctx context.Context, res model.Result) (bool, error)

	// Rank returns the current dense rank for a video.
	// Returns ErrNotFound if the video is unknown.
	Rank(ctx context.Context, videoID string) (model.Entry, error)

	// TopN returns the top-N entries ordered by overall desc, video_id asc.
	TopN(ctx context.Context, n int) ([]model.Entry, error)

	// Count returns the number of videos tracked in the leaderboard.
	Count(ctx context.Context) int
}

// Archive persists every scored result keyed by (video_id, version).
type Archive interface {
	Save(ctx context.Context, res model.Result) error
	History(ctx context.Context, videoID string) ([]Record, error)
	Close() error
}
