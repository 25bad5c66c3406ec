package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/clipscore/internal/domain/model"
	"github.com/okian/clipscore/internal/domain/scoring"
	"github.com/okian/clipscore/pkg/logger"
)

const (
	pollInterval   = 250 * time.Millisecond
	filePermission = 0o600
)

// Run executes a complete load run: health check, generation, concurrent
// submission, waiting for asynchronous scoring, then verification of ranks
// and the leaderboard. engine must match the service's weight profile.
func Run(ctx context.Context, cfg Config, engine *scoring.Engine) (*Stats, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := logger.Named("loadgen")
	start := time.Now()
	stats := &Stats{}

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("videos", cfg.NumVideos),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
	)

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := client.health(ctx); err != nil {
		return nil, err
	}

	videos := Generate(cfg.NumVideos, engine)
	stats.Generated = len(videos)
	if cfg.OutputFile != "" {
		if err := saveDocuments(cfg.OutputFile, videos); err != nil {
			log.Warn(ctx, "failed to save documents", logger.Error(err))
		}
	}

	accepted := submitAll(ctx, client, cfg.Workers, videos, stats)
	log.Info(ctx, "submission completed",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
	)

	ranks := awaitRanks(ctx, client, cfg, accepted)
	stats.Ranked = len(ranks)
	stats.Missing = len(accepted) - len(ranks)

	leaderboard, err := client.leaderboard(ctx, cfg.TopN)
	if err != nil {
		return stats, err
	}
	stats.LeaderboardEntries = len(leaderboard)

	stats.ScoreMismatches = verifyScores(accepted, ranks)
	stats.RankViolations = verifyRanks(ranks) + verifyLeaderboard(leaderboard)
	stats.Duration = time.Since(start)

	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("ranked", stats.Ranked),
		logger.Int("missing", stats.Missing),
		logger.Int("scoreMismatches", stats.ScoreMismatches),
		logger.Int("rankViolations", stats.RankViolations),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("videosPerSecond", float64(stats.Submitted)/stats.Duration.Seconds()),
	)

	if stats.Missing > 0 || stats.ScoreMismatches > 0 || stats.RankViolations > 0 {
		return stats, fmt.Errorf("%w: %d missing, %d score mismatches, %d rank violations",
			ErrVerification, stats.Missing, stats.ScoreMismatches, stats.RankViolations)
	}
	return stats, nil
}

// submitAll posts every video through a fixed worker pool and returns the
// videos the service accepted, keyed by id.
func submitAll(ctx context.Context, client *httpClient, workers int, videos []Video, stats *Stats) map[string]Video {
	var (
		submitted, acceptedN, duplicate, rejected, failed atomic.Int64
		mu                                                sync.Mutex
		accepted                                          = make(map[string]Video, len(videos))
		wg                                                sync.WaitGroup
	)
	ch := make(chan Video, workers*2)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for v := range ch {
				submitted.Add(1)
				switch client.submit(ctx, &v.Document) {
				case outcomeAccepted:
					acceptedN.Add(1)
					mu.Lock()
					accepted[v.Document.Meta.VideoID] = v
					mu.Unlock()
				case outcomeDuplicate:
					duplicate.Add(1)
				case outcomeRejected:
					rejected.Add(1)
				default:
					failed.Add(1)
				}
			}
		}()
	}
feed:
	for _, v := range videos {
		select {
		case <-ctx.Done():
			break feed
		case ch <- v:
		}
	}
	close(ch)
	wg.Wait()

	stats.Submitted = int(submitted.Load())
	stats.Accepted = int(acceptedN.Load())
	stats.Duplicate = int(duplicate.Load())
	stats.Rejected = int(rejected.Load())
	stats.Failed = int(failed.Load())
	return accepted
}

// awaitRanks polls /rank for every accepted video until all are scored or
// cfg.Wait elapses.
func awaitRanks(ctx context.Context, client *httpClient, cfg Config, accepted map[string]Video) map[string]model.Entry {
	ctx, cancel := context.WithTimeout(ctx, cfg.Wait)
	defer cancel()

	ranks := make(map[string]model.Entry, len(accepted))
	pending := make([]string, 0, len(accepted))
	for id := range accepted {
		pending = append(pending, id)
	}

	for len(pending) > 0 {
		var (
			mu    sync.Mutex
			wg    sync.WaitGroup
			still []string
		)
		ch := make(chan string)
		for i := 0; i < min(cfg.Workers, len(pending)); i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for id := range ch {
					e, found, err := client.rank(ctx, id)
					mu.Lock()
					if err == nil && found {
						ranks[id] = e
					} else {
						still = append(still, id)
					}
					mu.Unlock()
				}
			}()
		}
		for _, id := range pending {
			ch <- id
		}
		close(ch)
		wg.Wait()

		pending = still
		if len(pending) == 0 {
			break
		}
		select {
		case <-ctx.Done():
			return ranks
		case <-time.After(pollInterval):
		}
	}
	// Ranks shift while scoring is in flight; take a settled snapshot.
	for id := range ranks {
		if e, found, err := client.rank(ctx, id); err == nil && found {
			ranks[id] = e
		}
	}
	return ranks
}

// saveDocuments writes the generated documents as JSON Lines so they can be
// replayed with `clipscore batch`.
func saveDocuments(path string, videos []Video) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	enc := json.NewEncoder(f)
	for i := range videos {
		if err := enc.Encode(&videos[i].Document); err != nil {
			_ = f.Close()
			return fmt.Errorf("write document %d: %w", i, err)
		}
	}
	return f.Close()
}
