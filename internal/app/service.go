// Package service wires the scoring engine to the queue, worker pool,
// leaderboard and archive, and implements the dependencies of the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/okian/clipscore/internal/adapters/mq/queue"
	workerpool "github.com/okian/clipscore/internal/adapters/mq/worker"
	"github.com/okian/clipscore/internal/adapters/repository"
	"github.com/okian/clipscore/internal/domain/dedupe"
	"github.com/okian/clipscore/internal/domain/model"
	"github.com/okian/clipscore/internal/domain/normalize"
	"github.com/okian/clipscore/internal/domain/schema"
	"github.com/okian/clipscore/internal/domain/scoring"
	"github.com/okian/clipscore/pkg/logger"
	"github.com/okian/clipscore/pkg/metrics"
)

// Service implements the API dependencies for the scoring service.
type Service struct {
	mu sync.RWMutex

	// Core components
	engine      *scoring.Engine
	normalizer  *normalize.Normalizer
	leaderboard repository.Store
	archiveMu   sync.RWMutex // guards archive against Shutdown
	archive     repository.Archive
	deduper     dedupe.Deduper
	jobQueue    *jobqueue.InMemoryQueue
	workerPool  *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	archivePath string

	// State
	started   bool
	startedAt time.Time
	completed atomic.Int64
	failed    atomic.Int64

	logger logger.Logger
}

// Stats is a point-in-time view of the service.
type Stats struct {
	Started         bool    `json:"started"`
	Version         string  `json:"version"`
	Workers         int     `json:"workers"`
	QueueCapacity   int     `json:"queue_capacity"`
	QueueLength     int     `json:"queue_length"`
	DedupeEntries   int64   `json:"dedupe_entries"`
	LeaderboardSize int     `json:"leaderboard_size"`
	Completed       int64   `json:"completed"`
	Failed          int64   `json:"failed"`
	ArchiveEnabled  bool    `json:"archive_enabled"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
}

// New constructs a Service. Components are created by Start.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   10_000,
		dedupeSize:  100_000,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.engine == nil {
		engine, err := scoring.New()
		if err != nil {
			return nil, err
		}
		s.engine = engine
	}
	if s.normalizer == nil {
		n, err := normalize.New(normalize.Config{})
		if err != nil {
			return nil, err
		}
		s.normalizer = n
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	return s, nil
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting scoring service...")

	if s.archive == nil && s.archivePath != "" {
		archive, err := repository.OpenArchive(ctx, s.archivePath)
		if err != nil {
			return err
		}
		s.archiveMu.Lock()
		s.archive = archive
		s.archiveMu.Unlock()
		s.logger.Info(ctx, "score archive opened", logger.String("path", s.archivePath))
	}
	if s.leaderboard == nil {
		s.leaderboard = repository.NewTreapStore()
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.jobQueue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s.engine, workerpool.SinkFunc(s.handleOutcome))
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "scoring service started",
		logger.String("version", s.engine.Profile().Version),
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("archive", s.archive != nil),
	)
	return nil
}

// Shutdown stops accepting jobs, drains the queue until ctx expires and
// closes the archive.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping scoring service...")

	var errs []error
	if err := s.workerPool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	s.archiveMu.Lock()
	if s.archive != nil {
		if err := s.archive.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close archive: %w", err))
		}
		// Start reopens archivePath; an injected archive is gone for good.
		s.archive = nil
	}
	s.archiveMu.Unlock()

	s.started = false
	s.logger.Info(ctx, "scoring service stopped",
		logger.Int64("completed", s.completed.Load()),
		logger.Int64("failed", s.failed.Load()),
	)
	return errors.Join(errs...)
}

// Score validates and scores raw synchronously, then records the result.
func (s *Service) Score(ctx context.Context, raw []byte) (model.Result, error) {
	if !s.isStarted() {
		return model.Result{}, ErrNotStarted
	}

	start := time.Now()
	res, err := s.engine.ScoreJSON(raw)
	if err != nil {
		metrics.RecordValidationFailure(schema.Kind(err))
		return model.Result{}, err
	}
	s.normalizer.Annotate(&res)
	metrics.RecordDocumentScored(
		float64(time.Since(start).Microseconds())/1000,
		res.Overall,
		len(res.Diagnostics.Missing),
		res.Flags.Incomplete,
	)

	if err := s.record(ctx, res); err != nil {
		return res, err
	}
	s.completed.Add(1)
	return res, nil
}

// Submit validates raw and queues it for asynchronous scoring. A document
// already submitted with identical content reports duplicate=true and is not
// queued again.
func (s *Service) Submit(ctx context.Context, raw []byte) (jobID string, duplicate bool, err error) {
	if !s.isStarted() {
		return "", false, ErrNotStarted
	}

	doc, err := schema.Parse(raw)
	if err != nil {
		metrics.RecordValidationFailure(schema.Kind(err))
		return "", false, err
	}
	key, err := dedupe.ContentKey(s.engine.Profile().Version, doc)
	if err != nil {
		return "", false, err
	}
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordDuplicate()
		s.logger.Debug(ctx, "duplicate submission, skipping",
			logger.String("key", key),
			logger.String("video_id", doc.Meta.VideoID),
		)
		return "", true, nil
	}

	job := model.Job{
		ID:          uuid.NewString(),
		Key:         key,
		Document:    *doc,
		SubmittedAt: time.Now(),
	}
	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		s.deduper.Unrecord(ctx, key)
		if errors.Is(err, jobqueue.ErrQueueFull) {
			return "", false, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return "", false, err
	}

	s.logger.Debug(ctx, "job enqueued",
		logger.String("job_id", job.ID),
		logger.String("video_id", doc.Meta.VideoID),
	)
	return job.ID, false, nil
}

// handleOutcome is the worker sink. Failed jobs are forgotten by the
// deduper so the same content may be resubmitted.
func (s *Service) handleOutcome(ctx context.Context, o workerpool.Outcome) error {
	if o.Err != nil {
		s.failed.Add(1)
		s.deduper.Unrecord(ctx, o.Job.Key)
		return nil
	}
	res := o.Result
	s.normalizer.Annotate(&res)
	if err := s.record(ctx, res); err != nil {
		s.failed.Add(1)
		return err
	}
	s.completed.Add(1)
	return nil
}

func (s *Service) record(ctx context.Context, res model.Result) error {
	if _, err := s.leaderboard.Put(ctx, res); err != nil {
		metrics.RecordErrorByComponent("leaderboard", "put")
		return fmt.Errorf("update leaderboard: %w", err)
	}
	s.archiveMu.RLock()
	defer s.archiveMu.RUnlock()
	if s.archive == nil {
		return nil
	}
	if err := s.archive.Save(ctx, res); err != nil {
		metrics.RecordErrorByComponent("archive", "save")
		return err
	}
	return nil
}

// TopN returns the top n leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]model.Entry, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	return s.leaderboard.TopN(ctx, n)
}

// Rank returns the leaderboard entry for videoID.
func (s *Service) Rank(ctx context.Context, videoID string) (model.Entry, error) {
	if !s.isStarted() {
		return model.Entry{}, ErrNotStarted
	}
	return s.leaderboard.Rank(ctx, videoID)
}

// History returns archived results for videoID.
func (s *Service) History(ctx context.Context, videoID string) ([]repository.Record, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	s.archiveMu.RLock()
	defer s.archiveMu.RUnlock()
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archive.History(ctx, videoID)
}

// Profile returns the active weight profile.
func (s *Service) Profile() scoring.Profile {
	return s.engine.Profile()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Started:        s.started,
		Version:        s.engine.Profile().Version,
		Workers:        s.workerCount,
		QueueCapacity:  s.queueSize,
		Completed:      s.completed.Load(),
		Failed:         s.failed.Load(),
		ArchiveEnabled: s.archive != nil,
	}
	if s.started {
		stats.Workers = s.workerPool.Size()
		stats.QueueLength = s.jobQueue.Len(ctx)
		stats.DedupeEntries = s.deduper.Size()
		stats.LeaderboardSize = s.leaderboard.Count(ctx)
		stats.UptimeSeconds = time.Since(s.startedAt).Seconds()

		metrics.UpdateQueueSize(stats.QueueLength)
		metrics.UpdateLeaderboardSize(stats.LeaderboardSize)
	}
	return stats
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
