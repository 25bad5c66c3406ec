package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/okian/clipscore/internal/domain/model"
	"github.com/okian/clipscore/pkg/metrics"
)

const archiveSchema = `
CREATE TABLE IF NOT EXISTS results (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	video_id    TEXT    NOT NULL,
	version     TEXT    NOT NULL,
	overall     REAL    NOT NULL,
	incomplete  INTEGER NOT NULL,
	result_json TEXT    NOT NULL,
	scored_at   INTEGER NOT NULL,
	UNIQUE(video_id, version)
);
CREATE INDEX IF NOT EXISTS idx_results_video ON results(video_id);
`

// Record is one archived result row.
type Record struct {
	VideoID    string       `db:"video_id" json:"video_id"`
	Version    string       `db:"version" json:"version"`
	Overall    float64      `db:"overall" json:"overall"`
	Incomplete bool         `db:"incomplete" json:"incomplete"`
	ResultJSON string       `db:"result_json" json:"-"`
	ScoredAtMs int64        `db:"scored_at" json:"-"`
	ScoredAt   time.Time    `db:"-" json:"scored_at"`
	Result     model.Result `db:"-" json:"result"`
}

// SQLiteArchive implements Archive on SQLite.
type SQLiteArchive struct {
	db          *sqlx.DB
	busyTimeout time.Duration
	now         func() time.Time
}

// OpenArchive opens (or creates) the archive at path and runs migrations.
// Use ":memory:" for a throwaway archive.
func OpenArchive(ctx context.Context, path string, opts ...ArchiveOption) (*SQLiteArchive, error) {
	a := &SQLiteArchive{busyTimeout: 5 * time.Second, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite %s: %w", ErrArchive, path, err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	pragmas := fmt.Sprintf("PRAGMA busy_timeout = %d; PRAGMA journal_mode = WAL;", a.busyTimeout.Milliseconds())
	if _, err := db.ExecContext(ctx, pragmas); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: pragmas: %w", ErrArchive, err)
	}
	if _, err := db.ExecContext(ctx, archiveSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: run migrations: %w", ErrArchive, err)
	}

	a.db = db
	return a, nil
}

// Save upserts res under (video_id, version); a rescore of the same video
// under the same version replaces the previous row.
func (a *SQLiteArchive) Save(ctx context.Context, res model.Result) (err error) {
	defer func() { metrics.RecordArchiveWrite(err == nil) }()

	if res.VideoID == "" {
		return ErrEmptyVideoID
	}
	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("%w: encode result %s: %w", ErrArchive, res.VideoID, err)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO results (video_id, version, overall, incomplete, result_json, scored_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_id, version) DO UPDATE SET
			overall = excluded.overall,
			incomplete = excluded.incomplete,
			result_json = excluded.result_json,
			scored_at = excluded.scored_at
	`, res.VideoID, res.Version, res.Overall, res.Flags.Incomplete, string(body), a.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("%w: upsert %s@%s: %w", ErrArchive, res.VideoID, res.Version, err)
	}
	return nil
}

// History returns every archived result for videoID, newest first.
func (a *SQLiteArchive) History(ctx context.Context, videoID string) ([]Record, error) {
	var rows []Record
	err := a.db.SelectContext(ctx, &rows, `
		SELECT video_id, version, overall, incomplete, result_json, scored_at
		FROM results WHERE video_id = ?
		ORDER BY scored_at DESC, version DESC
	`, videoID)
	if err != nil {
		return nil, fmt.Errorf("%w: history %s: %w", ErrArchive, videoID, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	for i := range rows {
		rows[i].ScoredAt = time.UnixMilli(rows[i].ScoredAtMs).UTC()
		if err := json.Unmarshal([]byte(rows[i].ResultJSON), &rows[i].Result); err != nil {
			return nil, fmt.Errorf("%w: decode %s@%s: %w", ErrArchive, rows[i].VideoID, rows[i].Version, err)
		}
	}
	return rows, nil
}

// Close releases the database handle.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}

var _ Archive = (*SQLiteArchive)(nil)
