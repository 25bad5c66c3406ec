package repository

import "time"

// ArchiveOption configures a SQLiteArchive.
type ArchiveOption func(*SQLiteArchive)

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) ArchiveOption {
	return func(a *SQLiteArchive) {
		if d > 0 {
			a.busyTimeout = d
		}
	}
}

// WithClock overrides the time source used for scored_at.
func WithClock(now func() time.Time) ArchiveOption {
	return func(a *SQLiteArchive) {
		if now != nil {
			a.now = now
		}
	}
}
