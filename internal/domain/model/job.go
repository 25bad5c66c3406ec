package model

import "time"

// Job is one scoring request travelling through the queue.
type Job struct {
	ID string
	// Key identifies the submission for deduplication: version, video and
	// content hash.
	Key string
	// Seq orders jobs of a single batch so results can be written back in
	// input order.
	Seq         int
	Document    Document
	SubmittedAt time.Time
}
