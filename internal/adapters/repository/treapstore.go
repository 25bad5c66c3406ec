package repository

import (
	"context"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/okian/clipscore/internal/domain/model"
	"github.com/okian/clipscore/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: overall DESC, then video_id ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the leaderboard
// from best to worst. A second treap holds one node per distinct score and
// answers dense rank queries in O(log n).

// scoreScale keeps four decimals beyond the two reported on the wire.
const scoreScale = 1_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	return scoreFP(math.Round(x * scoreScale))
}

func toFloat(x scoreFP) float64 {
	return float64(x) / scoreScale
}

// record stores the fixed-point overall plus the metadata of a video's latest result.
type record struct {
	score      scoreFP
	version    string
	incomplete bool
}

// treap node
type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) should appear before (bScore, bID)
// in the leaderboard (higher ranks first).
func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score scoreFP) *node {
	if n == nil {
		return &node{id: id, score: score, prio: rand.Uint64(), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		// Rotate the higher-priority child up until the node is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// countBefore returns how many nodes order strictly before (score, id).
func countBefore(n *node, score scoreFP, id string) int {
	c := 0
	for n != nil {
		if less(n.score, n.id, score, id) {
			c += 1 + nsize(n.left)
			n = n.right
		} else {
			n = n.left
		}
	}
	return c
}

// collectTopN appends up to limit nodes in rank order.
func collectTopN(n *node, limit int, out []*node) []*node {
	if n == nil || len(out) >= limit {
		return out
	}
	out = collectTopN(n.left, limit, out)
	if len(out) < limit {
		out = append(out, n)
	}
	if len(out) < limit {
		out = collectTopN(n.right, limit, out)
	}
	return out
}

// TreapStore is a concurrency-safe in-memory leaderboard.
type TreapStore struct {
	mu       sync.RWMutex
	root     *node
	distinct *node
	counts   map[scoreFP]int
	byID     map[string]record
}

// NewTreapStore creates an empty leaderboard.
func NewTreapStore() *TreapStore {
	return &TreapStore{
		counts: make(map[scoreFP]int),
		byID:   make(map[string]record),
	}
}

// Put records the latest result for a video. Later writes replace earlier
// ones regardless of score.
func (s *TreapStore) Put(ctx context.Context, res model.Result) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	id := strings.TrimSpace(res.VideoID)
	if id == "" {
		return false, ErrEmptyVideoID
	}

	start := time.Now()
	rec := record{
		score:      toFixedPoint(res.Overall),
		version:    res.Version,
		incomplete: res.Flags.Incomplete,
	}

	s.mu.Lock()
	prev, ok := s.byID[id]
	if ok && prev == rec {
		s.mu.Unlock()
		return false, nil
	}
	if ok {
		s.root = deleteNode(s.root, id, prev.score)
		s.releaseScore(prev.score)
	}
	s.root = insert(s.root, id, rec.score)
	s.retainScore(rec.score)
	s.byID[id] = rec
	size := len(s.byID)
	s.mu.Unlock()

	metrics.RecordStoreUpdate(float64(time.Since(start).Microseconds()) / 1000)
	metrics.UpdateLeaderboardSize(size)
	return true, nil
}

func (s *TreapStore) retainScore(score scoreFP) {
	if s.counts[score] == 0 {
		s.distinct = insert(s.distinct, "", score)
	}
	s.counts[score]++
}

func (s *TreapStore) releaseScore(score scoreFP) {
	s.counts[score]--
	if s.counts[score] <= 0 {
		delete(s.counts, score)
		s.distinct = deleteNode(s.distinct, "", score)
	}
}

// denseRank is one plus the number of distinct scores above score.
// Callers must hold the lock.
func (s *TreapStore) denseRank(score scoreFP) int {
	return countBefore(s.distinct, score, "") + 1
}

// Rank returns the dense rank of a video.
func (s *TreapStore) Rank(ctx context.Context, videoID string) (model.Entry, error) {
	if err := ctx.Err(); err != nil {
		return model.Entry{}, err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreQuery(float64(time.Since(start).Microseconds()) / 1000) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[strings.TrimSpace(videoID)]
	if !ok {
		return model.Entry{}, ErrNotFound
	}
	return model.Entry{
		Rank:       s.denseRank(rec.score),
		VideoID:    videoID,
		Version:    rec.version,
		Overall:    toFloat(rec.score),
		Incomplete: rec.incomplete,
	}, nil
}

// TopN returns the best n entries with dense ranks; tied scores share a rank.
func (s *TreapStore) TopN(ctx context.Context, n int) ([]model.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	start := time.Now()
	defer func() { metrics.RecordStoreQuery(float64(time.Since(start).Microseconds()) / 1000) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	nodes := collectTopN(s.root, n, make([]*node, 0, min(n, len(s.byID))))
	out := make([]model.Entry, 0, len(nodes))
	rank := 0
	for i, nd := range nodes {
		if i == 0 || nd.score != nodes[i-1].score {
			rank++
		}
		rec := s.byID[nd.id]
		out = append(out, model.Entry{
			Rank:       rank,
			VideoID:    nd.id,
			Version:    rec.version,
			Overall:    toFloat(nd.score),
			Incomplete: rec.incomplete,
		})
	}
	return out, nil
}

// Count returns the number of tracked videos.
func (s *TreapStore) Count(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

var _ Store = (*TreapStore)(nil)
