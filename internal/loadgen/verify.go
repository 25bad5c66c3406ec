package loadgen

import (
	"math"
	"sort"

	"github.com/okian/clipscore/internal/domain/model"
)

// scoreTolerance absorbs the fixed-point round trip of the leaderboard.
const scoreTolerance = 0.005

// verifyScores counts ranked videos whose served overall differs from the
// locally computed one.
func verifyScores(videos map[string]Video, ranks map[string]model.Entry) int {
	var mismatches int
	for id, e := range ranks {
		if v, ok := videos[id]; ok && math.Abs(v.Expected-e.Overall) > scoreTolerance {
			mismatches++
		}
	}
	return mismatches
}

// verifyRanks checks that rank order agrees with score order: a higher
// overall never has a worse rank and equal overalls share a rank.
func verifyRanks(ranks map[string]model.Entry) int {
	entries := make([]model.Entry, 0, len(ranks))
	for _, e := range ranks {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Overall != entries[j].Overall {
			return entries[i].Overall > entries[j].Overall
		}
		return entries[i].VideoID < entries[j].VideoID
	})
	var violations int
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		switch {
		case prev.Overall == cur.Overall && prev.Rank != cur.Rank:
			violations++
		case prev.Overall > cur.Overall && prev.Rank >= cur.Rank:
			violations++
		}
	}
	return violations
}

// verifyLeaderboard checks the served top-N is ordered and densely ranked
// from 1.
func verifyLeaderboard(entries []model.Entry) int {
	var violations int
	for i, e := range entries {
		if i == 0 {
			if e.Rank != 1 {
				violations++
			}
			continue
		}
		prev := entries[i-1]
		switch {
		case e.Overall > prev.Overall:
			violations++
		case e.Overall == prev.Overall && (e.Rank != prev.Rank || e.VideoID < prev.VideoID):
			violations++
		case e.Overall < prev.Overall && e.Rank != prev.Rank+1:
			violations++
		}
	}
	return violations
}
