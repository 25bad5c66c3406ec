package scoring

import "github.com/okian/clipscore/internal/domain/model"

// OptionalFieldCount is the number of optional inputs the formulas consult.
const OptionalFieldCount = 7

// Optional is an explicit (value, present) pair.
type Optional[T any] struct {
	Value   T
	Present bool
}

func optional[T any](p *T) Optional[T] {
	if p == nil {
		return Optional[T]{}
	}
	return Optional[T]{Value: *p, Present: true}
}

// Presence holds every optional signal, resolved once per document.
type Presence struct {
	EffectivenessScore Optional[float64]
	BeatSyncScore      Optional[float64]
	AvgWatchPct        Optional[float64]
	CompletionRate     Optional[float64]
	Saves              Optional[int64]
	SaveWorthySignals  Optional[float64]
	PostTimeOptimal    Optional[bool]
}

// Resolve reads the optional fields of doc.
func Resolve(doc *model.Document) Presence {
	m := &doc.Measures
	return Presence{
		EffectivenessScore: optional(m.Hook.EffectivenessScore),
		BeatSyncScore:      optional(m.Audio.BeatSyncScore),
		AvgWatchPct:        optional(m.Watchtime.AvgWatchPct),
		CompletionRate:     optional(m.Watchtime.CompletionRate),
		Saves:              optional(m.Engagement.Saves),
		SaveWorthySignals:  optional(m.Shareability.SaveWorthySignals),
		PostTimeOptimal:    optional(m.Algo.PostTimeOptimal),
	}
}

// Missing returns the qualified names of absent fields in fixed order.
// The result is never nil so it serializes as an empty list.
func (p Presence) Missing() []string {
	missing := make([]string, 0, OptionalFieldCount)
	for _, f := range []struct {
		name    string
		present bool
	}{
		{"hook.effectiveness_score", p.EffectivenessScore.Present},
		{"audio.beat_sync_score", p.BeatSyncScore.Present},
		{"watchtime.avg_watch_pct", p.AvgWatchPct.Present},
		{"watchtime.completion_rate", p.CompletionRate.Present},
		{"engagement.saves", p.Saves.Present},
		{"shareability.save_worthy_signals", p.SaveWorthySignals.Present},
		{"algo.post_time_optimal", p.PostTimeOptimal.Present},
	} {
		if !f.present {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Confidence maps a missing-field count to [0,1]: 1 - missing/7.
func Confidence(missing int) float64 {
	return clamp(1-float64(missing)/OptionalFieldCount, 0, 1)
}
