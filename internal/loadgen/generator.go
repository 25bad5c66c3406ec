package loadgen

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/okian/clipscore/internal/domain/model"
	"github.com/okian/clipscore/internal/domain/scoring"
)

const randomFloatDivisor = 1_000_000

// Quality tiers. Sparse tiers omit every optional signal.
var tiers = []struct {
	name   string
	lo, hi float64
	sparse bool
}{
	{"elite", 0.9, 1.0, false},
	{"strong", 0.7, 0.9, false},
	{"average", 0.4, 0.7, false},
	{"average", 0.4, 0.7, false},
	{"weak", 0.1, 0.4, false},
	{"sparse", 0.3, 0.8, true},
}

// Video is one generated document and the overall the engine gives it locally.
type Video struct {
	Tier     string
	Document model.Document
	Expected float64
}

// getRandomFloat returns a value in [0,1) from crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / randomFloatDivisor
}

func randomIndex(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// Generate creates n documents with unique video ids spread across the
// quality tiers and scores each with engine.
func Generate(n int, engine *scoring.Engine) []Video {
	videos := make([]Video, n)
	for i := range videos {
		t := tiers[randomIndex(len(tiers))]
		q := t.lo + getRandomFloat()*(t.hi-t.lo)
		doc := generateDocument(uuid.NewString(), q, t.sparse)
		videos[i] = Video{
			Tier:     t.name,
			Document: doc,
			Expected: engine.Score(&doc).Overall,
		}
	}
	return videos
}

// generateDocument maps a quality level q in [0,1] onto every input signal.
func generateDocument(id string, q float64, sparse bool) model.Document {
	length := 15 + (1-q)*90
	views := int64(1_000 + randomIndex(50_000))
	rate := func(scale float64) int64 { return int64(float64(views) * q * scale) }

	beats := int64(1 + q*4)
	storyboard := make([]model.Beat, 0, beats)
	var ts float64
	for b := int64(0); b < beats; b++ {
		d := length / float64(beats) * (0.8 + getRandomFloat()*0.4*(1-q))
		storyboard = append(storyboard, model.Beat{
			TimestampSec: ts,
			DurationSec:  d,
			Description:  fmt.Sprintf("beat %d you can relate to", b+1),
		})
		ts += d
	}

	hookTypes := []string{"question", "curiosity|authority", "shock", "story", "tutorial"}
	doc := model.Document{
		Meta: model.Meta{
			VideoID:     id,
			PostTimeISO: "2025-03-14T18:30:00Z",
			Followers:   uint64(500 + randomIndex(200_000)),
			LengthSec:   length,
		},
		Measures: model.Measures{
			Hook: model.Hook{
				DurationSec: 1 + (1-q)*5,
				Type:        hookTypes[randomIndex(len(hookTypes))],
				Text:        "Did you know you have been doing this wrong?",
			},
			Story: model.Story{
				BeatsCount:  beats,
				ArcDetected: q > 0.5,
				Storyboard:  storyboard,
			},
			Visuals: model.Visuals{
				TextOverlayPresent: q > 0.3,
				OverlayCount:       int64(q * 4),
				EditRatePer10s:     0.5 + q*2.5,
			},
			Audio: model.Audio{
				TrendingSoundUsed:    q > 0.6,
				OriginalSoundCreated: q > 0.8,
			},
			Engagement: model.Engagement{
				Views:    views,
				Likes:    rate(0.15),
				Comments: rate(0.02),
				Shares:   rate(0.03),
			},
			Shareability: model.Shareability{
				Caption: "Save this for later and share it with a friend #tips #learn",
				HasCTA:  q > 0.5,
			},
			Algo: model.Algo{
				HashtagCount:      int64(2 + randomIndex(4)),
				HashtagNicheMixOK: q > 0.4,
			},
		},
	}
	if sparse {
		return doc
	}

	m := &doc.Measures
	m.Hook.EffectivenessScore = model.Float(q * 10)
	m.Audio.BeatSyncScore = model.Float(q)
	m.Watchtime.AvgWatchPct = model.Float(20 + q*70)
	m.Watchtime.CompletionRate = model.Float(10 + q*60)
	m.Engagement.Saves = model.Int(rate(0.04))
	m.Shareability.SaveWorthySignals = model.Float(q * 5)
	m.Algo.PostTimeOptimal = model.Bool(q > 0.5)
	return doc
}
