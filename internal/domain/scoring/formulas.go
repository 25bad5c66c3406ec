package scoring

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/okian/clipscore/internal/domain/model"
)

const (
	baseline = 50.0
	minScore = 0.0
	maxScore = 100.0
)

// Adjustment is one rule that moved a subscore away from the baseline.
type Adjustment struct {
	Rule   string  `json:"rule" yaml:"rule"`
	Points float64 `json:"points" yaml:"points"`
}

// Subscore is a clamped dimension score with the rules that produced it.
type Subscore struct {
	Value       float64      `json:"value" yaml:"value"`
	Adjustments []Adjustment `json:"adjustments" yaml:"adjustments"`
}

// Formula computes one dimension.
type Formula func(doc *model.Document, p Presence) Subscore

// formulaFor returns the formula scoring d, or nil for an unknown dimension.
func formulaFor(d model.Dimension) Formula {
	switch d {
	case model.DimHook:
		return HookScore
	case model.DimStory:
		return StoryScore
	case model.DimRelatability:
		return RelatabilityScore
	case model.DimVisuals:
		return VisualsScore
	case model.DimAudio:
		return AudioScore
	case model.DimWatchtime:
		return WatchtimeScore
	case model.DimEngagement:
		return EngagementScore
	case model.DimShareability:
		return ShareabilityScore
	case model.DimAlgo:
		return AlgoScore
	}
	return nil
}

type trail []Adjustment

func (t *trail) add(rule string, points float64) {
	if points == 0 {
		return
	}
	*t = append(*t, Adjustment{Rule: rule, Points: points})
}

func (t trail) subscore() Subscore {
	v := baseline
	for _, a := range t {
		v += a.Points
	}
	if t == nil {
		t = trail{}
	}
	return Subscore{Value: clamp(v, minScore, maxScore), Adjustments: t}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

var hookTagPoints = map[string]float64{
	"shock":     12,
	"curiosity": 12,
	"authority": 8,
	"question":  10,
	"promise":   8,
}

// HookScore rates the opening: its duration, its tags, the optional
// effectiveness rating and whether it carries text.
func HookScore(doc *model.Document, p Presence) Subscore {
	h := doc.Measures.Hook
	var t trail

	switch d := h.DurationSec; {
	case d >= 3 && d <= 5:
		t.add("hook duration 3-5s", 20)
	case d < 2:
		t.add("hook shorter than 2s", -15)
	case d > 7:
		t.add("hook longer than 7s", -10)
	default:
		t.add("hook duration 2-3s or 5-7s", 10)
	}

	seen := make(map[string]bool)
	for _, tag := range strings.Split(h.Type, "|") {
		tag = strings.ToLower(strings.TrimSpace(tag))
		pts, ok := hookTagPoints[tag]
		if !ok || seen[tag] {
			continue
		}
		seen[tag] = true
		t.add("hook type "+tag, pts)
	}

	if p.EffectivenessScore.Present {
		t.add("hook effectiveness", (p.EffectivenessScore.Value-5)*2)
	}
	if utf8.RuneCountInString(strings.TrimSpace(h.Text)) > 5 {
		t.add("hook has text", 5)
	}
	return t.subscore()
}

// StoryScore rates narrative structure and pacing consistency.
func StoryScore(doc *model.Document, _ Presence) Subscore {
	s := doc.Measures.Story
	var t trail

	switch {
	case s.BeatsCount >= 5:
		t.add("5+ story beats", 20)
	case s.BeatsCount >= 3:
		t.add("3-4 story beats", 15)
	case s.BeatsCount >= 1:
		t.add("1-2 story beats", 8)
	}
	if s.ArcDetected {
		t.add("story arc detected", 15)
	}
	if len(s.Storyboard) >= 3 {
		durations := make([]float64, len(s.Storyboard))
		for i, b := range s.Storyboard {
			durations[i] = b.DurationSec
		}
		switch sd := stddev(durations); {
		case sd < 2:
			t.add("even pacing (stddev < 2s)", 10)
		case sd < 4:
			t.add("steady pacing (stddev < 4s)", 5)
		}
	}
	return t.subscore()
}

var (
	directAddress   = map[string]bool{"you": true, "your": true}
	emotionalWords  = map[string]bool{"love": true, "hate": true, "fear": true, "excited": true, "worried": true, "shocked": true, "surprised": true}
	commonScenarios = map[string]bool{"everyday": true, "daily": true, "common": true, "typical": true, "normal": true, "usual": true, "regular": true}
)

// RelatabilityScore rates how personal the hook reads and how familiar the
// scenario is, with a boost for smaller creators.
func RelatabilityScore(doc *model.Document, _ Presence) Subscore {
	var t trail

	var you, emotional int
	for _, tok := range tokenize(doc.Measures.Hook.Text) {
		if directAddress[tok] {
			you++
		}
		if emotionalWords[tok] {
			emotional++
		}
	}
	t.add("direct address", math.Min(float64(you)*5, 15))
	t.add("emotional triggers", math.Min(float64(emotional)*4, 12))

	var common int
	for _, b := range doc.Measures.Story.Storyboard {
		for _, tok := range tokenize(b.Description) {
			if commonScenarios[tok] {
				common++
			}
		}
	}
	t.add("common scenario", math.Min(float64(common)*3, 10))

	switch f := doc.Meta.Followers; {
	case f < 10_000:
		t.add("creator under 10k followers", 8)
	case f < 100_000:
		t.add("creator under 100k followers", 5)
	}
	return t.subscore()
}

// VisualsScore rates on-screen text and edit pace.
func VisualsScore(doc *model.Document, _ Presence) Subscore {
	v := doc.Measures.Visuals
	var t trail

	if v.TextOverlayPresent {
		t.add("text overlay present", 15)
	}
	switch {
	case v.OverlayCount >= 5:
		t.add("5+ overlays", 15)
	case v.OverlayCount >= 2:
		t.add("2-4 overlays", 10)
	case v.OverlayCount == 1:
		t.add("1 overlay", 5)
	}
	switch r := v.EditRatePer10s; {
	case r >= 3:
		t.add("fast edits (3+/10s)", 15)
	case r >= 1.5:
		t.add("moderate edits (1.5+/10s)", 10)
	case r > 0:
		t.add("some edits", 5)
	}
	return t.subscore()
}

// AudioScore rates sound choice and beat alignment.
func AudioScore(doc *model.Document, p Presence) Subscore {
	a := doc.Measures.Audio
	var t trail

	if a.TrendingSoundUsed {
		t.add("trending sound", 25)
	}
	if a.OriginalSoundCreated {
		t.add("original sound", 20)
	}
	if p.BeatSyncScore.Present {
		t.add("beat sync", p.BeatSyncScore.Value/10*15)
	}
	if !a.TrendingSoundUsed && !a.OriginalSoundCreated {
		t.add("neither trending nor original sound", -10)
	}
	return t.subscore()
}

// WatchtimeScore rates video length and the optional retention signals.
func WatchtimeScore(doc *model.Document, p Presence) Subscore {
	var t trail

	switch l := doc.Meta.LengthSec; {
	case l > 90:
		t.add("length over 90s", -15)
	case l > 60:
	case l > 45:
		t.add("length 45-60s", 10)
	case l >= 15:
		t.add("length 15-45s", 25)
	case l >= 10:
		t.add("length 10-15s", 15)
	default:
		t.add("length under 10s", -10)
	}

	if p.AvgWatchPct.Present {
		switch w := p.AvgWatchPct.Value; {
		case w >= 80:
			t.add("avg watch 80%+", 20)
		case w >= 60:
			t.add("avg watch 60%+", 15)
		case w >= 40:
			t.add("avg watch 40%+", 10)
		default:
			t.add("avg watch under 40%", -5)
		}
	}
	if p.CompletionRate.Present {
		switch c := p.CompletionRate.Value; {
		case c >= 70:
			t.add("completion 70%+", 15)
		case c >= 50:
			t.add("completion 50%+", 10)
		case c >= 30:
			t.add("completion 30%+", 5)
		}
	}
	return t.subscore()
}

// EngagementScore rates interactions as a percentage of views.
func EngagementScore(doc *model.Document, p Presence) Subscore {
	e := doc.Measures.Engagement
	var t trail

	switch r := rate(e.Likes, e.Views); {
	case r >= 10:
		t.add("like rate 10%+", 20)
	case r >= 5:
		t.add("like rate 5%+", 15)
	case r >= 3:
		t.add("like rate 3%+", 10)
	case r >= 1:
		t.add("like rate 1%+", 5)
	}
	switch r := rate(e.Comments, e.Views); {
	case r >= 1:
		t.add("comment rate 1%+", 15)
	case r >= 0.5:
		t.add("comment rate 0.5%+", 10)
	case r >= 0.2:
		t.add("comment rate 0.2%+", 5)
	}
	switch r := rate(e.Shares, e.Views); {
	case r >= 1:
		t.add("share rate 1%+", 15)
	case r >= 0.5:
		t.add("share rate 0.5%+", 10)
	case r >= 0.2:
		t.add("share rate 0.2%+", 5)
	}
	if p.Saves.Present && p.Saves.Value > 0 {
		switch r := rate(p.Saves.Value, e.Views); {
		case r >= 1:
			t.add("save rate 1%+", 10)
		case r >= 0.5:
			t.add("save rate 0.5%+", 5)
		}
	}
	return t.subscore()
}

// ShareabilityScore rates the caption, the call to action and how
// save-worthy the content is.
func ShareabilityScore(doc *model.Document, p Presence) Subscore {
	s := doc.Measures.Shareability
	var t trail

	switch n := utf8.RuneCountInString(s.Caption); {
	case n > 200:
		t.add("caption over 200 chars", -5)
	case n >= 100 && n <= 150:
		t.add("caption 100-150 chars", 15)
	case n >= 50 && n < 100:
		t.add("caption 50-99 chars", 10)
	case n >= 20 && n < 50:
		t.add("caption 20-49 chars", 5)
	}
	if s.HasCTA {
		t.add("call to action", 15)
	}
	if p.SaveWorthySignals.Present {
		t.add("save-worthy signals", p.SaveWorthySignals.Value/10*20)
	}
	return t.subscore()
}

// AlgoScore rates hashtag use, caption length and posting time.
func AlgoScore(doc *model.Document, p Presence) Subscore {
	a := doc.Measures.Algo
	var t trail

	switch h := a.HashtagCount; {
	case h >= 3 && h <= 5:
		t.add("3-5 hashtags", 20)
	case h >= 1 && h <= 2:
		t.add("1-2 hashtags", 10)
	case h >= 6 && h <= 8:
		t.add("6-8 hashtags", 5)
	case h > 8:
		t.add("more than 8 hashtags", -10)
	}
	if a.HashtagNicheMixOK {
		t.add("niche hashtag mix", 15)
	}
	switch n := utf8.RuneCountInString(doc.Measures.Shareability.Caption); {
	case n >= 50:
		t.add("caption 50+ chars", 10)
	case n >= 20:
		t.add("caption 20+ chars", 5)
	}
	if p.PostTimeOptimal.Present && p.PostTimeOptimal.Value {
		t.add("optimal post time", 10)
	}
	return t.subscore()
}

func rate(count, views int64) float64 {
	if views <= 0 {
		return 0
	}
	return float64(count) * 100 / float64(views)
}

// stddev is the population standard deviation.
func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return math.Sqrt(sq / float64(len(xs)))
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
