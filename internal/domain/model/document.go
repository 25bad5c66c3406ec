// Package model contains the documents passed between the scoring engine
// and the layers around it.
package model

// Document is one scoring request: post metadata plus the features extracted
// upstream. Optional signals are pointers; nil means the extractor did not
// produce them.
type Document struct {
	Meta     Meta     `json:"meta" yaml:"meta"`
	Measures Measures `json:"measures" yaml:"measures"`
}

// Meta describes the post itself.
type Meta struct {
	VideoID     string  `json:"video_id" yaml:"video_id"`
	PostTimeISO string  `json:"post_time_iso" yaml:"post_time_iso"`
	Followers   uint64  `json:"followers" yaml:"followers"`
	LengthSec   float64 `json:"length_sec" yaml:"length_sec"`
}

// Measures holds one sub-document per dimension. Relatability has no
// sub-document of its own: it reads the hook text, the storyboard and the
// follower count.
type Measures struct {
	Hook         Hook         `json:"hook" yaml:"hook"`
	Story        Story        `json:"story" yaml:"story"`
	Visuals      Visuals      `json:"visuals" yaml:"visuals"`
	Audio        Audio        `json:"audio" yaml:"audio"`
	Watchtime    Watchtime    `json:"watchtime" yaml:"watchtime"`
	Engagement   Engagement   `json:"engagement" yaml:"engagement"`
	Shareability Shareability `json:"shareability" yaml:"shareability"`
	Algo         Algo         `json:"algo" yaml:"algo"`
}

// Hook describes the opening seconds of the video.
type Hook struct {
	DurationSec float64 `json:"duration_sec" yaml:"duration_sec"`
	// Type is a pipe-delimited tag list, e.g. "curiosity|authority".
	Type               string   `json:"type" yaml:"type"`
	Text               string   `json:"text" yaml:"text"`
	EffectivenessScore *float64 `json:"effectiveness_score,omitempty" yaml:"effectiveness_score,omitempty"`
}

// Story describes narrative structure.
type Story struct {
	BeatsCount  int64  `json:"beats_count" yaml:"beats_count"`
	ArcDetected bool   `json:"arc_detected" yaml:"arc_detected"`
	Storyboard  []Beat `json:"storyboard" yaml:"storyboard"`
}

// Beat is one storyboard segment.
type Beat struct {
	TimestampSec float64 `json:"timestamp_sec" yaml:"timestamp_sec"`
	DurationSec  float64 `json:"duration_sec" yaml:"duration_sec"`
	Description  string  `json:"description" yaml:"description"`
}

// Visuals describes on-screen text and editing pace.
type Visuals struct {
	TextOverlayPresent bool    `json:"text_overlay_present" yaml:"text_overlay_present"`
	OverlayCount       int64   `json:"overlay_count" yaml:"overlay_count"`
	EditRatePer10s     float64 `json:"edit_rate_per_10s" yaml:"edit_rate_per_10s"`
}

// Audio describes the soundtrack.
type Audio struct {
	TrendingSoundUsed    bool     `json:"trending_sound_used" yaml:"trending_sound_used"`
	OriginalSoundCreated bool     `json:"original_sound_created" yaml:"original_sound_created"`
	BeatSyncScore        *float64 `json:"beat_sync_score,omitempty" yaml:"beat_sync_score,omitempty"`
}

// Watchtime carries retention signals. Length comes from Meta.LengthSec.
type Watchtime struct {
	AvgWatchPct    *float64 `json:"avg_watch_pct,omitempty" yaml:"avg_watch_pct,omitempty"`
	CompletionRate *float64 `json:"completion_rate,omitempty" yaml:"completion_rate,omitempty"`
}

// Engagement carries raw interaction counts.
type Engagement struct {
	Views    int64  `json:"views" yaml:"views"`
	Likes    int64  `json:"likes" yaml:"likes"`
	Comments int64  `json:"comments" yaml:"comments"`
	Shares   int64  `json:"shares" yaml:"shares"`
	Saves    *int64 `json:"saves,omitempty" yaml:"saves,omitempty"`
}

// Shareability describes the caption and call to action.
type Shareability struct {
	Caption           string   `json:"caption" yaml:"caption"`
	HasCTA            bool     `json:"has_cta" yaml:"has_cta"`
	SaveWorthySignals *float64 `json:"save_worthy_signals,omitempty" yaml:"save_worthy_signals,omitempty"`
}

// Algo describes distribution hints for the platform ranker.
type Algo struct {
	HashtagCount      int64 `json:"hashtag_count" yaml:"hashtag_count"`
	HashtagNicheMixOK bool  `json:"hashtag_niche_mix_ok" yaml:"hashtag_niche_mix_ok"`
	PostTimeOptimal   *bool `json:"post_time_optimal,omitempty" yaml:"post_time_optimal,omitempty"`
}

// Float returns a pointer to v. Handy for building documents in code.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int64) *int64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
