package scoring

import (
	"unicode/utf8"

	"github.com/okian/clipscore/internal/domain/model"
)

// Each factor reads its own inputs only, so changing one trigger never
// moves another factor.

// SpamIndicators penalises hashtag stuffing, capped at 10.
func SpamIndicators(doc *model.Document) float64 {
	var p float64
	if doc.Measures.Algo.HashtagCount > 10 {
		p += 5
	}
	if doc.Measures.Algo.HashtagCount > 15 {
		p += 5
	}
	return p
}

// LowQualitySignals penalises captions that are too short or too long.
func LowQualitySignals(doc *model.Document) float64 {
	var p float64
	n := utf8.RuneCountInString(doc.Measures.Shareability.Caption)
	if n < 10 {
		p += 5
	}
	if n > 300 {
		p += 5
	}
	return p
}

// ExcessiveLength penalises long videos; the worst band wins.
func ExcessiveLength(doc *model.Document) float64 {
	switch l := doc.Meta.LengthSec; {
	case l > 120:
		return 10
	case l > 90:
		return 5
	}
	return 0
}

// PoorFormatting penalises videos over 10s with no text overlay.
func PoorFormatting(doc *model.Document) float64 {
	if !doc.Measures.Visuals.TextOverlayPresent && doc.Meta.LengthSec > 10 {
		return 3
	}
	return 0
}

// Penalties computes all four factors.
func Penalties(doc *model.Document) model.PenaltyBreakdown {
	return model.PenaltyBreakdown{
		SpamIndicators:    SpamIndicators(doc),
		LowQualitySignals: LowQualitySignals(doc),
		ExcessiveLength:   ExcessiveLength(doc),
		PoorFormatting:    PoorFormatting(doc),
	}
}
