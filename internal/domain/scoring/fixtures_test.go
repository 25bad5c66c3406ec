package scoring_test

import "github.com/okian/clipscore/internal/domain/model"

const sampleCaption = "Stop skipping this one step in your morning routine. Save this for tomorrow and share it with a friend who needs it. #routine"

// fullSample is a well-optimized video with every optional field present.
func fullSample() *model.Document {
	return &model.Document{
		Meta: model.Meta{
			VideoID:     "vid-sample-001",
			PostTimeISO: "2025-03-14T18:30:00Z",
			Followers:   250_000,
			LengthSec:   35,
		},
		Measures: model.Measures{
			Hook: model.Hook{
				DurationSec:        4.5,
				Type:               "curiosity|authority",
				Text:               "Are you making this mistake with your morning routine?",
				EffectivenessScore: model.Float(8.5),
			},
			Story: model.Story{
				BeatsCount: 3,
				Storyboard: []model.Beat{
					{TimestampSec: 0, DurationSec: 4, Description: "Host shows a daily habit"},
					{TimestampSec: 4, DurationSec: 8, Description: "Close-up of the coffee setup"},
					{TimestampSec: 12, DurationSec: 10, Description: "Result reveal with text overlay"},
				},
			},
			Visuals: model.Visuals{TextOverlayPresent: true, OverlayCount: 1, EditRatePer10s: 1.0},
			Audio: model.Audio{
				TrendingSoundUsed: true,
				BeatSyncScore:     model.Float(2.5),
			},
			Watchtime: model.Watchtime{
				AvgWatchPct:    model.Float(82),
				CompletionRate: model.Float(71),
			},
			Engagement: model.Engagement{
				Views:    200_000,
				Likes:    12_000,
				Comments: 1_200,
				Shares:   1_200,
				Saves:    model.Int(1_600),
			},
			Shareability: model.Shareability{
				Caption:           sampleCaption,
				HasCTA:            true,
				SaveWorthySignals: model.Float(5),
			},
			Algo: model.Algo{
				HashtagCount:      4,
				HashtagNicheMixOK: true,
				PostTimeOptimal:   model.Bool(true),
			},
		},
	}
}

// bareDocument has every optional field omitted.
func bareDocument() *model.Document {
	d := fullSample()
	d.Measures.Hook.EffectivenessScore = nil
	d.Measures.Audio.BeatSyncScore = nil
	d.Measures.Watchtime = model.Watchtime{}
	d.Measures.Engagement.Saves = nil
	d.Measures.Shareability.SaveWorthySignals = nil
	d.Measures.Algo.PostTimeOptimal = nil
	return d
}
