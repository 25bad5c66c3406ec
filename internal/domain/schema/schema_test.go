package schema_test

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/okian/clipscore/internal/domain/schema"
	. "github.com/smartystreets/goconvey/convey"
)

const validDoc = `{
  "meta": {"video_id": "vid-1", "post_time_iso": "2025-03-14T18:30:00Z", "followers": 1200, "length_sec": 32.5},
  "measures": {
    "hook": {"duration_sec": 4, "type": "question", "text": "Did you know this?", "effectiveness_score": 7},
    "story": {"beats_count": 3, "arc_detected": true, "storyboard": [
      {"timestamp_sec": 0, "duration_sec": 4, "description": "intro"},
      {"timestamp_sec": 4, "duration_sec": 10, "description": "demo"}
    ]},
    "visuals": {"text_overlay_present": true, "overlay_count": 2, "edit_rate_per_10s": 1.5},
    "audio": {"trending_sound_used": false, "original_sound_created": true, "beat_sync_score": null},
    "watchtime": {"avg_watch_pct": 55},
    "engagement": {"views": 1000, "likes": 80, "comments": 4, "shares": 2},
    "shareability": {"caption": "A caption", "has_cta": false},
    "algo": {"hashtag_count": 3, "hashtag_niche_mix_ok": true},
    "extractor_version": "2024.11"
  }
}`

func TestParse(t *testing.T) {
	Convey("Given the document parser", t, func() {
		p, err := schema.NewParser()
		So(err, ShouldBeNil)

		Convey("When the document satisfies the contract", func() {
			doc, err := p.Parse([]byte(validDoc))

			Convey("Then it decodes every field", func() {
				So(err, ShouldBeNil)
				So(doc.Meta.VideoID, ShouldEqual, "vid-1")
				So(doc.Meta.Followers, ShouldEqual, 1200)
				So(doc.Meta.LengthSec, ShouldEqual, 32.5)
				So(doc.Measures.Story.Storyboard, ShouldHaveLength, 2)
				So(*doc.Measures.Hook.EffectivenessScore, ShouldEqual, 7)
				So(*doc.Measures.Watchtime.AvgWatchPct, ShouldEqual, 55)
			})

			Convey("And null or absent optionals stay nil", func() {
				So(doc.Measures.Audio.BeatSyncScore, ShouldBeNil)
				So(doc.Measures.Watchtime.CompletionRate, ShouldBeNil)
				So(doc.Measures.Engagement.Saves, ShouldBeNil)
				So(doc.Measures.Algo.PostTimeOptimal, ShouldBeNil)
			})
		})

		Convey("When the input is not JSON", func() {
			_, err := p.Parse([]byte(`{"meta": `))

			Convey("Then it reports malformed input", func() {
				So(errors.Is(err, schema.ErrMalformed), ShouldBeTrue)
				So(errors.Is(err, schema.ErrSchema), ShouldBeFalse)
			})
		})

		Convey("When a required field is missing", func() {
			broken := strings.Replace(validDoc, `"followers": 1200, `, "", 1)
			_, err := p.Parse([]byte(broken))

			Convey("Then it reports a schema violation on that field", func() {
				So(errors.Is(err, schema.ErrSchema), ShouldBeTrue)
				fields := schema.Fields(err)
				So(fields, ShouldNotBeEmpty)
				So(fields[0].Path, ShouldEqual, "meta.followers")
			})
		})

		Convey("When a field has the wrong type", func() {
			broken := strings.Replace(validDoc, `"arc_detected": true`, `"arc_detected": "yes"`, 1)
			_, err := p.Parse([]byte(broken))

			Convey("Then the violation names the field", func() {
				So(errors.Is(err, schema.ErrSchema), ShouldBeTrue)
				paths := make([]string, 0)
				for _, f := range schema.Fields(err) {
					paths = append(paths, f.Path)
				}
				So(paths, ShouldContain, "measures.story.arc_detected")
			})
		})

		Convey("When a count is negative", func() {
			broken := strings.Replace(validDoc, `"likes": 80`, `"likes": -3`, 1)
			_, err := p.Parse([]byte(broken))

			Convey("Then it is rejected", func() {
				So(errors.Is(err, schema.ErrSchema), ShouldBeTrue)
			})
		})

		Convey("When a nested count has the wrong type", func() {
			broken := strings.Replace(validDoc, `"views": 1000`, `"views": "many"`, 1)
			_, err := p.Parse([]byte(broken))

			Convey("Then the path is the document path of the field", func() {
				So(errors.Is(err, schema.ErrSchema), ShouldBeTrue)
				fields := schema.Fields(err)
				So(fields, ShouldNotBeEmpty)
				So(fields[0].Path, ShouldEqual, "measures.engagement.views")
				for _, f := range fields {
					So(f.Path, ShouldNotStartWith, "#")
				}
			})
		})

		Convey("When a count is written as an integral float", func() {
			doc := strings.Replace(validDoc, `"views": 1000`, `"views": 1000.0`, 1)
			doc = strings.Replace(doc, `"followers": 1200`, `"followers": 1.2e3`, 1)
			parsed, err := p.Parse([]byte(doc))

			Convey("Then it decodes as the integer", func() {
				So(err, ShouldBeNil)
				So(parsed.Measures.Engagement.Views, ShouldEqual, 1000)
				So(parsed.Meta.Followers, ShouldEqual, 1200)
				So(parsed.Meta.LengthSec, ShouldEqual, 32.5)
			})
		})

		Convey("When a count has a fractional part", func() {
			broken := strings.Replace(validDoc, `"views": 1000`, `"views": 1000.5`, 1)
			_, err := p.Parse([]byte(broken))

			Convey("Then it is rejected on that field", func() {
				So(errors.Is(err, schema.ErrSchema), ShouldBeTrue)
				So(schema.Fields(err)[0].Path, ShouldEqual, "measures.engagement.views")
			})
		})

		Convey("When continuous measures are negative", func() {
			doc := strings.Replace(validDoc, `"length_sec": 32.5`, `"length_sec": -4`, 1)
			doc = strings.Replace(doc, `"edit_rate_per_10s": 1.5`, `"edit_rate_per_10s": -0.5`, 1)
			doc = strings.Replace(doc, `"hook": {"duration_sec": 4`, `"hook": {"duration_sec": -1`, 1)
			doc = strings.Replace(doc, `{"timestamp_sec": 0, "duration_sec": 4`, `{"timestamp_sec": -2, "duration_sec": -4`, 1)
			parsed, err := p.Parse([]byte(doc))

			Convey("Then the document is accepted as written", func() {
				So(err, ShouldBeNil)
				So(parsed.Meta.LengthSec, ShouldEqual, -4)
				So(parsed.Measures.Visuals.EditRatePer10s, ShouldEqual, -0.5)
				So(parsed.Measures.Hook.DurationSec, ShouldEqual, -1)
				So(parsed.Measures.Story.Storyboard[0].TimestampSec, ShouldEqual, -2)
			})
		})

		Convey("When the post time is not RFC 3339", func() {
			broken := strings.Replace(validDoc, `2025-03-14T18:30:00Z`, `yesterday`, 1)
			_, err := p.Parse([]byte(broken))

			Convey("Then it is rejected with the field path", func() {
				So(errors.Is(err, schema.ErrSchema), ShouldBeTrue)
				So(schema.Fields(err)[0].Path, ShouldEqual, "meta.post_time_iso")
			})
		})

		Convey("When a required sub-document is absent", func() {
			broken := strings.Replace(validDoc, `"algo": {"hashtag_count": 3, "hashtag_niche_mix_ok": true},`, "", 1)
			_, err := p.Parse([]byte(broken))

			Convey("Then it is rejected", func() {
				So(errors.Is(err, schema.ErrSchema), ShouldBeTrue)
			})
		})

		Convey("When many goroutines parse at once", func() {
			var wg sync.WaitGroup
			errs := make(chan error, 32)
			for i := 0; i < 32; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := p.Parse([]byte(validDoc)); err != nil {
						errs <- err
					}
				}()
			}
			wg.Wait()
			close(errs)

			Convey("Then every parse succeeds", func() {
				So(len(errs), ShouldEqual, 0)
			})
		})
	})
}

func TestValidationErrorMessage(t *testing.T) {
	Convey("Given a validation error with two fields", t, func() {
		err := &schema.ValidationError{Fields: []schema.FieldError{
			{Path: "meta.video_id", Message: "incomplete value string"},
			{Path: "measures.hook", Message: "field is required"},
		}}

		Convey("Then the message lists both and unwraps to ErrSchema", func() {
			So(err.Error(), ShouldContainSubstring, "meta.video_id: incomplete value string")
			So(err.Error(), ShouldContainSubstring, "measures.hook: field is required")
			So(errors.Is(err, schema.ErrSchema), ShouldBeTrue)
		})
	})
}

func TestKind(t *testing.T) {
	Convey("Kind maps errors onto the taxonomy", t, func() {
		So(schema.Kind(fmt.Errorf("wrap: %w", schema.ErrMalformed)), ShouldEqual, schema.KindMalformed)
		So(schema.Kind(&schema.ValidationError{}), ShouldEqual, schema.KindSchema)
		So(schema.Kind(errors.New("boom")), ShouldEqual, schema.KindInternal)
	})
}
