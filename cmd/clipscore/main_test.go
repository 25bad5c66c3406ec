package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/clipscore/internal/domain/model"
	"github.com/okian/clipscore/internal/domain/normalize"
	"github.com/okian/clipscore/internal/domain/scoring"
)

func videoDoc(id string, likes int) string {
	return fmt.Sprintf(`{"meta": {"video_id": %q, "post_time_iso": "2025-03-14T18:30:00Z", "followers": 1200, "length_sec": 32.5},
"measures": {
"hook": {"duration_sec": 2, "type": "question", "text": "Did you know this?", "effectiveness_score": 7},
"story": {"beats_count": 3, "arc_detected": true, "storyboard": []},
"visuals": {"text_overlay_present": true, "overlay_count": 2, "edit_rate_per_10s": 1.5},
"audio": {"trending_sound_used": false, "original_sound_created": true, "beat_sync_score": 0.8},
"watchtime": {"avg_watch_pct": 55, "completion_rate": 40},
"engagement": {"views": 1000, "likes": %d, "comments": 4, "shares": 2, "saves": 10},
"shareability": {"caption": "Save this one", "has_cta": true, "save_worthy_signals": 2},
"algo": {"hashtag_count": 3, "hashtag_niche_mix_ok": true, "post_time_optimal": true}}}`, id, likes)
}

// compact folds a document onto one line for JSON Lines input.
func compact(doc string) string {
	var b bytes.Buffer
	So(json.Compact(&b, []byte(doc)), ShouldBeNil)
	return b.String()
}

type run struct {
	code   int
	stdout string
	stderr string
}

func runCLI(stdin string, args ...string) run {
	var out, errOut bytes.Buffer
	code := execute(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return run{code: code, stdout: out.String(), stderr: errOut.String()}
}

func jsonLines(s string) []map[string]any {
	var lines []map[string]any
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		var m map[string]any
		So(json.Unmarshal(sc.Bytes(), &m), ShouldBeNil)
		lines = append(lines, m)
	}
	return lines
}

func TestScoreCommand(t *testing.T) {
	Convey("Given the score command", t, func() {
		Convey("When a valid document is piped in", func() {
			r := runCLI(videoDoc("vid-1", 50))

			Convey("Then one result is written to stdout", func() {
				So(r.code, ShouldEqual, 0)
				So(strings.HasSuffix(r.stdout, "\n"), ShouldBeTrue)

				var res model.Result
				So(json.Unmarshal([]byte(r.stdout), &res), ShouldBeNil)
				So(res.VideoID, ShouldEqual, "vid-1")
				So(res.Version, ShouldEqual, scoring.Version)
				So(res.Overall, ShouldBeBetweenOrEqual, 0, 100)
				So(res.Normalized, ShouldBeNil)
			})
		})

		Convey("When the explicit subcommand is used", func() {
			direct := runCLI(videoDoc("vid-1", 50))
			sub := runCLI(videoDoc("vid-1", 50), "score")

			Convey("Then the output is identical", func() {
				So(sub.code, ShouldEqual, 0)
				So(sub.stdout, ShouldEqual, direct.stdout)
			})
		})

		Convey("When the input is not JSON", func() {
			r := runCLI(`{"meta": `)

			Convey("Then it exits 1 with a malformed_input body", func() {
				So(r.code, ShouldEqual, 1)
				So(r.stdout, ShouldBeEmpty)

				var body map[string]any
				So(json.Unmarshal([]byte(r.stderr), &body), ShouldBeNil)
				So(body["kind"], ShouldEqual, "malformed_input")
				So(body["error"], ShouldNotBeEmpty)
				So(body, ShouldNotContainKey, "stack")
			})
		})

		Convey("When a required field is missing", func() {
			doc := strings.Replace(videoDoc("vid-1", 50), `"followers": 1200, `, "", 1)
			r := runCLI(doc)

			Convey("Then it exits 2 with the failing field", func() {
				So(r.code, ShouldEqual, 2)

				var body failure
				So(json.Unmarshal([]byte(r.stderr), &body), ShouldBeNil)
				So(body.Kind, ShouldEqual, "schema_violation")
				So(body.Fields, ShouldNotBeEmpty)
				So(body.Fields[0].Path, ShouldEqual, "meta.followers")
			})
		})

		Convey("When --stack is given", func() {
			r := runCLI(`not json`, "--stack")

			Convey("Then the body carries a stack trace", func() {
				So(r.code, ShouldEqual, 1)
				var body failure
				So(json.Unmarshal([]byte(r.stderr), &body), ShouldBeNil)
				So(body.Stack, ShouldContainSubstring, "runScore")
			})
		})

		Convey("When text output is requested", func() {
			r := runCLI(videoDoc("vid-1", 50), "--format", "text")

			Convey("Then every dimension is listed", func() {
				So(r.code, ShouldEqual, 0)
				So(r.stdout, ShouldContainSubstring, "Overall:")
				for _, d := range model.Dimensions {
					So(r.stdout, ShouldContainSubstring, string(d))
				}
			})
		})

		Convey("When yaml output is requested", func() {
			r := runCLI(videoDoc("vid-1", 50), "--format", "yaml")

			Convey("Then the result is rendered as YAML", func() {
				So(r.code, ShouldEqual, 0)
				So(r.stdout, ShouldContainSubstring, "video_id: vid-1")
			})
		})

		Convey("When --explain is given", func() {
			r := runCLI(videoDoc("vid-1", 50), "--explain")

			Convey("Then the rule trail of every dimension follows the result", func() {
				So(r.code, ShouldEqual, 0)
				var exp scoring.Explanation
				So(json.Unmarshal([]byte(r.stdout), &exp), ShouldBeNil)
				So(exp.Result.VideoID, ShouldEqual, "vid-1")
				So(exp.Dimensions, ShouldHaveLength, len(model.Dimensions))
				So(r.stdout, ShouldContainSubstring, `"adjustments"`)
			})
		})

		Convey("When --explain is combined with yaml output", func() {
			r := runCLI(videoDoc("vid-1", 50), "score", "--explain", "--format", "yaml")

			Convey("Then the YAML carries the dimensions", func() {
				So(r.code, ShouldEqual, 0)
				So(r.stdout, ShouldContainSubstring, "dimensions:")
				So(r.stdout, ShouldContainSubstring, "video_id: vid-1")
			})
		})

		Convey("When an unknown format is requested", func() {
			r := runCLI(videoDoc("vid-1", 50), "--format", "xml")

			Convey("Then it fails without scoring", func() {
				So(r.code, ShouldEqual, exitFailure)
				So(r.stdout, ShouldBeEmpty)
				So(r.stderr, ShouldContainSubstring, "unknown output format")
			})
		})

		Convey("When an unknown profile is selected", func() {
			r := runCLI(videoDoc("vid-1", 50), "--profile", "0.0.1")

			Convey("Then it fails", func() {
				So(r.code, ShouldEqual, exitFailure)
				So(r.stderr, ShouldContainSubstring, "0.0.1")
			})
		})
	})
}

func TestBatchCommand(t *testing.T) {
	Convey("Given a directory of documents with one broken file", t, func() {
		dir := t.TempDir()
		write := func(name, content string) {
			So(os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600), ShouldBeNil)
		}
		write("a.json", videoDoc("vid-a", 10))
		write("b.json", videoDoc("vid-b", 300))
		write("c.json", `{"meta": [`)
		write("d.jsonl", compact(videoDoc("vid-d1", 40))+"\n\n"+compact(videoDoc("vid-d2", 90))+"\n")
		write("notes.txt", "ignored")

		Convey("When the batch is scored", func() {
			r := runCLI("", "batch", "--input", filepath.Join(dir, "**", "*.json"), "--input", filepath.Join(dir, "*.jsonl"), "--workers", "3")
			lines := jsonLines(r.stdout)

			Convey("Then every item gets one line in input order", func() {
				So(r.code, ShouldEqual, 1)
				So(lines, ShouldHaveLength, 5)
				So(lines[0]["video_id"], ShouldEqual, "vid-a")
				So(lines[1]["video_id"], ShouldEqual, "vid-b")
				So(lines[2]["kind"], ShouldEqual, "malformed_input")
				So(lines[2]["source"], ShouldEqual, filepath.Join(dir, "c.json"))
				So(lines[3]["video_id"], ShouldEqual, "vid-d1")
				So(lines[4]["video_id"], ShouldEqual, "vid-d2")
			})

			Convey("Then the summary goes to stderr", func() {
				So(r.stderr, ShouldContainSubstring, "batch complete")
			})
		})

		Convey("When normalization is requested", func() {
			r := runCLI("", "batch", "--normalize", "--input", filepath.Join(dir, "*.json"))
			lines := jsonLines(r.stdout)

			Convey("Then valid results carry the batch distribution", func() {
				So(lines, ShouldHaveLength, 3)
				for _, i := range []int{0, 1} {
					n, ok := lines[i]["normalized"].(map[string]any)
					So(ok, ShouldBeTrue)
					So(n["target_mean"], ShouldEqual, normalize.DefaultTargetMean)
					So(n["raw_std"], ShouldBeGreaterThan, 0)
				}
				a := lines[0]["normalized"].(map[string]any)["overall"].(float64)
				b := lines[1]["normalized"].(map[string]any)["overall"].(float64)
				So(b, ShouldBeGreaterThan, a)
			})
		})

		Convey("When results go to a file", func() {
			out := filepath.Join(dir, "out.jsonl")
			r := runCLI("", "batch", "--input", filepath.Join(dir, "[ab].json"), "--output", out)

			Convey("Then stdout stays empty", func() {
				So(r.code, ShouldEqual, 0)
				So(r.stdout, ShouldBeEmpty)
				data, err := os.ReadFile(out)
				So(err, ShouldBeNil)
				So(jsonLines(string(data)), ShouldHaveLength, 2)
			})
		})

		Convey("When no file matches", func() {
			r := runCLI("", "batch", "--input", filepath.Join(dir, "*.yaml"))

			Convey("Then it fails", func() {
				So(r.code, ShouldEqual, exitFailure)
				So(r.stderr, ShouldContainSubstring, "no input files matched")
			})
		})
	})

	Convey("Given JSON Lines on stdin", t, func() {
		stdin := compact(videoDoc("vid-1", 10)) + "\n" + compact(videoDoc("vid-2", 20)) + "\n"
		r := runCLI(stdin, "batch")

		Convey("Then each line is scored", func() {
			So(r.code, ShouldEqual, 0)
			lines := jsonLines(r.stdout)
			So(lines, ShouldHaveLength, 2)
			So(lines[1]["video_id"], ShouldEqual, "vid-2")
		})
	})
}

func TestReferenceCommand(t *testing.T) {
	Convey("Given a population on stdin", t, func() {
		stdin := strings.Join([]string{
			compact(videoDoc("vid-1", 10)),
			compact(videoDoc("vid-2", 200)),
			`{"broken": true}`,
		}, "\n")
		r := runCLI(stdin, "reference")

		Convey("Then the valid scores are summarised", func() {
			So(r.code, ShouldEqual, 0)
			var stats normalize.Stats
			So(json.Unmarshal([]byte(r.stdout), &stats), ShouldBeNil)
			So(stats.Count, ShouldEqual, 2)
			So(stats.Std, ShouldBeGreaterThan, 0)
			So(r.stderr, ShouldContainSubstring, "skipped invalid documents")
		})
	})

	Convey("Given an empty population", t, func() {
		r := runCLI("", "reference")

		Convey("Then it fails", func() {
			So(r.code, ShouldEqual, exitFailure)
			So(r.stderr, ShouldContainSubstring, "empty reference population")
		})
	})
}

func TestVersionCommand(t *testing.T) {
	Convey("Given the version command", t, func() {
		r := runCLI("", "version")

		Convey("Then it reports scorer and profiles", func() {
			So(r.code, ShouldEqual, 0)
			var info versionInfo
			So(json.Unmarshal([]byte(r.stdout), &info), ShouldBeNil)
			So(info.Scorer, ShouldEqual, scoring.Version)
			So(info.Active, ShouldEqual, scoring.Version)
			So(info.Profiles, ShouldContain, scoring.Version)
		})
	})
}

func TestLoadgenCommand(t *testing.T) {
	Convey("Given no service at the target URL", t, func() {
		r := runCLI("", "loadgen", "--url", "http://127.0.0.1:1", "--videos", "1", "--timeout", "200ms")

		Convey("Then it fails the health check", func() {
			So(r.code, ShouldEqual, exitFailure)
			So(r.stdout, ShouldBeEmpty)
		})
	})
}
