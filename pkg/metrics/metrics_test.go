package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func families(reg *prometheus.Registry) map[string]*dto.MetricFamily {
	mfs, err := reg.Gather()
	So(err, ShouldBeNil)
	out := make(map[string]*dto.MetricFamily, len(mfs))
	for _, mf := range mfs {
		out[mf.GetName()] = mf
	}
	return out
}

func TestManagerCreation(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		reg := prometheus.NewRegistry()
		m := NewManager(
			WithPrometheusRegistry(reg),
			WithNamespace("test"),
			WithSubsystem("unit"),
			WithConstLabels(map[string]string{"env": "test"}),
			WithHistogramBuckets([]float64{1, 10}),
			WithScoreBuckets([]float64{50}),
		)
		So(m, ShouldNotBeNil)

		Convey("When metrics are recorded", func() {
			m.documentsScored.WithLabelValues("false").Inc()
			m.scoringLatency.Observe(3)
			m.leaderboardSize.Set(7)

			Convey("Then they are gathered with the configured names and labels", func() {
				mfs := families(reg)
				scored := mfs["test_unit_documents_scored_total"]
				So(scored, ShouldNotBeNil)
				So(scored.GetMetric()[0].GetCounter().GetValue(), ShouldEqual, 1)

				size := mfs["test_unit_leaderboard_size"]
				So(size.GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 7)
				labels := size.GetMetric()[0].GetLabel()
				So(labels[0].GetName(), ShouldEqual, "env")
				So(labels[0].GetValue(), ShouldEqual, "test")

				lat := mfs["test_unit_scoring_latency_ms"].GetMetric()[0].GetHistogram()
				So(lat.GetSampleCount(), ShouldEqual, 1)
				So(lat.GetBucket(), ShouldHaveLength, 2)
			})
		})

		Convey("When a second manager uses the same registry", func() {
			Convey("Then registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(reg), WithNamespace("test"), WithSubsystem("unit")) }, ShouldPanic)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When every recorder is called", func() {
			So(func() {
				RecordDocumentScored(1.2, 88.5, 1, false)
				RecordValidationFailure("schema_violation")
				RecordDuplicate()
				UpdateLeaderboardSize(3)
				RecordStoreUpdate(0.1)
				RecordStoreQuery(0.2)
				RecordArchiveWrite(true)
				RecordArchiveWrite(false)
				UpdateQueueSize(1)
				UpdateQueueCapacity(10)
				UpdateQueueUtilization(0.1)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError("full")
				UpdateWorkerCount(4)
				AddWorkerActive(1)
				AddWorkerActive(-1)
				RecordWorkerProcessingLatency(2)
				RecordWorkerError("panic")
				RecordHTTPRequest("/score", "POST", "200")
				RecordHTTPRequestDuration("/score", "POST", "200", 0.01)
				RecordErrorByComponent("api", "bad_request")
			}, ShouldNotPanic)

			Convey("Then they land on the served registry", func() {
				mfs := families(GetRegistry())
				So(mfs, ShouldContainKey, "clipscore_engine_documents_scored_total")
				So(mfs, ShouldContainKey, "clipscore_engine_archive_writes_total")
				So(mfs["clipscore_engine_worker_count"].GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 4)
			})
		})

		Convey("When recorders run concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					RecordDuplicate()
					RecordQueueEnqueue()
					RecordHTTPRequest("/videos", "POST", "202")
				}()
			}
			wg.Wait()
			So(true, ShouldBeTrue)
		})
	})
}
