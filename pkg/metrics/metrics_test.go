package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a private registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"competition": "bhusurya"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors should be registered under the namespace", func() {
				So(m, ShouldNotBeNil)
				So(m.RecordSubmission("D"), ShouldBeNil)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_unit_submissions_total")
			})
		})
	})
}

func TestRecordSubmission(t *testing.T) {
	Convey("Given a manager", t, func() {
		m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("When recording D and T submissions", func() {
			So(m.RecordSubmission("D"), ShouldBeNil)
			So(m.RecordSubmission("D"), ShouldBeNil)
			So(m.RecordSubmission("T"), ShouldBeNil)

			Convey("Then each role should be counted separately", func() {
				So(testutil.ToFloat64(m.submissions.WithLabelValues("D")), ShouldEqual, 2)
				So(testutil.ToFloat64(m.submissions.WithLabelValues("T")), ShouldEqual, 1)
			})
		})

		Convey("When recording an unknown role", func() {
			err := m.RecordSubmission("X")

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, ErrUnknownRole), ShouldBeTrue)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then every recorder should be callable", func() {
			So(func() {
				_ = RecordSubmission("T")
				RecordSubmissionDuplicate()
				RecordValidationFailure("difficulty")
				RecordLeaderboardBuild(1.5)
				RecordResultsRebuild()
				RecordResultsRebuildError()
				UpdateQueueSize(3)
				UpdateQueueCapacity(10)
				RecordQueueDropped()
				UpdateWorkerCount(2)
				RecordWorkerProcessingLatency(0.4)
				UpdateEntityCount("events", 3)
				RecordHTTPRequest("leaderboard", "GET", "200")
				RecordHTTPRequestDuration("leaderboard", "GET", "200", 2)
				RecordErrorByEndpoint("scores", "POST", "client_error")
				RecordErrorByComponent("worker", "rebuild")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(12)
			}, ShouldNotPanic)
		})

		Convey("Then the queue gauge should reflect the last update", func() {
			UpdateQueueSize(7)
			So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
		})

		Convey("Then the registry should be the custom one", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}
