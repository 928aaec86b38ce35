package metrics_test

import (
	"testing"

	"github.com/okian/vigil/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetrics(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording business metrics", func() {
			So(func() {
				metrics.RecordTransactionScored()
				metrics.RecordFraudDetected()
				metrics.RecordTransactionRejected()
				metrics.RecordDuplicateTransaction()
				metrics.RecordScoringLatency(3.2)
				metrics.RecordFraudScore(0.42)
				metrics.RecordModelLatency("supervised", 1.1)
				metrics.RecordModelLatency("anomaly", 0.9)
				metrics.RecordRiskLevel("LOW")
			}, ShouldNotPanic)
		})

		Convey("When recording store and pipeline metrics", func() {
			So(func() {
				metrics.UpdateEntitiesTracked(12)
				metrics.UpdateHistoryEntries(340)
				metrics.RecordEntitiesEvicted(2)
				metrics.RecordStoreSweep()
				metrics.UpdateQueueSize(7)
				metrics.UpdateQueueCapacity(1000)
				metrics.RecordQueueEnqueue()
				metrics.RecordQueueDequeue()
				metrics.RecordQueueRejected()
				metrics.UpdateWorkerCount(4)
				metrics.RecordWorkerLatency(1.5)
				metrics.RecordWorkerError()
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP and error metrics", func() {
			So(func() {
				metrics.RecordHTTPRequest("score", "POST", "200")
				metrics.RecordHTTPRequestDuration("score", "POST", "200", 2.4)
				metrics.RecordErrorByComponent("worker", "scoring_error")
			}, ShouldNotPanic)
		})

		Convey("Then the custom registry should gather metrics", func() {
			families, err := metrics.GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}

func TestNewManager(t *testing.T) {
	Convey("Given a manager built on a private registry", t, func() {
		reg := prometheus.NewRegistry()
		m := metrics.NewManager(
			metrics.WithRegistry(reg),
			metrics.WithNamespace("test"),
			metrics.WithSubsystem("detector"),
			metrics.WithHistogramBuckets([]float64{1, 5, 10}),
		)

		Convey("Then construction should succeed without duplicate registration", func() {
			So(m, ShouldNotBeNil)
			families, err := reg.Gather()
			So(err, ShouldBeNil)
			So(families, ShouldNotBeNil)
		})
	})
}
