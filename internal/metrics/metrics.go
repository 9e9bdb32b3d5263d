// Package metrics wires the pipeline's stage counters into a Prometheus
// registry, grounded on the PrometheusMetrics/promauto pattern of
// madpsy-ka9q_ubersdr/prometheus.go. It sits alongside, not instead of, the
// mutex-guarded pipeline.Stats each stage keeps: Stats is the
// spec-mandated in-process counter (spec.md §5), Metrics is an optional
// export of the same numbers for scraping.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for one pipeline instance.
type Metrics struct {
	BurstsDetected   prometheus.Counter
	Bursts1G         prometheus.Counter
	Bursts2G         prometheus.Counter
	BurstsTooShort   prometheus.Counter
	SyncFailures     *prometheus.CounterVec // labelled by demodulator state at failure
	FramesDecoded    *prometheus.CounterVec // labelled by frame_kind
	IntegrityFailure *prometheus.CounterVec // labelled by check (crc1/crc2/bch)
}

// New registers the pipeline's collectors against reg. Passing a fresh
// prometheus.NewRegistry() per test keeps tests independent; production
// code typically passes prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BurstsDetected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cospas",
			Subsystem: "detector",
			Name:      "bursts_detected_total",
			Help:      "Number of bursts closed by the detector and handed to the router.",
		}),
		Bursts1G: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cospas",
			Subsystem: "router",
			Name:      "bursts_1g_total",
			Help:      "Number of bursts classified as first-generation (FGB).",
		}),
		Bursts2G: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cospas",
			Subsystem: "router",
			Name:      "bursts_2g_total",
			Help:      "Number of bursts classified as second-generation (SGB).",
		}),
		BurstsTooShort: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cospas",
			Subsystem: "detector",
			Name:      "bursts_too_short_total",
			Help:      "Number of candidate bursts discarded for being shorter than the minimum.",
		}),
		SyncFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cospas",
			Subsystem: "fgb",
			Name:      "sync_failures_total",
			Help:      "Number of times the FGB demodulator reset to CARRIER_SEARCH due to sync loss.",
		}, []string{"state"}),
		FramesDecoded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cospas",
			Subsystem: "decoder",
			Name:      "frames_decoded_total",
			Help:      "Number of demodulated frames handed to the message decoder.",
		}, []string{"frame_kind"}),
		IntegrityFailure: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cospas",
			Subsystem: "decoder",
			Name:      "integrity_failures_total",
			Help:      "Number of integrity check failures by check kind.",
		}, []string{"check"}),
	}
}
