package animator

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "animator"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of frames handed to the pipeline.
	Frames metrics.Counter
	// Number of vsync ticks that passed without producing a frame.
	SkippedFrames metrics.Counter
	// Number of vsync wait requests the waiter rejected.
	WaitErrors metrics.Counter
	// Delay between the vsync instant and the frame callback.
	FrameLatenessSeconds metrics.Histogram
	// Whether frame production is paused. 1 if yes, 0 if no.
	Paused metrics.Gauge
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		Frames: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "frames",
			Help:      "Number of frames handed to the pipeline.",
		}, labels).With(labelsAndValues...),
		SkippedFrames: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "skipped_frames",
			Help:      "Number of vsync ticks that passed without producing a frame.",
		}, labels).With(labelsAndValues...),
		WaitErrors: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "wait_errors",
			Help:      "Number of vsync wait requests the waiter rejected.",
		}, labels).With(labelsAndValues...),
		FrameLatenessSeconds: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "frame_lateness_seconds",
			Help:      "Delay between the vsync instant and the frame callback.",
			Buckets:   stdprometheus.ExponentialBuckets(0.0001, 2, 12),
		}, labels).With(labelsAndValues...),
		Paused: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "paused",
			Help:      "Whether frame production is paused. 1 if yes, 0 if no.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Frames:               discard.NewCounter(),
		SkippedFrames:        discard.NewCounter(),
		WaitErrors:           discard.NewCounter(),
		FrameLatenessSeconds: discard.NewHistogram(),
		Paused:               discard.NewGauge(),
	}
}
