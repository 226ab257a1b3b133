// Package observe provides application-wide observability for Cadence:
// OpenTelemetry metrics with a Prometheus exporter bridge, and HTTP
// middleware that records request latency.
//
// Metrics are recorded through the OpenTelemetry Metrics API. [InitProvider]
// wires a Prometheus exporter so everything is scrapable via the standard
// /metrics endpoint. A package-level default [Metrics] instance
// ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Cadence metrics.
const meterName = "github.com/venlo-ai/cadence"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// TranscribeDuration tracks transcription latency.
	TranscribeDuration metric.Float64Histogram

	// DecodeDuration tracks audio extraction latency.
	DecodeDuration metric.Float64Histogram

	// VisionDuration tracks landmark extraction and non-verbal analysis latency.
	VisionDuration metric.Float64Histogram

	// DeliveryDuration tracks tonal delivery analysis latency.
	DeliveryDuration metric.Float64Histogram

	// CoachDuration tracks coaching model latency.
	CoachDuration metric.Float64Histogram

	// --- Counters ---

	// JobsStarted counts analysis jobs taken off the queue.
	JobsStarted metric.Int64Counter

	// JobsCompleted counts finished jobs. Use with attribute:
	//   attribute.String("status", "done"|"error")
	JobsCompleted metric.Int64Counter

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveJobs tracks the number of jobs currently being processed.
	ActiveJobs metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Analysis
// stages span three orders of magnitude, from sub-second DSP to minute-scale
// transcription.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TranscribeDuration, err = m.Float64Histogram("cadence.transcribe.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.DecodeDuration, err = m.Float64Histogram("cadence.decode.duration",
		metric.WithDescription("Latency of audio extraction and decoding."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.VisionDuration, err = m.Float64Histogram("cadence.vision.duration",
		metric.WithDescription("Latency of landmark extraction and non-verbal analysis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.DeliveryDuration, err = m.Float64Histogram("cadence.delivery.duration",
		metric.WithDescription("Latency of tonal delivery analysis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CoachDuration, err = m.Float64Histogram("cadence.coach.duration",
		metric.WithDescription("Latency of coaching model review."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.JobsStarted, err = m.Int64Counter("cadence.jobs.started",
		metric.WithDescription("Total analysis jobs started."),
	); err != nil {
		return nil, err
	}
	if met.JobsCompleted, err = m.Int64Counter("cadence.jobs.completed",
		metric.WithDescription("Total analysis jobs finished by status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("cadence.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveJobs, err = m.Int64UpDownCounter("cadence.active_jobs",
		metric.WithDescription("Number of jobs currently being processed."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("cadence.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordStage records one pipeline-stage duration observation in seconds.
func RecordStage(ctx context.Context, h metric.Float64Histogram, seconds float64) {
	h.Record(ctx, seconds)
}

// RecordJobCompleted records a finished job with its terminal status.
func (m *Metrics) RecordJobCompleted(ctx context.Context, status string) {
	m.JobsCompleted.Add(ctx, 1,
		metric.WithAttributes(Attr("status", status)),
	)
}

// RecordProviderError is a convenience method that records a provider error
// counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			Attr("provider", provider),
			Attr("kind", kind),
		),
	)
}
