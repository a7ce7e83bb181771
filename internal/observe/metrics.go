// Package observe provides application-wide observability primitives for
// hillhouse: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all hillhouse metrics.
const meterName = "github.com/MrWong99/hillhouse"

// Status attribute values for tool and operation metrics.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// ToolDuration tracks MCP tool handler latency. Use with attribute:
	//   attribute.String("tool", ...)
	ToolDuration metric.Float64Histogram

	// StoreDuration tracks session store calls. Use with attributes:
	//   attribute.String("backend", ...), attribute.String("op", ...)
	StoreDuration metric.Float64Histogram

	// --- Counters ---

	// ToolCalls counts tool invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// RoomsRevealed counts room tiles placed on the map. Use with attribute:
	//   attribute.String("floor", ...)
	RoomsRevealed metric.Int64Counter

	// DiceRolls counts recorded dice results. Use with attribute:
	//   attribute.String("purpose", ...)
	DiceRolls metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of stored game sessions.
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time, labelled by
	// method, route (see [Route]) and status.
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Tool calls
// are a load, a mutation and a save, so most land well under 100ms.
var latencyBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.ToolDuration, err = m.Float64Histogram("hillhouse.tool.duration",
		metric.WithDescription("Latency of MCP tool handlers."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.StoreDuration, err = m.Float64Histogram("hillhouse.store.duration",
		metric.WithDescription("Latency of session store calls by backend and operation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ToolCalls, err = m.Int64Counter("hillhouse.tool.calls",
		metric.WithDescription("Total tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.RoomsRevealed, err = m.Int64Counter("hillhouse.rooms.revealed",
		metric.WithDescription("Total room tiles placed by floor."),
	); err != nil {
		return nil, err
	}
	if met.DiceRolls, err = m.Int64Counter("hillhouse.dice.rolls",
		metric.WithDescription("Total dice results recorded by purpose."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("hillhouse.active_sessions",
		metric.WithDescription("Number of stored game sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("hillhouse.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route and status."),
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

// RecordToolCall records a tool call counter increment and its latency.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string, seconds float64) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
	m.ToolDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("tool", tool)),
	)
}

// RecordStoreCall records the latency of one session store call.
func (m *Metrics) RecordStoreCall(ctx context.Context, backend, op string, seconds float64) {
	m.StoreDuration.Record(ctx, seconds,
		metric.WithAttributes(
			attribute.String("backend", backend),
			attribute.String("op", op),
		),
	)
}

// RecordRoomRevealed records one room tile placed on floor.
func (m *Metrics) RecordRoomRevealed(ctx context.Context, floor string) {
	m.RoomsRevealed.Add(ctx, 1,
		metric.WithAttributes(attribute.String("floor", floor)),
	)
}

// RecordDiceRoll records one dice result for purpose.
func (m *Metrics) RecordDiceRoll(ctx context.Context, purpose string) {
	m.DiceRolls.Add(ctx, 1,
		metric.WithAttributes(attribute.String("purpose", purpose)),
	)
}
