package metrics

import (
	"context"
	"errors"
	"maps"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrNilCounter is returned when a counter builder has no instrument.
	ErrNilCounter = errors.New("counter instrument is nil")
	// ErrNilGauge is returned when a gauge builder has no instrument.
	ErrNilGauge = errors.New("gauge instrument is nil")
)

// extend returns a new slice holding base followed by extra, so builders never share backing arrays.
func extend(base []attribute.KeyValue, extra ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(base)+len(extra))
	out = append(out, base...)

	return append(out, extra...)
}

// labelAttributes converts string labels to attributes in key order.
func labelAttributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for _, key := range slices.Sorted(maps.Keys(labels)) {
		attrs = append(attrs, attribute.String(key, labels[key]))
	}

	return attrs
}

// CounterBuilder records increments on one counter. Every With* call returns a new builder.
type CounterBuilder struct {
	counter metric.Int64Counter
	attrs   []attribute.KeyValue
}

// WithLabels returns a builder that also carries labels as string attributes.
func (c *CounterBuilder) WithLabels(labels map[string]string) *CounterBuilder {
	return c.WithAttributes(labelAttributes(labels)...)
}

// WithAttributes returns a builder that also carries attrs.
func (c *CounterBuilder) WithAttributes(attrs ...attribute.KeyValue) *CounterBuilder {
	return &CounterBuilder{counter: c.counter, attrs: extend(c.attrs, attrs...)}
}

// Add increments the counter by value.
func (c *CounterBuilder) Add(ctx context.Context, value int64) error {
	if c.counter == nil {
		return ErrNilCounter
	}

	c.counter.Add(ctx, value, metric.WithAttributes(c.attrs...))

	return nil
}

// AddOne increments the counter by one.
func (c *CounterBuilder) AddOne(ctx context.Context) error {
	return c.Add(ctx, 1)
}

// GaugeBuilder records values on one gauge.
type GaugeBuilder struct {
	gauge metric.Int64Gauge
	attrs []attribute.KeyValue
}

// WithAttributes returns a builder that also carries attrs.
func (g *GaugeBuilder) WithAttributes(attrs ...attribute.KeyValue) *GaugeBuilder {
	return &GaugeBuilder{gauge: g.gauge, attrs: extend(g.attrs, attrs...)}
}

// Set records value as the current gauge reading.
func (g *GaugeBuilder) Set(ctx context.Context, value int64) error {
	if g.gauge == nil {
		return ErrNilGauge
	}

	g.gauge.Record(ctx, value, metric.WithAttributes(g.attrs...))

	return nil
}
