package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/LerianStudio/ledger-replay/ledger/log"
)

// ErrNilMeter indicates that a nil OTEL meter was provided.
var ErrNilMeter = errors.New("metric meter cannot be nil")

// Metric describes an instrument. Name is also the cache key.
type Metric struct {
	Name        string
	Description string
	Unit        string
}

// MetricsFactory creates ledger instruments on first use and caches them by name.
// It is safe for concurrent use.
type MetricsFactory struct {
	meter    metric.Meter
	logger   log.Logger
	counters sync.Map // name -> metric.Int64Counter
	gauges   sync.Map // name -> metric.Int64Gauge
}

// NewMetricsFactory returns a factory over meter. A nil logger is replaced by a no-op one.
func NewMetricsFactory(meter metric.Meter, logger log.Logger) (*MetricsFactory, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}

	if logger == nil {
		logger = log.NewNop()
	}

	return &MetricsFactory{meter: meter, logger: logger}, nil
}

// NewNopFactory returns a factory whose instruments record nothing.
func NewNopFactory() *MetricsFactory {
	return &MetricsFactory{
		meter:  noop.NewMeterProvider().Meter("nop"),
		logger: log.NewNop(),
	}
}

// Counter returns a builder over the cached counter for m.
func (f *MetricsFactory) Counter(m Metric) (*CounterBuilder, error) {
	counter, err := cached(f, &f.counters, "counter", m, func() (metric.Int64Counter, error) {
		return f.meter.Int64Counter(m.Name,
			metric.WithDescription(m.Description),
			metric.WithUnit(m.Unit),
		)
	})
	if err != nil {
		return nil, err
	}

	return &CounterBuilder{counter: counter}, nil
}

// Gauge returns a builder over the cached gauge for m.
func (f *MetricsFactory) Gauge(m Metric) (*GaugeBuilder, error) {
	gauge, err := cached(f, &f.gauges, "gauge", m, func() (metric.Int64Gauge, error) {
		return f.meter.Int64Gauge(m.Name,
			metric.WithDescription(m.Description),
			metric.WithUnit(m.Unit),
		)
	})
	if err != nil {
		return nil, err
	}

	return &GaugeBuilder{gauge: gauge}, nil
}

// cached loads the instrument stored under m.Name, creating it with create on a miss.
// Concurrent misses may each call create; the first stored instrument wins.
func cached[T any](f *MetricsFactory, cache *sync.Map, kind string, m Metric, create func() (T, error)) (T, error) {
	var zero T

	if stored, ok := cache.Load(m.Name); ok {
		return assertInstrument[T](stored, kind, m.Name)
	}

	instrument, err := create()
	if err != nil {
		f.logger.Log(context.Background(), log.LevelError, "failed to create "+kind+" metric",
			log.String("metric_name", m.Name), log.Err(err))

		return zero, fmt.Errorf("create %s %q: %w", kind, m.Name, err)
	}

	stored, _ := cache.LoadOrStore(m.Name, instrument)

	return assertInstrument[T](stored, kind, m.Name)
}

func assertInstrument[T any](stored any, kind, name string) (T, error) {
	instrument, ok := stored.(T)
	if !ok {
		var zero T

		return zero, fmt.Errorf("%s cache contains invalid type for %q", kind, name)
	}

	return instrument, nil
}
