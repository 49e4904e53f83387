package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers and drives prometheus metrics for one namespace.
// All methods are safe for concurrent use.
type Collector interface {
	// RegisterCounter registers a counter vector under the namespace.
	RegisterCounter(ctx context.Context, name string, labelNames ...string) (*prometheus.CounterVec, error)
	// AddCounter adds value to a previously registered counter.
	AddCounter(ctx context.Context, name string, value float64, labelValues ...string) error
	// UnregisterCounter removes a counter; unregistering an unknown counter is a no-op.
	UnregisterCounter(ctx context.Context, name string) error
	// RegisterGauge registers a gauge vector under the namespace.
	RegisterGauge(ctx context.Context, name string, labelNames ...string) (*prometheus.GaugeVec, error)
	// SetGauge sets a previously registered gauge to value.
	SetGauge(ctx context.Context, name string, value float64, labelValues ...string) error
	// UnregisterGauge removes a gauge; unregistering an unknown gauge is a no-op.
	UnregisterGauge(ctx context.Context, name string) error
	// RegisterHistogram registers a histogram vector under the namespace.
	RegisterHistogram(ctx context.Context, name string, labelNames ...string) (*prometheus.HistogramVec, error)
	// ObserveHistogram records an observation on a previously registered histogram.
	ObserveHistogram(ctx context.Context, name string, value float64, labelValues ...string) error
	// UnregisterHistogram removes a histogram; unregistering an unknown histogram is a no-op.
	UnregisterHistogram(ctx context.Context, name string) error
	// MetricsHandler serves the collector's registry in the prometheus text format.
	MetricsHandler() http.Handler
	// MeasureFunctionExecutionTime starts a timer for the named function and
	// returns a stop func that records the elapsed time.
	MeasureFunctionExecutionTime(ctx context.Context, name string) (func(), error)
}

// functionDurationMetric is the histogram MeasureFunctionExecutionTime records into.
const functionDurationMetric = "function_duration_seconds"

type contextKey string

// prometheusCollector implements Collector on a private registry so tests
// and repeated CLI invocations never collide with the global one.
type prometheusCollector struct {
	namespace  string
	registry   *prometheus.Registry
	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

// WithMetrics returns a context carrying a Collector for the namespace.
func WithMetrics(ctx context.Context, namespace string) context.Context {
	return context.WithValue(ctx, contextKey(namespace), newCollector(namespace))
}

// FromContext retrieves the Collector for the namespace, creating a fresh
// one when the context does not carry it.
func FromContext(ctx context.Context, namespace string) Collector {
	if c, ok := ctx.Value(contextKey(namespace)).(Collector); ok {
		return c
	}
	return newCollector(namespace)
}

func newCollector(namespace string) *prometheusCollector {
	return &prometheusCollector{
		namespace:  namespace,
		registry:   prometheus.NewRegistry(),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

func (c *prometheusCollector) fqName(name string) string {
	return c.namespace + "_" + name
}

// RegisterCounter registers a counter vector under the namespace.
func (c *prometheusCollector) RegisterCounter(_ context.Context, name string, labelNames ...string) (*prometheus.CounterVec, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fq := c.fqName(name)
	if _, ok := c.counters[fq]; ok {
		return nil, fmt.Errorf("counter %q already registered", fq)
	}
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: fq,
		Help: fmt.Sprintf("Counter for %s", fq),
	}, labelNames)
	if err := c.registry.Register(vec); err != nil {
		return nil, fmt.Errorf("failed to register counter %q: %w", fq, err)
	}
	c.counters[fq] = vec
	return vec, nil
}

// AddCounter adds value to a previously registered counter.
func (c *prometheusCollector) AddCounter(_ context.Context, name string, value float64, labelValues ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fq := c.fqName(name)
	vec, ok := c.counters[fq]
	if !ok {
		return fmt.Errorf("counter '%s' not found", fq)
	}
	vec.WithLabelValues(labelValues...).Add(value)
	return nil
}

// UnregisterCounter removes a counter.
func (c *prometheusCollector) UnregisterCounter(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fq := c.fqName(name)
	if vec, ok := c.counters[fq]; ok {
		c.registry.Unregister(vec)
		delete(c.counters, fq)
	}
	return nil
}

// RegisterGauge registers a gauge vector under the namespace.
func (c *prometheusCollector) RegisterGauge(_ context.Context, name string, labelNames ...string) (*prometheus.GaugeVec, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fq := c.fqName(name)
	if _, ok := c.gauges[fq]; ok {
		return nil, fmt.Errorf("gauge %q already registered", fq)
	}
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: fq,
		Help: fmt.Sprintf("Gauge for %s", fq),
	}, labelNames)
	if err := c.registry.Register(vec); err != nil {
		return nil, fmt.Errorf("failed to register gauge %q: %w", fq, err)
	}
	c.gauges[fq] = vec
	return vec, nil
}

// SetGauge sets a previously registered gauge to value.
func (c *prometheusCollector) SetGauge(_ context.Context, name string, value float64, labelValues ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fq := c.fqName(name)
	vec, ok := c.gauges[fq]
	if !ok {
		return fmt.Errorf("gauge '%s' not found", fq)
	}
	vec.WithLabelValues(labelValues...).Set(value)
	return nil
}

// UnregisterGauge removes a gauge.
func (c *prometheusCollector) UnregisterGauge(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fq := c.fqName(name)
	if vec, ok := c.gauges[fq]; ok {
		c.registry.Unregister(vec)
		delete(c.gauges, fq)
	}
	return nil
}

// RegisterHistogram registers a histogram vector under the namespace.
func (c *prometheusCollector) RegisterHistogram(_ context.Context, name string, labelNames ...string) (*prometheus.HistogramVec, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fq := c.fqName(name)
	if _, ok := c.histograms[fq]; ok {
		return nil, fmt.Errorf("histogram %q already registered", fq)
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: fq,
		Help: fmt.Sprintf("Histogram for %s", fq),
	}, labelNames)
	if err := c.registry.Register(vec); err != nil {
		return nil, fmt.Errorf("failed to register histogram %q: %w", fq, err)
	}
	c.histograms[fq] = vec
	return vec, nil
}

// ObserveHistogram records an observation on a previously registered histogram.
func (c *prometheusCollector) ObserveHistogram(_ context.Context, name string, value float64, labelValues ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fq := c.fqName(name)
	vec, ok := c.histograms[fq]
	if !ok {
		return fmt.Errorf("histogram '%s' not found", fq)
	}
	vec.WithLabelValues(labelValues...).Observe(value)
	return nil
}

// UnregisterHistogram removes a histogram.
func (c *prometheusCollector) UnregisterHistogram(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fq := c.fqName(name)
	if vec, ok := c.histograms[fq]; ok {
		c.registry.Unregister(vec)
		delete(c.histograms, fq)
	}
	return nil
}

// MetricsHandler serves the collector's registry.
func (c *prometheusCollector) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// MeasureFunctionExecutionTime starts a timer for the named function.
func (c *prometheusCollector) MeasureFunctionExecutionTime(ctx context.Context, name string) (func(), error) {
	c.mu.Lock()
	fq := c.fqName(functionDurationMetric)
	vec, ok := c.histograms[fq]
	c.mu.Unlock()
	if !ok {
		var err error
		vec, err = c.registerFunctionDuration()
		if err != nil {
			return nil, err
		}
	}
	start := time.Now()
	return func() {
		vec.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}, nil
}

func (c *prometheusCollector) registerFunctionDuration() (*prometheus.HistogramVec, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fq := c.fqName(functionDurationMetric)
	if vec, ok := c.histograms[fq]; ok {
		return vec, nil
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: fq,
		Help: "Time spent executing functions.",
	}, []string{"function"})
	if err := c.registry.Register(vec); err != nil {
		return nil, fmt.Errorf("failed to register histogram %q: %w", fq, err)
	}
	c.histograms[fq] = vec
	return vec, nil
}
