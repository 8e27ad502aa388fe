package eventadmin

// Metrics exporters for the bus's Stats() snapshot.
//
// Provides:
//   - PrometheusCollector implementing prometheus.Collector
//   - DatadogStatsdExporter for periodic flush to DogStatsD
//
// Both are pull-based: they read Bus.Stats() on each scrape/flush, adding
// no instrumentation to the delivery hot path.

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	statsd "github.com/DataDog/datadog-go/v5/statsd"
)

var (
	errNilBus          = fmt.Errorf("eventadmin: nil bus supplied")
	errInvalidInterval = fmt.Errorf("eventadmin: interval must be > 0")
)

// ----- Prometheus Collector -----

// PrometheusCollector implements prometheus.Collector over a Bus's Stats().
type PrometheusCollector struct {
	bus *Bus

	syncWorkersDesc  *prometheus.Desc
	syncQueueDesc    *prometheus.Desc
	asyncWorkersDesc *prometheus.Desc
	asyncQueueDesc   *prometheus.Desc
	blacklistedDesc  *prometheus.Desc
	registeredDesc   *prometheus.Desc
}

// NewPrometheusCollector creates a collector for bus. namespace defaults
// to "eventadmin" if empty.
func NewPrometheusCollector(bus *Bus, namespace string) *PrometheusCollector {
	if namespace == "" {
		namespace = "eventadmin"
	}
	return &PrometheusCollector{
		bus:              bus,
		syncWorkersDesc:  prometheus.NewDesc(namespace+"_sync_pool_workers", "Current sync delivery pool worker count", nil, nil),
		syncQueueDesc:    prometheus.NewDesc(namespace+"_sync_pool_queue_length", "Current sync delivery pool queue length", nil, nil),
		asyncWorkersDesc: prometheus.NewDesc(namespace+"_async_pool_workers", "Current async delivery pool worker count", nil, nil),
		asyncQueueDesc:   prometheus.NewDesc(namespace+"_async_pool_queue_length", "Current async delivery pool queue length", nil, nil),
		blacklistedDesc:  prometheus.NewDesc(namespace+"_blacklisted_handlers", "Current number of blacklisted handler registrations", nil, nil),
		registeredDesc:   prometheus.NewDesc(namespace+"_registered_handlers", "Current number of live handler registrations", nil, nil),
	}
}

// Describe sends metric descriptors.
func (c *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.syncWorkersDesc
	ch <- c.syncQueueDesc
	ch <- c.asyncWorkersDesc
	ch <- c.asyncQueueDesc
	ch <- c.blacklistedDesc
	ch <- c.registeredDesc
}

// Collect gathers a fresh Stats() snapshot and emits it as gauges.
func (c *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.bus.Stats()
	ch <- prometheus.MustNewConstMetric(c.syncWorkersDesc, prometheus.GaugeValue, float64(s.SyncPoolWorkers))
	ch <- prometheus.MustNewConstMetric(c.syncQueueDesc, prometheus.GaugeValue, float64(s.SyncPoolQueueLen))
	ch <- prometheus.MustNewConstMetric(c.asyncWorkersDesc, prometheus.GaugeValue, float64(s.AsyncPoolWorkers))
	ch <- prometheus.MustNewConstMetric(c.asyncQueueDesc, prometheus.GaugeValue, float64(s.AsyncPoolQueueLen))
	ch <- prometheus.MustNewConstMetric(c.blacklistedDesc, prometheus.GaugeValue, float64(s.BlacklistedHandlers))
	ch <- prometheus.MustNewConstMetric(c.registeredDesc, prometheus.GaugeValue, float64(s.RegisteredHandlers))
}

// ----- Datadog / StatsD Exporter -----

// DatadogStatsdExporter periodically flushes a Bus's Stats() snapshot as
// gauges to DogStatsD / StatsD.
type DatadogStatsdExporter struct {
	bus      *Bus
	client   *statsd.Client
	prefix   string
	interval time.Duration
	baseTags []string
}

// NewDatadogStatsdExporter creates an exporter. addr example:
// "127.0.0.1:8125". prefix defaults to "eventadmin" if empty.
func NewDatadogStatsdExporter(bus *Bus, prefix, addr string, interval time.Duration, baseTags []string) (*DatadogStatsdExporter, error) {
	if bus == nil {
		return nil, errNilBus
	}
	if interval <= 0 {
		return nil, errInvalidInterval
	}
	if prefix == "" {
		prefix = "eventadmin"
	}
	client, err := statsd.New(addr, statsd.WithNamespace(prefix+"."))
	if err != nil {
		return nil, fmt.Errorf("eventadmin: creating statsd client: %w", err)
	}
	return &DatadogStatsdExporter{bus: bus, client: client, prefix: prefix, interval: interval, baseTags: baseTags}, nil
}

// Run starts the export loop until context cancellation.
func (e *DatadogStatsdExporter) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.flush()
		}
	}
}

func (e *DatadogStatsdExporter) flush() {
	s := e.bus.Stats()
	_ = e.client.Gauge("sync_pool.workers", float64(s.SyncPoolWorkers), e.baseTags, 1)
	_ = e.client.Gauge("sync_pool.queue_length", float64(s.SyncPoolQueueLen), e.baseTags, 1)
	_ = e.client.Gauge("async_pool.workers", float64(s.AsyncPoolWorkers), e.baseTags, 1)
	_ = e.client.Gauge("async_pool.queue_length", float64(s.AsyncPoolQueueLen), e.baseTags, 1)
	_ = e.client.Gauge("blacklisted_handlers", float64(s.BlacklistedHandlers), e.baseTags, 1)
	_ = e.client.Gauge("registered_handlers", float64(s.RegisteredHandlers), e.baseTags, 1)
}

// Close closes the underlying statsd client.
func (e *DatadogStatsdExporter) Close() error {
	if e == nil || e.client == nil {
		return nil
	}
	if err := e.client.Close(); err != nil {
		return fmt.Errorf("eventadmin: closing statsd client: %w", err)
	}
	return nil
}
