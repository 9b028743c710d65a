// Package metrics exposes the engine's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector bundles the engine's Prometheus instruments. All instruments are
// registered against the registerer passed to NewCollector, never the global
// default, so independent engines (and tests) do not collide.
type Collector struct {
	registry prometheus.Registerer

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	stageDuration   *prometheus.HistogramVec
	outputsTotal    *prometheus.CounterVec
	fusionTotal     *prometheus.CounterVec
	endpointHealthy *prometheus.GaugeVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	logger *zap.Logger
}

// NewCollector creates and registers the engine instruments under namespace.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests processed, labeled by terminal status.",
		}, []string{"status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "End to end request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Per pipeline stage latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		outputsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outputs_total",
			Help:      "Outputs produced, labeled by modality.",
		}, []string{"modality"}),
		fusionTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fusion_total",
			Help:      "Fusion operations, labeled by strategy.",
		}, []string{"strategy"}),
		endpointHealthy: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "endpoints_healthy",
			Help:      "Healthy endpoints per modality.",
		}, []string{"modality"}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Response cache hits.",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Response cache misses.",
		}),
		logger: logger.With(zap.String("component", "metrics")),
	}
}

// ObserveRequest records one finished request.
func (c *Collector) ObserveRequest(status string, elapsed time.Duration) {
	c.requestsTotal.WithLabelValues(status).Inc()
	c.requestDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// ObserveStage records the latency of one pipeline stage.
func (c *Collector) ObserveStage(stage string, elapsed time.Duration) {
	c.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// AddOutputs records n outputs produced for a modality.
func (c *Collector) AddOutputs(modality string, n int) {
	c.outputsTotal.WithLabelValues(modality).Add(float64(n))
}

// ObserveFusion records one fusion operation.
func (c *Collector) ObserveFusion(strategy string) {
	c.fusionTotal.WithLabelValues(strategy).Inc()
}

// SetHealthyEndpoints records the healthy endpoint count for a modality.
func (c *Collector) SetHealthyEndpoints(modality string, n int) {
	c.endpointHealthy.WithLabelValues(modality).Set(float64(n))
}

// CacheHit records a response cache hit.
func (c *Collector) CacheHit() { c.cacheHits.Inc() }

// CacheMiss records a response cache miss.
func (c *Collector) CacheMiss() { c.cacheMisses.Inc() }
