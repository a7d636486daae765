package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "icebergviz"

// Prometheus implements every hook interface with Prometheus collectors.
type Prometheus struct {
	stageDuration *prometheus.HistogramVec
	shapesLoaded  *prometheus.CounterVec
	warnings      prometheus.Counter
	cacheEvents   *prometheus.CounterVec
	cacheBytes    *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	httpInFlight  prometheus.Gauge
	httpErrors    *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"stage", "outcome"}),
		shapesLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "shapes_loaded_total",
			Help:      "Iceberg shapes decoded from shapefiles.",
		}, []string{"site"}),
		warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "normalize_warnings_total",
			Help:      "Shapes excluded or flagged during normalization.",
		}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_events_total",
			Help:      "Cache lookups and writes.",
		}, []string{"key_type", "event"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_bytes_written_total",
			Help:      "Bytes written to the cache.",
		}, []string{"key_type"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "HTTP responses served.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "http_in_flight_requests",
			Help:      "Requests currently being served.",
		}),
		httpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_errors_total",
			Help:      "Handler errors by route.",
		}, []string{"route"}),
	}
	reg.MustRegister(
		p.stageDuration, p.shapesLoaded, p.warnings,
		p.cacheEvents, p.cacheBytes,
		p.httpRequests, p.httpDuration, p.httpInFlight, p.httpErrors,
	)
	return p
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// OnLoadStart implements PipelineHooks.
func (p *Prometheus) OnLoadStart(context.Context, string, string) {}

// OnLoadComplete implements PipelineHooks.
func (p *Prometheus) OnLoadComplete(_ context.Context, site, _ string, shapeCount int, d time.Duration, err error) {
	p.stageDuration.WithLabelValues("load", outcome(err)).Observe(d.Seconds())
	if err == nil {
		p.shapesLoaded.WithLabelValues(site).Add(float64(shapeCount))
	}
}

// OnNormalizeStart implements PipelineHooks.
func (p *Prometheus) OnNormalizeStart(context.Context, int) {}

// OnNormalizeComplete implements PipelineHooks.
func (p *Prometheus) OnNormalizeComplete(_ context.Context, _, warnings int, d time.Duration, err error) {
	p.stageDuration.WithLabelValues("normalize", outcome(err)).Observe(d.Seconds())
	p.warnings.Add(float64(warnings))
}

// OnRenderStart implements PipelineHooks.
func (p *Prometheus) OnRenderStart(context.Context, string, []string) {}

// OnRenderComplete implements PipelineHooks.
func (p *Prometheus) OnRenderComplete(_ context.Context, _ string, _ []string, d time.Duration, err error) {
	p.stageDuration.WithLabelValues("render", outcome(err)).Observe(d.Seconds())
}

// OnCacheHit implements CacheHooks.
func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements CacheHooks.
func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements CacheHooks.
func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheEvents.WithLabelValues(keyType, "set").Inc()
	p.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// OnRequest implements HTTPHooks.
func (p *Prometheus) OnRequest(context.Context, string, string) {
	p.httpInFlight.Inc()
}

// OnResponse implements HTTPHooks.
func (p *Prometheus) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	p.httpInFlight.Dec()
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// OnError implements HTTPHooks.
func (p *Prometheus) OnError(_ context.Context, _, route string, _ error) {
	p.httpErrors.WithLabelValues(route).Inc()
}

var (
	_ PipelineHooks = (*Prometheus)(nil)
	_ CacheHooks    = (*Prometheus)(nil)
	_ HTTPHooks     = (*Prometheus)(nil)
)
