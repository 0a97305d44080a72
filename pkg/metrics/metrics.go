package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics коллектор Prometheus-метрик сервиса
// Все методы безопасны для nil-получателя: если метрики выключены, вызовы игнорируются
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	dbQueryDuration *prometheus.HistogramVec
	dbQueryErrors   *prometheus.CounterVec
	dbOpenConns     prometheus.Gauge
	dbInUseConns    prometheus.Gauge
	dbIdleConns     prometheus.Gauge
	dbWaitCount     prometheus.Gauge

	reservationsTotal *prometheus.CounterVec
	releasesTotal     *prometheus.CounterVec
	adjustmentsTotal  *prometheus.CounterVec
	floorHitsTotal    prometheus.Counter

	cacheRequestsTotal *prometheus.CounterVec
	brokerPublishTotal *prometheus.CounterVec
}

// New регистрирует метрики в глобальном registry Prometheus
func New(serviceName string) *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, serviceName)
}

// NewWithRegistry регистрирует метрики в переданном registry (для тестов)
func NewWithRegistry(reg prometheus.Registerer, serviceName string) *Metrics {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: labels,
		}, []string{"method", "path", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),

		dbQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query latency",
			ConstLabels: labels,
			Buckets:     []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		dbQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_query_errors_total",
			Help:        "Total number of failed database queries",
			ConstLabels: labels,
		}, []string{"operation"}),
		dbOpenConns: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Number of established connections",
			ConstLabels: labels,
		}),
		dbInUseConns: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Number of connections currently in use",
			ConstLabels: labels,
		}),
		dbIdleConns: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Number of idle connections",
			ConstLabels: labels,
		}),
		dbWaitCount: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: labels,
		}),

		reservationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "slot_reservations_total",
			Help:        "Reserve attempts by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
		releasesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "slot_releases_total",
			Help:        "Release attempts by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
		adjustmentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "slot_capacity_adjustments_total",
			Help:        "Admin capacity adjustments by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
		floorHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name:        "slot_release_floor_hits_total",
			Help:        "Releases clamped at zero consumption (data anomaly)",
			ConstLabels: labels,
		}),

		cacheRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "availability_cache_requests_total",
			Help:        "Availability cache lookups by result",
			ConstLabels: labels,
		}, []string{"result"}),
		brokerPublishTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "broker_publish_total",
			Help:        "Capacity change events published to the broker",
			ConstLabels: labels,
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveHTTPRequest(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

func (m *Metrics) ObserveDBQuery(operation string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(operation).Observe(seconds)
	if err != nil {
		m.dbQueryErrors.WithLabelValues(operation).Inc()
	}
}

// SetDBPoolStats обновляет gauge-метрики пула соединений
func (m *Metrics) SetDBPoolStats(open, inUse, idle int, waitCount int64) {
	if m == nil {
		return
	}
	m.dbOpenConns.Set(float64(open))
	m.dbInUseConns.Set(float64(inUse))
	m.dbIdleConns.Set(float64(idle))
	m.dbWaitCount.Set(float64(waitCount))
}

func (m *Metrics) ObserveReservation(outcome string) {
	if m == nil {
		return
	}
	m.reservationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRelease(outcome string) {
	if m == nil {
		return
	}
	m.releasesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveAdjustment(outcome string) {
	if m == nil {
		return
	}
	m.adjustmentsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveReleaseFloorHit() {
	if m == nil {
		return
	}
	m.floorHitsTotal.Inc()
}

// ObserveCache result: "hit" | "miss"
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cacheRequestsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObservePublish(result string) {
	if m == nil {
		return
	}
	m.brokerPublishTotal.WithLabelValues(result).Inc()
}
