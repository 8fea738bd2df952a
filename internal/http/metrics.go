package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/credgate/internal/email"
)

// Metrics agrupa los collectors del servicio sobre un registry propio
// (nada va al DefaultRegisterer, así los tests pueden crear varios).
type Metrics struct {
	reg *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        prometheus.Gauge

	rateLimitedTotal     *prometheus.CounterVec
	notificationFailures *prometheus.CounterVec
}

// MetricsConfig agrupa dependencias opcionales para /metrics.
type MetricsConfig struct {
	// Pool expone gauges del pool de pg cuando el store es postgres.
	Pool func() *pgxpool.Pool
	// Runtime agrega los collectors de Go y del proceso.
	Runtime bool
}

func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo",
		}),
		rateLimitedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rechazados con 429 por grupo",
		}, []string{"group"}),
		notificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Envíos de email best-effort fallidos o descartados",
		}, []string{"job", "reason"}),
	}

	cs := []prometheus.Collector{
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpInflight,
		m.rateLimitedTotal,
		m.notificationFailures,
	}
	if cfg.Runtime {
		cs = append(cs,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	if cfg.Pool != nil {
		cs = append(cs, newDBPoolCollector(cfg.Pool))
	}
	for _, c := range cs {
		if err := registerCollector(m.reg, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler expone el registry en formato Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry se usa en tests para leer valores.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) ObserveRequest(method, route string, status int, took time.Duration) {
	method = strings.ToUpper(method)
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

func (m *Metrics) InflightAdd(delta float64) { m.httpInflight.Add(delta) }

// RateLimited cuenta un 429. Se pasa como OnReject al middleware.
func (m *Metrics) RateLimited(group string) {
	m.rateLimitedTotal.WithLabelValues(group).Inc()
}

// NotificationFailed cuenta un envío best-effort fallido. Se pasa como
// OnFailure al dispatcher; reason es la clasificación SMTP del error.
func (m *Metrics) NotificationFailed(job string, err error) {
	reason := "queue_full"
	if !errors.Is(err, email.ErrQueueFull) {
		reason = email.DiagnoseSMTP(err).Code
	}
	m.notificationFailures.WithLabelValues(job, reason).Inc()
}

// registerCollector registra el collector en el registry indicado, ignorando duplicados.
func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if err := reg.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return err
	}
	return nil
}

// dbPoolCollector expone gauges del pool de pgx.
type dbPoolCollector struct {
	pool func() *pgxpool.Pool

	acquiredDesc *prometheus.Desc
	idleDesc     *prometheus.Desc
	totalDesc    *prometheus.Desc
}

func newDBPoolCollector(pool func() *pgxpool.Pool) *dbPoolCollector {
	return &dbPoolCollector{
		pool:         pool,
		acquiredDesc: prometheus.NewDesc("pg_pool_acquired", "Conexiones adquiridas", nil, nil),
		idleDesc:     prometheus.NewDesc("pg_pool_idle", "Conexiones inactivas", nil, nil),
		totalDesc:    prometheus.NewDesc("pg_pool_total", "Conexiones totales", nil, nil),
	}
}

func (c *dbPoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredDesc
	ch <- c.idleDesc
	ch <- c.totalDesc
}

func (c *dbPoolCollector) Collect(ch chan<- prometheus.Metric) {
	pool := c.pool()
	if pool == nil {
		return
	}
	stat := pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.acquiredDesc, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, float64(stat.TotalConns()))
}
