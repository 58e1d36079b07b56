package conn

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tobsdb/jqldb/internal/query"
)

// Metrics are kept on their own registry so several servers can coexist in
// one process. A nil *Metrics records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	Queries     *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	Allocated   *prometheus.CounterVec
	Connections prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jql_queries_total",
				Help: "Total number of queries by request action and outcome",
			},
			[]string{"action", "outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jql_query_duration_seconds",
				Help:    "Histogram of query execution times",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		Allocated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jql_query_allocated_bytes_total",
				Help: "Bytes allocated while executing queries",
			},
			[]string{"action"},
		),
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jql_open_connections",
			Help: "Number of open websocket sessions",
		}),
	}
	m.Registry.MustRegister(m.Queries, m.Duration, m.Allocated, m.Connections)
	return m
}

func (m *Metrics) Observe(action RequestAction, res query.QueryResult) {
	if m == nil {
		return
	}
	outcome := "ok"
	if res.Error {
		outcome = "error"
	}
	m.Queries.WithLabelValues(string(action), outcome).Inc()
	m.Duration.WithLabelValues(string(action)).Observe((time.Duration(res.ElapsedTime) * time.Microsecond).Seconds())
	if res.MemoryUsage > 0 {
		m.Allocated.WithLabelValues(string(action)).Add(float64(res.MemoryUsage))
	}
}

func (m *Metrics) connOpened() {
	if m != nil {
		m.Connections.Inc()
	}
}

func (m *Metrics) connClosed() {
	if m != nil {
		m.Connections.Dec()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
