package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "jeju_points"

// Metrics holds the Prometheus collectors of the points service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	GrantsTotal      *prometheus.CounterVec
	PointsMoved      *prometheus.CounterVec
	BoxesCreated     prometheus.Counter
	BoxClaimsTotal   *prometheus.CounterVec
	SweptBoxesTotal  *prometheus.CounterVec
	SweepRuns        *prometheus.CounterVec
	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		GrantsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "grants_total",
				Help:      "Ledger grants by log type and outcome code",
			},
			[]string{"type", "code"},
		),
		PointsMoved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "points_total",
				Help:      "Absolute points moved by committed ledger entries",
			},
			[]string{"type"},
		),
		BoxesCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pointbox",
				Name:      "created_total",
				Help:      "Point boxes created",
			},
		),
		BoxClaimsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pointbox",
				Name:      "claims_total",
				Help:      "Point box claim attempts by outcome code",
			},
			[]string{"code"},
		),
		SweptBoxesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pointbox",
				Name:      "swept_total",
				Help:      "Expired point boxes handled by the sweep",
			},
			[]string{"outcome"}, // refunded, deleted, skipped, failed
		),
		SweepRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pointbox",
				Name:      "sweep_runs_total",
				Help:      "Sweep runs by trigger",
			},
			[]string{"trigger"},
		),
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of requests",
			},
			[]string{"route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
	}
}

// ObserveGrant counts one ledger grant attempt. code is empty on success.
func (m *Metrics) ObserveGrant(logType, code string, amount int64) {
	if m == nil {
		return
	}
	if code == "" {
		code = "ok"
		if amount < 0 {
			amount = -amount
		}
		m.PointsMoved.WithLabelValues(logType).Add(float64(amount))
	}
	m.GrantsTotal.WithLabelValues(logType, code).Inc()
}

func (m *Metrics) ObserveBoxCreated() {
	if m == nil {
		return
	}
	m.BoxesCreated.Inc()
}

// ObserveClaim counts one claim attempt. code is empty on success.
func (m *Metrics) ObserveClaim(code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = "ok"
	}
	m.BoxClaimsTotal.WithLabelValues(code).Inc()
}

func (m *Metrics) ObserveSwept(outcome string) {
	if m == nil {
		return
	}
	m.SweptBoxesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSweepRun(trigger string) {
	if m == nil {
		return
	}
	m.SweepRuns.WithLabelValues(trigger).Inc()
}
