package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pmbank/settlement/internal/domain"
)

// Metrics holds all Prometheus metrics. It implements
// usecase.SettlementMetrics.
type Metrics struct {
	// Settlement metrics
	SettlementsTotal   *prometheus.CounterVec
	SettlementDuration *prometheus.HistogramVec
	RejectionsTotal    *prometheus.CounterVec
	CompensationsTotal *prometheus.CounterVec

	// Event metrics
	EventsPublished *prometheus.CounterVec
	EventsConsumed  *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SettlementsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlement_payments_total",
				Help: "Total number of settled payments by terminal status",
			},
			[]string{"status"},
		),
		SettlementDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "settlement_duration_seconds",
				Help:    "Duration of the settlement saga",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		RejectionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlement_rejections_total",
				Help: "Total number of payments rejected before the durable checkpoint",
			},
			[]string{"reason"},
		),
		CompensationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlement_compensations_total",
				Help: "Total number of compensating ledger calls by confirmation outcome",
			},
			[]string{"confirmed"},
		),
		EventsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlement_events_published_total",
				Help: "Total number of payment event publish attempts by outcome",
			},
			[]string{"success"},
		),
		EventsConsumed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlement_events_consumed_total",
				Help: "Total number of payment events applied per consumer group",
			},
			[]string{"group"},
		),
	}
}

// ObserveSettlement records a completed saga run.
func (m *Metrics) ObserveSettlement(status domain.PaymentStatus, duration time.Duration) {
	m.SettlementsTotal.WithLabelValues(string(status)).Inc()
	m.SettlementDuration.WithLabelValues(string(status)).Observe(duration.Seconds())
}

// IncRejection records a payment rejected before any durable write.
func (m *Metrics) IncRejection(reason string) {
	m.RejectionsTotal.WithLabelValues(reason).Inc()
}

// IncCompensation records a compensating ledger call. An unconfirmed
// compensation is the signal an operator alert hangs off.
func (m *Metrics) IncCompensation(confirmed bool) {
	m.CompensationsTotal.WithLabelValues(strconv.FormatBool(confirmed)).Inc()
}

// ObservePublish records a payment event publish attempt.
func (m *Metrics) ObservePublish(success bool) {
	m.EventsPublished.WithLabelValues(strconv.FormatBool(success)).Inc()
}
