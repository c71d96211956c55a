package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	recordsFetched *prometheus.CounterVec
	malformed      *prometheus.CounterVec
	providerErrors *prometheus.CounterVec
	quotaExceeded  *prometheus.CounterVec
	cyclesTotal    *prometheus.CounterVec
	cycleDuration  prometheus.Histogram
	notifications  *prometheus.CounterVec
	congestion     *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		recordsFetched: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marinepulse_records_fetched_total",
				Help: "Raw records fetched per provider",
			},
			[]string{"provider"},
		),
		malformed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marinepulse_malformed_records_total",
				Help: "Records dropped as malformed or unrepresentable per provider",
			},
			[]string{"provider"},
		),
		providerErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marinepulse_provider_errors_total",
				Help: "Provider-level fetch failures by error kind",
			},
			[]string{"provider", "kind"},
		),
		quotaExceeded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marinepulse_quota_exceeded_total",
				Help: "Fetches refused because the provider quota was spent",
			},
			[]string{"provider"},
		),
		cyclesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marinepulse_cycles_total",
				Help: "Scheduler cycles by result (ok, partial, failed, dropped)",
			},
			[]string{"result"},
		),
		cycleDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "marinepulse_cycle_duration_seconds",
				Help:    "Full cycle duration, fetch through dispatch",
				Buckets: prometheus.DefBuckets,
			},
		),
		notifications: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marinepulse_notifications_total",
				Help: "Notification events by delivery result (delivered, undelivered)",
			},
			[]string{"result"},
		),
		congestion: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marinepulse_port_congestion",
				Help: "Last reconciled congestion metric value per port",
			},
			[]string{"port"},
		),
	}
}

func (r *Recorder) RecordFetched(provider string, count int) {
	r.recordsFetched.WithLabelValues(provider).Add(float64(count))
}

func (r *Recorder) RecordMalformed(provider string) {
	r.malformed.WithLabelValues(provider).Inc()
}

func (r *Recorder) RecordProviderError(provider, kind string) {
	r.providerErrors.WithLabelValues(provider, kind).Inc()
}

func (r *Recorder) RecordQuotaExceeded(provider string) {
	r.quotaExceeded.WithLabelValues(provider).Inc()
}

func (r *Recorder) RecordCycle(result string, d time.Duration) {
	r.cyclesTotal.WithLabelValues(result).Inc()
	r.cycleDuration.Observe(d.Seconds())
}

func (r *Recorder) RecordNotification(result string) {
	r.notifications.WithLabelValues(result).Inc()
}

func (r *Recorder) RecordCongestion(portID string, value float64) {
	r.congestion.WithLabelValues(portID).Set(value)
}
