package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the Prometheus collectors exported by the auction core.
type Metrics struct {
	// Admissions by outcome: accepted, or the rejection reason code
	AdmissionsTotal *prometheus.CounterVec

	// CAS retries spent resolving admission races
	AdmissionRetries prometheus.Counter

	// Requests denied by security gates, labeled by reason code
	SecurityBlocksTotal *prometheus.CounterVec

	// Fraud signals ingested, labeled flagged/clean/stale
	FraudSignalsTotal *prometheus.CounterVec

	// Events dropped because a subscriber could not keep up
	NotifierDropsTotal prometheus.Counter
}

// New builds the metrics set against reg. Passing nil wires the collectors to
// a throwaway registry, which keeps tests free of global registration
// collisions.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		AdmissionsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "auction_bid_admissions_total",
			Help: "Total bid admission decisions by outcome.",
		}, []string{"outcome"}),

		AdmissionRetries: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "auction_bid_admission_retries_total",
			Help: "Total optimistic-update retries during bid admission.",
		}),

		SecurityBlocksTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "auction_security_blocks_total",
			Help: "Total requests denied by security gates.",
		}, []string{"reason"}),

		FraudSignalsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "auction_fraud_signals_total",
			Help: "Total fraud signals ingested by result.",
		}, []string{"result"}),

		NotifierDropsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "auction_notifier_dropped_events_total",
			Help: "Total realtime events dropped on slow or gone subscribers.",
		}),
	}
}
