package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	draftService = "draft_service"

	claimsAttemptedTotal = "claims_attempted_total"
	claimsWonTotal       = "claims_won_total"
	draftsReadyTotal     = "drafts_ready_total"
	draftsFailedTotal    = "drafts_failed_total"
	draftRetriesTotal    = "draft_retries_total"
	pendingDraftsCount   = "pending_drafts_count"

	workerLabel = "worker"
)

var claimLabels = []string{workerLabel}

var claimsAttemptedMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: draftService,
		Name:      claimsAttemptedTotal,
		Help:      "number of conditional claim updates attempted",
	},
	claimLabels,
)

var claimsWonMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: draftService,
		Name:      claimsWonTotal,
		Help:      "number of conditional claim updates that affected a row",
	},
	claimLabels,
)

var draftsReadyMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: draftService,
		Name:      draftsReadyTotal,
		Help:      "number of draft jobs that reached the ready state",
	},
	claimLabels,
)

var draftsFailedMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: draftService,
		Name:      draftsFailedTotal,
		Help:      "number of draft jobs that exhausted their attempts",
	},
	claimLabels,
)

var draftRetriesMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: draftService,
		Name:      draftRetriesTotal,
		Help:      "number of draft job executions rescheduled with backoff",
	},
	claimLabels,
)

var pendingDraftsMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: draftService,
		Name:      pendingDraftsCount,
		Help:      "number of pending draft jobs observed by the last poll",
	},
)

func IncreaseClaimsAttemptedMetric(worker string) {
	claimsAttemptedMetric.With(prometheus.Labels{workerLabel: worker}).Inc()
}

func IncreaseClaimsWonMetric(worker string) {
	claimsWonMetric.With(prometheus.Labels{workerLabel: worker}).Inc()
}

func IncreaseDraftsReadyMetric(worker string) {
	draftsReadyMetric.With(prometheus.Labels{workerLabel: worker}).Inc()
}

func IncreaseDraftsFailedMetric(worker string) {
	draftsFailedMetric.With(prometheus.Labels{workerLabel: worker}).Inc()
}

func IncreaseDraftRetriesMetric(worker string) {
	draftRetriesMetric.With(prometheus.Labels{workerLabel: worker}).Inc()
}

func UpdatePendingDraftsMetric(count int) {
	pendingDraftsMetric.Set(float64(count))
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(claimsAttemptedMetric)
	prometheus.MustRegister(claimsWonMetric)
	prometheus.MustRegister(draftsReadyMetric)
	prometheus.MustRegister(draftsFailedMetric)
	prometheus.MustRegister(draftRetriesMetric)
	prometheus.MustRegister(pendingDraftsMetric)
}
