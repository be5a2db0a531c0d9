package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "events"

// Registry is the registry served on /metrics.
var Registry = prometheus.NewRegistry()

// Registrations counts registration toggles by outcome: created, withdrawn, conflict.
var Registrations = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Registration toggles by outcome",
	},
	[]string{"outcome"},
)

// ReviewsCreated counts reviews accepted by the eligibility checks.
var ReviewsCreated = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reviews_created_total",
		Help:      "Reviews created",
	},
)

// ReviewsRejected counts review attempts refused by eligibility, labelled by reason.
var ReviewsRejected = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reviews_rejected_total",
		Help:      "Review creation attempts rejected by validation",
	},
	[]string{"reason"},
)

// Notifications counts notification deliveries by kind and result: sent, failed, dropped.
var Notifications = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notification deliveries by kind and result",
	},
	[]string{"kind", "result"},
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}
