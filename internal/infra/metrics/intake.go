package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		intakeMessagesTotal,
		rateLimitTriggeredTotal,
	)
}

var (
	intakeMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_messages_total",
			Help: "Counts inbound messages by classified intent.",
		},
		[]string{"intent"},
	)

	rateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_rate_limit_triggered_total",
			Help: "Total number of times requesters have been rate-limited.",
		},
	)
)

func IncIntakeMessage(intent string) {
	intakeMessagesTotal.WithLabelValues(norm(intent)).Inc()
}

func IncRateLimitTriggered() {
	rateLimitTriggeredTotal.Inc()
}
