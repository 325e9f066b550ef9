package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(deliveriesTotal) }

var deliveriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifier_deliveries_total",
		Help: "Outbound deliveries by channel and result.",
	},
	[]string{"channel", "result"}, // result: 'ok', 'error'
)

func IncDelivery(channel string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	deliveriesTotal.WithLabelValues(norm(channel), result).Inc()
}
