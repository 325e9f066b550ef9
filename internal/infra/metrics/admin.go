package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var adminRequestTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "admin_request_total",
		Help: "Tracks attempts to use admin endpoints.",
	},
	[]string{"route", "status"}, // status: 'authorized', 'unauthorized'
)

func init() { register(adminRequestTotal) }

func IncAdminRequest(route, status string) {
	adminRequestTotal.WithLabelValues(norm(route), norm(status)).Inc()
}
