package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(eventSubscribers, eventsDroppedTotal) }

var (
	eventSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "job_event_subscribers",
		Help: "Connected websocket subscribers of the job event stream.",
	})

	eventsDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "job_events_dropped_total",
		Help: "Job events dropped because a subscriber was too slow.",
	})
)

func SetEventSubscribers(n int) { eventSubscribers.Set(float64(n)) }

func IncEventsDropped() { eventsDroppedTotal.Inc() }
