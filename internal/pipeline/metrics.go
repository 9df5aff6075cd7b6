package pipeline

import "github.com/prometheus/client_golang/prometheus"

var (
	rendersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "screend",
			Subsystem: "pipeline",
			Name:      "renders_total",
			Help:      "Render attempts by outcome",
		},
		[]string{"tenant", "outcome"},
	)

	renderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "screend",
			Subsystem: "pipeline",
			Name:      "render_duration_seconds",
			Help:      "Duration of render passes in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"tenant"},
	)

	publishesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "screend",
			Subsystem: "pipeline",
			Name:      "publishes_total",
			Help:      "Successful artifact publishes",
		},
		[]string{"tenant"},
	)

	notifiesCoalescedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "screend",
			Subsystem: "pipeline",
			Name:      "notifies_coalesced_total",
			Help:      "Notifies absorbed by an already pending or running render",
		},
		[]string{"tenant"},
	)

	eventsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "screend",
			Subsystem: "broadcast",
			Name:      "events_dropped_total",
			Help:      "Events dropped due to a full subscriber buffer",
		},
		[]string{"tenant"},
	)
)

func init() {
	prometheus.MustRegister(rendersTotal, renderDuration, publishesTotal, notifiesCoalescedTotal, eventsDroppedTotal)
}
