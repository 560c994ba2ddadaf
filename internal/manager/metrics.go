package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	instancesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mpvd",
			Subsystem: "manager",
			Name:      "instances_created_total",
			Help:      "Total number of engine instances created",
		},
	)

	instancesLive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mpvd",
			Subsystem: "manager",
			Name:      "instances",
			Help:      "Instances currently resolvable in the registry",
		},
	)

	bridgesActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mpvd",
			Subsystem: "manager",
			Name:      "bridges_active",
			Help:      "Running event bridge goroutines",
		},
	)

	bridgeMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mpvd",
			Subsystem: "manager",
			Name:      "bridge_messages_total",
			Help:      "Engine events handled by bridges, by delivery result",
		},
		[]string{"result"},
	)

	teardownsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mpvd",
			Subsystem: "manager",
			Name:      "teardowns_total",
			Help:      "Completed teardowns by result",
		},
		[]string{"result"},
	)

	teardownDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mpvd",
			Subsystem: "manager",
			Name:      "teardown_duration_seconds",
			Help:      "Time from destroy to teardown completion",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 2.5, 5, 10, 30},
		},
	)

	teardownLeaks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mpvd",
			Subsystem: "manager",
			Name:      "teardown_leaks_total",
			Help:      "Teardowns that timed out and leaked native resources",
		},
	)
)

func init() {
	prometheus.MustRegister(instancesCreated, instancesLive, bridgesActive, bridgeMessages,
		teardownsTotal, teardownDuration, teardownLeaks)
}
