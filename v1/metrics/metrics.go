package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the Prometheus collectors for one client instance.
type Metrics struct {
	// AcquireAttempts counts every acquisition request sent, including
	// polls of a busy resource.
	AcquireAttempts prometheus.Counter
	// AcquireConflicts counts busy answers from the service.
	AcquireConflicts prometheus.Counter
	// Acquired counts successful acquisitions.
	Acquired prometheus.Counter
	// Released counts successful releases.
	Released prometheus.Counter
	// ReleaseFailures counts release errors, including the ones swallowed
	// during scoped-acquisition cleanup.
	ReleaseFailures prometheus.Counter
	// AcquireWaitSeconds observes the wall time spent inside an
	// acquisition call, polls and sleeps included.
	AcquireWaitSeconds prometheus.Histogram
}

// New creates the client collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AcquireAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dlock_acquire_attempts_total",
			Help: "Total number of acquisition requests sent",
		}),
		AcquireConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dlock_acquire_conflicts_total",
			Help: "Total number of busy answers received",
		}),
		Acquired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dlock_acquired_total",
			Help: "Total number of locks acquired",
		}),
		Released: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dlock_released_total",
			Help: "Total number of locks released",
		}),
		ReleaseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dlock_release_failures_total",
			Help: "Total number of failed release attempts",
		}),
		AcquireWaitSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dlock_acquire_wait_seconds",
			Help:    "Wall time spent acquiring a lock",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		m.AcquireAttempts,
		m.AcquireConflicts,
		m.Acquired,
		m.Released,
		m.ReleaseFailures,
		m.AcquireWaitSeconds,
	)
	return m
}

// NewRegistry creates a new Prometheus registry.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}
