package ringlog

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the Prometheus counters the dispatcher increments while
// fanning records out. Attach a bundle with Dispatcher.AttachMetrics and
// register it against the application's registry.
type Metrics struct {
	RecordsDispatched prometheus.Counter
	RecordsFiltered   prometheus.Counter
	SinkErrors        prometheus.Counter
	FlushErrors       prometheus.Counter
}

// NewMetrics creates an unregistered metrics bundle.
func NewMetrics() *Metrics {
	return &Metrics{
		RecordsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ringlog",
			Subsystem: "dispatch",
			Name:      "records_total",
			Help:      "Total number of records fanned out to sinks",
		}),
		RecordsFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ringlog",
			Subsystem: "dispatch",
			Name:      "records_filtered_total",
			Help:      "Total number of records dropped by the dispatcher level threshold",
		}),
		SinkErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ringlog",
			Subsystem: "dispatch",
			Name:      "sink_errors_total",
			Help:      "Total number of per-sink write failures during fan-out",
		}),
		FlushErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ringlog",
			Subsystem: "dispatch",
			Name:      "flush_errors_total",
			Help:      "Total number of per-sink flush failures",
		}),
	}
}

// Register registers every counter in the bundle against reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	return errors.Join(
		reg.Register(m.RecordsDispatched),
		reg.Register(m.RecordsFiltered),
		reg.Register(m.SinkErrors),
		reg.Register(m.FlushErrors),
	)
}
