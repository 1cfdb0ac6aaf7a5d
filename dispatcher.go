package ringlog

import (
	"errors"
	"sync"
)

// Dispatcher owns an ordered list of sinks and fans each record out to all
// of them. One sink's failure is reported on the internal logger and
// included in the joined return value, but never prevents delivery to the
// sinks after it: a broken sink degrades observability, it must not silently
// stop all logging.
//
// Registration, removal, and fan-out all serialize on one lock, so
// concurrent callers serialize at the dispatcher while each sink's internal
// state stays guarded by its own lock.
type Dispatcher struct {
	mu       sync.Mutex
	sinks    []Sink
	minLevel Level
	format   FormatFunc
	metrics  *Metrics
}

// NewDispatcher creates a dispatcher with its own minimum-level threshold.
// When format is non-nil each record is rendered once and the same bytes are
// fanned out to every sink via WriteFormatted; with a nil format the sinks
// receive the raw triple and render it themselves.
func NewDispatcher(minLevel Level, format FormatFunc) *Dispatcher {
	return &Dispatcher{minLevel: minLevel, format: format}
}

// AttachMetrics wires a Metrics bundle into the dispatch path.
func (d *Dispatcher) AttachMetrics(m *Metrics) {
	d.mu.Lock()
	d.metrics = m
	d.mu.Unlock()
}

// AddSink appends a sink to the fan-out list. Delivery follows registration
// order.
func (d *Dispatcher) AddSink(s Sink) {
	d.mu.Lock()
	d.sinks = append(d.sinks, s)
	d.mu.Unlock()
}

// RemoveSink removes a previously added sink, reporting whether it was
// found. The sink is not closed.
func (d *Dispatcher) RemoveSink(s Sink) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, have := range d.sinks {
		if have == s {
			d.sinks = append(d.sinks[:i], d.sinks[i+1:]...)
			return true
		}
	}
	return false
}

// Dispatch filters the record once at the dispatcher's threshold, optionally
// renders it once, then delivers it to every sink in registration order. The
// returned error joins the individual sink failures; a non-nil error still
// means every remaining sink was attempted.
func (d *Dispatcher) Dispatch(level Level, msg string, meta map[string]any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if level < d.minLevel {
		if d.metrics != nil {
			d.metrics.RecordsFiltered.Inc()
		}
		return nil
	}

	var rendered []byte
	if d.format != nil {
		rendered = d.format(level, msg, meta)
	}

	var errs []error
	for _, s := range d.sinks {
		var err error
		if rendered != nil {
			err = s.WriteFormatted(rendered)
		} else {
			err = s.WriteRaw(level, msg, meta)
		}
		if err != nil {
			InternalLogger().Printf("dispatch: sink write failed: %v", err)
			if d.metrics != nil {
				d.metrics.SinkErrors.Inc()
			}
			errs = append(errs, err)
		}
	}
	if d.metrics != nil {
		d.metrics.RecordsDispatched.Inc()
	}
	return errors.Join(errs...)
}

// Debug dispatches a record at debug level.
func (d *Dispatcher) Debug(msg string, meta map[string]any) error {
	return d.Dispatch(LevelDebug, msg, meta)
}

// Info dispatches a record at info level.
func (d *Dispatcher) Info(msg string, meta map[string]any) error {
	return d.Dispatch(LevelInfo, msg, meta)
}

// Warn dispatches a record at warn level.
func (d *Dispatcher) Warn(msg string, meta map[string]any) error {
	return d.Dispatch(LevelWarn, msg, meta)
}

// Error dispatches a record at error level.
func (d *Dispatcher) Error(msg string, meta map[string]any) error {
	return d.Dispatch(LevelError, msg, meta)
}

// Flush flushes every sink, not short-circuiting on the first failure.
func (d *Dispatcher) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for _, s := range d.sinks {
		if err := s.Flush(); err != nil {
			InternalLogger().Printf("dispatch: sink flush failed: %v", err)
			if d.metrics != nil {
				d.metrics.FlushErrors.Inc()
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink and empties the list. Each sink is closed even if
// an earlier one fails.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for _, s := range d.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	d.sinks = nil
	return errors.Join(errs...)
}
