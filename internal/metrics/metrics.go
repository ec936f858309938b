// Package metrics is a small, backend-agnostic abstraction for recording
// operational metrics from the catalog rebuild.
//
// The global backend defaults to a no-op implementation, so metric calls are
// always safe even when nothing is configured. Concrete systems live in
// subpackages and are installed via SetBackend; the rest of the codebase
// depends only on this interface.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error { return backend.Flush() }

// RecordEntity records the outcome of one entity load: duration, row count,
// and success/failure status.
func RecordEntity(entity string, rows int64, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"entity": entity, "status": status}
	backend.IncCounter("catalog_entity_total", 1, lbls)
	backend.IncCounter("catalog_rows_total", float64(rows), lbls)
	backend.ObserveHistogram("catalog_entity_duration_seconds", d.Seconds(), lbls)
}
