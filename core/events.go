package core

import "github.com/reliefworks/allocation-simulator/model"

// EventSink receives structured events from the core. The core never
// formats output itself; collaborators decide how events are rendered
// or persisted.
type EventSink interface {
	// Allocation is invoked once per committed stock movement.
	Allocation(ev model.AllocationEvent)
	// NetworkChange is invoked when a route opens or closes.
	NetworkChange(ev model.NetworkChangeEvent)
	// StatusLine carries free-text progress lines, e.g. per-request
	// processing notes.
	StatusLine(line string)
}

// NopSink drops all events. It is the default sink.
type NopSink struct{}

func (NopSink) Allocation(model.AllocationEvent)       {}
func (NopSink) NetworkChange(model.NetworkChangeEvent) {}
func (NopSink) StatusLine(string)                      {}

// MultiSink fans events out to several sinks in order.
type MultiSink []EventSink

func (m MultiSink) Allocation(ev model.AllocationEvent) {
	for _, s := range m {
		s.Allocation(ev)
	}
}

func (m MultiSink) NetworkChange(ev model.NetworkChangeEvent) {
	for _, s := range m {
		s.NetworkChange(ev)
	}
}

func (m MultiSink) StatusLine(line string) {
	for _, s := range m {
		s.StatusLine(line)
	}
}

// MetricsRecorder receives engine-level measurements. The concrete
// implementation lives in internal/observability; a no-op recorder is
// the default so the core never depends on Prometheus directly.
type MetricsRecorder interface {
	RequestProcessed(status model.RequestStatus)
	AllocationCommitted(resourceType string, qty int)
	PathComputationSeconds(seconds float64)
	QueueDepth(n int)
}

// NopMetrics is the default MetricsRecorder.
type NopMetrics struct{}

func (NopMetrics) RequestProcessed(model.RequestStatus) {}
func (NopMetrics) AllocationCommitted(string, int)      {}
func (NopMetrics) PathComputationSeconds(float64)       {}
func (NopMetrics) QueueDepth(int)                       {}
