package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reliefworks/allocation-simulator/model"
)

// AllocationCollector bundles Prometheus metrics for the allocation
// engine and the simulation driver. It implements core.MetricsRecorder
// so the core stays free of any Prometheus dependency.
type AllocationCollector struct {
	gatherer prometheus.Gatherer

	RequestsProcessed *prometheus.CounterVec
	AllocatedUnits    *prometheus.CounterVec
	PathComputation   prometheus.Histogram

	RequestsQueued        prometheus.Gauge
	OperationalLocations  prometheus.Gauge
	TotalLocations        prometheus.Gauge
	CriticalResources     prometheus.Gauge
	ClosedRouteDirections prometheus.Gauge
}

// NewAllocationCollector registers allocation metrics against the
// provided registerer, defaulting to the global Prometheus registry
// when nil.
func NewAllocationCollector(reg prometheus.Registerer) (*AllocationCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relief_requests_processed_total",
		Help: "Total number of drained requests, labeled by terminal status.",
	}, []string{"status"})
	requests, err := registerCounterVec(reg, requests, "relief_requests_processed_total")
	if err != nil {
		return nil, err
	}

	allocated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relief_allocated_units_total",
		Help: "Total units committed by the allocation engine, labeled by resource type.",
	}, []string{"resource"})
	allocated, err = registerCounterVec(reg, allocated, "relief_allocated_units_total")
	if err != nil {
		return nil, err
	}

	pathHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "relief_path_computation_duration_seconds",
		Help:    "Duration of feasible-path computations performed by the routing graph.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})
	pathHistogram, err = registerHistogram(reg, pathHistogram, "relief_path_computation_duration_seconds")
	if err != nil {
		return nil, err
	}

	requestsQueued, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relief_request_queue_depth",
		Help: "Number of requests currently queued.",
	}), "relief_request_queue_depth")
	if err != nil {
		return nil, err
	}
	operational, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relief_locations_operational",
		Help: "Number of locations currently operational.",
	}), "relief_locations_operational")
	if err != nil {
		return nil, err
	}
	total, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relief_locations_total",
		Help: "Total number of locations in the network.",
	}), "relief_locations_total")
	if err != nil {
		return nil, err
	}
	critical, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relief_resources_below_critical",
		Help: "Number of resource types below their critical level.",
	}), "relief_resources_below_critical")
	if err != nil {
		return nil, err
	}
	closed, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relief_route_directions_closed",
		Help: "Number of directional route records currently non-operational.",
	}), "relief_route_directions_closed")
	if err != nil {
		return nil, err
	}

	return &AllocationCollector{
		gatherer:              gatherer,
		RequestsProcessed:     requests,
		AllocatedUnits:        allocated,
		PathComputation:       pathHistogram,
		RequestsQueued:        requestsQueued,
		OperationalLocations:  operational,
		TotalLocations:        total,
		CriticalResources:     critical,
		ClosedRouteDirections: closed,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *AllocationCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler returns an HTTP handler exposing the collector's metrics.
func (c *AllocationCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

//
// ---------- core.MetricsRecorder ----------
//

func (c *AllocationCollector) RequestProcessed(status model.RequestStatus) {
	if c == nil || c.RequestsProcessed == nil {
		return
	}
	c.RequestsProcessed.WithLabelValues(status.String()).Inc()
}

func (c *AllocationCollector) AllocationCommitted(resourceType string, qty int) {
	if c == nil || c.AllocatedUnits == nil {
		return
	}
	c.AllocatedUnits.WithLabelValues(resourceType).Add(float64(qty))
}

func (c *AllocationCollector) PathComputationSeconds(seconds float64) {
	if c == nil || c.PathComputation == nil {
		return
	}
	c.PathComputation.Observe(seconds)
}

func (c *AllocationCollector) QueueDepth(n int) {
	if c == nil || c.RequestsQueued == nil {
		return
	}
	c.RequestsQueued.Set(float64(n))
}

// UpdateNetworkGauges refreshes the end-of-cycle gauges from the
// driver's summary counts.
func (c *AllocationCollector) UpdateNetworkGauges(operationalLocations, totalLocations, criticalResources, closedRouteDirections int) {
	if c == nil {
		return
	}
	if c.OperationalLocations != nil {
		c.OperationalLocations.Set(float64(operationalLocations))
	}
	if c.TotalLocations != nil {
		c.TotalLocations.Set(float64(totalLocations))
	}
	if c.CriticalResources != nil {
		c.CriticalResources.Set(float64(criticalResources))
	}
	if c.ClosedRouteDirections != nil {
		c.ClosedRouteDirections.Set(float64(closedRouteDirections))
	}
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
