package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/reliefworks/allocation-simulator/model"
)

func TestCollectorRecordsEngineMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAllocationCollector(reg)
	if err != nil {
		t.Fatalf("NewAllocationCollector: %v", err)
	}

	collector.RequestProcessed(model.StatusFulfilled)
	collector.RequestProcessed(model.StatusFulfilled)
	collector.RequestProcessed(model.StatusInvalid)
	collector.AllocationCommitted("Water", 200)
	collector.PathComputationSeconds(0.002)
	collector.QueueDepth(4)

	if got := testutil.ToFloat64(collector.RequestsProcessed.WithLabelValues("FULFILLED")); got != 2 {
		t.Fatalf("relief_requests_processed_total{status=FULFILLED} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.RequestsProcessed.WithLabelValues("INVALID")); got != 1 {
		t.Fatalf("relief_requests_processed_total{status=INVALID} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.AllocatedUnits.WithLabelValues("Water")); got != 200 {
		t.Fatalf("relief_allocated_units_total{resource=Water} = %v, want 200", got)
	}
	if got := testutil.ToFloat64(collector.RequestsQueued); got != 4 {
		t.Fatalf("relief_request_queue_depth = %v, want 4", got)
	}
	hist := findHistogram(t, reg, "relief_path_computation_duration_seconds")
	if hist == nil || hist.GetSampleCount() != 1 {
		t.Fatalf("relief_path_computation_duration_seconds sample_count = %v, want 1", hist.GetSampleCount())
	}
}

func TestCollectorNetworkGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAllocationCollector(reg)
	if err != nil {
		t.Fatalf("NewAllocationCollector: %v", err)
	}

	collector.UpdateNetworkGauges(4, 5, 2, 6)

	if got := testutil.ToFloat64(collector.OperationalLocations); got != 4 {
		t.Fatalf("relief_locations_operational = %v, want 4", got)
	}
	if got := testutil.ToFloat64(collector.TotalLocations); got != 5 {
		t.Fatalf("relief_locations_total = %v, want 5", got)
	}
	if got := testutil.ToFloat64(collector.CriticalResources); got != 2 {
		t.Fatalf("relief_resources_below_critical = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.ClosedRouteDirections); got != 6 {
		t.Fatalf("relief_route_directions_closed = %v, want 6", got)
	}
}

func TestCollectorToleratesReRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewAllocationCollector(reg); err != nil {
		t.Fatalf("first NewAllocationCollector: %v", err)
	}
	second, err := NewAllocationCollector(reg)
	if err != nil {
		t.Fatalf("second NewAllocationCollector should reuse collectors: %v", err)
	}

	second.RequestProcessed(model.StatusFulfilled)
	if got := testutil.ToFloat64(second.RequestsProcessed.WithLabelValues("FULFILLED")); got != 1 {
		t.Fatalf("reused counter = %v, want 1", got)
	}
}

func TestMetricsHandlerExposesReliefMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAllocationCollector(reg)
	if err != nil {
		t.Fatalf("NewAllocationCollector: %v", err)
	}
	collector.RequestProcessed(model.StatusFulfilled)
	collector.AllocationCommitted("Water", 100)
	collector.PathComputationSeconds(0.001)
	collector.UpdateNetworkGauges(3, 5, 1, 2)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"relief_requests_processed_total",
		"relief_allocated_units_total",
		"relief_path_computation_duration_seconds",
		"relief_request_queue_depth",
		"relief_locations_operational",
		"relief_locations_total",
		"relief_resources_below_critical",
		"relief_route_directions_closed",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func findHistogram(t *testing.T, gatherer prometheus.Gatherer, name string) *dto.Histogram {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if h := m.GetHistogram(); h != nil {
				return h
			}
		}
	}
	return nil
}
