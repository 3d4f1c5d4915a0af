package core

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/reliefworks/allocation-simulator/model"
)

// Scenario is a small summary of what was loaded from JSON. It is
// mainly useful for logging from main() and for the driver to continue
// request numbering where the scenario left off.
type Scenario struct {
	LocationIDs   []int
	RouteCount    int
	ResourceTypes []string
	RequestIDs    []int
	MaxRequestID  int
}

// internal JSON shapes - kept unexported so the format can evolve.
type scenarioJSON struct {
	Locations []locationJSON `json:"locations"`
	Routes    []routeJSON    `json:"routes"`
	Resources []resourceJSON `json:"resources"`
	Requests  []requestJSON  `json:"requests"`
}

type locationJSON struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	Latitude    float64        `json:"latitude"`
	Longitude   float64        `json:"longitude"`
	Operational *bool          `json:"operational"` // optional; defaults to true
	MaxCapacity int            `json:"max_capacity"`
	Inventory   map[string]int `json:"inventory"` // optional initial local stock
}

type routeJSON struct {
	From        int     `json:"from"`
	To          int     `json:"to"`
	Capacity    int     `json:"capacity"`
	Cost        int     `json:"cost"`
	Operational *bool   `json:"operational"` // optional; defaults to true
	Distance    float64 `json:"distance"`
	RouteType   string  `json:"route_type"`
}

type resourceJSON struct {
	Type          string  `json:"type"`
	TotalQuantity int     `json:"total_quantity"`
	ExpiryDays    int     `json:"expiry_days"`
	UnitCost      float64 `json:"unit_cost"`
	UnitWeight    float64 `json:"unit_weight"`
	CriticalLevel int     `json:"critical_level"`
}

type requestJSON struct {
	ID           int    `json:"id"`
	Source       int    `json:"source"`
	Target       int    `json:"target"`
	ResourceType string `json:"resource_type"`
	Quantity     int    `json:"quantity"`
	Priority     int    `json:"priority"`
	Type         string `json:"type"` // "supply" | "demand" | "transfer"; defaults to demand
}

// LoadScenario reads a JSON scenario from r and populates the graph,
// ledger and queue. It fails on JSON/structural errors and on any
// individual insert error (duplicate IDs, unknown endpoints), wrapping
// the underlying sentinel so callers can classify the failure.
//
// Initial edge loads are NOT seeded here; call
// graph.SeedInitialLoads with a seeded generator afterwards.
func LoadScenario(graph *RoutingGraph, ledger *ResourceLedger, queue *RequestQueue, r io.Reader) (*Scenario, error) {
	if graph == nil || ledger == nil || queue == nil {
		return nil, fmt.Errorf("LoadScenario: nil collaborator")
	}

	var payload scenarioJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadScenario: decode failed: %w", err)
	}

	summary := &Scenario{
		LocationIDs:   make([]int, 0, len(payload.Locations)),
		ResourceTypes: make([]string, 0, len(payload.Resources)),
		RequestIDs:    make([]int, 0, len(payload.Requests)),
	}

	// 1) Locations, with optional initial local inventory.
	for _, lj := range payload.Locations {
		loc := model.NewLocation(lj.ID, lj.Name, lj.Latitude, lj.Longitude, lj.MaxCapacity)
		if lj.Operational != nil {
			loc.IsOperational = *lj.Operational
		}
		for resType, qty := range lj.Inventory {
			loc.AddInventory(resType, qty)
		}
		if err := graph.AddLocation(loc); err != nil {
			return nil, fmt.Errorf("LoadScenario: location %d: %w", lj.ID, err)
		}
		summary.LocationIDs = append(summary.LocationIDs, lj.ID)
	}

	// 2) Routes.
	for _, rj := range payload.Routes {
		operational := true
		if rj.Operational != nil {
			operational = *rj.Operational
		}
		err := graph.AddRoute(rj.From, rj.To, RouteSpec{
			Capacity:    rj.Capacity,
			Cost:        rj.Cost,
			Operational: operational,
			Distance:    rj.Distance,
			RouteType:   rj.RouteType,
		})
		if err != nil {
			return nil, fmt.Errorf("LoadScenario: route %d<->%d: %w", rj.From, rj.To, err)
		}
		summary.RouteCount++
	}

	// 3) Central resources.
	for _, sj := range payload.Resources {
		err := ledger.AddResource(&model.Resource{
			Type:          sj.Type,
			TotalQuantity: sj.TotalQuantity,
			ExpiryDays:    sj.ExpiryDays,
			UnitCost:      decimal.NewFromFloat(sj.UnitCost),
			UnitWeight:    decimal.NewFromFloat(sj.UnitWeight),
			CriticalLevel: sj.CriticalLevel,
		})
		if err != nil {
			return nil, fmt.Errorf("LoadScenario: resource %q: %w", sj.Type, err)
		}
		summary.ResourceTypes = append(summary.ResourceTypes, sj.Type)
	}

	// 4) Initial requests.
	now := time.Now()
	for _, qj := range payload.Requests {
		reqType, err := parseRequestType(qj.Type)
		if err != nil {
			return nil, fmt.Errorf("LoadScenario: request %d: %w", qj.ID, err)
		}
		req := model.NewRequest(qj.ID, qj.Source, qj.Target, qj.ResourceType, qj.Quantity, qj.Priority, reqType, now)
		if err := queue.Insert(req); err != nil {
			return nil, fmt.Errorf("LoadScenario: request %d: %w", qj.ID, err)
		}
		summary.RequestIDs = append(summary.RequestIDs, qj.ID)
		if qj.ID > summary.MaxRequestID {
			summary.MaxRequestID = qj.ID
		}
	}

	return summary, nil
}

func parseRequestType(s string) (model.RequestType, error) {
	switch s {
	case "", "demand":
		return model.TypeDemand, nil
	case "supply":
		return model.TypeSupply, nil
	case "transfer":
		return model.TypeTransfer, nil
	default:
		return 0, fmt.Errorf("unknown request type %q", s)
	}
}
