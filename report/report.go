// Package report builds structured status reports over the relief
// network. Generation is pure: the caller decides whether a report is
// printed, persisted, or discarded, by choosing the writer.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/reliefworks/allocation-simulator/core"
	"github.com/reliefworks/allocation-simulator/model"
)

// ResourceStatus summarizes one central resource type.
type ResourceStatus struct {
	Type          string
	Total         int
	Available     int
	ExpiryDays    int
	UnitCost      decimal.Decimal
	UnitWeight    decimal.Decimal
	CriticalLevel int
	BelowCritical bool

	// StockValue is Available * UnitCost.
	StockValue decimal.Decimal
}

// LocationStatus summarizes one location and its local inventory.
type LocationStatus struct {
	ID            int
	Name          string
	IsOperational bool
	Occupancy     int
	MaxCapacity   int
	Inventory     map[string]int
}

// RouteStatus summarizes one directional route record.
type RouteStatus struct {
	From          int
	To            int
	RouteType     string
	IsOperational bool
	CurrentLoad   int
	Capacity      int
	Cost          int
	Distance      float64
}

// RequestResult summarizes the outcome of one processed request.
type RequestResult struct {
	RequestID int
	Status    string
	Resource  string
	Quantity  int
	Fulfilled int
	Path      []int
	Note      string
}

// Report is a point-in-time structured summary of the whole system.
type Report struct {
	Day int

	OperationalLocations int
	TotalLocations       int

	Resources  []ResourceStatus
	Critical   []string
	Locations  []LocationStatus
	Routes     []RouteStatus
	Outcomes   []RequestResult
	History    []model.AllocationEvent
	Disruption string // empty when the day passed without incident

	// TotalStockValue is the valuation of all available central stock.
	TotalStockValue decimal.Decimal
}

// Generator reads the graph and ledger to assemble reports.
type Generator struct {
	graph  *core.RoutingGraph
	ledger *core.ResourceLedger
}

// NewGenerator wires a report generator to its data sources.
func NewGenerator(graph *core.RoutingGraph, ledger *core.ResourceLedger) *Generator {
	return &Generator{graph: graph, ledger: ledger}
}

// Generate assembles a report for the given day from the current
// system state plus the day's request outcomes and allocation history.
func (g *Generator) Generate(day int, outcomes []core.RequestOutcome, history []model.AllocationEvent, disruption string) *Report {
	rep := &Report{
		Day:        day,
		History:    history,
		Disruption: disruption,
	}
	rep.OperationalLocations, rep.TotalLocations = g.graph.OperationalLocationCounts()
	rep.Critical = g.ledger.CriticalTypes()

	total := decimal.Zero
	for _, res := range g.ledger.Snapshot() {
		value := res.UnitCost.Mul(decimal.NewFromInt(int64(res.Available())))
		rep.Resources = append(rep.Resources, ResourceStatus{
			Type:          res.Type,
			Total:         res.TotalQuantity,
			Available:     res.Available(),
			ExpiryDays:    res.ExpiryDays,
			UnitCost:      res.UnitCost,
			UnitWeight:    res.UnitWeight,
			CriticalLevel: res.CriticalLevel,
			BelowCritical: res.IsBelowCritical(),
			StockValue:    value,
		})
		total = total.Add(value)
	}
	rep.TotalStockValue = total

	for _, id := range g.graph.LocationIDs() {
		loc, err := g.graph.LocationSnapshot(id)
		if err != nil {
			continue
		}
		rep.Locations = append(rep.Locations, LocationStatus{
			ID:            id,
			Name:          loc.Name,
			IsOperational: loc.IsOperational,
			Occupancy:     loc.CurrentOccupancy,
			MaxCapacity:   loc.MaxCapacity,
			Inventory:     loc.Inventory,
		})

		for _, e := range g.graph.Edges(id) {
			rep.Routes = append(rep.Routes, RouteStatus{
				From:          id,
				To:            e.To,
				RouteType:     e.RouteType,
				IsOperational: e.IsOperational,
				CurrentLoad:   e.CurrentLoad,
				Capacity:      e.Capacity,
				Cost:          e.Cost,
				Distance:      e.Distance,
			})
		}
	}

	for _, out := range outcomes {
		rep.Outcomes = append(rep.Outcomes, RequestResult{
			RequestID: out.Request.ID,
			Status:    out.Request.Status.String(),
			Resource:  out.Request.ResourceType,
			Quantity:  out.Request.RequiredQuantity,
			Fulfilled: out.Request.FulfilledQuantity,
			Path:      out.Path,
			Note:      out.Note,
		})
	}

	return rep
}

// Render writes a human-readable rendering of the report.
func (r *Report) Render(w io.Writer) error {
	fmt.Fprintf(w, "========== DAY %d STATUS REPORT ==========\n\n", r.Day)
	fmt.Fprintf(w, "Operational locations: %d/%d\n", r.OperationalLocations, r.TotalLocations)
	if r.Disruption != "" {
		fmt.Fprintf(w, "Disruption: %s\n", r.Disruption)
	}

	if len(r.Critical) == 0 {
		fmt.Fprintln(w, "All resources are above critical levels.")
	} else {
		for _, t := range r.Critical {
			fmt.Fprintf(w, "WARNING: %s is below critical level\n", t)
		}
	}

	fmt.Fprintln(w, "\nCentral inventory:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tTOTAL\tAVAILABLE\tEXPIRY\tUNIT COST\tCRITICAL\tSTOCK VALUE")
	for _, res := range r.Resources {
		expiry := "N/A"
		if res.ExpiryDays > 0 {
			expiry = fmt.Sprintf("%dd", res.ExpiryDays)
		}
		critical := "no"
		if res.BelowCritical {
			critical = "YES"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
			res.Type, res.Total, res.Available, expiry, res.UnitCost.StringFixed(2), critical, res.StockValue.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Total stock value: %s\n", r.TotalStockValue.StringFixed(2))

	fmt.Fprintln(w, "\nLocations:")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tINVENTORY")
	for _, loc := range r.Locations {
		status := "operational"
		if !loc.IsOperational {
			status = "OFFLINE"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%v\n", loc.ID, loc.Name, status, loc.Inventory)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nRoutes:")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FROM\tTO\tTYPE\tSTATUS\tLOAD\tCOST\tDISTANCE")
	for _, rt := range r.Routes {
		status := "open"
		if !rt.IsOperational {
			status = "CLOSED"
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%d/%d\t%d\t%.1f\n",
			rt.From, rt.To, rt.RouteType, status, rt.CurrentLoad, rt.Capacity, rt.Cost, rt.Distance)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Outcomes) > 0 {
		fmt.Fprintln(w, "\nProcessed requests:")
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATUS\tRESOURCE\tQTY\tFULFILLED\tPATH\tNOTE")
		for _, out := range r.Outcomes {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%v\t%s\n",
				out.RequestID, out.Status, out.Resource, out.Quantity, out.Fulfilled, out.Path, out.Note)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(r.History) > 0 {
		fmt.Fprintln(w, "\nAllocations:")
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SOURCE\tTARGET\tRESOURCE\tQTY\tTIME")
		for _, ev := range r.History {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%s\n",
				ev.SourceLocationID, ev.TargetLocationID, ev.ResourceType, ev.Quantity,
				ev.Timestamp.Format("2006-01-02T15:04:05.000"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	return nil
}
