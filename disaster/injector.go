// Package disaster injects random disruptions into the relief network:
// route closures, resource shortages and location outages. Every
// mutation goes through the engine's public entry points, so no
// invariant can be bypassed.
package disaster

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/reliefworks/allocation-simulator/core"
	"github.com/reliefworks/allocation-simulator/internal/logging"
)

// EventKind identifies the disruption that was injected.
type EventKind int

const (
	EventRouteDisruption EventKind = iota
	EventResourceShortage
	EventLocationDisruption
)

func (k EventKind) String() string {
	switch k {
	case EventRouteDisruption:
		return "route_disruption"
	case EventResourceShortage:
		return "resource_shortage"
	case EventLocationDisruption:
		return "location_disruption"
	default:
		return "unknown"
	}
}

// Event describes one injected disruption for reporting.
type Event struct {
	Kind EventKind

	// Route disruption fields.
	FromLocationID int
	ToLocationID   int

	// Resource shortage fields.
	ResourceType string
	UnitsLost    int
	Percent      int

	// Location disruption field.
	LocationID int

	Description string
}

// Injector rolls random disruptions against the network, per the hub
// location's adjacency: a relief operation disrupts the arteries around
// its central warehouse first. The Injector owns its generator; seed
// it explicitly for reproducible simulations.
type Injector struct {
	engine *core.AllocationEngine
	rng    *rand.Rand
	log    logging.Logger

	// HubID anchors route and location disruption to the edges around
	// the central warehouse.
	HubID int
}

// NewInjector creates an injector with its own seeded generator.
func NewInjector(engine *core.AllocationEngine, seed int64, log logging.Logger) *Injector {
	if log == nil {
		log = logging.Noop()
	}
	return &Injector{
		engine: engine,
		rng:    rand.New(rand.NewSource(seed)),
		log:    log,
		HubID:  1,
	}
}

// RandomEvent injects one disruption chosen uniformly among the three
// kinds. It returns nil when the chosen kind found nothing to disrupt.
func (in *Injector) RandomEvent(ctx context.Context) *Event {
	switch in.rng.Intn(3) {
	case 0:
		return in.DisruptRandomRoute(ctx)
	case 1:
		return in.RandomShortage(ctx)
	default:
		return in.DisruptRandomLocation(ctx)
	}
}

// DisruptRandomRoute closes a random route adjacent to the hub, both
// directions at once.
func (in *Injector) DisruptRandomRoute(ctx context.Context) *Event {
	edges := in.engine.Graph().Edges(in.HubID)
	if len(edges) == 0 {
		return nil
	}
	target := edges[in.rng.Intn(len(edges))].To
	in.engine.CloseRoute(in.HubID, target)

	ev := &Event{
		Kind:           EventRouteDisruption,
		FromLocationID: in.HubID,
		ToLocationID:   target,
		Description:    fmt.Sprintf("route between locations %d and %d has been disrupted", in.HubID, target),
	}
	in.log.Warn(ctx, "route disrupted",
		logging.Int("from", in.HubID),
		logging.Int("to", target),
	)
	return ev
}

// RandomShortage consumes 10-30% of a random resource type's available
// stock.
func (in *Injector) RandomShortage(ctx context.Context) *Event {
	types := in.engine.Ledger().Types()
	if len(types) == 0 {
		return nil
	}
	resourceType := types[in.rng.Intn(len(types))]
	percent := 10 + in.rng.Intn(21)

	lost, err := in.engine.ShortageResource(resourceType, percent)
	if err != nil || lost == 0 {
		return nil
	}

	ev := &Event{
		Kind:         EventResourceShortage,
		ResourceType: resourceType,
		UnitsLost:    lost,
		Percent:      percent,
		Description:  fmt.Sprintf("%s shortage: lost %d units (%d%%)", resourceType, lost, percent),
	}
	in.log.Warn(ctx, "resource shortage",
		logging.String("resource", resourceType),
		logging.Int("units_lost", lost),
		logging.Int("percent", percent),
	)
	return ev
}

// DisruptRandomLocation takes a random still-operational neighbour of
// the hub offline. The hub itself is never disrupted.
func (in *Injector) DisruptRandomLocation(ctx context.Context) *Event {
	var candidates []int
	for _, e := range in.engine.Graph().Edges(in.HubID) {
		if e.To != in.HubID && in.engine.Graph().IsLocationOperational(e.To) {
			candidates = append(candidates, e.To)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	id := candidates[in.rng.Intn(len(candidates))]

	if err := in.engine.DisruptLocation(id); err != nil {
		return nil
	}
	name, _ := in.engine.Graph().LocationName(id)

	ev := &Event{
		Kind:        EventLocationDisruption,
		LocationID:  id,
		Description: fmt.Sprintf("location %d (%s) is now offline", id, name),
	}
	in.log.Warn(ctx, "location disrupted",
		logging.Int("location_id", id),
		logging.String("name", name),
	)
	return ev
}
