package core

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/reliefworks/allocation-simulator/model"
)

var (
	ErrLocationExists   = errors.New("location already exists")
	ErrLocationNotFound = errors.New("location not found")
	ErrRouteBadInput    = errors.New("invalid route")
)

// Edge is one directional route record. A bidirectional link is stored
// as two independent Edge records, one per direction; after creation
// the two directions are independently stateful and may be toggled or
// loaded separately. At most one edge exists per ordered (from, to)
// pair of locations.
type Edge struct {
	To          int
	Capacity    int
	CurrentLoad int
	Cost        int

	// IsOperational gates all load changes on this direction.
	IsOperational bool

	// Distance is informational; routing minimizes Cost, not Distance.
	Distance  float64
	RouteType string
}

// CanCarry reports whether the edge tolerates additionalLoad more
// units: it must be operational and stay within capacity.
func (e *Edge) CanCarry(additionalLoad int) bool {
	return e.IsOperational && e.CurrentLoad+additionalLoad <= e.Capacity
}

// addLoad commits load onto the edge. Silent no-op when the edge is
// closed or the load would exceed capacity; callers pre-check with
// CanCarry.
func (e *Edge) addLoad(load int) {
	if e.CanCarry(load) {
		e.CurrentLoad += load
	}
}

// removeLoad releases load from the edge, clamped at zero.
func (e *Edge) removeLoad(load int) {
	e.CurrentLoad -= load
	if e.CurrentLoad < 0 {
		e.CurrentLoad = 0
	}
}

// RoutingGraph is the transportation network: locations as nodes and
// capacity-bearing routes as directed edges. It is concurrency-safe
// via an internal RWMutex so observers (reports, metrics) can read it
// while the engine owns all mutation.
type RoutingGraph struct {
	mu sync.RWMutex

	adjacency map[int][]*Edge
	locations map[int]*model.Location
}

// NewRoutingGraph creates an empty transportation network.
func NewRoutingGraph() *RoutingGraph {
	return &RoutingGraph{
		adjacency: make(map[int][]*Edge),
		locations: make(map[int]*model.Location),
	}
}

//
// ---------- Locations ----------
//

// AddLocation registers a location. IDs are unique and immutable.
func (g *RoutingGraph) AddLocation(loc *model.Location) error {
	if loc == nil {
		return fmt.Errorf("%w: nil location", ErrLocationNotFound)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.locations[loc.ID]; exists {
		return fmt.Errorf("%w: %d", ErrLocationExists, loc.ID)
	}
	g.locations[loc.ID] = loc
	if _, ok := g.adjacency[loc.ID]; !ok {
		g.adjacency[loc.ID] = nil
	}
	return nil
}

// HasLocation reports whether the location ID is known.
func (g *RoutingGraph) HasLocation(id int) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.locations[id]
	return ok
}

// IsLocationOperational reports whether the location exists and is
// currently operational. Unknown IDs read as non-operational.
func (g *RoutingGraph) IsLocationOperational(id int) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	loc, ok := g.locations[id]
	return ok && loc.IsOperational
}

// SetLocationOperational flips a location's operational flag.
func (g *RoutingGraph) SetLocationOperational(id int, operational bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	loc, ok := g.locations[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrLocationNotFound, id)
	}
	loc.SetOperational(operational)
	return nil
}

// LocationName returns the display name for a location ID.
func (g *RoutingGraph) LocationName(id int) (string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	loc, ok := g.locations[id]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrLocationNotFound, id)
	}
	return loc.Name, nil
}

// LocationSnapshot returns a copy of the location record with a
// copied inventory map, safe to hold across later mutations.
func (g *RoutingGraph) LocationSnapshot(id int) (model.Location, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	loc, ok := g.locations[id]
	if !ok {
		return model.Location{}, fmt.Errorf("%w: %d", ErrLocationNotFound, id)
	}
	snapshot := *loc
	snapshot.Inventory = make(map[string]int, len(loc.Inventory))
	for t, qty := range loc.Inventory {
		snapshot.Inventory[t] = qty
	}
	return snapshot, nil
}

// LocationIDs returns all known location IDs in ascending order.
func (g *RoutingGraph) LocationIDs() []int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]int, 0, len(g.locations))
	for id := range g.locations {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// OperationalLocationCounts returns how many locations are currently
// operational out of the total.
func (g *RoutingGraph) OperationalLocationCounts() (operational, total int) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, loc := range g.locations {
		total++
		if loc.IsOperational {
			operational++
		}
	}
	return operational, total
}

// CreditInventory adds quantity units of a resource type to the
// location's local inventory.
func (g *RoutingGraph) CreditInventory(locationID int, resourceType string, quantity int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	loc, ok := g.locations[locationID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrLocationNotFound, locationID)
	}
	loc.AddInventory(resourceType, quantity)
	return nil
}

// DebitInventory removes quantity units from the location's local
// inventory; the debit is all-or-nothing.
func (g *RoutingGraph) DebitInventory(locationID int, resourceType string, quantity int) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	loc, ok := g.locations[locationID]
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrLocationNotFound, locationID)
	}
	return loc.UseInventory(resourceType, quantity), nil
}

// InventoryQuantity reports a location's local quantity of a resource
// type. Unknown types at a known location read as zero.
func (g *RoutingGraph) InventoryQuantity(locationID int, resourceType string) (int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	loc, ok := g.locations[locationID]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrLocationNotFound, locationID)
	}
	return loc.InventoryQuantity(resourceType), nil
}

//
// ---------- Routes ----------
//

// RouteSpec describes the shared parameters of a new bidirectional
// route. Both directional edges start from the same spec and diverge
// independently afterwards.
type RouteSpec struct {
	Capacity    int
	Cost        int
	Operational bool
	Distance    float64
	RouteType   string
}

// AddRoute inserts two independent Edge records, from->to and
// to->from, both with zero initial load. Pre-existing traffic is
// seeded separately via SeedInitialLoads so that randomness stays
// explicit and reproducible. At most one edge per ordered pair: a
// duplicate route between the same endpoints is rejected.
func (g *RoutingGraph) AddRoute(from, to int, spec RouteSpec) error {
	if from == to {
		return fmt.Errorf("%w: self-route %d", ErrRouteBadInput, from)
	}
	if spec.Capacity < 0 || spec.Cost < 0 {
		return fmt.Errorf("%w: negative capacity or cost", ErrRouteBadInput)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.locations[from]; !ok {
		return fmt.Errorf("%w: %d", ErrLocationNotFound, from)
	}
	if _, ok := g.locations[to]; !ok {
		return fmt.Errorf("%w: %d", ErrLocationNotFound, to)
	}
	if g.findEdgeLocked(from, to) != nil || g.findEdgeLocked(to, from) != nil {
		return fmt.Errorf("%w: route %d<->%d already exists", ErrRouteBadInput, from, to)
	}

	routeType := spec.RouteType
	if routeType == "" {
		routeType = "road"
	}
	g.adjacency[from] = append(g.adjacency[from], &Edge{
		To:            to,
		Capacity:      spec.Capacity,
		Cost:          spec.Cost,
		IsOperational: spec.Operational,
		Distance:      spec.Distance,
		RouteType:     routeType,
	})
	g.adjacency[to] = append(g.adjacency[to], &Edge{
		To:            from,
		Capacity:      spec.Capacity,
		Cost:          spec.Cost,
		IsOperational: spec.Operational,
		Distance:      spec.Distance,
		RouteType:     routeType,
	})
	return nil
}

// SeedInitialLoads sets every edge's current load to a randomized
// 20-70% of its capacity, modelling pre-existing traffic. The caller
// supplies the generator, so seeding is explicit and reproducible.
// Each direction is seeded independently.
func (g *RoutingGraph) SeedInitialLoads(r *rand.Rand) {
	if r == nil {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	ids := make([]int, 0, len(g.adjacency))
	for id := range g.adjacency {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		for _, e := range g.adjacency[id] {
			pct := 20 + r.Intn(50)
			e.CurrentLoad = e.Capacity * pct / 100
		}
	}
}

// SetRouteOperational flips the operational flag on both directional
// edges between the two endpoints (first match per adjacency list).
// No-op when no matching edge exists.
func (g *RoutingGraph) SetRouteOperational(from, to int, operational bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e := g.findEdgeLocked(from, to); e != nil {
		e.IsOperational = operational
	}
	if e := g.findEdgeLocked(to, from); e != nil {
		e.IsOperational = operational
	}
}

// AddLoad commits load onto the from->to edge only. Silent no-op when
// the edge is missing, closed, or lacks capacity; callers pre-check
// with CanCarry.
func (g *RoutingGraph) AddLoad(from, to, load int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e := g.findEdgeLocked(from, to); e != nil {
		e.addLoad(load)
	}
}

// RemoveLoad releases load from the from->to edge, clamped at zero.
func (g *RoutingGraph) RemoveLoad(from, to, load int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e := g.findEdgeLocked(from, to); e != nil {
		e.removeLoad(load)
	}
}

// CanCarry reports whether the from->to edge exists, is operational,
// and tolerates load more units.
func (g *RoutingGraph) CanCarry(from, to, load int) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	e := g.findEdgeLocked(from, to)
	return e != nil && e.CanCarry(load)
}

// Edges returns copies of the outgoing edges of a location, in
// insertion order. Unknown locations yield an empty slice.
func (g *RoutingGraph) Edges(from int) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := g.adjacency[from]
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		out = append(out, *e)
	}
	return out
}

// ClosedRouteDirections counts directional edge records currently
// non-operational. The two directions of a disrupted route count as
// two, since they are independently stateful.
func (g *RoutingGraph) ClosedRouteDirections() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	closed := 0
	for _, edges := range g.adjacency {
		for _, e := range edges {
			if !e.IsOperational {
				closed++
			}
		}
	}
	return closed
}

// findEdgeLocked returns the first from->to edge, or nil. Callers hold g.mu.
func (g *RoutingGraph) findEdgeLocked(from, to int) *Edge {
	for _, e := range g.adjacency[from] {
		if e.To == to {
			return e
		}
	}
	return nil
}

//
// ---------- Feasible path search ----------
//

// FindFeasiblePath computes the minimum-cost path from source to
// destination restricted to edges that currently satisfy
// CanCarry(requiredLoad). Edges failing the capacity or operational
// test are excluded from relaxation entirely, so a returned path is
// fully capacity-compliant end to end.
//
// The search is Dijkstra with a lazy-decrease-key min-heap frontier
// and early exit once the destination is popped. Ties in cost keep
// the first edge examined (strict improvement only), which makes
// routing reproducible for a given adjacency order.
//
// The empty slice return is a normal "infeasible" outcome, not an
// error: it covers unknown endpoints as well as no path surviving the
// capacity constraint.
func (g *RoutingGraph) FindFeasiblePath(source, destination, requiredLoad int) []int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.locations[source]; !ok {
		return nil
	}
	if _, ok := g.locations[destination]; !ok {
		return nil
	}
	if source == destination {
		return []int{source}
	}

	dist := make(map[int]int64, len(g.locations))
	prev := make(map[int]int, len(g.locations))
	visited := make(map[int]bool, len(g.locations))
	for id := range g.locations {
		dist[id] = math.MaxInt64
	}
	dist[source] = 0

	frontier := &pathFrontier{}
	heap.Init(frontier)
	heap.Push(frontier, &frontierItem{location: source, cost: 0})

	for frontier.Len() > 0 {
		item := heap.Pop(frontier).(*frontierItem)
		u := item.location

		if u == destination {
			break
		}
		if visited[u] {
			continue // stale lazy-decrease-key entry
		}
		visited[u] = true

		for _, e := range g.adjacency[u] {
			if !e.CanCarry(requiredLoad) {
				continue
			}
			candidate := dist[u] + int64(e.Cost)
			if candidate >= dist[e.To] {
				continue
			}
			dist[e.To] = candidate
			prev[e.To] = u
			heap.Push(frontier, &frontierItem{location: e.To, cost: candidate})
		}
	}

	if dist[destination] == math.MaxInt64 {
		return nil
	}

	// Walk predecessors back from the destination.
	path := []int{destination}
	for at := destination; at != source; {
		p, ok := prev[at]
		if !ok {
			return nil
		}
		path = append(path, p)
		at = p
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// frontierItem pairs a location with its accumulated cost from the
// search source.
type frontierItem struct {
	location int
	cost     int64
}

// pathFrontier is a min-heap of frontier items keyed by accumulated
// cost. Stale entries from the lazy-decrease-key strategy are skipped
// at pop time via the visited set.
type pathFrontier []*frontierItem

func (f pathFrontier) Len() int            { return len(f) }
func (f pathFrontier) Less(i, j int) bool  { return f[i].cost < f[j].cost }
func (f pathFrontier) Swap(i, j int)       { f[i], f[j] = f[j], f[i] }
func (f *pathFrontier) Push(x interface{}) { *f = append(*f, x.(*frontierItem)) }
func (f *pathFrontier) Pop() interface{} {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}
