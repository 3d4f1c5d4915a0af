package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/reliefworks/allocation-simulator/internal/logging"
	"github.com/reliefworks/allocation-simulator/model"
)

// RequestOutcome is the per-request result of a drain cycle: the
// terminal request, the path its stock travelled (nil when none), and
// the decisive note.
type RequestOutcome struct {
	Request *model.Request
	Path    []int
	Note    string
}

// AllocationEngine orchestrates the routing graph, the resource ledger
// and the request queue. Each cycle it drains the queue in priority
// order and decides, per request, whether it can be satisfied without
// violating route-load or stock constraints.
//
// The engine is the single mutator of all three structures during a
// drain; observers read them between cycles.
type AllocationEngine struct {
	graph  *RoutingGraph
	ledger *ResourceLedger
	queue  *RequestQueue

	sink    EventSink
	metrics MetricsRecorder
	log     logging.Logger
	tracer  trace.Tracer
	now     func() time.Time

	history []model.AllocationEvent
}

// EngineOption customizes an AllocationEngine.
type EngineOption func(*AllocationEngine)

// WithEventSink routes structured events to the given sink.
func WithEventSink(sink EventSink) EngineOption {
	return func(e *AllocationEngine) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) EngineOption {
	return func(e *AllocationEngine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(log logging.Logger) EngineOption {
	return func(e *AllocationEngine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *AllocationEngine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewAllocationEngine wires the engine to its three collaborators.
func NewAllocationEngine(graph *RoutingGraph, ledger *ResourceLedger, queue *RequestQueue, opts ...EngineOption) *AllocationEngine {
	e := &AllocationEngine{
		graph:   graph,
		ledger:  ledger,
		queue:   queue,
		sink:    NopSink{},
		metrics: NopMetrics{},
		log:     logging.Noop(),
		tracer:  otel.Tracer("allocation-engine"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessQueue drains the request queue in priority order. Every
// popped request reaches a terminal status; cancelled entries are
// skipped without touching the graph or the ledger.
func (e *AllocationEngine) ProcessQueue(ctx context.Context) []RequestOutcome {
	ctx, span := e.tracer.Start(ctx, "engine.drain")
	defer span.End()

	var outcomes []RequestOutcome
	for !e.queue.IsEmpty() {
		req, err := e.queue.PopTop()
		if err != nil {
			// Unreachable given the IsEmpty check above.
			e.log.Error(ctx, "pop on empty queue", logging.Err(err))
			break
		}

		if req.Status == model.StatusCancelled {
			e.sink.StatusLine(fmt.Sprintf("request #%d skipped: cancelled", req.ID))
			e.metrics.RequestProcessed(req.Status)
			outcomes = append(outcomes, RequestOutcome{Request: req, Note: "cancelled before processing"})
			continue
		}

		outcome := e.process(ctx, req)
		e.metrics.RequestProcessed(req.Status)
		e.metrics.QueueDepth(e.queue.Len())
		outcomes = append(outcomes, outcome)
	}

	span.SetAttributes(attribute.Int("requests.processed", len(outcomes)))
	return outcomes
}

// process evaluates one request against the fixed precondition order:
// location operability, route feasibility, per-edge re-verification,
// stock availability, then an all-or-nothing commit. The first failing
// precondition invalidates the request with a descriptive note.
func (e *AllocationEngine) process(ctx context.Context, req *model.Request) RequestOutcome {
	ctx, span := e.tracer.Start(ctx, "engine.process_request",
		trace.WithAttributes(
			attribute.Int("request.id", req.ID),
			attribute.String("request.resource", req.ResourceType),
			attribute.Int("request.quantity", req.RequiredQuantity),
		))
	defer span.End()

	e.log.Info(ctx, "processing request",
		logging.Int("request_id", req.ID),
		logging.String("resource", req.ResourceType),
		logging.Int("quantity", req.RequiredQuantity),
		logging.Int("source", req.SourceLocationID),
		logging.Int("target", req.TargetLocationID),
	)

	// 1) Both endpoints must exist and be operational.
	if !e.graph.IsLocationOperational(req.SourceLocationID) ||
		!e.graph.IsLocationOperational(req.TargetLocationID) {
		return e.invalidate(ctx, req, "one or both locations are not operational")
	}

	// Route load: TRANSFER requests weigh their cargo; ledger-backed
	// requests use the raw quantity.
	load := req.RequiredQuantity
	if req.Type == model.TypeTransfer {
		res, err := e.ledger.Resource(req.ResourceType)
		if err != nil {
			return e.invalidate(ctx, req, fmt.Sprintf("unknown resource type %q", req.ResourceType))
		}
		load = res.TransportLoad(req.RequiredQuantity)
		if load <= 0 {
			return e.invalidate(ctx, req, "transfer has no transportable load")
		}
	}

	// 2) A capacity-compliant route must exist right now.
	start := e.now()
	path := e.graph.FindFeasiblePath(req.SourceLocationID, req.TargetLocationID, load)
	e.metrics.PathComputationSeconds(e.now().Sub(start).Seconds())
	if len(path) == 0 {
		return e.invalidate(ctx, req, "no valid transportation route available")
	}

	// 3) Re-verify every hop against the extra load. Nothing commits
	// unless all hops pass, so a stale path can never leave a partial
	// load behind.
	for i := 0; i < len(path)-1; i++ {
		if !e.graph.CanCarry(path[i], path[i+1], load) {
			return e.invalidate(ctx, req, "route constraints violated before commit")
		}
	}

	// 4) Stock check: central ledger for SUPPLY/DEMAND, the source
	// location's own inventory for TRANSFER.
	if req.Type == model.TypeTransfer {
		held, err := e.graph.InventoryQuantity(req.SourceLocationID, req.ResourceType)
		if err != nil || held < req.RequiredQuantity {
			return e.invalidate(ctx, req, "insufficient resources at source location")
		}
	} else {
		ok, err := e.ledger.HasAvailable(req.ResourceType, req.RequiredQuantity)
		if err != nil {
			return e.invalidate(ctx, req, fmt.Sprintf("unknown resource type %q", req.ResourceType))
		}
		if !ok {
			return e.invalidate(ctx, req, "insufficient resources available")
		}
	}

	// 5) Commit.
	if err := e.commit(ctx, req, path, load); err != nil {
		return e.invalidate(ctx, req, err.Error())
	}

	e.sink.StatusLine(fmt.Sprintf("request #%d fulfilled: %s x%d via %v",
		req.ID, req.ResourceType, req.RequiredQuantity, path))
	return RequestOutcome{Request: req, Path: path, Note: req.Notes}
}

// commit reserves stock, loads every hop of the path, credits the
// destination inventory, records the allocation event and marks the
// request fulfilled. The preconditions were checked under the same
// single-actor cycle, so the individual mutations cannot fail.
func (e *AllocationEngine) commit(ctx context.Context, req *model.Request, path []int, load int) error {
	switch req.Type {
	case model.TypeTransfer:
		ok, err := e.graph.DebitInventory(req.SourceLocationID, req.ResourceType, req.RequiredQuantity)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("insufficient resources at source location")
		}
	default:
		if err := e.ledger.Allocate(req.ResourceType, req.RequiredQuantity); err != nil {
			return err
		}
	}

	for i := 0; i < len(path)-1; i++ {
		e.graph.AddLoad(path[i], path[i+1], load)
	}

	if err := e.graph.CreditInventory(req.TargetLocationID, req.ResourceType, req.RequiredQuantity); err != nil {
		return err
	}

	ev := model.AllocationEvent{
		ID:               uuid.NewString(),
		SourceLocationID: req.SourceLocationID,
		TargetLocationID: req.TargetLocationID,
		ResourceType:     req.ResourceType,
		Quantity:         req.RequiredQuantity,
		RequestID:        req.ID,
		Timestamp:        e.now(),
	}
	e.history = append(e.history, ev)
	e.sink.Allocation(ev)
	e.metrics.AllocationCommitted(req.ResourceType, req.RequiredQuantity)

	req.FulfillPartial(req.RequiredQuantity)
	e.log.Info(ctx, "allocation committed",
		logging.Int("request_id", req.ID),
		logging.String("resource", req.ResourceType),
		logging.Int("quantity", req.RequiredQuantity),
	)
	return nil
}

// invalidate terminates a request with INVALID and the decisive note.
func (e *AllocationEngine) invalidate(ctx context.Context, req *model.Request, note string) RequestOutcome {
	req.SetStatus(model.StatusInvalid)
	req.AddNote(note)
	e.sink.StatusLine(fmt.Sprintf("request #%d invalid: %s", req.ID, note))
	e.log.Warn(ctx, "request invalidated",
		logging.Int("request_id", req.ID),
		logging.String("note", note),
	)
	return RequestOutcome{Request: req, Note: note}
}

//
// ---------- Disruption entry points ----------
//
// External collaborators (the disaster injector, operator commands)
// mutate the core through these, so every change runs through the same
// invariant-preserving mutators the engine uses itself.
//

// CloseRoute marks both directions of a route non-operational and
// emits a network-change event.
func (e *AllocationEngine) CloseRoute(from, to int) {
	e.setRouteOperational(from, to, false)
}

// OpenRoute restores both directions of a route and emits a
// network-change event.
func (e *AllocationEngine) OpenRoute(from, to int) {
	e.setRouteOperational(from, to, true)
}

func (e *AllocationEngine) setRouteOperational(from, to int, operational bool) {
	e.graph.SetRouteOperational(from, to, operational)
	e.sink.NetworkChange(model.NetworkChangeEvent{
		FromLocationID: from,
		ToLocationID:   to,
		IsOperational:  operational,
		Timestamp:      e.now(),
	})
}

// DisruptLocation takes a location offline. Pending requests touching
// it resolve to INVALID on the next drain without any ledger or load
// mutation.
func (e *AllocationEngine) DisruptLocation(id int) error {
	return e.graph.SetLocationOperational(id, false)
}

// ShortageResource consumes a percentage of a resource type's
// currently available stock, modelling loss. Returns the units lost.
func (e *AllocationEngine) ShortageResource(resourceType string, percent int) (int, error) {
	if percent <= 0 {
		return 0, nil
	}
	available, err := e.ledger.Available(resourceType)
	if err != nil {
		return 0, err
	}
	lost := available * percent / 100
	if lost <= 0 {
		return 0, nil
	}
	if err := e.ledger.Consume(resourceType, lost); err != nil {
		return 0, err
	}
	e.sink.StatusLine(fmt.Sprintf("shortage: %s lost %d units (%d%%)", resourceType, lost, percent))
	return lost, nil
}

// History returns copies of every committed allocation event, oldest
// first.
func (e *AllocationEngine) History() []model.AllocationEvent {
	out := make([]model.AllocationEvent, len(e.history))
	copy(out, e.history)
	return out
}

// Now returns the engine's current time, honoring any clock override.
func (e *AllocationEngine) Now() time.Time { return e.now() }

// Graph exposes the routing graph for observers.
func (e *AllocationEngine) Graph() *RoutingGraph { return e.graph }

// Ledger exposes the resource ledger for observers.
func (e *AllocationEngine) Ledger() *ResourceLedger { return e.ledger }

// Queue exposes the request queue.
func (e *AllocationEngine) Queue() *RequestQueue { return e.queue }
