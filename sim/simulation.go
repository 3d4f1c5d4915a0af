// Package sim drives the day loop: each simulated day it drains the
// allocation engine, checks critical stock, rolls for disasters and
// generates the next day's requests. All randomness comes from
// explicit per-subsystem generators so runs are reproducible.
package sim

import (
	"context"
	"fmt"
	"math/rand"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/reliefworks/allocation-simulator/core"
	"github.com/reliefworks/allocation-simulator/disaster"
	"github.com/reliefworks/allocation-simulator/internal/logging"
	"github.com/reliefworks/allocation-simulator/model"
)

// Config holds the driver's tunables.
type Config struct {
	// Days is how many cycles to run.
	Days int

	// DisasterProbability is the per-day chance of one injected
	// disruption, in [0, 1].
	DisasterProbability float64

	// RequestSeed feeds daily request generation; DisasterSeed feeds
	// both the daily disaster roll and the injector's choices.
	RequestSeed  int64
	DisasterSeed int64

	// HubID is the central warehouse that sources generated requests.
	HubID int

	// DailyRequestsMin/Max bound how many requests appear per day.
	DailyRequestsMin int
	DailyRequestsMax int
}

// DefaultConfig mirrors the demo operation: ten-day horizon cap, 20%
// disaster chance, 1-3 fresh requests per day out of location 1.
func DefaultConfig() Config {
	return Config{
		Days:                5,
		DisasterProbability: 0.2,
		HubID:               1,
		DailyRequestsMin:    1,
		DailyRequestsMax:    3,
	}
}

// DaySummary is the end-of-cycle summary handed to listeners and the
// reporting layer.
type DaySummary struct {
	Day      int
	Outcomes []core.RequestOutcome

	OperationalLocations int
	TotalLocations       int
	CriticalResources    []string

	NewRequestIDs []int
	Disruption    *disaster.Event
}

// NetworkGauges receives end-of-day gauge values; implemented by the
// observability collector.
type NetworkGauges interface {
	UpdateNetworkGauges(operationalLocations, totalLocations, criticalResources, closedRouteDirections int)
}

// Simulation owns the day loop over an allocation engine.
type Simulation struct {
	engine   *core.AllocationEngine
	injector *disaster.Injector

	cfg    Config
	log    logging.Logger
	tracer trace.Tracer
	gauges NetworkGauges

	requestRNG   *rand.Rand
	disasterRoll *rand.Rand

	nextRequestID int
	dayListeners  []func(DaySummary)
}

// Option customizes a Simulation.
type Option func(*Simulation)

// WithLogger attaches a structured logger.
func WithLogger(log logging.Logger) Option {
	return func(s *Simulation) {
		if log != nil {
			s.log = log
		}
	}
}

// WithNetworkGauges wires end-of-day gauge updates.
func WithNetworkGauges(g NetworkGauges) Option {
	return func(s *Simulation) {
		if g != nil {
			s.gauges = g
		}
	}
}

// New constructs the driver. nextRequestID continues numbering after
// the scenario's initial requests.
func New(engine *core.AllocationEngine, injector *disaster.Injector, cfg Config, nextRequestID int, opts ...Option) *Simulation {
	if cfg.HubID == 0 {
		cfg.HubID = 1
	}
	if cfg.DailyRequestsMin <= 0 {
		cfg.DailyRequestsMin = 1
	}
	if cfg.DailyRequestsMax < cfg.DailyRequestsMin {
		cfg.DailyRequestsMax = cfg.DailyRequestsMin
	}

	s := &Simulation{
		engine:        engine,
		injector:      injector,
		cfg:           cfg,
		log:           logging.Noop(),
		tracer:        otel.Tracer("simulation"),
		requestRNG:    rand.New(rand.NewSource(cfg.RequestSeed)),
		disasterRoll:  rand.New(rand.NewSource(cfg.DisasterSeed)),
		nextRequestID: nextRequestID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterDayListener adds a callback invoked after every completed
// day.
func (s *Simulation) RegisterDayListener(fn func(DaySummary)) {
	s.dayListeners = append(s.dayListeners, fn)
}

// Run executes the configured number of days and returns one summary
// per day.
func (s *Simulation) Run(ctx context.Context) []DaySummary {
	summaries := make([]DaySummary, 0, s.cfg.Days)
	for day := 1; day <= s.cfg.Days; day++ {
		summaries = append(summaries, s.runDay(ctx, day))
	}
	return summaries
}

// runDay executes one full cycle: drain, critical check, disaster
// roll, next-day request generation.
func (s *Simulation) runDay(ctx context.Context, day int) DaySummary {
	ctx, span := s.tracer.Start(ctx, "simulation.day",
		trace.WithAttributes(attribute.Int("day", day)))
	defer span.End()

	s.log.Info(ctx, "beginning of day", logging.Int("day", day))

	summary := DaySummary{Day: day}
	summary.Outcomes = s.engine.ProcessQueue(ctx)

	summary.CriticalResources = s.engine.Ledger().CriticalTypes()
	for _, t := range summary.CriticalResources {
		available, _ := s.engine.Ledger().Available(t)
		s.log.Warn(ctx, "resource below critical level",
			logging.String("resource", t),
			logging.Int("available", available),
		)
	}

	if s.injector != nil && s.disasterRoll.Float64() < s.cfg.DisasterProbability {
		summary.Disruption = s.injector.RandomEvent(ctx)
	}

	if day < s.cfg.Days {
		summary.NewRequestIDs = s.generateDailyRequests(ctx)
	}

	summary.OperationalLocations, summary.TotalLocations = s.engine.Graph().OperationalLocationCounts()
	if s.gauges != nil {
		s.gauges.UpdateNetworkGauges(
			summary.OperationalLocations,
			summary.TotalLocations,
			len(summary.CriticalResources),
			s.engine.Graph().ClosedRouteDirections(),
		)
	}

	for _, fn := range s.dayListeners {
		fn(summary)
	}

	s.log.Info(ctx, "end of day",
		logging.Int("day", day),
		logging.Int("requests_processed", len(summary.Outcomes)),
		logging.Int("requests_generated", len(summary.NewRequestIDs)),
	)
	return summary
}

// generateDailyRequests queues 1-3 fresh demand requests out of the
// hub toward random non-hub locations.
func (s *Simulation) generateDailyRequests(ctx context.Context) []int {
	types := s.engine.Ledger().Types()
	var targets []int
	for _, id := range s.engine.Graph().LocationIDs() {
		if id != s.cfg.HubID {
			targets = append(targets, id)
		}
	}
	if len(types) == 0 || len(targets) == 0 {
		return nil
	}

	count := s.cfg.DailyRequestsMin
	if spread := s.cfg.DailyRequestsMax - s.cfg.DailyRequestsMin; spread > 0 {
		count += s.requestRNG.Intn(spread + 1)
	}

	var ids []int
	for i := 0; i < count; i++ {
		resourceType := types[s.requestRNG.Intn(len(types))]
		target := targets[s.requestRNG.Intn(len(targets))]
		qty := 50 + s.requestRNG.Intn(451)   // 50-500
		priority := 3 + s.requestRNG.Intn(8) // 3-10

		s.nextRequestID++
		req := model.NewRequest(s.nextRequestID, s.cfg.HubID, target, resourceType, qty, priority, model.TypeDemand, s.engine.Now())
		if err := s.engine.Queue().Insert(req); err != nil {
			s.log.Error(ctx, "failed to queue generated request", logging.Err(err))
			continue
		}
		ids = append(ids, req.ID)

		s.log.Info(ctx, "new request generated",
			logging.Int("request_id", req.ID),
			logging.String("resource", resourceType),
			logging.Int("quantity", qty),
			logging.Int("target", target),
			logging.Int("priority", priority),
		)
	}
	return ids
}

// LogSink renders core events through the structured logger; it is the
// default bridge between the engine's event stream and the log file.
type LogSink struct {
	Log logging.Logger
}

func (s LogSink) Allocation(ev model.AllocationEvent) {
	s.Log.Info(context.Background(), "allocation",
		logging.String("record_id", ev.ID),
		logging.Int("source", ev.SourceLocationID),
		logging.Int("target", ev.TargetLocationID),
		logging.String("resource", ev.ResourceType),
		logging.Int("quantity", ev.Quantity),
		logging.Int("request_id", ev.RequestID),
	)
}

func (s LogSink) NetworkChange(ev model.NetworkChangeEvent) {
	state := "closed"
	if ev.IsOperational {
		state = "operational"
	}
	s.Log.Info(context.Background(), "route status changed",
		logging.Int("from", ev.FromLocationID),
		logging.Int("to", ev.ToLocationID),
		logging.String("state", state),
	)
}

func (s LogSink) StatusLine(line string) {
	s.Log.Info(context.Background(), fmt.Sprintf("status: %s", line))
}
