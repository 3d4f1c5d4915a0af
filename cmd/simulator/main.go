package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/reliefworks/allocation-simulator/core"
	"github.com/reliefworks/allocation-simulator/disaster"
	"github.com/reliefworks/allocation-simulator/internal/logging"
	"github.com/reliefworks/allocation-simulator/internal/observability"
	"github.com/reliefworks/allocation-simulator/report"
	"github.com/reliefworks/allocation-simulator/sim"
)

func main() {
	configPath := flag.String("config", "configs/simulator.yaml", "path to the simulator YAML config")
	scenarioPath := flag.String("scenario", "", "path to the scenario JSON (overrides config)")
	days := flag.Int("days", 0, "number of days to simulate (overrides config)")
	metricsAddr := flag.String("metrics-addr", "", "address for the Prometheus endpoint (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath, flagWasSet("config"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *scenarioPath != "" {
		cfg.Scenario = *scenarioPath
	}
	if *days > 0 {
		cfg.Days = *days
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	log := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: init tracing: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn(flushCtx, "tracing shutdown failed", logging.Err(err))
		}
	}()

	registry := prometheus.NewRegistry()
	collector, err := observability.NewAllocationCollector(registry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: register metrics: %v\n", err)
		os.Exit(1)
	}
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", collector.Handler())
			log.Info(ctx, "metrics endpoint listening", logging.String("addr", cfg.MetricsAddr))
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Error(ctx, "metrics endpoint failed", logging.Err(err))
			}
		}()
	}

	// ==== Core wiring: graph + ledger + queue from the scenario ====

	graph := core.NewRoutingGraph()
	ledger := core.NewResourceLedger()
	queue := core.NewRequestQueue()

	f, err := os.Open(cfg.Scenario)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: open scenario %q: %v\n", cfg.Scenario, err)
		os.Exit(1)
	}
	scenario, err := core.LoadScenario(graph, ledger, queue, f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load scenario: %v\n", err)
		os.Exit(1)
	}
	graph.SeedInitialLoads(rand.New(rand.NewSource(cfg.Seeds.Loads)))

	log.Info(ctx, "scenario loaded",
		logging.Int("locations", len(scenario.LocationIDs)),
		logging.Int("routes", scenario.RouteCount),
		logging.Int("resources", len(scenario.ResourceTypes)),
		logging.Int("requests", len(scenario.RequestIDs)),
	)

	engine := core.NewAllocationEngine(graph, ledger, queue,
		core.WithEventSink(sim.LogSink{Log: log}),
		core.WithMetrics(collector),
		core.WithLogger(log),
	)

	injector := disaster.NewInjector(engine, cfg.Seeds.Disasters, log)
	injector.HubID = cfg.HubID

	simulation := sim.New(engine, injector, sim.Config{
		Days:                cfg.Days,
		DisasterProbability: cfg.DisasterProbability,
		RequestSeed:         cfg.Seeds.Requests,
		DisasterSeed:        cfg.Seeds.Disasters,
		HubID:               cfg.HubID,
	}, scenario.MaxRequestID,
		sim.WithLogger(log),
		sim.WithNetworkGauges(collector),
	)

	reporter := report.NewGenerator(graph, ledger)
	simulation.RegisterDayListener(func(ds sim.DaySummary) {
		disruption := ""
		if ds.Disruption != nil {
			disruption = ds.Disruption.Description
		}
		rep := reporter.Generate(ds.Day, ds.Outcomes, nil, disruption)
		if err := rep.Render(os.Stdout); err != nil {
			log.Error(ctx, "render day report", logging.Err(err))
		}
	})

	fmt.Printf("=== Resource Allocation Simulation: %d day(s) ===\n", cfg.Days)
	summaries := simulation.Run(ctx)

	// Final report covers the whole run, including allocation history.
	final := reporter.Generate(len(summaries), nil, engine.History(), "")
	out := os.Stdout
	if cfg.ReportPath != "" {
		rf, err := os.Create(cfg.ReportPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: create report file: %v\n", err)
			os.Exit(1)
		}
		defer rf.Close()
		out = rf
	}
	fmt.Fprintln(out, "\n========== FINAL SIMULATION REPORT ==========")
	if err := final.Render(out); err != nil {
		fmt.Fprintf(os.Stderr, "error: render final report: %v\n", err)
		os.Exit(1)
	}
	if cfg.ReportPath != "" {
		fmt.Printf("Report saved to %q\n", cfg.ReportPath)
	}
}

// flagWasSet reports whether the named flag was passed explicitly.
func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
