package sim

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reliefworks/allocation-simulator/core"
	"github.com/reliefworks/allocation-simulator/disaster"
	"github.com/reliefworks/allocation-simulator/model"
)

func simulationEngine(t *testing.T) *core.AllocationEngine {
	t.Helper()

	g := core.NewRoutingGraph()
	for id, name := range map[int]string{1: "Warehouse", 2: "Hospital", 3: "Shelter"} {
		require.NoError(t, g.AddLocation(model.NewLocation(id, name, 0, 0, 10000)))
	}
	require.NoError(t, g.AddRoute(1, 2, core.RouteSpec{Capacity: 5000, Cost: 5, Operational: true}))
	require.NoError(t, g.AddRoute(1, 3, core.RouteSpec{Capacity: 5000, Cost: 8, Operational: true}))
	require.NoError(t, g.AddRoute(2, 3, core.RouteSpec{Capacity: 5000, Cost: 10, Operational: true}))

	l := core.NewResourceLedger()
	require.NoError(t, l.AddResource(&model.Resource{
		Type:          "Water",
		TotalQuantity: 100000,
		UnitCost:      decimal.NewFromFloat(2.0),
		UnitWeight:    decimal.NewFromInt(1),
		CriticalLevel: 100,
	}))

	return core.NewAllocationEngine(g, l, core.NewRequestQueue())
}

func TestRunExecutesEveryDay(t *testing.T) {
	engine := simulationEngine(t)
	cfg := DefaultConfig()
	cfg.Days = 3
	cfg.DisasterProbability = 0 // keep the network intact

	s := New(engine, nil, cfg, 0)
	summaries := s.Run(context.Background())

	require.Len(t, summaries, 3)
	for i, sum := range summaries {
		assert.Equal(t, i+1, sum.Day)
		assert.Equal(t, 3, sum.OperationalLocations)
		assert.Nil(t, sum.Disruption)
	}

	// Day 1 starts with an empty queue; days 2 and 3 process whatever
	// the previous evening generated.
	assert.Empty(t, summaries[0].Outcomes)
	assert.NotEmpty(t, summaries[0].NewRequestIDs)
	assert.Len(t, summaries[1].Outcomes, len(summaries[0].NewRequestIDs))

	// The last day generates nothing: its requests would never be
	// processed.
	assert.Empty(t, summaries[2].NewRequestIDs)
}

func TestRequestNumberingContinuesAfterScenario(t *testing.T) {
	engine := simulationEngine(t)
	cfg := DefaultConfig()
	cfg.Days = 2
	cfg.DisasterProbability = 0

	s := New(engine, nil, cfg, 7)
	summaries := s.Run(context.Background())

	require.NotEmpty(t, summaries[0].NewRequestIDs)
	assert.Equal(t, 8, summaries[0].NewRequestIDs[0])
}

func TestRunIsReproducibleForFixedSeeds(t *testing.T) {
	run := func() []DaySummary {
		engine := simulationEngine(t)
		injector := disaster.NewInjector(engine, 3, nil)
		cfg := DefaultConfig()
		cfg.Days = 4
		cfg.DisasterProbability = 0.5
		cfg.RequestSeed = 2
		cfg.DisasterSeed = 3
		return New(engine, injector, cfg, 0).Run(context.Background())
	}

	first := run()
	second := run()
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].NewRequestIDs, second[i].NewRequestIDs, "day %d", i+1)
		assert.Equal(t, len(first[i].Outcomes), len(second[i].Outcomes), "day %d", i+1)
		if first[i].Disruption == nil {
			assert.Nil(t, second[i].Disruption, "day %d", i+1)
		} else {
			require.NotNil(t, second[i].Disruption, "day %d", i+1)
			assert.Equal(t, first[i].Disruption.Kind, second[i].Disruption.Kind, "day %d", i+1)
		}
	}
}

func TestDayListenersReceiveEverySummary(t *testing.T) {
	engine := simulationEngine(t)
	cfg := DefaultConfig()
	cfg.Days = 3
	cfg.DisasterProbability = 0

	s := New(engine, nil, cfg, 0)
	var days []int
	s.RegisterDayListener(func(sum DaySummary) {
		days = append(days, sum.Day)
	})
	s.Run(context.Background())

	assert.Equal(t, []int{1, 2, 3}, days)
}

type gaugeCapture struct {
	calls int
	last  [4]int
}

func (g *gaugeCapture) UpdateNetworkGauges(op, total, critical, closed int) {
	g.calls++
	g.last = [4]int{op, total, critical, closed}
}

func TestNetworkGaugesUpdateEveryDay(t *testing.T) {
	engine := simulationEngine(t)
	cfg := DefaultConfig()
	cfg.Days = 2
	cfg.DisasterProbability = 0

	gauges := &gaugeCapture{}
	s := New(engine, nil, cfg, 0, WithNetworkGauges(gauges))
	s.Run(context.Background())

	assert.Equal(t, 2, gauges.calls)
	assert.Equal(t, [4]int{3, 3, 0, 0}, gauges.last)
}

func TestConfigDefaultsAreRepaired(t *testing.T) {
	engine := simulationEngine(t)
	s := New(engine, nil, Config{Days: 1, DailyRequestsMin: 5, DailyRequestsMax: 2}, 0)

	assert.Equal(t, 1, s.cfg.HubID)
	assert.Equal(t, 5, s.cfg.DailyRequestsMax)
}
