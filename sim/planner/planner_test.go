package planner

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiguelAlmeida05/Ruta-Op/sim"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/markov"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/roadgraph"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/routing"
)

func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.ErrorLevel)
	}
	os.Exit(m.Run())
}

// starGraph: origin 1 with spokes to 2 (near), 3 (far, with geometry) and 4 (mid, two hops via 5).
// Node 6 is isolated.
func starGraph(t *testing.T) *roadgraph.Graph {
	t.Helper()
	g := roadgraph.New()
	for _, n := range []roadgraph.Node{
		{ID: 1, Lat: -1.050, Lon: -80.450},
		{ID: 2, Lat: -1.055, Lon: -80.450},
		{ID: 3, Lat: -1.100, Lon: -80.450},
		{ID: 4, Lat: -1.070, Lon: -80.470},
		{ID: 5, Lat: -1.060, Lon: -80.460},
		{ID: 6, Lat: -1.200, Lon: -80.600},
	} {
		require.NoError(t, g.AddNode(n))
	}
	edges := []roadgraph.Edge{
		{From: 1, To: 2, Weight: 60, Length: 550, RoadClass: routing.ClassResidential},
		{From: 1, To: 3, Weight: 600, Length: 5600, RoadClass: routing.ClassPrimary,
			Geometry: []roadgraph.LatLon{{Lat: -1.050, Lon: -80.450}, {Lat: -1.075, Lon: -80.451}, {Lat: -1.100, Lon: -80.450}}},
		{From: 1, To: 5, Weight: 120, Length: 1500, RoadClass: routing.ClassSecondary},
		{From: 5, To: 4, Weight: 120, Length: 1500, RoadClass: routing.ClassSecondary},
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e))
	}
	return g
}

func destinations() []Destination {
	return []Destination{
		{ID: "far", Node: 3},
		{ID: "isolated", Node: 6},
		{ID: "near", Node: 2},
		{ID: "missing", Node: 404},
		{ID: "mid", Node: 4},
	}
}

func TestPlanner_RanksAndSkips(t *testing.T) {
	// GIVEN a planner over the star graph
	p := New(routing.NewPathFinder(starGraph(t)), nil, nil, Options{Iterations: 30})

	// WHEN planning from node 1
	plan, err := p.Plan(context.Background(), rand.New(rand.NewSource(1)), nil, 1, destinations())
	require.NoError(t, err)

	// THEN reachable destinations are ranked by simulated duration
	require.Len(t, plan.Routes, 3)
	ids := []string{plan.Routes[0].DestinationID, plan.Routes[1].DestinationID, plan.Routes[2].DestinationID}
	assert.Equal(t, []string{"near", "mid", "far"}, ids)
	assert.ElementsMatch(t, []string{"isolated", "missing"}, plan.Skipped)
	require.NotNil(t, plan.Recommended)
	assert.Equal(t, "near", plan.Recommended.DestinationID)
	assert.Equal(t, sim.StateNormal, plan.State)

	for i := 1; i < len(plan.Routes); i++ {
		assert.LessOrEqual(t, plan.Routes[i-1].DurationMin, plan.Routes[i].DurationMin)
	}
}

func TestPlanner_RouteFields(t *testing.T) {
	p := New(routing.NewPathFinder(starGraph(t)), nil, nil, Options{Iterations: 20})
	plan, err := p.Plan(context.Background(), rand.New(rand.NewSource(2)), nil, 1, []Destination{{ID: "mid", Node: 4}})
	require.NoError(t, err)
	require.Len(t, plan.Routes, 1)
	r := plan.Routes[0]

	assert.Equal(t, []roadgraph.NodeID{1, 5, 4}, r.Path)
	assert.InDelta(t, 3.0, r.DistanceKm, 1e-9)
	assert.InDelta(t, 4.0, r.RawDurationMin, 1e-9)
	assert.GreaterOrEqual(t, r.BaseDurationMin, r.RawDurationMin)
	assert.Len(t, r.Geometry, 3)
	assert.InDelta(t, 2.50+3.0*0.35*r.Factors.FuelFactor, r.TransportCost, 0.006)
	assert.Equal(t, r.KPIs.SimulatedDurationMin, r.DurationMin)
}

func TestPlanner_DeterministicRegardlessOfConcurrency(t *testing.T) {
	g := starGraph(t)
	serial := New(routing.NewPathFinder(g), nil, nil, Options{Iterations: 25, Concurrency: 1})
	parallel := New(routing.NewPathFinder(g), nil, nil, Options{Iterations: 25})

	a, err := serial.Plan(context.Background(), rand.New(rand.NewSource(9)), nil, 1, destinations())
	require.NoError(t, err)
	b, err := parallel.Plan(context.Background(), rand.New(rand.NewSource(9)), nil, 1, destinations())
	require.NoError(t, err)

	require.Equal(t, len(a.Routes), len(b.Routes))
	for i := range a.Routes {
		assert.Equal(t, a.Routes[i].DestinationID, b.Routes[i].DestinationID)
		assert.Equal(t, a.Routes[i].DurationMin, b.Routes[i].DurationMin)
		assert.Equal(t, a.Routes[i].KPIs, b.Routes[i].KPIs)
	}
}

func TestPlanner_AdvancesChainOnce(t *testing.T) {
	// GIVEN a chain in Strike whose next state is drawn from the Strike row
	chain := markov.NewChain(rand.New(rand.NewSource(4)))
	chain.Force(sim.StateStrike)
	twin := markov.NewChain(rand.New(rand.NewSource(4)))
	twin.Force(sim.StateStrike)
	want := twin.Advance()

	p := New(routing.NewPathFinder(starGraph(t)), nil, nil, Options{Iterations: 10})
	plan, err := p.Plan(context.Background(), rand.New(rand.NewSource(1)), chain, 1, destinations())
	require.NoError(t, err)

	// THEN the plan ran under the single advanced state
	assert.Equal(t, want, plan.State)
	assert.Equal(t, want, chain.State())
	for _, r := range plan.Routes {
		assert.Equal(t, want, r.KPIs.State)
	}
}

func TestPlanner_RawDurationIsTravelTimeForAnyWeightKey(t *testing.T) {
	// GIVEN a planner that routes on edge length
	p := New(routing.NewPathFinder(starGraph(t)), nil, nil, Options{Iterations: 20, WeightKey: roadgraph.WeightKeyLength})

	// WHEN planning to the two-hop destination
	plan, err := p.Plan(context.Background(), rand.New(rand.NewSource(2)), nil, 1, []Destination{{ID: "mid", Node: 4}})
	require.NoError(t, err)
	require.Len(t, plan.Routes, 1)

	// THEN the raw duration is 240 s of travel time, not 3000 m read as seconds
	assert.Equal(t, []roadgraph.NodeID{1, 5, 4}, plan.Routes[0].Path)
	assert.InDelta(t, 4.0, plan.Routes[0].RawDurationMin, 1e-9)
}

func TestTravelSeconds_AppliesPenalties(t *testing.T) {
	g := starGraph(t)
	calm := routing.CostModel{Penalties: routing.DefaultPenalties()}
	protest := routing.CostModel{Event: routing.EventProtest, WeightKey: roadgraph.WeightKeyLength, Penalties: routing.DefaultPenalties()}

	assert.Equal(t, 240.0, TravelSeconds(g, []roadgraph.NodeID{1, 5, 4}, calm))
	assert.Equal(t, 600.0*routing.DefaultPenalties().Penalty(routing.EventProtest, routing.ClassPrimary),
		TravelSeconds(g, []roadgraph.NodeID{1, 3}, protest))
	assert.Equal(t, 0.0, TravelSeconds(g, []roadgraph.NodeID{2}, calm))
}

func TestPlanner_NilRNGUsesSeedZero(t *testing.T) {
	p := New(routing.NewPathFinder(starGraph(t)), nil, nil, Options{Iterations: 20})

	var got Plan
	require.NotPanics(t, func() {
		var err error
		got, err = p.Plan(context.Background(), nil, nil, 1, destinations())
		require.NoError(t, err)
	})
	want, err := p.Plan(context.Background(), rand.New(rand.NewSource(0)), nil, 1, destinations())
	require.NoError(t, err)

	require.Len(t, got.Routes, len(want.Routes))
	for i := range want.Routes {
		assert.Equal(t, want.Routes[i].DurationMin, got.Routes[i].DurationMin)
	}
}

func TestPlanner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(routing.NewPathFinder(starGraph(t)), nil, nil, Options{})
	_, err := p.Plan(ctx, rand.New(rand.NewSource(1)), nil, 1, destinations())
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestDecodeRoute_GeometryAndDedup(t *testing.T) {
	g := starGraph(t)
	model := routing.CostModel{Penalties: routing.DefaultPenalties()}

	meters, coords := DecodeRoute(g, []roadgraph.NodeID{1, 3}, model)
	assert.Equal(t, 5600.0, meters)
	assert.Equal(t, [][2]float64{{-1.050, -80.450}, {-1.075, -80.451}, {-1.100, -80.450}}, coords)

	meters, coords = DecodeRoute(g, []roadgraph.NodeID{1, 5, 4}, model)
	assert.Equal(t, 3000.0, meters)
	assert.Len(t, coords, 3, "shared node 5 appears once")

	meters, coords = DecodeRoute(g, []roadgraph.NodeID{2}, model)
	assert.Equal(t, 0.0, meters)
	assert.Len(t, coords, 1)
}

func TestDecodeRoute_PicksCheapestParallelEdge(t *testing.T) {
	g := roadgraph.New()
	require.NoError(t, g.AddNode(roadgraph.Node{ID: 1}))
	require.NoError(t, g.AddNode(roadgraph.Node{ID: 2}))
	require.NoError(t, g.AddEdge(roadgraph.Edge{From: 1, To: 2, Weight: 10, Length: 100, RoadClass: routing.ClassPrimary}))
	require.NoError(t, g.AddEdge(roadgraph.Edge{From: 1, To: 2, Weight: 30, Length: 900, RoadClass: routing.ClassResidential}))

	calm, _ := DecodeRoute(g, []roadgraph.NodeID{1, 2}, routing.CostModel{Penalties: routing.DefaultPenalties()})
	protest, _ := DecodeRoute(g, []roadgraph.NodeID{1, 2}, routing.CostModel{Event: routing.EventProtest, Penalties: routing.DefaultPenalties()})
	assert.Equal(t, 100.0, calm)
	assert.Equal(t, 900.0, protest)
}

func TestNearestNode(t *testing.T) {
	g := starGraph(t)
	id, ok := NearestNode(g, roadgraph.LatLon{Lat: -1.099, Lon: -80.451})
	require.True(t, ok)
	assert.Equal(t, roadgraph.NodeID(3), id)

	_, ok = NearestNode(roadgraph.New(), roadgraph.LatLon{})
	assert.False(t, ok)
}
