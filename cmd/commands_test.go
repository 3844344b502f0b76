package cmd

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiguelAlmeida05/Ruta-Op/internal/testutil"
	"github.com/MiguelAlmeida05/Ruta-Op/sim"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/markov"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/planner"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/roadgraph"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/routing"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/session"
)

func TestSessions_SaveLoadRoundTrip(t *testing.T) {
	// GIVEN a registry with two sessions in distinct states
	path := filepath.Join(t.TempDir(), "sessions.yaml")
	reg := session.NewRegistry(1)
	reg.GetOrCreate("a").Force(sim.StateRain)
	reg.GetOrCreate("b").Force(sim.StateStrike)

	// WHEN saved and loaded into a fresh registry
	require.NoError(t, SaveSessions(path, reg))
	fresh := session.NewRegistry(1)
	require.NoError(t, LoadSessions(path, fresh))

	// THEN both chains come back in their states
	assert.Equal(t, []string{"a", "b"}, fresh.IDs())
	assert.Equal(t, sim.StateRain, fresh.GetOrCreate("a").State())
	assert.Equal(t, sim.StateStrike, fresh.GetOrCreate("b").State())
}

func TestLoadSessions_MissingFileIsFresh(t *testing.T) {
	reg := session.NewRegistry(1)
	require.NoError(t, LoadSessions(filepath.Join(t.TempDir(), "none.yaml"), reg))
	assert.Equal(t, 0, reg.Len())
}

func TestLoadSessions_LegacyStateNames(t *testing.T) {
	path := writeTemp(t, "sessions.yaml", "sessions:\n  old:\n    current_state: Huelga\n")
	reg := session.NewRegistry(1)
	require.NoError(t, LoadSessions(path, reg))
	snap, ok := reg.Export("old")
	require.True(t, ok)
	assert.Equal(t, markov.Snapshot{CurrentState: "Strike"}, snap)
}

func TestLoadSessions_RejectsUnknownKeys(t *testing.T) {
	path := writeTemp(t, "sessions.yaml", "session:\n  a:\n    current_state: Rain\n")
	assert.Error(t, LoadSessions(path, session.NewRegistry(1)))
}

func TestParseDestinations(t *testing.T) {
	dests, err := ParseDestinations([]string{"market=12", " 40 ", "farm = 7"})
	require.NoError(t, err)
	assert.Equal(t, []planner.Destination{
		{ID: "market", Node: 12},
		{ID: "40", Node: 40},
		{ID: "farm", Node: 7},
	}, dests)

	_, err = ParseDestinations([]string{"market=abc"})
	assert.Error(t, err)
}

func TestLoadDestinations(t *testing.T) {
	path := writeTemp(t, "dests.yaml", "- id: north\n  node: 3\n- id: south\n  node: 9\n")
	dests, err := LoadDestinations(path)
	require.NoError(t, err)
	assert.Equal(t, []planner.Destination{{ID: "north", Node: 3}, {ID: "south", Node: 9}}, dests)

	_, err = LoadDestinations(writeTemp(t, "bad.yaml", "- id: x\n  nodes: 3\n"))
	assert.Error(t, err)
}

func TestNewRouteOutput(t *testing.T) {
	found := newRouteOutput(routing.PathResult{
		Path: []roadgraph.NodeID{1, 2}, Cost: 42, Elapsed: 1500 * time.Microsecond, Expanded: -1,
	})
	require.NotNil(t, found.Cost)
	assert.Equal(t, 42.0, *found.Cost)
	assert.InDelta(t, 1.5, found.ElapsedMs, 1e-9)

	missing := newRouteOutput(routing.PathResult{Cost: math.Inf(1), Status: routing.StatusNoPath})
	assert.Nil(t, missing.Cost)
	assert.NotNil(t, missing.Path)
	assert.Empty(t, missing.Path)
}

func TestNewPathFinder_AppliesConfig(t *testing.T) {
	// GIVEN a config that makes protests cheap on residential streets
	cfg = DefaultConfig()
	cfg.Routing.Penalties = map[string]map[string]float64{"protest": {"residential": 1.0}}
	t.Cleanup(func() { cfg = DefaultConfig() })

	// WHEN the finder is built from the reference network file
	pf := newPathFinder(testutil.NetworkPath(t))

	// THEN the graph is loaded and the overrides are in effect
	assert.Equal(t, testutil.NetworkNodes, pf.Graph().NumNodes())
	assert.True(t, pf.NativeReady())
	assert.Equal(t, 1.0, pf.Penalties().Penalty(routing.EventProtest, routing.ClassResidential))

	res := pf.Run(routing.Query{Source: testutil.NetworkNorthWest, Target: testutil.NetworkSouthEast, Event: routing.EventProtest})
	out := newRouteOutput(res)
	require.NotNil(t, out.Cost)
	assert.Equal(t, testutil.NetworkNorthWest, out.Path[0])
	assert.Equal(t, testutil.NetworkSouthEast, out.Path[len(out.Path)-1])
}
