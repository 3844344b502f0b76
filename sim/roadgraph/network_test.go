package roadgraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiguelAlmeida05/Ruta-Op/internal/testutil"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/roadgraph"
)

func TestLoadFile_ReferenceNetwork(t *testing.T) {
	// GIVEN the reference network on disk
	g := testutil.LoadNetwork(t)

	// THEN every node and edge is present
	assert.Equal(t, testutil.NetworkNodes, g.NumNodes())
	assert.Equal(t, testutil.NetworkEdges, g.NumEdges())

	// AND the coordinate-less node is flagged
	n, ok := g.Node(testutil.NetworkIsolated)
	require.True(t, ok)
	_, has := n.Coord()
	assert.False(t, has)
	assert.Empty(t, g.Out(testutil.NetworkIsolated))

	// AND a merged OSM way keeps its first highway class
	edges := g.EdgesBetween(106, 107)
	require.Len(t, edges, 1)
	assert.Equal(t, "secondary", edges[0].RoadClass)

	// AND the one-way street has no reverse edge
	assert.Len(t, g.EdgesBetween(102, 105), 1)
	assert.Empty(t, g.EdgesBetween(105, 102))

	// AND edge geometry is decoded as lat/lon points
	curved := g.EdgesBetween(101, 102)
	require.Len(t, curved, 1)
	require.Len(t, curved[0].Geometry, 3)
	assert.Equal(t, roadgraph.LatLon{Lat: -0.95, Lon: -80.726}, curved[0].Geometry[0])
}
