// Package testutil provides shared test infrastructure: the reference road network
// fixture and tolerance assertions used across sim/ sub-packages and cmd/.
package testutil

import (
	"math"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/MiguelAlmeida05/Ruta-Op/sim/roadgraph"
)

// Reference network layout (testdata/network.json): a 3x3 block grid, ids 100..108
// row-major from the north-west corner, plus node 999 with no coordinates and no edges.
// Row 0 is a primary avenue, row 1 residential, row 2 secondary; the middle column is a
// trunk road. 102->105 is one-way.
const (
	NetworkNorthWest roadgraph.NodeID = 100
	NetworkCenter    roadgraph.NodeID = 104
	NetworkSouthEast roadgraph.NodeID = 108
	NetworkIsolated  roadgraph.NodeID = 999

	NetworkNodes = 10
	NetworkEdges = 23
)

// NetworkPath returns the absolute path of testdata/network.json.
// The path is resolved relative to this source file: internal/testutil/ -> testdata/.
func NetworkPath(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "testdata", "network.json")
}

// LoadNetwork loads the reference network.
func LoadNetwork(t *testing.T) *roadgraph.Graph {
	t.Helper()
	g, err := roadgraph.LoadFile(NetworkPath(t))
	if err != nil {
		t.Fatalf("Failed to load reference network: %v", err)
	}
	return g
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
