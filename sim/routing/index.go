package routing

import (
	"errors"
	"fmt"
	"math"

	"github.com/MiguelAlmeida05/Ruta-Op/sim/roadgraph"
)

var (
	// ErrNilGraph is returned when an index is requested for a nil graph.
	ErrNilGraph = errors.New("routing: graph is nil")

	// ErrIndexOverflow is returned when the graph does not fit 32-bit dense indices.
	ErrIndexOverflow = errors.New("routing: graph too large for dense index")
)

// denseIndex is a CSR (compressed sparse row) snapshot of a roadgraph.Graph.
// Node ids are remapped to 0..n-1 in graph insertion order; the outgoing edges of
// node i are edges[firstOut[i]:firstOut[i+1]] with targets head[...].
type denseIndex struct {
	ids      []roadgraph.NodeID
	index    map[roadgraph.NodeID]int32
	firstOut []int32
	head     []int32
	edges    []*roadgraph.Edge
	lat      []float64
	lon      []float64
	hasCoord []bool
}

func buildDenseIndex(g *roadgraph.Graph) (*denseIndex, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	n, m := g.NumNodes(), g.NumEdges()
	if n > math.MaxInt32-1 || m > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d nodes, %d edges", ErrIndexOverflow, n, m)
	}

	ix := &denseIndex{
		ids:      make([]roadgraph.NodeID, n),
		index:    make(map[roadgraph.NodeID]int32, n),
		firstOut: make([]int32, n+1),
		head:     make([]int32, 0, m),
		edges:    make([]*roadgraph.Edge, 0, m),
		lat:      make([]float64, n),
		lon:      make([]float64, n),
		hasCoord: make([]bool, n),
	}
	for i, id := range g.Nodes() {
		ix.ids[i] = id
		ix.index[id] = int32(i)
		node, _ := g.Node(id)
		c, ok := node.Coord()
		ix.lat[i], ix.lon[i], ix.hasCoord[i] = c.Lat, c.Lon, ok
	}
	for i, id := range ix.ids {
		ix.firstOut[i] = int32(len(ix.head))
		for _, e := range g.Out(id) {
			to, ok := ix.index[e.To]
			if !ok {
				return nil, fmt.Errorf("%w: %d (edge %d->%d)", roadgraph.ErrUnknownNode, e.To, e.From, e.To)
			}
			ix.head = append(ix.head, to)
			ix.edges = append(ix.edges, e)
		}
	}
	ix.firstOut[n] = int32(len(ix.head))
	return ix, nil
}

func (ix *denseIndex) lookup(id roadgraph.NodeID) (int32, bool) {
	if ix == nil {
		return 0, false
	}
	i, ok := ix.index[id]
	return i, ok
}

func (ix *denseIndex) numNodes() int { return len(ix.ids) }
