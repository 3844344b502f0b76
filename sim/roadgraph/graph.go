// Package roadgraph is the in-memory road network consumed by the router: a directed
// multigraph whose nodes carry geodetic coordinates and whose edges carry a base travel
// weight, an OSM road class and optional length/geometry.
//
// The acquisition layer (download, caching, enrichment) lives outside this module; it
// hands over a JSON document that LoadJSON turns into a Graph. A Graph is treated as
// read-only once it has been handed to a router.
package roadgraph

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// NodeID is the opaque, stable identifier of a road node (an OSM id in practice).
type NodeID int64

// LatLon is a WGS84 coordinate pair in degrees.
type LatLon struct {
	Lat float64
	Lon float64
}

// Node is a road intersection or shape point.
type Node struct {
	ID  NodeID
	Lat float64
	Lon float64
	// NoCoord marks nodes whose coordinates were missing from the source data.
	NoCoord bool
}

// Coord returns the node coordinates and whether they are known.
func (n Node) Coord() (LatLon, bool) {
	return LatLon{Lat: n.Lat, Lon: n.Lon}, !n.NoCoord
}

// Weight keys understood by Edge.BaseWeight.
const (
	WeightKeyDefault    = "weight"
	WeightKeyTravelTime = "travel_time"
	WeightKeyLength     = "length"
)

// Edge is one directed road segment. Parallel edges between the same ordered pair are allowed.
type Edge struct {
	From      NodeID
	To        NodeID
	Weight    float64 // travel time in seconds
	RoadClass string
	Length    float64 // meters, 0 when unknown
	Geometry  []LatLon
	Attrs     map[string]float64
}

// BaseWeight resolves the raw (unmodified) weight for key. Unknown keys fall back to 1.0
// so a graph missing an attribute degrades to hop counting rather than failing.
func (e *Edge) BaseWeight(key string) float64 {
	switch key {
	case "", WeightKeyDefault, WeightKeyTravelTime:
		return e.Weight
	case WeightKeyLength:
		return e.Length
	}
	if v, ok := e.Attrs[key]; ok {
		return v
	}
	return 1.0
}

var (
	// ErrUnknownNode is returned when an edge references a node that was never added.
	ErrUnknownNode = errors.New("roadgraph: edge references unknown node")

	// ErrDuplicateNode is returned when a node id is added twice.
	ErrDuplicateNode = errors.New("roadgraph: duplicate node id")
)

// Graph is a directed multigraph keyed by NodeID. Iteration order of Nodes and of each
// node's outgoing edges is insertion order, which keeps searches deterministic.
type Graph struct {
	nodes map[NodeID]Node
	order []NodeID
	out   map[NodeID][]*Edge
	edges int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[NodeID]Node),
		out:   make(map[NodeID][]*Edge),
	}
}

// AddNode inserts a node. Nodes are immutable: re-adding an id is an error.
func (g *Graph) AddNode(n Node) error {
	if _, ok := g.nodes[n.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateNode, n.ID)
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return nil
}

// AddEdge inserts a directed edge. Both endpoints must already exist.
// Negative weights are kept as given and clamped to 0 at query time.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return fmt.Errorf("%w: %d (edge %d->%d)", ErrUnknownNode, e.From, e.From, e.To)
	}
	if _, ok := g.nodes[e.To]; !ok {
		return fmt.Errorf("%w: %d (edge %d->%d)", ErrUnknownNode, e.To, e.From, e.To)
	}
	warnInvalidWeight(e, "weight", e.Weight)
	warnInvalidWeight(e, "length", e.Length)
	for key, v := range e.Attrs {
		warnInvalidWeight(e, key, v)
	}
	edge := e
	g.out[e.From] = append(g.out[e.From], &edge)
	g.edges++
	return nil
}

// warnInvalidWeight flags a value that routing will clamp to 0.
func warnInvalidWeight(e Edge, key string, v float64) {
	if v < 0 || math.IsNaN(v) {
		logrus.Warnf("roadgraph: invalid %s %v on edge %d->%d; it will be treated as 0", key, v, e.From, e.To)
	}
}

// HasNode reports whether id is in the graph.
func (g *Graph) HasNode(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node for id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns node ids in insertion order. The slice is shared; do not modify it.
func (g *Graph) Nodes() []NodeID {
	return g.order
}

// Out returns the outgoing edges of id in insertion order. The slice is shared; do not modify it.
func (g *Graph) Out(id NodeID) []*Edge {
	return g.out[id]
}

// EdgesBetween returns every parallel edge from u to v.
func (g *Graph) EdgesBetween(u, v NodeID) []*Edge {
	var res []*Edge
	for _, e := range g.out[u] {
		if e.To == v {
			res = append(res, e)
		}
	}
	return res
}

// NumNodes returns the node count.
func (g *Graph) NumNodes() int { return len(g.order) }

// NumEdges returns the edge count, parallel edges included.
func (g *Graph) NumEdges() int { return g.edges }
