package routing

import (
	"container/heap"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/MiguelAlmeida05/Ruta-Op/sim/roadgraph"
)

// pqItem is a heap entry. priority is g+h (h=0 for Dijkstra); seq breaks ties so
// equal-priority entries pop in push order.
type pqItem[K comparable] struct {
	node     K
	priority float64
	seq      uint64
}

// searchPQ is a min-heap with lazy decrease-key: improved labels are pushed again
// and stale entries are skipped when popped.
type searchPQ[K comparable] struct {
	items []pqItem[K]
	seq   uint64
}

func (pq *searchPQ[K]) Len() int { return len(pq.items) }

func (pq *searchPQ[K]) Less(i, j int) bool {
	a, b := pq.items[i], pq.items[j]
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	return a.seq < b.seq
}

func (pq *searchPQ[K]) Swap(i, j int) { pq.items[i], pq.items[j] = pq.items[j], pq.items[i] }

func (pq *searchPQ[K]) Push(x any) { pq.items = append(pq.items, x.(pqItem[K])) }

func (pq *searchPQ[K]) Pop() any {
	old := pq.items
	n := len(old)
	item := old[n-1]
	pq.items = old[:n-1]
	return item
}

func (pq *searchPQ[K]) push(node K, priority float64) {
	heap.Push(pq, pqItem[K]{node: node, priority: priority, seq: pq.seq})
	pq.seq++
}

func (pq *searchPQ[K]) pop() pqItem[K] {
	return heap.Pop(pq).(pqItem[K])
}

// searchRequest is everything a backend needs for one query.
//
// A zero heuristic at coordinate-less nodes keeps h admissible but not consistent, so A*
// reopens a closed node whenever a cheaper label reaches it. Dijkstra never does.
type searchRequest struct {
	source   roadgraph.NodeID
	target   roadgraph.NodeID
	cost     CostModel
	astar    bool
	maxSpeed float64
}

// searchOutcome is a backend's raw answer. expanded is -1 when not tracked.
type searchOutcome struct {
	path     []roadgraph.NodeID
	cost     float64
	expanded int
	found    bool
}

// searchBackend is one of the two interchangeable graph representations.
type searchBackend interface {
	search(req searchRequest) searchOutcome
	kind() Backend
}

// === Dense (CSR) backend ===

type denseBackend struct {
	ix *denseIndex
}

func (b denseBackend) kind() Backend { return BackendNative }

func (b denseBackend) search(req searchRequest) searchOutcome {
	ix := b.ix
	src, okS := ix.lookup(req.source)
	dst, okT := ix.lookup(req.target)
	if !okS || !okT {
		return searchOutcome{cost: math.Inf(1), expanded: -1}
	}

	n := ix.numNodes()
	dist := make([]float64, n)
	parent := make([]int32, n)
	closed := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		parent[i] = -1
	}

	h := func(int32) float64 { return 0 }
	if req.astar {
		h = denseHeuristic(ix, dst, req.maxSpeed)
	}

	pq := &searchPQ[int32]{}
	dist[src] = 0
	pq.push(src, h(src))

	for pq.Len() > 0 {
		u := pq.pop().node
		if closed[u] {
			continue
		}
		closed[u] = true
		if u == dst {
			break
		}
		for k := ix.firstOut[u]; k < ix.firstOut[u+1]; k++ {
			v := ix.head[k]
			if closed[v] && !req.astar {
				continue
			}
			nd := dist[u] + req.cost.Weight(ix.edges[k])
			if nd < dist[v] {
				dist[v] = nd
				parent[v] = u
				closed[v] = false
				pq.push(v, nd+h(v))
			}
		}
	}

	if !closed[dst] {
		return searchOutcome{cost: math.Inf(1), expanded: -1}
	}
	var rev []roadgraph.NodeID
	for cur := dst; cur != -1; cur = parent[cur] {
		rev = append(rev, ix.ids[cur])
	}
	return searchOutcome{path: reversed(rev), cost: dist[dst], expanded: -1, found: true}
}

func denseHeuristic(ix *denseIndex, dst int32, maxSpeed float64) func(int32) float64 {
	if maxSpeed <= 0 || math.IsNaN(maxSpeed) || math.IsInf(maxSpeed, 0) {
		maxSpeed = DefaultMaxSpeedMPS
	}
	target := roadgraph.LatLon{Lat: ix.lat[dst], Lon: ix.lon[dst]}
	warned := false
	return func(u int32) float64 {
		if !ix.hasCoord[u] || !ix.hasCoord[dst] {
			if !warned {
				logrus.Warnf("routing: missing coordinates for node %d or %d; A* heuristic falls back to 0", ix.ids[u], ix.ids[dst])
				warned = true
			}
			return 0
		}
		return Haversine(roadgraph.LatLon{Lat: ix.lat[u], Lon: ix.lon[u]}, target) / maxSpeed
	}
}

// === Sparse (adjacency map) backend ===

type sparseBackend struct {
	g *roadgraph.Graph
}

func (b sparseBackend) kind() Backend { return BackendFallback }

func (b sparseBackend) search(req searchRequest) searchOutcome {
	g := b.g
	if !g.HasNode(req.source) || !g.HasNode(req.target) {
		return searchOutcome{cost: math.Inf(1)}
	}

	dist := map[roadgraph.NodeID]float64{req.source: 0}
	parent := make(map[roadgraph.NodeID]roadgraph.NodeID)
	closed := make(map[roadgraph.NodeID]bool)

	h := func(roadgraph.NodeID) float64 { return 0 }
	if req.astar {
		h = newGeoHeuristic(g, req.target, req.maxSpeed).estimate
	}

	pq := &searchPQ[roadgraph.NodeID]{}
	pq.push(req.source, h(req.source))
	expanded := 0

	for pq.Len() > 0 {
		u := pq.pop().node
		if closed[u] {
			continue
		}
		closed[u] = true
		expanded++
		if u == req.target {
			break
		}
		du := dist[u]
		for _, e := range g.Out(u) {
			if closed[e.To] && !req.astar {
				continue
			}
			nd := du + req.cost.Weight(e)
			if cur, seen := dist[e.To]; !seen || nd < cur {
				dist[e.To] = nd
				parent[e.To] = u
				delete(closed, e.To)
				pq.push(e.To, nd+h(e.To))
			}
		}
	}

	if !closed[req.target] {
		return searchOutcome{cost: math.Inf(1), expanded: expanded}
	}
	rev := []roadgraph.NodeID{req.target}
	for cur := req.target; cur != req.source; {
		cur = parent[cur]
		rev = append(rev, cur)
	}
	return searchOutcome{path: reversed(rev), cost: dist[req.target], expanded: expanded, found: true}
}

func reversed(ids []roadgraph.NodeID) []roadgraph.NodeID {
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids
}
