// Package routing finds lowest-cost paths through a roadgraph.Graph whose edge costs are
// scaled by disruption events and vehicle profiles.
//
// Two algorithms (Dijkstra and A*) run over two interchangeable backends: a dense CSR
// index built once per graph, and the graph's own adjacency maps. Both read edge costs
// through the same CostModel, so every combination returns the same optimal cost.
package routing

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/MiguelAlmeida05/Ruta-Op/sim/roadgraph"
)

// Algorithm selects the search strategy.
type Algorithm int

const (
	AlgorithmDijkstra Algorithm = iota
	AlgorithmAStar
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmDijkstra:
		return "dijkstra"
	case AlgorithmAStar:
		return "astar"
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// ParseAlgorithm accepts "dijkstra", "astar" and "a*".
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "dijkstra":
		return AlgorithmDijkstra, nil
	case "astar", "a*", "a-star":
		return AlgorithmAStar, nil
	}
	return AlgorithmDijkstra, fmt.Errorf("unknown algorithm %q (valid: dijkstra, astar)", name)
}

// Backend identifies the graph representation that served a query.
type Backend int

const (
	BackendAuto Backend = iota
	BackendNative
	BackendFallback
)

func (b Backend) String() string {
	switch b {
	case BackendAuto:
		return "auto"
	case BackendNative:
		return "native"
	case BackendFallback:
		return "fallback"
	}
	return fmt.Sprintf("Backend(%d)", int(b))
}

// ParseBackend accepts "auto" (or empty), "native" and "fallback".
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return BackendAuto, nil
	case "native":
		return BackendNative, nil
	case "fallback":
		return BackendFallback, nil
	}
	return BackendAuto, fmt.Errorf("unknown backend %q (valid: auto, native, fallback)", name)
}

// MarshalText renders the backend by name in JSON/YAML output.
func (b Backend) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// MarshalText renders the algorithm by name in JSON/YAML output.
func (a Algorithm) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// Status is the outcome class of a query.
type Status int

const (
	StatusOK Status = iota
	StatusNoPath
	StatusNodeNotFound
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoPath:
		return "no_path"
	case StatusNodeNotFound:
		return "node_not_found"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText renders the status by name in JSON/YAML output.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// PathResult is the answer to one query. Cost is +Inf and Path is empty unless Status is
// StatusOK. Expanded is -1 when the backend does not count expansions.
type PathResult struct {
	Algorithm Algorithm          `json:"algorithm"`
	Backend   Backend            `json:"backend"`
	Path      []roadgraph.NodeID `json:"path"`
	Cost      float64            `json:"cost"`
	Expanded  int                `json:"expanded"`
	Elapsed   time.Duration      `json:"elapsed_ns"`
	Status    Status             `json:"status"`
}

// Found reports whether the result carries a usable path.
func (r PathResult) Found() bool {
	return r.Status == StatusOK && !math.IsInf(r.Cost, 0) && !math.IsNaN(r.Cost)
}

// Query is a fully specified path request. Backend forces a representation; the zero
// value lets the finder choose.
type Query struct {
	Algorithm Algorithm
	Source    roadgraph.NodeID
	Target    roadgraph.NodeID
	WeightKey string
	Event     Event
	Vehicle   *VehicleProfile
	Backend   Backend
}

// PathFinder answers path queries against one graph. Queries are safe to run
// concurrently; SetGraph is not safe to run concurrently with queries.
type PathFinder struct {
	g             *roadgraph.Graph
	dense         *denseIndex
	penalties     PenaltyTable
	maxSpeed      float64
	nativeEnabled bool
}

// Option configures a PathFinder.
type Option func(*PathFinder)

// WithPenalties replaces the default event penalty table.
func WithPenalties(t PenaltyTable) Option {
	return func(pf *PathFinder) {
		if t != nil {
			pf.penalties = t.Clone()
		}
	}
}

// WithMaxSpeed sets the speed (m/s) the A* heuristic divides distances by.
func WithMaxSpeed(mps float64) Option {
	return func(pf *PathFinder) {
		if mps > 0 && !math.IsInf(mps, 0) {
			pf.maxSpeed = mps
		}
	}
}

// WithoutNativeIndex disables the dense backend; every query uses the fallback.
func WithoutNativeIndex() Option {
	return func(pf *PathFinder) { pf.nativeEnabled = false }
}

// NewPathFinder builds a finder for g. A failed dense index build is logged and the
// finder serves every query from the fallback backend.
func NewPathFinder(g *roadgraph.Graph, opts ...Option) *PathFinder {
	pf := &PathFinder{
		penalties:     DefaultPenalties(),
		maxSpeed:      DefaultMaxSpeedMPS,
		nativeEnabled: true,
	}
	for _, opt := range opts {
		opt(pf)
	}
	if err := pf.SetGraph(g); err != nil {
		logrus.Warnf("routing: dense index unavailable, using fallback backend: %v", err)
	}
	return pf
}

// SetGraph swaps the graph and rebuilds the dense index.
func (pf *PathFinder) SetGraph(g *roadgraph.Graph) error {
	pf.g = g
	pf.dense = nil
	if !pf.nativeEnabled || g == nil {
		return nil
	}

	_, span := startIndexSpan(g.NumNodes(), g.NumEdges())
	defer span.End()

	start := time.Now()
	ix, err := buildDenseIndex(g)
	recordIndexBuild(time.Since(start), err == nil)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("build dense index: %w", err)
	}
	pf.dense = ix
	logrus.Debugf("routing: dense index ready (%d nodes, %d edges) in %s",
		g.NumNodes(), g.NumEdges(), time.Since(start))
	return nil
}

// Graph returns the graph the finder currently serves.
func (pf *PathFinder) Graph() *roadgraph.Graph { return pf.g }

// Penalties returns the finder's event penalty table.
func (pf *PathFinder) Penalties() PenaltyTable { return pf.penalties }

// NativeReady reports whether the dense backend is available.
func (pf *PathFinder) NativeReady() bool { return pf.dense != nil }

// FindPath runs algo from source to target.
func (pf *PathFinder) FindPath(algo Algorithm, source, target roadgraph.NodeID, weightKey string, event Event, vehicle *VehicleProfile) PathResult {
	return pf.Run(Query{
		Algorithm: algo,
		Source:    source,
		Target:    target,
		WeightKey: weightKey,
		Event:     event,
		Vehicle:   vehicle,
	})
}

// Dijkstra is FindPath with AlgorithmDijkstra.
func (pf *PathFinder) Dijkstra(source, target roadgraph.NodeID, weightKey string, event Event, vehicle *VehicleProfile) PathResult {
	return pf.FindPath(AlgorithmDijkstra, source, target, weightKey, event, vehicle)
}

// AStar is FindPath with AlgorithmAStar.
func (pf *PathFinder) AStar(source, target roadgraph.NodeID, weightKey string, event Event, vehicle *VehicleProfile) PathResult {
	return pf.FindPath(AlgorithmAStar, source, target, weightKey, event, vehicle)
}

// Run executes q.
func (pf *PathFinder) Run(q Query) PathResult {
	start := time.Now()
	res := PathResult{Algorithm: q.Algorithm, Cost: math.Inf(1), Expanded: -1}

	if pf.g == nil || !pf.g.HasNode(q.Source) || !pf.g.HasNode(q.Target) {
		res.Status = StatusNodeNotFound
		res.Backend = BackendFallback
		res.Elapsed = time.Since(start)
		recordQueryMetrics(res, false)
		return res
	}

	if q.Algorithm == AlgorithmAStar && q.Vehicle != nil && q.Vehicle.SpeedPenalty > 0 && q.Vehicle.SpeedPenalty < 1 {
		logrus.Warnf("routing: speed_penalty %.2f < 1 may make the A* heuristic inadmissible", q.Vehicle.SpeedPenalty)
	}

	req := searchRequest{
		source: q.Source,
		target: q.Target,
		cost: CostModel{
			WeightKey: q.WeightKey,
			Event:     q.Event,
			Vehicle:   q.Vehicle,
			Penalties: pf.penalties,
		},
		astar:    q.Algorithm == AlgorithmAStar,
		maxSpeed: pf.maxSpeed,
	}

	_, srcIn := pf.dense.lookup(q.Source)
	_, dstIn := pf.dense.lookup(q.Target)
	backend := selectBackend(q.Backend, pf.dense != nil, srcIn, dstIn)

	var out searchOutcome
	if backend == BackendNative {
		var err error
		out, err = pf.runNative(req)
		if err != nil {
			logrus.Errorf("routing: native %s %d->%d failed, retrying on fallback: %v",
				q.Algorithm, q.Source, q.Target, err)
			backend = BackendFallback
		}
	}
	if backend == BackendFallback {
		out = sparseBackend{g: pf.g}.search(req)
	}

	res.Backend = backend
	res.Expanded = out.expanded
	if out.found {
		res.Status = StatusOK
		res.Path = out.path
		res.Cost = out.cost
	} else {
		res.Status = StatusNoPath
	}
	res.Elapsed = time.Since(start)
	recordQueryMetrics(res, backend == BackendFallback)
	return res
}

func (pf *PathFinder) runNative(req searchRequest) (out searchOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("native backend panic: %v", r)
		}
	}()
	return denseBackend{ix: pf.dense}.search(req), nil
}

// selectBackend decides which representation serves a query. A forced fallback always
// wins; otherwise the dense backend is used when it is built and indexes both endpoints.
func selectBackend(pref Backend, indexReady, srcIndexed, dstIndexed bool) Backend {
	if pref == BackendFallback {
		return BackendFallback
	}
	if indexReady && srcIndexed && dstIndexed {
		return BackendNative
	}
	return BackendFallback
}
