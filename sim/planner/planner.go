// Package planner ranks delivery routes from one origin to many destinations: it
// routes each destination, simulates the trip under the session's traffic state, and
// scores it.
package planner

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/MiguelAlmeida05/Ruta-Op/sim"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/factors"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/kpi"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/markov"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/roadgraph"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/routing"
)

// Transport cost model: a fixed dispatch fee plus a per-km rate scaled by fuel.
const (
	DispatchFee  = 2.50
	CostPerKm    = 0.35
	defaultIters = factors.DefaultIterations
)

// Destination is one candidate drop-off.
type Destination struct {
	ID   string           `json:"id" yaml:"id"`
	Node roadgraph.NodeID `json:"node" yaml:"node"`
}

// RouteResult is one scored route.
type RouteResult struct {
	DestinationID   string             `json:"destination_id"`
	Node            roadgraph.NodeID   `json:"node"`
	Path            []roadgraph.NodeID `json:"path"`
	Geometry        [][2]float64       `json:"route_geometry"`
	DistanceKm      float64            `json:"distance_km"`
	RawDurationMin  float64            `json:"raw_duration_min"`
	BaseDurationMin float64            `json:"duration_min_base"`
	DurationMin     float64            `json:"duration_min"`
	TransportCost   float64            `json:"transport_cost"`
	Factors         factors.Result     `json:"factors"`
	KPIs            kpi.Bundle         `json:"kpis"`
}

// Plan is the ranked answer for one request. Routes are sorted by simulated duration.
type Plan struct {
	State       sim.TrafficState `json:"state"`
	Routes      []RouteResult    `json:"all_routes"`
	Recommended *RouteResult     `json:"recommended_route"`
	Skipped     []string         `json:"skipped,omitempty"`
}

// Options tune a Planner.
type Options struct {
	Event       routing.Event
	Vehicle     *routing.VehicleProfile
	WeightKey   string
	Iterations  int
	Concurrency int // max destinations in flight; <= 0 means unlimited
}

// Planner wires routing, simulation and scoring together.
type Planner struct {
	finder     *routing.PathFinder
	simulator  *factors.Simulator
	aggregator *kpi.Aggregator
	opts       Options
}

// New returns a planner. simulator and aggregator may be nil for predictor-free defaults.
func New(finder *routing.PathFinder, simulator *factors.Simulator, aggregator *kpi.Aggregator, opts Options) *Planner {
	if simulator == nil {
		simulator = factors.NewSimulator(nil)
	}
	if aggregator == nil {
		aggregator = kpi.NewAggregator(nil)
	}
	if opts.Iterations <= 0 {
		opts.Iterations = defaultIters
	}
	return &Planner{finder: finder, simulator: simulator, aggregator: aggregator, opts: opts}
}

// Plan advances chain once (a nil chain means StateNormal), then routes and scores every
// destination concurrently. Per-destination RNG streams are split from rng before any
// goroutine starts, so results do not depend on scheduling. Unroutable destinations are
// skipped. The only error is ctx cancellation. A nil rng uses seed 0.
func (p *Planner) Plan(ctx context.Context, rng *rand.Rand, chain *markov.Chain, origin roadgraph.NodeID, dests []Destination) (Plan, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(0))
	}
	state := sim.StateNormal
	if chain != nil {
		state = chain.Advance()
	}

	seeds := make([]int64, len(dests))
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	results := make([]*RouteResult, len(dests))
	g, gctx := errgroup.WithContext(ctx)
	if p.opts.Concurrency > 0 {
		g.SetLimit(p.opts.Concurrency)
	}
	for i, d := range dests {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.planOne(rand.New(rand.NewSource(seeds[i])), state, origin, d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Plan{}, fmt.Errorf("plan from %d: %w", origin, err)
	}

	out := Plan{State: state}
	for i, r := range results {
		if r == nil {
			out.Skipped = append(out.Skipped, dests[i].ID)
			continue
		}
		out.Routes = append(out.Routes, *r)
	}
	sort.SliceStable(out.Routes, func(a, b int) bool {
		return out.Routes[a].DurationMin < out.Routes[b].DurationMin
	})
	if len(out.Routes) > 0 {
		out.Recommended = &out.Routes[0]
	}
	return out, nil
}

func (p *Planner) planOne(rng *rand.Rand, state sim.TrafficState, origin roadgraph.NodeID, d Destination) *RouteResult {
	res := p.finder.FindPath(routing.AlgorithmDijkstra, origin, d.Node, p.opts.WeightKey, p.opts.Event, p.opts.Vehicle)
	if !res.Found() || len(res.Path) == 0 {
		logrus.Warnf("planner: skipping %s (node %d): %s, cost %v", d.ID, d.Node, res.Status, res.Cost)
		return nil
	}

	model := routing.CostModel{
		WeightKey: p.opts.WeightKey,
		Event:     p.opts.Event,
		Vehicle:   p.opts.Vehicle,
		Penalties: p.finder.Penalties(),
	}
	distanceM, geometry := DecodeRoute(p.finder.Graph(), res.Path, model)
	km := distanceM / 1000
	raw := TravelSeconds(p.finder.Graph(), res.Path, model) / 60
	base := sim.Round2(factors.Calibrate(km, raw))

	f := p.simulator.Simulate(rng, state, base, km, p.opts.Iterations)
	k := p.aggregator.Aggregate(rng, f, kpi.BaseMetrics{DurationMin: base, DistanceKm: km})

	return &RouteResult{
		DestinationID:   d.ID,
		Node:            d.Node,
		Path:            res.Path,
		Geometry:        geometry,
		DistanceKm:      sim.Round2(km),
		RawDurationMin:  sim.Round2(raw),
		BaseDurationMin: base,
		DurationMin:     k.SimulatedDurationMin,
		TransportCost:   sim.Round2(DispatchFee + km*CostPerKm*f.FuelFactor),
		Factors:         f,
		KPIs:            k,
	}
}

// DecodeRoute walks path and returns its length in meters and its [lat, lon] polyline.
// Between consecutive nodes the cheapest edge under model is used. Its geometry is
// used when present, otherwise the endpoint coordinates; consecutive duplicates are dropped.
func DecodeRoute(g *roadgraph.Graph, path []roadgraph.NodeID, model routing.CostModel) (float64, [][2]float64) {
	var (
		meters float64
		coords [][2]float64
	)
	appendPt := func(c roadgraph.LatLon) {
		pt := [2]float64{c.Lat, c.Lon}
		if n := len(coords); n > 0 && coords[n-1] == pt {
			return
		}
		coords = append(coords, pt)
	}
	appendNode := func(id roadgraph.NodeID) {
		if n, ok := g.Node(id); ok {
			if c, has := n.Coord(); has {
				appendPt(c)
			}
		}
	}

	if len(path) == 1 {
		appendNode(path[0])
	}
	for i := 0; i+1 < len(path); i++ {
		e := cheapest(g.EdgesBetween(path[i], path[i+1]), model)
		if e == nil {
			continue
		}
		if l, _ := sim.SanitizeNonNegative(e.Length); l > 0 {
			meters += l
		}
		if len(e.Geometry) > 0 {
			for _, c := range e.Geometry {
				appendPt(c)
			}
			continue
		}
		appendNode(path[i])
		appendNode(path[i+1])
	}
	return meters, coords
}

// TravelSeconds returns the penalized travel time of path in seconds. Edges are chosen as
// DecodeRoute chooses them, but always weighed by travel time, so routing on length or
// another attribute still yields a duration.
func TravelSeconds(g *roadgraph.Graph, path []roadgraph.NodeID, model routing.CostModel) float64 {
	timed := model
	timed.WeightKey = roadgraph.WeightKeyTravelTime
	var secs float64
	for i := 0; i+1 < len(path); i++ {
		if e := cheapest(g.EdgesBetween(path[i], path[i+1]), model); e != nil {
			secs += timed.Weight(e)
		}
	}
	return secs
}

func cheapest(edges []*roadgraph.Edge, model routing.CostModel) *roadgraph.Edge {
	var best *roadgraph.Edge
	bestW := math.Inf(1)
	for _, e := range edges {
		if w := model.Weight(e); best == nil || w < bestW {
			best, bestW = e, w
		}
	}
	return best
}

// NearestNode returns the node closest to c by great-circle distance, ignoring nodes
// without coordinates. ok is false when no node qualifies.
func NearestNode(g *roadgraph.Graph, c roadgraph.LatLon) (roadgraph.NodeID, bool) {
	var (
		best  roadgraph.NodeID
		bestD = math.Inf(1)
		found bool
	)
	for _, id := range g.Nodes() {
		n, _ := g.Node(id)
		nc, has := n.Coord()
		if !has {
			continue
		}
		if d := routing.Haversine(c, nc); d < bestD {
			best, bestD, found = id, d, true
		}
	}
	return best, found
}
