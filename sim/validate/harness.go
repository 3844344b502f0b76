// Package validate checks the routing and simulation layers against themselves:
// Dijkstra and A* must agree on optimal costs, and Monte Carlo runs must be stable.
// The harness only reads from the components it drives.
package validate

import (
	"math"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/MiguelAlmeida05/Ruta-Op/sim"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/factors"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/kpi"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/roadgraph"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/routing"
)

const (
	// MatchTolerance is the largest |Dijkstra - A*| cost difference counted as a match.
	MatchTolerance = 1e-6

	// DefaultStabilityIterations is the per-run Monte Carlo iteration count.
	DefaultStabilityIterations = 8

	// DefaultStabilityRuns is used when a non-positive run count is requested.
	DefaultStabilityRuns = 100

	routingSampleCap   = 120
	stabilitySampleCap = 180
	minAttempts        = 200
	attemptsPerSample  = 40
)

// Harness drives validation sweeps. Not safe for concurrent use: it owns rng.
type Harness struct {
	finder              *routing.PathFinder
	simulator           *factors.Simulator
	aggregator          *kpi.Aggregator
	rng                 *rand.Rand
	StabilityIterations int
}

// NewHarness builds a harness. finder may be nil when only stability checks are run;
// simulator and aggregator default to predictor-free instances.
func NewHarness(finder *routing.PathFinder, simulator *factors.Simulator, aggregator *kpi.Aggregator, rng *rand.Rand) *Harness {
	if simulator == nil {
		simulator = factors.NewSimulator(nil)
	}
	if aggregator == nil {
		aggregator = kpi.NewAggregator(nil)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(0))
	}
	return &Harness{
		finder:              finder,
		simulator:           simulator,
		aggregator:          aggregator,
		rng:                 rng,
		StabilityIterations: DefaultStabilityIterations,
	}
}

// Sweep summarizes Dijkstra vs A* over sampled pairs under one event.
type Sweep struct {
	Samples            int     `json:"samples" yaml:"samples"`
	Attempts           int     `json:"attempts" yaml:"attempts"`
	Matches            int     `json:"matches" yaml:"matches"`
	MatchRate          float64 `json:"match_rate" yaml:"match_rate"`
	DijkstraAvgMs      float64 `json:"dijkstra_avg_time_ms" yaml:"dijkstra_avg_time_ms"`
	AStarAvgMs         float64 `json:"astar_avg_time_ms" yaml:"astar_avg_time_ms"`
	DijkstraP50Ms      float64 `json:"dijkstra_p50_ms" yaml:"dijkstra_p50_ms"`
	DijkstraP95Ms      float64 `json:"dijkstra_p95_ms" yaml:"dijkstra_p95_ms"`
	AStarP50Ms         float64 `json:"astar_p50_ms" yaml:"astar_p50_ms"`
	AStarP95Ms         float64 `json:"astar_p95_ms" yaml:"astar_p95_ms"`
	SpeedupFactor      float64 `json:"speedup_factor" yaml:"speedup_factor"`
	CostDiscrepancyAvg float64 `json:"cost_discrepancy_avg" yaml:"cost_discrepancy_avg"`
}

// RoutingReport is the output of ValidateRouting.
type RoutingReport struct {
	Requested       int              `json:"requested" yaml:"requested"`
	Sweep           `yaml:",inline"`
	DijkstraTimesMs []float64        `json:"dijkstra_times_ms,omitempty" yaml:"dijkstra_times_ms,omitempty"`
	AStarTimesMs    []float64        `json:"astar_times_ms,omitempty" yaml:"astar_times_ms,omitempty"`
	CostDiffs       []float64        `json:"cost_diffs,omitempty" yaml:"cost_diffs,omitempty"`
	PerEvent        map[string]Sweep `json:"per_event,omitempty" yaml:"per_event,omitempty"`
	Error           string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// ValidateRouting samples up to samples reachable node pairs, runs both algorithms on
// each, and repeats the sweep for every event. Unreachable pairs are skipped within an
// attempt budget of max(200, 40*samples).
func (h *Harness) ValidateRouting(samples int) RoutingReport {
	if samples < 1 {
		samples = 1
	}
	rep := RoutingReport{Requested: samples}
	if h.finder == nil || h.finder.Graph() == nil {
		rep.Error = "graph not initialized"
		return rep
	}
	nodes := h.finder.Graph().Nodes()
	if len(nodes) < 2 {
		rep.Error = "not enough nodes"
		return rep
	}

	var dMs, aMs, diffs []float64
	rep.Sweep, dMs, aMs, diffs = h.sweep(nodes, samples, routing.EventNone)
	rep.DijkstraTimesMs = capped(dMs, routingSampleCap)
	rep.AStarTimesMs = capped(aMs, routingSampleCap)
	rep.CostDiffs = capped(diffs, routingSampleCap)

	rep.PerEvent = make(map[string]Sweep, len(routing.AllEvents))
	for _, ev := range routing.AllEvents {
		s, _, _, _ := h.sweep(nodes, samples, ev)
		rep.PerEvent[ev.String()] = s
	}
	if rep.Matches < rep.Samples {
		logrus.Warnf("validate: %d/%d Dijkstra/A* cost mismatches", rep.Samples-rep.Matches, rep.Samples)
	}
	return rep
}

func (h *Harness) sweep(nodes []roadgraph.NodeID, samples int, ev routing.Event) (Sweep, []float64, []float64, []float64) {
	budget := max(minAttempts, attemptsPerSample*samples)
	var (
		s               Sweep
		dMs, aMs, diffs []float64
		diffSum         float64
	)
	for s.Samples < samples && s.Attempts < budget {
		s.Attempts++
		u, v := h.pair(nodes)

		d := h.finder.Dijkstra(u, v, "", ev, nil)
		if !d.Found() {
			continue
		}
		a := h.finder.AStar(u, v, "", ev, nil)
		if !a.Found() {
			continue
		}

		diff := math.Abs(d.Cost - a.Cost)
		if diff < MatchTolerance {
			s.Matches++
		}
		diffSum += diff
		diffs = append(diffs, diff)
		dMs = append(dMs, float64(d.Elapsed.Nanoseconds())/1e6)
		aMs = append(aMs, float64(a.Elapsed.Nanoseconds())/1e6)
		s.Samples++
	}

	s.SpeedupFactor = 1
	if s.Samples > 0 {
		n := float64(s.Samples)
		s.MatchRate = float64(s.Matches) / n
		s.CostDiscrepancyAvg = diffSum / n
		s.DijkstraAvgMs = stat.Mean(dMs, nil)
		s.AStarAvgMs = stat.Mean(aMs, nil)
		s.DijkstraP50Ms, s.DijkstraP95Ms = quantiles(dMs)
		s.AStarP50Ms, s.AStarP95Ms = quantiles(aMs)
		if s.AStarAvgMs > 0 {
			s.SpeedupFactor = s.DijkstraAvgMs / s.AStarAvgMs
		}
	}
	return s, dMs, aMs, diffs
}

// pair draws two distinct nodes.
func (h *Harness) pair(nodes []roadgraph.NodeID) (roadgraph.NodeID, roadgraph.NodeID) {
	i := h.rng.Intn(len(nodes))
	j := h.rng.Intn(len(nodes) - 1)
	if j >= i {
		j++
	}
	return nodes[i], nodes[j]
}

func quantiles(xs []float64) (p50, p95 float64) {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil), stat.Quantile(0.95, stat.Empirical, sorted, nil)
}

func capped(xs []float64, n int) []float64 {
	if len(xs) > n {
		return xs[:n]
	}
	return xs
}

// StabilityReport is the output of ValidateSimulationStability.
type StabilityReport struct {
	Runs              int       `json:"n_simulations" yaml:"n_simulations"`
	MeanDuration      float64   `json:"mean_duration" yaml:"mean_duration"`
	StdDev            float64   `json:"std_dev" yaml:"std_dev"`
	CI95Lower         float64   `json:"ci_95_lower" yaml:"ci_95_lower"`
	CI95Upper         float64   `json:"ci_95_upper" yaml:"ci_95_upper"`
	CVPercent         float64   `json:"cv_percent" yaml:"cv_percent"`
	MeanPunctuality   float64   `json:"mean_punctuality" yaml:"mean_punctuality"`
	StdPunctuality    float64   `json:"std_punctuality" yaml:"std_punctuality"`
	DurationsSample   []float64 `json:"durations_sample" yaml:"durations_sample"`
	PunctualitySample []float64 `json:"punctuality_sample" yaml:"punctuality_sample"`
}

// Stability scenario mix and input distributions.
var (
	stabilityStates  = []sim.TrafficState{sim.StateNormal, sim.StateRain, sim.StateTraffic, sim.StateStrike}
	stabilityWeights = []float64{0.55, 0.18, 0.22, 0.05}
)

const (
	stabilityBaseMean = 15.0
	stabilityBaseStd  = 2.0
	stabilityBaseMin  = 6.0
	stabilityDistMean = 5.0
	stabilityDistStd  = 1.2
	stabilityDistMin  = 1.0
)

// ValidateSimulationStability runs n randomized simulate+aggregate cycles and reports the
// spread of simulated durations and punctuality. Standard deviations are population values.
func (h *Harness) ValidateSimulationStability(n int) StabilityReport {
	if n <= 0 {
		logrus.Warnf("validate: runs must be positive, got %d; using %d", n, DefaultStabilityRuns)
		n = DefaultStabilityRuns
	}
	iters := h.StabilityIterations
	if iters <= 0 {
		iters = DefaultStabilityIterations
	}

	durations := make([]float64, n)
	punctuality := make([]float64, n)
	for i := 0; i < n; i++ {
		state := h.drawState()
		base := math.Max(stabilityBaseMin, stabilityBaseMean+stabilityBaseStd*h.rng.NormFloat64())
		dist := math.Max(stabilityDistMin, stabilityDistMean+stabilityDistStd*h.rng.NormFloat64())

		f := h.simulator.Simulate(h.rng, state, base, dist, iters)
		k := h.aggregator.Aggregate(h.rng, f, kpi.BaseMetrics{DurationMin: base, DistanceKm: dist})
		durations[i] = f.Duration
		punctuality[i] = k.Punctuality
	}

	mean, std := stat.PopMeanStdDev(durations, nil)
	punctMean, punctStd := stat.PopMeanStdDev(punctuality, nil)
	margin := 1.96 * std / math.Sqrt(float64(n))
	cv := 0.0
	if mean > 0 {
		cv = std / mean * 100
	}
	return StabilityReport{
		Runs:              n,
		MeanDuration:      sim.Round2(mean),
		StdDev:            sim.Round2(std),
		CI95Lower:         sim.Round2(mean - margin),
		CI95Upper:         sim.Round2(mean + margin),
		CVPercent:         sim.Round2(cv),
		MeanPunctuality:   sim.Round1(punctMean),
		StdPunctuality:    sim.Round2(punctStd),
		DurationsSample:   roundAll(capped(durations, stabilitySampleCap), 3),
		PunctualitySample: roundAll(capped(punctuality, stabilitySampleCap), 3),
	}
}

func (h *Harness) drawState() sim.TrafficState {
	u := h.rng.Float64()
	acc := 0.0
	for i, w := range stabilityWeights {
		acc += w
		if u < acc {
			return stabilityStates[i]
		}
	}
	return stabilityStates[len(stabilityStates)-1]
}

func roundAll(xs []float64, places int) []float64 {
	scale := math.Pow(10, float64(places))
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = math.Round(x*scale) / scale
	}
	return out
}
