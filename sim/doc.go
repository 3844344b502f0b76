// Package sim holds the shared vocabulary of the routing and delivery simulator.
//
// # Reading Guide
//
// Start with these files:
//   - state.go: TrafficState and its per-state scenario factors
//   - rng.go: SimulationKey and PartitionedRNG, the only sources of randomness
//   - predictor.go: the optional ETA and impact model capabilities
//
// # Architecture
//
// The sim package defines types and capabilities; behavior lives in sub-packages:
//   - sim/roadgraph/: directed multigraph of intersections and road segments, JSON loader
//   - sim/routing/: event penalties, CSR index, Dijkstra and A*, PathFinder
//   - sim/markov/: four-state traffic Markov chain
//   - sim/session/: per-session chains keyed by id
//   - sim/predictor/: linear-regression ETA and impact models loaded from YAML
//   - sim/factors/: duration calibration and Monte Carlo factor simulation
//   - sim/kpi/: deadlines and KPI aggregation
//   - sim/planner/: one origin to many destinations, ranked
//   - sim/validate/: Dijkstra/A* agreement and simulation stability sweeps
//
// # Randomness
//
// Every stochastic operation takes an explicit *rand.Rand. Callers derive them from a
// PartitionedRNG so that one master seed reproduces an entire run.
package sim
