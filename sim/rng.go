package sim

import (
	"hash/fnv"
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two runs with the same SimulationKey and identical inputs MUST produce
// identical factors, KPIs and validation samples.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemFactors is the RNG subsystem for Monte Carlo factor sampling.
	// Uses master seed directly so a bare --seed reproduces the factor stream.
	SubsystemFactors = "factors"

	// SubsystemKPI is the RNG subsystem for the satisfaction baseline draw.
	SubsystemKPI = "kpi"

	// SubsystemValidator is the RNG subsystem for validation pair/scenario sampling.
	SubsystemValidator = "validator"

	// SubsystemPlanner is the RNG subsystem the planner splits into per-destination streams.
	SubsystemPlanner = "planner"
)

// SubsystemSession returns the subsystem name for the Markov chain of session id.
func SubsystemSession(id string) string {
	return "session_" + id
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemFactors: uses masterSeed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine, and the
// returned *rand.Rand must not be shared between goroutines.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(p.SeedFor(name)))
	p.subsystems[name] = rng
	return rng
}

// SeedFor returns the derived seed for a subsystem without caching an RNG.
// Useful when the stream must be created on another goroutine.
func (p *PartitionedRNG) SeedFor(name string) int64 {
	if name == SubsystemFactors {
		return int64(p.key)
	}
	return DeriveSeed(int64(p.key), name)
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// DeriveSeed mixes a master seed with a name: master XOR fnv1a64(name).
func DeriveSeed(master int64, name string) int64 {
	return master ^ fnv1a64(name)
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
