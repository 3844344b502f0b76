// Package markov models the macro traffic regime as a discrete-time Markov chain over
// sim.TrafficState. Each Chain owns its RNG, so chains for different sessions never
// share a random stream.
package markov

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/MiguelAlmeida05/Ruta-Op/sim"
)

// Matrix is a row-stochastic transition matrix indexed [from][to] in sim.AllTrafficStates order.
type Matrix [sim.NumTrafficStates][sim.NumTrafficStates]float64

// DefaultTolerance is the allowed deviation of a row sum from 1.
const DefaultTolerance = 1e-5

// DefaultMatrix returns the diagonally dominant default transitions. Strike has no
// organic inbound probability; it is entered only through Force.
func DefaultMatrix() Matrix {
	return Matrix{
		sim.StateNormal:  {0.85, 0.10, 0.05, 0},
		sim.StateTraffic: {0.20, 0.70, 0.10, 0},
		sim.StateRain:    {0.20, 0.30, 0.50, 0},
		sim.StateStrike:  {0.05, 0.05, 0, 0.90},
	}
}

// ValidateMatrix checks that every entry is a finite non-negative probability and
// that every row sums to 1 within tol.
func ValidateMatrix(m Matrix, tol float64) error {
	for i, row := range m {
		sum := 0.0
		for j, p := range row {
			if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
				return fmt.Errorf("transition %s->%s: invalid probability %v",
					sim.TrafficState(i), sim.TrafficState(j), p)
			}
			sum += p
		}
		if math.Abs(sum-1) > tol {
			return fmt.Errorf("row %s sums to %.6f, want 1±%g", sim.TrafficState(i), sum, tol)
		}
	}
	return nil
}

// Chain is one traffic state machine. Not safe for concurrent use: each chain has a
// single writer.
type Chain struct {
	state  sim.TrafficState
	matrix Matrix
	rng    *rand.Rand
}

// NewChain returns a chain in StateNormal using DefaultMatrix.
func NewChain(rng *rand.Rand) *Chain {
	c, _ := NewChainWithMatrix(rng, DefaultMatrix())
	return c
}

// NewChainWithMatrix returns a chain in StateNormal using m. An invalid matrix is
// rejected and the chain falls back to DefaultMatrix.
func NewChainWithMatrix(rng *rand.Rand, m Matrix) (*Chain, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(0))
	}
	c := &Chain{state: sim.StateNormal, matrix: DefaultMatrix(), rng: rng}
	if err := ValidateMatrix(m, DefaultTolerance); err != nil {
		return c, err
	}
	c.matrix = m
	return c, nil
}

// State returns the current state.
func (c *Chain) State() sim.TrafficState { return c.state }

// Matrix returns a copy of the transition matrix.
func (c *Chain) Matrix() Matrix { return c.matrix }

// Advance samples the next state from the current row and moves to it.
func (c *Chain) Advance() sim.TrafficState {
	row := c.matrix[c.state]
	u := c.rng.Float64()
	acc := 0.0
	next := c.state
	for j, p := range row {
		if p <= 0 {
			continue
		}
		acc += p
		next = sim.TrafficState(j)
		if u < acc {
			break
		}
	}
	c.state = next
	return next
}

// Force sets the state directly. Invalid states are ignored with a warning.
func (c *Chain) Force(s sim.TrafficState) {
	if !s.Valid() {
		logrus.Warnf("markov: ignoring forced invalid state %d", int(s))
		return
	}
	c.state = s
}

// Snapshot is the persisted form of a chain.
type Snapshot struct {
	CurrentState string `json:"current_state" yaml:"current_state"`
}

// Snapshot captures the current state.
func (c *Chain) Snapshot() Snapshot {
	return Snapshot{CurrentState: c.state.String()}
}

// Restore applies snap. Unknown state names are logged and the current state is kept.
func (c *Chain) Restore(snap Snapshot) {
	if snap.CurrentState == "" {
		return
	}
	s, err := sim.ParseTrafficState(snap.CurrentState)
	if err != nil {
		logrus.Warnf("markov: invalid state %q, keeping %s", snap.CurrentState, c.state)
		return
	}
	c.state = s
}
