package sim

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws a single real-valued sample from the caller's RNG.
type Sampler interface {
	Sample(rng *rand.Rand) float64
}

// Triangular is a triangular distribution over [Min, Max] peaking at Mode.
// The zero value is not useful; build it with a literal or NewTriangular.
type Triangular struct {
	Min  float64 `yaml:"min" json:"min"`
	Mode float64 `yaml:"mode" json:"mode"`
	Max  float64 `yaml:"max" json:"max"`
}

// NewTriangular validates and returns a triangular distribution.
func NewTriangular(min, mode, max float64) (Triangular, error) {
	t := Triangular{Min: min, Mode: mode, Max: max}
	if err := t.Validate(); err != nil {
		return Triangular{}, err
	}
	return t, nil
}

// Validate checks Min < Max and Min <= Mode <= Max with finite bounds.
func (t Triangular) Validate() error {
	for _, v := range []float64{t.Min, t.Mode, t.Max} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("triangular parameters must be finite, got (%v, %v, %v)", t.Min, t.Mode, t.Max)
		}
	}
	if t.Min >= t.Max {
		return fmt.Errorf("triangular min %v must be below max %v", t.Min, t.Max)
	}
	if t.Mode < t.Min || t.Mode > t.Max {
		return fmt.Errorf("triangular mode %v outside [%v, %v]", t.Mode, t.Min, t.Max)
	}
	return nil
}

// Sample draws by inverse CDF so the stream is fully determined by rng.
// A degenerate or invalid triangle returns its mode (clamped into range) instead of panicking.
func (t Triangular) Sample(rng *rand.Rand) float64 {
	if t.Validate() != nil {
		if t.Min >= t.Max {
			return t.Min
		}
		return math.Min(t.Max, math.Max(t.Min, t.Mode))
	}
	dist := distuv.NewTriangle(t.Min, t.Max, t.Mode, nil)
	return dist.Quantile(rng.Float64())
}

// Mean returns (Min + Mode + Max) / 3.
func (t Triangular) Mean() float64 {
	return (t.Min + t.Mode + t.Max) / 3
}

// NormalCDF returns P(X <= x) for X ~ N(mu, sigma). sigma <= 0 degenerates to a step at mu.
func NormalCDF(x, mu, sigma float64) float64 {
	if sigma <= 0 {
		if x < mu {
			return 0
		}
		return 1
	}
	return distuv.Normal{Mu: mu, Sigma: sigma}.CDF(x)
}
