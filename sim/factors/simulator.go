package factors

import (
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/MiguelAlmeida05/Ruta-Op/sim"
)

// DefaultIterations is used when a caller passes a non-positive iteration count.
const DefaultIterations = 100

// PredictorNoiseSigma is the relative noise applied to each predictor-based duration.
const PredictorNoiseSigma = 0.03

// StateParams are the triangular multipliers sampled per iteration for one state.
type StateParams struct {
	Duration    sim.Triangular `yaml:"duration" json:"duration"`
	Degradation sim.Triangular `yaml:"degradation" json:"degradation"`
	Fuel        sim.Triangular `yaml:"fuel" json:"fuel"`
}

// DefaultStateParams returns the per-state parameter table.
func DefaultStateParams() [sim.NumTrafficStates]StateParams {
	return [sim.NumTrafficStates]StateParams{
		sim.StateNormal: {
			Duration:    sim.Triangular{Min: 0.95, Mode: 1.0, Max: 1.05},
			Degradation: sim.Triangular{Min: 0.01, Mode: 0.02, Max: 0.03},
			Fuel:        sim.Triangular{Min: 0.9, Mode: 1.0, Max: 1.1},
		},
		sim.StateTraffic: {
			Duration:    sim.Triangular{Min: 1.2, Mode: 1.4, Max: 1.8},
			Degradation: sim.Triangular{Min: 0.02, Mode: 0.03, Max: 0.05},
			Fuel:        sim.Triangular{Min: 1.3, Mode: 1.5, Max: 1.8},
		},
		sim.StateRain: {
			Duration:    sim.Triangular{Min: 1.1, Mode: 1.25, Max: 1.4},
			Degradation: sim.Triangular{Min: 0.03, Mode: 0.05, Max: 0.08},
			Fuel:        sim.Triangular{Min: 1.1, Mode: 1.2, Max: 1.3},
		},
		sim.StateStrike: {
			Duration:    sim.Triangular{Min: 1.5, Mode: 2.0, Max: 3.0},
			Degradation: sim.Triangular{Min: 0.05, Mode: 0.10, Max: 0.15},
			Fuel:        sim.Triangular{Min: 1.0, Mode: 1.2, Max: 1.5},
		},
	}
}

// InitialFreshness is the freshness (percent) goods leave the origin with.
var InitialFreshness sim.Sampler = sim.Triangular{Min: 95, Mode: 99, Max: 100}

// Source tags where the simulated duration came from.
type Source string

const (
	SourceHeuristic Source = "heuristic"
	SourceModel     Source = "model"
)

// Result holds the per-iteration means of one simulation.
type Result struct {
	Duration         float64          `json:"simulated_duration" yaml:"simulated_duration"`
	InitialFreshness float64          `json:"initial_freshness" yaml:"initial_freshness"`
	DegradationRate  float64          `json:"degradation_rate" yaml:"degradation_rate"`
	FuelFactor       float64          `json:"fuel_factor" yaml:"fuel_factor"`
	State            sim.TrafficState `json:"state" yaml:"state"`
	Iterations       int              `json:"iterations" yaml:"iterations"`
	CalibratedBase   float64          `json:"calibrated_base_min" yaml:"calibrated_base_min"`
	Source           Source           `json:"source" yaml:"source"`
}

// Simulator samples trip factors. The zero value is usable: no predictor, default table.
// Safe for concurrent use as long as each goroutine passes its own rng.
type Simulator struct {
	ETA    sim.ETAPredictor
	Params *[sim.NumTrafficStates]StateParams
}

// NewSimulator returns a simulator that consults eta (may be nil) before the heuristic.
func NewSimulator(eta sim.ETAPredictor) *Simulator {
	params := DefaultStateParams()
	return &Simulator{ETA: eta, Params: &params}
}

func (s *Simulator) params(state sim.TrafficState) StateParams {
	if !state.Valid() {
		logrus.Warnf("factors: unknown state %d, using Normal parameters", int(state))
		state = sim.StateNormal
	}
	if s.Params == nil {
		return DefaultStateParams()[state]
	}
	return s.Params[state]
}

// Simulate runs iterations draws and returns their arithmetic means.
//
// The duration of each draw is the ETA predictor's answer times N(1, 0.03) noise when the
// predictor is available; otherwise the state's triangular multiplier times the calibrated base.
func (s *Simulator) Simulate(rng *rand.Rand, state sim.TrafficState, baseMin, distanceKm float64, iterations int) Result {
	if iterations <= 0 {
		logrus.Warnf("factors: iterations must be positive, got %d; using %d", iterations, DefaultIterations)
		iterations = DefaultIterations
	}
	p := s.params(state)
	calibrated := Calibrate(distanceKm, baseMin)
	distanceKm, _ = sim.SanitizeNonNegative(distanceKm)

	useModel := s.ETA != nil && s.ETA.Available()
	weather, traffic := sim.ContextFor(state)

	var sumDur, sumFresh, sumDeg, sumFuel float64
	modelDraws := 0
	for i := 0; i < iterations; i++ {
		var dur float64
		predicted, ok := 0.0, false
		if useModel {
			predicted, ok = s.ETA.PredictETA(calibrated, distanceKm, weather, traffic)
		}
		if ok && predicted > 0 {
			dur = predicted * (1 + PredictorNoiseSigma*rng.NormFloat64())
			modelDraws++
		} else {
			dur = calibrated * p.Duration.Sample(rng)
		}
		sumDur += dur
		sumFresh += InitialFreshness.Sample(rng)
		sumDeg += p.Degradation.Sample(rng)
		sumFuel += p.Fuel.Sample(rng)
	}

	n := float64(iterations)
	res := Result{
		Duration:         sumDur / n,
		InitialFreshness: sumFresh / n,
		DegradationRate:  sumDeg / n,
		FuelFactor:       sumFuel / n,
		State:            state,
		Iterations:       iterations,
		CalibratedBase:   calibrated,
		Source:           SourceHeuristic,
	}
	if modelDraws == iterations {
		res.Source = SourceModel
	}
	return res
}
