package factors

import (
	"math"
	"math/rand"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiguelAlmeida05/Ruta-Op/sim"
)

func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.ErrorLevel)
	}
	os.Exit(m.Run())
}

func TestCalibrate_ShortBand(t *testing.T) {
	got := Calibrate(1, 1)
	assert.InDelta(t, 5.6*RealityFactor, got, 1e-9)
	assert.GreaterOrEqual(t, got, 4*RealityFactor)
	assert.LessOrEqual(t, got, 8*RealityFactor)
}

func TestCalibrate_Bands(t *testing.T) {
	tests := []struct {
		km   float64
		want float64
	}{
		{0, 4},
		{2.5, 12},
		{5.75, 18.5},
		{9, 26},
		{15, 45},
		{21, 64}, // linear extrapolation, no cap
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want*RealityFactor, Calibrate(tt.km, 0), 1e-9, "km=%v", tt.km)
	}
}

func TestCalibrate_RawDurationWinsWhenLonger(t *testing.T) {
	assert.InDelta(t, 30*RealityFactor, Calibrate(1, 30), 1e-9)
}

func TestCalibrate_InvalidInputsClamp(t *testing.T) {
	for _, bad := range []float64{-3, math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.InDelta(t, 4*RealityFactor, Calibrate(bad, bad), 1e-9, "input %v", bad)
	}
}

func TestSimulate_NonPositiveIterationsUseDefault(t *testing.T) {
	s := NewSimulator(nil)
	for _, n := range []int{0, -5} {
		res := s.Simulate(rand.New(rand.NewSource(1)), sim.StateNormal, 10, 3, n)
		assert.Equal(t, DefaultIterations, res.Iterations)
		assert.Greater(t, res.Duration, 0.0)
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	s := NewSimulator(nil)
	a := s.Simulate(rand.New(rand.NewSource(9)), sim.StateRain, 12, 5, 50)
	b := s.Simulate(rand.New(rand.NewSource(9)), sim.StateRain, 12, 5, 50)
	assert.Equal(t, a, b)
}

func TestSimulate_FactorsWithinTriangleSupport(t *testing.T) {
	s := NewSimulator(nil)
	params := DefaultStateParams()
	for _, st := range sim.AllTrafficStates {
		t.Run(st.String(), func(t *testing.T) {
			res := s.Simulate(rand.New(rand.NewSource(4)), st, 10, 4, 200)
			p := params[st]
			assert.Equal(t, SourceHeuristic, res.Source)
			assert.GreaterOrEqual(t, res.Duration, res.CalibratedBase*p.Duration.Min)
			assert.LessOrEqual(t, res.Duration, res.CalibratedBase*p.Duration.Max)
			assert.GreaterOrEqual(t, res.DegradationRate, p.Degradation.Min)
			assert.LessOrEqual(t, res.DegradationRate, p.Degradation.Max)
			assert.GreaterOrEqual(t, res.FuelFactor, p.Fuel.Min)
			assert.LessOrEqual(t, res.FuelFactor, p.Fuel.Max)
			assert.GreaterOrEqual(t, res.InitialFreshness, 95.0)
			assert.LessOrEqual(t, res.InitialFreshness, 100.0)
		})
	}
}

func TestSimulate_StrikeSlowerThanNormal(t *testing.T) {
	s := NewSimulator(nil)
	normal := s.Simulate(rand.New(rand.NewSource(2)), sim.StateNormal, 15, 6, 300)
	strike := s.Simulate(rand.New(rand.NewSource(2)), sim.StateStrike, 15, 6, 300)
	assert.Greater(t, strike.Duration, normal.Duration)
	assert.Greater(t, strike.DegradationRate, normal.DegradationRate)
}

// stubETA answers a fixed duration and records the context it was given.
type stubETA struct {
	minutes   float64
	available bool
	weather   sim.Weather
	traffic   sim.Traffic
	calls     int
}

func (s *stubETA) PredictETA(base, km float64, w sim.Weather, tr sim.Traffic) (float64, bool) {
	s.calls++
	s.weather, s.traffic = w, tr
	return s.minutes, s.available
}
func (s *stubETA) Available() bool { return s.available }
func (s *stubETA) Reload() error   { return nil }

func TestSimulate_UsesPredictorWhenAvailable(t *testing.T) {
	// GIVEN a predictor that always answers 20 minutes
	eta := &stubETA{minutes: 20, available: true}
	s := NewSimulator(eta)

	// WHEN simulating rain
	res := s.Simulate(rand.New(rand.NewSource(5)), sim.StateRain, 10, 4, 400)

	// THEN durations are the prediction with small noise and rain context is passed
	assert.Equal(t, SourceModel, res.Source)
	assert.InDelta(t, 20.0, res.Duration, 0.2)
	assert.Equal(t, 400, eta.calls)
	assert.Equal(t, 20.0, eta.weather.RainMM)
	assert.Equal(t, 0.0, eta.traffic.Level)
}

func TestSimulate_UnavailablePredictorFallsBack(t *testing.T) {
	eta := &stubETA{minutes: 999, available: false}
	s := NewSimulator(eta)
	res := s.Simulate(rand.New(rand.NewSource(5)), sim.StateNormal, 10, 4, 50)

	assert.Equal(t, SourceHeuristic, res.Source)
	assert.Equal(t, 0, eta.calls)
	assert.Less(t, res.Duration, 100.0)
}

func TestSimulate_ZeroValueSimulator(t *testing.T) {
	var s Simulator
	res := s.Simulate(rand.New(rand.NewSource(1)), sim.StateTraffic, 10, 4, 10)
	require.Equal(t, 10, res.Iterations)
	assert.Greater(t, res.FuelFactor, 1.2)
}

// fixedSampler always returns v.
type fixedSampler float64

func (f fixedSampler) Sample(*rand.Rand) float64 { return float64(f) }

func TestSimulate_InitialFreshnessSamplerIsPluggable(t *testing.T) {
	// GIVEN the freshness distribution swapped for a constant
	orig := InitialFreshness
	InitialFreshness = fixedSampler(97.5)
	t.Cleanup(func() { InitialFreshness = orig })

	// WHEN simulating
	res := NewSimulator(nil).Simulate(rand.New(rand.NewSource(3)), sim.StateRain, 12, 4, 50)

	// THEN every iteration used the constant
	assert.InDelta(t, 97.5, res.InitialFreshness, 1e-9)
}
