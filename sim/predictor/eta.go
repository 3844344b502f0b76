package predictor

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/MiguelAlmeida05/Ruta-Op/sim"
)

// ETAModelVersion is the version tag LinearETA accepts.
const ETAModelVersion = "eta_linear_v1"

// ETA feature names.
const (
	FeatureBaseDuration = "base_duration_min"
	FeatureDistance     = "distance_km"
	FeatureRain         = "rain_mm"
	FeatureTraffic      = "traffic_level"
)

// ETAFeatures lists the inputs an ETA coefficient file may reference.
var ETAFeatures = []string{FeatureBaseDuration, FeatureDistance, FeatureRain, FeatureTraffic}

// ETAFile is the on-disk form of an ETA model.
type ETAFile struct {
	Version     string `yaml:"version"`
	LinearModel `yaml:",inline"`
}

// LinearETA predicts trip minutes from a linear model. Safe for concurrent use.
type LinearETA struct {
	path string

	mu    sync.RWMutex
	model *LinearModel
}

var _ sim.ETAPredictor = (*LinearETA)(nil)

// NewLinearETA loads the model at path. Load failures are logged and leave the
// predictor unavailable.
func NewLinearETA(path string) *LinearETA {
	p := &LinearETA{path: path}
	if err := p.Reload(); err != nil {
		logrus.Errorf("predictor: ETA model unavailable: %v", err)
	}
	return p
}

// Reload re-reads the coefficient file. A missing file is not an error; the predictor
// simply becomes unavailable.
func (p *LinearETA) Reload() error {
	var f ETAFile
	found, err := readStrictYAML(p.path, &f)
	if err == nil && found {
		err = checkETAFile(f)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.model = nil
	if err != nil {
		return err
	}
	if !found {
		logrus.Warnf("predictor: no ETA model at %s, using fallback", p.path)
		return nil
	}
	m := f.LinearModel
	p.model = &m
	logrus.Infof("predictor: ETA model %s loaded from %s", f.Version, p.path)
	return nil
}

func checkETAFile(f ETAFile) error {
	if f.Version != ETAModelVersion {
		return fmt.Errorf("%w: got %q, want %q", ErrVersionMismatch, f.Version, ETAModelVersion)
	}
	return f.validate(ETAFeatures)
}

// Available reports whether a model is loaded.
func (p *LinearETA) Available() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model != nil
}

// PredictETA returns the predicted minutes, floored at half the base duration.
func (p *LinearETA) PredictETA(baseDurationMin, distanceKm float64, weather sim.Weather, traffic sim.Traffic) (float64, bool) {
	p.mu.RLock()
	m := p.model
	p.mu.RUnlock()
	if m == nil || !finite(baseDurationMin, distanceKm, weather.RainMM, traffic.Level) {
		return 0, false
	}

	y := m.Eval(map[string]float64{
		FeatureBaseDuration: baseDurationMin,
		FeatureDistance:     distanceKm,
		FeatureRain:         weather.RainMM,
		FeatureTraffic:      traffic.Level,
	})
	if !finite(y) {
		return 0, false
	}
	if floor := 0.5 * baseDurationMin; y < floor {
		y = floor
	}
	return y, true
}
