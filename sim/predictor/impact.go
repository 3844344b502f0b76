package predictor

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/MiguelAlmeida05/Ruta-Op/sim"
)

// ImpactModelVersion is the version tag LinearImpact accepts.
const ImpactModelVersion = "impact_linear_v1"

// Impact feature names (FeatureDistance and FeatureBaseDuration are shared with ETA).
const (
	FeatureScenarioCode      = "scenario_code"
	FeatureRiskFactor        = "risk_factor"
	FeatureConsumptionFactor = "consumption_factor"
)

// ImpactFeatures lists the inputs an impact coefficient file may reference.
var ImpactFeatures = []string{FeatureDistance, FeatureScenarioCode, FeatureBaseDuration, FeatureRiskFactor, FeatureConsumptionFactor}

// Impact target names; a coefficient file must define all of them.
const (
	TargetDuration     = "duration_min"
	TargetEmissions    = "emissions_kg_co2"
	TargetEfficiency   = "efficiency_score"
	TargetFreshness    = "freshness_score"
	TargetPunctuality  = "punctuality_score"
	TargetSatisfaction = "satisfaction_score"
	TargetWaste        = "waste_percent"
	TargetEnergySaving = "energy_saving_percent"
)

// ImpactTargets lists every target in output order.
var ImpactTargets = []string{
	TargetDuration, TargetEmissions, TargetEfficiency, TargetFreshness,
	TargetPunctuality, TargetSatisfaction, TargetWaste, TargetEnergySaving,
}

// IdealSpeedKmh derives a base duration when the caller has none.
const IdealSpeedKmh = 35.0

// ImpactFile is the on-disk form of an impact model: one linear model per target.
type ImpactFile struct {
	Version string                 `yaml:"version"`
	Targets map[string]LinearModel `yaml:"targets"`
}

// scenarioCode is the categorical encoding the impact model was fit with.
func scenarioCode(s sim.TrafficState) float64 {
	switch s {
	case sim.StateRain:
		return 1
	case sim.StateTraffic:
		return 2
	case sim.StateStrike:
		return 3
	default:
		return 0
	}
}

// LinearImpact predicts every KPI target from linear models. Safe for concurrent use.
type LinearImpact struct {
	path string

	mu      sync.RWMutex
	targets map[string]LinearModel
}

var _ sim.ImpactPredictor = (*LinearImpact)(nil)

// NewLinearImpact loads the model at path. Load failures are logged and leave the
// predictor unavailable.
func NewLinearImpact(path string) *LinearImpact {
	p := &LinearImpact{path: path}
	if err := p.Reload(); err != nil {
		logrus.Errorf("predictor: impact model unavailable: %v", err)
	}
	return p
}

// Reload re-reads the coefficient file.
func (p *LinearImpact) Reload() error {
	var f ImpactFile
	found, err := readStrictYAML(p.path, &f)
	if err == nil && found {
		err = checkImpactFile(f)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.targets = nil
	if err != nil {
		return err
	}
	if !found {
		logrus.Warnf("predictor: no impact model at %s, using closed-form KPIs", p.path)
		return nil
	}
	p.targets = f.Targets
	logrus.Infof("predictor: impact model %s loaded from %s", f.Version, p.path)
	return nil
}

func checkImpactFile(f ImpactFile) error {
	if f.Version != ImpactModelVersion {
		return fmt.Errorf("%w: got %q, want %q", ErrVersionMismatch, f.Version, ImpactModelVersion)
	}
	for _, name := range ImpactTargets {
		m, ok := f.Targets[name]
		if !ok {
			return fmt.Errorf("impact model is missing target %q", name)
		}
		if err := m.validate(ImpactFeatures); err != nil {
			return fmt.Errorf("target %s: %w", name, err)
		}
	}
	for name := range f.Targets {
		if !contains(ImpactTargets, name) {
			return fmt.Errorf("unknown impact target %q", name)
		}
	}
	return nil
}

// Available reports whether a model is loaded.
func (p *LinearImpact) Available() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.targets != nil
}

// PredictImpact evaluates every target and clamps each to its valid range.
func (p *LinearImpact) PredictImpact(distanceKm float64, scenario sim.TrafficState, baseDurationMin *float64) (sim.ImpactPrediction, bool) {
	p.mu.RLock()
	targets := p.targets
	p.mu.RUnlock()
	if targets == nil || !finite(distanceKm) {
		return sim.ImpactPrediction{}, false
	}

	distanceKm = max(0, distanceKm)
	base := distanceKm / IdealSpeedKmh * 60
	if baseDurationMin != nil && finite(*baseDurationMin) {
		base = *baseDurationMin
	}
	f := scenario.Factors()
	x := map[string]float64{
		FeatureDistance:          distanceKm,
		FeatureScenarioCode:      scenarioCode(scenario),
		FeatureBaseDuration:      base,
		FeatureRiskFactor:        f.Risk,
		FeatureConsumptionFactor: f.Consumption,
	}

	y := make(map[string]float64, len(targets))
	for name, m := range targets {
		v := m.Eval(x)
		if !finite(v) {
			return sim.ImpactPrediction{}, false
		}
		y[name] = v
	}

	return sim.ImpactPrediction{
		DurationMin:         max(0, y[TargetDuration]),
		EmissionsKgCO2:      max(0, y[TargetEmissions]),
		Efficiency:          sim.Clamp(y[TargetEfficiency], 0, 100),
		Freshness:           sim.Clamp(y[TargetFreshness], 0, 100),
		Punctuality:         sim.Clamp(y[TargetPunctuality], 0, 100),
		Satisfaction:        sim.Clamp(y[TargetSatisfaction], 1, 5),
		WastePercent:        sim.Clamp(y[TargetWaste], 0, 100),
		EnergySavingPercent: sim.Clamp(y[TargetEnergySaving], 0, 100),
	}, true
}
