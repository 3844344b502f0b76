// Package kpi turns simulated trip factors into bounded business scores.
package kpi

import (
	"math"
	"math/rand"

	"github.com/MiguelAlmeida05/Ruta-Op/sim"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/factors"
)

// Closed-form constants.
const (
	EmissionsKgPerKm           = 0.11
	BaselineLitresPerKm        = 0.12
	CurrentLitresPerKm         = 0.08
	FuelEfficiencyCeiling      = 1.5
	PunctualityPenaltyPerPoint = 0.05
	FreshnessPenaltyPerPoint   = 0.03
	SatisfactionThreshold      = 90.0
	LatenessSigmaFraction      = 0.085
	LatenessSigmaFloorMin      = 0.5
)

// SatisfactionBaseline is the customer rating before penalties.
var SatisfactionBaseline sim.Sampler = sim.Triangular{Min: 4.2, Mode: 4.7, Max: 5.0}

// DeadlineMinutes is the promised delivery time for a trip of distanceKm.
func DeadlineMinutes(distanceKm float64) float64 {
	switch {
	case distanceKm <= 3:
		return 7
	case distanceKm <= 9:
		return 15
	case distanceKm <= 15:
		return 26
	case distanceKm <= 29:
		return 38
	default:
		return 38 + (distanceKm-29)*0.8
	}
}

// BaseMetrics are the routing-derived inputs of a trip.
type BaseMetrics struct {
	DurationMin float64 `json:"duration_min" yaml:"duration_min"`
	DistanceKm  float64 `json:"distance_km" yaml:"distance_km"`
}

// Source tags which path produced a Bundle.
type Source string

const (
	SourceClosedForm Source = "closed_form"
	SourceModel      Source = "model"
)

// Bundle is the full KPI output for one trip. Scores are rounded to 0.1.
type Bundle struct {
	Punctuality          float64          `json:"punctuality_score" yaml:"punctuality_score"`
	Freshness            float64          `json:"freshness_score" yaml:"freshness_score"`
	Satisfaction         float64          `json:"satisfaction_score" yaml:"satisfaction_score"`
	Efficiency           float64          `json:"efficiency_score" yaml:"efficiency_score"`
	EmissionsKgCO2       float64          `json:"emissions_kg_co2" yaml:"emissions_kg_co2"`
	WastePercent         float64          `json:"waste_percent" yaml:"waste_percent"`
	EnergySavingPercent  float64          `json:"energy_saving_percent" yaml:"energy_saving_percent"`
	SimulatedDurationMin float64          `json:"simulated_duration_min" yaml:"simulated_duration_min"`
	State                sim.TrafficState `json:"state" yaml:"state"`
	Source               Source           `json:"source" yaml:"source"`
}

// Aggregator computes KPI bundles. Impact may be nil. Safe for concurrent use as long as
// each goroutine passes its own rng.
type Aggregator struct {
	Impact sim.ImpactPredictor
}

// NewAggregator returns an aggregator that prefers impact (may be nil) over the closed form.
func NewAggregator(impact sim.ImpactPredictor) *Aggregator {
	return &Aggregator{Impact: impact}
}

// Aggregate scores one simulated trip. The model path is chosen once per call: it is
// used only when the impact predictor is available and answers.
func (a *Aggregator) Aggregate(rng *rand.Rand, f factors.Result, base BaseMetrics) Bundle {
	simDur := sanitized(f.Duration)
	km := sanitized(base.DistanceKm)
	baseDur := sanitized(base.DurationMin)
	deadline := math.Max(DeadlineMinutes(km), baseDur)

	if a != nil && a.Impact != nil && a.Impact.Available() {
		if pred, ok := a.Impact.PredictImpact(km, f.State, &baseDur); ok {
			return modelBundle(pred, f, simDur, deadline)
		}
	}
	return closedFormBundle(rng, f, simDur, km, deadline)
}

func closedFormBundle(rng *rand.Rand, f factors.Result, simDur, km, deadline float64) Bundle {
	punctuality := sim.Round1(100 * Reliability(simDur, deadline))
	freshness := sim.Round1(sim.Clamp(f.InitialFreshness-f.DegradationRate*simDur, 0, 100))

	penalties := 0.0
	if punctuality < SatisfactionThreshold {
		penalties += (SatisfactionThreshold - punctuality) * PunctualityPenaltyPerPoint
	}
	if freshness < SatisfactionThreshold {
		penalties += (SatisfactionThreshold - freshness) * FreshnessPenaltyPerPoint
	}
	satisfaction := sim.Clamp(SatisfactionBaseline.Sample(rng)-penalties, 1, 5)

	fuel := f.FuelFactor
	return Bundle{
		Punctuality:          punctuality,
		Freshness:            freshness,
		Satisfaction:         sim.Round1(satisfaction),
		Efficiency:           sim.Round1(sim.Clamp((FuelEfficiencyCeiling-fuel)/FuelEfficiencyCeiling*100, 0, 100)),
		EmissionsKgCO2:       sim.Round2(km * EmissionsKgPerKm * fuel),
		WastePercent:         sim.Round1(sim.Clamp(100-freshness, 0, 100)),
		EnergySavingPercent:  sim.Round1(sim.Clamp(100*(1-CurrentLitresPerKm*fuel/BaselineLitresPerKm), 0, 100)),
		SimulatedDurationMin: sim.Round2(simDur),
		State:                f.State,
		Source:               SourceClosedForm,
	}
}

func modelBundle(p sim.ImpactPrediction, f factors.Result, simDur, deadline float64) Bundle {
	sigma := math.Max(LatenessSigmaFraction*simDur, LatenessSigmaFloorMin)
	onTime := 100 * sim.NormalCDF(deadline-simDur, 0, sigma)
	punctuality := sim.Clamp(0.5*sim.Clamp(p.Punctuality, 0, 100)+0.5*onTime, 0, 100)

	return Bundle{
		Punctuality:          sim.Round1(punctuality),
		Freshness:            sim.Round1(sim.Clamp(p.Freshness, 0, 100)),
		Satisfaction:         sim.Round1(sim.Clamp(p.Satisfaction, 1, 5)),
		Efficiency:           sim.Round1(sim.Clamp(p.Efficiency, 0, 100)),
		EmissionsKgCO2:       sim.Round2(math.Max(0, p.EmissionsKgCO2)),
		WastePercent:         sim.Round1(sim.Clamp(p.WastePercent, 0, 100)),
		EnergySavingPercent:  sim.Round1(sim.Clamp(p.EnergySavingPercent, 0, 100)),
		SimulatedDurationMin: sim.Round2(simDur),
		State:                f.State,
		Source:               SourceModel,
	}
}

// Reliability is 1 when on time and drops linearly with lateness relative to the deadline.
func Reliability(simDur, deadline float64) float64 {
	if deadline <= 0 {
		return 1
	}
	late := math.Max(0, simDur-deadline)
	return math.Max(0, 1-late/deadline)
}

func sanitized(x float64) float64 {
	v, _ := sim.SanitizeNonNegative(x)
	return v
}
