package sim

// Weather is the synthetic weather signal handed to an ETA predictor.
type Weather struct {
	RainMM float64 `json:"rain_mm" yaml:"rain_mm"`
}

// Traffic is the synthetic congestion signal handed to an ETA predictor.
// Level is in [0, 1].
type Traffic struct {
	Level float64 `json:"level" yaml:"level"`
}

// ContextFor maps a traffic state onto the weather/traffic context a predictor expects.
func ContextFor(state TrafficState) (Weather, Traffic) {
	switch state {
	case StateRain:
		return Weather{RainMM: 20}, Traffic{}
	case StateTraffic:
		return Weather{}, Traffic{Level: 0.8}
	case StateStrike:
		return Weather{}, Traffic{Level: 1.0}
	default:
		return Weather{}, Traffic{}
	}
}

// ETAPredictor estimates a trip duration in minutes. ok=false means the model is
// unavailable and the caller must use its own fallback. Implementations must be
// safe for concurrent use and must never panic on bad input.
type ETAPredictor interface {
	PredictETA(baseDurationMin, distanceKm float64, weather Weather, traffic Traffic) (minutes float64, ok bool)
	Available() bool
	Reload() error
}

// ImpactPrediction is the multi-output estimate of an impact model.
type ImpactPrediction struct {
	DurationMin         float64 `json:"duration_min"`
	EmissionsKgCO2      float64 `json:"emissions_kg_co2"`
	Efficiency          float64 `json:"efficiency_score"`
	Freshness           float64 `json:"freshness_score"`
	Punctuality         float64 `json:"punctuality_score"`
	Satisfaction        float64 `json:"satisfaction_score"`
	WastePercent        float64 `json:"waste_percent"`
	EnergySavingPercent float64 `json:"energy_saving_percent"`
}

// ImpactPredictor estimates every KPI target for a trip at once. baseDurationMin may be
// nil, in which case the model derives one from distance. Same fail-open contract as ETAPredictor.
type ImpactPredictor interface {
	PredictImpact(distanceKm float64, scenario TrafficState, baseDurationMin *float64) (ImpactPrediction, bool)
	Available() bool
	Reload() error
}
