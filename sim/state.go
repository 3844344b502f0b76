package sim

import (
	"fmt"
	"strings"
)

// TrafficState is the macro traffic regime a simulation tick runs under.
type TrafficState int

const (
	StateNormal TrafficState = iota
	StateTraffic
	StateRain
	StateStrike
)

// NumTrafficStates is the size of the state space (and of the transition matrix).
const NumTrafficStates = 4

// AllTrafficStates lists every state in matrix order.
var AllTrafficStates = [NumTrafficStates]TrafficState{StateNormal, StateTraffic, StateRain, StateStrike}

var stateNames = [NumTrafficStates]string{"Normal", "Traffic", "Rain", "Strike"}

// legacyStateNames maps the names persisted by earlier deployments onto states.
var legacyStateNames = map[string]TrafficState{
	"tráfico": StateTraffic,
	"trafico": StateTraffic,
	"lluvia":  StateRain,
	"huelga":  StateStrike,
}

func (s TrafficState) String() string {
	if !s.Valid() {
		return fmt.Sprintf("TrafficState(%d)", int(s))
	}
	return stateNames[s]
}

// Valid reports whether s is one of the four known states.
func (s TrafficState) Valid() bool {
	return s >= StateNormal && s <= StateStrike
}

// ParseTrafficState resolves a state name (case-insensitive). Legacy names are accepted.
func ParseTrafficState(name string) (TrafficState, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for i, n := range stateNames {
		if strings.ToLower(n) == key {
			return TrafficState(i), nil
		}
	}
	if s, ok := legacyStateNames[key]; ok {
		return s, nil
	}
	return StateNormal, fmt.Errorf("unknown traffic state %q", name)
}

// MarshalText implements encoding.TextMarshaler so states serialize by name.
func (s TrafficState) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid traffic state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *TrafficState) UnmarshalText(text []byte) error {
	parsed, err := ParseTrafficState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ScenarioFactors are the time (Ft), risk (Fr) and consumption (Fc) multipliers
// that describe a state to the impact model.
type ScenarioFactors struct {
	Time        float64
	Risk        float64
	Consumption float64
}

var scenarioFactors = [NumTrafficStates]ScenarioFactors{
	StateNormal:  {Time: 1.0, Risk: 1.0, Consumption: 1.0},
	StateTraffic: {Time: 1.8, Risk: 1.2, Consumption: 1.4},
	StateRain:    {Time: 1.3, Risk: 1.5, Consumption: 1.1},
	StateStrike:  {Time: 2.5, Risk: 3.0, Consumption: 1.2},
}

// Factors returns the scenario multipliers for s; unknown states map to Normal.
func (s TrafficState) Factors() ScenarioFactors {
	if !s.Valid() {
		return scenarioFactors[StateNormal]
	}
	return scenarioFactors[s]
}
