package sim

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseTrafficState(t *testing.T) {
	tests := []struct {
		in   string
		want TrafficState
	}{
		{"Normal", StateNormal},
		{"rain", StateRain},
		{" TRAFFIC ", StateTraffic},
		{"Strike", StateStrike},
		{"Lluvia", StateRain},
		{"Tráfico", StateTraffic},
		{"trafico", StateTraffic},
		{"Huelga", StateStrike},
	}
	for _, tt := range tests {
		got, err := ParseTrafficState(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseTrafficState("Snow")
	assert.Error(t, err)
}

func TestTrafficState_TextRoundTrip(t *testing.T) {
	// states serialize by name in both JSON and YAML
	data, err := json.Marshal(map[string]TrafficState{"s": StateRain})
	require.NoError(t, err)
	assert.JSONEq(t, `{"s":"Rain"}`, string(data))

	var out struct {
		S TrafficState `yaml:"s"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("s: Huelga\n"), &out))
	assert.Equal(t, StateStrike, out.S)

	_, err = TrafficState(9).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "TrafficState(9)", TrafficState(9).String())
}

func TestTrafficState_Factors(t *testing.T) {
	assert.Equal(t, ScenarioFactors{Time: 1, Risk: 1, Consumption: 1}, StateNormal.Factors())
	assert.Equal(t, 2.5, StateStrike.Factors().Time)
	assert.Equal(t, StateNormal.Factors(), TrafficState(-1).Factors())
	for _, s := range AllTrafficStates {
		f := s.Factors()
		assert.GreaterOrEqual(t, f.Time, 1.0, s.String())
		assert.GreaterOrEqual(t, f.Risk, 1.0, s.String())
	}
}

func TestContextFor(t *testing.T) {
	w, tr := ContextFor(StateRain)
	assert.Equal(t, 20.0, w.RainMM)
	assert.Equal(t, 0.0, tr.Level)

	_, tr = ContextFor(StateStrike)
	assert.Equal(t, 1.0, tr.Level)

	w, tr = ContextFor(StateNormal)
	assert.Zero(t, w)
	assert.Zero(t, tr)
}
