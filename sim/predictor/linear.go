// Package predictor provides reloadable linear-regression implementations of the
// sim.ETAPredictor and sim.ImpactPredictor capabilities. Coefficients are read from
// YAML files; a missing or rejected file leaves the predictor unavailable and callers
// fall back to their closed-form paths.
package predictor

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrVersionMismatch is returned when a coefficient file was produced for another model version.
var ErrVersionMismatch = errors.New("predictor: model version mismatch")

// LinearModel is y = Intercept + sum(Coefficients[f] * x[f]).
type LinearModel struct {
	Intercept    float64            `yaml:"intercept"`
	Coefficients map[string]float64 `yaml:"coefficients"`
}

// Eval applies the model to features. Features absent from the map count as 0.
func (m LinearModel) Eval(features map[string]float64) float64 {
	y := m.Intercept
	for name, c := range m.Coefficients {
		y += c * features[name]
	}
	return y
}

func (m LinearModel) validate(allowed []string) error {
	if math.IsNaN(m.Intercept) || math.IsInf(m.Intercept, 0) {
		return fmt.Errorf("intercept must be finite, got %v", m.Intercept)
	}
	names := make([]string, 0, len(m.Coefficients))
	for name := range m.Coefficients {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !contains(allowed, name) {
			return fmt.Errorf("unknown feature %q (valid: %v)", name, allowed)
		}
		if c := m.Coefficients[name]; math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("coefficient %q must be finite, got %v", name, c)
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// readStrictYAML decodes path into out, rejecting unknown fields. found is false when
// the file does not exist.
func readStrictYAML(path string, out any) (found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return true, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
