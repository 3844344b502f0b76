// Package factors runs the Monte Carlo simulation of trip-level factors (duration,
// freshness degradation, fuel) under a traffic state.
package factors

import (
	"math"

	"github.com/sirupsen/logrus"
)

// RealityFactor scales every calibrated base time to match observed trips.
const RealityFactor = 1.0705

// Band is one piecewise-linear segment of the calibration curve: distances in
// [FromKm, ToKm) map linearly from FromMin to FromMin + (d-FromKm)*SlopeMinPerKm.
type Band struct {
	FromKm        float64
	ToKm          float64
	FromMin       float64
	SlopeMinPerKm float64
}

// CalibrationBands is the distance -> realistic minutes curve. The last band is open ended.
var CalibrationBands = []Band{
	{FromKm: 0, ToKm: 2.5, FromMin: 4, SlopeMinPerKm: 4.0 / 2.5},
	{FromKm: 2.5, ToKm: 9, FromMin: 12, SlopeMinPerKm: (25.0 - 12.0) / (9.0 - 2.5)},
	{FromKm: 9, ToKm: math.Inf(1), FromMin: 26, SlopeMinPerKm: (45.0 - 26.0) / (15.0 - 9.0)},
}

// BandMinutes returns the calibration curve value at distanceKm (no reality factor).
func BandMinutes(distanceKm float64) float64 {
	for _, b := range CalibrationBands {
		if distanceKm < b.ToKm {
			return b.FromMin + (distanceKm-b.FromKm)*b.SlopeMinPerKm
		}
	}
	last := CalibrationBands[len(CalibrationBands)-1]
	return last.FromMin + (distanceKm-last.FromKm)*last.SlopeMinPerKm
}

// Calibrate lifts a raw routing duration to at least the band value for its distance and
// applies RealityFactor. Negative, NaN and infinite inputs are clamped to 0 with a warning.
func Calibrate(distanceKm, rawMin float64) float64 {
	distanceKm = sanitize("distance", distanceKm)
	rawMin = sanitize("raw duration", rawMin)
	return math.Max(rawMin, BandMinutes(distanceKm)) * RealityFactor
}

func sanitize(what string, v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		logrus.Warnf("factors: invalid %s %v, clamping to 0", what, v)
		return 0
	}
	return v
}
