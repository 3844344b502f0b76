package routing

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/MiguelAlmeida05/Ruta-Op/sim/roadgraph"
)

const (
	// EarthRadiusM is the mean Earth radius used by Haversine.
	EarthRadiusM = 6371000.0

	// DefaultMaxSpeedMPS is the speed the A* heuristic assumes no edge can beat
	// (~126 km/h). Raising edge speeds above it makes the heuristic inadmissible.
	DefaultMaxSpeedMPS = 35.0
)

// Haversine returns the great-circle distance in meters.
func Haversine(a, b roadgraph.LatLon) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	deltaPhi := (b.Lat - a.Lat) * math.Pi / 180
	deltaLambda := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusM * c
}

// geoHeuristic estimates remaining travel time as distance / maxSpeed.
//
//   - either node absent from the graph: +Inf (sorts last)
//   - either node without coordinates: 0, warned once per heuristic instance
type geoHeuristic struct {
	g        *roadgraph.Graph
	target   roadgraph.NodeID
	maxSpeed float64
	warned   bool
}

func newGeoHeuristic(g *roadgraph.Graph, target roadgraph.NodeID, maxSpeed float64) *geoHeuristic {
	if maxSpeed <= 0 || math.IsNaN(maxSpeed) || math.IsInf(maxSpeed, 0) {
		maxSpeed = DefaultMaxSpeedMPS
	}
	return &geoHeuristic{g: g, target: target, maxSpeed: maxSpeed}
}

func (h *geoHeuristic) estimate(from roadgraph.NodeID) float64 {
	u, okU := h.g.Node(from)
	v, okV := h.g.Node(h.target)
	if !okU || !okV {
		return math.Inf(1)
	}
	cu, hasU := u.Coord()
	cv, hasV := v.Coord()
	if !hasU || !hasV {
		if !h.warned {
			logrus.Warnf("routing: missing coordinates for node %d or %d; A* heuristic falls back to 0", from, h.target)
			h.warned = true
		}
		return 0
	}
	return Haversine(cu, cv) / h.maxSpeed
}
