package routing

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/MiguelAlmeida05/Ruta-Op/sim"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/roadgraph"
)

// Event is a named disruption that scales edge costs by road class.
type Event int

const (
	EventNone Event = iota
	EventRain
	EventTraffic
	EventProtest
)

// AllEvents lists every event, EventNone first.
var AllEvents = []Event{EventNone, EventRain, EventTraffic, EventProtest}

var eventNames = map[Event]string{
	EventNone:    "none",
	EventRain:    "rain",
	EventTraffic: "traffic",
	EventProtest: "protest",
}

func (e Event) String() string {
	if n, ok := eventNames[e]; ok {
		return n
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// ParseEvent resolves an event name; "" means EventNone.
func ParseEvent(name string) (Event, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return EventNone, nil
	}
	for e, n := range eventNames {
		if n == key {
			return e, nil
		}
	}
	return EventNone, fmt.Errorf("unknown event type %q (valid: none, rain, traffic, protest)", name)
}

// OSM highway classes the default penalty table refers to.
const (
	ClassResidential = "residential"
	ClassTertiary    = "tertiary"
	ClassSecondary   = "secondary"
	ClassPrimary     = "primary"
	ClassPrimaryLink = "primary_link"
	ClassTrunk       = "trunk"
	ClassService     = "service"
	ClassTrack       = "track"
	ClassPath        = "path"
)

// PenaltyTable maps event -> road class -> multiplier. Missing entries mean 1.0.
// It is the single authoritative source of event penalties; every backend and
// algorithm reads it through a CostModel.
type PenaltyTable map[Event]map[string]float64

// DefaultPenalties returns a fresh copy of the built-in table.
func DefaultPenalties() PenaltyTable {
	return PenaltyTable{
		EventRain: {
			ClassTrack: 2.5, ClassPath: 2.5, ClassService: 2.5, ClassResidential: 2.5, ClassTertiary: 2.5,
			ClassPrimary: 1.2, ClassSecondary: 1.2,
		},
		EventTraffic: {
			ClassPrimary: 8.0, ClassTrunk: 8.0, ClassPrimaryLink: 8.0,
			ClassSecondary: 3.0, ClassTertiary: 3.0,
		},
		EventProtest: {
			ClassTrunk: 10.0, ClassPrimary: 10.0,
		},
	}
}

// Penalty returns the multiplier for class under event.
func (t PenaltyTable) Penalty(event Event, class string) float64 {
	if p, ok := t[event][class]; ok {
		return p
	}
	return 1.0
}

// Clone deep-copies the table.
func (t PenaltyTable) Clone() PenaltyTable {
	out := make(PenaltyTable, len(t))
	for ev, row := range t {
		cp := make(map[string]float64, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out[ev] = cp
	}
	return out
}

// Override returns a copy of t with the given entries replaced. Keys are event names
// (as accepted by ParseEvent); values must be finite and positive.
func (t PenaltyTable) Override(overrides map[string]map[string]float64) (PenaltyTable, error) {
	out := t.Clone()
	events := make([]string, 0, len(overrides))
	for name := range overrides {
		events = append(events, name)
	}
	sort.Strings(events)
	for _, name := range events {
		ev, err := ParseEvent(name)
		if err != nil {
			return nil, err
		}
		if out[ev] == nil {
			out[ev] = make(map[string]float64)
		}
		for class, mult := range overrides[name] {
			if math.IsNaN(mult) || math.IsInf(mult, 0) || mult <= 0 {
				return nil, fmt.Errorf("penalty for %s/%s must be positive and finite, got %v", name, class, mult)
			}
			if mult < 1 {
				logrus.Warnf("penalty %s/%s=%.2f is below 1; A* may no longer match Dijkstra", name, class, mult)
			}
			out[ev][class] = mult
		}
	}
	return out, nil
}

// VehicleProfile scales every edge by SpeedPenalty and, for the classes in
// AvoidClasses, additionally by AvoidPenalty. Non-positive multipliers are treated as 1.
type VehicleProfile struct {
	SpeedPenalty float64  `yaml:"speed_penalty" json:"speed_penalty"`
	AvoidClasses []string `yaml:"avoid_highways" json:"avoid_highways"`
	AvoidPenalty float64  `yaml:"avoid_penalty" json:"avoid_penalty"`
}

// Penalty returns the profile multiplier for class. A nil profile is neutral.
func (p *VehicleProfile) Penalty(class string) float64 {
	if p == nil {
		return 1.0
	}
	mult := 1.0
	if p.SpeedPenalty > 0 {
		mult *= p.SpeedPenalty
	}
	if p.AvoidPenalty > 0 {
		for _, c := range p.AvoidClasses {
			if c == class {
				mult *= p.AvoidPenalty
				break
			}
		}
	}
	return mult
}

// CostModel turns an edge into its modified weight for one query:
//
//	clampNonNegative(base) * eventPenalty(class, event) * vehiclePenalty(class, profile)
type CostModel struct {
	WeightKey string
	Event     Event
	Vehicle   *VehicleProfile
	Penalties PenaltyTable
}

// Weight returns the modified weight of e. Never negative; never NaN. Invalid base values
// are clamped to 0; roadgraph.AddEdge warns about them.
func (m CostModel) Weight(e *roadgraph.Edge) float64 {
	base, _ := sim.SanitizeNonNegative(e.BaseWeight(m.WeightKey))
	return base * m.Penalties.Penalty(m.Event, e.RoadClass) * m.Vehicle.Penalty(e.RoadClass)
}
