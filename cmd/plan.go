package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MiguelAlmeida05/Ruta-Op/sim"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/planner"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/roadgraph"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/routing"
)

var (
	planGraph       string    // Graph JSON file
	planOrigin      int64     // Origin node id
	planOriginCoord []float64 // lat,lon snapped to the nearest node; overrides --origin
	planDests       []string  // id=node pairs, or bare node ids
	planDestsFile   string    // YAML list of destinations
	planEvent       string    // Traffic event applied to every route
	planProfile     string    // Vehicle profile name from routing.vehicles
	planConcurrency int       // Destinations routed in parallel
)

// ParseDestinations turns "id=node" (or bare "node") arguments into destinations.
func ParseDestinations(args []string) ([]planner.Destination, error) {
	out := make([]planner.Destination, 0, len(args))
	for _, arg := range args {
		id, node, found := strings.Cut(strings.TrimSpace(arg), "=")
		if !found {
			node = id
		}
		n, err := strconv.ParseInt(strings.TrimSpace(node), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("destination %q: node must be an integer id", arg)
		}
		out = append(out, planner.Destination{ID: strings.TrimSpace(id), Node: roadgraph.NodeID(n)})
	}
	return out, nil
}

// LoadDestinations reads a YAML list of {id, node} entries.
func LoadDestinations(path string) ([]planner.Destination, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read destinations %s: %w", path, err)
	}
	var dests []planner.Destination
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&dests); err != nil {
		return nil, fmt.Errorf("parse destinations %s: %w", path, err)
	}
	return dests, nil
}

// planCmd ranks delivery routes from one origin
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Route, simulate and rank deliveries from one origin to many destinations",
	Run: func(cmd *cobra.Command, args []string) {
		event, err := routing.ParseEvent(planEvent)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		vehicle, err := cfg.Vehicle(planProfile)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		dests, err := ParseDestinations(planDests)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if planDestsFile != "" {
			more, err := LoadDestinations(planDestsFile)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			dests = append(dests, more...)
		}
		if len(dests) == 0 {
			logrus.Fatalf("No destinations given (--dest or --destinations)")
		}

		pf := newPathFinder(planGraph)
		origin := roadgraph.NodeID(planOrigin)
		if len(planOriginCoord) > 0 {
			if len(planOriginCoord) != 2 {
				logrus.Fatalf("--origin-coord expects lat,lon")
			}
			id, ok := planner.NearestNode(pf.Graph(), roadgraph.LatLon{Lat: planOriginCoord[0], Lon: planOriginCoord[1]})
			if !ok {
				logrus.Fatalf("Graph has no nodes with coordinates")
			}
			origin = id
			logrus.Infof("Origin snapped to node %d", origin)
		}

		reg, chain := openSession(sessionFile, sessionID)
		p := planner.New(pf, cfg.Simulator(), cfg.Aggregator(), planner.Options{
			Event:       event,
			Vehicle:     vehicle,
			Iterations:  cfg.Simulation.Iterations,
			Concurrency: planConcurrency,
		})
		plan, err := p.Plan(context.Background(), rngs().ForSubsystem(sim.SubsystemPlanner), chain, origin, dests)
		if err != nil {
			logrus.Fatalf("Planning failed: %v", err)
		}
		logrus.Infof("Planned %d/%d destinations under %s", len(plan.Routes), len(dests), plan.State)

		closeSession(sessionFile, reg)
		writeJSON(os.Stdout, plan)
	},
}

func init() {
	planCmd.Flags().StringVar(&planGraph, "graph", "", "Road graph JSON file")
	planCmd.Flags().Int64Var(&planOrigin, "origin", 0, "Origin node id")
	planCmd.Flags().Float64SliceVar(&planOriginCoord, "origin-coord", nil, "Origin as lat,lon; snapped to the nearest node")
	planCmd.Flags().StringSliceVar(&planDests, "dest", nil, "Destinations as id=node (repeatable or comma-separated)")
	planCmd.Flags().StringVar(&planDestsFile, "destinations", "", "YAML file with a list of {id, node} destinations")
	planCmd.Flags().StringVar(&planEvent, "event", "none", "Traffic event (none, rain, traffic, protest)")
	planCmd.Flags().StringVar(&planProfile, "profile", "", "Vehicle profile name from routing.vehicles in the config")
	planCmd.Flags().IntVar(&planConcurrency, "concurrency", 0, "Destinations routed in parallel (0 = unlimited)")
	planCmd.Flags().StringVar(&sessionID, "session", "default", "Session id")
	planCmd.Flags().StringVar(&sessionFile, "session-file", "", "YAML session file to import before and export after the run")
}
