package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/MiguelAlmeida05/Ruta-Op/sim"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/routing"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/validate"
)

var (
	validateGraph   string // Graph JSON file; routing checks are skipped when empty
	validateSamples int    // Node pairs per routing sweep
	validateRuns    int    // Stability simulation runs
)

type validateOutput struct {
	Routing   *validate.RoutingReport  `json:"routing,omitempty"`
	Stability validate.StabilityReport `json:"stability"`
}

// validateCmd cross-checks Dijkstra against A* and measures Monte Carlo stability
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check Dijkstra/A* agreement and simulation stability",
	Run: func(cmd *cobra.Command, args []string) {
		var pf *routing.PathFinder
		if validateGraph != "" {
			pf = newPathFinder(validateGraph)
		}
		h := validate.NewHarness(pf, cfg.Simulator(), cfg.Aggregator(), rngs().ForSubsystem(sim.SubsystemValidator))
		h.StabilityIterations = cfg.Validation.StabilityIterations

		var out validateOutput
		if pf != nil {
			rep := h.ValidateRouting(validateSamples)
			if rep.Error != "" {
				logrus.Errorf("Routing validation: %s", rep.Error)
			} else {
				logrus.Infof("Routing validation: %d/%d matches, speedup %.2fx", rep.Matches, rep.Samples, rep.SpeedupFactor)
			}
			out.Routing = &rep
		}
		out.Stability = h.ValidateSimulationStability(validateRuns)
		logrus.Infof("Stability: mean %.2f min, CV %.2f%%", out.Stability.MeanDuration, out.Stability.CVPercent)
		writeJSON(os.Stdout, out)
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateGraph, "graph", "", "Road graph JSON file (routing checks are skipped without one)")
	validateCmd.Flags().IntVar(&validateSamples, "samples", 50, "Node pairs per routing sweep")
	validateCmd.Flags().IntVar(&validateRuns, "runs", validate.DefaultStabilityRuns, "Stability simulation runs")
}
