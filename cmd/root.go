package cmd

import (
	"encoding/json"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/MiguelAlmeida05/Ruta-Op/sim"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/roadgraph"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/routing"
)

var (
	configPath string // YAML config file; defaults when empty
	seed       int64  // Master seed; overrides simulation.seed when set
	logLevel   string // Log verbosity level

	cfg Config // resolved in PersistentPreRun
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "ruta-op",
	Short: "Event-aware road routing and delivery simulation",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg = loadConfigOrDefault(configPath)
		// CLI seed wins over the config file only when given explicitly
		if cmd.Flags().Changed("seed") {
			cfg.Simulation.Seed = seed
		}
		logrus.Debugf("Master seed %d", cfg.Simulation.Seed)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// rngs returns the partitioned RNG for the resolved master seed.
func rngs() *sim.PartitionedRNG {
	return sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Simulation.Seed))
}

// newPathFinder loads the graph file and builds a finder with the configured routing options.
func newPathFinder(graphPath string) *routing.PathFinder {
	if graphPath == "" {
		logrus.Fatalf("Graph file not provided (--graph)")
	}
	g, err := roadgraph.LoadFile(graphPath)
	if err != nil {
		logrus.Fatalf("Failed to load graph: %v", err)
	}
	penalties, err := cfg.Penalties()
	if err != nil {
		logrus.Fatalf("Invalid routing.penalties: %v", err)
	}
	logrus.Infof("Loaded graph %s: %d nodes, %d edges", graphPath, g.NumNodes(), g.NumEdges())
	return routing.NewPathFinder(g,
		routing.WithPenalties(penalties),
		routing.WithMaxSpeed(cfg.Routing.MaxSpeedMPS),
	)
}

func writeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logrus.Fatalf("Failed to write output: %v", err)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (routing, simulation, validation, predictors)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 42, "Master seed for all random streams")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(validateCmd)
}
