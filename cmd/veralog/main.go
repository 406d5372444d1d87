// Veralog - Realization sets for uncertain event logs
// Computes the possible realizations of traces with uncertain activity
// labels, interval timestamps, and indeterminate events.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veralog/veralog/pkg/config"
	"github.com/veralog/veralog/pkg/telemetry"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// CLI flags
var (
	inputFile  string
	outputFile string
	verbose    bool

	// Compute flags
	workers         int
	withProbability bool

	// Bewilder flags
	seed           int64
	activityP      float64
	timestampP     float64
	indeterminateP float64
	extraLabels    int

	// Mining flags
	algorithmFlag string
	matcherFlag   string
	windowWidth   int64
	windowStep    int64
	minSupport    float64
	maxSupport    float64
	weightedFlag  bool

	// Telemetry flags
	otlpEndpoint string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "veralog",
	Short: "Veralog - Realization sets for uncertain event logs",
	Long: `Veralog computes the realization set of uncertain process traces: every
total ordering of events compatible with the recorded uncertainty, with
its probability when requested.

Uncertainty is read from the XES uncertainty extension: weighted activity
label sets, interval timestamps, and indeterminate events.`,
	Version: fmt.Sprintf("%s (%s)", version, commit),
}

var realizationsCmd = &cobra.Command{
	Use:   "realizations [input.xes]",
	Short: "Compute realization sets for an uncertain log",
	Long: `Parse an uncertain XES log and compute, per trace, every realization
compatible with the recorded uncertainty.

Examples:
  veralog realizations log.xes
  veralog realizations -i log.xes --probability
  veralog realizations log.xes --workers 4`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRealizations,
}

var bewilderCmd = &cobra.Command{
	Use:   "bewilder [input.xes]",
	Short: "Inject synthetic uncertainty into a certain log",
	Long: `Perturb a deterministic XES log with synthetic uncertainty: weighted
activity alternatives, overlapping interval timestamps, and indeterminate
events. Deterministic for a fixed seed.

Examples:
  veralog bewilder log.xes -o uncertain.xes
  veralog bewilder log.xes -o out.xes --activity-p 0.2 --seed 42`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBewilder,
}

var mineCmd = &cobra.Command{
	Use:   "mine [input.xes]",
	Short: "Mine frequent patterns from an uncertain log",
	Long: `Compute realization sets and mine frequent patterns with support
intervals: itemsets via apriori, ordered or unordered episodes via winepi.

Examples:
  veralog mine log.xes --algorithm apriori --min-support 0.4
  veralog mine log.xes --algorithm winepi --matcher parallel --width 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMine,
}

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and recompute realization sets on change",
	Long: `Watch a directory for new or updated XES files and recompute their
realization sets as they land.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC endpoint for tracing (e.g., localhost:4317)")

	cfg := config.Global().Get()

	// Realizations command flags
	realizationsCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input XES file path")
	realizationsCmd.Flags().IntVar(&workers, "workers", cfg.Compute.Workers, "Concurrent traces (0 = all cores)")
	realizationsCmd.Flags().BoolVar(&withProbability, "probability", cfg.Compute.Probability, "Compute realization probabilities")

	// Bewilder command flags
	bewilderCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input XES file path")
	bewilderCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output XES file path (required)")
	bewilderCmd.Flags().Int64Var(&seed, "seed", cfg.Bewilder.Seed, "Random seed")
	bewilderCmd.Flags().Float64Var(&activityP, "activity-p", cfg.Bewilder.ActivityP, "Fraction of events given label alternatives")
	bewilderCmd.Flags().Float64Var(&timestampP, "timestamp-p", cfg.Bewilder.TimestampP, "Fraction of events given interval timestamps")
	bewilderCmd.Flags().Float64Var(&indeterminateP, "indeterminate-p", cfg.Bewilder.IndeterminateP, "Fraction of events made indeterminate")
	bewilderCmd.Flags().IntVar(&extraLabels, "extra-labels", cfg.Bewilder.ExtraActivities, "Extra labels per uncertain event")
	bewilderCmd.MarkFlagRequired("output")

	// Mine command flags
	mineCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input XES file path")
	mineCmd.Flags().StringVar(&algorithmFlag, "algorithm", cfg.Mining.Algorithm, "Mining algorithm (apriori, winepi)")
	mineCmd.Flags().StringVar(&matcherFlag, "matcher", cfg.Mining.Matcher, "Episode matcher for winepi (serial, parallel)")
	mineCmd.Flags().Int64Var(&windowWidth, "width", cfg.Mining.Width, "Sliding window width in events")
	mineCmd.Flags().Int64Var(&windowStep, "step", cfg.Mining.Step, "Sliding window step")
	mineCmd.Flags().Float64Var(&minSupport, "min-support", cfg.Mining.MinSupport, "Minimum support threshold")
	mineCmd.Flags().Float64Var(&maxSupport, "max-support", cfg.Mining.MaxSupport, "Maximum support threshold")
	mineCmd.Flags().BoolVar(&weightedFlag, "weighted", cfg.Mining.Weighted, "Weight support by realization probability")
	mineCmd.Flags().IntVar(&workers, "workers", cfg.Compute.Workers, "Concurrent traces (0 = all cores)")

	// Watch command flags
	watchCmd.Flags().BoolVar(&withProbability, "probability", cfg.Compute.Probability, "Compute realization probabilities")

	rootCmd.AddCommand(realizationsCmd)
	rootCmd.AddCommand(bewilderCmd)
	rootCmd.AddCommand(mineCmd)
	rootCmd.AddCommand(watchCmd)
}

// setupTelemetry initializes OTLP export when an endpoint is configured.
// Returns a shutdown function, which may be a no-op.
func setupTelemetry(ctx context.Context) func(context.Context) error {
	endpoint := otlpEndpoint
	if endpoint == "" {
		cfg := config.Global().Get()
		if cfg.Telemetry.Enabled {
			endpoint = cfg.Telemetry.Endpoint
		}
	}
	if endpoint == "" {
		return func(context.Context) error { return nil }
	}

	otlpCfg := telemetry.DefaultOTLPConfig("veralog")
	otlpCfg.Endpoint = endpoint
	otlpCfg.ServiceVersion = version

	shutdown, err := telemetry.InitOTLP(otlpCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry disabled: %v\n", err)
		return func(context.Context) error { return nil }
	}
	return shutdown
}
