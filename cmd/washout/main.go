package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nvandessel/washout/internal/config"
	"github.com/nvandessel/washout/internal/logging"
	"github.com/nvandessel/washout/internal/simulation"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "washout",
		Short: "Simulate Bayesian agents whose priors wash out",
		Long: `washout simulates several Bayesian agents who start from different priors
over the same hypotheses, watch the same stream of random outcomes, and
update by Bayes' rule after each one.

With enough evidence their credences converge on the hypothesis that
actually generates the data. washout runs that experiment, summarizes it
over many trials, and charts the credence paths.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addPersistentFlags(rootCmd)

	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newUpdateCmd(),
		newRunCmd(),
		newPlotCmd(),
		newTrialsCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)

	return rootCmd
}

// addPersistentFlags registers the flags every subcommand understands.
func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	cmd.PersistentFlags().String("config", "", "Config file (default ~/.washout/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level: info, debug, or trace (overrides config)")
}

// loadConfig reads --config, or the default locations when it is empty,
// then applies --log-level.
func loadConfig(cmd *cobra.Command) (*config.WashoutConfig, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfg *config.WashoutConfig
	var err error
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLoggers builds the stderr logger and, at debug or trace level, the
// step logger. The caller must Close the step logger.
func newLoggers(cmd *cobra.Command, cfg *config.WashoutConfig) (*slog.Logger, *logging.StepLogger) {
	logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())

	dir, err := cfg.TraceDir()
	if err != nil {
		logger.Warn("step logging disabled", "error", err)
		return logger, nil
	}
	steps := logging.NewStepLogger(dir, cfg.Logging.Level)
	if steps != nil {
		logger.Debug("step logging enabled", "dir", dir)
	}
	return logger, steps
}

// loadScenario reads --scenario, falling back to the built-in experiment,
// and applies the simulation defaults from cfg.
func loadScenario(cmd *cobra.Command, cfg *config.WashoutConfig) (*simulation.Scenario, error) {
	path, _ := cmd.Flags().GetString("scenario")

	sc := simulation.DefaultScenario()
	if path != "" {
		var err error
		sc, err = simulation.LoadScenario(path)
		if err != nil {
			return nil, err
		}
	}

	if cfg.Simulation.Reps > 0 {
		sc.Reps = cfg.Simulation.Reps
	}
	if cfg.Simulation.Seed != nil {
		seed := *cfg.Simulation.Seed
		sc.Seed = &seed
	}
	return sc, nil
}

// addScenarioFlag registers --scenario on cmd.
func addScenarioFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("scenario", "s", "", "Scenario YAML file (default: built-in coin-bias experiment)")
}

// labels returns the hypothesis and agent labels of sc in index order.
func labels(sc *simulation.Scenario) (hypotheses, agents []string) {
	for i := 0; i < sc.NumHypotheses(); i++ {
		hypotheses = append(hypotheses, sc.HypothesisLabel(i))
	}
	for j := 0; j < sc.NumAgents(); j++ {
		agents = append(agents, sc.AgentLabel(j))
	}
	return hypotheses, agents
}
