package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nvandessel/washout/internal/simulation"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newTrialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trials",
		Short: "Repeat the experiment and summarize how often priors wash out",
		Long: `Run the scenario many times and report, for each agent, its final
credence in the true hypothesis: mean, spread, a bootstrap confidence
interval, and the fraction of trials that ended above the threshold.

Examples:
  washout trials                                # 500 trials of the default scenario
  washout trials --trials 2000 --reps 20 --threshold 0.95
  washout trials -s dice.yaml --seed 1 --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			format, _ := cmd.Flags().GetString("format")
			if jsonOut {
				format = "json"
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, steps := newLoggers(cmd, cfg)
			defer steps.Close()

			sc, err := loadScenario(cmd, cfg)
			if err != nil {
				return err
			}

			trials := cfg.Simulation.Trials
			threshold := cfg.Simulation.Threshold
			tc := simulation.TrialConfig{Trials: &trials, Threshold: &threshold}
			flags := cmd.Flags()
			if flags.Changed("trials") {
				trials, _ = flags.GetInt("trials")
			}
			if flags.Changed("reps") {
				reps, _ := flags.GetInt("reps")
				tc.Reps = &reps
			}
			if flags.Changed("threshold") {
				threshold, _ = flags.GetFloat64("threshold")
			}
			if flags.Changed("level") {
				tc.Level, _ = flags.GetFloat64("level")
			}
			if flags.Changed("seed") {
				seed, _ := flags.GetUint64("seed")
				tc.Seed = &seed
			}

			summary, err := simulation.RunTrials(sc, tc,
				simulation.WithLogger(logger),
				simulation.WithStepLogger(steps))
			if err != nil {
				return fmt.Errorf("trials: %w", err)
			}

			out := cmd.OutOrStdout()
			switch format {
			case "table":
				printTrials(out, sc, summary)
				return nil
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(summary); err != nil {
					return fmt.Errorf("encode yaml: %w", err)
				}
				return enc.Close()
			default:
				return fmt.Errorf("unsupported format %q (use 'table', 'json', or 'yaml')", format)
			}
		},
	}

	addScenarioFlag(cmd)
	cmd.Flags().Int("trials", 0, "Number of independent runs (default from config)")
	cmd.Flags().Int("reps", 0, "Draws per run (default: scenario reps)")
	cmd.Flags().Float64("threshold", 0, "Final credence counted as washed out (default from config)")
	cmd.Flags().Float64("level", 0, "Bootstrap confidence level (default 0.95)")
	cmd.Flags().Uint64("seed", 0, "Random seed (default: scenario seed, else random)")
	cmd.Flags().String("format", "table", "Output format: table, json, or yaml")

	return cmd
}

func printTrials(w io.Writer, sc *simulation.Scenario, s *simulation.TrialSummary) {
	fmt.Fprintf(w, "Scenario %s: %d trials of %d draws (seed %d)\n", s.Scenario, s.Trials, s.Reps, s.Seed)
	fmt.Fprintf(w, "True hypothesis: %s\n\n", sc.HypothesisLabel(s.TrueHypothesis))

	level := 0.0
	if len(s.Agents) > 0 {
		level = s.Agents[0].Final.CI.Level
	}
	fmt.Fprintf(w, "  %-14s %8s %8s %8s  %-19s %10s\n",
		"agent", "prior", "mean", "std", fmt.Sprintf("%.0f%% CI", 100*level), fmt.Sprintf("> %.2f", s.Threshold))
	for _, a := range s.Agents {
		ci := fmt.Sprintf("[%.4f, %.4f]", a.Final.CI.Lower, a.Final.CI.Upper)
		fmt.Fprintf(w, "  %-14s %8.4f %8.4f %8.4f  %-19s %9.1f%%\n",
			a.Label, a.Prior, a.Final.Mean, a.Final.StdDev, ci, 100*a.WashedOut)
	}
}
