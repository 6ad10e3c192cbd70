package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/nvandessel/washout/internal/constants"
	"github.com/nvandessel/washout/internal/sampling"
	"github.com/nvandessel/washout/internal/simulation"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate one repeated experiment",
		Long: `Draw outcomes from the scenario's true likelihoods and update every agent
after each draw.

Formats:
  table  final credences and outcome counts (default)
  json   seed plus every intermediate credence matrix
  csv    one row per step, one column per (hypothesis, agent) pair

Examples:
  washout run                                   # Default scenario
  washout run -s dice.yaml --reps 500 --seed 42
  washout run --format csv > steps.csv`,
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
			if err := applyRunFlags(cmd, sc); err != nil {
				return err
			}
			seed := resolveSeed(sc)

			sim := simulation.NewSeededSimulator(seed,
				simulation.WithLogger(logger),
				simulation.WithStepLogger(steps),
				simulation.WithRunName(sc.Name))
			traj, err := sim.SimulateScenario(sc)
			if err != nil {
				return fmt.Errorf("simulate: %w", err)
			}

			out := cmd.OutOrStdout()
			switch format {
			case "table":
				printRun(out, sc, traj, seed)
				return nil
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Scenario   string                 `json:"scenario"`
					Seed       uint64                 `json:"seed"`
					Trajectory *simulation.Trajectory `json:"trajectory"`
				}{sc.Name, seed, traj})
			case "csv":
				return writeRunCSV(out, sc, traj)
			default:
				return fmt.Errorf("unsupported format %q (use 'table', 'json', or 'csv')", format)
			}
		},
	}

	addScenarioFlag(cmd)
	addRunFlags(cmd)
	cmd.Flags().String("format", "table", "Output format: table, json, or csv")

	return cmd
}

// addRunFlags registers the --reps and --seed overrides shared by run and plot.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Int("reps", 0, "Number of draws (default: scenario reps)")
	cmd.Flags().Uint64("seed", 0, "Random seed (default: scenario seed, else random)")
}

// applyRunFlags copies explicitly set --reps and --seed into sc.
func applyRunFlags(cmd *cobra.Command, sc *simulation.Scenario) error {
	if cmd.Flags().Changed("reps") {
		reps, _ := cmd.Flags().GetInt("reps")
		if reps < 0 || reps > constants.MaxReps {
			return fmt.Errorf("--reps must be between 0 and %d, got %d", constants.MaxReps, reps)
		}
		sc.Reps = reps
	}
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetUint64("seed")
		sc.Seed = &seed
	}
	return nil
}

// resolveSeed returns the scenario seed, picking and storing a random one
// when the scenario has none so the run can be reported and replayed.
func resolveSeed(sc *simulation.Scenario) uint64 {
	if sc.Seed == nil {
		seed := sampling.RandomSeed()
		sc.Seed = &seed
	}
	return *sc.Seed
}

func printRun(w io.Writer, sc *simulation.Scenario, traj *simulation.Trajectory, seed uint64) {
	fmt.Fprintf(w, "Scenario %s: %d draws (seed %d)\n\n", sc.Name, traj.Reps(), seed)

	counts := make([]int, len(sc.TrueLikelihoods))
	for _, o := range traj.Outcomes() {
		counts[o]++
	}
	fmt.Fprintln(w, "Outcomes:")
	for o, n := range counts {
		fmt.Fprintf(w, "  %-12s %d\n", sc.OutcomeLabel(o), n)
	}
	fmt.Fprintln(w)

	hypotheses, agents := labels(sc)
	fmt.Fprintln(w, "Initial credences:")
	printMatrix(w, traj.Initial(), hypotheses, agents)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Final credences:")
	printMatrix(w, traj.Final(), hypotheses, agents)
}

// writeRunCSV writes one row per snapshot: step, the outcome that produced
// it (empty for the priors), then every credence in row-major order.
func writeRunCSV(w io.Writer, sc *simulation.Scenario, traj *simulation.Trajectory) error {
	cw := csv.NewWriter(w)

	header := []string{"step", "outcome"}
	for i := 0; i < traj.Hypotheses(); i++ {
		for j := 0; j < traj.Agents(); j++ {
			header = append(header, sc.HypothesisLabel(i)+"/"+sc.AgentLabel(j))
		}
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	outcomes := traj.Outcomes()
	for t := 0; t < traj.Len(); t++ {
		record := make([]string, 0, len(header))
		record = append(record, strconv.Itoa(t))
		if t == 0 {
			record = append(record, "")
		} else {
			record = append(record, sc.OutcomeLabel(outcomes[t-1]))
		}
		for _, row := range traj.Snapshot(t) {
			for _, v := range row {
				record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
