package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nvandessel/washout/internal/credence"
	"github.com/spf13/cobra"
)

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Apply one Bayesian update for an observed outcome",
		Long: `Update every agent's credences after observing a single outcome and print
the prior and posterior matrices.

Examples:
  washout update --outcome 0                   # Default scenario, observe heads
  washout update -s dice.yaml --outcome 5 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			outcome, _ := cmd.Flags().GetInt("outcome")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			sc, err := loadScenario(cmd, cfg)
			if err != nil {
				return err
			}
			priors, likelihoods, err := sc.Matrices()
			if err != nil {
				return err
			}

			posteriors, err := credence.Update(priors, likelihoods, outcome)
			if err != nil {
				return fmt.Errorf("update: %w", err)
			}

			hypotheses, agents := labels(sc)
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"scenario":      sc.Name,
					"outcome":       outcome,
					"outcome_label": sc.OutcomeLabel(outcome),
					"hypotheses":    hypotheses,
					"agents":        agents,
					"priors":        priors,
					"posteriors":    posteriors,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Observed %s (outcome %d)\n\n", sc.OutcomeLabel(outcome), outcome)
			fmt.Fprintln(out, "Priors:")
			printMatrix(out, priors, hypotheses, agents)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Posteriors:")
			printMatrix(out, posteriors, hypotheses, agents)
			return nil
		},
	}

	addScenarioFlag(cmd)
	cmd.Flags().IntP("outcome", "o", 0, "Index of the observed outcome")
	cmd.MarkFlagRequired("outcome")

	return cmd
}

// printMatrix writes m as a table with one row per hypothesis and one
// column per agent.
func printMatrix(w io.Writer, m credence.Matrix, hypotheses, agents []string) {
	width := 12
	for _, h := range hypotheses {
		if len(h)+2 > width {
			width = len(h) + 2
		}
	}

	fmt.Fprintf(w, "  %-*s", width, "")
	for _, a := range agents {
		fmt.Fprintf(w, " %12s", a)
	}
	fmt.Fprintln(w)
	for i, row := range m {
		fmt.Fprintf(w, "  %-*s", width, hypotheses[i])
		for _, v := range row {
			fmt.Fprintf(w, " %12.4f", v)
		}
		fmt.Fprintln(w)
	}
}
