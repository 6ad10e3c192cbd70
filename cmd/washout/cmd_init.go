package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nvandessel/washout/internal/simulation"
	"github.com/spf13/cobra"
)

const defaultScenarioFile = "scenario.yaml"

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the built-in scenario to a YAML file",
		Long: `Write the built-in coin-bias scenario to a YAML file as a starting point
for your own experiments.

Examples:
  washout init                      # Creates ./scenario.yaml
  washout init experiments/dice.yaml
  washout init --force              # Overwrite an existing file`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			force, _ := cmd.Flags().GetBool("force")

			path := defaultScenarioFile
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			var buf bytes.Buffer
			if err := simulation.DefaultScenario().Encode(&buf); err != nil {
				return err
			}

			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create directory: %w", err)
				}
			}
			if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("failed to write scenario: %w", err)
			}

			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
					"status": "created",
					"path":   path,
				})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote scenario to %s\n", path)
				fmt.Fprintf(cmd.OutOrStdout(), "Run 'washout run --scenario %s' to simulate it.\n", path)
			}
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Overwrite an existing file")

	return cmd
}
