package main

import (
	"fmt"

	"github.com/nvandessel/washout/internal/config"
	"github.com/nvandessel/washout/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run the washout MCP server over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout so AI agents can
call washout_update, washout_simulate, washout_trials and washout_chart.

Tool calls without an inline scenario use --scenario, or the built-in
coin-bias experiment. Calls are recorded in ~/.washout/audit.jsonl.

Example MCP client configuration:
  {"command": "washout", "args": ["mcp-server"]}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			noAudit, _ := cmd.Flags().GetBool("no-audit")

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

			auditDir := ""
			if !noAudit {
				if auditDir, err = config.Dir(); err != nil {
					return err
				}
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:     "washout",
				Version:  version,
				Scenario: sc,
				AuditDir: auditDir,
				Logger:   logger,
				Steps:    steps,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer server.Close()

			return server.Run(contextOrBackground(cmd.Context()))
		},
	}

	addScenarioFlag(cmd)
	cmd.Flags().Bool("no-audit", false, "Don't write the tool-call audit log")

	return cmd
}
