package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/nvandessel/washout/internal/config"
	"github.com/nvandessel/washout/internal/simulation"
	"github.com/nvandessel/washout/internal/visualization"
	"github.com/spf13/cobra"
)

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Chart credences over the course of an experiment",
		Long: `Simulate the scenario and draw one line per (hypothesis, agent) pair.
Line color follows the hypothesis and marker shape follows the agent.

Markers: s (box) S (square) o (circle) O (ring) + (plus) x (cross)
         1 (triangle) ^ (pyramid)
Colors:  named colors or #rrggbb

Examples:
  washout plot                                  # PNG in a temp dir, opened in a browser
  washout plot --format html -o washout.html
  washout plot --hypotheses 2 --agents 0,1 --markers s,o --colors red,blue
  washout plot --format json | jq '.series[0].values'
  washout plot --serve                          # Live preview with re-run button`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			noOpen, _ := cmd.Flags().GetBool("no-open")
			serve, _ := cmd.Flags().GetBool("serve")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, steps := newLoggers(cmd, cfg)
			defer steps.Close()

			format := visualization.Format(cfg.Chart.Format)
			if cmd.Flags().Changed("format") {
				f, _ := cmd.Flags().GetString("format")
				if format, err = visualization.ParseFormat(f); err != nil {
					return err
				}
			}

			sc, err := loadScenario(cmd, cfg)
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, sc); err != nil {
				return err
			}
			opts := chartOptions(cmd, sc, cfg)

			sim := simulation.NewSeededSimulator(resolveSeed(sc),
				simulation.WithLogger(logger),
				simulation.WithStepLogger(steps),
				simulation.WithRunName(sc.Name))
			traj, err := sim.SimulateScenario(sc)
			if err != nil {
				return fmt.Errorf("simulate: %w", err)
			}

			if serve {
				return runPreviewServer(cmd, sc, traj, opts, logger, noOpen)
			}

			chart, err := visualization.NewChart(traj, sc, opts)
			if err != nil {
				return fmt.Errorf("chart: %w", err)
			}

			var buf bytes.Buffer
			if err := visualization.Render(&buf, chart, format); err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}

			if format == visualization.FormatJSON && output == "" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}

			outPath := output
			if outPath == "" {
				outPath = filepath.Join(os.TempDir(), fmt.Sprintf("washout-%s.%s", fileSlug(sc.Name), format))
			}
			if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("write chart file: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Chart written to %s\n", outPath)

			if !noOpen && format != visualization.FormatJSON {
				if err := visualization.OpenBrowser(outPath); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, outPath)
				}
			}
			return nil
		},
	}

	addScenarioFlag(cmd)
	addRunFlags(cmd)
	cmd.Flags().String("format", "png", "Output format: png, svg, html, or json (default from config)")
	cmd.Flags().StringP("output", "o", "", "Output file path (default: temp dir; json prints to stdout)")
	cmd.Flags().IntSlice("hypotheses", nil, "Hypothesis indices to draw (default: all)")
	cmd.Flags().IntSlice("agents", nil, "Agent indices to draw (default: all)")
	cmd.Flags().StringSlice("markers", nil, "Marker codes indexed by agent (default: s,o,+,1)")
	cmd.Flags().StringSlice("colors", nil, "Colors indexed by hypothesis (default: red,blue,green,yellow,black)")
	cmd.Flags().String("title", "", "Chart title")
	cmd.Flags().Bool("no-open", false, "Don't open the chart in a browser")
	cmd.Flags().Bool("serve", false, "Start a local preview server instead of writing a file")

	return cmd
}

// chartOptions merges chart settings: scenario chart block, then config,
// then flags.
func chartOptions(cmd *cobra.Command, sc *simulation.Scenario, cfg *config.WashoutConfig) visualization.Options {
	opts := visualization.OptionsFromScenario(sc)
	opts.Width = cfg.Chart.Width
	opts.Height = cfg.Chart.Height
	opts.Legend = cfg.Chart.Legend

	flags := cmd.Flags()
	if flags.Changed("hypotheses") || flags.Changed("agents") {
		sel := &visualization.Selection{}
		if opts.Selection != nil {
			*sel = *opts.Selection
		}
		if flags.Changed("hypotheses") {
			sel.Hypotheses, _ = flags.GetIntSlice("hypotheses")
		}
		if flags.Changed("agents") {
			sel.Agents, _ = flags.GetIntSlice("agents")
		}
		opts.Selection = sel
	}
	if flags.Changed("markers") {
		opts.Markers, _ = flags.GetStringSlice("markers")
	}
	if flags.Changed("colors") {
		opts.Colors, _ = flags.GetStringSlice("colors")
	}
	if flags.Changed("title") {
		opts.Title, _ = flags.GetString("title")
	}
	return opts
}

// runPreviewServer starts the local preview server and blocks until Ctrl-C.
func runPreviewServer(cmd *cobra.Command, sc *simulation.Scenario, traj *simulation.Trajectory, opts visualization.Options, logger *slog.Logger, noOpen bool) error {
	srv := visualization.NewServer(sc, traj, opts, logger)

	ctx, stop := signal.NotifyContext(contextOrBackground(cmd.Context()), shutdownSignals...)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()

	// Wait for server to start
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && srv.Addr() == "" {
		select {
		case err := <-errCh:
			return fmt.Errorf("server error: %w", err)
		case <-time.After(10 * time.Millisecond):
		}
	}

	addr := srv.Addr()
	if addr == "" {
		return fmt.Errorf("server failed to start")
	}

	url := "http://" + addr
	fmt.Fprintf(cmd.OutOrStdout(), "Preview server running at %s\n", url)
	fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl-C to stop.\n")

	if !noOpen {
		if err := visualization.OpenBrowser(url); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, url)
		}
	}

	if err := <-errCh; err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// contextOrBackground lets commands run outside Execute in tests.
func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// fileSlug reduces a scenario name to a single path element safe for a
// temp file name.
func fileSlug(name string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '-'
		}
	}, name)
	slug = strings.Trim(slug, ".-")
	if slug == "" {
		return "chart"
	}
	return slug
}
