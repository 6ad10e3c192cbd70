package mcp

import (
	"bytes"
	"context"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/washout/internal/constants"
	"github.com/nvandessel/washout/internal/credence"
	"github.com/nvandessel/washout/internal/ratelimit"
	"github.com/nvandessel/washout/internal/sampling"
	"github.com/nvandessel/washout/internal/simulation"
	"github.com/nvandessel/washout/internal/visualization"
)

const defaultScenarioURI = "washout://scenario/default"

// registerTools registers all washout MCP tools with the server.
func (s *Server) registerTools() error {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "washout_update",
		Description: "Apply one Bayesian update to every agent's credences given an observed outcome",
	}, s.handleWashoutUpdate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "washout_simulate",
		Description: "Run a repeated experiment: draw outcomes from the true likelihoods and update all agents after each draw",
	}, s.handleWashoutSimulate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "washout_trials",
		Description: "Repeat the experiment many times and report how often each agent's credence in the true hypothesis crosses a threshold",
	}, s.handleWashoutTrials)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "washout_chart",
		Description: "Simulate the experiment and return a credence-over-time chart as SVG text or JSON series",
	}, s.handleWashoutChart)

	return nil
}

// registerResources registers MCP resources clients can read.
func (s *Server) registerResources() error {
	s.server.AddResource(&sdk.Resource{
		URI:         defaultScenarioURI,
		Name:        "washout-default-scenario",
		Description: "The scenario used when a tool call does not include one, as YAML.",
		MIMEType:    "application/yaml",
	}, s.handleScenarioResource)

	return nil
}

// handleScenarioResource returns the server's default scenario.
func (s *Server) handleScenarioResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	var buf bytes.Buffer
	if err := s.scenario.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode scenario: %w", err)
	}
	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      defaultScenarioURI,
				MIMEType: "application/yaml",
				Text:     buf.String(),
			},
		},
	}, nil
}

// resolveScenario converts an inline spec to a validated scenario, or
// returns a copy of the server default.
func (s *Server) resolveScenario(spec *ScenarioSpec) (*simulation.Scenario, error) {
	if spec == nil {
		sc := *s.scenario
		return &sc, nil
	}
	sc := &simulation.Scenario{
		Name:            spec.Name,
		Hypotheses:      spec.Hypotheses,
		Agents:          spec.Agents,
		Outcomes:        spec.Outcomes,
		Priors:          spec.Priors,
		Likelihoods:     spec.Likelihoods,
		TrueLikelihoods: spec.TrueLikelihoods,
		TrueHypothesis:  spec.TrueHypothesis,
		Reps:            spec.Reps,
	}
	if sc.Name == "" {
		sc.Name = "inline"
	}
	if sc.Reps == 0 {
		sc.Reps = constants.DefaultReps
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return sc, nil
}

// checkReps enforces the per-call draw cap.
func checkReps(reps int) error {
	if reps < 0 || reps > constants.MaxReps {
		return fmt.Errorf("%w: reps must be between 0 and %d, got %d", credence.ErrInvalidArgument, constants.MaxReps, reps)
	}
	return nil
}

// runScenario simulates sc with an optional reps override and seed,
// returning the trajectory and the seed actually used.
func (s *Server) runScenario(sc *simulation.Scenario, reps *int, seed *uint64) (*simulation.Trajectory, uint64, error) {
	if reps != nil {
		sc.Reps = *reps
	}
	if err := checkReps(sc.Reps); err != nil {
		return nil, 0, err
	}

	used := sampling.RandomSeed()
	switch {
	case seed != nil:
		used = *seed
	case sc.Seed != nil:
		used = *sc.Seed
	}

	sim := simulation.NewSeededSimulator(used,
		simulation.WithLogger(s.logger),
		simulation.WithStepLogger(s.steps),
		simulation.WithRunName(sc.Name))
	traj, err := sim.SimulateScenario(sc)
	if err != nil {
		return nil, 0, err
	}
	return traj, used, nil
}

// handleWashoutUpdate implements the washout_update tool.
func (s *Server) handleWashoutUpdate(ctx context.Context, req *sdk.CallToolRequest, args WashoutUpdateInput) (_ *sdk.CallToolResult, _ WashoutUpdateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("washout_update", start, retErr, sanitizeToolParams(map[string]interface{}{
			"outcome":  args.Outcome,
			"scenario": args.Scenario != nil,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "washout_update"); err != nil {
		return nil, WashoutUpdateOutput{}, err
	}

	sc, err := s.resolveScenario(args.Scenario)
	if err != nil {
		return nil, WashoutUpdateOutput{}, err
	}
	priors, likelihoods, err := sc.Matrices()
	if err != nil {
		return nil, WashoutUpdateOutput{}, err
	}

	post, err := credence.Update(priors, likelihoods, args.Outcome)
	if err != nil {
		return nil, WashoutUpdateOutput{}, fmt.Errorf("update: %w", err)
	}

	out := WashoutUpdateOutput{
		Outcome:      args.Outcome,
		OutcomeLabel: sc.OutcomeLabel(args.Outcome),
		Posteriors:   post,
	}
	for i := 0; i < sc.NumHypotheses(); i++ {
		out.Hypotheses = append(out.Hypotheses, sc.HypothesisLabel(i))
	}
	for j := 0; j < sc.NumAgents(); j++ {
		out.Agents = append(out.Agents, sc.AgentLabel(j))
	}
	return nil, out, nil
}

// handleWashoutSimulate implements the washout_simulate tool.
func (s *Server) handleWashoutSimulate(ctx context.Context, req *sdk.CallToolRequest, args WashoutSimulateInput) (_ *sdk.CallToolResult, _ WashoutSimulateOutput, retErr error) {
	start := time.Now()
	defer func() {
		params := map[string]interface{}{"scenario": args.Scenario != nil}
		if args.Reps != nil {
			params["reps"] = *args.Reps
		}
		if args.Seed != nil {
			params["seed"] = *args.Seed
		}
		s.auditTool("washout_simulate", start, retErr, sanitizeToolParams(params))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "washout_simulate"); err != nil {
		return nil, WashoutSimulateOutput{}, err
	}

	sc, err := s.resolveScenario(args.Scenario)
	if err != nil {
		return nil, WashoutSimulateOutput{}, err
	}
	traj, seed, err := s.runScenario(sc, args.Reps, args.Seed)
	if err != nil {
		return nil, WashoutSimulateOutput{}, fmt.Errorf("simulate: %w", err)
	}

	out := WashoutSimulateOutput{
		Reps:     traj.Reps(),
		Seed:     seed,
		Outcomes: traj.Outcomes(),
		Initial:  traj.Initial(),
		Final:    traj.Final(),
	}
	if args.IncludeSnapshots {
		out.Snapshots = make([][][]float64, traj.Len())
		for t := range out.Snapshots {
			out.Snapshots[t] = traj.Snapshot(t)
		}
	}
	return nil, out, nil
}

// handleWashoutTrials implements the washout_trials tool.
func (s *Server) handleWashoutTrials(ctx context.Context, req *sdk.CallToolRequest, args WashoutTrialsInput) (_ *sdk.CallToolResult, _ WashoutTrialsOutput, retErr error) {
	start := time.Now()
	defer func() {
		params := map[string]interface{}{
			"scenario": args.Scenario != nil,
		}
		if args.Trials != nil {
			params["trials"] = *args.Trials
		}
		if args.Reps != nil {
			params["reps"] = *args.Reps
		}
		if args.Threshold != nil {
			params["threshold"] = *args.Threshold
		}
		if args.Seed != nil {
			params["seed"] = *args.Seed
		}
		s.auditTool("washout_trials", start, retErr, sanitizeToolParams(params))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "washout_trials"); err != nil {
		return nil, WashoutTrialsOutput{}, err
	}

	sc, err := s.resolveScenario(args.Scenario)
	if err != nil {
		return nil, WashoutTrialsOutput{}, err
	}

	trials := constants.DefaultTrials
	if args.Trials != nil {
		trials = *args.Trials
	}
	reps := sc.Reps
	if args.Reps != nil {
		reps = *args.Reps
	}
	if trials < 1 || trials > constants.MaxTrials {
		return nil, WashoutTrialsOutput{}, fmt.Errorf("%w: trials must be between 1 and %d, got %d",
			credence.ErrInvalidArgument, constants.MaxTrials, trials)
	}
	if err := checkReps(reps); err != nil {
		return nil, WashoutTrialsOutput{}, err
	}
	if work := trials * (reps + 1); work > constants.MaxTrialWork {
		return nil, WashoutTrialsOutput{}, fmt.Errorf("%w: trials x reps = %d exceeds the limit of %d",
			credence.ErrInvalidArgument, work, constants.MaxTrialWork)
	}

	summary, err := simulation.RunTrials(sc, simulation.TrialConfig{
		Trials:    &trials,
		Reps:      &reps,
		Threshold: args.Threshold,
		Seed:      args.Seed,
	}, simulation.WithLogger(s.logger), simulation.WithStepLogger(s.steps))
	if err != nil {
		return nil, WashoutTrialsOutput{}, fmt.Errorf("trials: %w", err)
	}

	worst := summary.Agents[0]
	for _, a := range summary.Agents[1:] {
		if a.WashedOut < worst.WashedOut {
			worst = a
		}
	}
	return nil, WashoutTrialsOutput{
		Summary: *summary,
		Message: fmt.Sprintf("%d trials of %d draws: every agent exceeded %.2f credence in %s in at least %.1f%% of trials (lowest: %s)",
			summary.Trials, summary.Reps, summary.Threshold, sc.HypothesisLabel(summary.TrueHypothesis),
			100*worst.WashedOut, worst.Label),
	}, nil
}

// handleWashoutChart implements the washout_chart tool.
func (s *Server) handleWashoutChart(ctx context.Context, req *sdk.CallToolRequest, args WashoutChartInput) (_ *sdk.CallToolResult, _ WashoutChartOutput, retErr error) {
	start := time.Now()
	defer func() {
		params := map[string]interface{}{
			"scenario": args.Scenario != nil,
			"format":   args.Format,
		}
		if args.Title != "" {
			params["title"] = true
		}
		s.auditTool("washout_chart", start, retErr, sanitizeToolParams(params))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "washout_chart"); err != nil {
		return nil, WashoutChartOutput{}, err
	}

	format := visualization.FormatSVG
	if args.Format != "" {
		f, err := visualization.ParseFormat(args.Format)
		if err != nil {
			return nil, WashoutChartOutput{}, err
		}
		if f != visualization.FormatSVG && f != visualization.FormatJSON {
			return nil, WashoutChartOutput{}, fmt.Errorf("unsupported format %q (use 'svg' or 'json')", args.Format)
		}
		format = f
	}

	sc, err := s.resolveScenario(args.Scenario)
	if err != nil {
		return nil, WashoutChartOutput{}, err
	}
	traj, seed, err := s.runScenario(sc, args.Reps, args.Seed)
	if err != nil {
		return nil, WashoutChartOutput{}, fmt.Errorf("simulate: %w", err)
	}

	opts := visualization.OptionsFromScenario(sc)
	if args.Hypotheses != nil || args.Agents != nil {
		opts.Selection = &visualization.Selection{Hypotheses: args.Hypotheses, Agents: args.Agents}
	}
	if args.Markers != nil {
		opts.Markers = args.Markers
	}
	if args.Colors != nil {
		opts.Colors = args.Colors
	}
	if args.Title != "" {
		opts.Title = args.Title
	}
	opts.Legend = true

	chart, err := visualization.NewChart(traj, sc, opts)
	if err != nil {
		return nil, WashoutChartOutput{}, fmt.Errorf("chart: %w", err)
	}

	var buf bytes.Buffer
	if err := visualization.Render(&buf, chart, format); err != nil {
		return nil, WashoutChartOutput{}, fmt.Errorf("render %s: %w", format, err)
	}

	return nil, WashoutChartOutput{
		Format:      string(format),
		Chart:       buf.String(),
		SeriesCount: len(chart.Series),
		Seed:        seed,
	}, nil
}
