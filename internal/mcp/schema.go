// Package mcp provides an MCP (Model Context Protocol) server for washout.
package mcp

import "github.com/nvandessel/washout/internal/simulation"

// ScenarioSpec describes an experiment inline. When a tool input omits it,
// the server's default scenario is used.
type ScenarioSpec struct {
	Name            string      `json:"name,omitempty" jsonschema:"Scenario name used in logs"`
	Hypotheses      []string    `json:"hypotheses,omitempty" jsonschema:"Optional hypothesis labels, one per prior row"`
	Agents          []string    `json:"agents,omitempty" jsonschema:"Optional agent labels, one per prior column"`
	Outcomes        []string    `json:"outcomes,omitempty" jsonschema:"Optional outcome labels, one per likelihood column"`
	Priors          [][]float64 `json:"priors" jsonschema:"n by k matrix; column j is agent j's prior over the n hypotheses"`
	Likelihoods     [][]float64 `json:"likelihoods" jsonschema:"n by m matrix; row i is P(outcome | hypothesis i)"`
	TrueLikelihoods []float64   `json:"true_likelihoods" jsonschema:"Weights the m outcomes are actually drawn with"`
	TrueHypothesis  *int        `json:"true_hypothesis,omitempty" jsonschema:"Index of the hypothesis generating the data (inferred if omitted)"`
	Reps            int         `json:"reps,omitempty" jsonschema:"Default number of draws"`
}

// WashoutUpdateInput defines the input for washout_update tool.
type WashoutUpdateInput struct {
	Scenario *ScenarioSpec `json:"scenario,omitempty" jsonschema:"Experiment definition (default: server scenario)"`
	Outcome  int           `json:"outcome" jsonschema:"Index of the observed outcome"`
}

// WashoutUpdateOutput defines the output for washout_update tool.
type WashoutUpdateOutput struct {
	Outcome      int         `json:"outcome" jsonschema:"Observed outcome index"`
	OutcomeLabel string      `json:"outcome_label" jsonschema:"Observed outcome label"`
	Posteriors   [][]float64 `json:"posteriors" jsonschema:"n by k posterior matrix"`
	Agents       []string    `json:"agents" jsonschema:"Agent labels in column order"`
	Hypotheses   []string    `json:"hypotheses" jsonschema:"Hypothesis labels in row order"`
}

// WashoutSimulateInput defines the input for washout_simulate tool.
type WashoutSimulateInput struct {
	Scenario         *ScenarioSpec `json:"scenario,omitempty" jsonschema:"Experiment definition (default: server scenario)"`
	Reps             *int          `json:"reps,omitempty" jsonschema:"Number of draws (default: scenario reps)"`
	Seed             *uint64       `json:"seed,omitempty" jsonschema:"Random seed for a reproducible run (default: random)"`
	IncludeSnapshots bool          `json:"include_snapshots,omitempty" jsonschema:"Return every intermediate credence matrix (default: false)"`
}

// WashoutSimulateOutput defines the output for washout_simulate tool.
type WashoutSimulateOutput struct {
	Reps      int           `json:"reps" jsonschema:"Number of draws performed"`
	Seed      uint64        `json:"seed" jsonschema:"Seed used; pass it back to reproduce the run"`
	Outcomes  []int         `json:"outcomes" jsonschema:"Drawn outcome indices in order"`
	Initial   [][]float64   `json:"initial" jsonschema:"Priors before any draw"`
	Final     [][]float64   `json:"final" jsonschema:"Credences after the last draw"`
	Snapshots [][][]float64 `json:"snapshots,omitempty" jsonschema:"Credences after each draw, indexed [step][hypothesis][agent]"`
}

// WashoutTrialsInput defines the input for washout_trials tool.
type WashoutTrialsInput struct {
	Scenario  *ScenarioSpec `json:"scenario,omitempty" jsonschema:"Experiment definition (default: server scenario)"`
	Trials    *int          `json:"trials,omitempty" jsonschema:"Number of independent runs (default: 500)"`
	Reps      *int          `json:"reps,omitempty" jsonschema:"Draws per run (default: scenario reps)"`
	Threshold *float64      `json:"threshold,omitempty" jsonschema:"Final credence counted as washed out (default: 0.9)"`
	Seed      *uint64       `json:"seed,omitempty" jsonschema:"Random seed (default: random)"`
}

// WashoutTrialsOutput defines the output for washout_trials tool.
type WashoutTrialsOutput struct {
	Summary simulation.TrialSummary `json:"summary" jsonschema:"Per-agent statistics of final credence in the true hypothesis"`
	Message string                  `json:"message" jsonschema:"Human-readable summary"`
}

// WashoutChartInput defines the input for washout_chart tool.
type WashoutChartInput struct {
	Scenario   *ScenarioSpec `json:"scenario,omitempty" jsonschema:"Experiment definition (default: server scenario)"`
	Reps       *int          `json:"reps,omitempty" jsonschema:"Number of draws (default: scenario reps)"`
	Seed       *uint64       `json:"seed,omitempty" jsonschema:"Random seed (default: random)"`
	Hypotheses []int         `json:"hypotheses,omitempty" jsonschema:"Hypothesis indices to draw (default: all)"`
	Agents     []int         `json:"agents,omitempty" jsonschema:"Agent indices to draw (default: all)"`
	Markers    []string      `json:"markers,omitempty" jsonschema:"Marker codes indexed by agent (default: s o + 1)"`
	Colors     []string      `json:"colors,omitempty" jsonschema:"Colors indexed by hypothesis (default: red blue green yellow black)"`
	Title      string        `json:"title,omitempty" jsonschema:"Chart title"`
	Format     string        `json:"format,omitempty" jsonschema:"Output format: 'svg' or 'json' (default: 'svg')"`
}

// WashoutChartOutput defines the output for washout_chart tool.
type WashoutChartOutput struct {
	Format      string `json:"format" jsonschema:"Format of the chart field"`
	Chart       string `json:"chart" jsonschema:"SVG document or JSON series data"`
	SeriesCount int    `json:"series_count" jsonschema:"Number of plotted lines"`
	Seed        uint64 `json:"seed" jsonschema:"Seed used for the run"`
}
