// Package visualization renders credence trajectories as charts.
package visualization

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"strings"

	"github.com/nvandessel/washout/internal/constants"
	"github.com/nvandessel/washout/internal/credence"
	"github.com/nvandessel/washout/internal/simulation"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Format specifies the chart output format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatSVG  Format = "svg"
	FormatHTML Format = "html"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatPNG, FormatSVG, FormatHTML, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown chart format %q (want png, svg, html or json)", credence.ErrInvalidArgument, s)
}

// Selection picks which hypotheses and agents to draw. A nil slice
// selects every index.
type Selection struct {
	Hypotheses []int `json:"hypotheses,omitempty"`
	Agents     []int `json:"agents,omitempty"`
}

// Options controls chart appearance. The zero value draws every series
// with the default palette.
type Options struct {
	Selection *Selection
	Markers   []string // indexed by agent
	Colors    []string // indexed by hypothesis
	Title     string
	Legend    bool
	Width     float64 // inches
	Height    float64 // inches
}

// OptionsFromScenario fills Options from the chart preferences stored in sc.
func OptionsFromScenario(sc *simulation.Scenario) Options {
	var opts Options
	if sc == nil || sc.Chart == nil {
		return opts
	}
	c := sc.Chart
	opts.Title = c.Title
	opts.Markers = c.Markers
	opts.Colors = c.Colors
	if c.Hypotheses != nil || c.Agents != nil {
		opts.Selection = &Selection{Hypotheses: c.Hypotheses, Agents: c.Agents}
	}
	return opts
}

// Series is one (hypothesis, agent) credence path.
type Series struct {
	Hypothesis int       `json:"hypothesis"`
	Agent      int       `json:"agent"`
	Label      string    `json:"label"`
	Color      string    `json:"color"`
	Marker     string    `json:"marker"`
	Values     []float64 `json:"values"`

	rgba  color.RGBA
	glyph draw.GlyphDrawer
}

// Chart is a validated, renderable view of a trajectory.
type Chart struct {
	Title  string   `json:"title,omitempty"`
	Reps   int      `json:"reps"`
	Series []Series `json:"series"`

	// Final holds every agent's last credences, [hypothesis][agent].
	Final [][]float64 `json:"final"`

	HypothesisLabels []string `json:"hypothesis_labels"`
	AgentLabels      []string `json:"agent_labels"`

	legend bool
	width  vg.Length
	height vg.Length
}

// NewChart validates opts against traj and collects the selected series.
// sc supplies labels and may be nil.
func NewChart(traj *simulation.Trajectory, sc *simulation.Scenario, opts Options) (*Chart, error) {
	if traj == nil {
		return nil, fmt.Errorf("%w: no trajectory to chart", credence.ErrInvalidArgument)
	}
	n, k := traj.Hypotheses(), traj.Agents()
	if sc == nil {
		sc = &simulation.Scenario{}
	}

	markers := opts.Markers
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	colors := opts.Colors
	if len(colors) == 0 {
		colors = DefaultColors
	}

	hyps, agents := allIndices(n), allIndices(k)
	if opts.Selection != nil {
		if opts.Selection.Hypotheses != nil {
			hyps = opts.Selection.Hypotheses
		}
		if opts.Selection.Agents != nil {
			agents = opts.Selection.Agents
		}
	}
	if err := checkIndices("hypothesis", hyps, n, len(colors), "colors"); err != nil {
		return nil, err
	}
	if err := checkIndices("agent", agents, k, len(markers), "markers"); err != nil {
		return nil, err
	}

	c := &Chart{
		Title:  opts.Title,
		Reps:   traj.Reps(),
		Final:  traj.Final(),
		legend: opts.Legend,
		width:  vg.Length(orDefault(opts.Width, constants.DefaultChartWidth)) * vg.Inch,
		height: vg.Length(orDefault(opts.Height, constants.DefaultChartHeight)) * vg.Inch,
	}
	for i := 0; i < n; i++ {
		c.HypothesisLabels = append(c.HypothesisLabels, sc.HypothesisLabel(i))
	}
	for j := 0; j < k; j++ {
		c.AgentLabels = append(c.AgentLabels, sc.AgentLabel(j))
	}

	for _, h := range hyps {
		rgba, err := ParseColor(colors[h])
		if err != nil {
			return nil, err
		}
		for _, a := range agents {
			glyph, err := ParseMarker(markers[a])
			if err != nil {
				return nil, err
			}
			c.Series = append(c.Series, Series{
				Hypothesis: h,
				Agent:      a,
				Label:      fmt.Sprintf("%s / %s", c.AgentLabels[a], c.HypothesisLabels[h]),
				Color:      colors[h],
				Marker:     markers[a],
				Values:     traj.Series(h, a),
				rgba:       rgba,
				glyph:      glyph,
			})
		}
	}
	return c, nil
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func checkIndices(kind string, idx []int, limit, palette int, paletteName string) error {
	for _, i := range idx {
		if i < 0 || i >= limit {
			return fmt.Errorf("%w: %s %d outside [0, %d)", credence.ErrInvalidArgument, kind, i, limit)
		}
		if i >= palette {
			return fmt.Errorf("%w: %s %d has no entry in %d %s", credence.ErrInvalidArgument, kind, i, palette, paletteName)
		}
	}
	return nil
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

// Plot builds the gonum plot: one line per series over 0..reps.
func (c *Chart) Plot() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = "iteration of experiment"
	p.Y.Label.Text = "credence"

	for _, s := range c.Series {
		pts := make(plotter.XYs, len(s.Values))
		for t, v := range s.Values {
			pts[t].X = float64(t)
			pts[t].Y = v
		}
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, fmt.Errorf("series %s: %w", s.Label, err)
		}
		line.Color = s.rgba
		line.Width = vg.Points(1)
		points.Shape = s.glyph
		points.Color = s.rgba
		points.Radius = vg.Points(2.5)
		p.Add(line, points)
		if c.legend {
			p.Legend.Add(s.Label, line, points)
		}
	}

	// Add widens the ranges to the data, so the fixed axes go last.
	p.X.Min, p.X.Max = 0, float64(c.Reps)+0.25
	p.Y.Min, p.Y.Max = 0, 1
	p.Y.Tick.Marker = plot.ConstantTicks([]plot.Tick{
		{Value: 0, Label: "0.0"},
		{Value: 0.2, Label: "0.2"},
		{Value: 0.4, Label: "0.4"},
		{Value: 0.6, Label: "0.6"},
		{Value: 0.8, Label: "0.8"},
		{Value: 1, Label: "1.0"},
	})
	p.Legend.Top = true
	return p, nil
}

// WriteImage encodes the chart as png or svg.
func (c *Chart) WriteImage(w io.Writer, format Format) error {
	if format != FormatPNG && format != FormatSVG {
		return fmt.Errorf("%w: %q is not an image format", credence.ErrInvalidArgument, format)
	}
	p, err := c.Plot()
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(c.width, c.height, string(format))
	if err != nil {
		return fmt.Errorf("create %s writer: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	return nil
}

// SVG returns the chart as SVG text.
func (c *Chart) SVG() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.WriteImage(&buf, FormatSVG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderJSON encodes the chart's series data.
func RenderJSON(c *Chart) ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal chart: %w", err)
	}
	return data, nil
}

// Render writes c to w in format.
func Render(w io.Writer, c *Chart, format Format) error {
	switch format {
	case FormatPNG, FormatSVG:
		return c.WriteImage(w, format)
	case FormatJSON:
		data, err := RenderJSON(c)
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case FormatHTML:
		data, err := RenderHTML(c)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("%w: unknown chart format %q", credence.ErrInvalidArgument, format)
	}
}
