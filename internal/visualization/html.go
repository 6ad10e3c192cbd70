package visualization

import (
	"bytes"
	"fmt"
	"html/template"
	"image/color"
)

type htmlRow struct {
	Label  string
	Color  template.CSS
	Values []float64
}

// htmlTemplateData holds data passed to the HTML template.
// SVG is produced by gonum/plot from numeric data and labels it escapes itself.
type htmlTemplateData struct {
	Title  string
	Reps   int
	SVG    template.HTML
	Agents []string
	Rows   []htmlRow

	// Live adds a seed form that re-runs the scenario through the preview
	// server's /chart.svg and /api/simulate routes.
	Live bool
	Seed uint64
}

// RenderHTML produces a self-contained page with the chart inlined as SVG
// and a table of final credences.
func RenderHTML(c *Chart) ([]byte, error) {
	return renderHTML(c, htmlTemplateData{})
}

func renderHTML(c *Chart, data htmlTemplateData) ([]byte, error) {
	svg, err := c.SVG()
	if err != nil {
		return nil, fmt.Errorf("render svg: %w", err)
	}

	tmplBytes, err := templates.ReadFile("templates/chart.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("read HTML template: %w", err)
	}
	tmpl, err := template.New("chart").Parse(string(tmplBytes))
	if err != nil {
		return nil, fmt.Errorf("parse HTML template: %w", err)
	}

	data.Title = c.Title
	data.Reps = c.Reps
	data.SVG = template.HTML(stripXMLHeader(svg)) // #nosec G203
	data.Agents = c.AgentLabels
	for i, row := range c.Final {
		r := htmlRow{Label: c.HypothesisLabels[i], Values: row, Color: "#ccc"}
		if col, ok := c.hypothesisColor(i); ok {
			r.Color = template.CSS(cssColor(col)) // #nosec G203
		}
		data.Rows = append(data.Rows, r)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute HTML template: %w", err)
	}
	return buf.Bytes(), nil
}

// hypothesisColor returns the color used for hypothesis i, if it is drawn.
func (c *Chart) hypothesisColor(i int) (color.RGBA, bool) {
	for _, s := range c.Series {
		if s.Hypothesis == i {
			return s.rgba, true
		}
	}
	return color.RGBA{}, false
}

// stripXMLHeader drops the <?xml ...?> prolog so the SVG can be inlined.
func stripXMLHeader(svg []byte) []byte {
	if bytes.HasPrefix(svg, []byte("<?xml")) {
		if i := bytes.Index(svg, []byte("?>")); i >= 0 {
			svg = bytes.TrimLeft(svg[i+2:], "\r\n")
		}
	}
	return svg
}
