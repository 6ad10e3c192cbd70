package visualization

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/nvandessel/washout/internal/credence"
	"gonum.org/v1/plot/vg/draw"
)

// DefaultMarkers are the per-agent marker codes used when none are given.
var DefaultMarkers = []string{"s", "o", "+", "1"}

// DefaultColors are the per-hypothesis colors used when none are given.
var DefaultColors = []string{"red", "blue", "green", "yellow", "black"}

// glyphs maps marker codes to plot glyphs. The codes follow the usual
// single-character plotting conventions.
var glyphs = map[string]draw.GlyphDrawer{
	"s": draw.BoxGlyph{},
	"S": draw.SquareGlyph{},
	"o": draw.CircleGlyph{},
	"O": draw.RingGlyph{},
	"+": draw.PlusGlyph{},
	"x": draw.CrossGlyph{},
	"1": draw.TriangleGlyph{},
	"^": draw.PyramidGlyph{},
}

// namedColors maps color names to RGB values.
var namedColors = map[string]color.RGBA{
	"red":     {R: 0xff, A: 0xff},
	"blue":    {B: 0xff, A: 0xff},
	"green":   {G: 0x80, A: 0xff},
	"yellow":  {R: 0xff, G: 0xd7, A: 0xff},
	"black":   {A: 0xff},
	"cyan":    {G: 0xbf, B: 0xbf, A: 0xff},
	"magenta": {R: 0xbf, B: 0xbf, A: 0xff},
	"orange":  {R: 0xff, G: 0xa5, A: 0xff},
	"purple":  {R: 0x80, B: 0x80, A: 0xff},
	"gray":    {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
	"grey":    {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
	"brown":   {R: 0xa5, G: 0x2a, B: 0x2a, A: 0xff},
}

// ParseMarker returns the glyph for a marker code.
func ParseMarker(code string) (draw.GlyphDrawer, error) {
	g, ok := glyphs[code]
	if !ok {
		return nil, fmt.Errorf("%w: unknown marker %q", credence.ErrInvalidArgument, code)
	}
	return g, nil
}

// ParseColor accepts a color name or a #rrggbb hex triple.
func ParseColor(s string) (color.RGBA, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[name]; ok {
		return c, nil
	}
	if len(name) == 7 && name[0] == '#' {
		v, err := strconv.ParseUint(name[1:], 16, 32)
		if err == nil {
			return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
		}
	}
	return color.RGBA{}, fmt.Errorf("%w: unknown color %q", credence.ErrInvalidArgument, s)
}

// cssColor renders c for HTML output.
func cssColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
