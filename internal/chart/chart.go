// Package chart paints the nutrition pyramid as a donut chart and maps
// pointer input back onto its wedges.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/pagoda/internal/pyramid"
)

// ErrNoChart is returned when there is nothing to draw.
var ErrNoChart = errors.New("no chart: pyramid has no charted values")

// Format selects the output encoding.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat accepts "png" or "svg"; empty defaults to png.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return FormatPNG, nil
	case "svg":
		return FormatSVG, nil
	}
	return "", fmt.Errorf("unsupported chart format %q", s)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

func (f Format) provider() chart.RendererProvider {
	if f == FormatSVG {
		return chart.SVG
	}
	return chart.PNG
}

// arcStep is the angular resolution of a wedge outline in degrees.
const arcStep = 1.0

// minLabelPercent hides wedge labels that would not fit.
const minLabelPercent = 4.0

// Options controls the decorations around the ring.
type Options struct {
	Format Format
	Title  string
	Oil    float64
	Salt   float64
}

var (
	textDark   = drawing.ColorFromHex("374151") // gray-700
	textMuted  = drawing.ColorFromHex("6b7280") // gray-500
	background = drawing.ColorWhite
)

// Render paints the slices as a donut using g for size and radii.
func Render(w io.Writer, slices []pyramid.Slice, g Geometry, opts Options) error {
	if len(slices) == 0 {
		return ErrNoChart
	}
	g = g.normalized()

	r, err := opts.Format.provider()(g.Width, g.Height)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	if opts.Format == FormatSVG {
		r = escapedText{r}
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("failed to load font: %w", err)
	}
	r.SetFont(font)

	fillRect(r, 0, 0, g.Width, g.Height, background)

	cx, cy := g.Center()
	inner, outer := g.InnerRadius(), g.OuterRadius()

	for _, s := range slices {
		r.SetFillColor(drawing.ColorFromHex(s.Color))
		r.SetStrokeColor(background)
		r.SetStrokeWidth(2)
		pts := wedge(cx, cy, inner, outer, s.StartAngle, s.EndAngle)
		r.MoveTo(pts[0][0], pts[0][1])
		for _, p := range pts[1:] {
			r.LineTo(p[0], p[1])
		}
		r.Close()
		r.FillStroke()
	}

	r.SetFontSize(12)
	r.SetFontColor(background)
	for _, s := range slices {
		if s.Percent() < minLabelPercent {
			continue
		}
		x, y := pyramid.PointAt(cx, cy, (inner+outer)/2, s.MidAngle())
		drawCentered(r, wedgeLabel(s), x, y)
	}

	if opts.Title != "" {
		r.SetFontSize(16)
		r.SetFontColor(textDark)
		drawCentered(r, opts.Title, cx, cy)
	}

	drawLegend(r, slices)

	if opts.Oil > 0 || opts.Salt > 0 {
		r.SetFontSize(11)
		r.SetFontColor(textMuted)
		caption := fmt.Sprintf("Oil %.1fg   Salt %.1fg", pyramid.Clamp(opts.Oil), pyramid.Clamp(opts.Salt))
		box := r.MeasureText(caption)
		r.Text(caption, g.Width-box.Width()-10, g.Height-10)
	}

	if err := r.Save(w); err != nil {
		return fmt.Errorf("chart render failed: %w", err)
	}
	return nil
}

// RenderBytes renders into memory.
func RenderBytes(slices []pyramid.Slice, g Geometry, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, slices, g, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// wedge returns the closed outline of a ring segment: the outer arc from
// start to end followed by the inner arc back from end to start.
func wedge(cx, cy, inner, outer, start, end float64) [][2]int {
	steps := int(math.Ceil((end - start) / arcStep))
	if steps < 2 {
		steps = 2
	}
	pts := make([][2]int, 0, 2*(steps+1))
	for i := 0; i <= steps; i++ {
		deg := start + (end-start)*float64(i)/float64(steps)
		x, y := pyramid.PointAt(cx, cy, outer, deg)
		pts = append(pts, [2]int{round(x), round(y)})
	}
	for i := steps; i >= 0; i-- {
		deg := start + (end-start)*float64(i)/float64(steps)
		x, y := pyramid.PointAt(cx, cy, inner, deg)
		pts = append(pts, [2]int{round(x), round(y)})
	}
	return pts
}

func drawLegend(r chart.Renderer, slices []pyramid.Slice) {
	const (
		left   = 10
		top    = 10
		swatch = 10
		row    = 16
	)
	r.SetFontSize(10)
	r.SetFontColor(textDark)
	for i, s := range slices {
		y := top + i*row
		fillRect(r, left, y, swatch, swatch, drawing.ColorFromHex(s.Color))
		r.Text(fmt.Sprintf("%s %.0fg", s.Label, s.Value), left+swatch+6, y+swatch)
	}
}

// escapedText escapes text for the SVG renderer, which writes it into the
// document verbatim.
type escapedText struct {
	chart.Renderer
}

func (e escapedText) Text(body string, x, y int) {
	e.Renderer.Text(html.EscapeString(body), x, y)
}

func fillRect(r chart.Renderer, x, y, w, h int, c drawing.Color) {
	r.SetFillColor(c)
	r.SetStrokeColor(c)
	r.SetStrokeWidth(0)
	r.MoveTo(x, y)
	r.LineTo(x+w, y)
	r.LineTo(x+w, y+h)
	r.LineTo(x, y+h)
	r.Close()
	r.Fill()
}

// wedgeLabel is the text drawn at a wedge's mid-angle.
func wedgeLabel(s pyramid.Slice) string {
	return fmt.Sprintf("%s %.0f%%", s.Label, s.Percent())
}

func drawCentered(r chart.Renderer, text string, x, y float64) {
	box := r.MeasureText(text)
	r.Text(text, round(x)-box.Width()/2, round(y)+box.Height()/2)
}

func round(v float64) int {
	return int(math.Round(v))
}
