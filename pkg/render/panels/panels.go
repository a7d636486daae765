// Package panels draws overlays of normalized iceberg outlines as SVG.
//
// Every panel of a figure uses the overlay's shared extent, so a small
// iceberg looks small next to a large one:
//
//	ov, _ := iceberg.BuildOverlay(set, iceberg.ModeTranslatedOnly)
//	svg := panels.Quartiles(ov)
package panels

import (
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/icebergviz/pkg/iceberg"
	"github.com/matzehuels/icebergviz/pkg/render"
)

// Layout constants in pixels.
const (
	defaultPanelSize = 300.0
	defaultColumns   = 3
	marginLeft       = 64.0
	marginRight      = 16.0
	marginTop        = 44.0
	marginBottom     = 52.0
	titleSize        = 13.0
	headerHeight     = 36.0
)

// Option configures a figure.
type Option func(*options)

type options struct {
	panelSize float64
	columns   int
	title     string
	early     string
}

// WithPanelSize sets the plot area edge length of each panel.
func WithPanelSize(px float64) Option { return func(o *options) { o.panelSize = px } }

// WithColumns sets the number of gallery columns.
func WithColumns(n int) Option { return func(o *options) { o.columns = n } }

// WithTitle adds a figure title.
func WithTitle(s string) Option { return func(o *options) { o.title = s } }

// WithEarlyDate sets the early capture date (YYYYMMDD) used to color
// gallery panels. A shape captured on that date, or whose ID contains it,
// is drawn in the early color and every other shape in the later color.
func WithEarlyDate(date string) Option {
	return func(o *options) { o.early = date }
}

func newOptions(opts []Option) options {
	o := options{panelSize: defaultPanelSize, columns: defaultColumns}
	for _, opt := range opts {
		opt(&o)
	}
	if o.panelSize <= 0 {
		o.panelSize = defaultPanelSize
	}
	if o.columns <= 0 {
		o.columns = defaultColumns
	}
	return o
}

func (o options) period(p iceberg.Placed) string {
	if o.early != "" && (p.CaptureDate == o.early || strings.Contains(p.ID, o.early)) {
		return "early"
	}
	return "later"
}

// cell is one panel slot.
type cell struct {
	x, y float64
	size float64
}

func (c cell) axes(ov iceberg.Overlay) render.Axes {
	return render.FitAxes(c.x+marginLeft, c.y+marginTop, c.size, c.size, ov.MaxWidth, ov.MaxHeight)
}

func grid(n, columns int, size, top float64) (cells []cell, width, height float64) {
	rows := int(math.Ceil(float64(n) / float64(columns)))
	cw := marginLeft + size + marginRight
	ch := marginTop + size + marginBottom
	for i := 0; i < n; i++ {
		cells = append(cells, cell{
			x:    float64(i%columns) * cw,
			y:    top + float64(i/columns)*ch,
			size: size,
		})
	}
	cols := min(n, columns)
	return cells, math.Max(1, float64(cols)) * cw, top + math.Max(1, float64(rows))*ch
}

func drawShape(c *render.Canvas, p iceberg.Placed, a render.Axes, fill string, opacity float64) {
	d := render.PolygonPath(p.Geometry, a)
	if d == "" {
		return
	}
	c.Printf(`  <path id="%s" d="%s" fill="%s" fill-opacity="%.2f" fill-rule="evenodd" stroke="%s" stroke-width="1.5"><title>%s</title></path>`+"\n",
		render.EscapeXML(p.ID), d, fill, opacity, render.Palette.Outline, render.EscapeXML(p.ID))
}

// Gallery draws every placed shape in its own panel, arranged in columns.
func Gallery(ov iceberg.Overlay, opts ...Option) []byte {
	o := newOptions(opts)
	top := 0.0
	if o.title != "" {
		top = headerHeight
	}
	cells, width, height := grid(len(ov.Shapes), o.columns, o.panelSize, top)

	c := render.NewCanvas(width, height)
	if o.title != "" {
		c.Text(width/2, 24, titleSize+3, "middle", 0, o.title)
	}
	for i, p := range ov.Shapes {
		cl := cells[i]
		a := cl.axes(ov)
		c.Text(cl.x+marginLeft+cl.size/2, cl.y+16, titleSize, "middle", 0, p.ID)
		c.Text(cl.x+marginLeft+cl.size/2, cl.y+32, titleSize-2, "middle", 0, "Area: "+render.FormatArea(p.Area))
		drawShape(c, p, a, render.PeriodFill(o.period(p)), 0.8)
		a.Draw(c, "Width (m)", "Height (m)")
	}
	return c.Bytes()
}

// Quartiles draws a 2x2 figure with one panel per quartile. Each panel
// overlays every shape of its quartile in the quartile color.
func Quartiles(ov iceberg.Overlay, opts ...Option) []byte {
	o := newOptions(opts)
	top := 0.0
	if o.title != "" {
		top = headerHeight
	}
	cells, width, height := grid(len(iceberg.Quartiles), 2, o.panelSize, top)

	c := render.NewCanvas(width, height)
	if o.title != "" {
		c.Text(width/2, 24, titleSize+3, "middle", 0, o.title)
	}
	for i, q := range iceberg.Quartiles {
		cl := cells[i]
		a := cl.axes(ov)
		group := ov.Group(q)
		c.Text(cl.x+marginLeft+cl.size/2, cl.y+20, titleSize, "middle", 0, fmt.Sprintf("Quartile %s", q))
		c.Printf(`  <g class="quartile" id="quartile-%s" data-count="%d">`+"\n", q, len(group))
		for _, p := range group {
			drawShape(c, p, a, render.QuartileColors[q], render.QuartileOpacity)
		}
		c.Printf("  </g>\n")
		a.Draw(c, "Width (m)", "Height (m)")
	}
	return c.Bytes()
}
