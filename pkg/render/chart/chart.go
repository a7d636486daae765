// Package chart draws the tabular figures: the melt-rate correlogram and
// the per-site data coverage bars.
package chart

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/matzehuels/icebergviz/pkg/meltrate"
	"github.com/matzehuels/icebergviz/pkg/render"
	"github.com/matzehuels/icebergviz/pkg/source"
)

// Coverage chart labels.
const (
	CoverageTitle  = "Data distribution for Greenland Glacier study sites"
	CoverageXLabel = "Study site"
	CoverageYLabel = "Corresponding Icebergs"
)

// Option configures a chart.
type Option func(*options)

type options struct {
	title string
	cell  float64
	bar   float64
}

// WithTitle replaces the default chart title.
func WithTitle(s string) Option { return func(o *options) { o.title = s } }

// WithCellSize sets the correlogram cell edge in pixels.
func WithCellSize(px float64) Option { return func(o *options) { o.cell = px } }

// WithBarWidth sets the coverage bar slot width in pixels.
func WithBarWidth(px float64) Option { return func(o *options) { o.bar = px } }

func newOptions(opts []Option) options {
	o := options{cell: 64, bar: 36}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// =============================================================================
// Correlogram
// =============================================================================

// Correlogram draws m as an annotated heatmap on a blue-red diverging
// scale from -1 to 1, with a color bar. NaN cells are left blank.
func Correlogram(m meltrate.Matrix, opts ...Option) []byte {
	o := newOptions(opts)
	n := len(m.Labels)

	const left, top, right, bottom = 150.0, 48.0, 90.0, 150.0
	size := o.cell * float64(n)
	width := left + size + right
	height := top + size + bottom

	c := render.NewCanvas(width, height)
	if o.title != "" {
		c.Text(width/2, 28, 16, "middle", 0, o.title)
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := m.At(i, j)
			x, y := left+float64(j)*o.cell, top+float64(i)*o.cell
			c.Rect(x, y, o.cell, o.cell, render.CoolWarm(v), render.Palette.Background, 1)
			if math.IsNaN(v) {
				continue
			}
			c.Text(x+o.cell/2, y+o.cell/2+4, 11, "middle", 0, fmt.Sprintf("%.2f", v))
		}
	}
	for i, label := range m.Labels {
		mid := float64(i)*o.cell + o.cell/2
		c.Text(left-6, top+mid+4, 11, "end", 0, label)
		x, y := left+mid, top+size+10
		c.Text(x, y, 11, "end", -45, label)
	}

	colorBar(c, left+size+24, top, size)
	return c.Bytes()
}

func colorBar(c *render.Canvas, x, top, height float64) {
	const steps, barWidth = 40, 16.0
	step := height / steps
	for i := 0; i < steps; i++ {
		v := 1 - 2*(float64(i)+0.5)/steps
		c.Rect(x, top+float64(i)*step, barWidth, step+0.5, render.CoolWarm(v), "none", 0)
	}
	c.Rect(x, top, barWidth, height, "none", render.Palette.Outline, 1)
	for _, v := range []float64{1, 0.5, 0, -0.5, -1} {
		y := top + (1-v)/2*height
		c.Line(x+barWidth, y, x+barWidth+4, y, render.Palette.Outline, 1)
		c.Text(x+barWidth+7, y+4, 10, "start", 0, render.FormatTick(v))
	}
}

// =============================================================================
// Coverage
// =============================================================================

// Coverage draws one vertical bar per date pairing, sorted by ascending
// iceberg count and shaded from light to dark blue between the smallest
// and largest count.
func Coverage(pairs []source.DatePairing, opts ...Option) []byte {
	o := newOptions(opts)
	if o.title == "" {
		o.title = CoverageTitle
	}

	pairs = slices.Clone(pairs)
	slices.SortStableFunc(pairs, func(a, b source.DatePairing) int { return cmp.Compare(a.Icebergs, b.Icebergs) })

	const left, top, right, bottom, plotHeight = 72.0, 56.0, 24.0, 120.0, 320.0
	plotWidth := math.Max(o.bar, o.bar*float64(len(pairs)))
	width := left + plotWidth + right
	height := top + plotHeight + bottom

	c := render.NewCanvas(width, height)
	c.Text(width/2, 28, 16, "middle", 0, o.title)

	lo, hi := countRange(pairs)
	ymax := hi
	if ymax <= 0 {
		ymax = 1
	}
	ticks := render.NiceTicks(ymax, 5)
	ymax = math.Max(ymax, ticks[len(ticks)-1])
	yOf := func(v float64) float64 { return top + plotHeight - v/ymax*plotHeight }

	for _, v := range ticks {
		y := yOf(v)
		c.Line(left, y, left+plotWidth, y, render.Palette.Grid, 1)
		c.Line(left-4, y, left, y, render.Palette.Outline, 1)
		c.Text(left-7, y+4, 10, "end", 0, render.FormatTick(v))
	}

	for i, p := range pairs {
		t := 0.0
		if hi > lo {
			t = (float64(p.Icebergs) - lo) / (hi - lo)
		}
		slot := left + float64(i)*o.bar
		barW := o.bar * 0.8
		x := slot + (o.bar-barW)/2
		y := yOf(float64(p.Icebergs))
		c.Printf(`  <g class="bar" data-name="%s" data-icebergs="%d">`+"\n", render.EscapeXML(p.Name), p.Icebergs)
		c.Rect(x, y, barW, top+plotHeight-y, render.Blues(t), render.Palette.Outline, 1)
		c.Printf("  </g>\n")
		c.Text(slot+o.bar/2, top+plotHeight+14, 10, "end", -45, p.Name)
	}

	c.Line(left, top+plotHeight, left+plotWidth, top+plotHeight, render.Palette.Outline, 1)
	c.Line(left, top, left, top+plotHeight, render.Palette.Outline, 1)
	c.Text(left+plotWidth/2, height-16, 12, "middle", 0, CoverageXLabel)
	c.Text(20, top+plotHeight/2, 12, "middle", -90, CoverageYLabel)
	return c.Bytes()
}

func countRange(pairs []source.DatePairing) (lo, hi float64) {
	if len(pairs) == 0 {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range pairs {
		lo = math.Min(lo, float64(p.Icebergs))
		hi = math.Max(hi, float64(p.Icebergs))
	}
	return lo, hi
}
