package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
)

// FontFamily is used for every text element.
const FontFamily = "Helvetica, Arial, sans-serif"

// Canvas accumulates one SVG document.
type Canvas struct {
	buf    bytes.Buffer
	Width  float64
	Height float64
}

// NewCanvas starts a document of the given pixel size on a white
// background.
func NewCanvas(width, height float64) *Canvas {
	c := &Canvas{Width: width, Height: height}
	fmt.Fprintf(&c.buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f" font-family="%s">`+"\n",
		width, height, width, height, FontFamily)
	fmt.Fprintf(&c.buf, `  <rect x="0" y="0" width="%.1f" height="%.1f" fill="%s"/>`+"\n", width, height, Palette.Background)
	return c
}

// Printf writes raw SVG.
func (c *Canvas) Printf(format string, args ...any) {
	fmt.Fprintf(&c.buf, format, args...)
}

// Text writes a text element. anchor is start, middle or end; a non-zero
// rotate turns the text about (x, y).
func (c *Canvas) Text(x, y, size float64, anchor string, rotate float64, s string) {
	transform := ""
	if rotate != 0 {
		transform = fmt.Sprintf(` transform="rotate(%.1f %.1f %.1f)"`, rotate, x, y)
	}
	fmt.Fprintf(&c.buf, `  <text x="%.1f" y="%.1f" font-size="%.1f" text-anchor="%s" fill="%s"%s>%s</text>`+"\n",
		x, y, size, anchor, Palette.Text, transform, EscapeXML(s))
}

// Rect writes a rectangle.
func (c *Canvas) Rect(x, y, w, h float64, fill, stroke string, strokeWidth float64) {
	fmt.Fprintf(&c.buf, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s" stroke-width="%.1f"/>`+"\n",
		x, y, w, h, fill, stroke, strokeWidth)
}

// Line writes a line segment.
func (c *Canvas) Line(x1, y1, x2, y2 float64, stroke string, width float64) {
	fmt.Fprintf(&c.buf, `  <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%.1f"/>`+"\n",
		x1, y1, x2, y2, stroke, width)
}

// Bytes closes the document and returns it.
func (c *Canvas) Bytes() []byte {
	c.buf.WriteString("</svg>\n")
	return c.buf.Bytes()
}

// EscapeXML escapes s for use in SVG text and attribute values.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// Axes maps data coordinates in [0, XMax] x [0, YMax] onto a pixel area
// with the y axis pointing up. Both axes share one scale so shapes keep
// their proportions; the plot area is anchored at the bottom-left of the
// box it was fitted into.
type Axes struct {
	Left, Top     float64
	Width, Height float64
	XMax, YMax    float64
	scale         float64
}

// FitAxes fits the extent [0, xmax] x [0, ymax] into the pixel box at
// (left, top) of size width x height. A non-positive extent is treated
// as 1.
func FitAxes(left, top, width, height, xmax, ymax float64) Axes {
	if !(xmax > 0) {
		xmax = 1
	}
	if !(ymax > 0) {
		ymax = 1
	}
	s := math.Min(width/xmax, height/ymax)
	w, h := xmax*s, ymax*s
	return Axes{
		Left:   left,
		Top:    top + height - h,
		Width:  w,
		Height: h,
		XMax:   xmax,
		YMax:   ymax,
		scale:  s,
	}
}

// X maps a data x coordinate to pixels.
func (a Axes) X(x float64) float64 { return a.Left + x*a.scale }

// Y maps a data y coordinate to pixels.
func (a Axes) Y(y float64) float64 { return a.Top + a.Height - y*a.scale }

// Draw writes the frame, ticks and axis labels.
func (a Axes) Draw(c *Canvas, xlabel, ylabel string) {
	c.Rect(a.Left, a.Top, a.Width, a.Height, "none", Palette.Outline, 1)
	const tick, font = 4.0, 10.0
	for _, v := range NiceTicks(a.XMax, 4) {
		x := a.X(v)
		c.Line(x, a.Top+a.Height, x, a.Top+a.Height+tick, Palette.Outline, 1)
		c.Text(x, a.Top+a.Height+tick+font+1, font, "middle", 0, FormatTick(v))
	}
	for _, v := range NiceTicks(a.YMax, 4) {
		y := a.Y(v)
		c.Line(a.Left-tick, y, a.Left, y, Palette.Outline, 1)
		c.Text(a.Left-tick-2, y+font/3, font, "end", 0, FormatTick(v))
	}
	if xlabel != "" {
		c.Text(a.Left+a.Width/2, a.Top+a.Height+tick+2*font+8, font+1, "middle", 0, xlabel)
	}
	if ylabel != "" {
		x, y := a.Left-48, a.Top+a.Height/2
		c.Text(x, y, font+1, "middle", -90, ylabel)
	}
}

// PolygonPath returns SVG path data for every ring of g. Use it with
// fill-rule="evenodd" so holes stay open.
func PolygonPath(g geom.Polygonal, a Axes) string {
	if g == nil {
		return ""
	}
	var b strings.Builder
	for _, poly := range g.Polygons() {
		for _, ring := range poly {
			for i, p := range ring {
				cmd := "L"
				if i == 0 {
					cmd = "M"
				}
				fmt.Fprintf(&b, "%s%.2f %.2f ", cmd, a.X(p.X), a.Y(p.Y))
			}
			if len(ring) > 0 {
				b.WriteString("Z ")
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// NiceTicks returns about n evenly spaced round tick values from 0 up to
// and including limit.
func NiceTicks(limit float64, n int) []float64 {
	if !(limit > 0) || n < 1 {
		return []float64{0}
	}
	step := niceStep(limit / float64(n))
	var ticks []float64
	for i := 0; ; i++ {
		v := float64(i) * step
		if v > limit*(1+1e-9) {
			break
		}
		ticks = append(ticks, v)
	}
	return ticks
}

func niceStep(raw float64) float64 {
	exp := math.Pow(10, math.Floor(math.Log10(raw)))
	switch f := raw / exp; {
	case f <= 1:
		return exp
	case f <= 2:
		return 2 * exp
	case f <= 5:
		return 5 * exp
	}
	return 10 * exp
}

// FormatTick formats a tick value without trailing zeros.
func FormatTick(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e6)/1e6, 'f', -1, 64)
}

// FormatArea formats an area in square metres with thousands separators.
func FormatArea(v float64) string {
	s := strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String() + " m²"
	}
	return b.String() + " m²"
}
