package flow

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/icebergviz/pkg/render"
)

// Step is one node of a flowchart.
type Step struct {
	ID    string
	Label string
}

// Methods is the research pipeline from stereo imagery to melt rates, in
// order.
var Methods = []Step{
	{"A", "Worldview stereo images"},
	{"B", "DEMs generation by NASA Ames Stereo Pipeline (ASP)"},
	{"C", "Manual iceberg tracking"},
	{"D", "Differencing DEMs"},
	{"E", "Compute Volume Change"},
	{"F", "Subtract surface melting from volume change"},
	{"G", "Freshwater flux from submarine melting"},
	{"H", "melt rate = freshwater flux / submerged area"},
}

// Options configures flowchart rendering.
type Options struct {
	// Horizontal lays the chain out left to right instead of top to
	// bottom.
	Horizontal bool
}

// ToDOT converts a chain of steps to Graphviz DOT. Each step links to the
// next one.
func ToDOT(steps []Step, opts Options) string {
	rankdir := "TB"
	if opts.Horizontal {
		rankdir = "LR"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  node [shape=rect, style=filled, fillcolor=%s, fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n", render.Palette.Flow)
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("\n")

	for _, s := range steps {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", s.ID, s.Label)
	}

	buf.WriteString("\n")
	for i := 1; i < len(steps); i++ {
		fmt.Fprintf(&buf, "  %q -> %q;\n", steps[i-1].ID, steps[i].ID)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// MethodsSVG renders the research-method flowchart to SVG.
func MethodsSVG(ctx context.Context, opts Options) ([]byte, error) {
	return RenderSVG(ctx, ToDOT(Methods, opts))
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized root element with one
// whose viewBox starts at the origin and whose size is in pixels.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// Labels returns the step labels in order.
func Labels(steps []Step) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		parts[i] = s.Label
	}
	return strings.Join(parts, " → ")
}
