// Package flow renders the research-method flowchart with Graphviz.
//
// The chart is a single chain of rectangular steps:
//
//	dot := flow.ToDOT(flow.Methods, flow.Options{})
//	svg, err := flow.RenderSVG(ctx, dot)
//
// [ToDOT] output can also be saved and processed with external Graphviz
// tools. Rendering uses [github.com/goccy/go-graphviz] in process; PDF and
// PNG conversion goes through [render.ToPDF] and [render.ToPNG].
//
// [render.ToPDF]: github.com/matzehuels/icebergviz/pkg/render.ToPDF
// [render.ToPNG]: github.com/matzehuels/icebergviz/pkg/render.ToPNG
package flow
