// Package render turns normalized iceberg sets and their side tables into
// figures.
//
// # Overview
//
// The figures are plain SVG documents written with the helpers in this
// package ([Canvas], [Axes], [PolygonPath]) and the shared [Palette]:
//
//   - [panels]: one panel per iceberg (gallery) and the 2x2 quartile overlay
//   - [chart]: melt-rate correlogram and per-site coverage bars
//   - [geo]: GeoJSON feature collections for web maps
//   - [flow]: the research-method flowchart, laid out by Graphviz
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG to other formats using the external
// rsvg-convert tool (from librsvg).
//
//	svg := panels.Quartiles(overlay)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// [panels]: github.com/matzehuels/icebergviz/pkg/render/panels
// [chart]: github.com/matzehuels/icebergviz/pkg/render/chart
// [geo]: github.com/matzehuels/icebergviz/pkg/render/geo
// [flow]: github.com/matzehuels/icebergviz/pkg/render/flow
package render
