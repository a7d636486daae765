package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/icebergviz/pkg/iceberg"
	areaio "github.com/matzehuels/icebergviz/pkg/io"
	"github.com/matzehuels/icebergviz/pkg/render"
	"github.com/matzehuels/icebergviz/pkg/render/geo"
	"github.com/matzehuels/icebergviz/pkg/render/panels"
)

// Render generates output artifacts for opts.View in the requested
// formats from a normalized result. The map view measures shapes in n's
// working CRS and writes coordinates in displayCRS (WGS84 when empty).
func Render(ctx context.Context, res *Result, opts Options, n *iceberg.Normalizer, displayCRS string) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch opts.View {
		case ViewGallery, ViewQuartiles:
			data, err = renderPanels(ctx, res, opts, format)
		case ViewMap:
			if n == nil {
				err = fmt.Errorf("map view needs a normalizer")
				break
			}
			data, err = geo.Icebergs(res.Set, opts.Dates(), n, displayCRS)
		case ViewTable:
			data, err = renderTable(res.Set, format)
		default:
			err = fmt.Errorf("unsupported view: %s", opts.View)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s %s: %w", opts.View, format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func renderPanels(ctx context.Context, res *Result, opts Options, format string) ([]byte, error) {
	if format == FormatJSON {
		return json.MarshalIndent(Summarize(res.Overlay), "", "  ")
	}

	var svg []byte
	if opts.View == ViewGallery {
		svg = panels.Gallery(res.Overlay,
			panels.WithTitle(opts.Title()),
			panels.WithEarlyDate(opts.Dates().Early))
	} else {
		svg = panels.Quartiles(res.Overlay, panels.WithTitle(opts.Title()))
	}

	switch format {
	case FormatSVG:
		return svg, nil
	case FormatPNG:
		return render.ToPNG(ctx, svg, DefaultPNGScale)
	case FormatPDF:
		return render.ToPDF(ctx, svg)
	}
	return nil, fmt.Errorf("unsupported panel format: %s", format)
}

func renderTable(set iceberg.ShapeSet, format string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatCSV:
		err = areaio.WriteCSV(set, &buf)
	case FormatJSON:
		err = areaio.WriteJSON(set, &buf)
	default:
		return nil, fmt.Errorf("unsupported table format: %s", format)
	}
	return buf.Bytes(), err
}

// OverlaySummary is the JSON form of an overlay without geometry.
type OverlaySummary struct {
	Mode      string          `json:"mode"`
	MaxWidth  float64         `json:"max_width"`
	MaxHeight float64         `json:"max_height"`
	Counts    map[string]int  `json:"counts"`
	Shapes    []PlacedSummary `json:"shapes"`
	Skipped   []string        `json:"skipped,omitempty"`
}

// PlacedSummary describes one placed shape.
type PlacedSummary struct {
	ID       string  `json:"id"`
	Quartile string  `json:"quartile,omitempty"`
	Area     float64 `json:"area_m2"`
	Rotation float64 `json:"rotation_deg"`
	Width    float64 `json:"width_m"`
	Height   float64 `json:"height_m"`
}

// Summarize converts an overlay to its JSON summary.
func Summarize(ov iceberg.Overlay) OverlaySummary {
	s := OverlaySummary{
		Mode:      string(ov.Mode),
		MaxWidth:  ov.MaxWidth,
		MaxHeight: ov.MaxHeight,
		Counts:    make(map[string]int, len(iceberg.Quartiles)),
		Shapes:    make([]PlacedSummary, len(ov.Shapes)),
		Skipped:   ov.Skipped,
	}
	for _, q := range iceberg.Quartiles {
		s.Counts[string(q)] = len(ov.Group(q))
	}
	for i, p := range ov.Shapes {
		s.Shapes[i] = PlacedSummary{
			ID:       p.ID,
			Quartile: string(p.Quartile),
			Area:     p.Area,
			Rotation: p.Rotation,
			Width:    p.Width,
			Height:   p.Height,
		}
	}
	return s
}
