// Package geo encodes icebergs and glacier sites as GeoJSON feature
// collections for web maps.
//
// Coordinates are in a geographic display CRS, WGS84 longitude/latitude by
// default. Iceberg sizes are measured in the normalizer's projected working
// CRS before reprojection, so width_m and height_m are in metres.
package geo

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	geojson "github.com/paulmach/go.geojson"

	"github.com/matzehuels/icebergviz/pkg/crs"
	"github.com/matzehuels/icebergviz/pkg/iceberg"
	"github.com/matzehuels/icebergviz/pkg/render"
	"github.com/matzehuels/icebergviz/pkg/source"
)

// Icebergs encodes every drawable shape of set as a polygon feature in the
// display CRS, which must be geographic; empty means WGS84. Each shape is
// brought into n's working CRS first, so a shape without a CRS gets n's
// default and sizes are measured there. Properties:
//
//	id, capture_date, period, quartile, area_m2, width_m, height_m, color
func Icebergs(set iceberg.ShapeSet, dr source.DateRange, n *iceberg.Normalizer, display string) ([]byte, error) {
	if display == "" {
		display = crs.WGS84
	}
	p := n.Projector()
	geo, err := p.Geographic(display)
	if err != nil {
		return nil, fmt.Errorf("display CRS: %w", err)
	}
	if !geo {
		return nil, fmt.Errorf("display CRS %s is projected; GeoJSON needs longitude/latitude", display)
	}

	fc := geojson.NewFeatureCollection()
	for _, s := range set.Shapes {
		if !s.Drawable() {
			continue
		}
		working, err := n.Project(s)
		if err != nil {
			return nil, fmt.Errorf("measure %s: %w", s.ID, err)
		}
		b, err := iceberg.ComputeBounds(working)
		if err != nil {
			return nil, fmt.Errorf("measure %s: %w", s.ID, err)
		}
		area, err := iceberg.ComputeArea(working)
		if err != nil {
			return nil, fmt.Errorf("measure %s: %w", s.ID, err)
		}
		lonlat, err := p.Reproject(working.Geometry, working.CRS, display)
		if err != nil {
			return nil, fmt.Errorf("reproject %s: %w", s.ID, err)
		}

		f := polygonFeature(lonlat)
		if f == nil {
			continue
		}
		period := dr.Period(s.ID)
		f.ID = s.ID
		f.SetProperty("id", s.ID)
		f.SetProperty("capture_date", s.CaptureDate)
		f.SetProperty("period", period)
		f.SetProperty("quartile", string(s.Quartile))
		f.SetProperty("area_m2", round2(area))
		f.SetProperty("width_m", round2(b.Width()))
		f.SetProperty("height_m", round2(b.Height()))
		f.SetProperty("color", render.MapColor(period))
		fc.AddFeature(f)
	}
	return fc.MarshalJSON()
}

// Sites encodes glacier sites as point features. The site whose ID equals
// selected gets "selected": true.
func Sites(sites []source.GlacierSite, selected string) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, s := range sites {
		f := geojson.NewPointFeature([]float64{s.Lon, s.Lat})
		f.ID = s.ID
		f.SetProperty("id", s.ID)
		f.SetProperty("name", s.Name)
		f.SetProperty("region", s.Region)
		f.SetProperty("color", s.Color())
		f.SetProperty("selected", s.ID == selected)
		fc.AddFeature(f)
	}
	return fc.MarshalJSON()
}

func polygonFeature(g geom.Polygonal) *geojson.Feature {
	polys := g.Polygons()
	switch len(polys) {
	case 0:
		return nil
	case 1:
		return geojson.NewPolygonFeature(rings(polys[0]))
	}
	multi := make([][][][]float64, len(polys))
	for i, p := range polys {
		multi[i] = rings(p)
	}
	return geojson.NewMultiPolygonFeature(multi...)
}

func rings(p geom.Polygon) [][][]float64 {
	out := make([][][]float64, len(p))
	for i, ring := range p {
		coords := make([][]float64, len(ring))
		for j, pt := range ring {
			coords[j] = []float64{pt.X, pt.Y}
		}
		out[i] = coords
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
