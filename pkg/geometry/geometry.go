// Package geometry implements the planar algorithms used to compare iceberg
// outlines: extents, areas, minimum-area rectangles, validity checks and
// affine moves.
//
// Geometries are [github.com/ctessum/geom] polygonal values in a projected
// coordinate system, the type shapefiles decode into. The algorithms
// themselves run on [github.com/peterstace/simplefeatures/geom]; values are
// converted at the package boundary. Every function here is pure: inputs
// are never mutated and moved geometries are returned as new values.
package geometry

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	sf "github.com/peterstace/simplefeatures/geom"
)

// Points returns every ring vertex of g in ring order.
func Points(g geom.Polygonal) []geom.Point {
	if g == nil {
		return nil
	}
	var pts []geom.Point
	for _, poly := range g.Polygons() {
		for _, ring := range poly {
			pts = append(pts, ring...)
		}
	}
	return pts
}

// IsEmpty reports whether g is nil or has no vertices.
func IsEmpty(g geom.Polygonal) bool {
	return len(Points(g)) == 0
}

// Extent returns the axis-aligned bounds of g. ok is false when g has no
// vertices.
func Extent(g geom.Polygonal) (b geom.Bounds, ok bool) {
	if IsEmpty(g) {
		return geom.Bounds{}, false
	}
	lo, hi, ok := toMulti(g).Envelope().MinMaxXYs()
	if !ok {
		return geom.Bounds{}, false
	}
	return geom.Bounds{
		Min: geom.Point{X: lo.X, Y: lo.Y},
		Max: geom.Point{X: hi.X, Y: hi.Y},
	}, true
}

// Area returns the unsigned area of g, holes subtracted.
func Area(g geom.Polygonal) float64 {
	if g == nil {
		return 0
	}
	return toMulti(g).Area()
}

// Centroid returns the area-weighted centroid of g. Zero-area input falls
// back to the mean of its vertices.
func Centroid(g geom.Polygonal) geom.Point {
	if mp := toMulti(g); mp.Area() > 0 {
		if xy, ok := mp.Centroid().XY(); ok && !math.IsNaN(xy.X) && !math.IsNaN(xy.Y) {
			return geom.Point{X: xy.X, Y: xy.Y}
		}
	}

	pts := Points(g)
	if len(pts) == 0 {
		return geom.Point{}
	}
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	n := float64(len(pts))
	return geom.Point{X: cx / n, Y: cy / n}
}

// Translate moves g by (dx, dy).
func Translate(g geom.Polygonal, dx, dy float64) geom.Polygonal {
	return transformXY(g, func(p sf.XY) sf.XY {
		return sf.XY{X: p.X + dx, Y: p.Y + dy}
	})
}

// Rotate rotates g counter-clockwise by degrees about origin.
func Rotate(g geom.Polygonal, degrees float64, origin geom.Point) geom.Polygonal {
	sin, cos := math.Sincos(degrees * math.Pi / 180)
	return transformXY(g, func(p sf.XY) sf.XY {
		dx, dy := p.X-origin.X, p.Y-origin.Y
		return sf.XY{X: origin.X + dx*cos - dy*sin, Y: origin.Y + dx*sin + dy*cos}
	})
}

// Transform applies fn to every vertex of g, keeping the concrete
// polygonal type. The first error from fn aborts the transform.
func Transform(g geom.Polygonal, fn func(x, y float64) (float64, float64, error)) (geom.Polygonal, error) {
	return mapPolygons(g, func(p sf.Polygon) (sf.Polygon, error) {
		return p.Transform(func(ct sf.CoordinatesType, coords []float64) error {
			stride := ct.Dimension()
			for i := 0; i+1 < len(coords); i += stride {
				x, y, err := fn(coords[i], coords[i+1])
				if err != nil {
					return err
				}
				coords[i], coords[i+1] = x, y
			}
			return nil
		})
	})
}

func transformXY(g geom.Polygonal, fn func(sf.XY) sf.XY) geom.Polygonal {
	out, _ := mapPolygons(g, func(p sf.Polygon) (sf.Polygon, error) {
		return p.TransformXY(fn), nil
	})
	return out
}

// mapPolygons runs fn over each polygon of g. A Polygon stays a Polygon and
// anything else comes back as a MultiPolygon.
func mapPolygons(g geom.Polygonal, fn func(sf.Polygon) (sf.Polygon, error)) (geom.Polygonal, error) {
	if g == nil {
		return nil, nil
	}
	if p, ok := g.(geom.Polygon); ok {
		out, err := fn(toSimple(p))
		if err != nil {
			return nil, err
		}
		return fromSimple(out), nil
	}
	polys := g.Polygons()
	out := make(geom.MultiPolygon, len(polys))
	for i, p := range polys {
		q, err := fn(toSimple(p))
		if err != nil {
			return nil, fmt.Errorf("polygon %d: %w", i, err)
		}
		out[i] = fromSimple(q)
	}
	return out, nil
}

func toSimple(p geom.Polygon) sf.Polygon {
	rings := make([]sf.LineString, len(p))
	for i, ring := range p {
		coords := make([]float64, 0, 2*len(ring))
		for _, pt := range ring {
			coords = append(coords, pt.X, pt.Y)
		}
		rings[i] = sf.NewLineString(sf.NewSequence(coords, sf.DimXY))
	}
	return sf.NewPolygon(rings)
}

func fromSimple(p sf.Polygon) geom.Polygon {
	seqs := p.Coordinates()
	out := make(geom.Polygon, len(seqs))
	for i, seq := range seqs {
		ring := make([]geom.Point, seq.Length())
		for j := range ring {
			xy := seq.GetXY(j)
			ring[j] = geom.Point{X: xy.X, Y: xy.Y}
		}
		out[i] = ring
	}
	return out
}

func toMulti(g geom.Polygonal) sf.MultiPolygon {
	if g == nil {
		return sf.MultiPolygon{}
	}
	polys := g.Polygons()
	out := make([]sf.Polygon, len(polys))
	for i, p := range polys {
		out[i] = toSimple(p)
	}
	return sf.NewMultiPolygon(out)
}
