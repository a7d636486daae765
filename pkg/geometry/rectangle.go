package geometry

import (
	"errors"
	"math"

	"github.com/ctessum/geom"
	sf "github.com/peterstace/simplefeatures/geom"
)

// ErrDegenerate is returned when a point set spans no area.
var ErrDegenerate = errors.New("degenerate geometry: points are collinear or coincident")

// Rectangle is a rotated rectangle given by its four corners in
// counter-clockwise order, starting from the leftmost corner (the lower
// one when two share the least x).
type Rectangle [4]geom.Point

// Edges returns the four edge vectors c[i+1]-c[i], the closing edge last.
// The first edge points right and down, the second right and up.
func (r Rectangle) Edges() [4]geom.Point {
	var e [4]geom.Point
	for i := range r {
		next := r[(i+1)%4]
		e[i] = geom.Point{X: next.X - r[i].X, Y: next.Y - r[i].Y}
	}
	return e
}

// Area returns the rectangle area.
func (r Rectangle) Area() float64 {
	e := r.Edges()
	return math.Hypot(e[0].X, e[0].Y) * math.Hypot(e[1].X, e[1].Y)
}

// Polygon returns the rectangle as a closed polygon.
func (r Rectangle) Polygon() geom.Polygon {
	return geom.Polygon{{r[0], r[1], r[2], r[3], r[0]}}
}

// edgeTolerance is the relative length difference under which two edges
// count as equally long.
const edgeTolerance = 1e-9

// LongestEdge returns the longer of the first two edges. Opposite edges are
// equal, so these are the only candidates. When both are equally long
// within edgeTolerance the first wins, so a square always reports its
// first edge.
func (r Rectangle) LongestEdge() geom.Point {
	e := r.Edges()
	if math.Hypot(e[1].X, e[1].Y) > math.Hypot(e[0].X, e[0].Y)*(1+edgeTolerance) {
		return e[1]
	}
	return e[0]
}

// MinimumRectangle returns the minimum-area rectangle enclosing g. g should
// be valid; see [Validate].
func MinimumRectangle(g geom.Polygonal) (Rectangle, error) {
	if IsEmpty(g) {
		return Rectangle{}, ErrDegenerate
	}
	mbr := sf.RotatedMinimumAreaBoundingRectangle(toMulti(g).AsGeometry())
	poly, ok := mbr.AsPolygon()
	if !ok || poly.Area() == 0 {
		return Rectangle{}, ErrDegenerate
	}
	seq := poly.ExteriorRing().Coordinates()
	if seq.Length() < 4 {
		return Rectangle{}, ErrDegenerate
	}
	var r Rectangle
	for i := range r {
		xy := seq.GetXY(i)
		r[i] = geom.Point{X: xy.X, Y: xy.Y}
	}
	return canonical(r), nil
}

// canonical orders r counter-clockwise from its leftmost corner. Corners
// whose x differs by less than edgeTolerance of the rectangle's size tie,
// and the lower one wins.
func canonical(r Rectangle) Rectangle {
	var twiceArea float64
	for i := range r {
		next := r[(i+1)%4]
		twiceArea += r[i].X*next.Y - next.X*r[i].Y
	}
	if twiceArea < 0 {
		r[1], r[3] = r[3], r[1]
	}

	minX, maxX := r[0].X, r[0].X
	for _, c := range r[1:] {
		minX, maxX = math.Min(minX, c.X), math.Max(maxX, c.X)
	}
	tol := (maxX - minX) * edgeTolerance
	start := -1
	for i, c := range r {
		if c.X-minX > tol {
			continue
		}
		if start < 0 || c.Y < r[start].Y {
			start = i
		}
	}

	var out Rectangle
	for i := range out {
		out[i] = r[(start+i)%4]
	}
	return out
}
