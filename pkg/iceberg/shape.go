package iceberg

import (
	"fmt"

	"github.com/ctessum/geom"

	"github.com/matzehuels/icebergviz/pkg/geometry"
)

// Quartile is an area bin label.
type Quartile string

// Quartile labels in ascending area order.
const (
	Q1 Quartile = "Q1"
	Q2 Quartile = "Q2"
	Q3 Quartile = "Q3"
	Q4 Quartile = "Q4"
)

// Quartiles lists every label in display order.
var Quartiles = []Quartile{Q1, Q2, Q3, Q4}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Width returns MaxX - MinX.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns MaxY - MinY.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Empty reports whether the box has zero width and height.
func (b Bounds) Empty() bool { return b.Width() == 0 && b.Height() == 0 }

func (b Bounds) String() string {
	return fmt.Sprintf("(%g,%g)-(%g,%g)", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// boundsOf returns the bounds of g, zero for an empty geometry.
func boundsOf(g geom.Polygonal) Bounds {
	ext, ok := geometry.Extent(g)
	if !ok {
		return Bounds{}
	}
	return Bounds{MinX: ext.Min.X, MinY: ext.Min.Y, MaxX: ext.Max.X, MaxY: ext.Max.Y}
}

// Shape is one observed iceberg outline at one capture date.
type Shape struct {
	// ID is an opaque label, usually the source shapefile name.
	ID string

	// Geometry is the outline. Nil means the geometry is missing.
	Geometry geom.Polygonal

	// CRS identifies the coordinate system of Geometry. Empty means the
	// source carried no CRS.
	CRS string

	// CaptureDate is passed through for color coding.
	CaptureDate string

	// Computed fields, filled by Normalizer.Prepare.
	Area          float64
	Bounds        Bounds
	DominantAngle float64
	HasAngle      bool
	Measured      bool

	// Quartile is filled by AssignQuartiles.
	Quartile Quartile
}

// Drawable reports whether the shape has a non-empty geometry.
func (s Shape) Drawable() bool {
	return s.Geometry != nil && !geometry.IsEmpty(s.Geometry)
}

// Warning records a non-fatal per-shape problem.
type Warning struct {
	ShapeID string `json:"shape_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s: %s", w.ShapeID, w.Code, w.Message)
}

// ShapeSet is the working collection of shapes for one site and date range.
type ShapeSet struct {
	Site      string
	DateRange string
	Shapes    []Shape
	Warnings  []Warning
}

// Len returns the number of shapes.
func (s ShapeSet) Len() int { return len(s.Shapes) }

// Measured returns the shapes that carry a computed area.
func (s ShapeSet) Measured() []Shape {
	out := make([]Shape, 0, len(s.Shapes))
	for _, sh := range s.Shapes {
		if sh.Measured {
			out = append(out, sh)
		}
	}
	return out
}

// ByQuartile returns the shapes labelled q in set order.
func (s ShapeSet) ByQuartile(q Quartile) []Shape {
	var out []Shape
	for _, sh := range s.Shapes {
		if sh.Quartile == q {
			out = append(out, sh)
		}
	}
	return out
}

// TotalArea sums the area of measured shapes.
func (s ShapeSet) TotalArea() float64 {
	var total float64
	for _, sh := range s.Shapes {
		if sh.Measured {
			total += sh.Area
		}
	}
	return total
}

// clone returns a copy of s whose slices can be modified independently.
func (s ShapeSet) clone() ShapeSet {
	out := s
	out.Shapes = append([]Shape(nil), s.Shapes...)
	out.Warnings = append([]Warning(nil), s.Warnings...)
	return out
}

func (s *ShapeSet) warn(id string, code, format string, args ...any) {
	s.Warnings = append(s.Warnings, Warning{ShapeID: id, Code: code, Message: fmt.Sprintf(format, args...)})
}
