package iceberg

import (
	"math"

	"github.com/ctessum/geom"

	"github.com/matzehuels/icebergviz/pkg/crs"
	ierrors "github.com/matzehuels/icebergviz/pkg/errors"
	"github.com/matzehuels/icebergviz/pkg/geometry"
)

// AngleMean selects how several orientation angles are averaged.
type AngleMean string

const (
	// AngleMeanCircular averages unit vectors, so 179° and -179° average
	// to 180° rather than 0°.
	AngleMeanCircular AngleMean = "circular"

	// AngleMeanArithmetic takes the plain mean of the degree values. It
	// reproduces the historical dashboard output and is wrong for angles
	// that straddle ±180°.
	AngleMeanArithmetic AngleMean = "arithmetic"
)

// DefaultAngleMean is used when no method is configured.
const DefaultAngleMean = AngleMeanCircular

// ParseAngleMean validates an angle mean name. Empty selects the default.
func ParseAngleMean(s string) (AngleMean, error) {
	switch AngleMean(s) {
	case "":
		return DefaultAngleMean, nil
	case AngleMeanCircular, AngleMeanArithmetic:
		return AngleMean(s), nil
	}
	return "", ierrors.New(ierrors.ErrCodeInvalidInput, "invalid angle mean: %q (must be one of: circular, arithmetic)", s)
}

// MeanAngle averages angles in degrees and returns a value in (-180, 180].
// Opposite angles have no circular mean; in that case the arithmetic mean
// is returned.
func MeanAngle(angles []float64, method AngleMean) float64 {
	if len(angles) == 0 {
		return 0
	}
	var sum, sumSin, sumCos float64
	for _, a := range angles {
		sum += a
		s, c := math.Sincos(a * math.Pi / 180)
		sumSin += s
		sumCos += c
	}
	arithmetic := sum / float64(len(angles))
	if method == AngleMeanArithmetic {
		return arithmetic
	}
	if math.Hypot(sumSin, sumCos) < 1e-9*float64(len(angles)) {
		return normalizeDegrees(arithmetic)
	}
	return normalizeDegrees(math.Atan2(sumSin, sumCos) * 180 / math.Pi)
}

// normalizeDegrees maps a into (-180, 180].
func normalizeDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a <= -180 {
		a += 360
	} else if a > 180 {
		a -= 360
	}
	return a
}

// requireGeometry enforces the per-shape contract shared by ComputeBounds
// and ComputeArea.
func requireGeometry(s Shape) error {
	if s.CRS == "" {
		return ierrors.New(ierrors.ErrCodeUndefinedCRS, "shape %s has no CRS; assign a default before measuring", s.ID)
	}
	if s.Geometry == nil {
		return ierrors.New(ierrors.ErrCodeMissingGeometry, "shape %s has no geometry", s.ID)
	}
	return nil
}

// ComputeBounds returns the axis-aligned bounds of the shape's geometry.
// An empty geometry yields zero bounds; callers aggregating extents must
// skip it.
func ComputeBounds(s Shape) (Bounds, error) {
	if err := requireGeometry(s); err != nil {
		return Bounds{}, err
	}
	return boundsOf(s.Geometry), nil
}

// ComputeArea returns the planar area of the shape's geometry in the
// squared linear unit of its CRS. Areas in a geographic CRS would be in
// square degrees, so such shapes are an AMBIGUOUS_PROJECTION error.
func ComputeArea(s Shape) (float64, error) {
	if err := requireGeometry(s); err != nil {
		return 0, err
	}
	geo, err := crs.Geographic(s.CRS)
	if err != nil {
		return 0, ierrors.Wrap(ierrors.ErrCodeAmbiguousProjection, err, "shape %s", s.ID)
	}
	if geo {
		return 0, ierrors.New(ierrors.ErrCodeAmbiguousProjection, "shape %s is in geographic CRS %s; project it before measuring area", s.ID, s.CRS)
	}
	return geometry.Area(s.Geometry), nil
}

// DominantAngle returns the orientation in degrees of the longest edge of
// the minimum-area rectangle around the shape. Each valid polygon gets its
// own rectangle and angle, and a shape with several polygons averages those
// angles with method; no rectangle is fitted around the parts as a whole.
// Invalid polygons are skipped; a shape without any valid polygon is an
// INVALID_GEOMETRY error.
//
// Per polygon the angle lies in (-90, 90]: the rectangle edge is taken from
// its leftmost corner, so a wide axis-aligned box is 0 and a tall one 90.
// Edges equally long within a relative 1e-9 (squares) resolve to the first
// edge, so an axis-aligned square returns 0. The mean of several parts lies
// in (-180, 180].
func DominantAngle(s Shape, method AngleMean) (float64, error) {
	if s.Geometry == nil {
		return 0, ierrors.New(ierrors.ErrCodeMissingGeometry, "shape %s has no geometry", s.ID)
	}
	var (
		angles  []float64
		lastErr error
	)
	for _, poly := range s.Geometry.Polygons() {
		a, err := polygonAngle(poly)
		if err != nil {
			lastErr = err
			continue
		}
		angles = append(angles, a)
	}
	if len(angles) == 0 {
		if lastErr == nil {
			return 0, ierrors.New(ierrors.ErrCodeEmptyGeometry, "shape %s has no polygons", s.ID)
		}
		return 0, ierrors.Wrap(ierrors.ErrCodeInvalidGeometry, lastErr, "shape %s", s.ID)
	}
	return MeanAngle(angles, method), nil
}

func polygonAngle(p geom.Polygon) (float64, error) {
	if err := geometry.Validate(p); err != nil {
		return 0, err
	}
	rect, err := geometry.MinimumRectangle(p)
	if err != nil {
		return 0, err
	}
	e := rect.LongestEdge()
	return normalizeDegrees(math.Atan2(e.Y, e.X) * 180 / math.Pi), nil
}

// AlignToOrigin rotates g by -rotation degrees about its own centroid when
// rotation is non-zero, then translates it so its bounding box starts at
// (0, 0). The input is not modified.
func AlignToOrigin(g geom.Polygonal, rotation float64) (geom.Polygonal, error) {
	if g == nil {
		return nil, ierrors.New(ierrors.ErrCodeMissingGeometry, "cannot align a missing geometry")
	}
	out := g
	if rotation != 0 {
		out = geometry.Rotate(g, -rotation, geometry.Centroid(g))
	}
	b := boundsOf(out)
	return geometry.Translate(out, -b.MinX, -b.MinY), nil
}

// =============================================================================
// Normalizer
// =============================================================================

// Normalizer brings shapes into one projected working CRS and fills in
// their computed fields.
type Normalizer struct {
	// DefaultCRS is assigned to shapes whose source carried no CRS. Empty
	// makes such shapes a fatal UNDEFINED_CRS error.
	DefaultCRS string

	// WorkingCRS is the projected CRS every shape is measured in.
	WorkingCRS string

	// AngleMean averages the angles of multi-polygon shapes.
	AngleMean AngleMean

	projector *crs.Projector
}

// NewNormalizer validates the CRS settings and returns a Normalizer. A nil
// projector creates a private one.
func NewNormalizer(defaultCRS, workingCRS string, mean AngleMean, projector *crs.Projector) (*Normalizer, error) {
	if projector == nil {
		projector = crs.NewProjector()
	}
	if mean == "" {
		mean = DefaultAngleMean
	}
	if workingCRS == "" {
		return nil, ierrors.New(ierrors.ErrCodeInvalidConfig, "working CRS is required")
	}
	geo, err := projector.Geographic(workingCRS)
	if err != nil {
		return nil, ierrors.Wrap(ierrors.ErrCodeInvalidConfig, err, "working CRS %s", workingCRS)
	}
	if geo {
		return nil, ierrors.New(ierrors.ErrCodeAmbiguousProjection, "working CRS %s is geographic; areas need a projected CRS", workingCRS)
	}
	if defaultCRS != "" {
		if _, err := projector.SR(defaultCRS); err != nil {
			return nil, ierrors.Wrap(ierrors.ErrCodeInvalidConfig, err, "default CRS %s", defaultCRS)
		}
	}
	return &Normalizer{
		DefaultCRS: crs.Canonical(defaultCRS),
		WorkingCRS: crs.Canonical(workingCRS),
		AngleMean:  mean,
		projector:  projector,
	}, nil
}

// WithAngleMean returns a copy of n that averages angles with mean. An
// empty mean returns n itself.
func (n *Normalizer) WithAngleMean(mean AngleMean) *Normalizer {
	if mean == "" || mean == n.AngleMean {
		return n
	}
	c := *n
	c.AngleMean = mean
	return &c
}

// Projector returns the projector shared by the normalizer.
func (n *Normalizer) Projector() *crs.Projector { return n.projector }

// Project returns a copy of s in the working CRS. A shape without a CRS is
// first assigned DefaultCRS.
func (n *Normalizer) Project(s Shape) (Shape, error) {
	from := crs.Canonical(s.CRS)
	if from == "" {
		if n.DefaultCRS == "" {
			return Shape{}, ierrors.New(ierrors.ErrCodeUndefinedCRS, "shape %s has no CRS and no default is configured", s.ID)
		}
		from = n.DefaultCRS
	}
	out := s
	out.CRS = n.WorkingCRS
	if s.Geometry == nil {
		return out, nil
	}
	g, err := n.projector.Reproject(s.Geometry, from, n.WorkingCRS)
	if err != nil {
		return Shape{}, ierrors.Wrap(ierrors.ErrCodeAmbiguousProjection, err, "shape %s", s.ID)
	}
	out.Geometry = g
	return out, nil
}

// measure fills Area, Bounds and DominantAngle for one shape already in the
// working CRS. Missing and empty geometries are reported as warnings and
// left unmeasured; invalid geometries keep their area but get no angle.
func (n *Normalizer) measure(set *ShapeSet, s Shape) (Shape, error) {
	if s.Geometry == nil {
		set.warn(s.ID, string(ierrors.ErrCodeMissingGeometry), "geometry is missing; skipped")
		return s, nil
	}
	if geometry.IsEmpty(s.Geometry) {
		set.warn(s.ID, string(ierrors.ErrCodeEmptyGeometry), "geometry is empty; skipped")
		return s, nil
	}

	b, err := ComputeBounds(s)
	if err != nil {
		return Shape{}, err
	}
	area, err := ComputeArea(s)
	if err != nil {
		return Shape{}, err
	}
	s.Bounds, s.Area, s.Measured = b, area, true

	angle, err := DominantAngle(s, n.AngleMean)
	if err != nil {
		set.warn(s.ID, string(ierrors.GetCode(err)), "no dominant angle: %s", ierrors.UserMessage(err))
		s.DominantAngle, s.HasAngle = 0, false
		return s, nil
	}
	s.DominantAngle, s.HasAngle = angle, true
	return s, nil
}

// Prepare projects and measures every shape of set. Fatal projection
// errors abort; per-shape problems become warnings on the returned set.
// The input set is not modified.
func (n *Normalizer) Prepare(set ShapeSet) (ShapeSet, error) {
	out := set.clone()
	for i, s := range out.Shapes {
		projected, err := n.Project(s)
		if err != nil {
			return ShapeSet{}, err
		}
		measured, err := n.measure(&out, projected)
		if err != nil {
			return ShapeSet{}, err
		}
		out.Shapes[i] = measured
	}
	return out, nil
}
