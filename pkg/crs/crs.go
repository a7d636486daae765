// Package crs resolves coordinate reference systems and reprojects
// polygonal geometry between them.
//
// A CRS is identified by a string: an "EPSG:<code>" reference for the
// codes registered in [Definitions], a PROJ.4 definition, or the WKT text
// of a shapefile's .prj sidecar. Parsing and most transforms are delegated
// to [github.com/ctessum/geom/proj]; polar stereographic, which proj lacks,
// is computed here and chained through WGS84 longitude/latitude.
package crs

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"

	"github.com/matzehuels/icebergviz/pkg/geometry"
)

// Well-known codes.
const (
	// PolarStereographicNorth is NSIDC Sea Ice Polar Stereographic North,
	// the projected CRS the iceberg outlines are digitized in.
	PolarStereographicNorth = "EPSG:3413"

	// WGS84 is geographic longitude/latitude, used for web maps.
	WGS84 = "EPSG:4326"
)

// Definitions maps EPSG codes to PROJ.4 strings. Only codes listed here
// can be referenced as "EPSG:<code>".
var Definitions = map[string]string{
	"EPSG:3413":  "+proj=stere +lat_0=90 +lat_ts=70 +lon_0=-45 +k=1 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs",
	"EPSG:3411":  "+proj=stere +lat_0=90 +lat_ts=70 +lon_0=-45 +k=1 +x_0=0 +y_0=0 +a=6378273 +b=6356889.449 +units=m +no_defs",
	"EPSG:4326":  "+proj=longlat +datum=WGS84 +no_defs",
	"EPSG:3857":  "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs",
	"EPSG:32621": "+proj=utm +zone=21 +datum=WGS84 +units=m +no_defs",
	"EPSG:32622": "+proj=utm +zone=22 +datum=WGS84 +units=m +no_defs",
	"EPSG:32623": "+proj=utm +zone=23 +datum=WGS84 +units=m +no_defs",
	"EPSG:32624": "+proj=utm +zone=24 +datum=WGS84 +units=m +no_defs",
	"EPSG:32625": "+proj=utm +zone=25 +datum=WGS84 +units=m +no_defs",
	"EPSG:32626": "+proj=utm +zone=26 +datum=WGS84 +units=m +no_defs",
	"EPSG:32627": "+proj=utm +zone=27 +datum=WGS84 +units=m +no_defs",
}

// Canonical trims a CRS reference and upper-cases EPSG prefixes so that
// "epsg:3413" and "EPSG:3413" compare equal.
func Canonical(ref string) string {
	ref = strings.TrimSpace(ref)
	if len(ref) > 5 && strings.EqualFold(ref[:5], "EPSG:") {
		return "EPSG:" + ref[5:]
	}
	return ref
}

// Parse resolves ref into a spatial reference.
func Parse(ref string) (*proj.SR, error) {
	ref = Canonical(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty CRS reference")
	}
	def := ref
	if strings.HasPrefix(ref, "EPSG:") {
		d, ok := Definitions[ref]
		if !ok {
			return nil, fmt.Errorf("unknown CRS %s", ref)
		}
		def = d
	}
	sr, err := proj.Parse(def)
	if err != nil {
		return nil, fmt.Errorf("parse CRS %q: %w", ref, err)
	}
	return sr, nil
}

// IsGeographic reports whether sr uses angular units.
func IsGeographic(sr *proj.SR) bool {
	switch sr.Name {
	case "longlat", "latlong", "lonlat", "latlon":
		return true
	}
	return false
}

// Projector reprojects geometry and memoizes the transforms it builds.
// It is safe for concurrent use.
type Projector struct {
	mu         sync.Mutex
	srs        map[string]*spatialRef
	transforms map[[2]string]proj.Transformer
}

// spatialRef is a parsed CRS plus its polar stereographic parameters, if any.
type spatialRef struct {
	sr    *proj.SR
	polar *polarStereo
}

// NewProjector creates an empty Projector.
func NewProjector() *Projector {
	return &Projector{
		srs:        make(map[string]*spatialRef),
		transforms: make(map[[2]string]proj.Transformer),
	}
}

var shared = NewProjector()

// Geographic reports whether name is a geographic CRS, using a shared
// package-level Projector.
func Geographic(name string) (bool, error) {
	return shared.Geographic(name)
}

// SR returns the parsed spatial reference for name.
func (p *Projector) SR(name string) (*proj.SR, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, err := p.refLocked(Canonical(name))
	if err != nil {
		return nil, err
	}
	return r.sr, nil
}

func (p *Projector) refLocked(name string) (*spatialRef, error) {
	if r, ok := p.srs[name]; ok {
		return r, nil
	}
	sr, err := Parse(name)
	if err != nil {
		return nil, err
	}
	polar, ok, err := polarStereoOf(sr)
	if err != nil {
		return nil, fmt.Errorf("CRS %q: %w", name, err)
	}
	r := &spatialRef{sr: sr}
	if ok {
		r.polar = polar
	}
	p.srs[name] = r
	return r, nil
}

// Geographic reports whether name is a geographic CRS.
func (p *Projector) Geographic(name string) (bool, error) {
	sr, err := p.SR(name)
	if err != nil {
		return false, err
	}
	return IsGeographic(sr), nil
}

// Same reports whether a and b describe the same CRS, for example
// "EPSG:3413" and the WKT of an NSIDC .prj file.
func (p *Projector) Same(a, b string) (bool, error) {
	a, b = Canonical(a), Canonical(b)
	if a == b {
		return true, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	ra, err := p.refLocked(a)
	if err != nil {
		return false, err
	}
	rb, err := p.refLocked(b)
	if err != nil {
		return false, err
	}
	return same(ra, rb), nil
}

func same(a, b *spatialRef) bool {
	switch {
	case a.polar != nil && b.polar != nil:
		return a.polar.equal(b.polar)
	case a.polar == nil && b.polar == nil:
		return a.sr.Equal(b.sr, 3)
	}
	return false
}

// Transformer returns the transform from one CRS to another. Like
// [proj.SR.NewTransform] it returns a nil Transformer when both describe
// the same CRS. Unsupported projections fail here rather than per point.
func (p *Projector) Transformer(from, to string) (proj.Transformer, error) {
	key := [2]string{Canonical(from), Canonical(to)}
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.transforms[key]; ok {
		return t, nil
	}
	src, err := p.refLocked(key[0])
	if err != nil {
		return nil, err
	}
	dst, err := p.refLocked(key[1])
	if err != nil {
		return nil, err
	}

	var t proj.Transformer
	if !same(src, dst) {
		t, err = p.buildLocked(src, dst)
		if err != nil {
			return nil, fmt.Errorf("transform %s -> %s: %w", key[0], key[1], err)
		}
	}
	p.transforms[key] = t
	return t, nil
}

func (p *Projector) buildLocked(src, dst *spatialRef) (proj.Transformer, error) {
	if src.polar == nil && dst.polar == nil {
		if err := supported(src.sr, dst.sr); err != nil {
			return nil, err
		}
		t, err := src.sr.NewTransform(dst.sr)
		if err != nil {
			return nil, err
		}
		return finite(t), nil
	}

	wgs84, err := p.refLocked(WGS84)
	if err != nil {
		return nil, err
	}
	var toLonLat, fromLonLat proj.Transformer
	if src.polar != nil {
		toLonLat = src.polar.inverse
	} else {
		if err := supported(src.sr, wgs84.sr); err != nil {
			return nil, err
		}
		if toLonLat, err = src.sr.NewTransform(wgs84.sr); err != nil {
			return nil, err
		}
	}
	if dst.polar != nil {
		fromLonLat = dst.polar.forward
	} else {
		if err := supported(wgs84.sr, dst.sr); err != nil {
			return nil, err
		}
		if fromLonLat, err = wgs84.sr.NewTransform(dst.sr); err != nil {
			return nil, err
		}
	}
	return finite(chain(toLonLat, fromLonLat)), nil
}

// supported checks that proj can transform between a and b.
func supported(a, b *proj.SR) error {
	for _, sr := range []*proj.SR{a, b} {
		if _, _, err := sr.Transformers(); err != nil {
			return fmt.Errorf("unsupported projection %q", sr.Name)
		}
	}
	return nil
}

// chain composes two transforms; a nil transform is the identity.
func chain(first, second proj.Transformer) proj.Transformer {
	switch {
	case first == nil:
		return second
	case second == nil:
		return first
	}
	return func(x, y float64) (float64, float64, error) {
		x, y, err := first(x, y)
		if err != nil {
			return x, y, err
		}
		return second(x, y)
	}
}

// finite turns non-finite output into an error.
func finite(t proj.Transformer) proj.Transformer {
	if t == nil {
		return nil
	}
	return func(x, y float64) (float64, float64, error) {
		ox, oy, err := t(x, y)
		if err != nil {
			return ox, oy, err
		}
		if math.IsNaN(ox) || math.IsNaN(oy) || math.IsInf(ox, 0) || math.IsInf(oy, 0) {
			return ox, oy, fmt.Errorf("point (%g, %g) has no finite projection", x, y)
		}
		return ox, oy, nil
	}
}

// Reproject transforms g from one CRS to another. Equivalent references
// return g unchanged. A point that fails to transform fails the whole
// geometry.
func (p *Projector) Reproject(g geom.Polygonal, from, to string) (geom.Polygonal, error) {
	if g == nil || Canonical(from) == Canonical(to) {
		return g, nil
	}
	t, err := p.Transformer(from, to)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return g, nil
	}
	out, err := geometry.Transform(g, t)
	if err != nil {
		return nil, fmt.Errorf("reproject %s -> %s: %w", Canonical(from), Canonical(to), err)
	}
	return out, nil
}
