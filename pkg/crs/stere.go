package crs

import (
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/geom/proj"
)

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi

	// poleTolerance is how close (radians) a latitude must be to ±90° to
	// count as the pole.
	poleTolerance = 1e-10
)

// polarStereo is the ellipsoidal polar stereographic projection
// (EPSG methods 9810 and 9829). proj has no stereographic support, and the
// iceberg outlines are digitized in it, so it is implemented here.
// Datum shifts are not applied; both poles are treated as WGS84-compatible.
type polarStereo struct {
	south   bool
	lon0    float64 // radians
	x0, y0  float64 // meters
	e       float64
	akm1    float64
	toMeter float64
}

// polarStereoOf recognizes the polar stereographic spellings proj.Parse
// produces for PROJ.4 strings and ESRI/OGC WKT.
func polarStereoOf(sr *proj.SR) (*polarStereo, bool, error) {
	var south bool
	var latTS float64
	switch strings.ToLower(sr.Name) {
	case "stere":
		if math.Abs(math.Abs(sr.Lat0)-math.Pi/2) > poleTolerance {
			return nil, true, fmt.Errorf("oblique stereographic (lat_0=%g) is not supported", sr.Lat0*rad2deg)
		}
		south = sr.Lat0 < 0
		latTS = sr.LatTS
		if math.IsNaN(latTS) {
			latTS = sr.Lat0
		}
	case "stereographic_north_pole":
		latTS = sr.Lat1
	case "stereographic_south_pole":
		south = true
		latTS = sr.Lat1
	case "polar_stereographic":
		south = sr.Lat0 < 0
		latTS = sr.Lat0
	default:
		return nil, false, nil
	}
	if math.IsNaN(latTS) {
		return nil, true, fmt.Errorf("%s: missing standard parallel", sr.Name)
	}

	ps := &polarStereo{
		south:   south,
		lon0:    orZero(sr.Long0),
		x0:      orZero(sr.X0),
		y0:      orZero(sr.Y0),
		e:       sr.E,
		toMeter: sr.ToMeter,
	}
	if math.IsNaN(ps.e) {
		ps.e = math.Sqrt(sr.Es)
	}
	if math.IsNaN(ps.toMeter) || ps.toMeter == 0 {
		ps.toMeter = 1
	}

	phiC := math.Abs(latTS)
	if math.Abs(phiC-math.Pi/2) > poleTolerance {
		sinC := math.Sin(phiC)
		mc := math.Cos(phiC) / math.Sqrt(1-ps.e*ps.e*sinC*sinC)
		ps.akm1 = sr.A * mc / tsfn(phiC, sinC, ps.e)
	} else {
		k0 := sr.K0
		if math.IsNaN(k0) {
			k0 = 1
		}
		e := ps.e
		ps.akm1 = 2 * k0 * sr.A / math.Sqrt(math.Pow(1+e, 1+e)*math.Pow(1-e, 1-e))
	}
	return ps, true, nil
}

func orZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func tsfn(phi, sinPhi, e float64) float64 {
	es := e * sinPhi
	return math.Tan(0.5*(math.Pi/2-phi)) / math.Pow((1-es)/(1+es), 0.5*e)
}

func (ps *polarStereo) sign() float64 {
	if ps.south {
		return -1
	}
	return 1
}

// forward maps longitude/latitude degrees to projected coordinates.
func (ps *polarStereo) forward(lon, lat float64) (float64, float64, error) {
	if math.IsNaN(lon) || math.IsNaN(lat) || math.Abs(lat) > 90 {
		return math.NaN(), math.NaN(), fmt.Errorf("latitude %g out of range", lat)
	}
	s := ps.sign()
	phi := s * lat * deg2rad
	if phi < -math.Pi/2+poleTolerance {
		return math.NaN(), math.NaN(), fmt.Errorf("point (%g, %g) is at the opposite pole", lon, lat)
	}
	lam := lon*deg2rad - ps.lon0
	rho := ps.akm1 * tsfn(phi, math.Sin(phi), ps.e)
	x := ps.x0 + rho*math.Sin(lam)
	y := ps.y0 - s*rho*math.Cos(lam)
	return x / ps.toMeter, y / ps.toMeter, nil
}

// inverse maps projected coordinates to longitude/latitude degrees.
func (ps *polarStereo) inverse(x, y float64) (float64, float64, error) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.NaN(), math.NaN(), fmt.Errorf("non-finite coordinate")
	}
	s := ps.sign()
	dx := x*ps.toMeter - ps.x0
	dy := y*ps.toMeter - ps.y0
	rho := math.Hypot(dx, dy)
	if rho == 0 {
		return normalizeLon(ps.lon0 * rad2deg), s * 90, nil
	}

	t := rho / ps.akm1
	half := 0.5 * ps.e
	phi := math.Pi/2 - 2*math.Atan(t)
	for i := 0; i < 15; i++ {
		es := ps.e * math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(t*math.Pow((1-es)/(1+es), half))
		if math.Abs(next-phi) < 1e-12 {
			phi = next
			break
		}
		phi = next
	}
	lam := ps.lon0 + math.Atan2(dx, -s*dy)
	return normalizeLon(lam * rad2deg), s * phi * rad2deg, nil
}

func (ps *polarStereo) equal(o *polarStereo) bool {
	return ps.south == o.south &&
		near(ps.lon0, o.lon0, 1e-12) &&
		near(ps.x0, o.x0, 1e-6) &&
		near(ps.y0, o.y0, 1e-6) &&
		near(ps.e, o.e, 1e-12) &&
		near(ps.akm1, o.akm1, 1e-9*ps.akm1) &&
		near(ps.toMeter, o.toMeter, 1e-12)
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func normalizeLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}
