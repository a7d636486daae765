package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"

	"github.com/matzehuels/icebergviz/pkg/errors"
	"github.com/matzehuels/icebergviz/pkg/iceberg"
)

// RecordReader yields the geometry records of one shapefile.
type RecordReader interface {
	// Next returns the next record's geometry. more is false once the
	// records are exhausted. A nil geometry is a null shape record.
	Next() (g geom.Geom, more bool)

	// Err reports the first decode error, if any.
	Err() error

	Close()
}

// OpenFunc opens the shapefile at path.
type OpenFunc func(path string) (RecordReader, error)

type shpReader struct {
	d *shp.Decoder
}

func (r shpReader) Next() (geom.Geom, bool) {
	g, _, more := r.d.DecodeRowFields()
	return g, more
}

func (r shpReader) Err() error { return r.d.Error() }

func (r shpReader) Close() { r.d.Close() }

// OpenShapefile opens path with the ctessum shapefile decoder.
func OpenShapefile(path string) (RecordReader, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, err
	}
	return shpReader{d: d}, nil
}

// ReadShapefile reads every record of one shapefile into a single Shape.
// All polygon records are combined so a multi-part iceberg keeps its parts
// together. The CRS is the text of the .prj sidecar, empty when there is
// none. A file whose records hold no polygons yields an empty geometry.
func ReadShapefile(path string, open OpenFunc) (iceberg.Shape, error) {
	name := filepath.Base(path)
	if open == nil {
		open = OpenShapefile
	}

	r, err := open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return iceberg.Shape{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", name)
		}
		return iceberg.Shape{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", name)
	}
	defer r.Close()

	var polys []geom.Polygon
	for {
		g, more := r.Next()
		if !more {
			break
		}
		if g == nil {
			continue
		}
		p, ok := g.(geom.Polygonal)
		if !ok {
			return iceberg.Shape{}, errors.New(errors.ErrCodeInvalidGeometry, "%s: record of type %T is not a polygon", name, g)
		}
		polys = append(polys, p.Polygons()...)
	}
	if err := r.Err(); err != nil {
		return iceberg.Shape{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s", name)
	}

	ref, err := readPRJ(path)
	if err != nil {
		return iceberg.Shape{}, err
	}

	return iceberg.Shape{
		ID:          name,
		Geometry:    combine(polys),
		CRS:         ref,
		CaptureDate: CaptureDate(name),
	}, nil
}

func combine(polys []geom.Polygon) geom.Polygonal {
	switch len(polys) {
	case 0:
		return geom.Polygon{}
	case 1:
		return polys[0]
	}
	return geom.MultiPolygon(polys)
}

// readPRJ returns the trimmed WKT of the .prj sidecar next to path.
func readPRJ(path string) (string, error) {
	prj := strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
	data, err := os.ReadFile(prj)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", filepath.Base(prj), err)
	}
	return strings.TrimSpace(string(data)), nil
}
