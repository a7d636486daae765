package source

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/icebergviz/pkg/errors"
	"github.com/matzehuels/icebergviz/pkg/iceberg"
)

// DateRange is one <early>-<later> capture pairing directory.
type DateRange struct {
	ID    string `json:"id"`
	Early string `json:"early"`
	Later string `json:"later"`
}

// ParseDateRange validates a range directory name and splits it.
func ParseDateRange(id string) (DateRange, error) {
	early, later, err := errors.ValidateDateRange(id)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{ID: id, Early: early, Later: later}, nil
}

// Period classifies a shapefile name by which capture date it contains.
// It returns "early", "later" or "" when the name carries neither.
func (r DateRange) Period(filename string) string {
	switch {
	case r.Early != "" && strings.Contains(filename, r.Early):
		return "early"
	case r.Later != "" && strings.Contains(filename, r.Later):
		return "later"
	}
	return ""
}

// CaptureDate returns the part of a shapefile name before its first '-',
// which by convention is the YYYYMMDD capture date. Names without a '-'
// return the base name without extension.
func CaptureDate(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	date, _, _ := strings.Cut(base, "-")
	return date
}

// FileStamp identifies one input file version for cache keys.
type FileStamp struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Catalog lists and loads the shapefiles under one base directory.
type Catalog struct {
	// Root is the base shapefile directory.
	Root string

	// Open opens one shapefile for reading. Nil uses the shapefile decoder.
	Open OpenFunc

	// Concurrency bounds parallel decoding. Zero uses GOMAXPROCS.
	Concurrency int
}

// NewCatalog returns a Catalog rooted at root.
func NewCatalog(root string) *Catalog {
	return &Catalog{Root: root}
}

// Sites returns the site directories under the root, sorted.
func (c *Catalog) Sites() ([]string, error) {
	entries, err := c.readDir(c.Root)
	if err != nil {
		return nil, err
	}
	var sites []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			sites = append(sites, e.Name())
		}
	}
	slices.Sort(sites)
	return sites, nil
}

// DateRanges returns the range directories of site, sorted by name.
// Directories whose name lacks a '-' are ignored.
func (c *Catalog) DateRanges(site string) ([]DateRange, error) {
	if err := errors.ValidateSiteID(site); err != nil {
		return nil, err
	}
	entries, err := c.readDir(filepath.Join(c.Root, site))
	if err != nil {
		return nil, err
	}
	var ranges []DateRange
	for _, e := range entries {
		if !e.IsDir() || !strings.Contains(e.Name(), "-") {
			continue
		}
		r, err := ParseDateRange(e.Name())
		if err != nil {
			continue
		}
		ranges = append(ranges, r)
	}
	slices.SortFunc(ranges, func(a, b DateRange) int { return strings.Compare(a.ID, b.ID) })
	return ranges, nil
}

// RangeDir returns the directory holding the shapefiles of site and
// rangeID after validating both.
func (c *Catalog) RangeDir(site, rangeID string) (string, error) {
	if err := errors.ValidateSiteID(site); err != nil {
		return "", err
	}
	if _, err := ParseDateRange(rangeID); err != nil {
		return "", err
	}
	return filepath.Join(c.Root, site, rangeID), nil
}

// Shapefiles returns the .shp file names of site and rangeID, sorted.
func (c *Catalog) Shapefiles(site, rangeID string) ([]string, error) {
	dir, err := c.RangeDir(site, rangeID)
	if err != nil {
		return nil, err
	}
	entries, err := c.readDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".shp") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// Stamps returns a FileStamp for every file backing site and rangeID, the
// sidecars included, so any change to the inputs changes the stamps.
func (c *Catalog) Stamps(site, rangeID string) ([]FileStamp, error) {
	dir, err := c.RangeDir(site, rangeID)
	if err != nil {
		return nil, err
	}
	entries, err := c.readDir(dir)
	if err != nil {
		return nil, err
	}
	stamps := make([]FileStamp, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "stat %s", e.Name())
		}
		stamps = append(stamps, FileStamp{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime().UTC()})
	}
	slices.SortFunc(stamps, func(a, b FileStamp) int { return strings.Compare(a.Name, b.Name) })
	return stamps, nil
}

// LoadShapeSet decodes the shapefiles of site and rangeID into a ShapeSet
// in file name order. A non-empty ids restricts the set to those file
// names; unknown names are a NOT_FOUND error. Files that fail to decode
// become shapes with missing geometry and a warning.
func (c *Catalog) LoadShapeSet(ctx context.Context, site, rangeID string, ids []string) (iceberg.ShapeSet, error) {
	names, err := c.Shapefiles(site, rangeID)
	if err != nil {
		return iceberg.ShapeSet{}, err
	}
	if len(ids) > 0 {
		names, err = selectIDs(names, ids)
		if err != nil {
			return iceberg.ShapeSet{}, err
		}
	}

	dir := filepath.Join(c.Root, site, rangeID)
	open := c.Open
	if open == nil {
		open = OpenShapefile
	}
	limit := c.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	type loaded struct {
		shape   iceberg.Shape
		warning *iceberg.Warning
	}
	results := make([]loaded, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			shape, err := ReadShapefile(filepath.Join(dir, name), open)
			if err != nil {
				results[i] = loaded{
					shape:   iceberg.Shape{ID: name, CaptureDate: CaptureDate(name)},
					warning: &iceberg.Warning{ShapeID: name, Code: string(errors.GetCode(err)), Message: errors.UserMessage(err)},
				}
				return nil
			}
			results[i] = loaded{shape: shape}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return iceberg.ShapeSet{}, err
	}

	set := iceberg.ShapeSet{Site: site, DateRange: rangeID, Shapes: make([]iceberg.Shape, 0, len(results))}
	for _, r := range results {
		set.Shapes = append(set.Shapes, r.shape)
		if r.warning != nil {
			set.Warnings = append(set.Warnings, *r.warning)
		}
	}
	return set, nil
}

func selectIDs(names, ids []string) ([]string, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if err := errors.ValidateShapefileName(id); err != nil {
			return nil, err
		}
		want[id] = true
	}
	var out []string
	for _, n := range names {
		if want[n] {
			out = append(out, n)
			delete(want, n)
		}
	}
	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for id := range want {
			missing = append(missing, id)
		}
		slices.Sort(missing)
		return nil, errors.New(errors.ErrCodeNotFound, "unknown icebergs: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

func (c *Catalog) readDir(dir string) ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "directory %s does not exist", dir)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", dir)
	}
	return entries, nil
}
