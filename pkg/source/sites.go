package source

import (
	"encoding/csv"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/icebergviz/pkg/errors"
)

// RegionColors maps Greenland coastal regions to marker colors.
var RegionColors = map[string]string{
	"SE": "red",
	"CE": "orange",
	"CW": "yellow",
	"NW": "green",
	"NE": "lime",
	"NO": "blue",
	"SW": "purple",
}

// DefaultRegionColor is used for regions missing from RegionColors.
const DefaultRegionColor = "red"

// RegionColor returns the marker color of region.
func RegionColor(region string) string {
	if c, ok := RegionColors[strings.ToUpper(strings.TrimSpace(region))]; ok {
		return c
	}
	return DefaultRegionColor
}

// GlacierSite is one study site from the glacier locations table.
type GlacierSite struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Region string  `json:"region"`
}

// Color returns the site's region color.
func (s GlacierSite) Color() string { return RegionColor(s.Region) }

// DatePairing is the number of paired iceberg observations at one site.
type DatePairing struct {
	Name     string `json:"name"`
	Icebergs int    `json:"icebergs"`
}

// LoadGlacierSites reads the glacier locations CSV. It needs the columns
// Glacier_ID, LAT, LON, Region and Official_n in any order. Sites are
// returned sorted by ID.
func LoadGlacierSites(path string) ([]GlacierSite, error) {
	rows, err := readTable(path, "Glacier_ID", "LAT", "LON", "Region", "Official_n")
	if err != nil {
		return nil, err
	}
	sites := make([]GlacierSite, 0, len(rows))
	for i, row := range rows {
		lat, err := parseFloat(row["LAT"])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s row %d: LAT", path, i+2)
		}
		lon, err := parseFloat(row["LON"])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s row %d: LON", path, i+2)
		}
		sites = append(sites, GlacierSite{
			ID:     row["Glacier_ID"],
			Name:   row["Official_n"],
			Lat:    lat,
			Lon:    lon,
			Region: row["Region"],
		})
	}
	slices.SortStableFunc(sites, func(a, b GlacierSite) int { return strings.Compare(a.ID, b.ID) })
	return sites, nil
}

// FindSite returns the site with the given ID.
func FindSite(sites []GlacierSite, id string) (GlacierSite, error) {
	for _, s := range sites {
		if s.ID == id {
			return s, nil
		}
	}
	return GlacierSite{}, errors.New(errors.ErrCodeNotFound, "unknown glacier site: %s", id)
}

// LoadDatePairings reads the per-site iceberg counts CSV with the columns
// Official_n and "Corresponding icebergs". Rows without a count are
// skipped. Pairings are returned in ascending count order.
func LoadDatePairings(path string) ([]DatePairing, error) {
	rows, err := readTable(path, "Official_n", "Corresponding icebergs")
	if err != nil {
		return nil, err
	}
	out := make([]DatePairing, 0, len(rows))
	for i, row := range rows {
		raw := row["Corresponding icebergs"]
		if raw == "" {
			continue
		}
		n, err := parseFloat(raw)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s row %d: Corresponding icebergs", path, i+2)
		}
		out = append(out, DatePairing{Name: row["Official_n"], Icebergs: int(n)})
	}
	slices.SortStableFunc(out, func(a, b DatePairing) int { return a.Icebergs - b.Icebergs })
	return out, nil
}

// readTable reads a headed CSV file into one map per row, requiring the
// named columns.
func readTable(path string, required ...string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open %s", path)
	}
	defer f.Close()
	return parseTable(f, path, required...)
}

func parseTable(r io.Reader, name string, required ...string) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s: read header", name)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var missing []string
	for _, col := range required {
		if !slices.Contains(header, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s must contain the columns: %s", name, strings.Join(missing, ", "))
	}

	var rows []map[string]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s", name)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
