package io

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/matzehuels/icebergviz/pkg/iceberg"
)

// Header is the CSV column order.
var Header = []string{"id", "capture_date", "quartile", "area_m2", "width_m", "height_m", "dominant_angle_deg"}

// Row is one exported shape. Pointer fields are nil for unmeasured shapes.
type Row struct {
	ID            string   `json:"id"`
	CaptureDate   string   `json:"capture_date,omitempty"`
	Quartile      string   `json:"quartile,omitempty"`
	Area          *float64 `json:"area_m2"`
	Width         *float64 `json:"width_m"`
	Height        *float64 `json:"height_m"`
	DominantAngle *float64 `json:"dominant_angle_deg"`
}

// Rows converts a shape set into table rows.
func Rows(set iceberg.ShapeSet) []Row {
	rows := make([]Row, len(set.Shapes))
	for i, s := range set.Shapes {
		r := Row{ID: s.ID, CaptureDate: s.CaptureDate, Quartile: string(s.Quartile)}
		if s.Measured {
			r.Area = ptr(round2(s.Area))
			r.Width = ptr(round2(s.Bounds.Width()))
			r.Height = ptr(round2(s.Bounds.Height()))
		}
		if s.HasAngle {
			r.DominantAngle = ptr(round2(s.DominantAngle))
		}
		rows[i] = r
	}
	return rows
}

// WriteCSV writes the area table of set as CSV.
func WriteCSV(set iceberg.ShapeSet, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range Rows(set) {
		rec := []string{r.ID, r.CaptureDate, r.Quartile, cell(r.Area), cell(r.Width), cell(r.Height), cell(r.DominantAngle)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the area table of set as an indented JSON array.
func WriteJSON(set iceberg.ShapeSet, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Rows(set)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportCSV writes the area table to a file at path.
// This is a convenience wrapper around [WriteCSV] for file-based output.
func ExportCSV(set iceberg.ShapeSet, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(set, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func cell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func ptr(v float64) *float64 { return &v }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
