package io

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/icebergviz/pkg/iceberg"
)

func sampleSet() iceberg.ShapeSet {
	return iceberg.ShapeSet{
		Site:      "KOG",
		DateRange: "20170611-20170713",
		Shapes: []iceberg.Shape{
			{
				ID: "20170611-berg1", CaptureDate: "20170611", Quartile: iceberg.Q2,
				Area: 5321.0749, Bounds: iceberg.Bounds{MaxX: 120.456, MaxY: 80.123},
				DominantAngle: 12.5, HasAngle: true, Measured: true,
			},
			{ID: "20170713-empty", CaptureDate: "20170713"},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(sampleSet(), &buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := strings.Join([]string{
		"id,capture_date,quartile,area_m2,width_m,height_m,dominant_angle_deg",
		"20170611-berg1,20170611,Q2,5321.07,120.46,80.12,12.5",
		"20170713-empty,20170713,,,,,",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("WriteCSV() =\n%s\nwant\n%s", got, want)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(sampleSet(), &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0]["area_m2"] != 5321.07 || rows[0]["quartile"] != "Q2" {
		t.Errorf("unexpected first row: %v", rows[0])
	}
	if rows[1]["area_m2"] != nil {
		t.Errorf("unmeasured shape should have null area, got %v", rows[1]["area_m2"])
	}
}

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "areas.csv")
	if err := ExportCSV(sampleSet(), path); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "id,capture_date") {
		t.Errorf("unexpected file contents: %s", data)
	}
}

func TestExportCSVBadPath(t *testing.T) {
	if err := ExportCSV(sampleSet(), filepath.Join(t.TempDir(), "missing", "areas.csv")); err == nil {
		t.Error("expected error for missing directory")
	}
}
