package iceberg_test

import (
	"fmt"

	"github.com/ctessum/geom"

	"github.com/matzehuels/icebergviz/pkg/crs"
	"github.com/matzehuels/icebergviz/pkg/iceberg"
)

func box(x0, y0, w, h float64) geom.Polygon {
	return geom.Polygon{{
		{X: x0, Y: y0}, {X: x0 + w, Y: y0}, {X: x0 + w, Y: y0 + h}, {X: x0, Y: y0 + h}, {X: x0, Y: y0},
	}}
}

func ExampleAssignQuartiles() {
	// Four square icebergs of side 10, 20, 30 and 40 metres
	set := iceberg.ShapeSet{Site: "KOG", DateRange: "20170611-20170713"}
	for i, side := range []float64{10, 20, 30, 40} {
		set.Shapes = append(set.Shapes, iceberg.Shape{
			ID:       fmt.Sprintf("berg%d", i+1),
			Geometry: box(0, 0, side, side),
			CRS:      crs.PolarStereographicNorth,
		})
	}

	n, _ := iceberg.NewNormalizer(crs.PolarStereographicNorth, crs.PolarStereographicNorth, iceberg.AngleMeanCircular, nil)
	set, _ = n.Prepare(set)
	set, _ = iceberg.AssignQuartiles(set)

	for _, s := range set.Shapes {
		fmt.Printf("%s %4.0f m² %s\n", s.ID, s.Area, s.Quartile)
	}
	// Output:
	// berg1  100 m² Q1
	// berg2  400 m² Q2
	// berg3  900 m² Q3
	// berg4 1600 m² Q4
}

func ExampleBuildOverlay() {
	set := iceberg.ShapeSet{Shapes: []iceberg.Shape{
		{ID: "wide", Geometry: box(1000, 2000, 20, 10), CRS: crs.PolarStereographicNorth},
		{ID: "tall", Geometry: box(-500, 300, 10, 20), CRS: crs.PolarStereographicNorth},
	}}
	n, _ := iceberg.NewNormalizer(crs.PolarStereographicNorth, crs.PolarStereographicNorth, "", nil)
	set, _ = n.Prepare(set)

	for _, mode := range iceberg.Modes {
		ov, _ := iceberg.BuildOverlay(set, mode)
		fmt.Printf("%s: %.0f x %.0f\n", mode, ov.MaxWidth, ov.MaxHeight)
	}
	// Output:
	// overlay_translated_only: 20 x 20
	// overlay_rotated_and_translated: 20 x 10
}

func ExampleMeanAngle() {
	angles := []float64{170, -170}
	fmt.Printf("circular: %.0f\n", iceberg.MeanAngle(angles, iceberg.AngleMeanCircular))
	fmt.Printf("arithmetic: %.0f\n", iceberg.MeanAngle(angles, iceberg.AngleMeanArithmetic))
	// Output:
	// circular: 180
	// arithmetic: 0
}
