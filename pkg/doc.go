// Package pkg provides the core libraries for icebergviz.
//
// # Overview
//
// Icebergviz compares the outlines of Greenland icebergs tracked between
// two satellite captures. Each glacier site has one directory per date
// range holding one shapefile per iceberg outline. The libraries load
// those outlines, bring them into a common projected frame, group them by
// area quartile and render them side by side.
//
// # Architecture
//
// The typical data flow:
//
//	Iceberg-shapefiles/<SITE>/<early>-<later>/*.shp
//	         ↓
//	    [source] package (catalog + shapefile decoding)
//	         ↓
//	    [iceberg] package (project, measure, quartiles, overlay)
//	         ↓
//	    [render] packages (panels, map, charts, flowchart)
//	         ↓
//	    SVG/PNG/PDF/JSON/CSV/GeoJSON output
//
// [pipeline] runs these stages for the CLI and the HTTP server alike and
// caches the rendered artifacts through [cache].
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/icebergviz/pkg/iceberg"
//	    "github.com/matzehuels/icebergviz/pkg/pipeline"
//	    "github.com/matzehuels/icebergviz/pkg/source"
//	)
//
//	n, _ := iceberg.NewNormalizer("EPSG:3413", "EPSG:3413", iceberg.DefaultAngleMean, nil)
//	runner := pipeline.NewRunner(source.NewCatalog("Iceberg-shapefiles"), n, nil, nil, logger)
//	res, _ := runner.Execute(ctx, pipeline.Options{
//	    Site:      "KOG",
//	    DateRange: "20170611-20170713",
//	    View:      pipeline.ViewQuartiles,
//	})
//
// # Main Packages
//
// [iceberg] - Shape normalization: area and dominant angle in a projected
// CRS, alignment to a common origin, quartile assignment and overlays.
//
// [source] - The shapefile catalog plus the glacier location and date
// pairing tables.
//
// [crs] - Coordinate reference system parsing and reprojection.
//
// [geometry] - Polygon helpers shared by normalization and rendering.
//
// [render] - Views and figures: [render/panels] (gallery and quartile
// overlays), [render/geo] (GeoJSON maps), [render/chart] (coverage bars
// and melt-rate correlograms) and [render/flow] (the method flowchart).
//
// [meltrate] - Melt-rate tables and their correlation matrix.
//
// [io] - Per-iceberg area tables in JSON and CSV.
//
// [cache] - Artifact cache backends (file, Redis, MongoDB) behind one
// interface.
//
// [config] - TOML and environment configuration.
//
// [observability] - Pipeline, cache and HTTP hooks with a Prometheus
// implementation.
//
// [errors] - Coded errors and input validation.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/iceberg/...            # Specific package
//
// [iceberg]: https://pkg.go.dev/github.com/matzehuels/icebergviz/pkg/iceberg
// [source]: https://pkg.go.dev/github.com/matzehuels/icebergviz/pkg/source
// [crs]: https://pkg.go.dev/github.com/matzehuels/icebergviz/pkg/crs
// [geometry]: https://pkg.go.dev/github.com/matzehuels/icebergviz/pkg/geometry
// [render]: https://pkg.go.dev/github.com/matzehuels/icebergviz/pkg/render
// [render/panels]: https://pkg.go.dev/github.com/matzehuels/icebergviz/pkg/render/panels
// [render/geo]: https://pkg.go.dev/github.com/matzehuels/icebergviz/pkg/render/geo
// [render/chart]: https://pkg.go.dev/github.com/matzehuels/icebergviz/pkg/render/chart
// [render/flow]: https://pkg.go.dev/github.com/matzehuels/icebergviz/pkg/render/flow
// [meltrate]: https://pkg.go.dev/github.com/matzehuels/icebergviz/pkg/meltrate
// [io]: https://pkg.go.dev/github.com/matzehuels/icebergviz/pkg/io
// [cache]: https://pkg.go.dev/github.com/matzehuels/icebergviz/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/icebergviz/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/icebergviz/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/icebergviz/pkg/errors
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/icebergviz/pkg/pipeline
package pkg
