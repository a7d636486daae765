// Package source reads the on-disk iceberg datasets.
//
// Shapefiles are organized as
//
//	<base>/<SITE>/<early>-<later>/<capture>-<name>.shp
//
// where SITE is a glacier abbreviation such as KOG, the range directory
// names two YYYYMMDD capture dates, and every shapefile holds the outline
// records of one iceberg at one capture date. [Catalog] lists sites, date
// ranges and shapefiles and loads a range into an [iceberg.ShapeSet].
//
// The package also reads the two CSV side tables: the glacier site list
// ([LoadGlacierSites]) and the per-site iceberg counts
// ([LoadDatePairings]).
package source
