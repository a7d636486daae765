// Package io exports the per-iceberg area table of a shape set.
//
// One row per shape, in set order:
//
//	id,capture_date,quartile,area_m2,width_m,height_m,dominant_angle_deg
//	20170611-berg1,20170611,Q2,5321.07,120.46,80.12,12.5
//
// Shapes that could not be measured keep their ID with empty numeric
// cells so the row count always matches the shapefile count. The same
// rows are available as JSON through [WriteJSON].
package io
