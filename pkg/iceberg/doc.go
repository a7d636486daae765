// Package iceberg normalizes iceberg outlines for side-by-side comparison
// and groups them into area quartiles.
//
// # Overview
//
// A [ShapeSet] holds the outlines captured for one glacier site and one
// date range. The processing chain is:
//
//  1. [Normalizer.Prepare] reprojects every [Shape] into one projected
//     working CRS (assigning a default CRS to sources without one) and
//     fills in area, bounds and dominant angle.
//  2. [AssignQuartiles] bins the measured shapes into Q1 to Q4 by area.
//  3. [BuildOverlay] moves every shape to the origin, optionally rotating
//     it level first, and computes the shared axis extent used by all
//     quartile panels.
//
// # Dominant angle
//
// [DominantAngle] takes the minimum-area rectangle of each valid polygon
// and reports the direction of its longest edge in (-180, 180] degrees.
// Multi-polygon shapes average their polygon angles with [MeanAngle], which
// defaults to a circular mean; [AngleMeanArithmetic] keeps the plain mean
// for output that must match older renderings.
//
// # Overlay modes
//
// Two named modes exist and are never mixed within one overlay:
//
//   - [ModeTranslatedOnly]: translate only; extent from original bounds.
//   - [ModeRotatedAndTranslated]: rotate by -angle about the centroid, then
//     translate; extent from rotated bounds.
//
// # Errors
//
// Errors use [github.com/matzehuels/icebergviz/pkg/errors] codes. A missing
// CRS without a configured default is fatal (UNDEFINED_CRS). Invalid,
// empty and missing geometries only degrade the affected shape and are
// reported as [Warning] values on the set.
//
// All operations are pure functions of their inputs and safe to call from
// concurrent requests as long as each request builds its own ShapeSet.
package iceberg
