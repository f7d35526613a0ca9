// Package model provides the shared data types for article segmentation.
//
// The central entity is the [Region]: a rectangular article candidate with
// a bounding box, optional text content, and a [SourceKind] tag recording
// which detection strategy produced it. Both detectors converge on this one
// type, so the reconciler operates uniformly without knowing a candidate's
// origin.
//
// # Geometry
//
// [BBox] is an axis-aligned bounding box in top-left page coordinates
// (Y grows downward, matching raster space). It supports the calculations
// detection and reconciliation rely on:
//
//   - Area, Perimeter, AspectRatio
//   - Intersection, Union, Contains
//   - OverlapFraction - intersection area over the smaller box's area,
//     used for deduplication
//   - Clip - constrain a box to page bounds
//
// Ratio-valued helpers guard degenerate boxes and return 0 instead of
// dividing by zero.
//
// # Inputs
//
// [Token] is a single positioned word produced by an external extractor.
// [Page] carries page dimensions and bounds all regions produced for it.
package model
