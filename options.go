package clipline

import (
	"github.com/clipline/clipline/cluster"
	"github.com/clipline/clipline/contour"
	"github.com/clipline/clipline/raster"
	"github.com/clipline/clipline/reconcile"
)

// segmentOptions holds configuration for a segmentation run.
type segmentOptions struct {
	// Page selection (1-indexed in API, stored as-is; nil means all pages)
	pages []int

	// Render resolution for contour detection and output rasters
	dpi int

	// Detector and reconciler settings
	clusterConfig    cluster.Config
	contourConfig    contour.Config
	overlapThreshold float64

	// Processing options
	skipContours bool
	keepRasters  bool
}

// defaultOptions returns the default segmentation options.
func defaultOptions() segmentOptions {
	return segmentOptions{
		pages:            nil,
		dpi:              raster.DefaultDPI,
		clusterConfig:    cluster.DefaultConfig(),
		contourConfig:    contour.DefaultConfig(),
		overlapThreshold: reconcile.DefaultOverlapThreshold,
		skipContours:     false,
		keepRasters:      false,
	}
}

// clone creates a deep copy of segmentOptions.
func (o segmentOptions) clone() segmentOptions {
	newOpts := o
	if o.pages != nil {
		newOpts.pages = make([]int, len(o.pages))
		copy(newOpts.pages, o.pages)
	}
	return newOpts
}
