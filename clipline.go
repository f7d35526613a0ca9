// Package clipline provides a fluent API for segmenting scanned newspaper
// pages into article-shaped regions before OCR and translation.
//
// Two detection strategies run on each page: token clustering groups the
// PDF's positioned words into text blocks, and contour detection finds
// visually bounded blocks on the rendered raster. Their candidates are
// reconciled into one deduplicated, reading-ordered set.
//
// Basic usage:
//
//	results, err := clipline.Open("edition.pdf").Segment()
//	if err != nil {
//	    // handle error
//	}
//
// With options:
//
//	results, err := clipline.Open("edition.pdf").
//	    Pages(1, 2, 3).
//	    DPI(300).
//	    OverlapThreshold(0.5).
//	    Segment()
//
// For advanced use cases the detector packages (cluster, contour,
// reconcile) are also available directly.
package clipline

import (
	"fmt"
	"image"

	"github.com/clipline/clipline/cluster"
	"github.com/clipline/clipline/contour"
	"github.com/clipline/clipline/model"
	"github.com/clipline/clipline/raster"
	"github.com/clipline/clipline/reconcile"
)

// PageResult is the segmentation outcome for one page. Regions are in
// raster pixel coordinates at the render DPI, ordered top-to-bottom then
// left-to-right. Raster is the rendered page the regions refer to.
type PageResult struct {
	Page    model.Page
	Regions []model.Region
	Raster  image.Image
}

// Open prepares a segmenter for a PDF file. Resources are acquired lazily
// by the terminal operations and released before they return.
func Open(filename string) *Segmenter {
	return &Segmenter{
		filename: filename,
		options:  defaultOptions(),
	}
}

// Must wraps a call returning (T, error) and panics on error. Intended for
// scripts and tests where error handling would be cumbersome.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// DetectFromTokens runs token clustering over one page's words. Tokens and
// the returned regions are in the same coordinate space as the page.
func DetectFromTokens(tokens []model.Token, page model.Page, config cluster.Config) ([]model.Region, error) {
	d, err := cluster.NewDetectorWithConfig(config)
	if err != nil {
		return nil, err
	}
	return d.Detect(tokens, page)
}

// DetectFromRaster runs contour detection over one rendered page. The page
// dimensions must match the raster's pixel dimensions.
func DetectFromRaster(img image.Image, page model.Page, config contour.Config) ([]model.Region, error) {
	d, err := contour.NewDetectorWithConfig(config)
	if err != nil {
		return nil, err
	}
	return d.Detect(img, page)
}

// Reconcile merges candidate sets from any number of detectors into one
// deduplicated, reading-ordered set.
func Reconcile(threshold float64, candidates ...[]model.Region) ([]model.Region, error) {
	r, err := reconcile.NewReconcilerWithConfig(reconcile.Config{OverlapThreshold: threshold})
	if err != nil {
		return nil, err
	}
	return r.Reconcile(candidates...), nil
}

// Segmenter is the fluent configuration for segmenting a document. Chain
// methods return a new instance, so a configured Segmenter can be shared
// and further specialized safely.
type Segmenter struct {
	filename string
	options  segmentOptions
	err      error
}

// clone creates a copy with deep-copied options, keeping chains immutable.
func (s *Segmenter) clone() *Segmenter {
	return &Segmenter{
		filename: s.filename,
		options:  s.options.clone(),
		err:      s.err,
	}
}

// Pages restricts segmentation to the given pages (1-indexed). Without it,
// all pages are processed.
func (s *Segmenter) Pages(pages ...int) *Segmenter {
	ns := s.clone()
	ns.options.pages = append(ns.options.pages, pages...)
	return ns
}

// DPI sets the raster render resolution.
func (s *Segmenter) DPI(dpi int) *Segmenter {
	ns := s.clone()
	if dpi <= 0 {
		ns.err = fmt.Errorf("clipline: DPI must be positive, got %d", dpi)
		return ns
	}
	ns.options.dpi = dpi
	return ns
}

// ClusterConfig replaces the token clustering configuration.
func (s *Segmenter) ClusterConfig(config cluster.Config) *Segmenter {
	ns := s.clone()
	if err := config.Validate(); err != nil {
		ns.err = err
		return ns
	}
	ns.options.clusterConfig = config
	return ns
}

// ContourConfig replaces the contour detection configuration.
func (s *Segmenter) ContourConfig(config contour.Config) *Segmenter {
	ns := s.clone()
	if err := config.Validate(); err != nil {
		ns.err = err
		return ns
	}
	ns.options.contourConfig = config
	return ns
}

// OverlapThreshold sets the overlap fraction above which the smaller of
// two duplicate candidates is discarded during reconciliation.
func (s *Segmenter) OverlapThreshold(threshold float64) *Segmenter {
	ns := s.clone()
	cfg := reconcile.Config{OverlapThreshold: threshold}
	if err := cfg.Validate(); err != nil {
		ns.err = err
		return ns
	}
	ns.options.overlapThreshold = threshold
	return ns
}

// SkipContours disables contour detection, segmenting from the text layer
// alone. Useful for born-digital PDFs where rendering is wasted work.
func (s *Segmenter) SkipContours() *Segmenter {
	ns := s.clone()
	ns.options.skipContours = true
	return ns
}

// KeepRasters retains each rendered page image on its PageResult, for
// visualization or OCR of the detected regions.
func (s *Segmenter) KeepRasters() *Segmenter {
	ns := s.clone()
	ns.options.keepRasters = true
	return ns
}

// PageCount returns the number of pages in the document.
func (s *Segmenter) PageCount() (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	doc, err := raster.Open(s.filename)
	if err != nil {
		return 0, err
	}
	defer doc.Close()
	return doc.PageCount(), nil
}

// SegmentPage segments a single page (1-indexed).
func (s *Segmenter) SegmentPage(page int) (PageResult, error) {
	results, err := s.clone().restrictTo(page).Segment()
	if err != nil {
		return PageResult{}, err
	}
	if len(results) != 1 {
		return PageResult{}, fmt.Errorf("clipline: page %d not in document", page)
	}
	return results[0], nil
}

func (s *Segmenter) restrictTo(page int) *Segmenter {
	s.options.pages = []int{page}
	return s
}

// Segment runs both detectors on every selected page and reconciles their
// candidates. Token cluster regions are scaled from PDF points into raster
// pixels, so all returned regions share one coordinate space.
func (s *Segmenter) Segment() ([]PageResult, error) {
	if s.err != nil {
		return nil, s.err
	}

	doc, err := raster.Open(s.filename)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	tokenSrc, err := raster.OpenTokens(s.filename)
	if err != nil {
		return nil, err
	}
	defer tokenSrc.Close()

	clusterDet, err := cluster.NewDetectorWithConfig(s.options.clusterConfig)
	if err != nil {
		return nil, err
	}
	contourDet, err := contour.NewDetectorWithConfig(s.options.contourConfig)
	if err != nil {
		return nil, err
	}
	reconciler, err := reconcile.NewReconcilerWithConfig(reconcile.Config{
		OverlapThreshold: s.options.overlapThreshold,
	})
	if err != nil {
		return nil, err
	}

	indexes, err := s.pageIndexes(doc.PageCount())
	if err != nil {
		return nil, err
	}

	results := make([]PageResult, 0, len(indexes))
	for _, idx := range indexes {
		result, err := s.segmentOne(doc, tokenSrc, clusterDet, contourDet, reconciler, idx)
		if err != nil {
			return nil, fmt.Errorf("clipline: page %d: %w", idx+1, err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *Segmenter) segmentOne(
	doc *raster.Document,
	tokenSrc *raster.TokenSource,
	clusterDet *cluster.Detector,
	contourDet *contour.Detector,
	reconciler *reconcile.Reconciler,
	idx int,
) (PageResult, error) {
	tokens, tokenPage, err := tokenSrc.Tokens(idx)
	if err != nil {
		return PageResult{}, err
	}

	clusterRegions, err := clusterDet.Detect(tokens, tokenPage)
	if err != nil {
		return PageResult{}, err
	}

	// Token space is PDF points; everything downstream works in raster
	// pixels at the render DPI.
	scale := raster.ScaleFactor(s.options.dpi)
	for i := range clusterRegions {
		clusterRegions[i].BBox = clusterRegions[i].BBox.Scale(scale)
	}

	pixelPage, err := doc.PageSize(idx, s.options.dpi)
	if err != nil {
		return PageResult{}, err
	}

	var contourRegions []model.Region
	var img image.Image
	if !s.options.skipContours {
		img, err = doc.Render(idx, s.options.dpi)
		if err != nil {
			return PageResult{}, err
		}
		contourRegions, err = contourDet.Detect(img, pixelPage)
		if err != nil {
			return PageResult{}, err
		}
	}

	result := PageResult{
		Page:    pixelPage,
		Regions: reconciler.Reconcile(clusterRegions, contourRegions),
	}
	if s.options.keepRasters {
		result.Raster = img
	}
	return result, nil
}

// pageIndexes resolves the configured 1-indexed page selection to 0-based
// indexes, defaulting to every page.
func (s *Segmenter) pageIndexes(count int) ([]int, error) {
	if len(s.options.pages) == 0 {
		all := make([]int, count)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}

	indexes := make([]int, 0, len(s.options.pages))
	for _, p := range s.options.pages {
		if p < 1 || p > count {
			return nil, fmt.Errorf("%w: page %d out of range 1..%d", model.ErrInvalidInput, p, count)
		}
		indexes = append(indexes, p-1)
	}
	return indexes, nil
}
