// Package raster adapts PDF documents into the two inputs segmentation
// needs: rendered page rasters and positioned word tokens.
//
// Rendering goes through MuPDF (go-fitz); token extraction goes through a
// pure-Go PDF text extractor. Both speak page indexes (0-based) and expose
// page geometry so callers can relate token space (PDF points) to raster
// space (pixels at the render DPI).
package raster

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
	pdfplumber "github.com/pyhub-apps/pdfplumber-golang"

	"github.com/clipline/clipline/model"
)

// DefaultDPI is the render resolution used when none is configured. Scans
// of newsprint need this much for contour detection to see column rules.
const DefaultDPI = 300

// PointsPerInch is the PDF unit density, for converting between token
// space and raster space.
const PointsPerInch = 72.0

// Document renders PDF pages to rasters via MuPDF.
type Document struct {
	doc  *fitz.Document
	path string
}

// Open opens a PDF for rendering. Close must be called to release MuPDF
// resources.
func Open(path string) (*Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("raster: opening %s: %w", path, err)
	}
	return &Document{doc: doc, path: path}, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.doc.NumPage()
}

// PageSize returns the page dimensions in pixels at the given DPI.
func (d *Document) PageSize(index int, dpi int) (model.Page, error) {
	bound, err := d.doc.Bound(index)
	if err != nil {
		return model.Page{}, fmt.Errorf("raster: page %d bounds: %w", index, err)
	}
	scale := float64(dpi) / PointsPerInch
	return model.Page{
		Width:  float64(bound.Dx()) * scale,
		Height: float64(bound.Dy()) * scale,
		Number: index + 1,
	}, nil
}

// Render rasterizes a page at the given DPI. Each call opens its own MuPDF
// handle, so renders are safe to run concurrently across pages.
func (d *Document) Render(index int, dpi int) (image.Image, error) {
	worker, err := fitz.New(d.path)
	if err != nil {
		return nil, fmt.Errorf("raster: reopening %s: %w", d.path, err)
	}
	defer worker.Close()

	img, err := worker.ImageDPI(index, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("raster: rendering page %d: %w", index, err)
	}
	return img, nil
}

// Close releases MuPDF resources.
func (d *Document) Close() error {
	return d.doc.Close()
}

// TokenSource extracts positioned word tokens from a PDF's embedded text
// layer. Pages with no text layer (pure scans) yield zero tokens, which is
// a normal state: contour detection carries those pages.
type TokenSource struct {
	doc pdfplumber.Document
}

// OpenTokens opens a PDF for token extraction.
func OpenTokens(path string) (*TokenSource, error) {
	doc, err := pdfplumber.Open(path)
	if err != nil {
		return nil, fmt.Errorf("raster: opening %s for text: %w", path, err)
	}
	return &TokenSource{doc: doc}, nil
}

// PageCount returns the number of pages.
func (s *TokenSource) PageCount() int {
	return s.doc.PageCount()
}

// Tokens extracts the word tokens of a page, in PDF point coordinates with
// the origin at the top-left.
func (s *TokenSource) Tokens(index int) ([]model.Token, model.Page, error) {
	page, err := s.doc.GetPage(index)
	if err != nil {
		return nil, model.Page{}, fmt.Errorf("raster: page %d: %w", index, err)
	}

	meta := model.Page{
		Width:  page.GetWidth(),
		Height: page.GetHeight(),
		Number: index + 1,
	}

	words := page.ExtractWords()
	if len(words) == 0 {
		return nil, meta, nil
	}

	tokens := make([]model.Token, 0, len(words))
	for _, w := range words {
		if w.Text == "" {
			continue
		}
		tokens = append(tokens, model.Token{
			X0:     w.X0,
			Top:    w.Y0,
			X1:     w.X1,
			Bottom: w.Y1,
			Text:   w.Text,
		})
	}
	return tokens, meta, nil
}

// Close releases document resources.
func (s *TokenSource) Close() error {
	return s.doc.Close()
}

// ScaleFactor returns the token-space to raster-space multiplier for a
// render DPI.
func ScaleFactor(dpi int) float64 {
	return float64(dpi) / PointsPerInch
}
