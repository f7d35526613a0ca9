package model

import (
	"errors"
	"fmt"
)

// ErrInvalidInput indicates structurally malformed input passed to a
// detector: a token with non-finite or inverted coordinates, or a
// zero-size raster. Content-based rejection (too few words, filtered
// geometry) is never reported as an error.
var ErrInvalidInput = errors.New("invalid input")

// SourceKind identifies which detection strategy produced a region.
type SourceKind int

const (
	// SourceTokenCluster marks regions built by grouping positioned word tokens.
	SourceTokenCluster SourceKind = iota

	// SourceContour marks regions found by contour analysis of a page raster.
	SourceContour
)

func (k SourceKind) String() string {
	switch k {
	case SourceTokenCluster:
		return "token_cluster"
	case SourceContour:
		return "contour"
	default:
		return "unknown"
	}
}

// Token is a single positioned word extracted from a page. Coordinates are
// in top-left page space: Top is the upper edge, Bottom the lower edge.
// Tokens are produced per page by an external word extractor and are
// immutable.
type Token struct {
	X0     float64
	Top    float64
	X1     float64
	Bottom float64
	Text   string
}

// BBox returns the token's bounding box.
func (t Token) BBox() BBox {
	return BBox{X0: t.X0, Y0: t.Top, X1: t.X1, Y1: t.Bottom}
}

// Validate reports whether the token is structurally sound.
func (t Token) Validate() error {
	b := t.BBox()
	if !b.IsFinite() {
		return fmt.Errorf("%w: token %q has non-finite coordinates", ErrInvalidInput, t.Text)
	}
	if !b.IsValid() {
		return fmt.Errorf("%w: token %q has degenerate box (%g,%g,%g,%g)",
			ErrInvalidInput, t.Text, t.X0, t.Top, t.X1, t.Bottom)
	}
	return nil
}

// Region is a rectangular article candidate. Its box is the minimal
// enclosing rectangle of the contributing tokens (token-cluster origin)
// or of the detected contour (contour origin). Content, when non-empty,
// is the contributing token text in reading order. Regions are immutable
// once constructed; reconciliation produces new values rather than
// mutating inputs.
type Region struct {
	BBox    BBox
	Content string
	Source  SourceKind
}

// WordCount returns the number of whitespace-separated words in Content.
func (r Region) WordCount() int {
	n := 0
	inWord := false
	for _, c := range r.Content {
		switch c {
		case ' ', '\t', '\n', '\r':
			inWord = false
		default:
			if !inWord {
				n++
				inWord = true
			}
		}
	}
	return n
}

// WithContent returns a copy of the region carrying the given content.
func (r Region) WithContent(content string) Region {
	r.Content = content
	return r
}

// Page describes the page a set of regions belongs to. Every region's box
// must lie within [0,Width] x [0,Height]; detectors clip overshoot.
type Page struct {
	Width  float64
	Height float64
	Number int // 1-indexed page number
}

// Bounds returns the page extent as a bounding box.
func (p Page) Bounds() BBox {
	return BBox{X0: 0, Y0: 0, X1: p.Width, Y1: p.Height}
}

// Area returns the page area.
func (p Page) Area() float64 {
	return p.Width * p.Height
}

// Validate reports whether the page has positive dimensions.
func (p Page) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: page %d has non-positive dimensions %gx%g",
			ErrInvalidInput, p.Number, p.Width, p.Height)
	}
	return nil
}
