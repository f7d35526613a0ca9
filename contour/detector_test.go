package contour

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/clipline/clipline/model"
)

// newPageRaster returns a white page raster of the given size.
func newPageRaster(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

// fillDark paints a filled dark rectangle onto the raster.
func fillDark(img *image.Gray, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetGray(x, y, color.Gray{Y: 0})
		}
	}
}

func pageFor(img *image.Gray, number int) model.Page {
	b := img.Bounds()
	return model.Page{Width: float64(b.Dx()), Height: float64(b.Dy()), Number: number}
}

func TestNewDetectorWithConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero min area", func(c *Config) { c.MinArea = 0 }},
		{"area fraction above one", func(c *Config) { c.MaxAreaFraction = 1.5 }},
		{"negative perimeter", func(c *Config) { c.MinPerimeter = -1 }},
		{"inverted aspect bounds", func(c *Config) { c.MinAspect = 6; c.MaxAspect = 5 }},
		{"header fraction of one", func(c *Config) { c.HeaderFraction = 1 }},
		{"tiny threshold window", func(c *Config) { c.ThresholdWindow = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := NewDetectorWithConfig(cfg); err == nil {
				t.Error("NewDetectorWithConfig() accepted invalid config")
			}
		})
	}
}

func TestDetect_NilAndEmptyRaster(t *testing.T) {
	d := NewDetector()
	page := model.Page{Width: 100, Height: 100, Number: 1}

	if _, err := d.Detect(nil, page); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("Detect(nil) = %v, want ErrInvalidInput", err)
	}

	empty := image.NewGray(image.Rect(0, 0, 0, 0))
	if _, err := d.Detect(empty, page); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("Detect(zero-size) = %v, want ErrInvalidInput", err)
	}
}

func TestDetect_BlankPage(t *testing.T) {
	d := NewDetector()
	img := newPageRaster(400, 400)

	regions, err := d.Detect(img, pageFor(img, 1))
	if err != nil {
		t.Fatalf("Detect() on blank page failed: %v", err)
	}
	if len(regions) != 0 {
		t.Errorf("blank page yielded %d regions, want 0", len(regions))
	}
}

func TestDetect_LargeBlockSurvivesThinArtifactFiltered(t *testing.T) {
	d := NewDetector()

	// One article-sized dark block (300x200 px, aspect 1.5) and one thin
	// artifact far below it. Only the block should survive filtering.
	img := newPageRaster(800, 600)
	block := image.Rect(100, 100, 400, 300)
	fillDark(img, block)
	fillDark(img, image.Rect(500, 500, 600, 502))

	regions, err := d.Detect(img, pageFor(img, 1))
	if err != nil {
		t.Fatalf("Detect() failed: %v", err)
	}
	if len(regions) != 1 {
		t.Fatalf("got %d regions, want 1", len(regions))
	}

	r := regions[0]
	if r.Source != model.SourceContour {
		t.Errorf("region source = %v, want SourceContour", r.Source)
	}
	if r.Content != "" {
		t.Errorf("region content = %q, want empty (filled downstream by OCR)", r.Content)
	}

	// The detected box must tightly cover the painted block. Edge response
	// can extend it by a few pixels, never shrink it below the block.
	const tolerance = 6.0
	if r.BBox.X0 > float64(block.Min.X) || r.BBox.X0 < float64(block.Min.X)-tolerance {
		t.Errorf("X0 = %g, want near %d", r.BBox.X0, block.Min.X)
	}
	if r.BBox.Y0 > float64(block.Min.Y) || r.BBox.Y0 < float64(block.Min.Y)-tolerance {
		t.Errorf("Y0 = %g, want near %d", r.BBox.Y0, block.Min.Y)
	}
	if r.BBox.X1 < float64(block.Max.X) || r.BBox.X1 > float64(block.Max.X)+tolerance {
		t.Errorf("X1 = %g, want near %d", r.BBox.X1, block.Max.X)
	}
	if r.BBox.Y1 < float64(block.Max.Y) || r.BBox.Y1 > float64(block.Max.Y)+tolerance {
		t.Errorf("Y1 = %g, want near %d", r.BBox.Y1, block.Max.Y)
	}
}

func TestDetect_MinAreaRejectsSmallBox(t *testing.T) {
	d := NewDetector() // MinArea = 30000

	// A 50x50 box is 2,500 square pixels, an order of magnitude below the
	// area floor.
	img := newPageRaster(300, 300)
	fillDark(img, image.Rect(100, 100, 150, 150))

	regions, err := d.Detect(img, pageFor(img, 1))
	if err != nil {
		t.Fatalf("Detect() failed: %v", err)
	}
	if len(regions) != 0 {
		t.Errorf("undersized box yielded %d regions, want 0", len(regions))
	}
}

func TestDetect_MaxAreaFractionRejectsWholePage(t *testing.T) {
	d := NewDetector() // MaxAreaFraction = 0.9

	// A block covering ~95% of the page is a whole-page false positive.
	img := newPageRaster(400, 400)
	fillDark(img, image.Rect(5, 5, 395, 395))

	regions, err := d.Detect(img, pageFor(img, 1))
	if err != nil {
		t.Fatalf("Detect() failed: %v", err)
	}
	if len(regions) != 0 {
		t.Errorf("near-whole-page box yielded %d regions, want 0", len(regions))
	}
}

func TestDetect_AspectRatioRejectsRule(t *testing.T) {
	d := NewDetector() // aspect bounds [0.2, 5.0]

	// A 700x60 horizontal rule passes the area and perimeter floors but has
	// aspect ~11.7, well beyond the band.
	img := newPageRaster(800, 600)
	fillDark(img, image.Rect(50, 250, 750, 310))

	regions, err := d.Detect(img, pageFor(img, 1))
	if err != nil {
		t.Fatalf("Detect() failed: %v", err)
	}
	if len(regions) != 0 {
		t.Errorf("extreme-aspect box yielded %d regions, want 0", len(regions))
	}
}

func TestDetect_HeaderFractionMasksMasthead(t *testing.T) {
	img := newPageRaster(400, 600)
	// Masthead-sized block entirely within the top 30% of the page.
	fillDark(img, image.Rect(50, 10, 350, 160))
	page := pageFor(img, 1)

	unmasked := NewDetector()
	regions, err := unmasked.Detect(img, page)
	if err != nil {
		t.Fatalf("Detect() failed: %v", err)
	}
	if len(regions) != 1 {
		t.Fatalf("without masking got %d regions, want 1", len(regions))
	}

	cfg := DefaultConfig()
	cfg.HeaderFraction = 0.3
	masked, err := NewDetectorWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewDetectorWithConfig() failed: %v", err)
	}
	regions, err = masked.Detect(img, page)
	if err != nil {
		t.Fatalf("Detect() with header mask failed: %v", err)
	}
	if len(regions) != 0 {
		t.Errorf("header mask left %d regions, want 0", len(regions))
	}
}

func TestDetect_TwoSeparateBlocks(t *testing.T) {
	d := NewDetector()

	img := newPageRaster(800, 1000)
	fillDark(img, image.Rect(100, 100, 400, 300))
	fillDark(img, image.Rect(100, 600, 400, 800))

	regions, err := d.Detect(img, pageFor(img, 1))
	if err != nil {
		t.Fatalf("Detect() failed: %v", err)
	}
	if len(regions) != 2 {
		t.Fatalf("got %d regions, want 2", len(regions))
	}
	for _, r := range regions {
		if a := r.BBox.Area(); math.Abs(a-60000) > 6000 {
			t.Errorf("region area = %g, want ~60000", a)
		}
	}
}
