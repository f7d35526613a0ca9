//go:build ocr

package ocr

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/clipline/clipline/model"
)

// createTestPNG creates a simple PNG with a dark block on white, enough for
// exercising the recognition path without asserting on recognized text.
func createTestPNG(width, height int) []byte {
	img := image.NewGray(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	for x := 10; x < 50; x++ {
		for y := 10; y < 30; y++ {
			img.Set(x, y, color.Black)
		}
	}

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func TestNew(t *testing.T) {
	client, err := New()
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	defer client.Close()

	if client == nil {
		t.Error("Expected non-nil client")
	}
}

func TestRecognizeImage(t *testing.T) {
	client, err := New()
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	defer client.Close()

	// The test image is just a rectangle; only the call path is checked.
	if _, err := client.RecognizeImage(createTestPNG(100, 50)); err != nil {
		t.Errorf("RecognizeImage failed: %v", err)
	}
}

func TestCropRegion(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 100))

	crop, err := cropRegion(img, model.NewBBox(10, 20, 60, 80))
	if err != nil {
		t.Fatalf("cropRegion failed: %v", err)
	}
	if crop.Bounds().Dx() != 50 || crop.Bounds().Dy() != 60 {
		t.Errorf("crop size = %v, want 50x60", crop.Bounds())
	}

	if _, err := cropRegion(img, model.NewBBox(200, 200, 300, 300)); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("out-of-bounds crop = %v, want ErrInvalidInput", err)
	}
	if _, err := cropRegion(nil, model.NewBBox(0, 0, 10, 10)); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("nil raster crop = %v, want ErrInvalidInput", err)
	}
}

func TestFillRegionsSkipsFilled(t *testing.T) {
	client, err := New()
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	defer client.Close()

	img := image.NewGray(image.Rect(0, 0, 100, 100))
	regions := []model.Region{
		{BBox: model.NewBBox(0, 0, 50, 50), Content: "already extracted", Source: model.SourceTokenCluster},
	}

	out, err := client.FillRegions(img, regions)
	if err != nil {
		t.Fatalf("FillRegions failed: %v", err)
	}
	if out[0].Content != "already extracted" {
		t.Errorf("FillRegions overwrote existing content: %q", out[0].Content)
	}
}
