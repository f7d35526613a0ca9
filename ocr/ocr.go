//go:build ocr

// Package ocr recovers text for contour-detected regions by running the
// cropped region raster through the Tesseract OCR engine.
//
// This package wraps Tesseract via gosseract and requires Tesseract to be
// installed on the system. On macOS, install via:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr
package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/clipline/clipline/model"
)

// ErrOCRNotEnabled is returned by the no-op build of this package. It is
// declared here too so callers can test for it under either build.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Client wraps Tesseract for region text recovery.
type Client struct {
	client *gosseract.Client
}

// New creates a new OCR client.
// The client should be closed when no longer needed to release resources.
func New() (*Client, error) {
	client := gosseract.NewClient()
	return &Client{client: client}, nil
}

// Close releases OCR resources.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// SetLanguage sets the language(s) for recognition. Multiple languages can
// be specified as a "+" separated string (e.g. "spa+eng"). Default is "eng".
func (c *Client) SetLanguage(lang string) error {
	return c.client.SetLanguage(lang)
}

// RecognizeImage performs OCR on encoded image data (PNG, TIFF, JPEG, etc.).
// Returns the recognized text with leading/trailing whitespace trimmed.
func (c *Client) RecognizeImage(imageData []byte) (string, error) {
	if err := c.client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// RecognizeRegion crops the page raster to the region's box and recognizes
// the crop. Box coordinates are raster pixels.
func (c *Client) RecognizeRegion(img image.Image, box model.BBox) (string, error) {
	crop, err := cropRegion(img, box)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, crop); err != nil {
		return "", fmt.Errorf("encoding region crop: %w", err)
	}
	return c.RecognizeImage(buf.Bytes())
}

// FillRegions returns a copy of regions where every region with empty
// content has been run through OCR. Regions that already carry text (token
// clustering output) are passed through untouched.
func (c *Client) FillRegions(img image.Image, regions []model.Region) ([]model.Region, error) {
	out := make([]model.Region, len(regions))
	copy(out, regions)

	for i := range out {
		if out[i].Content != "" {
			continue
		}
		text, err := c.RecognizeRegion(img, out[i].BBox)
		if err != nil {
			return nil, fmt.Errorf("region %d: %w", i, err)
		}
		out[i].Content = text
	}
	return out, nil
}

// cropRegion extracts the region's pixels into a standalone image.
func cropRegion(img image.Image, box model.BBox) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil raster", model.ErrInvalidInput)
	}

	rect := image.Rect(int(box.X0), int(box.Y0), int(box.X1+0.5), int(box.Y1+0.5))
	rect = rect.Add(img.Bounds().Min).Intersect(img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("%w: region box outside raster bounds", model.ErrInvalidInput)
	}

	crop := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(crop, crop.Bounds(), img, rect.Min, draw.Src)
	return crop, nil
}
