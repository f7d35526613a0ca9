// Package visualize renders detected regions as an annotated page overlay
// for debugging and tuning. Each region is outlined in a color keyed to the
// detection strategy that produced it, with an optional numbered label.
package visualize

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/clipline/clipline/model"
)

// Config holds rendering options.
type Config struct {
	// ClusterColor outlines regions produced by token clustering.
	ClusterColor color.Color

	// ContourColor outlines regions produced by contour detection.
	ContourColor color.Color

	// LineWidth is the outline thickness in pixels.
	LineWidth int

	// ShowLabels draws a numbered label with a content snippet above each
	// region.
	ShowLabels bool

	// LabelMaxChars truncates the content snippet in labels.
	LabelMaxChars int
}

// DefaultConfig returns sensible default rendering options.
func DefaultConfig() Config {
	return Config{
		ClusterColor:  color.RGBA{R: 0x00, G: 0xb0, B: 0x00, A: 0xff},
		ContourColor:  color.RGBA{R: 0xd0, G: 0x00, B: 0x00, A: 0xff},
		LineWidth:     3,
		ShowLabels:    true,
		LabelMaxChars: 40,
	}
}

// Validate checks rendering options.
func (c Config) Validate() error {
	if c.ClusterColor == nil || c.ContourColor == nil {
		return fmt.Errorf("visualize: outline colors must be set")
	}
	if c.LineWidth < 1 {
		return fmt.Errorf("visualize: LineWidth must be at least 1, got %d", c.LineWidth)
	}
	if c.LabelMaxChars < 0 {
		return fmt.Errorf("visualize: LabelMaxChars must be non-negative, got %d", c.LabelMaxChars)
	}
	return nil
}

// Renderer draws region overlays onto page rasters.
type Renderer struct {
	config Config
}

// NewRenderer creates a renderer with default options.
func NewRenderer() *Renderer {
	return &Renderer{config: DefaultConfig()}
}

// NewRendererWithConfig creates a renderer with custom options.
func NewRendererWithConfig(config Config) (*Renderer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Renderer{config: config}, nil
}

// Overlay returns a copy of the page raster with every region outlined.
// The input raster is never modified. Regions are drawn in input order, so
// reconciled output keeps its reading-order numbering in the labels.
func (r *Renderer) Overlay(img image.Image, regions []model.Region) (*image.RGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil raster", model.ErrInvalidInput)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: zero-size raster", model.ErrInvalidInput)
	}

	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, img, bounds.Min, draw.Src)

	for i, region := range regions {
		col := r.outlineColor(region.Source)
		rect := toRect(region.BBox).Add(bounds.Min)
		drawOutline(canvas, rect, col, r.config.LineWidth)

		if r.config.ShowLabels {
			r.drawLabel(canvas, rect, i+1, region, col)
		}
	}

	return canvas, nil
}

// Render draws the overlay and encodes it as PNG.
func (r *Renderer) Render(img image.Image, regions []model.Region) ([]byte, error) {
	canvas, err := r.Overlay(img, regions)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("visualize: encoding overlay: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) outlineColor(source model.SourceKind) color.Color {
	if source == model.SourceContour {
		return r.config.ContourColor
	}
	return r.config.ClusterColor
}

func (r *Renderer) drawLabel(canvas *image.RGBA, rect image.Rectangle, n int, region model.Region, col color.Color) {
	label := fmt.Sprintf("%d %s", n, region.Source)
	if snippet := truncate(region.Content, r.config.LabelMaxChars); snippet != "" {
		label += ": " + snippet
	}

	face := basicfont.Face7x13
	x := rect.Min.X
	y := rect.Min.Y - 4
	if y-face.Ascent < canvas.Bounds().Min.Y {
		y = rect.Min.Y + face.Ascent + 2
	}

	d := font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(label)
}

func truncate(s string, max int) string {
	if max == 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// toRect converts a bounding box to integer pixel coordinates, rounding
// outward so thin regions stay visible.
func toRect(b model.BBox) image.Rectangle {
	return image.Rect(int(b.X0), int(b.Y0), int(b.X1+0.5), int(b.Y1+0.5))
}

// drawOutline draws a rectangle border of the given thickness, growing
// inward so the outline stays within the region's own box.
func drawOutline(canvas *image.RGBA, rect image.Rectangle, col color.Color, width int) {
	rect = rect.Intersect(canvas.Bounds())
	if rect.Empty() {
		return
	}

	for i := 0; i < width; i++ {
		inner := rect.Inset(i)
		if inner.Empty() {
			return
		}
		for x := inner.Min.X; x < inner.Max.X; x++ {
			canvas.Set(x, inner.Min.Y, col)
			canvas.Set(x, inner.Max.Y-1, col)
		}
		for y := inner.Min.Y; y < inner.Max.Y; y++ {
			canvas.Set(inner.Min.X, y, col)
			canvas.Set(inner.Max.X-1, y, col)
		}
	}
}
