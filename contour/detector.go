// Package contour detects article candidate regions on a rendered page
// raster. The raster is binarized with adaptive local thresholding, combined
// with a Sobel edge pass, morphologically closed to bridge small gaps
// between text lines and column rules, and the resulting connected
// components are filtered by size and shape.
package contour

import (
	"fmt"
	"image"

	"github.com/clipline/clipline/model"
)

// Config holds configuration for contour detection. Area and perimeter are
// in raster pixel units.
type Config struct {
	// MinArea rejects candidates smaller than this many square pixels.
	MinArea float64

	// MaxAreaFraction rejects candidates larger than this fraction of the
	// page area (rejects whole-page false positives).
	MaxAreaFraction float64

	// MinPerimeter rejects candidates with a bounding perimeter below this.
	MinPerimeter float64

	// MinAspect and MaxAspect bound the accepted aspect ratio
	// (max(w,h)/min(w,h) is normalized, so both are compared against the
	// width/height ratio as in the filters below).
	MinAspect float64
	MaxAspect float64

	// HeaderFraction masks this fraction of the page height at the top
	// before analysis, suppressing masthead false positives. Zero disables
	// masking.
	HeaderFraction float64

	// ThresholdWindow is the side of the square neighborhood used for
	// adaptive local thresholding.
	ThresholdWindow int

	// ThresholdBias is subtracted from the local mean: a pixel is
	// foreground when darker than mean - bias.
	ThresholdBias float64

	// EdgeThreshold is the Sobel gradient magnitude above which a pixel is
	// marked as an edge.
	EdgeThreshold float64

	// CloseKernel and CloseIterations control the morphological closing
	// that bridges gaps in article boundaries.
	CloseKernel     int
	CloseIterations int
}

// DefaultConfig returns sensible default configuration for newsprint scans.
func DefaultConfig() Config {
	return Config{
		MinArea:         30000,
		MaxAreaFraction: 0.9,
		MinPerimeter:    500,
		MinAspect:       0.2,
		MaxAspect:       5.0,
		HeaderFraction:  0,
		ThresholdWindow: 25,
		ThresholdBias:   15,
		EdgeThreshold:   50,
		CloseKernel:     5,
		CloseIterations: 2,
	}
}

// Validate checks configuration values before any detection runs.
func (c Config) Validate() error {
	if c.MinArea <= 0 {
		return fmt.Errorf("contour: MinArea must be positive, got %g", c.MinArea)
	}
	if c.MaxAreaFraction <= 0 || c.MaxAreaFraction > 1 {
		return fmt.Errorf("contour: MaxAreaFraction must be in (0,1], got %g", c.MaxAreaFraction)
	}
	if c.MinPerimeter < 0 {
		return fmt.Errorf("contour: MinPerimeter must be non-negative, got %g", c.MinPerimeter)
	}
	if c.MinAspect <= 0 || c.MinAspect > c.MaxAspect {
		return fmt.Errorf("contour: aspect bounds invalid: [%g, %g]", c.MinAspect, c.MaxAspect)
	}
	if c.HeaderFraction < 0 || c.HeaderFraction >= 1 {
		return fmt.Errorf("contour: HeaderFraction must be in [0,1), got %g", c.HeaderFraction)
	}
	if c.ThresholdWindow < 3 {
		return fmt.Errorf("contour: ThresholdWindow must be at least 3, got %d", c.ThresholdWindow)
	}
	if c.CloseKernel < 1 || c.CloseIterations < 0 {
		return fmt.Errorf("contour: invalid closing parameters kernel=%d iterations=%d",
			c.CloseKernel, c.CloseIterations)
	}
	return nil
}

// Detector finds article candidate regions on a page raster.
type Detector struct {
	config Config
}

// NewDetector creates a detector with default configuration.
func NewDetector() *Detector {
	return &Detector{config: DefaultConfig()}
}

// NewDetectorWithConfig creates a detector with custom configuration.
// Invalid configuration is rejected here, before any detection runs.
func NewDetectorWithConfig(config Config) (*Detector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Detector{config: config}, nil
}

// Detect finds candidate regions on the raster. Coordinates are raster
// pixels; page carries the page number and must match the raster's pixel
// dimensions. Content is left empty - text for contour regions is filled
// downstream by an OCR collaborator. A raster yielding zero surviving
// contours produces an empty result and no error: a blank page is a
// normal page state.
func (d *Detector) Detect(img image.Image, page model.Page) ([]model.Region, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil raster", model.ErrInvalidInput)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: zero-size raster %dx%d", model.ErrInvalidInput, w, h)
	}
	if err := page.Validate(); err != nil {
		return nil, err
	}

	gray := toGrayscale(img)

	headerRows := int(float64(h) * d.config.HeaderFraction)

	binary := adaptiveThreshold(gray, w, h, d.config.ThresholdWindow, d.config.ThresholdBias)
	edges := sobelEdges(gray, w, h, d.config.EdgeThreshold)

	// Union of the thresholded foreground and the edge map, so article
	// frames detected by either signal form one connected boundary.
	combined := make([]uint8, len(binary))
	for i := range combined {
		if binary[i] > 0 || edges[i] > 0 {
			combined[i] = 255
		}
	}

	maskTopBand(combined, w, headerRows)

	closed := morphClose(combined, w, h, d.config.CloseKernel, d.config.CloseIterations)

	boxes := findComponents(closed, w, h)

	pageArea := page.Area()
	pageBounds := page.Bounds()

	var regions []model.Region
	for _, box := range boxes {
		if box.Y0 < float64(headerRows) {
			continue
		}

		clipped := box.Clip(pageBounds)
		if !clipped.IsValid() {
			continue
		}
		if area := clipped.Area(); area < d.config.MinArea || area > d.config.MaxAreaFraction*pageArea {
			continue
		}
		if clipped.Perimeter() < d.config.MinPerimeter {
			continue
		}
		aspect := clipped.Width() / clipped.Height()
		if aspect < d.config.MinAspect || aspect > d.config.MaxAspect {
			continue
		}

		regions = append(regions, model.Region{
			BBox:   clipped,
			Source: model.SourceContour,
		})
	}

	return regions, nil
}

// toGrayscale converts an image to a flat 8-bit intensity buffer.
func toGrayscale(img image.Image) []uint8 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if g, ok := img.(*image.Gray); ok && g.Stride == w && bounds == g.Rect {
		out := make([]uint8, w*h)
		copy(out, g.Pix)
		return out
	}

	out := make([]uint8, w*h)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// Standard luma weights over 16-bit channel values.
			out[i] = uint8((19595*r + 38470*g + 7471*b + 1<<15) >> 24)
			i++
		}
	}
	return out
}

// adaptiveThreshold binarizes against the local mean over a square window,
// using an integral image so the cost stays linear in pixel count. A pixel
// becomes foreground (255) when darker than the local mean minus bias,
// which keeps the result robust to uneven scan lighting.
func adaptiveThreshold(gray []uint8, w, h, window int, bias float64) []uint8 {
	// Integral image with a one-cell border of zeros.
	integral := make([]uint64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var rowSum uint64
		for x := 0; x < w; x++ {
			rowSum += uint64(gray[y*w+x])
			integral[(y+1)*(w+1)+(x+1)] = integral[y*(w+1)+(x+1)] + rowSum
		}
	}

	half := window / 2
	out := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		y0 := maxInt(0, y-half)
		y1 := minInt(h-1, y+half)
		for x := 0; x < w; x++ {
			x0 := maxInt(0, x-half)
			x1 := minInt(w-1, x+half)

			sum := integral[(y1+1)*(w+1)+(x1+1)] -
				integral[y0*(w+1)+(x1+1)] -
				integral[(y1+1)*(w+1)+x0] +
				integral[y0*(w+1)+x0]
			count := float64((y1 - y0 + 1) * (x1 - x0 + 1))
			mean := float64(sum) / count

			if float64(gray[y*w+x]) < mean-bias {
				out[y*w+x] = 255
			}
		}
	}
	return out
}

// sobelEdges marks pixels whose Sobel gradient magnitude exceeds the
// threshold. The squared magnitude is compared to avoid a sqrt per pixel.
func sobelEdges(gray []uint8, w, h int, threshold float64) []uint8 {
	out := make([]uint8, w*h)
	limit := threshold * threshold

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			tl := int(gray[(y-1)*w+x-1])
			tc := int(gray[(y-1)*w+x])
			tr := int(gray[(y-1)*w+x+1])
			ml := int(gray[y*w+x-1])
			mr := int(gray[y*w+x+1])
			bl := int(gray[(y+1)*w+x-1])
			bc := int(gray[(y+1)*w+x])
			br := int(gray[(y+1)*w+x+1])

			gx := -tl + tr - 2*ml + 2*mr - bl + br
			gy := -tl - 2*tc - tr + bl + 2*bc + br

			if float64(gx*gx+gy*gy) > limit {
				out[y*w+x] = 255
			}
		}
	}
	return out
}

// maskTopBand zeroes the first rows of a binary map, suppressing masthead
// and header-band foreground before component extraction.
func maskTopBand(binary []uint8, w, rows int) {
	end := rows * w
	if end > len(binary) {
		end = len(binary)
	}
	for i := 0; i < end; i++ {
		binary[i] = 0
	}
}

// morphClose performs morphological closing (dilation followed by erosion)
// with a square kernel, bridging small gaps so an article block forms one
// connected boundary.
func morphClose(binary []uint8, w, h, kernel, iterations int) []uint8 {
	out := binary
	for i := 0; i < iterations; i++ {
		out = dilate(out, w, h, kernel)
	}
	for i := 0; i < iterations; i++ {
		out = erode(out, w, h, kernel)
	}
	return out
}

func dilate(src []uint8, w, h, kernel int) []uint8 {
	half := kernel / 2
	out := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v uint8
			for ky := -half; ky <= half && v == 0; ky++ {
				yy := y + ky
				if yy < 0 || yy >= h {
					continue
				}
				for kx := -half; kx <= half; kx++ {
					xx := x + kx
					if xx < 0 || xx >= w {
						continue
					}
					if src[yy*w+xx] > 0 {
						v = 255
						break
					}
				}
			}
			out[y*w+x] = v
		}
	}
	return out
}

func erode(src []uint8, w, h, kernel int) []uint8 {
	half := kernel / 2
	out := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(255)
			for ky := -half; ky <= half && v > 0; ky++ {
				yy := y + ky
				if yy < 0 || yy >= h {
					v = 0
					break
				}
				for kx := -half; kx <= half; kx++ {
					xx := x + kx
					if xx < 0 || xx >= w || src[yy*w+xx] == 0 {
						v = 0
						break
					}
				}
			}
			out[y*w+x] = v
		}
	}
	return out
}

// findComponents extracts the bounding box of every connected foreground
// component using an iterative 4-connected flood fill.
func findComponents(binary []uint8, w, h int) []model.BBox {
	visited := make([]bool, w*h)
	var boxes []model.BBox

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if binary[idx] == 0 || visited[idx] {
				continue
			}
			boxes = append(boxes, floodFill(binary, visited, w, h, x, y))
		}
	}
	return boxes
}

func floodFill(binary []uint8, visited []bool, w, h, startX, startY int) model.BBox {
	minX, minY := startX, startY
	maxX, maxY := startX, startY

	stack := []image.Point{{X: startX, Y: startY}}
	visited[startY*w+startX] = true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}

		for _, n := range [4]image.Point{
			{X: p.X + 1, Y: p.Y},
			{X: p.X - 1, Y: p.Y},
			{X: p.X, Y: p.Y + 1},
			{X: p.X, Y: p.Y - 1},
		} {
			if n.X < 0 || n.X >= w || n.Y < 0 || n.Y >= h {
				continue
			}
			idx := n.Y*w + n.X
			if visited[idx] || binary[idx] == 0 {
				continue
			}
			visited[idx] = true
			stack = append(stack, n)
		}
	}

	return model.NewBBox(float64(minX), float64(minY), float64(maxX+1), float64(maxY+1))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
