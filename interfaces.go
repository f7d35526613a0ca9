package clipline

import (
	"context"
	"image"

	"github.com/clipline/clipline/gemini"
	"github.com/clipline/clipline/model"
)

// Rasterizer renders document pages to images. Implemented by
// raster.Document.
type Rasterizer interface {
	PageCount() int
	PageSize(index int, dpi int) (model.Page, error)
	Render(index int, dpi int) (image.Image, error)
	Close() error
}

// TokenExtractor extracts positioned word tokens from a document's text
// layer. Implemented by raster.TokenSource.
type TokenExtractor interface {
	PageCount() int
	Tokens(index int) ([]model.Token, model.Page, error)
	Close() error
}

// OCRService recovers text for regions that detection found visually but
// the text layer does not cover. Implemented by ocr.Client.
type OCRService interface {
	FillRegions(img image.Image, regions []model.Region) ([]model.Region, error)
	Close() error
}

// Analyzer reads the article printed in a region image and returns its
// translated structured parts. Implemented by gemini.Client.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, pngData []byte) (gemini.Extraction, error)
}

// Translator translates plain text into a target language given as a
// BCP 47 tag. Implemented by gemini.Client.
type Translator interface {
	TranslateText(ctx context.Context, text, targetLanguage string) (string, error)
}

// Uploader publishes clipped article images and returns their public URLs.
// Implemented by upload.Client.
type Uploader interface {
	Upload(ctx context.Context, imageData []byte, filename string) (string, error)
}
