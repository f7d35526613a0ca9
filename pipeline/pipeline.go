// Package pipeline runs the full e-paper flow over PDF editions: segment
// every page into article regions, clip and analyze each region, and write
// the resulting article files. Pages are processed concurrently; a failing
// page is logged and skipped, never aborting the rest of the edition.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clipline/clipline"
	"github.com/clipline/clipline/article"
	"github.com/clipline/clipline/model"
	"github.com/clipline/clipline/visualize"
)

// Collaborators are the external services the pipeline can use. Any nil
// collaborator disables its stage: without an Analyzer, articles carry the
// raw region text; without a Translator, articles are written only in the
// language the text already has; without an Uploader, no clips are
// published; without an OCRService, contour-only regions keep empty text.
type Collaborators struct {
	Analyzer   clipline.Analyzer
	Translator clipline.Translator
	Uploader   clipline.Uploader
	OCR        clipline.OCRService
}

// PageFailure records a page that could not be processed.
type PageFailure struct {
	Page int
	Err  error
}

// Summary is the outcome of processing one PDF.
type Summary struct {
	Edition  string
	Pages    int
	Articles int
	Failures []PageFailure
}

// Processor drives the pipeline.
type Processor struct {
	config  Config
	log     *slog.Logger
	collab  Collaborators
	gen     *article.Generator
	render  *visualize.Renderer
	workers int
}

// New creates a processor. The logger may be nil, in which case slog's
// default logger is used.
func New(config Config, log *slog.Logger, collab Collaborators) (*Processor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	gen, err := article.NewGenerator(article.Config{
		OutputDir: filepath.Join(config.OutputDir, "articles"),
		Format:    article.Format(config.Format),
	})
	if err != nil {
		return nil, err
	}

	workers := config.Workers
	if workers == 0 {
		workers = autoWorkers(config.DPI)
	}

	return &Processor{
		config:  config,
		log:     log,
		collab:  collab,
		gen:     gen,
		render:  visualize.NewRenderer(),
		workers: workers,
	}, nil
}

// ProcessDir processes every PDF in a directory, in name order.
func (p *Processor) ProcessDir(ctx context.Context, dir string) ([]Summary, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		return nil, fmt.Errorf("pipeline: listing %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pipeline: no PDFs in %s", dir)
	}
	sort.Strings(matches)

	summaries := make([]Summary, 0, len(matches))
	for _, path := range matches {
		summary, err := p.ProcessPDF(ctx, path)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// ProcessPDF segments every page of one edition, analyzes the detected
// regions, and writes article files. Page-level failures are collected in
// the summary; only document-level failures (unreadable file, cancelled
// context) return an error.
func (p *Processor) ProcessPDF(ctx context.Context, path string) (Summary, error) {
	edition := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	log := p.log.With("edition", edition)

	seg := clipline.Open(path).
		DPI(p.config.DPI).
		ClusterConfig(p.config.ClusterConfig()).
		ContourConfig(p.config.ContourConfig()).
		OverlapThreshold(p.config.Detection.OverlapThreshold).
		KeepRasters()

	pageCount, err := seg.PageCount()
	if err != nil {
		return Summary{}, err
	}
	log.Info("processing edition", "pages", pageCount, "workers", p.workers)

	summary, err := p.processPages(ctx, seg, edition, pageCount)
	if err != nil {
		return summary, err
	}

	log.Info("edition done", "articles", summary.Articles, "failed_pages", len(summary.Failures))
	return summary, nil
}

// pageSegmenter is the slice of the Segmenter the page loop consumes.
type pageSegmenter interface {
	SegmentPage(page int) (clipline.PageResult, error)
}

// processPages runs the per-page work concurrently. A failing page is
// recorded in the summary and skipped; only context cancellation stops the
// remaining pages.
func (p *Processor) processPages(ctx context.Context, seg pageSegmenter, edition string, pageCount int) (Summary, error) {
	summary := Summary{Edition: edition, Pages: pageCount}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			count, err := p.processPage(ctx, seg, edition, pageNum)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.log.Error("page failed", "edition", edition, "page", pageNum, "error", err)
				summary.Failures = append(summary.Failures, PageFailure{Page: pageNum, Err: err})
				return nil
			}
			summary.Articles += count
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

// processPage segments one page and turns each region into an article
// file. It returns the number of articles written.
func (p *Processor) processPage(ctx context.Context, seg pageSegmenter, edition string, pageNum int) (int, error) {
	result, err := seg.SegmentPage(pageNum)
	if err != nil {
		return 0, err
	}

	log := p.log.With("edition", edition, "page", pageNum)
	log.Debug("segmented", "regions", len(result.Regions))

	regions := result.Regions
	if p.collab.OCR != nil && result.Raster != nil {
		filled, err := p.collab.OCR.FillRegions(result.Raster, regions)
		if err != nil {
			log.Warn("ocr fill failed, keeping detected text", "error", err)
		} else {
			regions = filled
		}
	}

	if p.config.Visualize && result.Raster != nil {
		if err := p.writeOverlay(result.Raster, regions, edition, pageNum); err != nil {
			log.Warn("overlay write failed", "error", err)
		}
	}

	written := 0
	for i, region := range regions {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if err := p.emitArticle(ctx, result.Raster, region, edition, pageNum, i+1); err != nil {
			log.Warn("article emit failed", "index", i+1, "error", err)
			continue
		}
		written++
	}
	return written, nil
}

// emitArticle clips one region, runs the optional analysis, translation,
// and upload stages, and writes one article file per output language.
func (p *Processor) emitArticle(ctx context.Context, raster image.Image, region model.Region, edition string, pageNum, index int) error {
	id := article.NewID(edition, pageNum, index)

	var clip []byte
	if raster != nil {
		var err error
		clip, err = clipPNG(raster, region.BBox)
		if err != nil {
			return err
		}
	}

	a := article.Article{
		ID:       id,
		Body:     region.Content,
		Date:     time.Now().Format("2006-01-02"),
		Source:   edition,
		Language: p.config.Gemini.SourceLanguage,
		Page:     pageNum,
	}

	primary := p.config.Gemini.PrimaryTarget()

	// The Analyzer already replies in the primary target language; without
	// it, the Translator carries the raw region text across.
	if p.collab.Analyzer != nil && len(clip) > 0 {
		extraction, err := p.collab.Analyzer.AnalyzeImage(ctx, clip)
		if err != nil {
			return fmt.Errorf("analyzing %s: %w", id, err)
		}
		a.Headline = extraction.Headline
		a.Subheadline = extraction.Subheadline
		if extraction.MainText != "" {
			a.Body = extraction.MainText
			a.Language = primary
		}
	} else if p.collab.Translator != nil && a.Body != "" {
		translated, err := p.collab.Translator.TranslateText(ctx, a.Body, primary)
		if err != nil {
			return fmt.Errorf("translating %s: %w", id, err)
		}
		a.Body = translated
		a.Language = primary
	}
	if a.Headline == "" {
		a.Headline = fallbackHeadline(a.Body, id)
	}

	if p.collab.Uploader != nil && len(clip) > 0 {
		url, err := p.collab.Uploader.Upload(ctx, clip, id+".png")
		if err != nil {
			return fmt.Errorf("uploading %s: %w", id, err)
		}
		a.ImageURL = url
	}

	languages := []string{a.Language}
	if p.collab.Translator != nil {
		for _, lang := range p.config.Gemini.TargetLanguages {
			if lang != a.Language {
				languages = append(languages, lang)
			}
		}
	}
	if len(languages) > 1 {
		a.Languages = languages
	}

	if _, err := p.gen.Write(a); err != nil {
		return err
	}

	for _, lang := range languages[1:] {
		variant, err := p.translateArticle(ctx, a, lang)
		if err != nil {
			return fmt.Errorf("translating %s into %s: %w", id, lang, err)
		}
		if _, err := p.gen.Write(variant); err != nil {
			return err
		}
	}
	return nil
}

// translateArticle renders an article in another language, carrying each
// text section through the Translator collaborator.
func (p *Processor) translateArticle(ctx context.Context, a article.Article, lang string) (article.Article, error) {
	out := a
	out.Language = lang

	var err error
	if out.Headline, err = p.collab.Translator.TranslateText(ctx, a.Headline, lang); err != nil {
		return article.Article{}, err
	}
	if out.Subheadline, err = p.collab.Translator.TranslateText(ctx, a.Subheadline, lang); err != nil {
		return article.Article{}, err
	}
	if out.Body, err = p.collab.Translator.TranslateText(ctx, a.Body, lang); err != nil {
		return article.Article{}, err
	}
	if out.Headline == "" {
		out.Headline = a.Headline
	}
	return out, nil
}

func (p *Processor) writeOverlay(raster image.Image, regions []model.Region, edition string, pageNum int) error {
	data, err := p.render.Render(raster, regions)
	if err != nil {
		return err
	}

	dir := filepath.Join(p.config.OutputDir, "overlays")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("%s-p%d.png", edition, pageNum)
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

// fallbackHeadline derives a headline from the body when analysis is off
// or returned none.
func fallbackHeadline(body, id string) string {
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return id
	}
	const maxWords = 8
	if len(fields) > maxWords {
		fields = fields[:maxWords]
	}
	return strings.Join(fields, " ")
}

// clipPNG crops a region out of the page raster and encodes it as PNG.
func clipPNG(img image.Image, box model.BBox) ([]byte, error) {
	rect := image.Rect(int(box.X0), int(box.Y0), int(box.X1+0.5), int(box.Y1+0.5))
	rect = rect.Add(img.Bounds().Min).Intersect(img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("%w: region outside raster bounds", model.ErrInvalidInput)
	}

	crop := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(crop, crop.Bounds(), img, rect.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, crop); err != nil {
		return nil, fmt.Errorf("encoding clip: %w", err)
	}
	return buf.Bytes(), nil
}
