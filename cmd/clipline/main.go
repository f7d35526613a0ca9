// Command clipline segments scanned newspaper PDFs into article clips and
// writes publishable article files.
//
// Usage:
//
//	clipline -pdf edition.pdf -out ./out -visualize
//	clipline -dir ./editions -config pipeline.yaml
//
// The Gemini analysis stage activates when GEMINI_API_KEY is set (or the
// api key is present in the config file); the upload stage activates when
// an upload endpoint is configured.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/clipline/clipline/gemini"
	"github.com/clipline/clipline/ocr"
	"github.com/clipline/clipline/pipeline"
	"github.com/clipline/clipline/upload"
)

func main() {
	var (
		pdfPath    = flag.String("pdf", "", "path to a single PDF edition")
		dirPath    = flag.String("dir", "", "directory of PDF editions")
		configPath = flag.String("config", "", "YAML pipeline config")
		outDir     = flag.String("out", "", "output directory (overrides config)")
		dpi        = flag.Int("dpi", 0, "render DPI (overrides config)")
		workers    = flag.Int("workers", 0, "concurrent pages, 0 = automatic")
		format     = flag.String("format", "", "article output format: html or json")
		visualize  = flag.Bool("visualize", false, "write annotated page overlays")
		useOCR     = flag.Bool("ocr", false, "recover text for image-only regions (needs -tags ocr build)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(log, *pdfPath, *dirPath, *configPath, *outDir, *dpi, *workers, *format, *visualize, *useOCR); err != nil {
		log.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, pdfPath, dirPath, configPath, outDir string, dpi, workers int, format string, visualize, useOCR bool) error {
	if (pdfPath == "") == (dirPath == "") {
		return fmt.Errorf("exactly one of -pdf or -dir is required")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	applyOverrides(&cfg, outDir, dpi, workers, format, visualize)
	if err := cfg.Validate(); err != nil {
		return err
	}

	collab, cleanup, err := buildCollaborators(cfg, useOCR, log)
	if err != nil {
		return err
	}
	defer cleanup()

	proc, err := pipeline.New(cfg, log, collab)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var summaries []pipeline.Summary
	if pdfPath != "" {
		summary, err := proc.ProcessPDF(ctx, pdfPath)
		if err != nil {
			return err
		}
		summaries = []pipeline.Summary{summary}
	} else {
		summaries, err = proc.ProcessDir(ctx, dirPath)
		if err != nil {
			return err
		}
	}

	for _, s := range summaries {
		fmt.Printf("%s: %d pages, %d articles, %d failed pages\n",
			s.Edition, s.Pages, s.Articles, len(s.Failures))
	}
	return nil
}

func loadConfig(path string) (pipeline.Config, error) {
	if path == "" {
		return pipeline.DefaultConfig(), nil
	}
	return pipeline.Load(path)
}

func applyOverrides(cfg *pipeline.Config, outDir string, dpi, workers int, format string, visualize bool) {
	if outDir != "" {
		cfg.OutputDir = outDir
	}
	if dpi > 0 {
		cfg.DPI = dpi
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if format != "" {
		cfg.Format = format
	}
	if visualize {
		cfg.Visualize = true
	}
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Upload.Endpoint == "" {
		cfg.Upload.Endpoint = os.Getenv("UPLOAD_ENDPOINT")
	}
}

func buildCollaborators(cfg pipeline.Config, useOCR bool, log *slog.Logger) (pipeline.Collaborators, func(), error) {
	var collab pipeline.Collaborators
	cleanup := func() {}

	if cfg.Gemini.APIKey != "" {
		client, err := gemini.NewClient(gemini.Config{
			APIKey:         cfg.Gemini.APIKey,
			Model:          cfg.Gemini.Model,
			SourceLanguage: cfg.Gemini.SourceLanguage,
			TargetLanguage: cfg.Gemini.PrimaryTarget(),
		})
		if err != nil {
			return collab, cleanup, err
		}
		collab.Analyzer = client
		collab.Translator = client
	} else {
		log.Info("gemini analysis disabled: no api key")
	}

	if cfg.Upload.Endpoint != "" {
		client, err := upload.NewClient(upload.Config{Endpoint: cfg.Upload.Endpoint})
		if err != nil {
			return collab, cleanup, err
		}
		collab.Uploader = client
	}

	if useOCR {
		client, err := ocr.New()
		if err != nil {
			return collab, cleanup, fmt.Errorf("enabling ocr: %w", err)
		}
		collab.OCR = client
		cleanup = func() { client.Close() }
	}

	return collab, cleanup, nil
}
