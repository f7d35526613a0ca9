// Package article turns analyzed regions into publishable article files.
// Each article renders to a standalone HTML page (the body text is treated
// as Markdown) or to a JSON document for downstream indexing.
package article

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
)

// Format selects the output file format.
type Format string

const (
	FormatHTML Format = "html"
	FormatJSON Format = "json"
)

// Article is one clipped, analyzed article ready for publication.
type Article struct {
	ID          string   `json:"article_id"`
	Headline    string   `json:"title"`
	Subheadline string   `json:"subheadline,omitempty"`
	Body        string   `json:"content"`
	Date        string   `json:"date"`
	Source      string   `json:"source"`
	Language    string   `json:"language"`
	ImageURL    string   `json:"image_url,omitempty"`
	Page        int      `json:"page"`
	Languages   []string `json:"available_languages,omitempty"`
}

// NewID builds a stable article identifier from the edition slug, page
// number, and the article's reading-order index on that page.
func NewID(edition string, page, index int) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '_', r == '.':
			return '-'
		}
		return -1
	}, edition)
	return fmt.Sprintf("%s-p%d-a%d", slug, page, index)
}

// Config holds generator configuration.
type Config struct {
	// OutputDir is where article files are written. Required.
	OutputDir string

	// Format selects HTML or JSON output.
	Format Format
}

// Validate checks generator configuration.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("article: OutputDir is required")
	}
	if c.Format != FormatHTML && c.Format != FormatJSON {
		return fmt.Errorf("article: unsupported format %q", c.Format)
	}
	return nil
}

var pageTemplate = template.Must(template.New("article").Parse(`<!DOCTYPE html>
<html lang="{{.Language}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Headline}}</title>
<style>
body { font-family: Georgia, serif; max-width: 42rem; margin: 2rem auto; padding: 0 1rem; }
.article-title { font-size: 1.8rem; font-weight: bold; margin-bottom: .25rem; }
.article-subtitle { font-size: 1.2rem; color: #555; margin-bottom: 1rem; }
.article-meta { color: #888; font-size: .85rem; margin-bottom: 1.5rem; }
.article-image { max-width: 100%; margin-bottom: 1.5rem; }
</style>
</head>
<body>
<div class="article-title">{{.Headline}}</div>
{{if .Subheadline}}<div class="article-subtitle">{{.Subheadline}}</div>{{end}}
<div class="article-meta">{{.Source}}{{if .Date}} &middot; {{.Date}}{{end}}{{if .Page}} &middot; page {{.Page}}{{end}}</div>
{{if .ImageURL}}<img class="article-image" src="{{.ImageURL}}" alt="{{.Headline}}">{{end}}
<div class="article-body">{{.BodyHTML}}</div>
</body>
</html>
`))

// Generator writes article files.
type Generator struct {
	config Config
	md     goldmark.Markdown
}

// NewGenerator creates an article generator. The output directory is
// created on the first write, not here.
func NewGenerator(config Config) (*Generator, error) {
	if config.Format == "" {
		config.Format = FormatHTML
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Generator{config: config, md: goldmark.New()}, nil
}

// Render produces the article file contents without writing them.
func (g *Generator) Render(a Article) ([]byte, error) {
	switch g.config.Format {
	case FormatJSON:
		out, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("article: encoding %s: %w", a.ID, err)
		}
		return out, nil
	case FormatHTML:
		return g.renderHTML(a)
	default:
		return nil, fmt.Errorf("article: unsupported format %q", g.config.Format)
	}
}

func (g *Generator) renderHTML(a Article) ([]byte, error) {
	var body bytes.Buffer
	if err := g.md.Convert([]byte(a.Body), &body); err != nil {
		return nil, fmt.Errorf("article: converting body of %s: %w", a.ID, err)
	}

	data := struct {
		Article
		BodyHTML template.HTML
	}{Article: a, BodyHTML: template.HTML(body.String())}

	var out bytes.Buffer
	if err := pageTemplate.Execute(&out, data); err != nil {
		return nil, fmt.Errorf("article: rendering %s: %w", a.ID, err)
	}
	return out.Bytes(), nil
}

// Write renders the article and saves it under the output directory as
// <id>_<language>.<format>. It returns the written path.
func (g *Generator) Write(a Article) (string, error) {
	if a.ID == "" {
		return "", fmt.Errorf("article: missing ID")
	}

	data, err := g.Render(a)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(g.config.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("article: creating output dir: %w", err)
	}

	lang := a.Language
	if lang == "" {
		lang = "en"
	}
	path := filepath.Join(g.config.OutputDir, fmt.Sprintf("%s_%s.%s", a.ID, lang, g.config.Format))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("article: writing %s: %w", path, err)
	}
	return path, nil
}
