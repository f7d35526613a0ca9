package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/clipline/clipline/article"
	"github.com/clipline/clipline/cluster"
	"github.com/clipline/clipline/contour"
	"github.com/clipline/clipline/raster"
	"github.com/clipline/clipline/reconcile"
)

// Config is the full pipeline configuration, loadable from YAML.
type Config struct {
	// OutputDir receives article files, clips, and overlays.
	OutputDir string `yaml:"output_dir"`

	// DPI is the page render resolution.
	DPI int `yaml:"dpi"`

	// Workers caps concurrent page processing. Zero means automatic,
	// derived from CPU count and available memory.
	Workers int `yaml:"workers"`

	// Visualize writes an annotated overlay PNG per page.
	Visualize bool `yaml:"visualize"`

	// Format selects article output: html or json.
	Format string `yaml:"format"`

	Detection DetectionConfig `yaml:"detection"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Upload    UploadConfig    `yaml:"upload"`
}

// DetectionConfig carries the tunables of both detectors and the
// reconciler.
type DetectionConfig struct {
	YThreshold       float64 `yaml:"y_threshold"`
	XThreshold       float64 `yaml:"x_threshold"`
	MinWords         int     `yaml:"min_words"`
	MinArea          float64 `yaml:"min_area"`
	MaxAreaFraction  float64 `yaml:"max_area_fraction"`
	MinPerimeter     float64 `yaml:"min_perimeter"`
	MinAspect        float64 `yaml:"min_aspect"`
	MaxAspect        float64 `yaml:"max_aspect"`
	HeaderFraction   float64 `yaml:"header_fraction"`
	OverlapThreshold float64 `yaml:"overlap_threshold"`
}

// GeminiConfig configures article analysis and translation. An empty APIKey
// disables both stages. TargetLanguages lists the languages each article is
// written in; the first one is the primary, the rest are produced by the
// translator collaborator.
type GeminiConfig struct {
	APIKey          string   `yaml:"api_key"`
	Model           string   `yaml:"model"`
	SourceLanguage  string   `yaml:"source_language"`
	TargetLanguages []string `yaml:"target_languages"`
}

// PrimaryTarget returns the first configured target language.
func (c GeminiConfig) PrimaryTarget() string {
	if len(c.TargetLanguages) == 0 {
		return ""
	}
	return c.TargetLanguages[0]
}

// UploadConfig configures clip publication. An empty Endpoint disables the
// upload stage.
type UploadConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// DefaultConfig returns the pipeline defaults. Analysis and upload stay
// disabled until keys and endpoints are configured.
func DefaultConfig() Config {
	clusterCfg := cluster.DefaultConfig()
	contourCfg := contour.DefaultConfig()
	return Config{
		OutputDir: "out",
		DPI:       raster.DefaultDPI,
		Format:    string(article.FormatHTML),
		Detection: DetectionConfig{
			YThreshold:       clusterCfg.YThreshold,
			XThreshold:       clusterCfg.XThreshold,
			MinWords:         clusterCfg.MinWords,
			MinArea:          contourCfg.MinArea,
			MaxAreaFraction:  contourCfg.MaxAreaFraction,
			MinPerimeter:     contourCfg.MinPerimeter,
			MinAspect:        contourCfg.MinAspect,
			MaxAspect:        contourCfg.MaxAspect,
			HeaderFraction:   contourCfg.HeaderFraction,
			OverlapThreshold: reconcile.DefaultOverlapThreshold,
		},
		Gemini: GeminiConfig{
			Model:           "gemini-2.0-flash",
			SourceLanguage:  "te",
			TargetLanguages: []string{"en"},
		},
	}
}

// Load reads a YAML config file over the defaults, so a partial file only
// overrides what it names.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("pipeline: reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("pipeline: parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the whole configuration, including the embedded detector
// settings, before any processing starts.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("pipeline: output_dir is required")
	}
	if c.DPI <= 0 {
		return fmt.Errorf("pipeline: dpi must be positive, got %d", c.DPI)
	}
	if c.Workers < 0 {
		return fmt.Errorf("pipeline: workers must be non-negative, got %d", c.Workers)
	}
	if c.Format != string(article.FormatHTML) && c.Format != string(article.FormatJSON) {
		return fmt.Errorf("pipeline: format must be html or json, got %q", c.Format)
	}
	if len(c.Gemini.TargetLanguages) == 0 {
		return fmt.Errorf("pipeline: gemini.target_languages must name at least one language")
	}
	if err := c.ClusterConfig().Validate(); err != nil {
		return err
	}
	if err := c.ContourConfig().Validate(); err != nil {
		return err
	}
	if err := (reconcile.Config{OverlapThreshold: c.Detection.OverlapThreshold}).Validate(); err != nil {
		return err
	}
	return nil
}

// ClusterConfig projects the detection settings onto the token clustering
// detector.
func (c Config) ClusterConfig() cluster.Config {
	return cluster.Config{
		YThreshold: c.Detection.YThreshold,
		XThreshold: c.Detection.XThreshold,
		MinWords:   c.Detection.MinWords,
	}
}

// ContourConfig projects the detection settings onto the contour detector.
func (c Config) ContourConfig() contour.Config {
	cfg := contour.DefaultConfig()
	cfg.MinArea = c.Detection.MinArea
	cfg.MaxAreaFraction = c.Detection.MaxAreaFraction
	cfg.MinPerimeter = c.Detection.MinPerimeter
	cfg.MinAspect = c.Detection.MinAspect
	cfg.MaxAspect = c.Detection.MaxAspect
	cfg.HeaderFraction = c.Detection.HeaderFraction
	return cfg
}
