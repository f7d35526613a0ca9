// Package cluster detects article candidate regions by grouping positioned
// word tokens into contiguous blocks using proximity heuristics.
package cluster

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/clipline/clipline/model"
)

// Config holds configuration for token clustering. Units are page
// coordinate space (points for PDF-derived tokens).
type Config struct {
	// YThreshold is the maximum distance between a token's top edge and the
	// running block baseline for the token to join the block.
	YThreshold float64

	// XThreshold is the maximum horizontal gap between a token's left edge
	// and the previous token's right edge within a block.
	XThreshold float64

	// MinWords is the word count a closed block must strictly exceed to be
	// emitted as a region. Blocks at or below the limit are discarded.
	MinWords int
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		YThreshold: 15,
		XThreshold: 100,
		MinWords:   5,
	}
}

// Validate checks configuration values before any detection runs.
func (c Config) Validate() error {
	if c.YThreshold <= 0 {
		return fmt.Errorf("cluster: YThreshold must be positive, got %g", c.YThreshold)
	}
	if c.XThreshold <= 0 {
		return fmt.Errorf("cluster: XThreshold must be positive, got %g", c.XThreshold)
	}
	if c.MinWords < 0 {
		return fmt.Errorf("cluster: MinWords must be non-negative, got %d", c.MinWords)
	}
	return nil
}

// Detector groups word tokens into article candidate regions.
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

// block is the running per-scan accumulator: member tokens plus a running
// average of their top coordinates. It is local to one Detect call, so
// detection stays safe for parallel per-page use.
type block struct {
	tokens   []model.Token
	currentY float64
}

// Detect groups the page's tokens into candidate regions. Input order is
// irrelevant: tokens are sorted internally by (top, x0), so permuting the
// input yields the same result. Empty input yields an empty result and no
// error. Structurally malformed tokens fail fast with model.ErrInvalidInput.
func (d *Detector) Detect(tokens []model.Token, page model.Page) ([]model.Region, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	for _, tok := range tokens {
		if err := tok.Validate(); err != nil {
			return nil, err
		}
	}

	// Establish a deterministic top-to-bottom, left-to-right scan order.
	sorted := make([]model.Token, len(tokens))
	copy(sorted, tokens)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Top != sorted[j].Top {
			return sorted[i].Top < sorted[j].Top
		}
		return sorted[i].X0 < sorted[j].X0
	})

	var regions []model.Region
	var cur block

	for _, tok := range sorted {
		if len(cur.tokens) == 0 {
			cur = block{tokens: []model.Token{tok}, currentY: tok.Top}
			continue
		}

		if d.belongsToBlock(cur, tok) {
			cur.tokens = append(cur.tokens, tok)
			cur.currentY = (cur.currentY + tok.Top) / 2
		} else {
			if r, ok := d.closeBlock(cur, page); ok {
				regions = append(regions, r)
			}
			cur = block{tokens: []model.Token{tok}, currentY: tok.Top}
		}
	}

	// The final pending block is closed under the same rule.
	if r, ok := d.closeBlock(cur, page); ok {
		regions = append(regions, r)
	}

	return regions, nil
}

// belongsToBlock applies the proximity test. The y test dominates: a token
// outside YThreshold always starts a new block, even when the x gap passes.
func (d *Detector) belongsToBlock(cur block, tok model.Token) bool {
	if math.Abs(tok.Top-cur.currentY) > d.config.YThreshold {
		return false
	}
	last := cur.tokens[len(cur.tokens)-1]
	return math.Abs(tok.X0-last.X1) <= d.config.XThreshold
}

// closeBlock computes the minimal enclosing box and concatenated content of
// a block, and reports whether the block clears the word-count filter.
// Blocks with at most MinWords words are discarded silently: that is the
// intended filtering behavior, not a fault.
func (d *Detector) closeBlock(cur block, page model.Page) (model.Region, bool) {
	if len(cur.tokens) == 0 {
		return model.Region{}, false
	}

	bbox := cur.tokens[0].BBox()
	parts := make([]string, 0, len(cur.tokens))
	for i, tok := range cur.tokens {
		if i > 0 {
			bbox = bbox.Union(tok.BBox())
		}
		parts = append(parts, tok.Text)
	}

	content := strings.Join(parts, " ")

	r := model.Region{
		BBox:    bbox.Clip(page.Bounds()),
		Content: content,
		Source:  model.SourceTokenCluster,
	}
	if r.WordCount() <= d.config.MinWords {
		return model.Region{}, false
	}
	if !r.BBox.IsValid() {
		return model.Region{}, false
	}

	return r, true
}
