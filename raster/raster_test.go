package raster

import (
	"os"
	"testing"
)

func TestScaleFactor(t *testing.T) {
	tests := []struct {
		dpi  int
		want float64
	}{
		{72, 1.0},
		{144, 2.0},
		{300, 300.0 / 72.0},
	}

	for _, tt := range tests {
		if got := ScaleFactor(tt.dpi); got != tt.want {
			t.Errorf("ScaleFactor(%d) = %v, want %v", tt.dpi, got, tt.want)
		}
	}
}

func TestOpen_MissingFile(t *testing.T) {
	if _, err := Open("testdata/does-not-exist.pdf"); err == nil {
		t.Error("Open() on missing file succeeded")
	}
}

func TestOpenTokens_SampleIfPresent(t *testing.T) {
	const sample = "testdata/sample.pdf"
	if _, err := os.Stat(sample); err != nil {
		t.Skip("no sample PDF checked in")
	}

	src, err := OpenTokens(sample)
	if err != nil {
		t.Fatalf("OpenTokens() failed: %v", err)
	}
	defer src.Close()

	tokens, page, err := src.Tokens(0)
	if err != nil {
		t.Fatalf("Tokens() failed: %v", err)
	}
	if err := page.Validate(); err != nil {
		t.Errorf("page metadata invalid: %v", err)
	}
	for _, tok := range tokens {
		if err := tok.Validate(); err != nil {
			t.Errorf("extracted token invalid: %v", err)
		}
	}
}
