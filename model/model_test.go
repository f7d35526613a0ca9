package model

import (
	"errors"
	"math"
	"testing"
)

func TestBBoxDimensions(t *testing.T) {
	b := NewBBox(10, 20, 110, 70)

	if w := b.Width(); w != 100 {
		t.Errorf("Width() = %v, want 100", w)
	}
	if h := b.Height(); h != 50 {
		t.Errorf("Height() = %v, want 50", h)
	}
	if a := b.Area(); a != 5000 {
		t.Errorf("Area() = %v, want 5000", a)
	}
	if p := b.Perimeter(); p != 300 {
		t.Errorf("Perimeter() = %v, want 300", p)
	}
}

func TestBBoxAspectRatio(t *testing.T) {
	tests := []struct {
		name string
		box  BBox
		want float64
	}{
		{"wide", NewBBox(0, 0, 200, 100), 2.0},
		{"tall", NewBBox(0, 0, 100, 300), 3.0},
		{"square", NewBBox(0, 0, 50, 50), 1.0},
		{"zero width", NewBBox(0, 0, 0, 50), 0},
		{"zero height", NewBBox(0, 0, 50, 0), 0},
		{"inverted", NewBBox(50, 50, 0, 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.box.AspectRatio(); got != tt.want {
				t.Errorf("AspectRatio() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBBoxDegenerateGuards(t *testing.T) {
	degenerate := NewBBox(10, 10, 10, 40)

	if degenerate.Area() != 0 {
		t.Errorf("Area() of degenerate box = %v, want 0", degenerate.Area())
	}
	if degenerate.Perimeter() != 0 {
		t.Errorf("Perimeter() of degenerate box = %v, want 0", degenerate.Perimeter())
	}
	if degenerate.IsValid() {
		t.Error("IsValid() = true for degenerate box")
	}
}

func TestBBoxIntersection(t *testing.T) {
	a := NewBBox(0, 0, 100, 100)
	b := NewBBox(50, 50, 150, 150)

	if !a.Intersects(b) {
		t.Fatal("Intersects() = false, want true")
	}

	inter := a.Intersection(b)
	want := NewBBox(50, 50, 100, 100)
	if inter != want {
		t.Errorf("Intersection() = %+v, want %+v", inter, want)
	}

	far := NewBBox(200, 200, 300, 300)
	if a.Intersects(far) {
		t.Error("Intersects() = true for disjoint boxes")
	}
	if got := a.Intersection(far); got != (BBox{}) {
		t.Errorf("Intersection() of disjoint boxes = %+v, want zero box", got)
	}
}

func TestBBoxUnion(t *testing.T) {
	a := NewBBox(0, 0, 50, 50)
	b := NewBBox(100, 100, 200, 150)

	got := a.Union(b)
	want := NewBBox(0, 0, 200, 150)
	if got != want {
		t.Errorf("Union() = %+v, want %+v", got, want)
	}
}

func TestBBoxContains(t *testing.T) {
	outer := NewBBox(0, 0, 100, 100)
	inner := NewBBox(10, 10, 90, 90)

	if !outer.Contains(inner) {
		t.Error("Contains() = false for nested box")
	}
	if inner.Contains(outer) {
		t.Error("Contains() = true for enclosing box")
	}
}

func TestBBoxOverlapFraction(t *testing.T) {
	tests := []struct {
		name string
		a, b BBox
		want float64
	}{
		{
			name: "half of smaller",
			a:    NewBBox(0, 0, 100, 100),
			b:    NewBBox(50, 0, 150, 50), // area 5000, intersection 2500
			want: 0.5,
		},
		{
			name: "fully nested",
			a:    NewBBox(0, 0, 100, 100),
			b:    NewBBox(25, 25, 75, 75),
			want: 1.0,
		},
		{
			name: "disjoint",
			a:    NewBBox(0, 0, 10, 10),
			b:    NewBBox(20, 20, 30, 30),
			want: 0,
		},
		{
			name: "degenerate",
			a:    NewBBox(0, 0, 0, 10),
			b:    NewBBox(0, 0, 10, 10),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.OverlapFraction(tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("OverlapFraction() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBBoxClip(t *testing.T) {
	page := NewBBox(0, 0, 612, 792)

	overshoot := NewBBox(-10, 700, 300, 900)
	got := overshoot.Clip(page)
	want := NewBBox(0, 700, 300, 792)
	if got != want {
		t.Errorf("Clip() = %+v, want %+v", got, want)
	}

	inside := NewBBox(10, 10, 20, 20)
	if clipped := inside.Clip(page); clipped != inside {
		t.Errorf("Clip() changed a box already inside bounds: %+v", clipped)
	}
}

func TestBBoxScale(t *testing.T) {
	b := NewBBox(10, 20, 30, 40)
	got := b.Scale(2.5)
	want := NewBBox(25, 50, 75, 100)
	if got != want {
		t.Errorf("Scale() = %+v, want %+v", got, want)
	}
}

func TestTokenValidate(t *testing.T) {
	good := Token{X0: 10, Top: 20, X1: 40, Bottom: 32, Text: "word"}
	if err := good.Validate(); err != nil {
		t.Errorf("Validate() on valid token = %v", err)
	}

	inverted := Token{X0: 40, Top: 20, X1: 10, Bottom: 32, Text: "word"}
	if err := inverted.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Validate() on inverted token = %v, want ErrInvalidInput", err)
	}

	nan := Token{X0: math.NaN(), Top: 20, X1: 10, Bottom: 32, Text: "word"}
	if err := nan.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Validate() on NaN token = %v, want ErrInvalidInput", err)
	}
}

func TestRegionWordCount(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"one", 1},
		{"five words in this string", 5},
		{"  padded   whitespace  ", 2},
	}

	for _, tt := range tests {
		r := Region{Content: tt.content}
		if got := r.WordCount(); got != tt.want {
			t.Errorf("WordCount(%q) = %d, want %d", tt.content, got, tt.want)
		}
	}
}

func TestPageValidate(t *testing.T) {
	if err := (Page{Width: 612, Height: 792, Number: 1}).Validate(); err != nil {
		t.Errorf("Validate() on valid page = %v", err)
	}
	if err := (Page{Width: 0, Height: 792}).Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Validate() on zero-width page = %v, want ErrInvalidInput", err)
	}
}

func TestSourceKindString(t *testing.T) {
	if s := SourceTokenCluster.String(); s != "token_cluster" {
		t.Errorf("SourceTokenCluster.String() = %q", s)
	}
	if s := SourceContour.String(); s != "contour" {
		t.Errorf("SourceContour.String() = %q", s)
	}
}
