package reconcile

import (
	"testing"

	"github.com/clipline/clipline/model"
)

func region(x0, y0, x1, y1 float64, src model.SourceKind) model.Region {
	return model.Region{BBox: model.NewBBox(x0, y0, x1, y1), Source: src}
}

func TestNewReconcilerWithConfig_Invalid(t *testing.T) {
	for _, threshold := range []float64{0, -0.5, 1.01} {
		if _, err := NewReconcilerWithConfig(Config{OverlapThreshold: threshold}); err == nil {
			t.Errorf("NewReconcilerWithConfig() accepted threshold %g", threshold)
		}
	}
}

func TestReconcile_Empty(t *testing.T) {
	r := NewReconciler()

	if got := r.Reconcile(); len(got) != 0 {
		t.Errorf("Reconcile() of nothing = %d regions, want 0", len(got))
	}
	if got := r.Reconcile(nil, nil); len(got) != 0 {
		t.Errorf("Reconcile(nil, nil) = %d regions, want 0", len(got))
	}
}

func TestReconcile_LargerWinsAboveThreshold(t *testing.T) {
	r := NewReconciler() // threshold 0.5

	big := region(0, 0, 200, 200, model.SourceContour)
	// Fully inside big: overlap fraction 1.0 > 0.5, so the smaller one goes.
	small := region(50, 50, 150, 150, model.SourceTokenCluster)

	got := r.Reconcile([]model.Region{small}, []model.Region{big})
	if len(got) != 1 {
		t.Fatalf("got %d regions, want 1", len(got))
	}
	if got[0].BBox != big.BBox {
		t.Errorf("survivor = %+v, want the larger box %+v", got[0].BBox, big.BBox)
	}
	if got[0].Source != model.SourceContour {
		t.Errorf("survivor source = %v, want SourceContour", got[0].Source)
	}
}

func TestReconcile_ExactThresholdKeepsBoth(t *testing.T) {
	r := NewReconciler() // threshold 0.5

	a := region(0, 0, 100, 100, model.SourceTokenCluster)
	// Intersection 50x100 = 5000, smaller area 10000: overlap exactly 0.5.
	b := region(50, 0, 150, 100, model.SourceContour)

	got := r.Reconcile([]model.Region{a, b})
	if len(got) != 2 {
		t.Fatalf("overlap at exactly the threshold dropped a region: got %d, want 2", len(got))
	}
}

func TestReconcile_DisjointSurviveFromBothSources(t *testing.T) {
	r := NewReconciler()

	clusters := []model.Region{region(0, 0, 100, 100, model.SourceTokenCluster)}
	contours := []model.Region{region(300, 300, 500, 500, model.SourceContour)}

	got := r.Reconcile(clusters, contours)
	if len(got) != 2 {
		t.Fatalf("got %d regions, want 2", len(got))
	}
}

func TestReconcile_NeverMerges(t *testing.T) {
	r := NewReconciler()

	a := region(0, 0, 100, 100, model.SourceTokenCluster)
	// 30% of the smaller box overlaps: both survive, and neither box is
	// altered into a union of the two.
	b := region(70, 0, 170, 100, model.SourceContour)

	got := r.Reconcile([]model.Region{a, b})
	if len(got) != 2 {
		t.Fatalf("got %d regions, want 2", len(got))
	}
	for _, reg := range got {
		if reg.BBox != a.BBox && reg.BBox != b.BBox {
			t.Errorf("output box %+v is neither input box", reg.BBox)
		}
	}
}

func TestReconcile_ChainDiscardIsAgainstAccepted(t *testing.T) {
	r := NewReconciler()

	big := region(0, 0, 300, 300, model.SourceContour)
	// mid overlaps big by 0.6 and is discarded. small sits fully inside mid
	// but clear of big, so small survives: comparisons run against accepted
	// regions only, never against discarded ones.
	mid := region(200, 150, 300, 400, model.SourceTokenCluster)
	small := region(220, 320, 280, 400, model.SourceTokenCluster)

	got := r.Reconcile([]model.Region{big, mid, small})
	if len(got) != 2 {
		t.Fatalf("got %d regions, want 2", len(got))
	}
	if got[0].BBox != big.BBox || got[1].BBox != small.BBox {
		t.Errorf("survivors = %+v, want big then small", got)
	}
}

func TestReconcile_OutputReadingOrder(t *testing.T) {
	r := NewReconciler()

	got := r.Reconcile([]model.Region{
		region(400, 500, 600, 700, model.SourceContour),
		region(0, 0, 100, 50, model.SourceTokenCluster),
		region(200, 0, 350, 80, model.SourceTokenCluster),
	})
	if len(got) != 3 {
		t.Fatalf("got %d regions, want 3", len(got))
	}

	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1].BBox, got[i].BBox
		if prev.Y0 > cur.Y0 || (prev.Y0 == cur.Y0 && prev.X0 > cur.X0) {
			t.Errorf("output not in reading order at index %d: %+v before %+v", i, prev, cur)
		}
	}
}

func TestReconcile_InputsNotMutated(t *testing.T) {
	r := NewReconciler()

	in := []model.Region{
		region(400, 400, 500, 500, model.SourceTokenCluster),
		region(0, 0, 300, 300, model.SourceContour),
	}
	snapshot := make([]model.Region, len(in))
	copy(snapshot, in)

	r.Reconcile(in)

	for i := range in {
		if in[i] != snapshot[i] {
			t.Errorf("input slice mutated at %d: %+v", i, in[i])
		}
	}
}
