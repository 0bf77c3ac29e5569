package l2frames

import (
	"errors"
	"testing"

	"github.com/banshee-data/ttc-fusion/internal/fusion/l1sensors"
	"github.com/golang/geo/r2"
)

// =============================================================================
// Tests: Rect
// =============================================================================

func TestRect_Shrink(t *testing.T) {
	r := Rect{X: 100, Y: 50, Width: 200, Height: 100}
	got := r.Shrink(0.10)
	want := Rect{X: 110, Y: 55, Width: 180, Height: 90}
	if got != want {
		t.Errorf("Shrink(0.10) = %+v, want %+v", got, want)
	}

	if r.Shrink(0) != r {
		t.Errorf("Shrink(0) should be identity, got %+v", r.Shrink(0))
	}

	if got.Center() != r.Center() {
		t.Errorf("shrink moved centre from %v to %v", r.Center(), got.Center())
	}
}

func TestRect_ContainsHalfOpen(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 30, Height: 40}

	tests := []struct {
		p    r2.Point
		want bool
	}{
		{r2.Point{X: 10, Y: 20}, true},      // top-left corner is inside
		{r2.Point{X: 39.999, Y: 59.9}, true}, // just inside far edges
		{r2.Point{X: 40, Y: 30}, false},     // right edge excluded
		{r2.Point{X: 20, Y: 60}, false},     // bottom edge excluded
		{r2.Point{X: 9.99, Y: 30}, false},
		{r2.Point{X: 25, Y: 19.99}, false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.p); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestRect_Empty(t *testing.T) {
	if !(Rect{Width: 0, Height: 10}).Empty() {
		t.Error("zero width rect should be empty")
	}
	if (Rect{Width: 1, Height: 1}).Empty() {
		t.Error("unit rect should not be empty")
	}
}

// =============================================================================
// Tests: BoxIndex
// =============================================================================

func TestBoxIndex_Enclosing(t *testing.T) {
	rects := []Rect{
		{X: 0, Y: 0, Width: 100, Height: 100},
		{X: 50, Y: 50, Width: 100, Height: 100},
		{X: 300, Y: 300, Width: 10, Height: 10},
	}
	idx := NewBoxIndex(rects)
	if idx.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", idx.Len())
	}

	tests := []struct {
		name string
		p    r2.Point
		want []int
	}{
		{"only first", r2.Point{X: 10, Y: 10}, []int{0}},
		{"overlap", r2.Point{X: 75, Y: 75}, []int{0, 1}},
		{"shared edge is half-open", r2.Point{X: 100, Y: 75}, []int{1}},
		{"isolated", r2.Point{X: 305, Y: 305}, []int{2}},
		{"nowhere", r2.Point{X: 200, Y: 10}, nil},
	}

	var scratch []int
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scratch = idx.Enclosing(tt.p, scratch)
			if len(scratch) != len(tt.want) {
				t.Fatalf("Enclosing(%v) = %v, want %v", tt.p, scratch, tt.want)
			}
			for i := range tt.want {
				if scratch[i] != tt.want[i] {
					t.Errorf("Enclosing(%v) = %v, want %v", tt.p, scratch, tt.want)
				}
			}
		})
	}
}

func TestBoxIndex_MatchesLinearScan(t *testing.T) {
	rects := make([]Rect, 0, 40)
	for i := 0; i < 40; i++ {
		x := float64((i * 37) % 500)
		y := float64((i * 53) % 300)
		rects = append(rects, Rect{X: x, Y: y, Width: float64(40 + i%7*10), Height: float64(30 + i%5*12)})
	}
	idx := NewBoxIndex(rects)

	var got []int
	for u := 0.0; u < 600; u += 13.5 {
		for v := 0.0; v < 400; v += 11.25 {
			p := r2.Point{X: u, Y: v}
			var want []int
			for i, r := range rects {
				if r.Contains(p) {
					want = append(want, i)
				}
			}
			got = idx.Enclosing(p, got)
			if len(got) != len(want) {
				t.Fatalf("Enclosing(%v) = %v, linear scan %v", p, got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("Enclosing(%v) = %v, linear scan %v", p, got, want)
				}
			}
		}
	}
}

func TestBoxIndex_Empty(t *testing.T) {
	idx := NewBoxIndex(nil)
	if got := idx.Enclosing(r2.Point{X: 1, Y: 1}, nil); len(got) != 0 {
		t.Errorf("expected no boxes, got %v", got)
	}
}

// =============================================================================
// Tests: Frame
// =============================================================================

func TestFrame_BoxByID(t *testing.T) {
	f := &Frame{Boxes: []BoundingBox{{BoxID: 7}, {BoxID: 3}}}
	b := f.BoxByID(3)
	if b == nil || b != &f.Boxes[1] {
		t.Fatalf("BoxByID(3) = %p, want %p", b, &f.Boxes[1])
	}
	if f.BoxByID(99) != nil {
		t.Error("expected nil for unknown box")
	}
}

func TestFrame_Validate(t *testing.T) {
	ok := &Frame{Boxes: []BoundingBox{{BoxID: 0}, {BoxID: 1}}}
	if err := ok.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	dup := &Frame{Index: 4, Boxes: []BoundingBox{{BoxID: 2}, {BoxID: 2}}}
	if err := dup.Validate(); !errors.Is(err, ErrDuplicateBoxID) {
		t.Errorf("expected ErrDuplicateBoxID, got %v", err)
	}
}

func TestFrame_ResetMembership(t *testing.T) {
	f := &Frame{Boxes: []BoundingBox{{BoxID: 0}}}
	f.Boxes[0].LidarPoints = []l1sensors.LidarPoint{{X: 5}}
	f.Boxes[0].KptMatches = make([]l1sensors.Match, 2)
	f.ResetMembership()
	if f.Boxes[0].KptMatches != nil || f.Boxes[0].LidarPoints != nil {
		t.Error("expected membership to be cleared")
	}
}

func TestFrame_ROIs(t *testing.T) {
	f := &Frame{Boxes: []BoundingBox{
		{BoxID: 0, ROI: Rect{X: 1, Width: 2, Height: 2}},
		{BoxID: 1, ROI: Rect{X: 5, Width: 1, Height: 1}},
	}}
	rois := f.ROIs()
	if len(rois) != 2 || rois[1].X != 5 {
		t.Errorf("unexpected ROIs: %+v", rois)
	}
}
