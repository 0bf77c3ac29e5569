package l2frames

import (
	"sort"

	flatbush "github.com/bmharper/flatbush-go"
	"github.com/golang/geo/r2"
)

// BoxIndex answers "which rectangles contain this point" queries over a
// fixed set of rectangles. The R-tree only prefilters candidates; the
// half-open Rect.Contains test decides membership.
type BoxIndex struct {
	rects []Rect
	fb    *flatbush.Flatbush[float64]
}

// NewBoxIndex builds an index over rects. The slice is retained and must
// not be modified while the index is in use.
func NewBoxIndex(rects []Rect) *BoxIndex {
	idx := &BoxIndex{rects: rects}
	if len(rects) == 0 {
		return idx
	}

	fb := flatbush.NewFlatbush[float64]()
	fb.Reserve(len(rects))
	for _, r := range rects {
		fb.Add(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
	}
	fb.Finish()
	idx.fb = fb
	return idx
}

// Len returns the number of indexed rectangles.
func (idx *BoxIndex) Len() int {
	return len(idx.rects)
}

// Enclosing returns the indices of all rectangles containing p in
// ascending order. dst is reused as scratch space when non-nil.
func (idx *BoxIndex) Enclosing(p r2.Point, dst []int) []int {
	dst = dst[:0]
	if idx.fb == nil {
		return dst
	}

	candidates := idx.fb.SearchFast(p.X, p.Y, p.X, p.Y, dst)
	out := candidates[:0]
	for _, i := range candidates {
		if idx.rects[i].Contains(p) {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}
