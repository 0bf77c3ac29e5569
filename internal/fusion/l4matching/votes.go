package l4matching

import (
	"github.com/banshee-data/ttc-fusion/internal/config"
	"github.com/banshee-data/ttc-fusion/internal/fusion/l1sensors"
	"github.com/banshee-data/ttc-fusion/internal/fusion/l2frames"
)

// MatchParams selects how a VoteTable is resolved.
type MatchParams struct {
	// Exclusive resolves the table as a one-to-one assignment maximising
	// the total vote count instead of an independent argmax per row.
	Exclusive bool
}

// MatchParamsFromTuning builds MatchParams from a loaded TuningConfig.
func MatchParamsFromTuning(cfg *config.TuningConfig) MatchParams {
	return MatchParams{Exclusive: cfg.GetExclusiveBoxMatching()}
}

// VoteTable counts, for every (previous box, current box) pair, the
// keypoint matches whose endpoints fall in both boxes' original ROIs.
// Rows follow prev.Boxes order and columns follow curr.Boxes order.
type VoteTable struct {
	PrevIDs []int
	CurrIDs []int
	Votes   [][]int
}

// BuildVoteTable tallies matches into a VoteTable. A match whose previous
// keypoint lies in several previous boxes, or whose current keypoint lies
// in several current boxes, votes once for every pairing.
//
// Match indices must already be validated against prev.Keypoints and
// curr.Keypoints.
func BuildVoteTable(matches []l1sensors.Match, prev, curr *l2frames.Frame) VoteTable {
	t := VoteTable{
		PrevIDs: make([]int, len(prev.Boxes)),
		CurrIDs: make([]int, len(curr.Boxes)),
		Votes:   make([][]int, len(prev.Boxes)),
	}
	for i, b := range prev.Boxes {
		t.PrevIDs[i] = b.BoxID
	}
	for j, b := range curr.Boxes {
		t.CurrIDs[j] = b.BoxID
	}
	cells := make([]int, len(prev.Boxes)*len(curr.Boxes))
	for i := range t.Votes {
		t.Votes[i] = cells[i*len(curr.Boxes) : (i+1)*len(curr.Boxes)]
	}
	if len(prev.Boxes) == 0 || len(curr.Boxes) == 0 {
		return t
	}

	prevIdx := l2frames.NewBoxIndex(prev.ROIs())
	currIdx := l2frames.NewBoxIndex(curr.ROIs())

	var inPrev, inCurr []int
	for _, m := range matches {
		inPrev = prevIdx.Enclosing(prev.Keypoints[m.QueryIdx].Pt, inPrev)
		if len(inPrev) == 0 {
			continue
		}
		inCurr = currIdx.Enclosing(curr.Keypoints[m.TrainIdx].Pt, inCurr)
		for _, i := range inPrev {
			for _, j := range inCurr {
				t.Votes[i][j]++
			}
		}
	}
	return t
}

// Argmax maps every previous BoxID to the current BoxID with the most
// votes in its row. Ties go to the current box that comes first in
// curr.Boxes. Rows without a single vote are omitted.
func (t VoteTable) Argmax() map[int]int {
	best := make(map[int]int, len(t.Votes))
	for i, row := range t.Votes {
		bestJ, bestCount := -1, 0
		for j, n := range row {
			if n > bestCount {
				bestJ, bestCount = j, n
			}
		}
		if bestJ >= 0 {
			best[t.PrevIDs[i]] = t.CurrIDs[bestJ]
		}
	}
	return best
}

// Exclusive maps previous BoxIDs to current BoxIDs one-to-one, maximising
// the total number of supporting votes. Pairs without votes are never
// selected, so rows may be left out.
func (t VoteTable) Exclusive() map[int]int {
	best := make(map[int]int, len(t.Votes))
	if len(t.Votes) == 0 || len(t.CurrIDs) == 0 {
		return best
	}

	cost := make([][]float64, len(t.Votes))
	for i, row := range t.Votes {
		cost[i] = make([]float64, len(row))
		for j, n := range row {
			if n == 0 {
				cost[i][j] = forbiddenCost
			} else {
				cost[i][j] = -float64(n)
			}
		}
	}

	for i, j := range solveAssignment(cost) {
		if j >= 0 {
			best[t.PrevIDs[i]] = t.CurrIDs[j]
		}
	}
	return best
}

// Resolve applies the resolution selected by params.
func (t VoteTable) Resolve(params MatchParams) map[int]int {
	if params.Exclusive {
		return t.Exclusive()
	}
	return t.Argmax()
}

// MatchBoundingBoxes returns the box correspondence prevBoxID → currBoxID
// supported by the most keypoint matches. The mapping is functional but
// not necessarily injective.
func MatchBoundingBoxes(matches []l1sensors.Match, prev, curr *l2frames.Frame) map[int]int {
	bb := BuildVoteTable(matches, prev, curr).Argmax()
	diagf("frame %d->%d: %d of %d previous boxes matched from %d keypoint matches",
		prev.Index, curr.Index, len(bb), len(prev.Boxes), len(matches))
	return bb
}
