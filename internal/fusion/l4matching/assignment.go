package l4matching

import "math"

// forbiddenCost marks cells the solver must never select. It stays well
// inside float64's exact integer range so vote-derived costs keep full
// precision next to it.
const forbiddenCost = 1e9

// solveAssignment solves the rectangular minimum-cost assignment problem
// with the Kuhn-Munkres algorithm in its potentials form, O(n³) in the
// larger dimension. It returns cols[i] = column assigned to row i, or -1.
// The matrix is padded square with zero-cost dummy cells, so surplus rows
// stay unassigned for free. Rows that could only be assigned through a
// forbidden cell also stay -1.
//
// Adapted from the Kuhn-Munkres solver HungarianAssign in
// github.com/banshee-data/velocity.report internal/lidar/hungarian.go.
func solveAssignment(cost [][]float64) []int {
	rows := len(cost)
	if rows == 0 {
		return nil
	}
	cols := len(cost[0])
	assigned := make([]int, rows)
	for i := range assigned {
		assigned[i] = -1
	}
	if cols == 0 {
		return assigned
	}

	n := max(rows, cols)
	at := func(i, j int) float64 {
		if i < rows && j < cols {
			return cost[i][j]
		}
		return 0
	}

	// 1-indexed; column 0 is the virtual source of each augmenting path.
	const inf = math.MaxFloat64 / 2
	rowPot := make([]float64, n+1)
	colPot := make([]float64, n+1)
	owner := make([]int, n+1) // owner[j] = row matched to column j
	prevCol := make([]int, n+1)
	slack := make([]float64, n+1)
	visited := make([]bool, n+1)

	for i := 1; i <= n; i++ {
		owner[0] = i
		j0 := 0
		for j := 1; j <= n; j++ {
			slack[j] = inf
			visited[j] = false
		}

		for {
			visited[j0] = true
			i0 := owner[j0]
			delta, j1 := inf, -1
			for j := 1; j <= n; j++ {
				if visited[j] {
					continue
				}
				if c := at(i0-1, j-1) - rowPot[i0] - colPot[j]; c < slack[j] {
					slack[j] = c
					prevCol[j] = j0
				}
				if slack[j] < delta {
					delta, j1 = slack[j], j
				}
			}
			if j1 < 0 {
				break
			}
			for j := 0; j <= n; j++ {
				if visited[j] {
					rowPot[owner[j]] += delta
					colPot[j] -= delta
				} else {
					slack[j] -= delta
				}
			}
			j0 = j1
			if owner[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			owner[j0] = owner[prevCol[j0]]
			j0 = prevCol[j0]
		}
	}

	for j := 1; j <= n; j++ {
		i := owner[j] - 1
		if i < 0 || i >= rows || j-1 >= cols {
			continue
		}
		if cost[i][j-1] >= forbiddenCost {
			continue
		}
		assigned[i] = j - 1
	}
	return assigned
}
