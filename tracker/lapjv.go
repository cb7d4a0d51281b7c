package tracker

import (
	"errors"
)

// lapLarge stands in for infinity inside the solver
const lapLarge = 1000000.0

// solveRectangular solves the assignment problem for a rows x cols cost
// matrix where any pair costing limit or more is better left unassigned.
// The matrix is extended to a square one where every row and column may
// instead be paired with a dummy at cost limit/2.  It returns for every row
// the assigned column (or -1) and for every column the assigned row (or -1).
func solveRectangular(cost [][]float64, limit float64) (rowSol, colSol []int) {

	rows := len(cost)
	cols := 0
	if rows > 0 {
		cols = len(cost[0])
	}

	rowSol = make([]int, rows)
	colSol = make([]int, cols)

	for i := range rowSol {
		rowSol[i] = -1
	}
	for j := range colSol {
		colSol[j] = -1
	}

	if rows == 0 || cols == 0 {
		return rowSol, colSol
	}

	n := rows + cols
	square := make([][]float64, n)

	for i := range square {
		square[i] = make([]float64, n)
		for j := range square[i] {
			switch {
			case i < rows && j < cols:
				square[i][j] = cost[i][j]
			case i >= rows && j >= cols:
				square[i][j] = 0
			default:
				square[i][j] = limit / 2
			}
		}
	}

	solver := newLapSolver(square)

	if err := solver.solve(); err != nil {
		// leave everything unassigned rather than return a partial answer
		return rowSol, colSol
	}

	for i := 0; i < rows; i++ {
		if j := solver.x[i]; j < cols {
			rowSol[i] = j
		}
	}
	for j := 0; j < cols; j++ {
		if i := solver.y[j]; i < rows {
			colSol[j] = i
		}
	}

	return rowSol, colSol
}

// lapSolver holds the working state of the Jonker-Volgenant shortest
// augmenting path algorithm for a dense square cost matrix
type lapSolver struct {
	n    int
	cost [][]float64
	// x[i] is the column assigned to row i, y[j] the row assigned to column j
	x, y []int
	// v are the column dual values
	v []float64
	// free lists rows without an assignment
	free []int
}

func newLapSolver(cost [][]float64) *lapSolver {
	n := len(cost)
	return &lapSolver{
		n:    n,
		cost: cost,
		x:    make([]int, n),
		y:    make([]int, n),
		v:    make([]float64, n),
		free: make([]int, n),
	}
}

// solve runs column reduction, two rounds of augmenting row reduction, and
// finally augmentation for any rows still free
func (s *lapSolver) solve() error {

	nFree := s.columnReduction()

	for round := 0; nFree > 0 && round < 2; round++ {
		nFree = s.rowReduction(nFree)
	}

	if nFree > 0 {
		return s.augment(nFree)
	}

	return nil
}

// columnReduction assigns each column to its cheapest row and performs the
// reduction transfer for rows that were assigned exactly one column.  It
// returns the number of free rows.
func (s *lapSolver) columnReduction() int {

	n := s.n
	unique := make([]bool, n)

	for i := 0; i < n; i++ {
		s.x[i] = -1
		s.v[i] = lapLarge
		s.y[i] = 0
		unique[i] = true
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if c := s.cost[i][j]; c < s.v[j] {
				s.v[j] = c
				s.y[j] = i
			}
		}
	}

	for j := n - 1; j >= 0; j-- {
		i := s.y[j]
		if s.x[i] < 0 {
			s.x[i] = j
		} else {
			unique[i] = false
			s.y[j] = -1
		}
	}

	nFree := 0

	for i := 0; i < n; i++ {

		if s.x[i] < 0 {
			s.free[nFree] = i
			nFree++
			continue
		}

		if !unique[i] {
			continue
		}

		j := s.x[i]
		minVal := lapLarge

		for j2 := 0; j2 < n; j2++ {
			if j2 == j {
				continue
			}
			if c := s.cost[i][j2] - s.v[j2]; c < minVal {
				minVal = c
			}
		}

		s.v[j] -= minVal
	}

	return nFree
}

// rowReduction performs augmenting row reduction on the free rows and
// returns how many rows remain free
func (s *lapSolver) rowReduction(nFree int) int {

	n := s.n
	current := 0
	newFree := 0
	steps := 0

	for current < nFree {

		steps++
		freeI := s.free[current]
		current++

		// find the lowest and second lowest reduced cost of the row
		j1 := 0
		v1 := s.cost[freeI][0] - s.v[0]
		j2 := -1
		v2 := lapLarge

		for j := 1; j < n; j++ {
			c := s.cost[freeI][j] - s.v[j]
			if c >= v2 {
				continue
			}
			if c >= v1 {
				v2 = c
				j2 = j
			} else {
				v2 = v1
				v1 = c
				j2 = j1
				j1 = j
			}
		}

		i0 := s.y[j1]
		v1New := s.v[j1] - (v2 - v1)
		lowers := v1New < s.v[j1]

		if steps < current*n {
			if lowers {
				s.v[j1] = v1New
			} else if i0 >= 0 && j2 >= 0 {
				j1 = j2
				i0 = s.y[j2]
			}

			if i0 >= 0 {
				if lowers {
					current--
					s.free[current] = i0
				} else {
					s.free[newFree] = i0
					newFree++
				}
			}
		} else if i0 >= 0 {
			s.free[newFree] = i0
			newFree++
		}

		s.x[freeI] = j1
		s.y[j1] = freeI
	}

	return newFree
}

// augment finds a shortest augmenting path for every remaining free row and
// flips the assignments along it
func (s *lapSolver) augment(nFree int) error {

	n := s.n
	pred := make([]int, n)

	for _, freeI := range s.free[:nFree] {

		j := s.shortestPath(freeI, pred)

		if j < 0 || j >= n {
			return errors.New("augmenting path ended outside the cost matrix")
		}

		i := -1
		for k := 0; i != freeI; k++ {
			if k >= n {
				return errors.New("augmenting path did not return to its free row")
			}
			i = pred[j]
			s.y[j] = i
			j, s.x[i] = s.x[i], j
		}
	}

	return nil
}

// shortestPath runs one modified Dijkstra search from startI over reduced
// costs, updates the column duals of the settled columns and returns the
// free column reached
func (s *lapSolver) shortestPath(startI int, pred []int) int {

	n := s.n
	lo, hi := 0, 0
	ready := 0
	finalJ := -1
	cols := make([]int, n)
	d := make([]float64, n)

	for j := 0; j < n; j++ {
		cols[j] = j
		pred[j] = startI
		d[j] = s.cost[startI][j] - s.v[j]
	}

	for finalJ == -1 {
		// scan list empty, pull in the next band of minimum distance columns
		if lo == hi {
			ready = lo
			hi = s.findMinimum(lo, d, cols)

			for k := lo; k < hi; k++ {
				if j := cols[k]; s.y[j] < 0 {
					finalJ = j
				}
			}
		}

		if finalJ == -1 {
			finalJ = s.scan(&lo, &hi, d, cols, pred)
		}
	}

	mind := d[cols[lo]]

	for k := 0; k < ready; k++ {
		j := cols[k]
		s.v[j] += d[j] - mind
	}

	return finalJ
}

// findMinimum moves the columns from lo onwards with the smallest distance
// to the front of the todo part of cols and returns the end of that band
func (s *lapSolver) findMinimum(lo int, d []float64, cols []int) int {

	hi := lo + 1
	mind := d[cols[lo]]

	for k := hi; k < s.n; k++ {
		j := cols[k]

		if d[j] > mind {
			continue
		}

		if d[j] < mind {
			hi = lo
			mind = d[j]
		}

		cols[k] = cols[hi]
		cols[hi] = j
		hi++
	}

	return hi
}

// scan relaxes the todo columns through the columns on the scan list.  It
// returns a free column reachable at minimum distance, or -1.
func (s *lapSolver) scan(lo, hi *int, d []float64, cols, pred []int) int {

	for *lo != *hi {

		j := cols[*lo]
		*lo++
		i := s.y[j]
		mind := d[j]
		h := s.cost[i][j] - s.v[j] - mind

		for k := *hi; k < s.n; k++ {
			j = cols[k]
			reduced := s.cost[i][j] - s.v[j] - h

			if reduced >= d[j] {
				continue
			}

			d[j] = reduced
			pred[j] = i

			if reduced == mind {
				if s.y[j] < 0 {
					return j
				}

				cols[k] = cols[*hi]
				cols[*hi] = j
				*hi++
			}
		}
	}

	return -1
}
