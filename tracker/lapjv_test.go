package tracker

import (
	"testing"
)

func runLapSolverTest(t *testing.T, cost [][]float64, expectedX, expectedY []int) {

	solver := newLapSolver(cost)

	if err := solver.solve(); err != nil {
		t.Fatalf("solve returned an error: %v", err)
	}

	for i := range expectedX {
		if solver.x[i] != expectedX[i] {
			t.Errorf("Expected x[%d] = %d, but got %d", i, expectedX[i], solver.x[i])
		}
		if solver.y[i] != expectedY[i] {
			t.Errorf("Expected y[%d] = %d, but got %d", i, expectedY[i], solver.y[i])
		}
	}
}

func TestLapSolver(t *testing.T) {
	costMatrix1 := [][]float64{
		{4, 1, 3, 2},
		{2, 0, 5, 3},
		{3, 2, 2, 3},
		{2, 3, 3, 2},
	}

	expectedX1 := []int{3, 1, 2, 0}
	expectedY1 := []int{3, 1, 2, 0}

	costMatrix2 := [][]float64{
		{10, 19, 8, 15},
		{10, 18, 7, 17},
		{13, 16, 9, 14},
		{12, 19, 8, 18},
	}

	expectedX2 := []int{3, 0, 1, 2}
	expectedY2 := []int{1, 2, 3, 0}

	t.Run("Test Case 1", func(t *testing.T) {
		runLapSolverTest(t, costMatrix1, expectedX1, expectedY1)
	})

	t.Run("Test Case 2", func(t *testing.T) {
		runLapSolverTest(t, costMatrix2, expectedX2, expectedY2)
	})
}

func TestSolveRectangular(t *testing.T) {
	// two tracks, three detections; column 2 overlaps nothing usable
	cost := [][]float64{
		{0.2, 0.9, 1.0},
		{0.1, 0.3, 1.0},
	}

	rowSol, colSol := solveRectangular(cost, 0.7)

	// row 1 is cheapest at column 0 but the optimum gives it column 1
	if rowSol[0] != 0 || rowSol[1] != 1 {
		t.Errorf("unexpected row solution %v", rowSol)
	}
	if colSol[0] != 0 || colSol[1] != 1 || colSol[2] != -1 {
		t.Errorf("unexpected column solution %v", colSol)
	}
}

func TestSolveRectangularRespectsLimit(t *testing.T) {
	cost := [][]float64{
		{0.95},
	}

	rowSol, colSol := solveRectangular(cost, 0.7)

	if rowSol[0] != -1 || colSol[0] != -1 {
		t.Errorf("expected no assignment above the cost limit, got %v %v", rowSol, colSol)
	}
}

func TestSolveRectangularEmpty(t *testing.T) {
	rowSol, colSol := solveRectangular(nil, 0.7)

	if len(rowSol) != 0 || len(colSol) != 0 {
		t.Errorf("expected empty solutions, got %v %v", rowSol, colSol)
	}
}
