package homography

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultValidationThreshold is the maximum reprojection error, in world
// units, used by Summary
const DefaultValidationThreshold = 1.0

// ValidationReport describes how well the solution reproduces the world
// coordinates of the calibration points
type ValidationReport struct {
	Valid          bool
	MeanError      float64
	MaxError       float64
	StdError       float64
	Threshold      float64
	NumPoints      int
	PerPointErrors []float64
}

// Validate reports the reprojection error statistics of the current
// solution.  The calibration is valid when the largest error does not
// exceed maxError.  Before a successful Calculate the report is invalid with
// zero statistics.
func (c *Calculator) Validate(maxError float64) ValidationReport {

	sol := c.sol.Load()

	if sol == nil || len(sol.Errors) == 0 {
		return ValidationReport{Threshold: maxError}
	}

	errs := make([]float64, len(sol.Errors))
	copy(errs, sol.Errors)

	// population standard deviation
	m, variance := stat.PopMeanVariance(errs, nil)
	maxErr := floats.Max(errs)

	return ValidationReport{
		Valid:          maxErr <= maxError,
		MeanError:      m,
		MaxError:       maxErr,
		StdError:       math.Sqrt(variance),
		Threshold:      maxError,
		NumPoints:      len(errs),
		PerPointErrors: errs,
	}
}

// Summary is a one glance description of the calibration state
type Summary struct {
	Status     string
	NumPoints  int
	Inliers    int
	MeanError  float64
	MaxError   float64
	Valid      bool
	Matrix     Matrix
	Calibrated bool
}

// Summary describes the loaded points and the current solution, judging
// validity against DefaultValidationThreshold
func (c *Calculator) Summary() Summary {

	sol := c.sol.Load()

	if sol == nil {
		return Summary{
			Status:    "not calibrated",
			NumPoints: len(c.Correspondences()),
		}
	}

	rep := c.Validate(DefaultValidationThreshold)

	return Summary{
		Status:     "calibrated",
		NumPoints:  len(sol.Points),
		Inliers:    sol.InlierCount(),
		MeanError:  rep.MeanError,
		MaxError:   rep.MaxError,
		Valid:      rep.Valid,
		Matrix:     sol.Matrix,
		Calibrated: true,
	}
}

// String formats the report with one line per point
func (r ValidationReport) String() string {

	var b strings.Builder

	fmt.Fprintf(&b, "valid=%v points=%d mean=%.4f max=%.4f std=%.4f threshold=%.4f",
		r.Valid, r.NumPoints, r.MeanError, r.MaxError, r.StdError, r.Threshold)

	for i, e := range r.PerPointErrors {
		fmt.Fprintf(&b, "\n  point %d: error %.4f", i+1, e)
	}

	return b.String()
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return stat.Mean(v, nil)
}
