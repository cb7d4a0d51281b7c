package homography

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-6

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func pairs(pixels, world []Point) []Correspondence {
	out := make([]Correspondence, len(pixels))
	for i := range pixels {
		out[i] = Correspondence{Pixel: pixels[i], World: world[i]}
	}
	return out
}

func unitSquare() []Correspondence {
	return pairs(
		[]Point{Pt(0, 0), Pt(100, 0), Pt(100, 100), Pt(0, 100)},
		[]Point{Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10)},
	)
}

// perspective is a known transform used to synthesise exact correspondences
var perspective = Matrix{1.2, 0.2, 5, 0.1, 1.5, -3, 0.001, 0.002, 1}

var perspectivePixels = []Point{
	Pt(0, 0), Pt(400, 0), Pt(400, 300), Pt(0, 300),
	Pt(200, 150), Pt(100, 250), Pt(320, 60), Pt(50, 120),
}

func synthesise(h Matrix, pixels []Point) []Correspondence {
	world := make([]Point, len(pixels))
	for i, p := range pixels {
		world[i] = h.Apply(p)
	}
	return pairs(pixels, world)
}

func newCalibrated(t *testing.T, corr []Correspondence) *Calculator {
	t.Helper()
	c := NewCalculator(logs.NewTestingLog(t), DefaultOptions())
	require.NoError(t, c.SetCorrespondences(corr))
	require.NoError(t, c.Calculate())
	return c
}

func TestUnitSquareScale(t *testing.T) {
	c := newCalibrated(t, unitSquare())

	p, err := c.TransformPoint(Pt(50, 50))
	require.NoError(t, err)
	assert.InDelta(t, 5, p.X, epsilon)
	assert.InDelta(t, 5, p.Y, epsilon)

	m, err := c.Matrix()
	require.NoError(t, err)
	assert.InDelta(t, 1, m[8], epsilon)
	assert.InDelta(t, 0.1, m[0], epsilon)
	assert.InDelta(t, 0.1, m[4], epsilon)

	rep := c.Validate(1.0)
	assert.True(t, rep.Valid)
	assert.Equal(t, 4, rep.NumPoints)
	assert.Less(t, rep.MaxError, epsilon)
}

func TestRecoversPerspective(t *testing.T) {
	c := newCalibrated(t, synthesise(perspective, perspectivePixels))

	m, err := c.Matrix()
	require.NoError(t, err)

	for i := range m {
		if !almostEqual(m[i], perspective[i], 1e-6) {
			t.Errorf("element %d: got %v, want %v", i, m[i], perspective[i])
		}
	}

	sol, err := c.Solution()
	require.NoError(t, err)
	assert.Equal(t, len(perspectivePixels), sol.InlierCount())
}

func TestRoundTripWithinRecordedError(t *testing.T) {
	corr := synthesise(perspective, perspectivePixels)
	// perturb the world side so the fit is not exact
	corr[2].World.X += 0.3
	corr[5].World.Y -= 0.2

	c := newCalibrated(t, corr)
	sol, err := c.Solution()
	require.NoError(t, err)

	for i, p := range corr {
		w, err := c.TransformPoint(p.Pixel)
		require.NoError(t, err)
		assert.InDelta(t, sol.Errors[i], w.Distance(p.World), 1e-9, "point %d", i)
	}

	rep := c.Validate(1.0)
	assert.Equal(t, len(corr), len(rep.PerPointErrors))
	assert.True(t, rep.MaxError >= rep.MeanError)
	assert.Equal(t, rep.MaxError <= 1.0, rep.Valid)
}

func TestRejectsOutlier(t *testing.T) {
	corr := synthesise(perspective, perspectivePixels)
	corr[7].World.X += 50

	c := newCalibrated(t, corr)
	sol, err := c.Solution()
	require.NoError(t, err)

	assert.False(t, sol.Inliers[7])
	assert.Equal(t, 7, sol.InlierCount())
	assert.Greater(t, sol.Errors[7], 40.0)

	for i := 0; i < 7; i++ {
		assert.Less(t, sol.Errors[i], 1e-6, "point %d", i)
	}

	// the outlier makes the calibration fail validation
	assert.False(t, c.Validate(1.0).Valid)
}

func TestDeterministic(t *testing.T) {
	corr := synthesise(perspective, perspectivePixels)
	corr[3].World.Y += 25
	corr[6].World.X -= 0.4

	a := newCalibrated(t, corr)
	b := newCalibrated(t, corr)

	sa, err := a.Solution()
	require.NoError(t, err)
	sb, err := b.Solution()
	require.NoError(t, err)

	if diff := cmp.Diff(sa, sb); diff != "" {
		t.Errorf("solutions differ (-a +b):\n%s", diff)
	}
}

func TestInsufficientPoints(t *testing.T) {
	c := NewCalculator(logs.NewTestingLog(t), DefaultOptions())

	err := c.SetCorrespondences(unitSquare()[:3])
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientPoints))
	assert.False(t, errors.Is(err, ErrMalformedInput))
	assert.Contains(t, err.Error(), "3")

	var ce *CalibrationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, InsufficientPoints, ce.Kind)
	assert.Equal(t, 3, ce.Points)

	err = c.Calculate()
	assert.True(t, errors.Is(err, ErrInsufficientPoints))
}

func TestDegenerateGeometry(t *testing.T) {
	cases := []struct {
		name  string
		pixel []Point
		world []Point
	}{
		{
			name:  "collinear pixels",
			pixel: []Point{Pt(0, 0), Pt(10, 10), Pt(20, 20), Pt(30, 30)},
			world: []Point{Pt(0, 0), Pt(1, 0), Pt(1, 1), Pt(0, 1)},
		},
		{
			name:  "three collinear of four",
			pixel: []Point{Pt(0, 0), Pt(50, 0), Pt(100, 0), Pt(0, 100)},
			world: []Point{Pt(0, 0), Pt(5, 0), Pt(10, 1), Pt(0, 10)},
		},
		{
			name:  "collinear world",
			pixel: []Point{Pt(0, 0), Pt(100, 0), Pt(100, 100), Pt(0, 100)},
			world: []Point{Pt(0, 0), Pt(1, 1), Pt(2, 2), Pt(3, 3)},
		},
		{
			name:  "many collinear",
			pixel: []Point{Pt(0, 0), Pt(1, 2), Pt(2, 4), Pt(3, 6), Pt(4, 8), Pt(5, 10)},
			world: []Point{Pt(0, 0), Pt(1, 0), Pt(1, 1), Pt(0, 1), Pt(2, 2), Pt(3, 1)},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCalculator(logs.NewTestingLog(t), DefaultOptions())
			require.NoError(t, c.SetCorrespondences(pairs(tc.pixel, tc.world)))

			err := c.Calculate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDegenerateGeometry), "got %v", err)
			assert.False(t, c.Calibrated())
		})
	}
}

func TestFailedCalculateKeepsPreviousSolution(t *testing.T) {
	c := newCalibrated(t, unitSquare())

	require.NoError(t, c.SetCorrespondences(pairs(
		[]Point{Pt(0, 0), Pt(10, 10), Pt(20, 20), Pt(30, 30)},
		[]Point{Pt(0, 0), Pt(1, 0), Pt(1, 1), Pt(0, 1)},
	)))
	require.Error(t, c.Calculate())

	p, err := c.TransformPoint(Pt(100, 100))
	require.NoError(t, err)
	assert.InDelta(t, 10, p.X, epsilon)
	assert.InDelta(t, 10, p.Y, epsilon)
}

func TestNotCalibrated(t *testing.T) {
	c := NewCalculator(logs.NewTestingLog(t), DefaultOptions())

	_, err := c.TransformPoint(Pt(1, 1))
	assert.ErrorIs(t, err, ErrNotCalibrated)

	_, err = c.TransformPoints(nil)
	assert.ErrorIs(t, err, ErrNotCalibrated)

	_, err = c.Matrix()
	assert.ErrorIs(t, err, ErrNotCalibrated)

	rep := c.Validate(1.0)
	assert.False(t, rep.Valid)
	assert.Equal(t, 0, rep.NumPoints)
	assert.Equal(t, 0.0, rep.MeanError)

	s := c.Summary()
	assert.False(t, s.Calibrated)
	assert.Equal(t, "not calibrated", s.Status)

	assert.ErrorIs(t, c.SaveAccuracyPlot(filepath.Join(t.TempDir(), "plot.png")), ErrNotCalibrated)
}

func TestTransformPoints(t *testing.T) {
	c := newCalibrated(t, unitSquare())

	out, err := c.TransformPoints(nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	in := []Point{Pt(0, 0), Pt(100, 0), Pt(20, 70)}
	out, err = c.TransformPoints(in)
	require.NoError(t, err)
	require.Len(t, out, 3)

	for i, p := range in {
		single, err := c.TransformPoint(p)
		require.NoError(t, err)
		assert.Equal(t, single, out[i])
	}
	assert.InDelta(t, 2, out[2].X, epsilon)
	assert.InDelta(t, 7, out[2].Y, epsilon)
}

func TestHorizonMapsToOrigin(t *testing.T) {
	m := Matrix{1, 0, 0, 0, 1, 0, 1, 0, 0}
	assert.Equal(t, Point{}, m.Apply(Pt(0, 5)))
}

func TestSummary(t *testing.T) {
	c := newCalibrated(t, unitSquare())

	s := c.Summary()
	assert.True(t, s.Calibrated)
	assert.Equal(t, "calibrated", s.Status)
	assert.Equal(t, 4, s.NumPoints)
	assert.Equal(t, 4, s.Inliers)
	assert.True(t, s.Valid)
}

func TestSaveAccuracyPlot(t *testing.T) {
	corr := synthesise(perspective, perspectivePixels)
	corr[1].World.X += 0.5
	c := newCalibrated(t, corr)

	path := filepath.Join(t.TempDir(), "accuracy.png")
	require.NoError(t, c.SaveAccuracyPlot(path))

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, st.Size(), int64(0))
}

func TestValidationReportString(t *testing.T) {
	c := newCalibrated(t, unitSquare())
	s := c.Validate(1.0).String()
	assert.True(t, strings.HasPrefix(s, "valid=true points=4"))
	assert.Contains(t, s, "point 4:")
}
