package homography

import (
	"errors"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/cyclopcam/logs"
)

// Options tune the robust estimation in Calculate
type Options struct {
	// RansacThreshold is the maximum reprojection error, in world units, for
	// a correspondence to count as an inlier
	RansacThreshold float64
	// MaxIterations caps the number of RANSAC samples drawn
	MaxIterations int
	// Confidence is the desired probability of drawing an outlier free sample
	Confidence float64
	// Seed seeds the sampler so results are reproducible
	Seed int64
}

// DefaultOptions returns the options used when none are given
func DefaultOptions() Options {
	return Options{
		RansacThreshold: 5.0,
		MaxIterations:   2000,
		Confidence:      0.995,
		Seed:            1,
	}
}

// withDefaults fills zero fields from DefaultOptions
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.RansacThreshold <= 0 {
		o.RansacThreshold = def.RansacThreshold
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = def.MaxIterations
	}
	if o.Confidence <= 0 || o.Confidence >= 1 {
		o.Confidence = def.Confidence
	}
	return o
}

// Solution is an immutable calibration result
type Solution struct {
	Matrix Matrix
	// Points are the correspondences the solution was calculated from
	Points []Correspondence
	// Errors is the reprojection error of each correspondence, in world units
	Errors []float64
	// Inliers marks the correspondences in the final consensus set
	Inliers []bool
}

// InlierCount returns the number of correspondences in the consensus set
func (s *Solution) InlierCount() int {
	n := 0
	for _, in := range s.Inliers {
		if in {
			n++
		}
	}
	return n
}

// Calculator estimates the image to ground plane homography from calibration
// correspondences and transforms pixel coordinates to world coordinates.
//
// Transforms may be called concurrently with Calculate, readers see either
// the previous or the new solution.
type Calculator struct {
	log  logs.Log
	opts Options

	// mu guards the loaded correspondences and metadata
	mu   sync.Mutex
	corr []Correspondence
	meta Metadata

	sol atomic.Pointer[Solution]
}

// NewCalculator returns a Calculator with no correspondences loaded
func NewCalculator(log logs.Log, opts Options) *Calculator {
	return &Calculator{
		log:  log,
		opts: opts.withDefaults(),
	}
}

// Options returns the estimation options in use
func (c *Calculator) Options() Options {
	return c.opts
}

// LoadFile loads calibration correspondences from a JSON file
func (c *Calculator) LoadFile(path string) error {

	corr, meta, err := ParseCalibrationFile(path)

	if err != nil {
		return err
	}

	c.store(corr, meta)
	c.log.Infof("Loaded %v point correspondences from %v", len(corr), path)

	return nil
}

// LoadCorrespondences loads calibration correspondences from JSON
func (c *Calculator) LoadCorrespondences(r io.Reader) error {

	corr, meta, err := ParseCalibration(r)

	if err != nil {
		return err
	}

	c.store(corr, meta)
	c.log.Infof("Loaded %v point correspondences", len(corr))

	return nil
}

// SetCorrespondences replaces the loaded correspondences with corr
func (c *Calculator) SetCorrespondences(corr []Correspondence) error {

	if err := checkCorrespondences(corr); err != nil {
		return err
	}

	cp := make([]Correspondence, len(corr))
	copy(cp, corr)

	c.store(cp, Metadata{TotalPoints: len(cp)})

	return nil
}

func (c *Calculator) store(corr []Correspondence, meta Metadata) {

	if meta.TotalPoints != 0 && meta.TotalPoints != len(corr) {
		c.log.Warnf("Calibration file declares %v points but contains %v", meta.TotalPoints, len(corr))
	}

	c.mu.Lock()
	c.corr = corr
	c.meta = meta
	c.mu.Unlock()
}

// Correspondences returns a copy of the loaded correspondences
func (c *Calculator) Correspondences() []Correspondence {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Correspondence, len(c.corr))
	copy(out, c.corr)

	return out
}

// Metadata returns the metadata of the loaded calibration
func (c *Calculator) Metadata() Metadata {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.meta
}

// WorldPoints returns the world side of the loaded correspondences
func (c *Calculator) WorldPoints() []Point {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Point, len(c.corr))
	for i, p := range c.corr {
		out[i] = p.World
	}

	return out
}

// Calculate estimates the homography from the loaded correspondences and
// publishes it for use by the transform methods.  With exactly four pairs
// the transform is solved directly, with more RANSAC is used to reject
// outliers.  On error any previous solution remains in place.
func (c *Calculator) Calculate() error {

	corr := c.Correspondences()

	if len(corr) < MinPoints {
		return &CalibrationError{Kind: InsufficientPoints, Points: len(corr)}
	}

	src := make([]Point, len(corr))
	dst := make([]Point, len(corr))
	for i, p := range corr {
		src[i] = p.Pixel
		dst[i] = p.World
	}

	var (
		h       Matrix
		inliers []bool
		err     error
	)

	if len(corr) == MinPoints {
		h, err = c.solveDirect(src, dst)
		inliers = []bool{true, true, true, true}
	} else {
		var est estimate
		est, err = c.solveRobust(src, dst)
		h = est.matrix
		inliers = est.inliers
	}

	if err != nil {
		return degenerate(len(corr), err)
	}

	errs := make([]float64, len(corr))
	for i := range corr {
		errs[i] = h.Apply(src[i]).Distance(dst[i])
	}

	sol := &Solution{
		Matrix:  h,
		Points:  corr,
		Errors:  errs,
		Inliers: inliers,
	}

	c.sol.Store(sol)

	c.log.Infof("Homography calculated from %v points, %v inliers, mean error %.4f",
		len(corr), sol.InlierCount(), mean(errs))

	return nil
}

func (c *Calculator) solveDirect(src, dst []Point) (Matrix, error) {

	var s, d [4]Point
	copy(s[:], src)
	copy(d[:], dst)

	if err := checkSample(s, d); err != nil {
		return Matrix{}, err
	}

	return fitDLT(src, dst)
}

func (c *Calculator) solveRobust(src, dst []Point) (estimate, error) {

	if allCollinear(src) || allCollinear(dst) {
		return estimate{}, errCollinear
	}

	rng := rand.New(rand.NewSource(c.opts.Seed))

	est, err := ransac(src, dst, c.opts, rng)
	if err != nil {
		return estimate{}, err
	}

	if outliers := len(src) - est.count; outliers > 0 {
		c.log.Warnf("RANSAC rejected %v of %v correspondences as outliers", outliers, len(src))
	}

	return est, nil
}

// Calibrated reports whether a solution is available
func (c *Calculator) Calibrated() bool {
	return c.sol.Load() != nil
}

// Solution returns the current solution, or ErrNotCalibrated.  The returned
// value shares no memory with the calculator.
func (c *Calculator) Solution() (Solution, error) {

	sol := c.sol.Load()

	if sol == nil {
		return Solution{}, ErrNotCalibrated
	}

	out := Solution{
		Matrix:  sol.Matrix,
		Points:  make([]Correspondence, len(sol.Points)),
		Errors:  make([]float64, len(sol.Errors)),
		Inliers: make([]bool, len(sol.Inliers)),
	}
	copy(out.Points, sol.Points)
	copy(out.Errors, sol.Errors)
	copy(out.Inliers, sol.Inliers)

	return out, nil
}

// Matrix returns the current homography matrix
func (c *Calculator) Matrix() (Matrix, error) {

	sol := c.sol.Load()

	if sol == nil {
		return Matrix{}, ErrNotCalibrated
	}

	return sol.Matrix, nil
}

// TransformPoint maps a pixel coordinate to world coordinates
func (c *Calculator) TransformPoint(p Point) (Point, error) {

	sol := c.sol.Load()

	if sol == nil {
		return Point{}, ErrNotCalibrated
	}

	return sol.Matrix.Apply(p), nil
}

// TransformPoints maps pixel coordinates to world coordinates, preserving
// order.  All points are transformed by the same solution.
func (c *Calculator) TransformPoints(ps []Point) ([]Point, error) {

	sol := c.sol.Load()

	if sol == nil {
		return nil, ErrNotCalibrated
	}

	out := make([]Point, len(ps))
	for i, p := range ps {
		out[i] = sol.Matrix.Apply(p)
	}

	return out, nil
}

// IsCalibrationError reports whether err is caused by bad calibration data
func IsCalibrationError(err error) bool {
	var ce *CalibrationError
	return errors.As(err, &ce)
}
