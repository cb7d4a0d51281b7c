package homography

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// rankTolerance is the ratio of the second smallest to the largest
	// singular value below which the DLT system has no unique solution
	rankTolerance = 1e-9
	// detTolerance is the smallest determinant magnitude, after
	// normalization, of an acceptable homography
	detTolerance = 1e-12
	// collinearTolerance is the relative cross product magnitude below which
	// three points are treated as lying on a line
	collinearTolerance = 1e-9
)

var (
	errCollinear      = errors.New("three or more points are collinear")
	errOrientation    = errors.New("point ordering is inconsistent between image and world")
	errRankDeficient  = errors.New("point configuration does not constrain a unique transform")
	errSingular       = errors.New("estimated transform is singular")
	errNonFinite      = errors.New("estimated transform is not finite")
	errNoConvergence  = errors.New("singular value decomposition failed")
	errCoincidentPnts = errors.New("all points coincide")
)

// conditioner is the similarity transform used to centre points on the
// origin with a mean distance of sqrt(2)
type conditioner struct {
	cx, cy, s float64
}

func newConditioner(pts []Point) (conditioner, error) {

	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	n := float64(len(pts))
	cx /= n
	cy /= n

	var dist float64
	for _, p := range pts {
		dist += math.Hypot(p.X-cx, p.Y-cy)
	}
	dist /= n

	if dist == 0 {
		return conditioner{}, errCoincidentPnts
	}

	return conditioner{cx: cx, cy: cy, s: math.Sqrt2 / dist}, nil
}

func (c conditioner) apply(p Point) Point {
	return Point{X: (p.X - c.cx) * c.s, Y: (p.Y - c.cy) * c.s}
}

func (c conditioner) matrix() Matrix {
	return Matrix{c.s, 0, -c.s * c.cx, 0, c.s, -c.s * c.cy, 0, 0, 1}
}

func (c conditioner) inverse() Matrix {
	return Matrix{1 / c.s, 0, c.cx, 0, 1 / c.s, c.cy, 0, 0, 1}
}

// fitDLT estimates the homography mapping src onto dst with the normalized
// direct linear transform.  With more than four pairs the result is the
// algebraic least squares fit.
func fitDLT(src, dst []Point) (Matrix, error) {

	if len(src) < MinPoints || len(src) != len(dst) {
		return Matrix{}, errRankDeficient
	}

	cs, err := newConditioner(src)
	if err != nil {
		return Matrix{}, err
	}

	cd, err := newConditioner(dst)
	if err != nil {
		return Matrix{}, err
	}

	// two equations per pair, padded with zero rows so the system is at
	// least square
	rows := 2 * len(src)
	if rows < 9 {
		rows = 9
	}

	a := mat.NewDense(rows, 9, nil)

	for i := range src {
		p := cs.apply(src[i])
		q := cd.apply(dst[i])

		a.SetRow(2*i, []float64{-p.X, -p.Y, -1, 0, 0, 0, q.X * p.X, q.X * p.Y, q.X})
		a.SetRow(2*i+1, []float64{0, 0, 0, -p.X, -p.Y, -1, q.Y * p.X, q.Y * p.Y, q.Y})
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return Matrix{}, errNoConvergence
	}

	values := svd.Values(nil)

	// singular values are in descending order, the last is the residual of
	// the solution and the one before must be clearly non zero
	if values[0] == 0 || values[7]/values[0] < rankTolerance {
		return Matrix{}, errRankDeficient
	}

	var v mat.Dense
	svd.VTo(&v)

	var hn Matrix
	for i := 0; i < 9; i++ {
		hn[i] = v.At(i, 8)
	}

	h := cd.inverse().Mul(hn).Mul(cs.matrix()).normalize()

	if err := checkMatrix(h); err != nil {
		return Matrix{}, err
	}

	return h, nil
}

// checkMatrix rejects transforms that can not map the plane
func checkMatrix(h Matrix) error {

	if !h.Finite() {
		return errNonFinite
	}

	// judge singularity on the unit norm matrix so the test is independent
	// of the scale of the coordinates
	var norm float64
	for _, v := range h {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	if norm == 0 {
		return errSingular
	}

	var unit Matrix
	for i, v := range h {
		unit[i] = v / norm
	}

	if math.Abs(unit.Det()) < detTolerance {
		return errSingular
	}

	return nil
}

// cross returns the z component of (b-a) x (c-a)
func cross(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// collinear reports whether three points lie on a line, relative to the
// lengths of the spanning vectors
func collinear(a, b, c Point) bool {

	l1 := a.Distance(b)
	l2 := a.Distance(c)

	if l1 == 0 || l2 == 0 {
		return true
	}

	return math.Abs(cross(a, b, c)) <= collinearTolerance*l1*l2
}

// checkSample reports whether four correspondences form a usable minimal
// sample.  No three points may be collinear on either side and every triple
// must keep, or every triple must flip, its orientation.
func checkSample(src, dst [4]Point) error {

	triples := [4][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}}

	var sign float64

	for _, t := range triples {
		a, b, c := src[t[0]], src[t[1]], src[t[2]]
		p, q, r := dst[t[0]], dst[t[1]], dst[t[2]]

		if collinear(a, b, c) || collinear(p, q, r) {
			return errCollinear
		}

		s := math.Copysign(1, cross(a, b, c)*cross(p, q, r))
		if sign == 0 {
			sign = s
		} else if s != sign {
			return errOrientation
		}
	}

	return nil
}

// allCollinear reports whether every point lies on one line
func allCollinear(pts []Point) bool {

	// the first point and the first distinct one span the candidate line
	var b Point
	a := pts[0]
	found := false
	for _, p := range pts[1:] {
		if p != a {
			b = p
			found = true
			break
		}
	}
	if !found {
		return true
	}

	for _, p := range pts {
		if p == a || p == b {
			continue
		}
		if !collinear(a, b, p) {
			return false
		}
	}

	return true
}
