package homography

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// weightEpsilon is the projective weight below which a point is considered
// to be on the horizon line and is mapped to the origin
const weightEpsilon = 1e-12

// Matrix is a row major 3x3 perspective transform
type Matrix [9]float64

// Identity returns the identity transform
func Identity() Matrix {
	return Matrix{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// At returns the element at row r and column c
func (m Matrix) At(r, c int) float64 {
	return m[r*3+c]
}

// Apply maps p through the transform.  Points with a projective weight of
// about zero map to (0,0).
func (m Matrix) Apply(p Point) Point {

	w := m[6]*p.X + m[7]*p.Y + m[8]

	if math.Abs(w) < weightEpsilon {
		return Point{}
	}

	return Point{
		X: (m[0]*p.X + m[1]*p.Y + m[2]) / w,
		Y: (m[3]*p.X + m[4]*p.Y + m[5]) / w,
	}
}

// Det returns the determinant of the matrix
func (m Matrix) Det() float64 {
	return mat.Det(m.Dense())
}

// Finite reports whether all elements are finite numbers
func (m Matrix) Finite() bool {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Dense returns the matrix as a gonum Dense
func (m Matrix) Dense() *mat.Dense {
	data := make([]float64, 9)
	copy(data, m[:])
	return mat.NewDense(3, 3, data)
}

// Mul returns the product m * n
func (m Matrix) Mul(n Matrix) Matrix {
	var out mat.Dense
	out.Mul(m.Dense(), n.Dense())
	return fromDense(&out)
}

// normalize scales the matrix so the bottom right element is one.  If that
// element is about zero the matrix is scaled to unit Frobenius norm instead.
func (m Matrix) normalize() Matrix {

	if math.Abs(m[8]) > weightEpsilon {
		s := 1 / m[8]
		for i := range m {
			m[i] *= s
		}
		return m
	}

	var norm float64
	for _, v := range m {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	if norm == 0 {
		return m
	}

	for i := range m {
		m[i] /= norm
	}

	return m
}

// String formats the matrix as three rows
func (m Matrix) String() string {
	return fmt.Sprintf("[%.6g %.6g %.6g; %.6g %.6g %.6g; %.6g %.6g %.6g]",
		m[0], m[1], m[2], m[3], m[4], m[5], m[6], m[7], m[8])
}

func fromDense(d mat.Matrix) Matrix {
	var m Matrix
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m[r*3+c] = d.At(r, c)
		}
	}
	return m
}
