package render

import (
	"math"

	"github.com/AmirHoseinTaherkhani/object-mapping/homography"
)

// Bounds is the rectangle of world space shown on the map
type Bounds struct {
	XMin float64
	YMin float64
	XMax float64
	YMax float64
}

// DefaultBuffer is the margin, in world units, added around the calibration
// points by BoundsFromPoints
const DefaultBuffer = 10.0

// FallbackBounds are used when no calibration points are available
func FallbackBounds() Bounds {
	return Bounds{XMin: -10, YMin: -10, XMax: 10, YMax: 10}
}

// BoundsFromPoints returns the extent of the points grown by buffer on every
// side.  With no points FallbackBounds is returned.
func BoundsFromPoints(pts []homography.Point, buffer float64) Bounds {

	if len(pts) == 0 {
		return FallbackBounds()
	}

	b := Bounds{
		XMin: math.Inf(1),
		YMin: math.Inf(1),
		XMax: math.Inf(-1),
		YMax: math.Inf(-1),
	}

	for _, p := range pts {
		b.XMin = math.Min(b.XMin, p.X)
		b.YMin = math.Min(b.YMin, p.Y)
		b.XMax = math.Max(b.XMax, p.X)
		b.YMax = math.Max(b.YMax, p.Y)
	}

	b.XMin -= buffer
	b.YMin -= buffer
	b.XMax += buffer
	b.YMax += buffer

	return b
}

// Width returns the horizontal extent
func (b Bounds) Width() float64 {
	return b.XMax - b.XMin
}

// Height returns the vertical extent
func (b Bounds) Height() float64 {
	return b.YMax - b.YMin
}

// Contains reports whether the world point lies inside the bounds
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.XMin && x <= b.XMax && y >= b.YMin && y <= b.YMax
}

// Valid reports whether the bounds enclose a non empty area
func (b Bounds) Valid() bool {
	return b.Width() > 0 && b.Height() > 0 &&
		!math.IsInf(b.Width(), 0) && !math.IsInf(b.Height(), 0)
}
