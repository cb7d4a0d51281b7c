package tracker

// Rect represents an axis aligned bounding box in (x1, y1, x2, y2) pixel form
// where (x1, y1) is the top left corner and (x2, y2) the bottom right
type Rect struct {
	X1, Y1, X2, Y2 float64
}

// NewRect creates a new Rect from its top left and bottom right corners
func NewRect(x1, y1, x2, y2 float64) Rect {
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// NewRectXYWH creates a new Rect from its top left corner and size
func NewRectXYWH(x, y, width, height float64) Rect {
	return Rect{X1: x, Y1: y, X2: x + width, Y2: y + height}
}

// Width returns the width of the rectangle
func (r Rect) Width() float64 {
	return r.X2 - r.X1
}

// Height returns the height of the rectangle
func (r Rect) Height() float64 {
	return r.Y2 - r.Y1
}

// Area returns the area of the rectangle, or 0 if it is empty or malformed
func (r Rect) Area() float64 {
	w, h := r.Width(), r.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Center returns the centre point of the rectangle
func (r Rect) Center() (x, y float64) {
	return (r.X1 + r.X2) / 2, (r.Y1 + r.Y2) / 2
}

// BottomCenter returns the middle of the bottom edge of the rectangle
func (r Rect) BottomCenter() (x, y float64) {
	return (r.X1 + r.X2) / 2, r.Y2
}

// CalcIoU calculates the Intersection over Union (IoU) with another rectangle
func (r Rect) CalcIoU(other Rect) float64 {
	return IoU(r, other)
}

// IoU calculates the Intersection over Union of two rectangles.  It returns
// 0 when the rectangles do not overlap or either has no positive area, so
// malformed boxes never produce a match.
func IoU(a, b Rect) float64 {

	areaA := a.Area()
	areaB := b.Area()

	if areaA == 0 || areaB == 0 {
		return 0
	}

	iw := min(a.X2, b.X2) - max(a.X1, b.X1)
	if iw <= 0 {
		return 0
	}

	ih := min(a.Y2, b.Y2) - max(a.Y1, b.Y1)
	if ih <= 0 {
		return 0
	}

	inter := iw * ih
	union := areaA + areaB - inter

	if union <= 0 {
		return 0
	}

	return inter / union
}
