package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// TrailStyle defines the parameters used for rendering track trails on the
// map
type TrailStyle struct {
	// Length is the number of most recent positions drawn
	Length        int
	LineThickness int
	// Fade darkens older segments linearly with their position in the trail
	Fade bool
}

// DefaultTrailStyle returns default trail style settings
func DefaultTrailStyle() TrailStyle {
	return TrailStyle{
		Length:        50,
		LineThickness: 2,
		Fade:          true,
	}
}

// drawTrail joins the points, oldest first, with line segments.  When fading
// segment i of n is drawn at i/n of the full color so the newest is
// brightest.
func drawTrail(img *gocv.Mat, points []image.Point, clr color.RGBA, style TrailStyle) {

	if len(points) < 2 {
		return
	}

	for i := 1; i < len(points); i++ {

		segClr := clr
		if style.Fade {
			segClr = scale(clr, float64(i)/float64(len(points)-1))
		}

		gocv.Line(img, points[i-1], points[i], segClr, style.LineThickness)
	}
}
