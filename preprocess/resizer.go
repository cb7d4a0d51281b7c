// Package preprocess prepares camera frames for composition with the map.
package preprocess

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

// Resizer scales frames of a fixed size into a destination of a fixed size
// while keeping their aspect ratio, padding the remainder
type Resizer struct {
	// srcWidth is the width of the source image
	srcWidth int
	// srcHeight is the height of the source image
	srcHeight int
	// destWidth is the width to scale to
	destWidth int
	// destHeight is the height to scale to
	destHeight int
	// tempMat is a Mat used during the resize process
	tempMat gocv.Mat
	// letterbox parameters used in scaling
	xPad  int
	yPad  int
	scale float64
	// resize dimensions
	resizeW int
	resizeH int
}

// NewResizer returns a resizer fitting srcWidth x srcHeight images into
// destWidth x destHeight
func NewResizer(srcWidth, srcHeight, destWidth, destHeight int) *Resizer {
	r := &Resizer{
		srcWidth:   srcWidth,
		srcHeight:  srcHeight,
		destWidth:  destWidth,
		destHeight: destHeight,
		tempMat:    gocv.NewMat(),
	}

	r.preCalc()

	return r
}

// Close frees memory allocated during resize process
func (r *Resizer) Close() error {
	return r.tempMat.Close()
}

// preCalc the scaling factors for source and destination Mats
func (r *Resizer) preCalc() {

	r.resizeW = r.destWidth
	r.resizeH = r.destHeight

	scaleW := float64(r.destWidth) / float64(r.srcWidth)
	scaleH := float64(r.destHeight) / float64(r.srcHeight)
	r.scale = scaleH

	if scaleW < scaleH {
		r.scale = scaleW
		r.resizeH = int(math.Round(float64(r.srcHeight) * r.scale))
	} else {
		r.resizeW = int(math.Round(float64(r.srcWidth) * r.scale))
	}

	r.yPad = (r.destHeight - r.resizeH) / 2
	r.xPad = (r.destWidth - r.resizeW) / 2
}

// LetterBoxResize resizes src into dest whilst maintaining its aspect, the
// borders are filled with color
func (r *Resizer) LetterBoxResize(src gocv.Mat, dest *gocv.Mat, color color.RGBA) {

	gocv.Resize(src, &r.tempMat, image.Pt(r.resizeW, r.resizeH),
		0, 0, gocv.InterpolationArea)

	gocv.CopyMakeBorder(r.tempMat, dest, r.yPad, r.destHeight-r.resizeH-r.yPad,
		r.xPad, r.destWidth-r.resizeW-r.xPad, gocv.BorderConstant, color)
}

// ToDest maps a pixel of the source image to its position in the letterboxed
// image
func (r *Resizer) ToDest(x, y float64) image.Point {
	return image.Pt(int(x*r.scale)+r.xPad, int(y*r.scale)+r.yPad)
}

// ToSource maps a pixel of the letterboxed image back to the source image
func (r *Resizer) ToSource(p image.Point) (x, y float64) {
	return float64(p.X-r.xPad) / r.scale, float64(p.Y-r.yPad) / r.scale
}

// ScaleFactor returns the scale factor used in letterbox resize
func (r *Resizer) ScaleFactor() float64 {
	return r.scale
}

// XPad returns the x padding used in letterbox resize
func (r *Resizer) XPad() int {
	return r.xPad
}

// YPad returns the y padding used in letterbox resize
func (r *Resizer) YPad() int {
	return r.yPad
}

// SrcSize returns the dimensions of the source image
func (r *Resizer) SrcSize() image.Point {
	return image.Pt(r.srcWidth, r.srcHeight)
}

// DestSize returns the dimensions of the letterboxed image
func (r *Resizer) DestSize() image.Point {
	return image.Pt(r.destWidth, r.destHeight)
}
