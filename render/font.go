package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

type Alignment int

const (
	Left   Alignment = 1
	Center Alignment = 2
	Right  Alignment = 3
)

// Font defines the parameters for rendering text on an image using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around text
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
	// Alignment of the text label to the bounding box
	Alignment Alignment
}

// DefaultFont returns the font used for bounding box labels
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     White,
		Thickness: 1,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		RightPad:  4,
		TopPad:    4,
		BottomPad: 6,
		Alignment: Left,
	}
}

// MapFont returns the font used for track ids and coordinates on the map
func MapFont() Font {
	f := DefaultFont()
	f.LineType = gocv.Line8
	return f
}

// WithColor returns a copy of the font drawing in c
func (f Font) WithColor(c color.RGBA) Font {
	f.Color = c
	return f
}

// Size returns the pixel dimensions of text
func (f Font) Size(text string) image.Point {
	return gocv.GetTextSize(text, f.Face, f.Scale, f.Thickness)
}

// Draw writes text with its baseline starting at org
func (f Font) Draw(img *gocv.Mat, text string, org image.Point) {
	gocv.PutTextWithParams(img, text, org, f.Face, f.Scale, f.Color,
		f.Thickness, f.LineType, false)
}
