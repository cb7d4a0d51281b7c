package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/AmirHoseinTaherkhani/object-mapping/preprocess"
)

// SideBySide returns a new Mat with the camera frame on the left, fitted to
// the height of the map, and the map on the right.  Grayscale frames are
// converted to BGR.  The caller must Close the result.
func SideBySide(frame, mapImg gocv.Mat, background color.RGBA) gocv.Mat {

	height := mapImg.Rows()

	if frame.Empty() {
		// keep the layout with a blank panel
		out := gocv.NewMatWithSize(height, height+mapImg.Cols(), gocv.MatTypeCV8UC3)
		out.SetTo(toScalar(background))
		right := out.Region(image.Rect(height, 0, height+mapImg.Cols(), height))
		mapImg.CopyTo(&right)
		right.Close()
		return out
	}

	panelWidth := (frame.Cols()*height + frame.Rows()/2) / frame.Rows()

	out := gocv.NewMatWithSize(height, panelWidth+mapImg.Cols(), gocv.MatTypeCV8UC3)

	src := frame
	if frame.Channels() == 1 {
		src = gocv.NewMat()
		defer src.Close()
		gocv.CvtColor(frame, &src, gocv.ColorGrayToBGR)
	}

	resizer := preprocess.NewResizer(src.Cols(), src.Rows(), panelWidth, height)
	defer resizer.Close()

	fitted := gocv.NewMat()
	defer fitted.Close()
	resizer.LetterBoxResize(src, &fitted, background)

	left := out.Region(image.Rect(0, 0, panelWidth, height))
	fitted.CopyTo(&left)
	left.Close()

	right := out.Region(image.Rect(panelWidth, 0, panelWidth+mapImg.Cols(), height))
	mapImg.CopyTo(&right)
	right.Close()

	return out
}
