package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/AmirHoseinTaherkhani/object-mapping/mapping"
)

// boxLabel is a text label with its background box, drawn after all boxes
// so labels are never covered
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// FrameOverlay annotates a camera frame with the tracked objects of a frame
// result: the bounding box and track label, the ground contact point on the
// bottom edge and the mapped world coordinate
func FrameOverlay(img *gocv.Mat, res mapping.FrameResult, font Font, lineThickness int) {

	labels := make([]boxLabel, 0, len(res.Tracked))
	coordFont := font.WithColor(Green)

	for i, tr := range res.Tracked {

		boxLeft := int(tr.Rect.X1)
		boxTop := int(tr.Rect.Y1)
		boxRight := int(tr.Rect.X2)
		boxBottom := int(tr.Rect.Y2)

		useClr := TrackColor(tr.TrackID)

		rect := image.Rect(boxLeft, boxTop, boxRight, boxBottom)
		gocv.Rectangle(img, rect, useClr, lineThickness)

		// bottom edge and the point mapped to the world
		gocv.Line(img, image.Pt(boxLeft, boxBottom), image.Pt(boxRight, boxBottom), Green, 2)

		if i < len(res.Records) {
			rec := res.Records[i]
			gocv.Circle(img, image.Pt(int(rec.PixelX), int(rec.PixelY)), 5, Yellow, -1)

			coord := fmt.Sprintf("(%.2f, %.2f)", rec.WorldX, rec.WorldY)
			sz := coordFont.Size(coord)
			coordFont.Draw(img, coord, image.Pt((boxLeft+boxRight)/2-sz.X/2, boxBottom+sz.Y+font.TopPad+2))
		}

		text := fmt.Sprintf("%s %d", tr.Label, tr.TrackID)
		labels = append(labels, newBoxLabel(text, rect, useClr, font, lineThickness))
	}

	for _, l := range labels {
		gocv.Rectangle(img, l.rect, l.clr, -1)
		font.Draw(img, l.text, l.textPos)
	}
}

// newBoxLabel positions a label above the top edge of box according to the
// font alignment
func newBoxLabel(text string, box image.Rectangle, clr color.RGBA, font Font, lineThickness int) boxLabel {

	textSize := font.Size(text)

	var centerX int

	switch font.Alignment {
	case Center:
		centerX = (box.Min.X + box.Max.X) / 2

	case Right:
		centerX = box.Max.X - (textSize.X / 2) - font.RightPad + (lineThickness / 2)

	case Left:
		fallthrough
	default:
		centerX = box.Min.X + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)
	}

	return boxLabel{
		rect: image.Rect(centerX-textSize.X/2-font.LeftPad,
			box.Min.Y-textSize.Y-font.TopPad-font.BottomPad,
			centerX+textSize.X/2+font.RightPad, box.Min.Y),
		clr:     clr,
		text:    text,
		textPos: image.Pt(centerX-textSize.X/2, box.Min.Y-font.BottomPad),
	}
}
