package render

import (
	"hash/fnv"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

// goldenRatioConjugate steps the hue of successive track ids so that
// neighbouring ids get well separated colors
const goldenRatioConjugate = 0.618033988749895

var (
	// palette holds distinct colors for classes without a fixed color
	palette = []color.RGBA{
		{R: 255, G: 56, B: 56, A: 255},   // #FF3838
		{R: 255, G: 178, B: 29, A: 255},  // #FFB21D
		{R: 207, G: 210, B: 49, A: 255},  // #CFD231
		{R: 26, G: 147, B: 52, A: 255},   // #1A9334
		{R: 0, G: 212, B: 187, A: 255},   // #00D4BB
		{R: 0, G: 194, B: 255, A: 255},   // #00C2FF
		{R: 100, G: 115, B: 255, A: 255}, // #6473FF
		{R: 132, G: 56, B: 255, A: 255},  // #8438FF
		{R: 255, G: 149, B: 200, A: 255}, // #FF95C8
		{R: 255, G: 55, B: 199, A: 255},  // #FF37C7
		{R: 44, G: 153, B: 168, A: 255},  // #2C99A8
		{R: 146, G: 204, B: 23, A: 255},  // #92CC17
	}

	// classColors are the fixed colors of the well known classes
	classColors = map[string]color.RGBA{
		"person": {R: 0, G: 255, B: 0, A: 255},
		"car":    {R: 255, G: 140, B: 0, A: 255},
	}

	Black     = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow    = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Green     = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	LightGray = color.RGBA{R: 200, G: 200, B: 200, A: 255}

	// Background is the default map canvas color
	Background = color.RGBA{R: 50, G: 50, B: 50, A: 255}
	// GridColor is the default color of the grid lines
	GridColor = color.RGBA{R: 80, G: 80, B: 80, A: 255}
	// AxisColor is the default color of the world origin axes
	AxisColor = color.RGBA{R: 130, G: 130, B: 130, A: 255}
)

// ClassColor returns the color used to draw objects of the named class.
// Unknown names get a stable color from the palette.
func ClassColor(name string) color.RGBA {

	if c, ok := classColors[name]; ok {
		return c
	}

	h := fnv.New32a()
	h.Write([]byte(name))

	return palette[h.Sum32()%uint32(len(palette))]
}

// TrackColor returns a color for a track id, stepping the hue by the golden
// ratio so consecutive ids are easy to tell apart
func TrackColor(id int64) color.RGBA {
	_, hue := math.Modf(float64(id) * goldenRatioConjugate)
	if hue < 0 {
		hue += 1
	}
	return hsv(hue, 0.85, 0.95)
}

// hsv converts a hue, saturation and value in [0,1] to RGB
func hsv(h, s, v float64) color.RGBA {

	h6 := h * 6
	i := math.Floor(h6)
	f := h6 - i

	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var r, g, b float64

	switch int(i) % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}

	return color.RGBA{
		R: uint8(math.Round(r * 255)),
		G: uint8(math.Round(g * 255)),
		B: uint8(math.Round(b * 255)),
		A: 255,
	}
}

// scale darkens c by the factor alpha in [0,1]
func scale(c color.RGBA, alpha float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * alpha),
		G: uint8(float64(c.G) * alpha),
		B: uint8(float64(c.B) * alpha),
		A: 255,
	}
}

// toScalar converts c to a gocv Scalar in BGR channel order
func toScalar(c color.RGBA) gocv.Scalar {
	return gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0)
}
