package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"strconv"

	"gocv.io/x/gocv"

	"github.com/AmirHoseinTaherkhani/object-mapping/mapping"
)

// ColorMode selects how map markers and trails are colored
type ColorMode int

const (
	// ByClass colors objects by their class name
	ByClass ColorMode = 0
	// ByTrack gives every track its own color
	ByTrack ColorMode = 1
)

// ParseColorMode converts "class" or "track" to a ColorMode
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "class":
		return ByClass, nil
	case "track":
		return ByTrack, nil
	}
	return ByClass, fmt.Errorf("unknown color mode %q", s)
}

// CanvasOptions configure a MapCanvas
type CanvasOptions struct {
	Width      int
	Height     int
	Bounds     Bounds
	Background color.RGBA
	// GridSpacing is the distance between grid lines in world units
	GridSpacing float64
	GridColor   color.RGBA
	HideGrid    bool
	HideTrails  bool
	Trail       TrailStyle
	ColorMode   ColorMode
}

// DefaultCanvasOptions returns an 800x600 canvas over the fallback bounds
func DefaultCanvasOptions() CanvasOptions {
	return CanvasOptions{
		Width:       800,
		Height:      600,
		Bounds:      FallbackBounds(),
		Background:  Background,
		GridSpacing: 5,
		GridColor:   GridColor,
		Trail:       DefaultTrailStyle(),
		ColorMode:   ByClass,
	}
}

// marker is the latest known position of a track
type marker struct {
	pos        image.Point
	worldX     float64
	worldY     float64
	className  string
	confidence float64
}

// MapCanvas draws tracked objects and their recent paths on a top down map
// of the world plane.  It is not safe for concurrent use.
type MapCanvas struct {
	opts    CanvasOptions
	font    Font
	markers map[int64]marker
	trails  map[int64]*trailHistory
}

// NewMapCanvas returns an empty canvas.  Zero or invalid options fall back to
// the defaults.
func NewMapCanvas(opts CanvasOptions) *MapCanvas {

	def := DefaultCanvasOptions()

	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = def.Width, def.Height
	}
	if !opts.Bounds.Valid() {
		opts.Bounds = def.Bounds
	}
	if opts.GridSpacing <= 0 {
		opts.GridSpacing = def.GridSpacing
	}
	if opts.Trail.Length <= 0 {
		opts.Trail.Length = def.Trail.Length
	}
	if opts.Trail.LineThickness <= 0 {
		opts.Trail.LineThickness = def.Trail.LineThickness
	}

	return &MapCanvas{
		opts:    opts,
		font:    MapFont(),
		markers: make(map[int64]marker),
		trails:  make(map[int64]*trailHistory),
	}
}

// Options returns the options in use
func (c *MapCanvas) Options() CanvasOptions {
	return c.opts
}

// offCanvas limits how far outside the canvas, in canvas sizes, a projected
// point may land
const offCanvas = 4.0

// WorldToPixel converts a world coordinate to a canvas pixel, with the world
// Y axis pointing up the image.  Points outside the bounds map outside the
// canvas, clamped to a few canvas sizes away from it.
func (c *MapCanvas) WorldToPixel(x, y float64) image.Point {

	b := c.opts.Bounds

	nx := clampUnit((x - b.XMin) / b.Width())
	ny := clampUnit((y - b.YMin) / b.Height())

	return image.Pt(int(nx*float64(c.opts.Width)), int((1-ny)*float64(c.opts.Height)))
}

// clampUnit limits a normalized coordinate to the range drawn around the
// canvas.  NaN maps to the far negative edge.
func clampUnit(v float64) float64 {
	if !(v >= -offCanvas) {
		return -offCanvas
	}
	if v > 1+offCanvas {
		return 1 + offCanvas
	}
	return v
}

// Update sets the current position of every track with a record, extends its
// trail, and forgets tracks not listed in active
func (c *MapCanvas) Update(records []mapping.Record, active []int64) {

	for _, r := range records {

		pos := c.WorldToPixel(r.WorldX, r.WorldY)

		c.markers[r.TrackID] = marker{
			pos:        pos,
			worldX:     r.WorldX,
			worldY:     r.WorldY,
			className:  r.ClassName,
			confidence: r.Confidence,
		}

		th, ok := c.trails[r.TrackID]
		if !ok {
			th = newTrailHistory(c.opts.Trail.Length)
			c.trails[r.TrackID] = th
		}
		th.add(pos)
	}

	keep := make(map[int64]bool, len(active))
	for _, id := range active {
		keep[id] = true
	}

	for id := range c.markers {
		if !keep[id] {
			delete(c.markers, id)
			delete(c.trails, id)
		}
	}
}

// Clear forgets all tracks
func (c *MapCanvas) Clear() {
	c.markers = make(map[int64]marker)
	c.trails = make(map[int64]*trailHistory)
}

// TrackIDs returns the ids of the tracks currently drawn, ascending
func (c *MapCanvas) TrackIDs() []int64 {
	ids := make([]int64, 0, len(c.markers))
	for id := range c.markers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Trail returns the map pixel positions of a track, oldest first
func (c *MapCanvas) Trail(id int64) []image.Point {
	th, ok := c.trails[id]
	if !ok {
		return nil
	}
	return th.points()
}

// Render draws the map into a new BGR Mat which the caller must Close.  It
// does not change the canvas state.
func (c *MapCanvas) Render() gocv.Mat {

	img := gocv.NewMatWithSize(c.opts.Height, c.opts.Width, gocv.MatTypeCV8UC3)
	img.SetTo(toScalar(c.opts.Background))

	if !c.opts.HideGrid {
		c.drawGrid(&img)
	}

	ids := c.TrackIDs()

	if !c.opts.HideTrails {
		for _, id := range ids {
			drawTrail(&img, c.trails[id].points(), c.colorFor(id, c.markers[id].className), c.opts.Trail)
		}
	}

	for _, id := range ids {
		c.drawMarker(&img, id, c.markers[id])
	}

	c.drawCornerLabels(&img)

	return img
}

func (c *MapCanvas) colorFor(id int64, className string) color.RGBA {
	if c.opts.ColorMode == ByTrack {
		return TrackColor(id)
	}
	return ClassColor(className)
}

// drawGrid draws lines at every multiple of the grid spacing inside the
// bounds, with the world axes emphasised when visible
func (c *MapCanvas) drawGrid(img *gocv.Mat) {

	b := c.opts.Bounds
	s := c.opts.GridSpacing

	for i := math.Ceil(b.XMin / s); i*s <= b.XMax; i++ {
		x := c.WorldToPixel(i*s, b.YMin).X
		gocv.Line(img, image.Pt(x, 0), image.Pt(x, c.opts.Height), c.opts.GridColor, 1)
	}

	for i := math.Ceil(b.YMin / s); i*s <= b.YMax; i++ {
		y := c.WorldToPixel(b.XMin, i*s).Y
		gocv.Line(img, image.Pt(0, y), image.Pt(c.opts.Width, y), c.opts.GridColor, 1)
	}

	origin := c.WorldToPixel(0, 0)

	if b.XMin <= 0 && b.XMax >= 0 {
		gocv.Line(img, image.Pt(origin.X, 0), image.Pt(origin.X, c.opts.Height), AxisColor, 1)
	}

	if b.YMin <= 0 && b.YMax >= 0 {
		gocv.Line(img, image.Pt(0, origin.Y), image.Pt(c.opts.Width, origin.Y), AxisColor, 1)
	}
}

// drawMarker draws a filled circle ringed in white with the track id beside
// it
func (c *MapCanvas) drawMarker(img *gocv.Mat, id int64, m marker) {
	gocv.Circle(img, m.pos, 6, c.colorFor(id, m.className), -1)
	gocv.Circle(img, m.pos, 8, White, 2)
	c.font.Draw(img, strconv.FormatInt(id, 10), m.pos.Add(image.Pt(10, -10)))
}

// drawCornerLabels writes the world coordinates of the top left and bottom
// right corners
func (c *MapCanvas) drawCornerLabels(img *gocv.Mat) {

	b := c.opts.Bounds
	f := c.font.WithColor(LightGray)

	f.Draw(img, fmt.Sprintf("(%.0f,%.0f)", b.XMin, b.YMax), image.Pt(10, 20))

	br := fmt.Sprintf("(%.0f,%.0f)", b.XMax, b.YMin)
	sz := f.Size(br)
	f.Draw(img, br, image.Pt(c.opts.Width-sz.X-10, c.opts.Height-10))
}
