package homography

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
)

// Point is a 2D coordinate, either image pixels or world units
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Distance returns the Euclidean distance between two points
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

func (p Point) finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Correspondence pairs an image pixel with the measured world coordinate of
// the same ground point
type Correspondence struct {
	Pixel       Point
	World       Point
	Description string
}

// Metadata describes where a set of calibration points was collected
type Metadata struct {
	VideoName   string
	FrameNumber int
	Timestamp   string
	TotalPoints int
}

// calibrationFile is the JSON layout written by the point collection tool
type calibrationFile struct {
	VideoName   string          `json:"video_name"`
	FrameNumber int             `json:"frame_number"`
	Timestamp   string          `json:"timestamp"`
	TotalPoints int             `json:"total_points"`
	ImagePoints [][]float64     `json:"image_points"`
	WorldPoints []worldPointDoc `json:"world_points"`
}

type worldPointDoc struct {
	X           *float64 `json:"x"`
	Y           *float64 `json:"y"`
	Description string   `json:"description"`
}

// ParseCalibration reads calibration JSON and returns the correspondences,
// matched by index, and the metadata.  Structural problems return a
// MalformedInput CalibrationError, fewer than MinPoints pairs an
// InsufficientPoints CalibrationError.
func ParseCalibration(r io.Reader) ([]Correspondence, Metadata, error) {

	var doc calibrationFile

	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, Metadata{}, malformed("decoding calibration JSON: %w", err)
	}

	meta := Metadata{
		VideoName:   doc.VideoName,
		FrameNumber: doc.FrameNumber,
		Timestamp:   doc.Timestamp,
		TotalPoints: doc.TotalPoints,
	}

	if len(doc.ImagePoints) != len(doc.WorldPoints) {
		return nil, meta, malformed("image_points has %d entries but world_points has %d",
			len(doc.ImagePoints), len(doc.WorldPoints))
	}

	corr := make([]Correspondence, len(doc.ImagePoints))

	for i, ip := range doc.ImagePoints {
		if len(ip) != 2 {
			return nil, meta, malformed("image point %d has %d values, expected 2", i, len(ip))
		}

		wp := doc.WorldPoints[i]
		if wp.X == nil || wp.Y == nil {
			return nil, meta, malformed("world point %d is missing x or y", i)
		}

		corr[i] = Correspondence{
			Pixel:       Pt(ip[0], ip[1]),
			World:       Pt(*wp.X, *wp.Y),
			Description: wp.Description,
		}
	}

	if err := checkCorrespondences(corr); err != nil {
		return nil, meta, err
	}

	return corr, meta, nil
}

// ParseCalibrationFile reads calibration JSON from the file at path
func ParseCalibrationFile(path string) ([]Correspondence, Metadata, error) {

	f, err := os.Open(path)

	if err != nil {
		return nil, Metadata{}, fmt.Errorf("error opening calibration file: %w", err)
	}

	defer f.Close()

	return ParseCalibration(f)
}

// checkCorrespondences validates in memory correspondences
func checkCorrespondences(corr []Correspondence) error {

	for i, c := range corr {
		if !c.Pixel.finite() || !c.World.finite() {
			return malformed("correspondence %d contains a non finite coordinate", i)
		}
	}

	if len(corr) < MinPoints {
		return &CalibrationError{Kind: InsufficientPoints, Points: len(corr)}
	}

	return nil
}
