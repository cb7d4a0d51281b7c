// Package detect defines the output contract of the external object detector
// consumed by the mapping pipeline.
package detect

// Box are the dimensions of the bounding box of a detected object in pixel
// coordinates of the source frame
type Box struct {
	XMin float64
	YMin float64
	XMax float64
	YMax float64
}

// Width returns the width of the box, which is negative for malformed boxes
func (b Box) Width() float64 {
	return b.XMax - b.XMin
}

// Height returns the height of the box, which is negative for malformed boxes
func (b Box) Height() float64 {
	return b.YMax - b.YMin
}

// BottomCenter returns the centre of the bottom edge of the box, the point
// where the object is assumed to touch the ground plane
func (b Box) BottomCenter() (x, y float64) {
	return (b.XMin + b.XMax) / 2, b.YMax
}

// Detection defines the attributes of a single object detected in a frame
type Detection struct {
	// Box is the bounding box of the object location
	Box Box
	// Class is the class id the detection model assigned
	Class int
	// Confidence is the detection score in the range [0,1]
	Confidence float64
	// TrackHint is an optional track id assigned by a tracker running inside
	// the detector, nil when the detector does not track
	TrackHint *int64
}

// Frame holds all detections made in a single video frame
type Frame struct {
	// Index is the frame number within the video.  Streams may count from
	// 0 or 1 but indices must increase
	Index int
	// Detections made in the frame, possibly empty
	Detections []Detection
	// Malformed is the number of detections the source discarded because
	// their box could not be read
	Malformed int
}
