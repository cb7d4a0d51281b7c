// Package mapping ties the tracker and the homography together, turning
// detector output into world space trajectories.
package mapping

// Record is the position of one tracked object in one frame
type Record struct {
	Frame      int
	TrackID    int64
	ClassName  string
	Confidence float64
	// PixelX, PixelY is the bottom centre of the bounding box in the frame
	PixelX float64
	PixelY float64
	// WorldX, WorldY is the ground plane position in world units
	WorldX float64
	WorldY float64
}

// WorldPoint is a trajectory sample
type WorldPoint struct {
	Frame int
	X     float64
	Y     float64
}

// Dropped counts the detections of a frame that did not produce records
type Dropped struct {
	LowConfidence int
	UnknownClass  int
	Malformed     int
}
