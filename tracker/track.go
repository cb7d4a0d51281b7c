package tracker

// Track represents a single object being followed across frames
type Track struct {
	// ID is unique for the lifetime of the Tracker and never reused
	ID int64
	// Box is the bounding box of the most recent matched detection
	Box Rect
	// Confidence of the most recent matched detection
	Confidence float64
	// Label is the class name fixed when the track was created
	Label string
	// Age is the number of consecutive frames since the track was last
	// matched.  It is reset to 0 on every match
	Age int
	// Hits is the cumulative number of detections matched to the track,
	// including the one that created it
	Hits int
}

// newTrack starts a track from an unmatched object
func newTrack(id int64, obj Object) *Track {
	return &Track{
		ID:         id,
		Box:        obj.Rect,
		Confidence: obj.Prob,
		Label:      obj.Label,
		Hits:       1,
	}
}

// update applies a matched object to the track
func (t *Track) update(obj Object) {
	t.Box = obj.Rect
	t.Confidence = obj.Prob
	t.Age = 0
	t.Hits++
}
