package tracker

// Object represents a detection handed to the tracker for association
type Object struct {
	// Rect is the bounding box representation of the detected object
	Rect Rect
	// Label is the class name of the object detected.  Objects are only ever
	// associated with tracks carrying the same label
	Label string
	// Prob is the confidence/probability of the object detected
	Prob float64
	// Hint is an optional track id supplied by the detector.  It is passed
	// through to the result but never used for association
	Hint *int64
}

// NewObject is a constructor function for the Object struct
func NewObject(rect Rect, label string, prob float64) Object {
	return Object{
		Rect:  rect,
		Label: label,
		Prob:  prob,
	}
}

// Tracked is an input Object annotated with the id of the track it was
// associated with
type Tracked struct {
	Object
	// TrackID is the id of the track the object was assigned to
	TrackID int64
	// Created is true when the object started a new track this frame
	Created bool
}
