package tracker

import (
	"fmt"
)

// Assignment selects how detections are associated with tracks each frame
type Assignment int

const (
	// Greedy walks detections in input order and gives each the unmatched
	// same class track with the greatest IoU above the threshold.  Ties go to
	// the track with the lowest id
	Greedy Assignment = 0
	// Optimal solves the frame's association as a linear assignment problem
	// minimising the total 1-IoU cost with the Jonker-Volgenant algorithm
	Optimal Assignment = 1
)

// String returns the configuration name of the assignment mode
func (a Assignment) String() string {
	switch a {
	case Greedy:
		return "greedy"
	case Optimal:
		return "optimal"
	}
	return fmt.Sprintf("Assignment(%d)", int(a))
}

// ParseAssignment converts a configuration name into an Assignment
func ParseAssignment(s string) (Assignment, error) {
	switch s {
	case "", "greedy":
		return Greedy, nil
	case "optimal", "hungarian", "lapjv":
		return Optimal, nil
	}
	return Greedy, fmt.Errorf("unknown assignment mode %q", s)
}

// Config holds the tracker parameters
type Config struct {
	// MaxDisappeared is the number of consecutive frames a track may go
	// unmatched.  A track is removed once its age exceeds this value
	MaxDisappeared int
	// IoUThreshold is the overlap a detection must exceed to match a track
	IoUThreshold float64
	// Assignment selects greedy or optimal association
	Assignment Assignment
}

// DefaultConfig returns the default tracker parameters
func DefaultConfig() Config {
	return Config{
		MaxDisappeared: 10,
		IoUThreshold:   0.3,
		Assignment:     Greedy,
	}
}

// Validate checks the parameters are usable
func (c Config) Validate() error {
	if c.MaxDisappeared < 0 {
		return fmt.Errorf("max disappeared must not be negative, got %d", c.MaxDisappeared)
	}
	if c.IoUThreshold < 0 || c.IoUThreshold >= 1 {
		return fmt.Errorf("IoU threshold must be in [0,1), got %v", c.IoUThreshold)
	}
	if c.Assignment != Greedy && c.Assignment != Optimal {
		return fmt.Errorf("unknown assignment mode %d", int(c.Assignment))
	}
	return nil
}

// Tracker assigns stable track ids to per frame detections using bounding
// box overlap.  A Tracker holds all of its state and is owned by a single
// caller; it is not safe for concurrent use.
type Tracker struct {
	cfg Config
	ids *IDGenerator
	// tracks are the active tracks, always ordered by ascending id
	tracks []*Track
	// removed counts tracks purged over the tracker's lifetime
	removed int
}

// New returns a Tracker with the given configuration
func New(cfg Config) *Tracker {
	return &Tracker{
		cfg: cfg,
		ids: NewIDGenerator(),
	}
}

// Config returns the tracker configuration
func (t *Tracker) Config() Config {
	return t.cfg
}

// Reset drops all active tracks.  Track ids continue from where they were so
// an id is never handed out twice.
func (t *Tracker) Reset() {
	t.tracks = nil
}

// Update associates the detections of one frame with the active tracks and
// returns every input object annotated with its track id, in input order.
//
// Unmatched objects start new tracks.  After association every existing
// track that was not matched ages by one frame and tracks whose age exceeds
// MaxDisappeared are removed.  An empty frame only ages the tracks.
func (t *Tracker) Update(objs []Object) []Tracked {

	var assigned []int

	switch t.cfg.Assignment {
	case Optimal:
		assigned = t.assignOptimal(objs)
	default:
		assigned = t.assignGreedy(objs)
	}

	out := make([]Tracked, len(objs))
	matched := make([]bool, len(t.tracks))
	var created []*Track

	for i, obj := range objs {

		if j := assigned[i]; j >= 0 {
			track := t.tracks[j]
			track.update(obj)
			matched[j] = true
			out[i] = Tracked{Object: obj, TrackID: track.ID}
			continue
		}

		track := newTrack(t.ids.Next(), obj)
		created = append(created, track)
		out[i] = Tracked{Object: obj, TrackID: track.ID, Created: true}
	}

	// age unmatched tracks and purge the ones gone for too long
	active := make([]*Track, 0, len(t.tracks)+len(created))

	for j, track := range t.tracks {
		if !matched[j] {
			track.Age++
		}

		if track.Age > t.cfg.MaxDisappeared {
			t.removed++
			continue
		}

		active = append(active, track)
	}

	// new ids are always larger so ordering by id is kept
	t.tracks = append(active, created...)

	return out
}

// Tracks returns a copy of the active tracks ordered by id
func (t *Tracker) Tracks() []Track {
	out := make([]Track, len(t.tracks))
	for i, track := range t.tracks {
		out[i] = *track
	}
	return out
}

// Track returns a copy of the active track with the given id
func (t *Tracker) Track(id int64) (Track, bool) {
	for _, track := range t.tracks {
		if track.ID == id {
			return *track, true
		}
	}
	return Track{}, false
}

// ActiveIDs returns the ids of the active tracks in ascending order
func (t *Tracker) ActiveIDs() []int64 {
	ids := make([]int64, len(t.tracks))
	for i, track := range t.tracks {
		ids[i] = track.ID
	}
	return ids
}

// Len returns the number of active tracks
func (t *Tracker) Len() int {
	return len(t.tracks)
}

// Removed returns the number of tracks purged since the tracker was created
func (t *Tracker) Removed() int {
	return t.removed
}

// LastID returns the most recently issued track id, 0 if none
func (t *Tracker) LastID() int64 {
	return t.ids.Last()
}
