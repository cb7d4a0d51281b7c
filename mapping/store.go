package mapping

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Store accumulates the records of a run in frame order
type Store struct {
	mu      sync.RWMutex
	records []Record
	frames  int
}

// NewStore returns an empty Store
func NewStore() *Store {
	return &Store{}
}

// Append adds the records of one frame.  All records become visible at
// once, and the frame is counted even when it has no records.
func (s *Store) Append(recs []Record) {
	s.mu.Lock()
	s.records = append(s.records, recs...)
	s.frames++
	s.mu.Unlock()
}

// Len returns the number of records
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Frames returns the number of frames appended
func (s *Store) Frames() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames
}

// Records returns a copy of all records
func (s *Store) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)

	return out
}

// Trajectories returns the world positions of every track in frame order
func (s *Store) Trajectories() map[int64][]WorldPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64][]WorldPoint)
	for _, r := range s.records {
		out[r.TrackID] = append(out[r.TrackID], WorldPoint{Frame: r.Frame, X: r.WorldX, Y: r.WorldY})
	}

	return out
}

// TrajectoryFor returns the world positions of one track in frame order, nil
// if the track has no records
func (s *Store) TrajectoryFor(id int64) []WorldPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []WorldPoint
	for _, r := range s.records {
		if r.TrackID == id {
			out = append(out, WorldPoint{Frame: r.Frame, X: r.WorldX, Y: r.WorldY})
		}
	}

	return out
}

// TrackIDs returns the ids of all tracks with records, ascending
func (s *Store) TrackIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]struct{})
	var ids []int64
	for _, r := range s.records {
		if _, ok := seen[r.TrackID]; !ok {
			seen[r.TrackID] = struct{}{}
			ids = append(ids, r.TrackID)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// Summary describes the records accumulated during a run
type Summary struct {
	Frames         int
	Records        int
	UniqueTracks   int
	ClassCounts    map[string]int
	MinConfidence  float64
	MeanConfidence float64
	MaxConfidence  float64
	FirstFrame     int
	LastFrame      int
}

// Summary computes statistics over the current records.  Confidence and
// frame fields are zero when there are no records.
func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{
		Frames:      s.frames,
		Records:     len(s.records),
		ClassCounts: make(map[string]int),
	}

	if len(s.records) == 0 {
		return sum
	}

	tracks := make(map[int64]struct{})
	conf := make([]float64, len(s.records))

	for i, r := range s.records {
		tracks[r.TrackID] = struct{}{}
		sum.ClassCounts[r.ClassName]++
		conf[i] = r.Confidence
	}

	sum.UniqueTracks = len(tracks)
	sum.MinConfidence = floats.Min(conf)
	sum.MaxConfidence = floats.Max(conf)
	sum.MeanConfidence = stat.Mean(conf, nil)
	sum.FirstFrame = s.records[0].Frame
	sum.LastFrame = s.records[len(s.records)-1].Frame

	return sum
}
