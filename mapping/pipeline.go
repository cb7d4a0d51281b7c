package mapping

import (
	"errors"
	"fmt"

	"github.com/cyclopcam/logs"

	objmap "github.com/AmirHoseinTaherkhani/object-mapping"
	"github.com/AmirHoseinTaherkhani/object-mapping/detect"
	"github.com/AmirHoseinTaherkhani/object-mapping/homography"
	"github.com/AmirHoseinTaherkhani/object-mapping/tracker"
)

// ErrFrameOrder is returned when a frame does not come after the previously
// processed one
var ErrFrameOrder = errors.New("frame numbers must increase")

// Transformer maps pixel coordinates to world coordinates
type Transformer interface {
	TransformPoints(ps []homography.Point) ([]homography.Point, error)
}

// Options configure a Pipeline
type Options struct {
	// ConfidenceThreshold is the minimum detection confidence kept
	ConfidenceThreshold float64
	// Classes maps detector class ids to the names that are tracked,
	// detections of other classes are skipped
	Classes objmap.ClassMap
	// LogEvery is the frame interval of progress logging, 0 disables it
	LogEvery int
}

// DefaultOptions returns the options used when none are given
func DefaultOptions() Options {
	return Options{
		ConfidenceThreshold: 0.5,
		Classes:             objmap.DefaultClassMap(),
		LogEvery:            100,
	}
}

// FrameResult is the outcome of processing one frame.  It shares no memory
// with the Pipeline and is safe to hand to another goroutine.
type FrameResult struct {
	Frame     int
	Records   []Record
	Tracked   []tracker.Tracked
	ActiveIDs []int64
	Dropped   Dropped
}

// Stats are running totals over all processed frames
type Stats struct {
	Frames        int
	Detections    int
	Kept          int
	LowConfidence int
	UnknownClass  int
	Malformed     int
}

// Pipeline converts detector output into trajectory records, one frame at a
// time.  It is not safe for concurrent use, a single goroutine must own it.
type Pipeline struct {
	log       logs.Log
	opts      Options
	transform Transformer
	tracker   *tracker.Tracker
	store     *Store

	stats     Stats
	lastFrame int
	warned    map[int]bool
}

// NewPipeline returns a Pipeline feeding the given tracker and transforming
// positions with transform
func NewPipeline(log logs.Log, transform Transformer, trk *tracker.Tracker, opts Options) *Pipeline {

	if opts.Classes == nil {
		opts.Classes = objmap.DefaultClassMap()
	}

	return &Pipeline{
		log:       log,
		opts:      opts,
		transform: transform,
		tracker:   trk,
		store:     NewStore(),
		warned:    make(map[int]bool),
	}
}

// Store returns the record accumulator
func (p *Pipeline) Store() *Store {
	return p.store
}

// Tracker returns the identity tracker
func (p *Pipeline) Tracker() *tracker.Tracker {
	return p.tracker
}

// Stats returns the running totals
func (p *Pipeline) Stats() Stats {
	return p.stats
}

// ProcessFrame filters the detections of a frame, maps their ground contact
// points to world coordinates, associates them with tracks and appends the
// resulting records.
//
// The frame is processed entirely or not at all: if the transform fails no
// tracker state changes and no records are stored.
func (p *Pipeline) ProcessFrame(f detect.Frame) (FrameResult, error) {

	if f.Index < 0 || (p.stats.Frames > 0 && f.Index <= p.lastFrame) {
		return FrameResult{}, fmt.Errorf("%w: frame %d after frame %d", ErrFrameOrder, f.Index, p.lastFrame)
	}

	var (
		dropped = Dropped{Malformed: f.Malformed}
		kept    = make([]detect.Detection, 0, len(f.Detections))
	)

	if f.Malformed > 0 {
		p.log.Warnf("Frame %v: skipped %v detections with a malformed box", f.Index, f.Malformed)
	}

	for _, det := range f.Detections {

		if det.Confidence < p.opts.ConfidenceThreshold {
			dropped.LowConfidence++
			continue
		}

		if _, ok := p.opts.Classes.Name(det.Class); !ok {
			dropped.UnknownClass++
			p.warnUnknownClass(f.Index, det.Class)
			continue
		}

		kept = append(kept, det)
	}

	pixels := make([]homography.Point, len(kept))
	for i, det := range kept {
		x, y := det.Box.BottomCenter()
		pixels[i] = homography.Pt(x, y)
	}

	world, err := p.transform.TransformPoints(pixels)
	if err != nil {
		return FrameResult{}, fmt.Errorf("frame %d: error transforming positions: %w", f.Index, err)
	}

	if len(world) != len(pixels) {
		return FrameResult{}, fmt.Errorf("frame %d: transform returned %d points for %d inputs",
			f.Index, len(world), len(pixels))
	}

	// every kept detection has a known class so objects line up with kept
	tracked := p.tracker.Update(tracker.DetectionsToObjects(kept, p.opts.Classes))

	records := make([]Record, len(kept))
	for i, tr := range tracked {
		records[i] = Record{
			Frame:      f.Index,
			TrackID:    tr.TrackID,
			ClassName:  tr.Label,
			Confidence: kept[i].Confidence,
			PixelX:     pixels[i].X,
			PixelY:     pixels[i].Y,
			WorldX:     world[i].X,
			WorldY:     world[i].Y,
		}
	}

	p.store.Append(records)
	p.lastFrame = f.Index

	p.stats.Frames++
	p.stats.Detections += len(f.Detections) + f.Malformed
	p.stats.Kept += len(kept)
	p.stats.LowConfidence += dropped.LowConfidence
	p.stats.UnknownClass += dropped.UnknownClass
	p.stats.Malformed += dropped.Malformed

	if p.opts.LogEvery > 0 && p.stats.Frames%p.opts.LogEvery == 0 {
		p.log.Infof("Processed %v frames, kept %v of %v detections, %v active tracks",
			p.stats.Frames, p.stats.Kept, p.stats.Detections, p.tracker.Len())
	}

	out := make([]Record, len(records))
	copy(out, records)

	return FrameResult{
		Frame:     f.Index,
		Records:   out,
		Tracked:   tracked,
		ActiveIDs: p.tracker.ActiveIDs(),
		Dropped:   dropped,
	}, nil
}

// warnUnknownClass logs a warning the first time a class id is seen and at
// debug level afterwards
func (p *Pipeline) warnUnknownClass(frame, class int) {
	if p.warned[class] {
		p.log.Debugf("Frame %v: skipping detection of unknown class %v", frame, class)
		return
	}
	p.warned[class] = true
	p.log.Warnf("Frame %v: skipping detection of unknown class %v", frame, class)
}
