package mapping

import (
	"errors"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmirHoseinTaherkhani/object-mapping/detect"
	"github.com/AmirHoseinTaherkhani/object-mapping/homography"
	"github.com/AmirHoseinTaherkhani/object-mapping/tracker"
)

// scaleCalculator returns a calculator mapping pixels to world units at a
// scale of 0.1
func scaleCalculator(t *testing.T) *homography.Calculator {
	t.Helper()
	calc := homography.NewCalculator(logs.NewTestingLog(t), homography.DefaultOptions())
	require.NoError(t, calc.SetCorrespondences([]homography.Correspondence{
		{Pixel: homography.Pt(0, 0), World: homography.Pt(0, 0)},
		{Pixel: homography.Pt(100, 0), World: homography.Pt(10, 0)},
		{Pixel: homography.Pt(100, 100), World: homography.Pt(10, 10)},
		{Pixel: homography.Pt(0, 100), World: homography.Pt(0, 10)},
	}))
	require.NoError(t, calc.Calculate())
	return calc
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	return NewPipeline(logs.NewTestingLog(t), scaleCalculator(t), tracker.New(tracker.DefaultConfig()), DefaultOptions())
}

func det(x1, y1, x2, y2 float64, class int, conf float64) detect.Detection {
	return detect.Detection{
		Box:        detect.Box{XMin: x1, YMin: y1, XMax: x2, YMax: y2},
		Class:      class,
		Confidence: conf,
	}
}

// walkingFrames returns n frames of a person moving right by 2 pixels per
// frame and a car moving down by 3 pixels per frame
func walkingFrames(n int) []detect.Frame {
	frames := make([]detect.Frame, n)
	for i := range frames {
		dx := float64(2 * i)
		dy := float64(3 * i)
		frames[i] = detect.Frame{
			Index: i + 1,
			Detections: []detect.Detection{
				det(10+dx, 10, 30+dx, 60, 0, 0.9),
				det(200, 100+dy, 260, 140+dy, 1, 0.8),
			},
		}
	}
	return frames
}

func TestProcessFrameRecord(t *testing.T) {
	p := newTestPipeline(t)

	res, err := p.ProcessFrame(detect.Frame{Index: 1, Detections: []detect.Detection{det(40, 20, 60, 100, 0, 0.9)}})
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	r := res.Records[0]
	assert.Equal(t, 1, r.Frame)
	assert.Equal(t, int64(1), r.TrackID)
	assert.Equal(t, "person", r.ClassName)
	assert.Equal(t, 0.9, r.Confidence)
	assert.Equal(t, 50.0, r.PixelX)
	assert.Equal(t, 100.0, r.PixelY)
	assert.InDelta(t, 5, r.WorldX, 1e-6)
	assert.InDelta(t, 10, r.WorldY, 1e-6)

	assert.Equal(t, []int64{1}, res.ActiveIDs)
	require.Len(t, res.Tracked, 1)
	assert.True(t, res.Tracked[0].Created)
}

func TestProcessFrameFiltering(t *testing.T) {
	p := newTestPipeline(t)

	res, err := p.ProcessFrame(detect.Frame{Index: 1, Detections: []detect.Detection{
		det(0, 0, 10, 10, 0, 0.4),
		det(20, 0, 30, 10, 7, 0.9),
		det(40, 0, 50, 10, 1, 0.5),
		det(60, 0, 70, 10, 0, 0.49999),
	}})
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	assert.Equal(t, "car", res.Records[0].ClassName)
	assert.Equal(t, Dropped{LowConfidence: 2, UnknownClass: 1}, res.Dropped)

	st := p.Stats()
	assert.Equal(t, 4, st.Detections)
	assert.Equal(t, 1, st.Kept)
}

func TestEmptyFrame(t *testing.T) {
	p := newTestPipeline(t)

	_, err := p.ProcessFrame(detect.Frame{Index: 1, Detections: []detect.Detection{det(0, 0, 10, 10, 0, 0.9)}})
	require.NoError(t, err)

	res, err := p.ProcessFrame(detect.Frame{Index: 2})
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Equal(t, []int64{1}, res.ActiveIDs)

	track, ok := p.Tracker().Track(1)
	require.True(t, ok)
	assert.Equal(t, 1, track.Age)

	assert.Equal(t, 2, p.Store().Frames())
	assert.Equal(t, 1, p.Store().Len())
}

func TestNotCalibratedAbortsFrame(t *testing.T) {
	calc := homography.NewCalculator(logs.NewTestingLog(t), homography.DefaultOptions())
	trk := tracker.New(tracker.DefaultConfig())
	p := NewPipeline(logs.NewTestingLog(t), calc, trk, DefaultOptions())

	_, err := p.ProcessFrame(detect.Frame{Index: 1, Detections: []detect.Detection{det(0, 0, 10, 10, 0, 0.9)}})
	assert.ErrorIs(t, err, homography.ErrNotCalibrated)

	_, err = p.ProcessFrame(detect.Frame{Index: 2})
	assert.ErrorIs(t, err, homography.ErrNotCalibrated)

	assert.Equal(t, 0, trk.Len())
	assert.Equal(t, int64(0), trk.LastID())
	assert.Equal(t, 0, p.Store().Len())
	assert.Equal(t, 0, p.Store().Frames())
}

type failingTransform struct {
	fail bool
}

func (f *failingTransform) TransformPoints(ps []homography.Point) ([]homography.Point, error) {
	if f.fail {
		return nil, errors.New("transform unavailable")
	}
	return ps, nil
}

func TestTransformFailureLeavesTrackerUntouched(t *testing.T) {
	tf := &failingTransform{}
	trk := tracker.New(tracker.DefaultConfig())
	p := NewPipeline(logs.NewTestingLog(t), tf, trk, DefaultOptions())

	_, err := p.ProcessFrame(detect.Frame{Index: 1, Detections: []detect.Detection{det(0, 0, 10, 10, 0, 0.9)}})
	require.NoError(t, err)
	before := trk.Tracks()

	tf.fail = true
	_, err = p.ProcessFrame(detect.Frame{Index: 2, Detections: []detect.Detection{det(50, 50, 60, 60, 0, 0.9)}})
	require.Error(t, err)

	assert.Equal(t, before, trk.Tracks())
	assert.Equal(t, 1, p.Store().Len())

	// the failed frame was not consumed so it can be retried
	tf.fail = false
	_, err = p.ProcessFrame(detect.Frame{Index: 2, Detections: []detect.Detection{det(50, 50, 60, 60, 0, 0.9)}})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Store().Len())
}

func TestFrameOrder(t *testing.T) {
	p := newTestPipeline(t)

	_, err := p.ProcessFrame(detect.Frame{Index: 3})
	require.NoError(t, err)

	_, err = p.ProcessFrame(detect.Frame{Index: 3})
	assert.ErrorIs(t, err, ErrFrameOrder)

	_, err = p.ProcessFrame(detect.Frame{Index: 2})
	assert.ErrorIs(t, err, ErrFrameOrder)
}

func TestZeroBasedFrames(t *testing.T) {
	p := newTestPipeline(t)

	res, err := p.ProcessFrame(detect.Frame{Index: 0, Detections: []detect.Detection{det(10, 10, 30, 60, 0, 0.9)}})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 0, res.Records[0].Frame)

	_, err = p.ProcessFrame(detect.Frame{Index: 1, Detections: []detect.Detection{det(12, 10, 32, 60, 0, 0.9)}})
	require.NoError(t, err)

	_, err = p.ProcessFrame(detect.Frame{Index: 1})
	assert.ErrorIs(t, err, ErrFrameOrder)

	ids := p.Store().TrackIDs()
	assert.Equal(t, []int64{1}, ids)
}

func TestNegativeFrameRejected(t *testing.T) {
	p := newTestPipeline(t)

	_, err := p.ProcessFrame(detect.Frame{Index: -1})
	assert.ErrorIs(t, err, ErrFrameOrder)
	assert.Zero(t, p.Store().Len())
}

func TestMalformedDetectionsCounted(t *testing.T) {
	p := newTestPipeline(t)

	res, err := p.ProcessFrame(detect.Frame{
		Index:      1,
		Detections: []detect.Detection{det(10, 10, 30, 60, 0, 0.9)},
		Malformed:  2,
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, Dropped{Malformed: 2}, res.Dropped)

	stats := p.Stats()
	assert.Equal(t, 3, stats.Detections)
	assert.Equal(t, 1, stats.Kept)
	assert.Equal(t, 2, stats.Malformed)
}

func TestContinuousIdentity(t *testing.T) {
	p := newTestPipeline(t)

	for _, f := range walkingFrames(20) {
		res, err := p.ProcessFrame(f)
		require.NoError(t, err)
		require.Len(t, res.Records, 2)
		assert.Equal(t, int64(1), res.Records[0].TrackID)
		assert.Equal(t, int64(2), res.Records[1].TrackID)
	}

	traj := p.Store().Trajectories()
	require.Len(t, traj, 2)

	for id, pts := range traj {
		require.Len(t, pts, 20, "track %d", id)
		for i := 1; i < len(pts); i++ {
			assert.Greater(t, pts[i].Frame, pts[i-1].Frame)
		}
	}

	person := p.Store().TrajectoryFor(1)
	assert.InDelta(t, 2.0, person[0].X, 1e-6)
	assert.InDelta(t, 2.0+0.2*19, person[19].X, 1e-6)
	assert.Nil(t, p.Store().TrajectoryFor(99))
	assert.Equal(t, []int64{1, 2}, p.Store().TrackIDs())
}

func TestDeterministic(t *testing.T) {
	frames := walkingFrames(15)
	// a third object appearing and vanishing
	frames[4].Detections = append(frames[4].Detections, det(300, 300, 320, 340, 0, 0.7))
	frames[5].Detections = append(frames[5].Detections, det(301, 300, 321, 340, 0, 0.7))

	run := func() []Record {
		p := newTestPipeline(t)
		for _, f := range frames {
			_, err := p.ProcessFrame(f)
			require.NoError(t, err)
		}
		return p.Store().Records()
	}

	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
}

func TestSummary(t *testing.T) {
	p := newTestPipeline(t)

	assert.Equal(t, Summary{ClassCounts: map[string]int{}}, p.Store().Summary())

	for _, f := range walkingFrames(4) {
		_, err := p.ProcessFrame(f)
		require.NoError(t, err)
	}
	_, err := p.ProcessFrame(detect.Frame{Index: 5})
	require.NoError(t, err)

	s := p.Store().Summary()
	assert.Equal(t, 5, s.Frames)
	assert.Equal(t, 8, s.Records)
	assert.Equal(t, 2, s.UniqueTracks)
	assert.Equal(t, map[string]int{"person": 4, "car": 4}, s.ClassCounts)
	assert.InDelta(t, 0.8, s.MinConfidence, 1e-9)
	assert.InDelta(t, 0.9, s.MaxConfidence, 1e-9)
	assert.InDelta(t, 0.85, s.MeanConfidence, 1e-9)
	assert.Equal(t, 1, s.FirstFrame)
	assert.Equal(t, 4, s.LastFrame)
}
