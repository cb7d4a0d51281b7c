package detect

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
)

// Source supplies frames of detections in frame order.  Next returns io.EOF
// once the stream is exhausted.
type Source interface {
	Next(ctx context.Context) (Frame, error)
}

// jsonDetection is the wire format of a single detection line entry
type jsonDetection struct {
	BBox       []float64 `json:"bbox"`
	ClassID    int       `json:"class_id"`
	Confidence float64   `json:"confidence"`
	TrackID    *int64    `json:"track_id,omitempty"`
}

// jsonFrame is the wire format of one line of a detection stream
type jsonFrame struct {
	Frame      *int            `json:"frame,omitempty"`
	Detections []jsonDetection `json:"detections"`
}

// JSONLSource reads recorded detector output with one JSON encoded frame per
// line, eg:
//
//	{"frame": 1, "detections": [{"bbox": [10, 20, 50, 120], "class_id": 0, "confidence": 0.91}]}
//
// Lines without a frame number are numbered sequentially after the previous
// frame, starting at 1.  Detections with a malformed bbox are skipped and
// counted on the frame.
type JSONLSource struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
	last    int
	started bool
}

// NewJSONLSource returns a source reading frames from r
func NewJSONLSource(r io.Reader) *JSONLSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)

	s := &JSONLSource{scanner: scanner}

	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}

	return s
}

// OpenJSONL opens the detection stream file at path
func OpenJSONL(path string) (*JSONLSource, error) {
	f, err := os.Open(path)

	if err != nil {
		return nil, fmt.Errorf("error opening detection stream: %w", err)
	}

	return NewJSONLSource(f), nil
}

// Next returns the next frame of detections
func (s *JSONLSource) Next(ctx context.Context) (Frame, error) {

	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return Frame{}, fmt.Errorf("error reading detection stream: %w", err)
			}
			return Frame{}, io.EOF
		}

		s.line++

		raw := s.scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}

		var jf jsonFrame
		if err := json.Unmarshal(raw, &jf); err != nil {
			return Frame{}, fmt.Errorf("line %d: invalid frame: %w", s.line, err)
		}

		frame, err := s.convert(jf)
		if err != nil {
			return Frame{}, fmt.Errorf("line %d: %w", s.line, err)
		}

		return frame, nil
	}
}

// Close releases the underlying reader when it is closable
func (s *JSONLSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// convert validates the wire frame and converts it to a Frame
func (s *JSONLSource) convert(jf jsonFrame) (Frame, error) {

	var index int

	switch {
	case jf.Frame != nil:
		index = *jf.Frame
	case s.started:
		index = s.last + 1
	default:
		index = 1
	}

	if index < 0 {
		return Frame{}, fmt.Errorf("frame %d is negative", index)
	}

	if s.started && index <= s.last {
		return Frame{}, fmt.Errorf("frame %d is not after frame %d", index, s.last)
	}

	s.last = index
	s.started = true

	frame := Frame{
		Index:      index,
		Detections: make([]Detection, 0, len(jf.Detections)),
	}

	for _, jd := range jf.Detections {
		if !validBBox(jd.BBox) {
			frame.Malformed++
			continue
		}

		frame.Detections = append(frame.Detections, Detection{
			Box: Box{
				XMin: jd.BBox[0],
				YMin: jd.BBox[1],
				XMax: jd.BBox[2],
				YMax: jd.BBox[3],
			},
			Class:      jd.ClassID,
			Confidence: jd.Confidence,
			TrackHint:  jd.TrackID,
		})
	}

	return frame, nil
}

// validBBox reports whether b holds four finite coordinates
func validBBox(b []float64) bool {
	if len(b) != 4 {
		return false
	}
	for _, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// SliceSource replays frames held in memory, used by tests and callers that
// already hold decoded detector output
type SliceSource struct {
	frames []Frame
	pos    int
}

// NewSliceSource returns a source replaying the given frames in order
func NewSliceSource(frames []Frame) *SliceSource {
	return &SliceSource{frames: frames}
}

// Next returns the next frame or io.EOF
func (s *SliceSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	if s.pos >= len(s.frames) {
		return Frame{}, io.EOF
	}

	f := s.frames[s.pos]
	s.pos++

	return f, nil
}
