package render

import (
	"image"

	"github.com/bmharper/ringbuffer"
)

// trailHistory keeps the most recent map positions of one track
type trailHistory struct {
	ring   ringbuffer.RingP[image.Point]
	length int
}

func newTrailHistory(length int) *trailHistory {
	return &trailHistory{
		ring:   ringbuffer.NewRingP[image.Point](nextPowerOf2(length)),
		length: length,
	}
}

// add records the latest position, the ring overwrites the oldest entry once
// full
func (t *trailHistory) add(p image.Point) {
	t.ring.Add(p)
}

// points returns at most length of the newest positions, oldest first
func (t *trailHistory) points() []image.Point {

	n := t.ring.Len()
	start := 0
	if n > t.length {
		start = n - t.length
	}

	out := make([]image.Point, 0, n-start)
	for i := start; i < n; i++ {
		p := t.ring.Peek(i)
		out = append(out, image.Pt(p.X, p.Y))
	}

	return out
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
