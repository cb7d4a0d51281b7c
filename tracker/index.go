package tracker

import (
	"math"
	"sort"

	"github.com/bmharper/flatbush-go"
)

// boxIndex is a spatial index over the boxes of the active tracks, used to
// narrow the tracks a detection could possibly overlap
type boxIndex struct {
	fb      *flatbush.Flatbush[int32]
	results []int
}

// newBoxIndex builds an index where the i'th entry is tracks[i].Box
func newBoxIndex(tracks []*Track) *boxIndex {

	bi := &boxIndex{}

	if len(tracks) == 0 {
		return bi
	}

	bi.fb = flatbush.NewFlatbush[int32]()
	bi.fb.Reserve(len(tracks))

	for _, t := range tracks {
		minX, minY, maxX, maxY := gridBounds(t.Box)
		bi.fb.Add(minX, minY, maxX, maxY)
	}

	bi.fb.Finish()

	return bi
}

// overlapping returns the indices, in ascending order, of all tracks whose
// box touches r.  Rectangles without area overlap nothing.
func (bi *boxIndex) overlapping(r Rect) []int {

	if bi.fb == nil || r.Area() == 0 {
		return nil
	}

	minX, minY, maxX, maxY := gridBounds(r)
	bi.results = bi.fb.SearchFast(minX, minY, maxX, maxY, bi.results[:0])
	sort.Ints(bi.results)

	return bi.results
}

// gridBounds rounds a rectangle outwards onto the integer pixel grid so the
// integer index never misses a true overlap
func gridBounds(r Rect) (minX, minY, maxX, maxY int32) {
	x1, x2 := min(r.X1, r.X2), max(r.X1, r.X2)
	y1, y2 := min(r.Y1, r.Y2), max(r.Y1, r.Y2)
	return clampInt32(math.Floor(x1)), clampInt32(math.Floor(y1)),
		clampInt32(math.Ceil(x2)), clampInt32(math.Ceil(y2))
}

func clampInt32(v float64) int32 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < math.MinInt32:
		return math.MinInt32
	case v > math.MaxInt32:
		return math.MaxInt32
	}
	return int32(v)
}
