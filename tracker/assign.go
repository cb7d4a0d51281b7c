package tracker

// assignGreedy returns, for each object, the index into t.tracks of the
// track it matches or -1.  Objects are taken in input order and each claims
// the free same label track with the greatest IoU above the threshold.
// Tracks are held in id order so the strict comparison breaks ties in favour
// of the lowest track id.
func (t *Tracker) assignGreedy(objs []Object) []int {

	assigned := make([]int, len(objs))
	taken := make([]bool, len(t.tracks))
	index := newBoxIndex(t.tracks)

	for i, obj := range objs {

		best := -1
		bestIoU := t.cfg.IoUThreshold

		for _, j := range index.overlapping(obj.Rect) {
			track := t.tracks[j]

			if taken[j] || track.Label != obj.Label {
				continue
			}

			if iou := IoU(obj.Rect, track.Box); iou > bestIoU {
				best = j
				bestIoU = iou
			}
		}

		if best >= 0 {
			taken[best] = true
		}

		assigned[i] = best
	}

	return assigned
}

// assignOptimal returns the same mapping as assignGreedy but chosen to
// minimise the summed 1-IoU cost over the whole frame.  Pairs with differing
// labels or an IoU at or below the threshold are never assigned.
func (t *Tracker) assignOptimal(objs []Object) []int {

	assigned := make([]int, len(objs))
	for i := range assigned {
		assigned[i] = -1
	}

	if len(objs) == 0 || len(t.tracks) == 0 {
		return assigned
	}

	// a pair is only worth taking if its cost beats leaving both unmatched
	limit := 1 - t.cfg.IoUThreshold
	iou := make([][]float64, len(t.tracks))
	cost := make([][]float64, len(t.tracks))
	index := newBoxIndex(t.tracks)

	for j := range t.tracks {
		iou[j] = make([]float64, len(objs))
		cost[j] = make([]float64, len(objs))
		for i := range objs {
			cost[j][i] = 1
		}
	}

	for i, obj := range objs {
		for _, j := range index.overlapping(obj.Rect) {
			if t.tracks[j].Label != obj.Label {
				continue
			}
			iou[j][i] = IoU(obj.Rect, t.tracks[j].Box)
			cost[j][i] = 1 - iou[j][i]
		}
	}

	rowSol, _ := solveRectangular(cost, limit)

	for j, i := range rowSol {
		if i < 0 {
			continue
		}
		if iou[j][i] > t.cfg.IoUThreshold {
			assigned[i] = j
		}
	}

	return assigned
}
