package tracker

import "github.com/AmirHoseinTaherkhani/object-mapping/detect"

// DetectionsToObjects takes detector results and converts them into tracker
// objects labelled with their class name.  Detections whose class id has no
// entry in names are skipped.
func DetectionsToObjects(dets []detect.Detection, names map[int]string) []Object {

	objs := make([]Object, 0, len(dets))

	for _, det := range dets {

		label, ok := names[det.Class]
		if !ok {
			continue
		}

		objs = append(objs, Object{
			Rect:  NewRect(det.Box.XMin, det.Box.YMin, det.Box.XMax, det.Box.YMax),
			Label: label,
			Prob:  det.Confidence,
			Hint:  det.TrackHint,
		})
	}

	return objs
}
