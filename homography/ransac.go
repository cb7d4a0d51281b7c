package homography

import (
	"math"
	"math/rand"
	"slices"
)

const (
	// sampleAttempts is how many random draws are made per iteration to find
	// a non degenerate minimal sample
	sampleAttempts = 100
)

// estimate is the outcome of a robust fit
type estimate struct {
	matrix  Matrix
	inliers []bool
	count   int
}

// ransac fits a homography to src->dst while ignoring outliers.  Candidate
// transforms are fitted to random minimal samples and scored by the number
// of pairs whose reprojection error is within threshold, ties going to the
// lower summed error of the inliers.  The best consensus set is refit by
// least squares.
func ransac(src, dst []Point, opts Options, rng *rand.Rand) (estimate, error) {

	n := len(src)

	var (
		best      estimate
		bestSum   = math.Inf(1)
		sample    [4]int
		sSrc      [4]Point
		sDst      [4]Point
		maxIters  = opts.MaxIterations
		validSeen bool
	)

	for iter := 0; iter < maxIters; iter++ {

		if !drawSample(rng, src, dst, sample[:], &sSrc, &sDst) {
			continue
		}

		h, err := fitDLT(sSrc[:], sDst[:])
		if err != nil {
			continue
		}

		validSeen = true

		inliers, count, sum := score(h, src, dst, opts.RansacThreshold)

		if count > best.count || (count == best.count && sum < bestSum) {
			improved := count > best.count
			best = estimate{matrix: h, inliers: inliers, count: count}
			bestSum = sum

			if improved {
				maxIters = updateIterations(opts.Confidence, float64(n-count)/float64(n), len(sample), maxIters)
			}
		}
	}

	if !validSeen || best.count < MinPoints {
		return estimate{}, errCollinear
	}

	// refit on the consensus set, keeping the sample fit if that fails or
	// loses inliers
	var isrc, idst []Point
	for i, in := range best.inliers {
		if in {
			isrc = append(isrc, src[i])
			idst = append(idst, dst[i])
		}
	}

	h, err := fitDLT(isrc, idst)
	if err != nil {
		return best, nil
	}

	inliers, count, _ := score(h, src, dst, opts.RansacThreshold)
	if count < best.count {
		return best, nil
	}

	return estimate{matrix: h, inliers: inliers, count: count}, nil
}

// drawSample picks four distinct correspondences that form a usable minimal
// sample, returning false if none was found within sampleAttempts draws
func drawSample(rng *rand.Rand, src, dst []Point, idx []int, sSrc, sDst *[4]Point) bool {

	n := len(src)

	for attempt := 0; attempt < sampleAttempts; attempt++ {

		for i := range idx {
			for {
				k := rng.Intn(n)
				if !slices.Contains(idx[:i], k) {
					idx[i] = k
					break
				}
			}
		}

		for i, k := range idx {
			sSrc[i] = src[k]
			sDst[i] = dst[k]
		}

		if checkSample(*sSrc, *sDst) == nil {
			return true
		}
	}

	return false
}

// score counts the pairs whose reprojection error is within threshold and
// sums their errors
func score(h Matrix, src, dst []Point, threshold float64) ([]bool, int, float64) {

	inliers := make([]bool, len(src))
	count := 0
	sum := 0.0

	for i := range src {
		e := h.Apply(src[i]).Distance(dst[i])
		if e <= threshold {
			inliers[i] = true
			count++
			sum += e
		}
	}

	return inliers, count, sum
}

// updateIterations returns the number of iterations needed to draw at least
// one outlier free sample of size m with the given confidence, when a
// fraction outliers of the pairs are outliers
func updateIterations(confidence, outliers float64, m, maxIters int) int {

	confidence = math.Max(confidence, 0)
	confidence = math.Min(confidence, 1)
	outliers = math.Max(outliers, 0)
	outliers = math.Min(outliers, 1)

	num := math.Max(1-confidence, math.SmallestNonzeroFloat64)
	denom := 1 - math.Pow(1-outliers, float64(m))

	if denom < math.SmallestNonzeroFloat64 {
		return 0
	}

	num = math.Log(num)
	denom = math.Log(denom)

	if denom >= 0 || -num >= float64(maxIters)*(-denom) {
		return maxIters
	}

	return int(math.Round(num / denom))
}
