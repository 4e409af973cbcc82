// Package anchors fits detection anchor boxes to a dataset with k-means
// clustering over bounding-box sizes.
//
// The result is formatted for the detection head: one flat [w1, h1, w2,
// h2, ...] list per scale, sorted by area so the smallest anchors land on
// the highest-resolution scale.
package anchors

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const maxIterations = 300

// Result holds fitted anchors and the clustering quality.
type Result struct {
	// Anchors has one entry per scale, each a flat [w, h, w, h, ...]
	// list in input pixels, sorted by ascending area across scales.
	Anchors [][]float64

	// MeanDistance is the mean Euclidean distance from each sample to
	// its assigned centroid. Lower is a tighter fit.
	MeanDistance float64
}

// Fit clusters the (width, height) samples into scales*perScale anchors
// using k-means with k-means++ seeding. sizes holds one [w, h] pair per
// box, in input pixels. The rng drives seeding; pass a fixed-seed source
// for reproducible anchors.
func Fit(sizes [][2]float64, scales, perScale int, rng *rand.Rand) (*Result, error) {
	k := scales * perScale
	if scales <= 0 || perScale <= 0 {
		return nil, fmt.Errorf("anchors: invalid shape %d scales x %d per scale", scales, perScale)
	}
	if len(sizes) < k {
		return nil, fmt.Errorf("anchors: %d samples for %d clusters", len(sizes), k)
	}
	for i, s := range sizes {
		if s[0] <= 0 || s[1] <= 0 {
			return nil, fmt.Errorf("anchors: sample %d has non-positive size [%g, %g]", i, s[0], s[1])
		}
	}

	centroids := seed(sizes, k, rng)
	assign := make([]int, len(sizes))

	for iter := 0; iter < maxIterations; iter++ {
		if !reassign(sizes, centroids, assign) && iter > 0 {
			break
		}
		recenter(sizes, assign, centroids)
	}

	mean := meanDistance(sizes, centroids, assign)

	// Sort by area so scale 0 gets the smallest anchors.
	sort.Slice(centroids, func(i, j int) bool {
		return centroids[i][0]*centroids[i][1] < centroids[j][0]*centroids[j][1]
	})

	result := &Result{
		Anchors:      make([][]float64, scales),
		MeanDistance: mean,
	}
	for s := 0; s < scales; s++ {
		flat := make([]float64, 0, 2*perScale)
		for _, c := range centroids[s*perScale : (s+1)*perScale] {
			flat = append(flat, c[0], c[1])
		}
		result.Anchors[s] = flat
	}
	return result, nil
}

// seed picks k initial centroids with k-means++: the first uniformly, the
// rest weighted by squared distance to the nearest chosen centroid.
func seed(sizes [][2]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := sizes[rng.Intn(len(sizes))]
	centroids = append(centroids, []float64{first[0], first[1]})

	weights := make([]float64, len(sizes))
	for len(centroids) < k {
		for i, s := range sizes {
			d := nearestDistance(s, centroids)
			weights[i] = d * d
		}
		total := floats.Sum(weights)
		if total == 0 {
			// All samples coincide with a centroid; fall back to uniform.
			s := sizes[rng.Intn(len(sizes))]
			centroids = append(centroids, []float64{s[0], s[1]})
			continue
		}
		target := rng.Float64() * total
		var cum float64
		pick := len(sizes) - 1
		for i, w := range weights {
			cum += w
			if cum >= target {
				pick = i
				break
			}
		}
		centroids = append(centroids, []float64{sizes[pick][0], sizes[pick][1]})
	}
	return centroids
}

// reassign maps each sample to its nearest centroid, reporting whether any
// assignment changed.
func reassign(sizes [][2]float64, centroids [][]float64, assign []int) bool {
	changed := false
	for i, s := range sizes {
		best, bestDist := 0, floats.Distance(s[:], centroids[0], 2)
		for c := 1; c < len(centroids); c++ {
			if d := floats.Distance(s[:], centroids[c], 2); d < bestDist {
				best, bestDist = c, d
			}
		}
		if assign[i] != best {
			assign[i] = best
			changed = true
		}
	}
	return changed
}

// recenter moves each centroid to the mean of its assigned samples. Empty
// clusters keep their previous position.
func recenter(sizes [][2]float64, assign []int, centroids [][]float64) {
	for c := range centroids {
		var ws, hs []float64
		for i, a := range assign {
			if a == c {
				ws = append(ws, sizes[i][0])
				hs = append(hs, sizes[i][1])
			}
		}
		if len(ws) == 0 {
			continue
		}
		centroids[c][0] = stat.Mean(ws, nil)
		centroids[c][1] = stat.Mean(hs, nil)
	}
}

func nearestDistance(s [2]float64, centroids [][]float64) float64 {
	best := floats.Distance(s[:], centroids[0], 2)
	for _, c := range centroids[1:] {
		if d := floats.Distance(s[:], c, 2); d < best {
			best = d
		}
	}
	return best
}

func meanDistance(sizes [][2]float64, centroids [][]float64, assign []int) float64 {
	dists := make([]float64, len(sizes))
	for i, s := range sizes {
		dists[i] = floats.Distance(s[:], centroids[assign[i]], 2)
	}
	return stat.Mean(dists, nil)
}
