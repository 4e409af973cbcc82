package anchors

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clusteredSizes generates n samples around each of the given centers with
// a small deterministic jitter.
func clusteredSizes(centers [][2]float64, n int, rng *rand.Rand) [][2]float64 {
	var sizes [][2]float64
	for _, c := range centers {
		for i := 0; i < n; i++ {
			sizes = append(sizes, [2]float64{
				c[0] + rng.Float64()*2 - 1,
				c[1] + rng.Float64()*2 - 1,
			})
		}
	}
	return sizes
}

// TestFit tests that well-separated clusters are recovered near their
// true centers.
func TestFit(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	centers := [][2]float64{
		{10, 12}, {18, 30}, {35, 25},
		{60, 45}, {55, 110}, {120, 90},
	}
	sizes := clusteredSizes(centers, 40, rng)

	result, err := Fit(sizes, 2, 3, rng)
	require.NoError(t, err)
	require.Len(t, result.Anchors, 2)
	require.Len(t, result.Anchors[0], 6)
	require.Len(t, result.Anchors[1], 6)

	// Every true center should have a fitted anchor within the jitter
	// radius.
	var fitted [][2]float64
	for _, scale := range result.Anchors {
		for i := 0; i < len(scale); i += 2 {
			fitted = append(fitted, [2]float64{scale[i], scale[i+1]})
		}
	}
	for _, c := range centers {
		best := math.Inf(1)
		for _, f := range fitted {
			d := math.Hypot(f[0]-c[0], f[1]-c[1])
			if d < best {
				best = d
			}
		}
		assert.Less(t, best, 1.5, "no anchor near center %v", c)
	}

	// Jitter is uniform in [-1, 1] per axis, so the per-sample distance to
	// a recovered center stays below sqrt(2).
	assert.Greater(t, result.MeanDistance, 0.0)
	assert.Less(t, result.MeanDistance, math.Sqrt2)
}

// TestFit_AreaOrdering tests that anchors are sorted by area across scales.
func TestFit_AreaOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	centers := [][2]float64{
		{150, 140}, {8, 10}, {70, 60}, {30, 25},
	}
	sizes := clusteredSizes(centers, 30, rng)

	result, err := Fit(sizes, 4, 1, rng)
	require.NoError(t, err)

	prev := 0.0
	for s, scale := range result.Anchors {
		area := scale[0] * scale[1]
		assert.Greater(t, area, prev, "scale %d out of order", s)
		prev = area
	}
}

// TestFit_Reproducible tests that a fixed seed yields identical anchors.
func TestFit_Reproducible(t *testing.T) {
	centers := [][2]float64{{10, 10}, {50, 40}, {90, 120}}
	sizes := clusteredSizes(centers, 25, rand.New(rand.NewSource(1)))

	a, err := Fit(sizes, 3, 1, rand.New(rand.NewSource(99)))
	require.NoError(t, err)
	b, err := Fit(sizes, 3, 1, rand.New(rand.NewSource(99)))
	require.NoError(t, err)

	assert.Equal(t, a.Anchors, b.Anchors)
	assert.Equal(t, a.MeanDistance, b.MeanDistance)
}

// TestFit_DegenerateSamples tests the all-identical-samples fallback.
func TestFit_DegenerateSamples(t *testing.T) {
	sizes := make([][2]float64, 10)
	for i := range sizes {
		sizes[i] = [2]float64{16, 16}
	}

	result, err := Fit(sizes, 1, 3, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	assert.Zero(t, result.MeanDistance)
	for i := 0; i < 6; i += 2 {
		assert.Equal(t, 16.0, result.Anchors[0][i])
		assert.Equal(t, 16.0, result.Anchors[0][i+1])
	}
}

// TestFit_Validation tests input checks.
func TestFit_Validation(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	sizes := [][2]float64{{10, 10}, {20, 20}}

	_, err := Fit(sizes, 0, 3, rng)
	require.Error(t, err)

	_, err = Fit(sizes, 3, 0, rng)
	require.Error(t, err)

	_, err = Fit(sizes, 3, 3, rng)
	require.Error(t, err)

	_, err = Fit([][2]float64{{10, 10}, {-1, 5}}, 1, 2, rng)
	require.Error(t, err)

	_, err = Fit([][2]float64{{10, 10}, {5, 0}}, 1, 2, rng)
	require.Error(t, err)
}
