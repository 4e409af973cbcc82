// Copyright 2026 Torch Ignite Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package anchors provides k-means anchor fitting for detection heads.
//
// Fit clusters dataset bounding-box sizes into per-scale anchor lists
// formatted for the detection head: the smallest anchors land on the
// highest-resolution scale.
//
// Example:
//
//	rng := rand.New(rand.NewSource(1))
//	result, err := anchors.Fit(sizes, 3, 3, rng)
package anchors

import (
	"math/rand"

	"github.com/JeiKeiLim/torch-ignite/internal/anchors"
)

// Result holds fitted anchors and the clustering quality.
type Result = anchors.Result

// Fit clusters the (width, height) samples into scales*perScale anchors
// using k-means with k-means++ seeding. Pass a fixed-seed rng for
// reproducible anchors.
func Fit(sizes [][2]float64, scales, perScale int, rng *rand.Rand) (*Result, error) {
	return anchors.Fit(sizes, scales, perScale, rng)
}
