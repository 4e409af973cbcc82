// Copyright 2026 Torch Ignite Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// RawTensor is the low-level tensor representation: a flat byte buffer
// plus shape, stride, and runtime type information. Backends operate on
// RawTensor; most users work with the typed Tensor instead.
type RawTensor = tensor.RawTensor

// NewRaw creates a new raw tensor with the given shape, dtype, and device.
//
// This is a low-level function. Most users should use high-level creation
// functions instead.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}
