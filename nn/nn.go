// Copyright 2026 Torch Ignite Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/JeiKeiLim/torch-ignite/internal/nn"
	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// Module is the base interface for all neural network layers.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter represents a named trainable tensor.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// Fuser is implemented by modules that can fold batch normalization into
// convolution weights.
type Fuser = nn.Fuser

// Costed is implemented by modules that can report output shapes and
// multiply-accumulate counts without running a forward pass.
type Costed = nn.Costed

// NewParameter creates a new trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Activation names accepted by the convolutional blocks.
const (
	ActReLU      = nn.ActReLU
	ActSiLU      = nn.ActSiLU
	ActLeakyReLU = nn.ActLeakyReLU
	ActSigmoid   = nn.ActSigmoid
	ActIdentity  = nn.ActIdentity
)

// ValidActivation reports whether name is a known activation.
func ValidActivation(name string) bool {
	return nn.ValidActivation(name)
}

// Layers

// Conv2D is a plain 2D convolutional layer.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a Conv2D with Xavier-initialized weights.
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding int, useBias bool, backend B) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelSize, stride, padding, useBias, backend)
}

// BatchNorm2d normalizes channels of a 4D tensor with running statistics.
type BatchNorm2d[B tensor.Backend] = nn.BatchNorm2d[B]

// NewBatchNorm2d creates a BatchNorm2d over numFeatures channels.
func NewBatchNorm2d[B tensor.Backend](numFeatures int, eps float64, backend B) *BatchNorm2d[B] {
	return nn.NewBatchNorm2d(numFeatures, eps, backend)
}

// Blocks

// Conv is the standard convolution block: Conv2D + BatchNorm2d + activation.
type Conv[B tensor.Backend] = nn.Conv[B]

// NewConv creates a Conv block. A negative padding selects autopad.
func NewConv[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding int, activation string, backend B) *Conv[B] {
	return nn.NewConv(inChannels, outChannels, kernelSize, stride, padding, activation, backend)
}

// Autopad returns the "same" padding for a kernel when padding is negative.
func Autopad(kernelSize, padding int) int {
	return nn.Autopad(kernelSize, padding)
}

// DWConv is the depthwise convolution block: grouped convolution with
// groups = gcd(in, out), plus BatchNorm2d and activation.
type DWConv[B tensor.Backend] = nn.DWConv[B]

// NewDWConv creates a DWConv block. A negative padding selects autopad.
func NewDWConv[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding int, activation string, backend B) *DWConv[B] {
	return nn.NewDWConv(inChannels, outChannels, kernelSize, stride, padding, activation, backend)
}

// Bottleneck is the standard residual bottleneck block.
type Bottleneck[B tensor.Backend] = nn.Bottleneck[B]

// NewBottleneck creates a bottleneck block.
func NewBottleneck[B tensor.Backend](inChannels, outChannels int, shortcut bool, expansion float64, activation string, backend B) *Bottleneck[B] {
	return nn.NewBottleneck(inChannels, outChannels, shortcut, expansion, activation, backend)
}

// C3 is the CSP bottleneck block with three convolutions.
type C3[B tensor.Backend] = nn.C3[B]

// NewC3 creates a C3 block with depth inner bottlenecks.
func NewC3[B tensor.Backend](inChannels, outChannels, depth int, shortcut bool, expansion float64, activation string, backend B) *C3[B] {
	return nn.NewC3(inChannels, outChannels, depth, shortcut, expansion, activation, backend)
}

// Focus reduces spatial resolution into the channel dimension.
type Focus[B tensor.Backend] = nn.Focus[B]

// NewFocus creates a Focus block.
func NewFocus[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding int, activation string, backend B) *Focus[B] {
	return nn.NewFocus(inChannels, outChannels, kernelSize, stride, padding, activation, backend)
}

// SPP is the spatial pyramid pooling block.
type SPP[B tensor.Backend] = nn.SPP[B]

// NewSPP creates an SPP block. Typical kernel sizes are [5, 9, 13].
func NewSPP[B tensor.Backend](inChannels, outChannels int, kernelSizes []int, activation string, backend B) *SPP[B] {
	return nn.NewSPP(inChannels, outChannels, kernelSizes, activation, backend)
}

// SPPF is the fast spatial pyramid pooling block (one cascaded pool).
type SPPF[B tensor.Backend] = nn.SPPF[B]

// NewSPPF creates an SPPF block. The typical kernel size is 5.
func NewSPPF[B tensor.Backend](inChannels, outChannels, kernelSize int, activation string, backend B) *SPPF[B] {
	return nn.NewSPPF(inChannels, outChannels, kernelSize, activation, backend)
}

// Spatial layers

// MaxPool is a 2D max-pooling layer.
type MaxPool[B tensor.Backend] = nn.MaxPool[B]

// NewMaxPool creates a MaxPool layer.
func NewMaxPool[B tensor.Backend](kernelSize, stride, padding int) *MaxPool[B] {
	return nn.NewMaxPool[B](kernelSize, stride, padding)
}

// UpSample scales spatial dimensions by nearest-neighbor interpolation.
type UpSample[B tensor.Backend] = nn.UpSample[B]

// NewUpSample creates an UpSample layer.
func NewUpSample[B tensor.Backend](scale int, mode string) *UpSample[B] {
	return nn.NewUpSample[B](scale, mode)
}

// Merge layers

// Concat concatenates its inputs along a dimension.
type Concat[B tensor.Backend] = nn.Concat[B]

// NewConcat creates a Concat layer over the given dimension.
func NewConcat[B tensor.Backend](dim int) *Concat[B] {
	return nn.NewConcat[B](dim)
}

// Shortcut sums its inputs element-wise.
type Shortcut[B tensor.Backend] = nn.Shortcut[B]

// NewShortcut creates a Shortcut layer.
func NewShortcut[B tensor.Backend]() *Shortcut[B] {
	return nn.NewShortcut[B]()
}

// Containers

// Sequential chains single-input modules together.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a new Sequential container.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Initialization

// Xavier creates a Xavier-initialized tensor.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier[B](fanIn, fanOut, shape, backend)
}

// Zeros creates a zero-initialized tensor.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros[B](shape, backend)
}

// Ones creates a one-initialized tensor.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Ones[B](shape, backend)
}
