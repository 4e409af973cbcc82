// Copyright 2026 Torch Ignite Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and building blocks.
//
// # Overview
//
// This package contains:
//   - Layers: Conv2D, BatchNorm2d, MaxPool, UpSample
//   - Blocks: Conv (conv+bn+activation), DWConv, Bottleneck, C3, Focus, SPP, SPPF
//   - Merge layers: Concat, Shortcut
//   - Utilities: Sequential, Module interface, Parameter, Fuser
//   - Initialization: Xavier, Zeros, Ones
//
// # Basic Usage
//
//	import (
//	    "github.com/JeiKeiLim/torch-ignite/nn"
//	    "github.com/JeiKeiLim/torch-ignite/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Conv block: 3 -> 16 channels, 3x3 kernel, stride 2
//	    conv := nn.NewConv(3, 16, 3, 2, -1, nn.ActSiLU, backend)
//
//	    out := conv.Forward(input)
//	}
//
// # Fusion
//
// Blocks containing batch normalization implement Fuser. Fuse folds the
// normalization into the convolution weights for inference:
//
//	conv.Fuse()  // idempotent
package nn
