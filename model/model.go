// Copyright 2026 Torch Ignite Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package model provides the public API for declarative model assembly.
//
// A model is described as a flat list of LayerSpec rows, each naming its
// input layers, a repeat count, a registered layer type, and type-specific
// arguments. The assembler resolves sources, tracks channel counts, and
// compiles the rows into an executable plan.
//
// Example:
//
//	backend := cpu.New()
//	specs := []model.LayerSpec{
//	    {From: []int{-1}, Repeat: 1, Type: "Conv", Args: []any{16, 3, 2}},
//	    {From: []int{-1}, Repeat: 3, Type: "Bottleneck", Args: []any{16}},
//	}
//	m, err := model.New(specs, 3, backend)
package model

import (
	"github.com/JeiKeiLim/torch-ignite/internal/model"
	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// LayerSpec describes one layer row: sources, repeat count, type name, and
// type-specific arguments.
type LayerSpec = model.LayerSpec

// HeadType is the reserved type name of the detection head spec row.
const HeadType = model.HeadType

// Registry maps layer type names to factories.
type Registry[B tensor.Backend] = model.Registry[B]

// Factory builds a module from its resolved input channels and arguments.
type Factory[B tensor.Backend] = model.Factory[B]

// ChannelFunc computes a layer's output channels from its inputs and args.
type ChannelFunc = model.ChannelFunc

// NewRegistry creates an empty layer registry.
func NewRegistry[B tensor.Backend]() *Registry[B] {
	return model.NewRegistry[B]()
}

// DefaultRegistry returns a registry with all built-in layer types:
// Conv, DWConv, Bottleneck, C3, Focus, SPP, SPPF, Concat, Shortcut,
// MaxPool, UpSample.
func DefaultRegistry[B tensor.Backend]() *Registry[B] {
	return model.DefaultRegistry[B]()
}

// Plan is a compiled execution plan.
type Plan[B tensor.Backend] = model.Plan[B]

// CompiledLayer is one resolved layer of a Plan.
type CompiledLayer[B tensor.Backend] = model.CompiledLayer[B]

// Compile compiles layer specs into an execution plan.
func Compile[B tensor.Backend](specs []LayerSpec, inputChannels int, registry *Registry[B], backend B) (*Plan[B], error) {
	return model.Compile(specs, inputChannels, registry, backend)
}

// Model is an assembled computation graph bound to a backend.
type Model[B tensor.Backend] = model.Model[B]

// New compiles the layer specs into a runnable model using the default
// registry.
func New[B tensor.Backend](specs []LayerSpec, inputChannels int, backend B) (*Model[B], error) {
	return model.NewModel(specs, inputChannels, model.DefaultRegistry[B](), backend)
}

// NewWithRegistry compiles the layer specs using a custom registry.
func NewWithRegistry[B tensor.Backend](specs []LayerSpec, inputChannels int, registry *Registry[B], backend B) (*Model[B], error) {
	return model.NewModel(specs, inputChannels, registry, backend)
}

// DetectionModel is a Model whose terminal layer is a YOLOHead.
type DetectionModel[B tensor.Backend] = model.DetectionModel[B]

// NewDetection compiles specs whose final row is a YOLOHead into a
// detection model using the default registry.
func NewDetection[B tensor.Backend](specs []LayerSpec, inputChannels int, backend B) (*DetectionModel[B], error) {
	return model.NewDetectionModel(specs, inputChannels, model.DefaultRegistry[B](), backend)
}

// YOLOHead is the multi-scale detection head.
type YOLOHead[B tensor.Backend] = model.YOLOHead[B]

// NewYOLOHead creates a detection head over the given feature channels.
func NewYOLOHead[B tensor.Backend](numClasses int, anchors [][]float64, inChannels []int, backend B) (*YOLOHead[B], error) {
	return model.NewYOLOHead(numClasses, anchors, inChannels, backend)
}

// BiasInit configures detection-head bias initialization.
type BiasInit = model.BiasInit

// DetectOutput is the detection head's forward result.
type DetectOutput[B tensor.Backend] = model.DetectOutput[B]

// Profile aggregates per-layer parameter and MAC counts.
type Profile = model.Profile

// LayerProfile is one layer's row in a Profile.
type LayerProfile = model.LayerProfile

// Errors

// ConfigError reports a malformed or unresolvable architecture spec.
type ConfigError = model.ConfigError

// ComputationError reports a failure during a forward pass.
type ComputationError = model.ComputationError

// Sentinel errors for detection-head state handling.
var (
	ErrNotCalibrated     = model.ErrNotCalibrated
	ErrAmbiguousBiasInit = model.ErrAmbiguousBiasInit
)
