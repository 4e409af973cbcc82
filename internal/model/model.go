package model

import (
	"fmt"

	"github.com/JeiKeiLim/torch-ignite/internal/nn"
	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// Model is an assembled computation graph: a compiled plan bound to a
// backend, replayed by a deterministic single-threaded forward pass. A
// single Model instance serves one forward call at a time; independent
// instances share no state.
type Model[B tensor.Backend] struct {
	plan    *Plan[B]
	backend B

	inputChannels int

	// outShapes[i] holds layer i's output shape from the latest forward
	// pass; used by the profiler.
	outShapes []tensor.Shape
}

// NewModel compiles the layer specs into a runnable model.
func NewModel[B tensor.Backend](specs []LayerSpec, inputChannels int, registry *Registry[B], backend B) (*Model[B], error) {
	plan, err := Compile(specs, inputChannels, registry, backend)
	if err != nil {
		return nil, err
	}
	return &Model[B]{
		plan:          plan,
		backend:       backend,
		inputChannels: inputChannels,
		outShapes:     make([]tensor.Shape, len(plan.Layers)+1),
	}, nil
}

// Plan returns the compiled execution plan.
func (m *Model[B]) Plan() *Plan[B] {
	return m.plan
}

// Layers returns the compiled layers in execution order.
func (m *Model[B]) Layers() []*CompiledLayer[B] {
	return m.plan.Layers
}

// InputChannels returns the model's input channel count.
func (m *Model[B]) InputChannels() int {
	return m.inputChannels
}

// Forward runs the full plan and returns the final layer's output.
func (m *Model[B]) Forward(x *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	last := len(m.plan.Layers)
	outputs, err := m.ForwardFeatures(x, []int{last})
	if err != nil {
		return nil, err
	}
	return outputs[0], nil
}

// ForwardFeatures runs the plan and returns the outputs of the requested
// layer indices, in the given order. This is how the detection head gathers
// its multi-scale feature maps.
//
// The engine keeps an index -> tensor cache seeded with the input at index
// 0. After each layer it evicts every cached entry whose last consumer has
// executed, unless the entry is itself a requested output.
func (m *Model[B]) ForwardFeatures(x *tensor.Tensor[float32, B], indices []int) ([]*tensor.Tensor[float32, B], error) {
	wanted := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx > len(m.plan.Layers) {
			return nil, fmt.Errorf("forward: requested output %d outside plan of %d layers", idx, len(m.plan.Layers))
		}
		wanted[idx] = true
	}

	cache := make(map[int]*tensor.Tensor[float32, B], len(m.plan.Layers))
	cache[0] = x
	m.outShapes[0] = x.Shape()

	for _, layer := range m.plan.Layers {
		inputs := make([]*tensor.Tensor[float32, B], len(layer.From))
		for i, src := range layer.From {
			in, ok := cache[src]
			if !ok {
				return nil, fmt.Errorf("forward: layer %d input %d was evicted", layer.Index, src)
			}
			inputs[i] = in
		}

		out, err := runLayer(layer, inputs)
		if err != nil {
			return nil, err
		}
		cache[layer.Index] = out
		m.outShapes[layer.Index] = out.Shape()

		// Eager eviction: drop entries whose last consumer has run.
		for idx := range cache {
			if wanted[idx] {
				continue
			}
			if m.plan.lastUse[idx] <= layer.Index {
				delete(cache, idx)
			}
		}
	}

	outputs := make([]*tensor.Tensor[float32, B], len(indices))
	for i, idx := range indices {
		out, ok := cache[idx]
		if !ok {
			return nil, fmt.Errorf("forward: requested output %d not cached", idx)
		}
		outputs[i] = out
	}
	return outputs, nil
}

// runLayer invokes one module, converting kernel panics (shape or dtype
// mismatches) into a ComputationError naming the layer.
func runLayer[B tensor.Backend](layer *CompiledLayer[B], inputs []*tensor.Tensor[float32, B]) (out *tensor.Tensor[float32, B], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ComputationError{LayerIndex: layer.Index, Layer: layer.Type, Cause: r}
		}
	}()
	return layer.Module.Forward(inputs...), nil
}

// Parameters returns all trainable parameters in execution order.
func (m *Model[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, layer := range m.plan.Layers {
		params = append(params, layer.Module.Parameters()...)
	}
	return params
}

// Fuse folds every convolution + batch-normalization pair in the graph into
// a single affine convolution. Modules are replaced in place, preserving
// layer indices, so the execution engine is unaffected. Fusion is
// idempotent: fused blocks no longer match the conv+bn pattern.
//
// Must not run concurrently with an in-flight forward pass.
func (m *Model[B]) Fuse() {
	for _, layer := range m.plan.Layers {
		if f, ok := layer.Module.(nn.Fuser); ok {
			f.Fuse()
		}
	}
}
